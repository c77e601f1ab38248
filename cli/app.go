package cli

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"

	tapcards "github.com/schjonhaug/cktap"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/schjonhaug/cktap/cli.Version=...".
var Version = "dev"

// Locator finds the one card this run talks to. The returned function
// releases the transport.
type Locator func(cfg Config) (Handle, func(), error)

// App is one cktap invocation.
type App struct {
	Locate   Locator
	Prompter Prompter
	// Rand is the source of chain codes.
	Rand   io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an App wired to the terminal, crypto/rand and the locator
// selected at build time.
func New() *App {
	return &App{
		Locate:   DefaultLocator,
		Prompter: TerminalPrompter{In: os.Stdin, Out: os.Stdout},
		Rand:     rand.Reader,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Run locates the card, parses args against its grammar and runs the
// selected command. It returns the process exit code.
func (a *App) Run(args []string) int {

	options, err := parseGlobal(args)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitArgument
	}

	if options.version {
		fmt.Fprintf(a.Stdout, "cktap %s\n", Version)
		return ExitOK
	}

	cfg, err := LoadConfig(options.configPath, options.flags.Changed("config"))
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitArgument
	}

	if err := options.apply(&cfg); err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitArgument
	}

	configureLogging(cfg.Debug, a.Stderr)

	handle, release, err := a.Locate(cfg)
	if err != nil {
		e := Classify(err)
		slog.Debug("Locate failed", "Category", e.Category, "Error", err)
		fmt.Fprintf(a.Stderr, "Error: %s\n", e.Message)
		return ExitDiscovery
	}
	defer release()

	r := &router{prompter: a.Prompter, stdout: a.Stdout}

	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}

	root := a.grammar(r, handle)
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return ExitArgument
	}

	if r.failed && cfg.StrictExit {
		return ExitFailure
	}

	return ExitOK
}

func (a *App) grammar(r *router, handle Handle) *cobra.Command {
	switch h := handle.(type) {
	case SatsCardHandle:
		return r.grammar("satscard-cli", "Talk to a SATSCARD", satscardOperations(h.Session, a.Rand))
	case TapSignerHandle:
		return r.grammar("tapsigner-cli", "Talk to a "+h.Kind.String(), tapsignerOperations(h.Session, a.Rand))
	default:
		panic(fmt.Sprintf("unknown card handle %T", handle))
	}
}

func configureLogging(debug bool, w io.Writer) {

	if debug {
		tapcards.EnableDebugLogging(w)
		return
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn})
	slog.SetDefault(slog.New(handler))
}
