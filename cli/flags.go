package cli

import (
	"io"
	"time"

	"github.com/spf13/pflag"
)

// globalOptions are the flags understood before the card is located.
type globalOptions struct {
	configPath string
	reader     string
	socket     string
	wait       time.Duration
	debug      bool
	strictExit bool
	version    bool
	help       bool

	flags *pflag.FlagSet
}

func addGlobalFlags(fs *pflag.FlagSet, o *globalOptions) {
	fs.StringVar(&o.configPath, "config", DefaultConfigPath(), "config file")
	fs.StringVar(&o.reader, "reader", "", "PC/SC reader name (default: first reader holding a card)")
	fs.StringVar(&o.socket, "socket", "", "card emulator socket")
	fs.DurationVar(&o.wait, "wait", 0, "how long to wait for a card")
	fs.BoolVar(&o.debug, "debug", false, "log protocol exchanges to stderr")
	fs.BoolVar(&o.strictExit, "strict-exit", false, "exit non-zero when the card operation fails")
	fs.BoolVar(&o.version, "version", false, "print the version and exit")
}

// parseGlobal picks the global flags out of args. Everything else belongs to
// the grammar chosen once the card is known, so unknown flags are skipped.
func parseGlobal(args []string) (*globalOptions, error) {

	o := &globalOptions{}

	fs := pflag.NewFlagSet("cktap", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.ParseErrorsWhitelist.UnknownFlags = true

	addGlobalFlags(fs, o)
	fs.BoolVarP(&o.help, "help", "h", false, "help")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o.flags = fs

	return o, nil
}

// apply overrides the config with the flags given on the command line.
func (o *globalOptions) apply(cfg *Config) error {

	if o.flags.Changed("reader") {
		cfg.Reader = o.reader
	}
	if o.flags.Changed("socket") {
		cfg.EmulatorSocket = o.socket
	}
	if o.flags.Changed("wait") {
		cfg.CardWait = o.wait
	}
	if o.flags.Changed("debug") {
		cfg.Debug = o.debug
	}
	if o.flags.Changed("strict-exit") {
		cfg.StrictExit = o.strictExit
	}

	return cfg.Validate()
}
