package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// operation is one command of a grammar.
type operation struct {
	name  string
	short string
	// cvc marks operations that prompt for the CVC. Only those get a working ask.
	cvc bool
	// debug operations show card error detail on failure.
	debug bool
	flags func(fs *pflag.FlagSet)
	run   func(ask func() (string, error)) (string, error)
	// failure overrides the rendered failure message.
	failure func(e *Error) string
}

// router runs one operation and renders its outcome.
type router struct {
	prompter Prompter
	stdout   io.Writer
	failed   bool
}

func (r *router) dispatch(op operation) {

	asked := false

	ask := func() (string, error) {
		if !op.cvc || asked {
			return "", fmt.Errorf("%s does not take a cvc", op.name)
		}
		asked = true
		return r.prompter.Prompt()
	}

	out, err := op.run(ask)

	if err != nil {
		r.fail(op, err)
		return
	}

	fmt.Fprintln(r.stdout, out)
}

func (r *router) fail(op operation, err error) {

	r.failed = true

	e := Classify(err)

	slog.Debug("Operation failed", "Command", op.name, "Category", e.Category, "Error", err)

	switch {
	case op.failure != nil:
		fmt.Fprintln(r.stdout, op.failure(e))
	case op.debug && e.Category == CategoryCard:
		fmt.Fprintf(r.stdout, "%s failed: %v\n", op.name, err)
	default:
		fmt.Fprintf(r.stdout, "%s failed: %s\n", op.name, e.Message)
	}
}

// grammar builds the cobra command tree for operations.
func (r *router) grammar(use, short string, operations []operation) *cobra.Command {

	root := &cobra.Command{
		Use:           use + " <command>",
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("a command is required, see %s --help", use)
		},
	}

	addGlobalFlags(root.PersistentFlags(), &globalOptions{})

	for _, op := range operations {
		op := op

		cmd := &cobra.Command{
			Use:   op.name,
			Short: op.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				r.dispatch(op)
				return nil
			},
		}

		if op.flags != nil {
			op.flags(cmd.Flags())
		}

		root.AddCommand(cmd)
	}

	return root
}
