package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for the card's CVC.
type Prompter interface {
	Prompt() (string, error)
}

// TerminalPrompter reads the CVC from In with echo turned off.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// Prompt writes "Enter cvc: " and reads one line. The value is never logged.
func (p TerminalPrompter) Prompt() (string, error) {

	fmt.Fprint(p.Out, "Enter cvc: ")

	fd := int(p.In.Fd())

	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errNoCVC, err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	// Piped input
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: %v", errNoCVC, err)
	}

	return strings.TrimSpace(line), nil
}
