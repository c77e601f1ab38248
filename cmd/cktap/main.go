// Command cktap talks to Coinkite SATSCARD, TAPSIGNER and SATSCHIP cards.
//
// The default build uses a PC/SC reader; build with -tags emulator to talk to
// the card emulator instead.
package main

import (
	"os"

	"github.com/schjonhaug/cktap/cli"
)

func main() {
	os.Exit(cli.New().Run(os.Args[1:]))
}
