//go:build emulator

package cli

import (
	"github.com/schjonhaug/cktap/transport"
)

// DefaultLocator connects to the card emulator.
func DefaultLocator(cfg Config) (Handle, func(), error) {

	card, err := transport.DialEmulator(cfg.EmulatorSocket, cfg.CardWait)
	if err != nil {
		return nil, nil, err
	}

	handle, err := openHandle(card)
	if err != nil {
		_ = card.Close()
		return nil, nil, err
	}

	return handle, func() { _ = card.Close() }, nil
}
