//go:build !emulator

package cli

import (
	"github.com/schjonhaug/cktap/transport"
)

// DefaultLocator waits for a card in a PC/SC reader.
func DefaultLocator(cfg Config) (Handle, func(), error) {

	card, err := transport.FindFirst(cfg.Reader, cfg.CardWait)
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
