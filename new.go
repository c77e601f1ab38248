package tapcards

import (
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
)

// ChainCodeSize is the number of bytes of app entropy mixed into a new key.
const ChainCodeSize = 32

// NewChainCode reads a fresh chain code from r, or from crypto/rand when r is nil.
func NewChainCode(r io.Reader) ([]byte, error) {

	if r == nil {
		r = rand.Reader
	}

	chainCode := make([]byte, ChainCodeSize)

	if _, err := io.ReadFull(r, chainCode); err != nil {
		return nil, err
	}

	return chainCode, nil
}

// newSlotStep picks a new key on slot, mixing in chainCode. TAPSIGNER uses it on
// slot 0 to initialise the card.
func (c *card) newSlotStep(slot int, chainCode []byte, result *NewSlotResult) step {

	return newStep(c, "new", func() (any, error) {

		auth, err := c.authenticate("new")

		if err != nil {
			return nil, err
		}

		return newCommand{
			command:   command{Cmd: "new"},
			auth:      auth,
			Slot:      slot,
			ChainCode: chainCode,
		}, nil

	}, func(newData newData) error {

		slog.Debug("NEW", "Slot", newData.Slot)

		result.Slot = newData.Slot

		return nil

	})

}

func checkChainCode(chainCode []byte) error {
	if chainCode != nil && len(chainCode) != ChainCodeSize {
		return errors.New("chain code must be 32 bytes")
	}
	return nil
}
