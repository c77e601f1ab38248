package cli

import (
	"fmt"

	tapcards "github.com/schjonhaug/cktap"
	"github.com/schjonhaug/cktap/transport"
)

// openHandle selects the applet behind t. A card that does not answer like a
// tap card counts as no card at all.
func openHandle(t tapcards.Transmitter) (Handle, error) {

	card, err := tapcards.Open(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrNoCard, err)
	}

	return NewHandle(card)
}
