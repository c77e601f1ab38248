package tapcards

import (
	"fmt"
	"log/slog"
)

func statusRequest() (any, error) {
	return statusCommand{command{Cmd: "status"}}, nil
}

// parseStatus stores the fields shared by every personality.
func (c *card) parseStatus(statusData statusData, status *CardStatus) error {

	slog.Debug("STATUS", "Proto", statusData.Proto, "Birth", statusData.Birth, "Version", statusData.Version)
	slog.Debug("STATUS", "PublicKey", fmt.Sprintf("%x", statusData.PublicKey))

	identity, err := identity(statusData.PublicKey[:])

	if err != nil {
		return err
	}

	c.cardPublicKey = statusData.PublicKey

	status.Identity = identity
	status.Proto = statusData.Proto
	status.Birth = statusData.Birth
	status.Version = statusData.Version
	status.Testnet = statusData.Testnet
	status.AuthDelay = statusData.AuthDelay

	return nil

}
