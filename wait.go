package tapcards

import (
	"log/slog"
)

func (c *card) waitStep(status *CardStatus, result *WaitResult) step {

	return newStep(c, "wait", func() (any, error) {

		waitCommand := waitCommand{command: command{Cmd: "wait"}}

		if c.cvc != "" {
			auth, err := c.authenticate("wait")
			if err != nil {
				return nil, err
			}
			waitCommand.auth = auth
		}

		return waitCommand, nil

	}, func(waitData waitData) error {

		slog.Debug("WAIT", "Success", waitData.Success)
		slog.Debug("WAIT", "AuthDelay", waitData.AuthDelay)

		status.AuthDelay = waitData.AuthDelay

		result.Success = waitData.Success
		result.AuthDelay = waitData.AuthDelay

		return nil

	})

}
