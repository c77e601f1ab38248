package tapcards

import (
	"log/slog"
)

// certsStep fetches the certificate chain of the card.
func (c *card) certsStep() step {

	return newStep(c, "certs", func() (any, error) {

		return certsCommand{command{Cmd: "certs"}}, nil

	}, func(certsData certsData) error {

		slog.Debug("CERTS", "Length", len(certsData.CertificateChain))

		c.certificateChain = certsData.CertificateChain

		return nil
	})

}
