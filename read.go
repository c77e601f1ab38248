package tapcards

import (
	"fmt"
	"log/slog"
)

// readStep reads the public key of the active slot (SATSCARD) or current
// derivation (TAPSIGNER). The card encrypts all but the first pubkey byte with
// the session key when the read was authenticated and encrypted is set.
func (c *card) readStep(slot int, encrypted bool, result *ReadResult) step {

	return newStep(c, "read", func() (any, error) {

		nonce, err := c.createNonce()

		if err != nil {
			return nil, err
		}

		readCommand := readCommand{
			command: command{Cmd: "read"},
			Nonce:   nonce,
		}

		if c.cvc != "" {
			readCommand.auth, err = c.authenticate("read")
			if err != nil {
				return nil, err
			}
		}

		return readCommand, nil

	}, func(readData readData) error {

		slog.Debug("READ", "Signature", fmt.Sprintf("%x", readData.Signature))

		publicKey := readData.PublicKey

		if encrypted {
			plain, err := xor(publicKey[1:], c.sessionKey[:])
			if err != nil {
				return err
			}
			copy(publicKey[1:], plain)
		}

		slog.Debug("READ", "PublicKey", fmt.Sprintf("%x", publicKey))

		// Verify public key with signature
		digest := signedMessage(c.currentCardNonce, c.appNonce, []byte{byte(slot)})

		if err := verifySignature(readData.Signature, digest, publicKey[:]); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		result.PublicKey = publicKey

		return nil

	})

}
