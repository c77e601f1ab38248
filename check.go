package tapcards

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/btcec/v2"
)

type factoryRoot struct {
	name      string
	publicKey string
}

// Keys the last certificate of a genuine card chains up to.
var factoryRoots = []factoryRoot{
	{name: "Root Factory Certificate", publicKey: "03028a0e89e70d0ec0d932053a89ab1da7d9182bdc6d2f03e706ee99517d05d9e1"},
	{name: "Root Factory Certificate (TESTING ONLY)", publicKey: "022b6750a0c09f632df32afc5bef66568667e04b2e0f57cb8640ac5a040179442b"},
}

// checkStep proves the card holds the key its certificate chain was issued for.
// slotPublicKey is mixed into the signed message when non-nil.
func (c *card) checkStep(slotPublicKey *[33]byte, signer *string) step {

	return newStep(c, "check", func() (any, error) {

		nonce, err := c.createNonce()

		if err != nil {
			return nil, err
		}

		return checkCommand{
			command: command{Cmd: "check"},
			Nonce:   nonce,
		}, nil

	}, func(checkData checkData) error {

		slog.Debug("CHECK", "AuthSignature", fmt.Sprintf("%x", checkData.AuthSignature[:]))

		parts := [][]byte{c.appNonce}

		if slotPublicKey != nil {
			slog.Debug("Adding current slot public key")
			parts = append(parts, slotPublicKey[:])
		}

		if err := verifySignature(checkData.AuthSignature, signedMessage(c.currentCardNonce, parts...), c.cardPublicKey[:]); err != nil {
			return fmt.Errorf("check: %w", err)
		}

		publicKey, err := btcec.ParsePubKey(c.cardPublicKey[:])

		if err != nil {
			return err
		}

		if len(c.certificateChain) == 0 {
			return fmt.Errorf("%w: empty certificate chain", ErrCounterfeit)
		}

		for i := 0; i < len(c.certificateChain); i++ {

			publicKey, err = signatureToPublicKey(c.certificateChain[i], publicKey)

			if err != nil {
				return fmt.Errorf("%w: %v", ErrCounterfeit, err)
			}

		}

		name, err := factoryRootName(publicKey)

		if err != nil {
			slog.Debug("CHECK", "PublicKey", fmt.Sprintf("%x", publicKey.SerializeCompressed()))
			return err
		}

		*signer = name

		return nil

	})

}

func factoryRootName(publicKey *btcec.PublicKey) (string, error) {

	for _, root := range factoryRoots {

		// Convert hex string to bytes
		rootBytes, err := hex.DecodeString(root.publicKey)
		if err != nil {
			return "", err
		}

		rootKey, err := btcec.ParsePubKey(rootBytes)

		if err != nil {
			return "", err
		}

		if rootKey.IsEqual(publicKey) {
			return root.name, nil
		}
	}

	return "", ErrCounterfeit

}
