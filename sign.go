package tapcards

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// DefaultDigest is signed when the caller supplies no digest: sha256 of the empty message.
var DefaultDigest = chainhash.HashB(nil)

func checkDigest(digest []byte) error {
	if len(digest) != chainhash.HashSize {
		return errors.New("digest must be 32 bytes")
	}
	return nil
}

// signStep signs digest with the slot key (SATSCARD) or the key at the
// current derivation (TAPSIGNER). The digest travels XOR'ed with the session key.
func (c *card) signStep(slot int, subpath []uint32, tapsigner bool, digest []byte, result *SignResult) step {

	return newStep(c, "sign", func() (any, error) {

		auth, err := c.authenticate("sign")

		if err != nil {
			return nil, err
		}

		xdigest, err := xor(digest, c.sessionKey[:])

		if err != nil {
			return nil, err
		}

		if tapsigner {
			return tapsignerSignCommand{
				command: command{Cmd: "sign"},
				auth:    auth,
				Subpath: subpath,
				Digest:  xdigest,
			}, nil
		}

		return satscardSignCommand{
			command: command{Cmd: "sign"},
			auth:    auth,
			Slot:    slot,
			Digest:  xdigest,
		}, nil

	}, func(signData signData) error {

		slog.Debug("SIGN", "Slot", signData.Slot)
		slog.Debug("SIGN", "PublicKey", fmt.Sprintf("%x", signData.PublicKey))

		if err := verifySignature(signData.Signature, digest, signData.PublicKey[:]); err != nil {
			return fmt.Errorf("sign: %w", err)
		}

		result.Slot = signData.Slot
		copy(result.Digest[:], digest)
		result.Signature = signData.Signature
		result.PublicKey = signData.PublicKey

		return nil

	})

}
