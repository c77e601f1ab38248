package tapcards

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// ErrKeyMismatch is returned when the card's derived key does not follow from its master key.
var ErrKeyMismatch = errors.New("derived key does not follow from master public key and chain code")

// deriveStep asks the card for its master key and chain code (SATSCARD) or for
// the key at a hardened path (TAPSIGNER, authenticated), and verifies the
// signature over the chain code. The pubkey field of the response is stored
// in reported when it is non-nil.
func (c *card) deriveStep(path []uint32, authenticated bool, result *DeriveResult, reported *[]byte) step {

	return newStep(c, "derive", func() (any, error) {

		nonce, err := c.createNonce()

		if err != nil {
			return nil, err
		}

		if !authenticated {
			return satscardDeriveCommand{command: command{Cmd: "derive"}, Nonce: nonce}, nil
		}

		auth, err := c.authenticate("derive")

		if err != nil {
			return nil, err
		}

		return tapsignerDeriveCommand{
			command: command{Cmd: "derive"},
			auth:    auth,
			Nonce:   nonce,
			Path:    path,
		}, nil

	}, func(deriveData deriveData) error {

		slog.Debug("DERIVE", "MasterPublicKey", fmt.Sprintf("%x", deriveData.MasterPublicKey))
		slog.Debug("DERIVE", "ChainCode", fmt.Sprintf("%x", deriveData.ChainCode))

		signer := deriveData.MasterPublicKey[:]

		if len(path) > 0 {

			if len(deriveData.PublicKey) != 33 {
				return fmt.Errorf("%w: missing derived public key", ErrUnexpectedResponse)
			}

			signer = deriveData.PublicKey
		}

		digest := signedMessage(c.currentCardNonce, c.appNonce, deriveData.ChainCode[:])

		if err := verifySignature(deriveData.Signature, digest, signer); err != nil {
			return fmt.Errorf("derive: %w", err)
		}

		if reported != nil {
			*reported = deriveData.PublicKey
		}

		result.Path = FormatPath(path)
		result.MasterPublicKey = deriveData.MasterPublicKey
		result.ChainCode = deriveData.ChainCode
		copy(result.PublicKey[:], signer)

		return nil

	})

}

// deriveChild computes the unhardened child index of an extended public key.
func deriveChild(masterPublicKey [33]byte, chainCode [32]byte, index uint32, testnet bool) ([33]byte, error) {

	var child [33]byte

	parent := hdkeychain.NewExtendedKey(networkParams(testnet).HDPublicKeyID[:], masterPublicKey[:], chainCode[:], []byte{0, 0, 0, 0}, 0, 0, false)

	key, err := parent.Derive(index)

	if err != nil {
		return child, err
	}

	publicKey, err := key.ECPubKey()

	if err != nil {
		return child, err
	}

	copy(child[:], publicKey.SerializeCompressed())

	return child, nil
}

func sameKey(a [33]byte, b []byte) bool {
	return bytes.Equal(a[:], b)
}
