package tapcards

import (
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// authenticate encrypts the stored CVC for cmd and refreshes the session key.
func (c *card) authenticate(cmd string) (auth, error) {

	slog.Debug("AUTH", "Command", cmd)

	if c.cvc == "" {
		return auth{}, ErrCVCRequired
	}

	cardPublicKey, err := secp256k1.ParsePubKey(c.cardPublicKey[:])
	if err != nil {
		return auth{}, err
	}

	// Derive an ephemeral public/private keypair for performing ECDHE with
	// the recipient.
	ephemeralPrivateKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return auth{}, err
	}

	ephemeralPublicKey := ephemeralPrivateKey.PubKey().SerializeCompressed()

	slog.Debug("AUTH", "EphemeralPublicKey", fmt.Sprintf("%x", ephemeralPublicKey))

	// Using ECDHE, derive a shared symmetric key for encryption of the plaintext.
	c.sessionKey = sha256.Sum256(generateSharedSecret(ephemeralPrivateKey, cardPublicKey))

	md := sha256.Sum256(append(c.currentCardNonce[:], []byte(cmd)...))

	mask, err := xor(c.sessionKey[:], md[:])
	if err != nil {
		return auth{}, err
	}

	if len(c.cvc) > len(mask) {
		return auth{}, fmt.Errorf("cvc longer than %d characters", len(mask))
	}

	xcvc, err := xor([]byte(c.cvc), mask[:len(c.cvc)])
	if err != nil {
		return auth{}, err
	}

	return auth{EphemeralPubKey: ephemeralPublicKey, XCVC: xcvc}, nil

}
