package tapcards

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

func (c *card) unsealStep(slot int, testnet bool, result *UnsealResult) step {

	return newStep(c, "unseal", func() (any, error) {

		auth, err := c.authenticate("unseal")

		if err != nil {
			return nil, err
		}

		return unsealCommand{
			command: command{Cmd: "unseal"},
			auth:    auth,
			Slot:    slot,
		}, nil

	}, func(unsealData unsealData) error {

		slog.Debug("UNSEAL", "Slot", unsealData.Slot)
		slog.Debug("UNSEAL", "PublicKey", fmt.Sprintf("%x", unsealData.PublicKey))
		slog.Debug("UNSEAL", "MasterPublicKey", fmt.Sprintf("%x", unsealData.MasterPublicKey))

		// Calculate and return private key as wif

		unencryptedPrivateKeyBytes, err := xor(unsealData.PrivateKey[:], c.sessionKey[:])

		if err != nil {
			return err
		}

		privateKey, publicKey := btcec.PrivKeyFromBytes(unencryptedPrivateKeyBytes)

		if !bytes.Equal(publicKey.SerializeCompressed(), unsealData.PublicKey[:]) {
			return fmt.Errorf("%w: unsealed key does not match slot public key", ErrUnexpectedResponse)
		}

		wif, err := btcutil.NewWIF(privateKey, networkParams(testnet), true)

		if err != nil {
			return err
		}

		address, err := paymentAddress(unsealData.PublicKey[:], testnet)

		if err != nil {
			return err
		}

		result.Slot = unsealData.Slot
		result.PrivateKey = wif.String()
		result.PublicKey = unsealData.PublicKey
		result.MasterPublicKey = unsealData.MasterPublicKey
		result.ChainCode = unsealData.ChainCode
		result.Address = address

		return nil

	})

}
