package cli

import (
	"fmt"
	"io"

	tapcards "github.com/schjonhaug/cktap"
	"github.com/spf13/pflag"
)

const (
	genuineCard     = "Genuine card from Coinkite.\nHas cert signed by: %s"
	counterfeitCard = "Card failed to verify. Not a genuine card"
	readFailed      = "Failed to read with error: "
)

func verifyCertificate(check func() (string, error)) operation {
	return operation{
		name:  "verify-certificate",
		short: "Check the card was made by Coinkite",
		run: func(func() (string, error)) (string, error) {
			signer, err := check()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(genuineCard, signer), nil
		},
		failure: func(*Error) string {
			return counterfeitCard
		},
	}
}

func readPubkey(cvc bool, read func(cvc string) (*tapcards.ReadResult, error)) operation {
	return operation{
		name:  "read-pubkey",
		short: "Read the public key the card signs with",
		cvc:   cvc,
		run: func(ask func() (string, error)) (string, error) {
			var code string
			if cvc {
				var err error
				if code, err = ask(); err != nil {
					return "", err
				}
			}
			result, err := read(code)
			if err != nil {
				return "", err
			}
			return result.String(), nil
		},
		failure: func(*Error) string {
			return readFailed
		},
	}
}

func status(session interface {
	fmt.Stringer
	Status() error
}) operation {
	return operation{
		name:  "status",
		short: "Show the card status",
		debug: true,
		run: func(func() (string, error)) (string, error) {
			if err := session.Status(); err != nil {
				return "", err
			}
			return session.String(), nil
		},
	}
}

func wait(w func() (*tapcards.WaitResult, error)) operation {
	return operation{
		name:  "wait",
		short: "Wait out one second of the authentication delay",
		run: func(func() (string, error)) (string, error) {
			result, err := w()
			if err != nil {
				return "", err
			}
			return result.String(), nil
		},
	}
}

func satscardOperations(s SatsCardSession, random io.Reader) []operation {

	var signSlot int
	signDigest := tapcards.DefaultDigest

	return []operation{
		status(s),
		{
			name:  "address",
			short: "Show the payment address of the active slot",
			run: func(func() (string, error)) (string, error) {
				address, err := s.Address()
				if err != nil {
					return "", err
				}
				return "Address: " + address, nil
			},
		},
		verifyCertificate(s.CheckCertificate),
		readPubkey(false, s.Read),
		{
			name:  "new-slot",
			short: "Pick a new private key on the active slot",
			cvc:   true,
			run: func(ask func() (string, error)) (string, error) {
				slot, err := s.Slot()
				if err != nil {
					return "", err
				}
				chainCode, err := tapcards.NewChainCode(random)
				if err != nil {
					return "", err
				}
				cvc, err := ask()
				if err != nil {
					return "", err
				}
				result, err := s.NewSlot(slot, chainCode, cvc)
				if err != nil {
					return "", err
				}
				return result.String(), nil
			},
		},
		{
			name:  "unseal",
			short: "Unseal the active slot and show its private key",
			cvc:   true,
			run: func(ask func() (string, error)) (string, error) {
				slot, err := s.Slot()
				if err != nil {
					return "", err
				}
				cvc, err := ask()
				if err != nil {
					return "", err
				}
				result, err := s.Unseal(slot, cvc)
				if err != nil {
					return "", err
				}
				return result.String(), nil
			},
		},
		{
			name:  "derive",
			short: "Check the slot key follows from the master key and chain code",
			debug: true,
			run: func(func() (string, error)) (string, error) {
				result, err := s.Derive()
				if err != nil {
					return "", err
				}
				return result.String(), nil
			},
		},
		{
			name:  "sign",
			short: "Sign a digest with an unsealed slot",
			cvc:   true,
			debug: true,
			flags: func(fs *pflag.FlagSet) {
				fs.IntVar(&signSlot, "slot", 0, "unsealed slot to sign with")
				fs.Var(newDigestValue(&signDigest), "digest", "32 byte digest to sign, hex (default sha256 of the empty message)")
			},
			run: func(ask func() (string, error)) (string, error) {
				cvc, err := ask()
				if err != nil {
					return "", err
				}
				result, err := s.Sign(signSlot, signDigest, cvc)
				if err != nil {
					return "", err
				}
				return result.String(), nil
			},
		},
		wait(s.Wait),
	}
}
