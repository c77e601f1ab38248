package cli

import (
	"io"

	tapcards "github.com/schjonhaug/cktap"
	"github.com/spf13/pflag"
)

func tapsignerOperations(s TapSignerSession, random io.Reader) []operation {

	var derivePath, signPath []uint32
	signDigest := tapcards.DefaultDigest

	return []operation{
		status(s),
		verifyCertificate(s.CheckCertificate),
		readPubkey(true, s.Read),
		{
			name:  "init",
			short: "Set up the master key of a new card",
			cvc:   true,
			debug: true,
			run: func(ask func() (string, error)) (string, error) {
				chainCode, err := tapcards.NewChainCode(random)
				if err != nil {
					return "", err
				}
				cvc, err := ask()
				if err != nil {
					return "", err
				}
				result, err := s.Init(chainCode, cvc)
				if err != nil {
					return "", err
				}
				return result.String(), nil
			},
		},
		{
			name:  "derive",
			short: "Derive the public key at a hardened path",
			cvc:   true,
			debug: true,
			flags: func(fs *pflag.FlagSet) {
				fs.Var(newPathValue(&derivePath), "path", "hardened path indices, e.g. 84,0,0 (default: master key)")
			},
			run: func(ask func() (string, error)) (string, error) {
				cvc, err := ask()
				if err != nil {
					return "", err
				}
				result, err := s.Derive(derivePath, cvc)
				if err != nil {
					return "", err
				}
				return result.String(), nil
			},
		},
		{
			name:  "sign",
			short: "Sign a digest with the key at a hardened path",
			cvc:   true,
			debug: true,
			flags: func(fs *pflag.FlagSet) {
				fs.Var(newPathValue(&signPath), "path", "hardened path indices, e.g. 84,0,0 (default: master key)")
				fs.Var(newDigestValue(&signDigest), "digest", "32 byte digest to sign, hex (default sha256 of the empty message)")
			},
			run: func(ask func() (string, error)) (string, error) {
				cvc, err := ask()
				if err != nil {
					return "", err
				}
				result, err := s.Sign(signDigest, signPath, cvc)
				if err != nil {
					return "", err
				}
				return result.String(), nil
			},
		},
		wait(s.Wait),
	}
}
