package tapcards

import (
	"encoding/hex"
	"testing"
)

// trustRoot makes rootKey an accepted factory root for the duration of t.
func trustRoot(t *testing.T, name string, rootKey []byte) {
	t.Helper()
	saved := factoryRoots
	factoryRoots = append([]factoryRoot{{name: name, publicKey: hex.EncodeToString(rootKey)}}, saved...)
	t.Cleanup(func() { factoryRoots = saved })
}
