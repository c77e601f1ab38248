package tapcards

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentAddress(t *testing.T) {

	publicKey, err := hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.NoError(t, err)

	mainnet, err := paymentAddress(publicKey, false)
	require.NoError(t, err)
	assert.Equal(t, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", mainnet)

	testnet, err := paymentAddress(publicKey, true)
	require.NoError(t, err)
	assert.Equal(t, "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", testnet)
}

func TestIdentity(t *testing.T) {

	publicKey, err := hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.NoError(t, err)

	id, err := identity(publicKey)
	require.NoError(t, err)
	assert.Regexp(t, "^[A-Z2-7]{5}-[A-Z2-7]{5}-[A-Z2-7]{5}-[A-Z2-7]{5}$", id)

	_, err = identity(publicKey[1:])
	assert.Error(t, err)
}

func TestFormatPath(t *testing.T) {
	assert.Equal(t, "m", FormatPath(nil))
	assert.Equal(t, "m/84h/0h/0h", FormatPath([]uint32{84 | hardened, hardened, hardened}))
	assert.Equal(t, "m/0", FormatPath([]uint32{0}))
}

func TestApduUnwrap(t *testing.T) {

	data, err := apduUnwrap([]byte{0xa0, 0x90, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa0}, data)

	_, err = apduUnwrap([]byte{0x6a, 0x82})
	var swErr *StatusWordError
	require.ErrorAs(t, err, &swErr)
	assert.Equal(t, byte(0x6a), swErr.SW1)

	_, err = apduUnwrap([]byte{0x90})
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestDecodeCardError(t *testing.T) {

	_, err := decode[statusData]([]byte{0xa2, 0x64, 'c', 'o', 'd', 'e', 0x19, 0x01, 0x91, 0x65, 'e', 'r', 'r', 'o', 'r', 0x68, 'b', 'a', 'd', ' ', 'a', 'u', 't', 'h'})
	assert.ErrorIs(t, err, ErrBadAuth)
}
