package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathValue(t *testing.T) {

	var path []uint32
	v := newPathValue(&path)

	require.NoError(t, v.Set("84h,0',0"))
	require.NoError(t, v.Set(" 5 "))
	assert.Equal(t, []uint32{84, 0, 0, 5}, path)
	assert.Equal(t, "84,0,0,5", v.String())
	assert.Equal(t, "path", v.Type())

	assert.Error(t, v.Set("2147483648"))
	assert.Error(t, v.Set("m/84"))
	assert.Error(t, v.Set("84,,0"))
	assert.Error(t, v.Set("84,"))
	assert.Equal(t, []uint32{84, 0, 0, 5}, path)

	require.NoError(t, v.Set(""))
	assert.Equal(t, []uint32{84, 0, 0, 5}, path)

	assert.NoError(t, v.Set("2147483647"))
}

func TestDigestValue(t *testing.T) {

	var digest []byte
	v := newDigestValue(&digest)

	assert.Error(t, v.Set("zz"))
	assert.Error(t, v.Set("00"))

	hex := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	require.NoError(t, v.Set(hex))
	assert.Equal(t, hex, v.String())
}
