package tapcards

import (
	"testing"

	"github.com/schjonhaug/cktap/internal/cardsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTapsigner(t *testing.T, sim *cardsim.Card) *Tapsigner {
	t.Helper()
	c, err := Open(sim)
	require.NoError(t, err)
	tapsigner, ok := c.(*Tapsigner)
	require.True(t, ok, "expected a TAPSIGNER, got %T", c)
	return tapsigner
}

func TestOpenTapsigner(t *testing.T) {

	tests := []struct {
		name     string
		satschip bool
		kind     Kind
	}{
		{"tapsigner", false, KindTapsigner},
		{"satschip", true, KindSatschip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tapsigner := openTapsigner(t, cardsim.NewTapsigner(testCVC, tt.satschip))
			assert.Equal(t, tt.kind, tapsigner.Kind())
			assert.Equal(t, "m", FormatPath(tapsigner.Path))
		})
	}
}

func TestTapsignerRead(t *testing.T) {

	sim := cardsim.NewTapsigner(testCVC, false)
	tapsigner := openTapsigner(t, sim)

	_, err := tapsigner.Read("")
	assert.ErrorIs(t, err, ErrCVCRequired)

	result, err := tapsigner.Read(testCVC)
	require.NoError(t, err)

	derived, err := tapsigner.Derive(nil, testCVC)
	require.NoError(t, err)

	assert.Equal(t, derived.MasterPublicKey, result.PublicKey)
	assert.Regexp(t, "^bc1q", result.Address)
}

func TestTapsignerDeriveAndSign(t *testing.T) {

	sim := cardsim.NewTapsigner(testCVC, false)
	tapsigner := openTapsigner(t, sim)

	derived, err := tapsigner.Derive([]uint32{84, 0, 0}, testCVC)
	require.NoError(t, err)
	assert.Equal(t, "m/84h/0h/0h", derived.Path)
	assert.NotEqual(t, derived.MasterPublicKey, derived.PublicKey)

	read, err := tapsigner.Read(testCVC)
	require.NoError(t, err)
	assert.Equal(t, derived.PublicKey, read.PublicKey)

	signed, err := tapsigner.Sign(DefaultDigest, []uint32{84, 0, 0}, testCVC)
	require.NoError(t, err)
	assert.Equal(t, derived.PublicKey, signed.PublicKey)
	assert.Equal(t, "m/84h/0h/0h", signed.Path)
	assert.Equal(t, DefaultDigest, signed.Digest[:])

	assert.Equal(t, []uint32{84 | hardened, 0 | hardened, 0 | hardened}, tapsigner.Path)
}

func TestTapsignerDeriveRejectsHardenedInput(t *testing.T) {

	sim := cardsim.NewTapsigner(testCVC, false)
	tapsigner := openTapsigner(t, sim)

	_, err := tapsigner.Derive([]uint32{hardened}, testCVC)
	assert.Error(t, err)
	assert.Equal(t, []string{"select"}, sim.Commands)
}

func TestTapsignerInit(t *testing.T) {

	sim := cardsim.NewBlankTapsigner(testCVC)
	tapsigner := openTapsigner(t, sim)

	_, err := tapsigner.Read(testCVC)
	assert.ErrorIs(t, err, ErrInvalidState)

	chainCode, err := NewChainCode(nil)
	require.NoError(t, err)

	_, err = tapsigner.Init(chainCode, testCVC)
	require.NoError(t, err)

	_, err = tapsigner.Read(testCVC)
	require.NoError(t, err)

	_, err = tapsigner.Init(chainCode, testCVC)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTapsignerCheckCertificate(t *testing.T) {

	sim := cardsim.NewTapsigner(testCVC, false)
	trustRoot(t, "Test Root", sim.RootPublicKey())

	signer, err := openTapsigner(t, sim).CheckCertificate()
	require.NoError(t, err)
	assert.Equal(t, "Test Root", signer)
}

func TestTapsignerBadCVC(t *testing.T) {

	sim := cardsim.NewTapsigner(testCVC, false)
	tapsigner := openTapsigner(t, sim)

	_, err := tapsigner.Sign(DefaultDigest, nil, "654321")
	assert.ErrorIs(t, err, ErrBadAuth)

	var cardErr *CardError
	require.ErrorAs(t, err, &cardErr)
	assert.Equal(t, 401, cardErr.Code)
}
