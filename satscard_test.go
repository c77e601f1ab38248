package tapcards

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/schjonhaug/cktap/internal/cardsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCVC = "123456"

func openSatscard(t *testing.T, sim *cardsim.Card) *Satscard {
	t.Helper()
	c, err := Open(sim)
	require.NoError(t, err)
	satscard, ok := c.(*Satscard)
	require.True(t, ok, "expected a SATSCARD, got %T", c)
	return satscard
}

func TestOpenSatscard(t *testing.T) {

	sim := cardsim.NewSatscard(testCVC, 10)
	satscard := openSatscard(t, sim)

	assert.Equal(t, KindSatscard, satscard.Kind())
	assert.Equal(t, 0, satscard.ActiveSlot)
	assert.Equal(t, 10, satscard.NumberOfSlots)
	assert.Len(t, satscard.Identity, 23)
	assert.Equal(t, []string{"select"}, sim.Commands)
}

func TestSatscardAddress(t *testing.T) {

	sim := cardsim.NewSatscard(testCVC, 10)
	satscard := openSatscard(t, sim)

	address, err := satscard.Address()
	require.NoError(t, err)

	expected, err := paymentAddress(sim.SlotPublicKey(0), false)
	require.NoError(t, err)

	assert.Equal(t, expected, address)
	assert.Equal(t, expected, satscard.ActiveSlotPaymentAddress)
}

func TestSatscardAddressTestnet(t *testing.T) {

	sim := cardsim.NewSatscard(testCVC, 10)
	sim.Testnet = true
	satscard := openSatscard(t, sim)

	address, err := satscard.Address()
	require.NoError(t, err)
	assert.Regexp(t, "^tb1q", address)
}

func TestSatscardCheckCertificate(t *testing.T) {

	t.Run("genuine", func(t *testing.T) {
		sim := cardsim.NewSatscard(testCVC, 10)
		trustRoot(t, "Test Root", sim.RootPublicKey())

		signer, err := openSatscard(t, sim).CheckCertificate()
		require.NoError(t, err)
		assert.Equal(t, "Test Root", signer)
		assert.Contains(t, sim.Commands, "read")
	})

	t.Run("counterfeit", func(t *testing.T) {
		sim := cardsim.NewSatscard(testCVC, 10)
		trustRoot(t, "Test Root", sim.RootPublicKey())
		sim.Counterfeit()

		_, err := openSatscard(t, sim).CheckCertificate()
		assert.ErrorIs(t, err, ErrCounterfeit)
	})
}

func TestSatscardLifecycle(t *testing.T) {

	sim := cardsim.NewSatscard(testCVC, 2)
	satscard := openSatscard(t, sim)

	sealed := sim.SlotPublicKey(0)

	unsealed, err := satscard.Unseal(0, testCVC)
	require.NoError(t, err)
	assert.Equal(t, 0, unsealed.Slot)
	assert.Equal(t, sealed, unsealed.PublicKey[:])

	wif, err := btcutil.DecodeWIF(unsealed.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, sealed, wif.PrivKey.PubKey().SerializeCompressed())

	digest := chainhash.HashB([]byte("spend"))
	signed, err := satscard.Sign(0, digest, testCVC)
	require.NoError(t, err)
	assert.Equal(t, sealed, signed.PublicKey[:])

	slot, err := satscard.Slot()
	require.NoError(t, err)
	assert.Equal(t, 1, slot)

	_, err = satscard.Address()
	assert.ErrorIs(t, err, ErrNoKey)

	chainCode, err := NewChainCode(nil)
	require.NoError(t, err)

	created, err := satscard.NewSlot(1, chainCode, testCVC)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Slot)

	derived, err := satscard.Derive()
	require.NoError(t, err)
	assert.Equal(t, sim.SlotPublicKey(1), derived.PublicKey[:])
	assert.Equal(t, chainCode, derived.ChainCode[:])
	assert.Equal(t, "m/0", derived.Path)

	_, err = satscard.NewSlot(2, nil, testCVC)
	assert.ErrorIs(t, err, ErrNoSlotsLeft)

	_, err = satscard.Unseal(1, testCVC)
	require.NoError(t, err)

	_, err = satscard.NewSlot(1, nil, testCVC)
	assert.ErrorIs(t, err, ErrNoSlotsLeft)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSatscardNewSlotInUse(t *testing.T) {

	sim := cardsim.NewSatscard(testCVC, 10)
	satscard := openSatscard(t, sim)

	_, err := satscard.NewSlot(0, nil, testCVC)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrNoSlotsLeft)
}

func TestSatscardDeriveWithoutPubkey(t *testing.T) {

	sim := cardsim.NewSatscard(testCVC, 10)
	sim.DeriveOmitsPubkey = true
	satscard := openSatscard(t, sim)

	derived, err := satscard.Derive()
	require.NoError(t, err)
	assert.Equal(t, sim.SlotPublicKey(0), derived.PublicKey[:])
	assert.Equal(t, []string{"select", "derive", "read"}, sim.Commands)
}

func TestSatscardAuthentication(t *testing.T) {

	sim := cardsim.NewSatscard(testCVC, 10)
	satscard := openSatscard(t, sim)

	_, err := satscard.Unseal(0, "")
	assert.ErrorIs(t, err, ErrCVCRequired)
	assert.Equal(t, []string{"select"}, sim.Commands)

	_, err = satscard.Unseal(0, "000000")
	assert.ErrorIs(t, err, ErrBadAuth)
	assert.Empty(t, satscard.cvc)

	sim.AuthDelay = 2
	_, err = satscard.Unseal(0, testCVC)
	assert.ErrorIs(t, err, ErrRateLimited)

	result, err := satscard.Wait()
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.AuthDelay)
	assert.Equal(t, 1, satscard.AuthDelay)
}

func TestSatscardSignSealedSlot(t *testing.T) {

	sim := cardsim.NewSatscard(testCVC, 10)
	satscard := openSatscard(t, sim)

	_, err := satscard.Sign(0, DefaultDigest, testCVC)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = satscard.Sign(0, []byte{1, 2, 3}, testCVC)
	assert.Error(t, err)
}
