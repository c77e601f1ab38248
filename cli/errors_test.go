package cli

import (
	"errors"
	"fmt"
	"testing"

	tapcards "github.com/schjonhaug/cktap"
	"github.com/schjonhaug/cktap/transport"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {

	tests := []struct {
		err      error
		category Category
		message  string
	}{
		{transport.ErrNoCard, CategoryDiscovery, "no card found"},
		{fmt.Errorf("%w: pcscd not running", transport.ErrNoReader), CategoryDiscovery, "no smart card reader found: pcscd not running"},
		{transport.ErrAmbiguousCard, CategoryDiscovery, transport.ErrAmbiguousCard.Error()},
		{&tapcards.CardError{Code: 401, Message: "bad auth"}, CategoryAuthentication, "authentication failed"},
		{tapcards.ErrNeedsAuth, CategoryAuthentication, "authentication failed"},
		{tapcards.ErrCVCRequired, CategoryAuthentication, "authentication failed"},
		{tapcards.ErrRateLimited, CategoryAuthentication, "card is rate limited, run wait until the delay is over"},
		{fmt.Errorf("check: %w", tapcards.ErrInvalidSignature), CategoryVerification, "verification failed"},
		{tapcards.ErrCounterfeit, CategoryVerification, "verification failed"},
		{tapcards.ErrKeyMismatch, CategoryVerification, "verification failed"},
		{tapcards.ErrNoKey, CategoryCard, tapcards.ErrNoKey.Error()},
		{tapcards.ErrInvalidState, CategoryCard, "card operation failed"},
		{fmt.Errorf("%w: %w", tapcards.ErrNoSlotsLeft, tapcards.ErrInvalidState), CategoryCard, "no more slots available"},
		{errors.New("reader unplugged"), CategoryCard, "card operation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			e := Classify(tt.err)
			assert.Equal(t, tt.category, e.Category)
			assert.Equal(t, tt.message, e.Message)
			assert.ErrorIs(t, e, tt.err)
		})
	}

	assert.Nil(t, Classify(nil))

	classified := &Error{Category: CategoryArgument, Message: "bad"}
	assert.Same(t, classified, Classify(fmt.Errorf("wrapped: %w", classified)))
}
