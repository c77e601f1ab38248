package cli

import (
	"errors"

	tapcards "github.com/schjonhaug/cktap"
	"github.com/schjonhaug/cktap/transport"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitDiscovery = 1
	ExitArgument  = 2
	// ExitFailure is only used with strict exit; by default failed operations exit 0.
	ExitFailure = 3
)

// Category classifies why a run failed.
type Category int

const (
	CategoryCard Category = iota
	CategoryDiscovery
	CategoryArgument
	CategoryAuthentication
	CategoryVerification
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case CategoryDiscovery:
		return "Discovery"
	case CategoryArgument:
		return "Argument"
	case CategoryAuthentication:
		return "Authentication"
	case CategoryVerification:
		return "Verification"
	default:
		return "Card"
	}
}

// errNoCVC is returned when the CVC could not be read from the terminal.
var errNoCVC = errors.New("could not read cvc")

// Error is a classified failure. Message is safe to show to the user; Cause
// may carry detail that only goes to the debug log.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Classify sorts err into a Category with a message that reveals no more than
// the category allows.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, transport.ErrNoCard), errors.Is(err, transport.ErrNoReader), errors.Is(err, transport.ErrAmbiguousCard):
		return &Error{Category: CategoryDiscovery, Message: err.Error(), Cause: err}

	case errors.Is(err, tapcards.ErrRateLimited):
		return &Error{Category: CategoryAuthentication, Message: "card is rate limited, run wait until the delay is over", Cause: err}

	case errors.Is(err, tapcards.ErrBadAuth), errors.Is(err, tapcards.ErrNeedsAuth),
		errors.Is(err, tapcards.ErrCVCRequired), errors.Is(err, errNoCVC):
		return &Error{Category: CategoryAuthentication, Message: "authentication failed", Cause: err}

	case errors.Is(err, tapcards.ErrCounterfeit), errors.Is(err, tapcards.ErrInvalidSignature), errors.Is(err, tapcards.ErrKeyMismatch):
		return &Error{Category: CategoryVerification, Message: "verification failed", Cause: err}

	case errors.Is(err, tapcards.ErrNoSlotsLeft):
		return &Error{Category: CategoryCard, Message: tapcards.ErrNoSlotsLeft.Error(), Cause: err}

	case errors.Is(err, tapcards.ErrNoKey):
		return &Error{Category: CategoryCard, Message: err.Error(), Cause: err}
	}

	return &Error{Category: CategoryCard, Message: "card operation failed", Cause: err}
}
