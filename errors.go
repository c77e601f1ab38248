package tapcards

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature is returned when a card signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrCounterfeit is returned when the certificate chain does not end at a known factory root.
	ErrCounterfeit = errors.New("counterfeit card: certificate chain does not reach a factory root")
	// ErrNoKey is returned when the active slot has no key to read from.
	ErrNoKey = errors.New("no key derived for the active slot")
	// ErrCVCRequired is returned when an operation needing a CVC is called without one.
	ErrCVCRequired = errors.New("cvc required")
	// ErrUnexpectedResponse is returned when the card answers with something that cannot be decoded.
	ErrUnexpectedResponse = errors.New("unexpected card response")
	// ErrNoSlotsLeft is returned by NewSlot when every slot has been used,
	// including when the card refuses new on its last slot.
	ErrNoSlotsLeft = errors.New("no more slots available")
)

// Card reported errors, matched against a *CardError with errors.Is.
var (
	ErrUnluckyNumber  = &CardError{Code: 205, Message: "unlucky number"}
	ErrInvalidArgs    = &CardError{Code: 400, Message: "invalid args"}
	ErrBadAuth        = &CardError{Code: 401, Message: "bad auth"}
	ErrNeedsAuth      = &CardError{Code: 403, Message: "needs auth"}
	ErrUnknownCommand = &CardError{Code: 404, Message: "unknown command"}
	ErrInvalidCommand = &CardError{Code: 405, Message: "invalid command"}
	ErrInvalidState   = &CardError{Code: 406, Message: "invalid state"}
	ErrWeakNonce      = &CardError{Code: 417, Message: "weak nonce"}
	ErrBadCBOR        = &CardError{Code: 422, Message: "bad CBOR"}
	ErrBackupFirst    = &CardError{Code: 425, Message: "backup first"}
	ErrRateLimited    = &CardError{Code: 429, Message: "rate limited"}
)

// CardError is an error reported by the card itself.
type CardError struct {
	Code    int
	Message string
}

func (e *CardError) Error() string {
	return fmt.Sprintf("%d: %v", e.Code, e.Message)
}

// Is reports whether target is a CardError with the same code.
func (e *CardError) Is(target error) bool {
	t, ok := target.(*CardError)
	return ok && t.Code == e.Code
}

// StatusWordError is returned when the card answers with a status word other than 9000.
type StatusWordError struct {
	SW1 byte
	SW2 byte
}

func (e *StatusWordError) Error() string {
	return fmt.Sprintf("incorrect status word: %02x%02x", e.SW1, e.SW2)
}
