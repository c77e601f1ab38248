// Package cli is the cktap command line: it locates a card, picks the command
// grammar for its personality, and runs exactly one command against it.
package cli

import (
	"fmt"

	tapcards "github.com/schjonhaug/cktap"
)

// SatsCardSession is what the router needs from a SATSCARD.
type SatsCardSession interface {
	fmt.Stringer
	Status() error
	Address() (string, error)
	CheckCertificate() (string, error)
	Read(cvc string) (*tapcards.ReadResult, error)
	Slot() (int, error)
	NewSlot(slot int, chainCode []byte, cvc string) (*tapcards.NewSlotResult, error)
	Unseal(slot int, cvc string) (*tapcards.UnsealResult, error)
	Derive() (*tapcards.DeriveResult, error)
	Sign(slot int, digest []byte, cvc string) (*tapcards.SignResult, error)
	Wait() (*tapcards.WaitResult, error)
}

// TapSignerSession is what the router needs from a TAPSIGNER or SATSCHIP.
type TapSignerSession interface {
	fmt.Stringer
	Status() error
	CheckCertificate() (string, error)
	Read(cvc string) (*tapcards.ReadResult, error)
	Init(chainCode []byte, cvc string) (*tapcards.NewSlotResult, error)
	Derive(path []uint32, cvc string) (*tapcards.DeriveResult, error)
	Sign(digest []byte, path []uint32, cvc string) (*tapcards.SignResult, error)
	Wait() (*tapcards.WaitResult, error)
}

// Handle is the located card, either a SatsCardHandle or a TapSignerHandle.
type Handle interface {
	handle()
}

// SatsCardHandle wraps a single-key card.
type SatsCardHandle struct {
	Session SatsCardSession
}

// TapSignerHandle wraps a hierarchical card. Kind tells TAPSIGNER from
// SATSCHIP for display only; both share one grammar.
type TapSignerHandle struct {
	Session TapSignerSession
	Kind    tapcards.Kind
}

func (SatsCardHandle) handle()  {}
func (TapSignerHandle) handle() {}

// NewHandle wraps an opened card in the handle for its personality.
func NewHandle(card tapcards.Card) (Handle, error) {
	switch c := card.(type) {
	case *tapcards.Satscard:
		return SatsCardHandle{Session: c}, nil
	case *tapcards.Tapsigner:
		return TapSignerHandle{Session: c, Kind: c.Kind()}, nil
	default:
		return nil, fmt.Errorf("unsupported card %T", card)
	}
}
