package tapcards

import (
	"fmt"
	"strings"
)

const hardened = 0x80000000

// ReadResult is the verified public key of the active slot or derivation.
type ReadResult struct {
	PublicKey [33]byte
	Address   string
}

func (r *ReadResult) String() string {
	return fmt.Sprintf("pubkey: %x", r.PublicKey)
}

// NewSlotResult is the slot set up by NewSlot or Init.
type NewSlotResult struct {
	Slot int
}

func (r *NewSlotResult) String() string {
	return fmt.Sprintf("slot: %d", r.Slot)
}

// UnsealResult holds the private key of an unsealed slot.
type UnsealResult struct {
	Slot            int
	PrivateKey      string // WIF encoded
	PublicKey       [33]byte
	MasterPublicKey [33]byte
	ChainCode       [32]byte
	Address         string
}

func (r *UnsealResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "slot: %d\n", r.Slot)
	fmt.Fprintf(&b, "privkey: %s\n", r.PrivateKey)
	fmt.Fprintf(&b, "pubkey: %x\n", r.PublicKey)
	fmt.Fprintf(&b, "master_pk: %x\n", r.MasterPublicKey)
	fmt.Fprintf(&b, "chain_code: %x\n", r.ChainCode)
	fmt.Fprintf(&b, "address: %s", r.Address)
	return b.String()
}

// DeriveResult is a verified derivation from the card's master key.
type DeriveResult struct {
	Path            string
	MasterPublicKey [33]byte
	ChainCode       [32]byte
	PublicKey       [33]byte
	Address         string
}

func (r *DeriveResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "path: %s\n", r.Path)
	fmt.Fprintf(&b, "master_pubkey: %x\n", r.MasterPublicKey)
	fmt.Fprintf(&b, "chain_code: %x\n", r.ChainCode)
	fmt.Fprintf(&b, "pubkey: %x\n", r.PublicKey)
	fmt.Fprintf(&b, "address: %s", r.Address)
	return b.String()
}

// SignResult is a verified signature made by the card.
type SignResult struct {
	Slot      int
	Path      string
	Digest    [32]byte
	Signature [64]byte
	PublicKey [33]byte
}

func (r *SignResult) String() string {
	var b strings.Builder
	if r.Path != "" {
		fmt.Fprintf(&b, "path: %s\n", r.Path)
	} else {
		fmt.Fprintf(&b, "slot: %d\n", r.Slot)
	}
	fmt.Fprintf(&b, "digest: %x\n", r.Digest)
	fmt.Fprintf(&b, "sig: %x\n", r.Signature)
	fmt.Fprintf(&b, "pubkey: %x", r.PublicKey)
	return b.String()
}

// WaitResult reports the remaining authentication delay.
type WaitResult struct {
	Success   bool
	AuthDelay int
}

func (r *WaitResult) String() string {
	return fmt.Sprintf("success: %t\nauth_delay: %d", r.Success, r.AuthDelay)
}

// FormatPath renders a derivation path, marking hardened components with h.
func FormatPath(path []uint32) string {
	var b strings.Builder
	b.WriteString("m")
	for _, component := range path {
		if component&hardened != 0 {
			fmt.Fprintf(&b, "/%dh", component&^hardened)
		} else {
			fmt.Fprintf(&b, "/%d", component)
		}
	}
	return b.String()
}
