package tapcards

import (
	"errors"
	"fmt"
	"strings"
)

// Satscard is a SATSCARD: a bearer card with a fixed number of single-key slots.
type Satscard struct {
	CardStatus

	// ActiveSlot is the currently active slot on the card, counting from 0.
	ActiveSlot int
	// NumberOfSlots is the total number of slots available on the card.
	NumberOfSlots int
	// ActiveSlotPaymentAddress is the payment address of the active slot, known after a read.
	ActiveSlotPaymentAddress string

	// statusAddress is the truncated address from status, empty unless the active slot is sealed.
	statusAddress string
	// activeSlotPublicKey is the public key of the currently active slot.
	activeSlotPublicKey [33]byte

	*card
}

// Kind implements Card.
func (satscard *Satscard) Kind() Kind {
	return KindSatscard
}

func (satscard *Satscard) statusStep() step {
	return newStep(satscard.card, "status", statusRequest, satscard.parseStatusData)
}

func (satscard *Satscard) parseStatusData(statusData statusData) error {

	if err := satscard.card.parseStatus(statusData, &satscard.CardStatus); err != nil {
		return err
	}

	if len(statusData.Slots) != 2 {
		return fmt.Errorf("%w: status without slots", ErrUnexpectedResponse)
	}

	satscard.ActiveSlot = statusData.Slots[0]
	satscard.NumberOfSlots = statusData.Slots[1]
	satscard.statusAddress = statusData.Address

	return nil

}

// Status refreshes the card status.
func (satscard *Satscard) Status() error {

	satscard.queue.enqueue(satscard.statusStep())

	return satscard.run()

}

// Slot returns the active slot number as currently reported by the card.
func (satscard *Satscard) Slot() (int, error) {

	if err := satscard.Status(); err != nil {
		return 0, err
	}

	return satscard.ActiveSlot, nil

}

// Read reads and verifies the public key of the active slot. The CVC is optional.
func (satscard *Satscard) Read(cvc string) (*ReadResult, error) {

	var result ReadResult

	satscard.cvc = cvc

	satscard.queue.enqueue(satscard.card.readStep(satscard.ActiveSlot, false, &result))

	if err := satscard.run(); err != nil {
		return nil, err
	}

	address, err := paymentAddress(result.PublicKey[:], satscard.Testnet)

	if err != nil {
		return nil, err
	}

	result.Address = address

	satscard.activeSlotPublicKey = result.PublicKey
	satscard.ActiveSlotPaymentAddress = address

	return &result, nil

}

// Address returns the full payment address of the active slot. It fails with
// ErrNoKey when the active slot holds no sealed key.
func (satscard *Satscard) Address() (string, error) {

	if err := satscard.Status(); err != nil {
		return "", err
	}

	if satscard.statusAddress == "" {
		return "", ErrNoKey
	}

	result, err := satscard.Read("")

	if err != nil {
		return "", err
	}

	return result.Address, nil

}

// CheckCertificate verifies the card's certificate chain up to a factory root
// and returns the name of that root.
func (satscard *Satscard) CheckCertificate() (string, error) {

	if err := satscard.Status(); err != nil {
		return "", err
	}

	var signer string
	var read ReadResult
	var slotPublicKey *[33]byte

	satscard.queue.enqueue(satscard.card.certsStep())

	if satscard.statusAddress != "" {
		satscard.queue.enqueue(satscard.card.readStep(satscard.ActiveSlot, false, &read))
		slotPublicKey = &read.PublicKey
	}

	satscard.queue.enqueue(satscard.card.checkStep(slotPublicKey, &signer))

	if err := satscard.run(); err != nil {
		return "", err
	}

	return signer, nil

}

// NewSlot picks a new private key on slot, which must be the active, unused slot.
func (satscard *Satscard) NewSlot(slot int, chainCode []byte, cvc string) (*NewSlotResult, error) {

	if slot >= satscard.NumberOfSlots {
		return nil, ErrNoSlotsLeft
	}

	if err := checkChainCode(chainCode); err != nil {
		return nil, err
	}

	if err := satscard.withCVC(cvc); err != nil {
		return nil, err
	}

	var result NewSlotResult

	satscard.queue.enqueue(satscard.card.newSlotStep(slot, chainCode, &result))

	if err := satscard.run(); err != nil {

		// The last slot refuses new once it holds a key.
		if errors.Is(err, ErrInvalidState) && slot == satscard.NumberOfSlots-1 {
			return nil, fmt.Errorf("%w: %w", ErrNoSlotsLeft, err)
		}

		return nil, err
	}

	satscard.ActiveSlot = result.Slot

	return &result, nil

}

// Unseal reveals the private key of slot.
func (satscard *Satscard) Unseal(slot int, cvc string) (*UnsealResult, error) {

	if err := satscard.withCVC(cvc); err != nil {
		return nil, err
	}

	var result UnsealResult

	satscard.queue.enqueue(satscard.card.unsealStep(slot, satscard.Testnet, &result))

	if err := satscard.run(); err != nil {
		return nil, err
	}

	return &result, nil

}

// Derive fetches the master public key and chain code of the active slot and
// checks that the slot key is their m/0 child.
func (satscard *Satscard) Derive() (*DeriveResult, error) {

	var result DeriveResult
	var derived []byte

	satscard.queue.enqueue(satscard.card.deriveStep(nil, false, &result, &derived))

	if err := satscard.run(); err != nil {
		return nil, err
	}

	child, err := deriveChild(result.MasterPublicKey, result.ChainCode, 0, satscard.Testnet)

	if err != nil {
		return nil, err
	}

	// Without a pubkey in the derive response, the slot key comes from read.
	if derived == nil {

		var read ReadResult

		satscard.queue.enqueue(satscard.card.readStep(satscard.ActiveSlot, false, &read))

		if err := satscard.run(); err != nil {
			return nil, err
		}

		derived = read.PublicKey[:]
	}

	if !sameKey(child, derived) {
		return nil, ErrKeyMismatch
	}

	address, err := paymentAddress(child[:], satscard.Testnet)

	if err != nil {
		return nil, err
	}

	result.Path = FormatPath([]uint32{0})
	result.PublicKey = child
	result.Address = address

	return &result, nil

}

// Sign signs a 32 byte digest with the key of an unsealed slot.
func (satscard *Satscard) Sign(slot int, digest []byte, cvc string) (*SignResult, error) {

	if err := checkDigest(digest); err != nil {
		return nil, err
	}

	if err := satscard.withCVC(cvc); err != nil {
		return nil, err
	}

	var result SignResult

	satscard.queue.enqueue(satscard.card.signStep(slot, nil, false, digest, &result))

	if err := satscard.run(); err != nil {
		return nil, err
	}

	return &result, nil

}

// Wait burns one second of the card's authentication delay.
func (satscard *Satscard) Wait() (*WaitResult, error) {

	var result WaitResult

	satscard.queue.enqueue(satscard.card.waitStep(&satscard.CardStatus, &result))

	if err := satscard.run(); err != nil {
		return nil, err
	}

	return &result, nil

}

func (satscard *Satscard) String() string {

	var b strings.Builder

	fmt.Fprintf(&b, "Card:          %s\n", satscard.Kind())
	fmt.Fprintf(&b, "Identity:      %s\n", satscard.Identity)
	fmt.Fprintf(&b, "Proto:         %d\n", satscard.Proto)
	fmt.Fprintf(&b, "Version:       %s\n", satscard.Version)
	fmt.Fprintf(&b, "Birth:         %d\n", satscard.Birth)
	fmt.Fprintf(&b, "Testnet:       %t\n", satscard.Testnet)
	fmt.Fprintf(&b, "Active slot:   %d\n", satscard.ActiveSlot)
	fmt.Fprintf(&b, "Slots:         %d\n", satscard.NumberOfSlots)
	fmt.Fprintf(&b, "Address:       %s\n", satscard.statusAddress)
	fmt.Fprintf(&b, "Auth delay:    %d", satscard.AuthDelay)

	return b.String()

}
