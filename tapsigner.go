package tapcards

import (
	"fmt"
	"strings"
)

// Tapsigner is a TAPSIGNER or SATSCHIP: a card holding one BIP-32 master key.
// A SATSCHIP speaks the same protocol; the card itself refuses what it does not allow.
type Tapsigner struct {
	CardStatus

	// Path is the derivation path the card currently signs with.
	Path []uint32
	// NumberOfBackups is how many times the card has been backed up.
	NumberOfBackups int

	satschip bool

	*card
}

// Kind implements Card.
func (tapsigner *Tapsigner) Kind() Kind {
	if tapsigner.satschip {
		return KindSatschip
	}
	return KindTapsigner
}

func (tapsigner *Tapsigner) parseStatusData(statusData statusData) error {

	if err := tapsigner.card.parseStatus(statusData, &tapsigner.CardStatus); err != nil {
		return err
	}

	tapsigner.Path = statusData.Path
	tapsigner.NumberOfBackups = statusData.NumberOfBackups
	tapsigner.satschip = statusData.Satschip

	return nil

}

// Status refreshes the card status.
func (tapsigner *Tapsigner) Status() error {

	tapsigner.queue.enqueue(newStep(tapsigner.card, "status", statusRequest, tapsigner.parseStatusData))

	return tapsigner.run()

}

// Read reads and verifies the public key at the current derivation. The CVC is mandatory.
func (tapsigner *Tapsigner) Read(cvc string) (*ReadResult, error) {

	if err := tapsigner.withCVC(cvc); err != nil {
		return nil, err
	}

	var result ReadResult

	tapsigner.queue.enqueue(tapsigner.card.readStep(0, true, &result))

	if err := tapsigner.run(); err != nil {
		return nil, err
	}

	address, err := paymentAddress(result.PublicKey[:], tapsigner.Testnet)

	if err != nil {
		return nil, err
	}

	result.Address = address

	return &result, nil

}

// CheckCertificate verifies the card's certificate chain up to a factory root
// and returns the name of that root.
func (tapsigner *Tapsigner) CheckCertificate() (string, error) {

	var signer string

	tapsigner.queue.enqueue(tapsigner.card.certsStep())
	tapsigner.queue.enqueue(tapsigner.card.checkStep(nil, &signer))

	if err := tapsigner.run(); err != nil {
		return "", err
	}

	return signer, nil

}

// Init sets up the master key of a new card. Calling it on an initialised card
// fails with the error the card reports.
func (tapsigner *Tapsigner) Init(chainCode []byte, cvc string) (*NewSlotResult, error) {

	if len(chainCode) != ChainCodeSize {
		return nil, fmt.Errorf("chain code must be %d bytes", ChainCodeSize)
	}

	if err := tapsigner.withCVC(cvc); err != nil {
		return nil, err
	}

	var result NewSlotResult

	tapsigner.queue.enqueue(tapsigner.card.newSlotStep(0, chainCode, &result))

	if err := tapsigner.run(); err != nil {
		return nil, err
	}

	return &result, nil

}

// Derive moves the card to the hardened path and returns the verified key there.
// An empty path selects the master key.
func (tapsigner *Tapsigner) Derive(path []uint32, cvc string) (*DeriveResult, error) {

	hardenedPath, err := hardenPath(path)

	if err != nil {
		return nil, err
	}

	if err := tapsigner.withCVC(cvc); err != nil {
		return nil, err
	}

	var result DeriveResult

	tapsigner.queue.enqueue(tapsigner.card.deriveStep(hardenedPath, true, &result, nil))

	if err := tapsigner.run(); err != nil {
		return nil, err
	}

	address, err := paymentAddress(result.PublicKey[:], tapsigner.Testnet)

	if err != nil {
		return nil, err
	}

	result.Address = address
	tapsigner.Path = hardenedPath

	return &result, nil

}

// Sign derives to the hardened path and signs a 32 byte digest with the key
// there. Both commands are authorised by the same CVC.
func (tapsigner *Tapsigner) Sign(digest []byte, path []uint32, cvc string) (*SignResult, error) {

	if err := checkDigest(digest); err != nil {
		return nil, err
	}

	hardenedPath, err := hardenPath(path)

	if err != nil {
		return nil, err
	}

	if err := tapsigner.withCVC(cvc); err != nil {
		return nil, err
	}

	var derived DeriveResult
	var result SignResult

	tapsigner.queue.enqueue(tapsigner.card.deriveStep(hardenedPath, true, &derived, nil))
	tapsigner.queue.enqueue(tapsigner.card.signStep(0, nil, true, digest, &result))

	if err := tapsigner.run(); err != nil {
		return nil, err
	}

	if result.PublicKey != derived.PublicKey {
		return nil, ErrKeyMismatch
	}

	result.Path = derived.Path
	tapsigner.Path = hardenedPath

	return &result, nil

}

// Wait burns one second of the card's authentication delay.
func (tapsigner *Tapsigner) Wait() (*WaitResult, error) {

	var result WaitResult

	tapsigner.queue.enqueue(tapsigner.card.waitStep(&tapsigner.CardStatus, &result))

	if err := tapsigner.run(); err != nil {
		return nil, err
	}

	return &result, nil

}

func (tapsigner *Tapsigner) String() string {

	var b strings.Builder

	fmt.Fprintf(&b, "Card:          %s\n", tapsigner.Kind())
	fmt.Fprintf(&b, "Identity:      %s\n", tapsigner.Identity)
	fmt.Fprintf(&b, "Proto:         %d\n", tapsigner.Proto)
	fmt.Fprintf(&b, "Version:       %s\n", tapsigner.Version)
	fmt.Fprintf(&b, "Birth:         %d\n", tapsigner.Birth)
	fmt.Fprintf(&b, "Testnet:       %t\n", tapsigner.Testnet)
	fmt.Fprintf(&b, "Path:          %s\n", FormatPath(tapsigner.Path))
	fmt.Fprintf(&b, "Backups:       %d\n", tapsigner.NumberOfBackups)
	fmt.Fprintf(&b, "Auth delay:    %d", tapsigner.AuthDelay)

	return b.String()

}

// hardenPath marks every component hardened. Components must be below 2^31.
func hardenPath(path []uint32) ([]uint32, error) {

	hardenedPath := make([]uint32, 0, len(path))

	for _, component := range path {

		if component >= hardened {
			return nil, fmt.Errorf("path component %d out of range", component)
		}

		hardenedPath = append(hardenedPath, component|hardened)
	}

	return hardenedPath, nil
}
