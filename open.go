package tapcards

import (
	"log/slog"
)

// Kind is the protocol personality of a card.
type Kind int

const (
	KindSatscard Kind = iota
	KindTapsigner
	KindSatschip
)

func (k Kind) String() string {
	switch k {
	case KindSatscard:
		return "SATSCARD"
	case KindTapsigner:
		return "TAPSIGNER"
	case KindSatschip:
		return "SATSCHIP"
	default:
		return "UNKNOWN"
	}
}

// Card is a located tap card: either a *Satscard or a *Tapsigner.
type Card interface {
	Kind() Kind
	Status() error
	CheckCertificate() (string, error)
	Wait() (*WaitResult, error)
}

// Open selects the tap applet on the card behind transport and returns the
// personality it reports.
func Open(transport Transmitter) (Card, error) {

	c := &card{transport: transport}

	var status statusData

	// ISO Applet Select is equivalent to doing a "status" command
	c.queue.enqueue(newStep(c, "status", statusRequest, func(v statusData) error {
		status = v
		return nil
	}))

	request, err := selectAppletRequest()

	if err != nil {
		return nil, err
	}

	if err := c.exchange(request); err != nil {
		return nil, err
	}

	if status.Tapsigner || status.Satschip {

		tapsigner := &Tapsigner{card: c}

		if err := tapsigner.parseStatusData(status); err != nil {
			return nil, err
		}

		slog.Debug("Opened card", "Kind", tapsigner.Kind(), "Identity", tapsigner.Identity)

		return tapsigner, nil
	}

	satscard := &Satscard{card: c}

	if err := satscard.parseStatusData(status); err != nil {
		return nil, err
	}

	slog.Debug("Opened card", "Kind", satscard.Kind(), "Identity", satscard.Identity)

	return satscard, nil

}
