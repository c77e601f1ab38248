// Package transport carries C-APDUs to a tap card, either through a PC/SC
// reader or to the card emulator's unix socket.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ebfe/scard"
)

var (
	// ErrNoReader is returned when no PC/SC reader matches.
	ErrNoReader = errors.New("no smart card reader found")
	// ErrNoCard is returned when no card showed up before the timeout.
	ErrNoCard = errors.New("no card found")
	// ErrAmbiguousCard is returned when more than one reader holds a card.
	ErrAmbiguousCard = errors.New("more than one card present, pick a reader")
)

// PCSC is a card connected through a PC/SC reader.
type PCSC struct {
	// Reader is the name of the reader the card sits in.
	Reader string

	context *scard.Context
	card    *scard.Card
}

// FindFirst connects to the card in the first reader whose name contains
// reader, waiting up to timeout for one to be presented. An empty reader
// matches every reader; a timeout of zero or less waits forever.
func FindFirst(reader string, timeout time.Duration) (*PCSC, error) {

	// Establish a context
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoReader, err)
	}

	readers, err := listReaders(ctx, reader)
	if err != nil {
		ctx.Release()
		return nil, err
	}

	slog.Debug("PCSC", "Readers", readers)

	index, err := waitUntilCardPresent(ctx, readers, timeout)
	if err != nil {
		ctx.Release()
		return nil, err
	}

	slog.Debug("PCSC", "Connecting", readers[index])

	card, err := ctx.Connect(readers[index], scard.ShareExclusive, scard.ProtocolAny)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoCard, err)
	}

	return &PCSC{Reader: readers[index], context: ctx, card: card}, nil
}

func listReaders(ctx *scard.Context, name string) ([]string, error) {

	readers, err := ctx.ListReaders()
	if err != nil {
		if errors.Is(err, scard.ErrNoReadersAvailable) {
			return nil, ErrNoReader
		}
		return nil, fmt.Errorf("%w: %v", ErrNoReader, err)
	}

	var matching []string
	for _, r := range readers {
		if strings.Contains(r, name) {
			matching = append(matching, r)
		}
	}

	if len(matching) == 0 {
		return nil, ErrNoReader
	}

	return matching, nil
}

func waitUntilCardPresent(ctx *scard.Context, readers []string, timeout time.Duration) (int, error) {

	rs := make([]scard.ReaderState, len(readers))
	for i := range rs {
		rs[i].Reader = readers[i]
		rs[i].CurrentState = scard.StateUnaware
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		present := -1
		for i := range rs {
			if rs[i].EventState&scard.StatePresent != 0 {
				if present >= 0 {
					return -1, ErrAmbiguousCard
				}
				present = i
			}
			rs[i].CurrentState = rs[i].EventState
		}

		if present >= 0 {
			return present, nil
		}

		wait := time.Duration(-1)
		if !deadline.IsZero() {
			wait = time.Until(deadline)
			if wait <= 0 {
				return -1, ErrNoCard
			}
		}

		err := ctx.GetStatusChange(rs, wait)
		if errors.Is(err, scard.ErrTimeout) {
			return -1, ErrNoCard
		}
		if err != nil {
			return -1, err
		}
	}
}

// Transmit implements tapcards.Transmitter.
func (p *PCSC) Transmit(command []byte) ([]byte, error) {

	slog.Debug("PCSC", "C-APDU", fmt.Sprintf("% x", command))

	response, err := p.card.Transmit(command)
	if err != nil {
		return nil, err
	}

	slog.Debug("PCSC", "R-APDU", fmt.Sprintf("% x", response))

	return response, nil
}

// Close disconnects from the card and releases the PC/SC context.
func (p *PCSC) Close() error {
	err := p.card.Disconnect(scard.ResetCard)
	if releaseErr := p.context.Release(); err == nil {
		err = releaseErr
	}
	return err
}
