package tapcards

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

const openDime = "OPENDIME"

// Transmitter sends one C-APDU to a card and returns its R-APDU.
type Transmitter interface {
	Transmit(command []byte) ([]byte, error)
}

// CardStatus holds the fields every tap card reports in its status response.
type CardStatus struct {
	// Identity is the human readable identity of the card.
	Identity string
	// Proto is the protocol version of the card.
	Proto int
	// Birth is the block height of the card.
	Birth int
	// Version is the firmware version of the card.
	Version string
	// Testnet is set when the card operates on testnet.
	Testnet bool
	// AuthDelay is the number of seconds the card wants to wait before the next authenticated command.
	AuthDelay int
}

// card holds the protocol state shared by every card personality.
type card struct {
	transport Transmitter

	// appNonce is the last nonce sent by the application.
	appNonce []byte
	// currentCardNonce is the current nonce of the card.
	currentCardNonce [16]byte
	// cardPublicKey is the public key of the card.
	cardPublicKey [33]byte
	// sessionKey is the ECDH session key of the last authenticated command.
	sessionKey [32]byte
	// certificateChain is the certificate chain of the card.
	certificateChain [][65]byte

	// cvc is only set while an authenticated operation is in flight.
	cvc string

	queue
}

func (c *card) createNonce() ([]byte, error) {

	// Create nonce
	nonce := make([]byte, 16)
	_, err := rand.Read(nonce)

	if err != nil {
		return nil, err
	}

	slog.Debug("Created nonce", "Nonce", fmt.Sprintf("%x", nonce))

	c.appNonce = nonce

	return nonce, nil

}

// parseResponse parses one R-APDU for the command at the head of the queue and
// returns the next C-APDU to send, or nil when the queue is drained.
func (c *card) parseResponse(response []byte) ([]byte, error) {

	bytes, err := apduUnwrap(response)

	if err != nil {
		c.reset()
		return nil, err
	}

	step, ok := c.queue.dequeue()

	if !ok {
		return nil, errors.New("queue empty")
	}

	slog.Debug("Parse " + step.name)

	if err := step.parse(bytes); err != nil {
		c.reset()
		return nil, err
	}

	// Check if there are more commands to run

	return c.nextCommand()

}

func (c *card) nextCommand() ([]byte, error) {

	step, ok := c.queue.peek()

	if !ok {

		c.cvc = ""

		return nil, nil
	}

	slog.Debug("Request " + step.name)

	request, err := step.request()

	if err != nil {
		c.reset()
		return nil, err
	}

	return request, nil

}

// run drains the queue against the card.
func (c *card) run() error {

	request, err := c.nextCommand()

	if err != nil {
		return err
	}

	return c.exchange(request)

}

func (c *card) exchange(request []byte) error {

	for request != nil {

		response, err := c.transport.Transmit(request)

		if err != nil {
			c.reset()
			return err
		}

		request, err = c.parseResponse(response)

		if err != nil {
			return err
		}

	}

	return nil

}

func (c *card) reset() {
	c.queue.clear()
	c.cvc = ""
}

// withCVC stores the CVC for the queued commands. It is wiped once the queue drains.
func (c *card) withCVC(cvc string) error {

	if cvc == "" {
		return ErrCVCRequired
	}

	c.cvc = cvc

	return nil
}

// EnableDebugLogging makes the default slog logger write debug records to w,
// which is where every command and response of a session gets logged.
func EnableDebugLogging(w io.Writer) {

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))
}
