package tapcards

import (
	"fmt"
	"log/slog"

	"github.com/fxamacker/cbor/v2"
)

// step is one command/response exchange with the card.
type step struct {
	name    string
	request func() ([]byte, error)
	parse   func(data []byte) error
}

type queue struct {
	steps []step
}

func (q *queue) enqueue(s step) {
	q.steps = append(q.steps, s)
}

func (q *queue) dequeue() (step, bool) {
	if len(q.steps) == 0 {
		return step{}, false
	}
	s := q.steps[0]
	q.steps = q.steps[1:]
	return s, true
}

func (q *queue) peek() (step, bool) {
	if len(q.steps) == 0 {
		return step{}, false
	}
	return q.steps[0], true
}

func (q *queue) clear() {
	q.steps = nil
}

// newStep ties a command builder to the parser of its typed response. The
// card nonce is rotated only after parse succeeded, since parsers verify
// signatures over the previous nonce.
func newStep[T any](c *card, name string, build func() (any, error), parse func(T) error) step {
	return step{
		name: name,
		request: func() ([]byte, error) {
			cmd, err := build()
			if err != nil {
				return nil, err
			}
			return apduWrap(cmd)
		},
		parse: func(data []byte) error {
			v, err := decode[T](data)
			if err != nil {
				return err
			}
			if err := parse(v); err != nil {
				return err
			}
			if r, ok := any(v).(nonceResponse); ok {
				c.currentCardNonce = r.nonce()
			}
			return nil
		},
	}
}

// decode unmarshals a card response, turning {error, code} replies into a *CardError.
func decode[T any](data []byte) (T, error) {

	var v T
	var e errorData

	if err := cbor.Unmarshal(data, &e); err == nil && e.Error != "" {
		slog.Debug("ERROR", "Code", e.Code, "Error", e.Error)
		return v, &CardError{Code: e.Code, Message: e.Error}
	}

	if err := cbor.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	return v, nil
}
