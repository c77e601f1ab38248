package transport

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/skythen/apdu"
)

// DefaultEmulatorSocket is where the card emulator listens unless told otherwise.
const DefaultEmulatorSocket = "/tmp/ecard-pipe"

const insSelect = 0xA4

// Emulator talks to the card emulator, which speaks bare CBOR without the
// APDU framing a real card uses.
type Emulator struct {
	connection net.Conn
	decoder    *cbor.Decoder
	timeout    time.Duration
}

// DialEmulator connects to the emulator socket at path.
func DialEmulator(path string, timeout time.Duration) (*Emulator, error) {

	if path == "" {
		path = DefaultEmulatorSocket
	}

	connection, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCard, err)
	}

	return NewEmulator(connection, timeout), nil
}

// NewEmulator wraps an established emulator connection. Each exchange fails
// once it takes longer than timeout, unless timeout is zero.
func NewEmulator(connection net.Conn, timeout time.Duration) *Emulator {
	return &Emulator{connection: connection, decoder: cbor.NewDecoder(connection), timeout: timeout}
}

// Transmit implements tapcards.Transmitter. The applet select is answered by
// the emulator as a status command.
func (e *Emulator) Transmit(command []byte) ([]byte, error) {

	capdu, err := apdu.ParseCapdu(command)
	if err != nil {
		return nil, err
	}

	request := capdu.Data

	if capdu.Ins == insSelect {
		request, err = cbor.Marshal(map[string]string{"cmd": "status"})
		if err != nil {
			return nil, err
		}
	}

	if e.timeout > 0 {
		if err := e.connection.SetDeadline(time.Now().Add(e.timeout)); err != nil {
			return nil, err
		}
	}

	slog.Debug("EMULATOR", "Request", fmt.Sprintf("%x", request))

	if _, err := e.connection.Write(request); err != nil {
		return nil, fmt.Errorf("write error: %w", err)
	}

	var response cbor.RawMessage

	if err := e.decoder.Decode(&response); err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	slog.Debug("EMULATOR", "Response", fmt.Sprintf("%x", []byte(response)))

	//Wrap the response in apdu again
	rapdu := apdu.Rapdu{Data: response, SW1: 0x90, SW2: 0x00}

	return rapdu.Bytes()
}

// Close closes the emulator connection.
func (e *Emulator) Close() error {
	return e.connection.Close()
}
