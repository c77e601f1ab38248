package transport

import (
	"net"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/skythen/apdu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve answers every CBOR request on conn with {"echo": cmd}.
func serve(t *testing.T, conn net.Conn, received chan<- string) {
	decoder := cbor.NewDecoder(conn)
	for {
		var request map[string]any
		if err := decoder.Decode(&request); err != nil {
			close(received)
			return
		}
		cmd, _ := request["cmd"].(string)
		received <- cmd

		response, err := cbor.Marshal(map[string]string{"echo": cmd})
		if !assert.NoError(t, err) {
			return
		}
		if _, err := conn.Write(response); err != nil {
			return
		}
	}
}

func TestEmulatorTransmit(t *testing.T) {

	client, server := net.Pipe()
	received := make(chan string, 4)
	go serve(t, server, received)

	emulator := NewEmulator(client, time.Second)
	defer emulator.Close()

	tests := []struct {
		name    string
		command apdu.Capdu
		cmd     string
	}{
		{"select becomes status", apdu.Capdu{Cla: 0x00, Ins: 0xA4, P1: 0x04, Data: []byte("\xf0CoinkiteCARDv1")}, "status"},
		{"cbor passes through", apdu.Capdu{Cla: 0x00, Ins: 0xCB, Data: mustMarshal(t, map[string]string{"cmd": "certs"})}, "certs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			command, err := tt.command.Bytes()
			require.NoError(t, err)

			response, err := emulator.Transmit(command)
			require.NoError(t, err)

			assert.Equal(t, tt.cmd, <-received)

			rapdu, err := apdu.ParseRapdu(response)
			require.NoError(t, err)
			assert.Equal(t, byte(0x90), rapdu.SW1)
			assert.Equal(t, byte(0x00), rapdu.SW2)

			var body map[string]string
			require.NoError(t, cbor.Unmarshal(rapdu.Data, &body))
			assert.Equal(t, tt.cmd, body["echo"])
		})
	}
}

func TestEmulatorTimeout(t *testing.T) {

	client, server := net.Pipe()
	defer server.Close()

	emulator := NewEmulator(client, 50*time.Millisecond)
	defer emulator.Close()

	go func() {
		// Swallow the request and never answer.
		buf := make([]byte, 64)
		_, _ = server.Read(buf)
	}()

	capdu := apdu.Capdu{Cla: 0x00, Ins: 0xCB, Data: mustMarshal(t, map[string]string{"cmd": "status"})}
	command, err := capdu.Bytes()
	require.NoError(t, err)

	_, err = emulator.Transmit(command)
	assert.Error(t, err)
}

func TestDialEmulatorMissingSocket(t *testing.T) {
	_, err := DialEmulator(t.TempDir()+"/missing", 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoCard)
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := cbor.Marshal(v)
	require.NoError(t, err)
	return b
}
