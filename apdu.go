package tapcards

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/skythen/apdu"
)

const (
	claISO    = 0x00
	insSelect = 0xA4
	insCBOR   = 0xCB
)

// Applet identifier shared by every Coinkite tap card.
var appletID = []byte{0xf0, 'C', 'o', 'i', 'n', 'k', 'i', 't', 'e', 'C', 'A', 'R', 'D', 'v', '1'}

// apduWrap takes any value, serializes it using CBOR, and wraps it into an APDU command.
// It returns the byte representation of the APDU command or an error if something goes wrong.
func apduWrap(value any) ([]byte, error) {

	cborSerialized, err := cbor.Marshal(value)
	if err != nil {
		return nil, err
	}

	capdu := apdu.Capdu{Cla: claISO, Ins: insCBOR, Data: cborSerialized}

	return capdu.Bytes()

}

// apduUnwrap takes a byte slice, tries to parse it as an APDU response, and returns the data field of the response.
// It returns an error if the byte slice cannot be parsed as an APDU response or the status word is not 9000.
func apduUnwrap(value []byte) ([]byte, error) {

	rapdu, err := apdu.ParseRapdu(value)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	if rapdu.SW1 != 0x90 || rapdu.SW2 != 0x00 {
		return nil, &StatusWordError{SW1: rapdu.SW1, SW2: rapdu.SW2}
	}

	return rapdu.Data, nil

}

// selectAppletRequest builds the ISO applet select command. The card answers
// it exactly like a "status" command.
func selectAppletRequest() ([]byte, error) {

	capdu := apdu.Capdu{Cla: claISO, Ins: insSelect, P1: 0x04, Data: appletID}

	return capdu.Bytes()

}
