package tapcards

// COMMANDS

type command struct {
	Cmd string `cbor:"cmd"`
}

type auth struct {
	EphemeralPubKey []byte `cbor:"epubkey,omitempty"` //app's ephemeral public key
	XCVC            []byte `cbor:"xcvc,omitempty"`    //encrypted CVC value
}

type statusCommand struct {
	command
}

type readCommand struct {
	command
	auth
	Nonce []byte `cbor:"nonce"` // provided by app, cannot be all same byte (& should be random)
}

type unsealCommand struct {
	command
	auth
	Slot int `cbor:"slot"`
}

type newCommand struct {
	command
	auth
	Slot      int    `cbor:"slot"`                 // slot to be affected, must equal currently-active slot number
	ChainCode []byte `cbor:"chain_code,omitempty"` // app's entropy share to be applied to new slot (optional on SATSCARD)
}

type satscardDeriveCommand struct {
	command
	Nonce []byte `cbor:"nonce"`
}

type tapsignerDeriveCommand struct {
	command
	auth
	Nonce []byte   `cbor:"nonce"`
	Path  []uint32 `cbor:"path"` // hardened components, empty for the master key
}

type satscardSignCommand struct {
	command
	auth
	Slot   int    `cbor:"slot"`
	Digest []byte `cbor:"digest"` // XOR'ed with the session key
}

type tapsignerSignCommand struct {
	command
	auth
	Subpath []uint32 `cbor:"subpath,omitempty"`
	Digest  []byte   `cbor:"digest"` // XOR'ed with the session key
}

type certsCommand struct {
	command
}

type checkCommand struct {
	command
	Nonce []byte `cbor:"nonce"` // provided by app, cannot be all same byte (& should be random)
}

type waitCommand struct {
	command
	auth
}
