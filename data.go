package tapcards

// DATA

type cardResponse struct {
	CardNonce [16]byte `cbor:"card_nonce"`
}

func (r cardResponse) nonce() [16]byte {
	return r.CardNonce
}

// nonceResponse is implemented by every response that rotates the card nonce.
type nonceResponse interface {
	nonce() [16]byte
}

type statusData struct {
	cardResponse
	Proto           int      `cbor:"proto"`
	Birth           int      `cbor:"birth"`
	Slots           []int    `cbor:"slots"`
	Address         string   `cbor:"addr"`
	Version         string   `cbor:"ver"`
	PublicKey       [33]byte `cbor:"pubkey"`
	Tapsigner       bool     `cbor:"tapsigner"`
	Satschip        bool     `cbor:"satschip"`
	Path            []uint32 `cbor:"path"`
	NumberOfBackups int      `cbor:"num_backups"`
	Testnet         bool     `cbor:"testnet"`
	AuthDelay       int      `cbor:"auth_delay"`
}

type readData struct {
	cardResponse
	Signature [64]byte `cbor:"sig"`    //  signature over a bunch of fields using private key of slot
	PublicKey [33]byte `cbor:"pubkey"` // public key for this slot/derivation
}

type unsealData struct {
	cardResponse
	Slot            int      `cbor:"slot"`       // slot just unsealed
	PrivateKey      [32]byte `cbor:"privkey"`    // private key for spending, XOR'ed with the session key
	PublicKey       [33]byte `cbor:"pubkey"`     // slot's pubkey (convenience, since could be calc'd from privkey)
	MasterPublicKey [33]byte `cbor:"master_pk"`  // card's master public key
	ChainCode       [32]byte `cbor:"chain_code"` // nonce provided by customer
}

type newData struct {
	cardResponse
	Slot int `cbor:"slot"`
}

type deriveData struct {
	cardResponse
	Signature       [64]byte `cbor:"sig"`
	ChainCode       [32]byte `cbor:"chain_code"`
	MasterPublicKey [33]byte `cbor:"master_pubkey"`
	PublicKey       []byte   `cbor:"pubkey"` // absent when deriving the master key
}

type signData struct {
	cardResponse
	Slot      int      `cbor:"slot"`
	Signature [64]byte `cbor:"sig"`
	PublicKey [33]byte `cbor:"pubkey"`
}

type certsData struct {
	CertificateChain [][65]byte `cbor:"cert_chain"`
}

type checkData struct {
	cardResponse
	AuthSignature [64]byte `cbor:"auth_sig"`
}

type waitData struct {
	Success   bool `cbor:"success"`
	AuthDelay int  `cbor:"auth_delay"`
}

type errorData struct {
	Code  int    `cbor:"code"`
	Error string `cbor:"error"`
}
