// Package cardsim simulates a Coinkite tap card behind a Transmit method, for
// tests that need a card without a reader.
package cardsim

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/skythen/apdu"
)

const hardened = 0x80000000

type slotState int

const (
	unused slotState = iota
	sealed
	unsealed
)

type slot struct {
	master    *btcec.PrivateKey
	chainCode [32]byte
	state     slotState
}

func (s *slot) key() *btcec.PrivateKey {
	parent := hdkeychain.NewExtendedKey(chaincfg.MainNetParams.HDPrivateKeyID[:], s.master.Serialize(), s.chainCode[:], []byte{0, 0, 0, 0}, 0, 0, true)
	child, err := parent.Derive(0)
	if err != nil {
		panic(err)
	}
	key, err := child.ECPrivKey()
	if err != nil {
		panic(err)
	}
	return key
}

// Card is a simulated SATSCARD, TAPSIGNER or SATSCHIP.
type Card struct {
	CVC       string
	Tapsigner bool
	Satschip  bool
	Testnet   bool
	AuthDelay int

	// DeriveOmitsPubkey leaves the slot pubkey out of SATSCARD derive responses.
	DeriveOmitsPubkey bool

	// Commands lists every command received, in order.
	Commands []string

	root  *btcec.PrivateKey
	key   *btcec.PrivateKey
	nonce [16]byte
	cert  [65]byte

	activeSlot int
	slots      []*slot

	initialized bool
	master      *hdkeychain.ExtendedKey
	current     *hdkeychain.ExtendedKey
	path        []uint32

	session [32]byte
}

func newCard(cvc string) *Card {
	c := &Card{CVC: cvc, root: newKey(), key: newKey()}
	c.rotateNonce()
	c.signCertificate(c.root)
	return c
}

// NewSatscard returns a SATSCARD with a sealed key in slot 0.
func NewSatscard(cvc string, slots int) *Card {
	c := newCard(cvc)
	for i := 0; i < slots; i++ {
		c.slots = append(c.slots, &slot{})
	}
	c.seal(c.slots[0], randomBytes(32))
	return c
}

// NewTapsigner returns an initialised TAPSIGNER, or a SATSCHIP when satschip is set.
func NewTapsigner(cvc string, satschip bool) *Card {
	c := newCard(cvc)
	c.Tapsigner = true
	c.Satschip = satschip
	c.initialize(randomBytes(32))
	return c
}

// NewBlankTapsigner returns a TAPSIGNER that still needs init.
func NewBlankTapsigner(cvc string) *Card {
	c := newCard(cvc)
	c.Tapsigner = true
	return c
}

// RootPublicKey is the key the card's certificate chain ends at.
func (c *Card) RootPublicKey() []byte {
	return c.root.PubKey().SerializeCompressed()
}

// Counterfeit reissues the card certificate from a key no factory owns.
func (c *Card) Counterfeit() {
	c.signCertificate(newKey())
}

// SlotPublicKey returns the public key of slot i, or nil when the slot is unused.
func (c *Card) SlotPublicKey(i int) []byte {
	if c.slots[i].state == unused {
		return nil
	}
	return c.slots[i].key().PubKey().SerializeCompressed()
}

// Transmit implements tapcards.Transmitter.
func (c *Card) Transmit(command []byte) ([]byte, error) {

	capdu, err := apdu.ParseCapdu(command)
	if err != nil {
		return nil, err
	}

	if capdu.Ins == 0xA4 {
		c.Commands = append(c.Commands, "select")
		return reply(c.status())
	}

	var req request
	if err := cbor.Unmarshal(capdu.Data, &req); err != nil {
		return reply(failure(422, "bad CBOR"))
	}

	c.Commands = append(c.Commands, req.Cmd)

	return reply(c.handle(req))
}

type request struct {
	Cmd       string   `cbor:"cmd"`
	Nonce     []byte   `cbor:"nonce"`
	EPubKey   []byte   `cbor:"epubkey"`
	XCVC      []byte   `cbor:"xcvc"`
	Slot      int      `cbor:"slot"`
	ChainCode []byte   `cbor:"chain_code"`
	Path      []uint32 `cbor:"path"`
	Subpath   []uint32 `cbor:"subpath"`
	Digest    []byte   `cbor:"digest"`
}

type response map[string]any

func failure(code int, message string) response {
	return response{"error": message, "code": code}
}

func reply(r response) ([]byte, error) {
	data, err := cbor.Marshal(r)
	if err != nil {
		return nil, err
	}
	rapdu := apdu.Rapdu{Data: data, SW1: 0x90, SW2: 0x00}
	return rapdu.Bytes()
}

func (c *Card) handle(req request) response {
	switch req.Cmd {
	case "status":
		return c.status()
	case "read":
		return c.read(req)
	case "certs":
		return response{"cert_chain": [][]byte{c.cert[:]}}
	case "check":
		return c.check(req)
	case "new":
		return c.newSlot(req)
	case "unseal":
		return c.unseal(req)
	case "derive":
		return c.derive(req)
	case "sign":
		return c.sign(req)
	case "wait":
		if c.AuthDelay > 0 {
			c.AuthDelay--
		}
		return response{"success": true, "auth_delay": c.AuthDelay}
	default:
		return failure(404, "unknown command")
	}
}

func (c *Card) status() response {
	r := response{
		"proto":      1,
		"ver":        "1.0.3",
		"birth":      700000,
		"pubkey":     c.key.PubKey().SerializeCompressed(),
		"card_nonce": c.nonce[:],
	}
	if c.Testnet {
		r["testnet"] = true
	}
	if c.AuthDelay > 0 {
		r["auth_delay"] = c.AuthDelay
	}
	if c.Tapsigner {
		r["tapsigner"] = true
		if c.Satschip {
			r["satschip"] = true
		}
		r["path"] = c.path
		r["num_backups"] = 0
		return r
	}
	r["slots"] = []int{c.activeSlot, len(c.slots)}
	if c.slots[c.activeSlot].state == sealed {
		r["addr"] = "bc1qsimulated___truncated"
	}
	return r
}

func (c *Card) read(req request) response {
	if len(req.Nonce) != 16 {
		return failure(400, "invalid args")
	}
	authenticated := len(req.EPubKey) > 0
	if c.Tapsigner && !authenticated {
		return failure(403, "needs auth")
	}
	if authenticated {
		if code, message := c.authorize(req); code != 0 {
			return failure(code, message)
		}
	}

	var key *btcec.PrivateKey
	var slotNumber byte
	if c.Tapsigner {
		if !c.initialized {
			return failure(406, "invalid state")
		}
		key = privateKey(c.current)
	} else {
		s := c.slots[c.activeSlot]
		if s.state == unused {
			return failure(406, "invalid state")
		}
		key = s.key()
		slotNumber = byte(c.activeSlot)
	}

	sig := c.signMessage(key, req.Nonce, []byte{slotNumber})
	pubkey := key.PubKey().SerializeCompressed()
	if c.Tapsigner {
		for i := range c.session {
			pubkey[i+1] ^= c.session[i]
		}
	}

	return c.success(response{"sig": sig, "pubkey": pubkey})
}

func (c *Card) check(req request) response {
	if len(req.Nonce) != 16 {
		return failure(400, "invalid args")
	}
	extra := []byte{}
	if !c.Tapsigner && c.slots[c.activeSlot].state == sealed {
		extra = c.slots[c.activeSlot].key().PubKey().SerializeCompressed()
	}
	return c.success(response{"auth_sig": c.signMessage(c.key, req.Nonce, extra)})
}

func (c *Card) newSlot(req request) response {
	if code, message := c.authorize(req); code != 0 {
		return failure(code, message)
	}
	if c.Tapsigner {
		if c.initialized {
			return failure(406, "invalid state")
		}
		if len(req.ChainCode) != 32 {
			return failure(400, "invalid args")
		}
		c.initialize(req.ChainCode)
		return c.success(response{"slot": 0})
	}
	if req.Slot != c.activeSlot || c.slots[c.activeSlot].state != unused {
		return failure(406, "invalid state")
	}
	chainCode := req.ChainCode
	if len(chainCode) != 32 {
		chainCode = randomBytes(32)
	}
	c.seal(c.slots[c.activeSlot], chainCode)
	return c.success(response{"slot": c.activeSlot})
}

func (c *Card) unseal(req request) response {
	if c.Tapsigner {
		return failure(405, "invalid command")
	}
	if code, message := c.authorize(req); code != 0 {
		return failure(code, message)
	}
	if req.Slot != c.activeSlot || c.slots[c.activeSlot].state != sealed {
		return failure(406, "invalid state")
	}
	s := c.slots[c.activeSlot]
	s.state = unsealed
	privkey := s.key().Serialize()
	for i := range privkey {
		privkey[i] ^= c.session[i]
	}
	r := response{
		"slot":       c.activeSlot,
		"privkey":    privkey,
		"pubkey":     s.key().PubKey().SerializeCompressed(),
		"master_pk":  s.master.PubKey().SerializeCompressed(),
		"chain_code": s.chainCode[:],
	}
	if c.activeSlot < len(c.slots)-1 {
		c.activeSlot++
	}
	return c.success(r)
}

func (c *Card) derive(req request) response {
	if len(req.Nonce) != 16 {
		return failure(400, "invalid args")
	}
	if !c.Tapsigner {
		s := c.slots[c.activeSlot]
		if s.state == unused {
			return failure(406, "invalid state")
		}
		r := response{
			"sig":           c.signMessage(s.master, req.Nonce, s.chainCode[:]),
			"chain_code":    s.chainCode[:],
			"master_pubkey": s.master.PubKey().SerializeCompressed(),
			"pubkey":        s.key().PubKey().SerializeCompressed(),
		}
		if c.DeriveOmitsPubkey {
			delete(r, "pubkey")
		}
		return c.success(r)
	}
	if code, message := c.authorize(req); code != 0 {
		return failure(code, message)
	}
	if !c.initialized {
		return failure(406, "invalid state")
	}
	node := c.master
	for _, component := range req.Path {
		if component < hardened {
			return failure(400, "invalid args")
		}
		var err error
		if node, err = node.Derive(component); err != nil {
			return failure(205, "unlucky number")
		}
	}
	c.current = node
	c.path = append([]uint32{}, req.Path...)

	key := privateKey(node)
	r := response{
		"sig":           c.signMessage(key, req.Nonce, node.ChainCode()),
		"chain_code":    node.ChainCode(),
		"master_pubkey": privateKey(c.master).PubKey().SerializeCompressed(),
	}
	if len(req.Path) > 0 {
		r["pubkey"] = key.PubKey().SerializeCompressed()
	}
	return c.success(r)
}

func (c *Card) sign(req request) response {
	if code, message := c.authorize(req); code != 0 {
		return failure(code, message)
	}
	if len(req.Digest) != 32 {
		return failure(400, "invalid args")
	}
	digest := make([]byte, 32)
	for i := range digest {
		digest[i] = req.Digest[i] ^ c.session[i]
	}

	var key *btcec.PrivateKey
	slotNumber := 0
	if c.Tapsigner {
		if !c.initialized || len(req.Subpath) > 0 {
			return failure(406, "invalid state")
		}
		key = privateKey(c.current)
	} else {
		if req.Slot < 0 || req.Slot >= len(c.slots) || c.slots[req.Slot].state != unsealed {
			return failure(406, "invalid state")
		}
		key = c.slots[req.Slot].key()
		slotNumber = req.Slot
	}

	compact, err := ecdsa.SignCompact(key, digest, true)
	if err != nil {
		return failure(205, "unlucky number")
	}

	return c.success(response{
		"slot":   slotNumber,
		"sig":    compact[1:],
		"pubkey": key.PubKey().SerializeCompressed(),
	})
}

// authorize checks the encrypted CVC and keeps the session key for the reply.
func (c *Card) authorize(req request) (int, string) {
	if c.AuthDelay > 0 {
		return 429, "rate limited"
	}
	if len(req.EPubKey) == 0 || len(req.XCVC) == 0 {
		return 403, "needs auth"
	}
	epubkey, err := secp256k1.ParsePubKey(req.EPubKey)
	if err != nil {
		return 400, "invalid args"
	}

	var point, result secp256k1.JacobianPoint
	epubkey.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&c.key.Key, &point, &result)
	result.ToAffine()
	shared := secp256k1.NewPublicKey(&result.X, &result.Y).SerializeCompressed()

	c.session = sha256.Sum256(shared)
	md := sha256.Sum256(append(c.nonce[:], []byte(req.Cmd)...))

	if len(req.XCVC) > len(md) {
		return 401, "bad auth"
	}
	cvc := make([]byte, len(req.XCVC))
	for i := range cvc {
		cvc[i] = req.XCVC[i] ^ c.session[i] ^ md[i]
	}
	if !bytes.Equal(cvc, []byte(c.CVC)) {
		return 401, "bad auth"
	}
	return 0, ""
}

func (c *Card) success(r response) response {
	c.rotateNonce()
	r["card_nonce"] = c.nonce[:]
	return r
}

func (c *Card) signMessage(key *btcec.PrivateKey, nonce []byte, extra []byte) []byte {
	message := append([]byte("OPENDIME"), c.nonce[:]...)
	message = append(message, nonce...)
	message = append(message, extra...)
	digest := sha256.Sum256(message)
	compact, err := ecdsa.SignCompact(key, digest[:], true)
	if err != nil {
		panic(err)
	}
	return compact[1:]
}

func (c *Card) signCertificate(issuer *btcec.PrivateKey) {
	digest := sha256.Sum256(c.key.PubKey().SerializeCompressed())
	compact, err := ecdsa.SignCompact(issuer, digest[:], true)
	if err != nil {
		panic(err)
	}
	copy(c.cert[:], compact)
}

func (c *Card) seal(s *slot, chainCode []byte) {
	s.master = newKey()
	copy(s.chainCode[:], chainCode)
	s.state = sealed
}

func (c *Card) initialize(chainCode []byte) {
	c.master = hdkeychain.NewExtendedKey(chaincfg.MainNetParams.HDPrivateKeyID[:], newKey().Serialize(), chainCode, []byte{0, 0, 0, 0}, 0, 0, true)
	c.current = c.master
	c.path = []uint32{}
	c.initialized = true
}

func (c *Card) rotateNonce() {
	copy(c.nonce[:], randomBytes(16))
}

func privateKey(node *hdkeychain.ExtendedKey) *btcec.PrivateKey {
	key, err := node.ECPrivKey()
	if err != nil {
		panic(err)
	}
	return key
}

func newKey() *btcec.PrivateKey {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		panic(err)
	}
	return key
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
