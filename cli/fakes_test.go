package cli

import (
	"bytes"
	"testing"

	tapcards "github.com/schjonhaug/cktap"
)

// countingPrompter hands out cvc and counts how often it was asked.
type countingPrompter struct {
	cvc   string
	err   error
	calls int
}

func (p *countingPrompter) Prompt() (string, error) {
	p.calls++
	return p.cvc, p.err
}

// sequenceReader yields 0, 1, 2, ... so every chain code differs.
type sequenceReader struct {
	next byte
}

func (r *sequenceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.next
		r.next++
	}
	return len(p), nil
}

// fakeSatscard records the calls the router makes.
type fakeSatscard struct {
	calls      []string
	cvcs       []string
	chainCodes [][]byte
	signSlot   int
	digest     []byte
	err        error
	address    string
	signer     string
}

func (f *fakeSatscard) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeSatscard) String() string { return "satscard status" }

func (f *fakeSatscard) Status() error { return f.record("status") }

func (f *fakeSatscard) Address() (string, error) {
	if err := f.record("address"); err != nil {
		return "", err
	}
	return f.address, nil
}

func (f *fakeSatscard) CheckCertificate() (string, error) {
	if err := f.record("verify-certificate"); err != nil {
		return "", err
	}
	return f.signer, nil
}

func (f *fakeSatscard) Read(cvc string) (*tapcards.ReadResult, error) {
	f.cvcs = append(f.cvcs, cvc)
	if err := f.record("read"); err != nil {
		return nil, err
	}
	return &tapcards.ReadResult{}, nil
}

func (f *fakeSatscard) Slot() (int, error) {
	f.calls = append(f.calls, "slot")
	return 3, nil
}

func (f *fakeSatscard) NewSlot(slot int, chainCode []byte, cvc string) (*tapcards.NewSlotResult, error) {
	f.cvcs = append(f.cvcs, cvc)
	f.chainCodes = append(f.chainCodes, chainCode)
	if err := f.record("new-slot"); err != nil {
		return nil, err
	}
	return &tapcards.NewSlotResult{Slot: slot}, nil
}

func (f *fakeSatscard) Unseal(slot int, cvc string) (*tapcards.UnsealResult, error) {
	f.cvcs = append(f.cvcs, cvc)
	if err := f.record("unseal"); err != nil {
		return nil, err
	}
	return &tapcards.UnsealResult{Slot: slot}, nil
}

func (f *fakeSatscard) Derive() (*tapcards.DeriveResult, error) {
	if err := f.record("derive"); err != nil {
		return nil, err
	}
	return &tapcards.DeriveResult{Path: "m/0"}, nil
}

func (f *fakeSatscard) Sign(slot int, digest []byte, cvc string) (*tapcards.SignResult, error) {
	f.cvcs = append(f.cvcs, cvc)
	f.signSlot = slot
	f.digest = digest
	if err := f.record("sign"); err != nil {
		return nil, err
	}
	return &tapcards.SignResult{Slot: slot}, nil
}

func (f *fakeSatscard) Wait() (*tapcards.WaitResult, error) {
	if err := f.record("wait"); err != nil {
		return nil, err
	}
	return &tapcards.WaitResult{Success: true}, nil
}

// fakeTapsigner records the calls the router makes.
type fakeTapsigner struct {
	calls      []string
	cvcs       []string
	chainCodes [][]byte
	path       []uint32
	digest     []byte
	err        error
	signer     string
}

func (f *fakeTapsigner) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeTapsigner) String() string { return "tapsigner status" }

func (f *fakeTapsigner) Status() error { return f.record("status") }

func (f *fakeTapsigner) CheckCertificate() (string, error) {
	if err := f.record("verify-certificate"); err != nil {
		return "", err
	}
	return f.signer, nil
}

func (f *fakeTapsigner) Read(cvc string) (*tapcards.ReadResult, error) {
	f.cvcs = append(f.cvcs, cvc)
	if err := f.record("read"); err != nil {
		return nil, err
	}
	return &tapcards.ReadResult{}, nil
}

func (f *fakeTapsigner) Init(chainCode []byte, cvc string) (*tapcards.NewSlotResult, error) {
	f.cvcs = append(f.cvcs, cvc)
	f.chainCodes = append(f.chainCodes, chainCode)
	if err := f.record("init"); err != nil {
		return nil, err
	}
	return &tapcards.NewSlotResult{}, nil
}

func (f *fakeTapsigner) Derive(path []uint32, cvc string) (*tapcards.DeriveResult, error) {
	f.cvcs = append(f.cvcs, cvc)
	f.path = path
	if err := f.record("derive"); err != nil {
		return nil, err
	}
	return &tapcards.DeriveResult{Path: tapcards.FormatPath(path)}, nil
}

func (f *fakeTapsigner) Sign(digest []byte, path []uint32, cvc string) (*tapcards.SignResult, error) {
	f.cvcs = append(f.cvcs, cvc)
	f.path = path
	f.digest = digest
	if err := f.record("sign"); err != nil {
		return nil, err
	}
	return &tapcards.SignResult{}, nil
}

func (f *fakeTapsigner) Wait() (*tapcards.WaitResult, error) {
	if err := f.record("wait"); err != nil {
		return nil, err
	}
	return &tapcards.WaitResult{Success: true}, nil
}

type testApp struct {
	*App
	prompter *countingPrompter
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	located  int
}

// newTestApp returns an App whose locator hands out handle. No config file is
// read since the config home points at an empty directory.
func newTestApp(t *testing.T, handle Handle) *testApp {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	a := &testApp{
		prompter: &countingPrompter{cvc: "123456"},
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
	}

	a.App = &App{
		Locate: func(Config) (Handle, func(), error) {
			a.located++
			return handle, func() {}, nil
		},
		Prompter: a.prompter,
		Rand:     &sequenceReader{},
		Stdout:   a.stdout,
		Stderr:   a.stderr,
	}

	return a
}
