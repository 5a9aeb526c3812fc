package testabilities

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/go-softwarelab/common/pkg/to"
	"github.com/ribasushi/go-fil-spid/pkg/chain"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/spid"
	"github.com/stretchr/testify/require"
)

// DefaultEpoch is the current epoch of the fixture clock unless AtEpoch says otherwise.
const DefaultEpoch abi.ChainEpoch = 1_000_000

type SPIDTestsFixture interface {
	// Chain returns the fake chain daemon shared by everything built from this fixture.
	Chain() *FakeChain
	AtEpoch(epoch abi.ChainEpoch) SPIDTestsFixture
	Clock() func() time.Time
	Issuer(opts ...func(*spid.Options)) *spid.Issuer
	IssuerFor(api chain.API, opts ...func(*spid.Options)) *spid.Issuer
	RPCServer() RPCServerFixture
	Server() ServerFixture
	Client() ClientFixture
	Logger() *slog.Logger
}

type SPIDTestsAssertion interface {
	Header(header string) HeaderAssertion
	Credential(credential *spid.Credential) HeaderAssertion
	Chain(fake *FakeChain) ChainAssertion
	Request(*http.Request) RequestAssertion
}

func New(t testing.TB, opts ...func(*Options)) (SPIDTestsFixture, SPIDTestsAssertion) {
	return Given(t, opts...), Then(t)
}

func Given(t testing.TB, opts ...func(*Options)) SPIDTestsFixture {
	f := &spidTestsFixture{
		TB:    t,
		epoch: DefaultEpoch,
	}

	options := to.OptionsWithDefault(Options{
		logger: NewTestLogger(f),
	}, opts...)

	f.logger = options.logger
	f.chain = NewFakeChain(f)
	f.serverFixture = NewServerFixture(f)
	f.rpcServerFixture = NewRPCServerFixture(f, f.chain)

	return f
}

func Then(t testing.TB) SPIDTestsAssertion {
	return &spidTestsAssertion{
		TB: t,
	}
}

type spidTestsFixture struct {
	testing.TB
	chain            *FakeChain
	serverFixture    ServerFixture
	rpcServerFixture RPCServerFixture
	epoch            abi.ChainEpoch
	logger           *slog.Logger
}

func (f *spidTestsFixture) Chain() *FakeChain {
	return f.chain
}

func (f *spidTestsFixture) AtEpoch(epoch abi.ChainEpoch) SPIDTestsFixture {
	f.epoch = epoch
	return f
}

// Clock returns a clock standing in the middle of the fixture epoch.
func (f *spidTestsFixture) Clock() func() time.Time {
	now := TimeAtEpoch(f.epoch).Add(time.Duration(constants.EpochSeconds) * time.Second / 2)
	return func() time.Time {
		return now
	}
}

func (f *spidTestsFixture) Issuer(opts ...func(*spid.Options)) *spid.Issuer {
	return f.IssuerFor(f.chain, opts...)
}

func (f *spidTestsFixture) IssuerFor(api chain.API, opts ...func(*spid.Options)) *spid.Issuer {
	defaults := []func(*spid.Options){
		spid.WithLogger(f.logger),
		spid.WithClock(f.Clock()),
	}
	return spid.NewIssuer(api, append(defaults, opts...)...)
}

func (f *spidTestsFixture) RPCServer() RPCServerFixture {
	return f.rpcServerFixture
}

func (f *spidTestsFixture) Server() ServerFixture {
	return f.serverFixture
}

func (f *spidTestsFixture) Client() ClientFixture {
	return newClientFixture(f, f.Issuer(), WithClientLogger(f.logger))
}

func (f *spidTestsFixture) Logger() *slog.Logger {
	return f.logger
}

// TimeAtEpoch returns the instant epoch starts at.
func TimeAtEpoch(epoch abi.ChainEpoch) time.Time {
	return time.Unix(constants.GenesisUnix+int64(epoch)*constants.EpochSeconds, 0).UTC()
}

type spidTestsAssertion struct {
	testing.TB
}

func (a *spidTestsAssertion) Header(header string) HeaderAssertion {
	return NewHeaderAssertion(a, header)
}

func (a *spidTestsAssertion) Credential(credential *spid.Credential) HeaderAssertion {
	a.Helper()
	require.NotNil(a, credential, "credential should not be nil")

	return NewHeaderAssertion(a, credential.Header())
}

func (a *spidTestsAssertion) Chain(fake *FakeChain) ChainAssertion {
	return NewChainAssertion(a, fake)
}

func (a *spidTestsAssertion) Request(request *http.Request) RequestAssertion {
	return NewRequestAssertion(a, request)
}
