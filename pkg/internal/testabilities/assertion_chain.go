package testabilities

import (
	"slices"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/crypto"
	"github.com/ribasushi/go-fil-spid/pkg/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

type ChainAssertion interface {
	HasNoCalls() ChainAssertion
	// HasCallSequence checks the methods called, in order.
	HasCallSequence(methods ...string) ChainAssertion
	QueriedTipSetAt(height abi.ChainEpoch) ChainAssertion
	QueriedMinerInfoAt(provider address.Address, height abi.ChainEpoch) ChainAssertion
	QueriedBeaconAt(epoch abi.ChainEpoch) ChainAssertion
	NeverSigned() ChainAssertion
	// SignedMessage checks the last signature was made by worker over msg.
	SignedMessage(worker address.Address, msg []byte) ChainAssertion
	// SignatureVerifies checks sig, in binary form, was produced by the fake wallet and verifies against its key.
	SignatureVerifies(sig []byte) ChainAssertion
}

type chainAssertion struct {
	testing.TB

	fake *FakeChain
}

func NewChainAssertion(t testing.TB, fake *FakeChain) ChainAssertion {
	t.Helper()
	require.NotNil(t, fake, "fake chain should not be nil")

	return &chainAssertion{
		TB:   t,
		fake: fake,
	}
}

func (a *chainAssertion) HasNoCalls() ChainAssertion {
	a.Helper()
	assert.Empty(a, a.fake.Calls(), "chain should not be called")
	return a
}

func (a *chainAssertion) HasCallSequence(methods ...string) ChainAssertion {
	a.Helper()
	called := make([]string, 0, len(methods))
	for _, call := range a.fake.Calls() {
		called = append(called, call.Method)
	}
	assert.Equal(a, methods, called, "chain calls should match")
	return a
}

func (a *chainAssertion) QueriedTipSetAt(height abi.ChainEpoch) ChainAssertion {
	a.Helper()
	heights := a.heights(MethodChainGetTipSetByHeight)
	assert.Containsf(a, heights, height, "tipset should be queried at height %d, queried at %v", height, heights)
	return a
}

func (a *chainAssertion) QueriedMinerInfoAt(provider address.Address, height abi.ChainEpoch) ChainAssertion {
	a.Helper()
	expected := chain.TipSetKey{BlockCID(a, height)}

	idx := slices.IndexFunc(a.fake.Calls(), func(call ChainCall) bool {
		return call.Method == MethodStateMinerInfo && call.Provider == provider
	})
	if assert.GreaterOrEqualf(a, idx, 0, "miner info of %s should be queried", provider) {
		assert.Equal(a, expected, a.fake.Calls()[idx].TipSetKey, "miner info should be queried at the tipset of height %d", height)
	}
	return a
}

func (a *chainAssertion) QueriedBeaconAt(epoch abi.ChainEpoch) ChainAssertion {
	a.Helper()
	epochs := a.heights(MethodStateGetBeaconEntry)
	assert.Containsf(a, epochs, epoch, "beacon should be queried for epoch %d, queried for %v", epoch, epochs)
	return a
}

func (a *chainAssertion) NeverSigned() ChainAssertion {
	a.Helper()
	assert.Empty(a, a.fake.Signatures(), "wallet should not sign anything")
	return a
}

func (a *chainAssertion) SignedMessage(worker address.Address, msg []byte) ChainAssertion {
	a.Helper()
	signatures := a.fake.Signatures()
	require.NotEmpty(a, signatures, "wallet should sign a message")

	last := signatures[len(signatures)-1]
	assert.Equal(a, worker, last.Signer, "message should be signed by the worker key")
	assert.Equal(a, msg, last.Message, "signed message should match")
	return a
}

func (a *chainAssertion) SignatureVerifies(sig []byte) ChainAssertion {
	a.Helper()

	var decoded crypto.Signature
	require.NoError(a, decoded.UnmarshalBinary(sig), "signature should be in binary form")
	assert.Equal(a, crypto.SigTypeSecp256k1, decoded.Type, "signature type should match")

	idx := slices.IndexFunc(a.fake.Signatures(), func(issued IssuedSignature) bool {
		return slices.Equal(issued.Signature.Serialize(), decoded.Data)
	})
	require.GreaterOrEqual(a, idx, 0, "signature should be produced by the wallet")

	issued := a.fake.Signatures()[idx]
	digest := blake2b.Sum256(issued.Message)
	assert.True(a, issued.Signature.Verify(digest[:], issued.PublicKey), "signature should verify against the worker key")
	return a
}

func (a *chainAssertion) heights(method string) []abi.ChainEpoch {
	var heights []abi.ChainEpoch
	for _, call := range a.fake.Calls() {
		if call.Method == method {
			heights = append(heights, call.Height)
		}
	}
	return heights
}
