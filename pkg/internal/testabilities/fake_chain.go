package testabilities

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"slices"
	"sync"
	"testing"

	primitives "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/crypto"
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/ribasushi/go-fil-spid/pkg/chain"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/internal/testabilities/testproviders"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

// Short names of the chain.API methods, as recorded in ChainCall.Method.
const (
	MethodChainGetTipSetByHeight = "ChainGetTipSetByHeight"
	MethodStateMinerInfo         = "StateMinerInfo"
	MethodStateGetBeaconEntry    = "StateGetBeaconEntry"
	MethodWalletSign             = "WalletSign"
)

// ChainCall is a single call received by the FakeChain.
type ChainCall struct {
	Method    string
	Height    abi.ChainEpoch
	Provider  address.Address
	TipSetKey chain.TipSetKey
	Signer    address.Address
	Message   []byte
}

// IssuedSignature is a signature produced by the FakeChain wallet.
type IssuedSignature struct {
	Signer    address.Address
	Message   []byte
	Signature *primitives.Signature
	PublicKey *primitives.PublicKey
}

type failure struct {
	err error
	// remaining number of failing calls, negative means forever
	remaining int
}

// FakeChain is an in-memory chain daemon.
// By default every height has a tipset and every epoch has a BeaconFor entry,
// providers and wallet keys have to be registered explicitly.
type FakeChain struct {
	testing.TB

	mu             sync.Mutex
	workers        map[address.Address]string
	keys           map[address.Address]*primitives.PrivateKey
	nullTipSets    map[abi.ChainEpoch]bool
	beacons        map[abi.ChainEpoch][]byte
	missingBeacons map[abi.ChainEpoch]bool
	failures       map[string]*failure
	hanging        map[string]bool
	calls          []ChainCall
	signatures     []IssuedSignature
}

var _ chain.API = (*FakeChain)(nil)

func NewFakeChain(t testing.TB) *FakeChain {
	return &FakeChain{
		TB:             t,
		workers:        make(map[address.Address]string),
		keys:           make(map[address.Address]*primitives.PrivateKey),
		nullTipSets:    make(map[abi.ChainEpoch]bool),
		beacons:        make(map[abi.ChainEpoch][]byte),
		missingBeacons: make(map[abi.ChainEpoch]bool),
		failures:       make(map[string]*failure),
		hanging:        make(map[string]bool),
	}
}

// WithProvider registers the provider miner actor together with its worker key in the wallet.
func (c *FakeChain) WithProvider(provider testproviders.Provider) *FakeChain {
	c.Helper()
	worker := provider.WorkerAddress(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.workers[provider.Address(c)] = worker.String()
	c.keys[worker] = provider.PrivateKey(c)
	return c
}

// WithMinerInfo makes the miner info of provider report worker verbatim, without any wallet key.
func (c *FakeChain) WithMinerInfo(provider address.Address, worker string) *FakeChain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workers[provider] = worker
	return c
}

// WithoutWalletKey removes the worker key of provider from the wallet.
func (c *FakeChain) WithoutWalletKey(provider testproviders.Provider) *FakeChain {
	c.Helper()
	worker := provider.WorkerAddress(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, worker)
	return c
}

// WithNullTipSetAt makes the tipset lookup at height return null.
func (c *FakeChain) WithNullTipSetAt(height abi.ChainEpoch) *FakeChain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nullTipSets[height] = true
	return c
}

// WithBeaconAt overrides the beacon entry data recorded for epoch.
func (c *FakeChain) WithBeaconAt(epoch abi.ChainEpoch, data []byte) *FakeChain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beacons[epoch] = data
	return c
}

// WithoutBeaconAt makes the beacon lookup for epoch return null.
func (c *FakeChain) WithoutBeaconAt(epoch abi.ChainEpoch) *FakeChain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missingBeacons[epoch] = true
	return c
}

// FailingWith makes every call of method fail with err.
func (c *FakeChain) FailingWith(method string, err error) *FakeChain {
	return c.FailingTimes(method, -1, err)
}

// FailingTimes makes the next n calls of method fail with err.
func (c *FakeChain) FailingTimes(method string, n int, err error) *FakeChain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[method] = &failure{err: err, remaining: n}
	return c
}

// HangingOn makes calls of method block until their context is done.
func (c *FakeChain) HangingOn(method string) *FakeChain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hanging[method] = true
	return c
}

// Calls returns the calls received so far, in order.
func (c *FakeChain) Calls() []ChainCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

// Signatures returns the signatures produced so far, in order.
func (c *FakeChain) Signatures() []IssuedSignature {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.signatures)
}

func (c *FakeChain) ChainGetTipSetByHeight(ctx context.Context, height abi.ChainEpoch) (*chain.TipSet, error) {
	if err := c.enter(ctx, ChainCall{Method: MethodChainGetTipSetByHeight, Height: height}); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nullTipSets[height] {
		return nil, nil
	}

	return &chain.TipSet{
		Cids:   []cid.Cid{BlockCID(c, height)},
		Height: height,
	}, nil
}

func (c *FakeChain) StateMinerInfo(ctx context.Context, provider address.Address, tsk chain.TipSetKey) (*chain.MinerInfo, error) {
	if err := c.enter(ctx, ChainCall{Method: MethodStateMinerInfo, Provider: provider, TipSetKey: tsk}); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	worker, ok := c.workers[provider]
	if !ok {
		return nil, &chain.RPCError{Code: 1, Message: fmt.Sprintf("failed to load miner actor: load state tree: actor not found: %s", provider)}
	}

	return &chain.MinerInfo{
		Owner:  worker,
		Worker: worker,
	}, nil
}

func (c *FakeChain) StateGetBeaconEntry(ctx context.Context, epoch abi.ChainEpoch) (*chain.BeaconEntry, error) {
	if err := c.enter(ctx, ChainCall{Method: MethodStateGetBeaconEntry, Height: epoch}); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.missingBeacons[epoch] {
		return nil, nil
	}

	data, ok := c.beacons[epoch]
	if !ok {
		data = BeaconFor(epoch)
	}

	return &chain.BeaconEntry{
		Round: uint64(epoch),
		Data:  data,
	}, nil
}

func (c *FakeChain) WalletSign(ctx context.Context, signer address.Address, msg []byte) (*crypto.Signature, error) {
	if err := c.enter(ctx, ChainCall{Method: MethodWalletSign, Signer: signer, Message: slices.Clone(msg)}); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	key, ok := c.keys[signer]
	if !ok {
		return nil, &chain.RPCError{Code: 1, Message: fmt.Sprintf("failed to find private key of %s: key info not found", signer)}
	}

	digest := blake2b.Sum256(msg)
	sig, err := key.Sign(digest[:])
	require.NoError(c, err, "fake wallet failed to sign: invalid test setup")

	c.signatures = append(c.signatures, IssuedSignature{
		Signer:    signer,
		Message:   slices.Clone(msg),
		Signature: sig,
		PublicKey: key.PubKey(),
	})

	return &crypto.Signature{
		Type: crypto.SigTypeSecp256k1,
		Data: sig.Serialize(),
	}, nil
}

// enter records the call and applies the configured failures.
func (c *FakeChain) enter(ctx context.Context, call ChainCall) error {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	hang := c.hanging[call.Method]

	var err error
	if f, ok := c.failures[call.Method]; ok && f.remaining != 0 {
		err = f.err
		if f.remaining > 0 {
			f.remaining--
		}
	}
	c.mu.Unlock()

	if hang {
		<-ctx.Done()
		return fmt.Errorf("%w: %s: %w", chain.ErrUnavailable, call.Method, ctx.Err())
	}

	return err
}

// BeaconFor returns the deterministic beacon entry data the FakeChain records for epoch.
func BeaconFor(epoch abi.ChainEpoch) []byte {
	data := make([]byte, 0, constants.BeaconEntrySize)

	seed := make([]byte, 8)
	binary.BigEndian.PutUint64(seed, uint64(epoch))
	for counter := byte(0); len(data) < constants.BeaconEntrySize; counter++ {
		sum := sha256.Sum256(append(seed, counter))
		data = append(data, sum[:]...)
	}

	return data[:constants.BeaconEntrySize]
}

// BlockCID returns the CID of the single block the FakeChain puts in the tipset at height.
func BlockCID(t testing.TB, height abi.ChainEpoch) cid.Cid {
	t.Helper()

	prefix := cid.Prefix{
		Version:  1,
		Codec:    cid.DagCBOR,
		MhType:   mh.SHA2_256,
		MhLength: -1,
	}

	c, err := prefix.Sum(fmt.Appendf(nil, "fake block at height %d", height))
	require.NoError(t, err, "failed to build block CID: invalid test setup")
	return c
}
