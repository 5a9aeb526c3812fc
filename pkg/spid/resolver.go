package spid

import (
	"context"
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ribasushi/go-fil-spid/pkg/chain"
)

// FinalizedTipSet returns the tipset FinalityLag epochs behind current.
//
// Identity is never resolved against the head: a worker key rotation has to be
// final before it can be used to impersonate a provider.
func FinalizedTipSet(ctx context.Context, api chain.API, current abi.ChainEpoch) (*chain.TipSet, error) {
	height := FinalizedEpoch(current)
	if height < 0 {
		return nil, fmt.Errorf("%w: epoch %d has no finalized tipset yet", ErrChainEmptyResult, current)
	}

	ts, err := api.ChainGetTipSetByHeight(ctx, height)
	if err != nil {
		return nil, classifyChainError(fmt.Sprintf("tipset at height %d", height), err, nil, nil)
	}

	if ts == nil || len(ts.Cids) == 0 {
		return nil, fmt.Errorf("%w: no tipset at height %d", ErrChainEmptyResult, height)
	}

	return ts, nil
}

// ResolveWorker returns the worker key of provider as of ts.
func ResolveWorker(ctx context.Context, api chain.API, provider address.Address, ts *chain.TipSet) (address.Address, error) {
	op := fmt.Sprintf("miner info of %s at height %d", provider, ts.Height)

	info, err := api.StateMinerInfo(ctx, provider, ts.Key())
	if err != nil {
		return address.Undef, classifyChainError(op, err, ErrUnknownProvider, unknownActorMarkers)
	}

	if info == nil || info.Worker == "" {
		return address.Undef, fmt.Errorf("%w: %s: no worker key", ErrUnknownProvider, op)
	}

	worker, err := address.NewFromString(info.Worker)
	if err != nil {
		return address.Undef, fmt.Errorf("%w: %s: worker %q: %w", ErrProtocolViolation, op, info.Worker, err)
	}

	return worker, nil
}
