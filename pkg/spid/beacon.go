package spid

import (
	"context"
	"fmt"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ribasushi/go-fil-spid/pkg/chain"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
)

// BeaconEntry returns the randomness recorded for the current, non finalized, epoch.
// The entry is what confines a signature to a single epoch.
func BeaconEntry(ctx context.Context, api chain.API, current abi.ChainEpoch) ([]byte, error) {
	op := fmt.Sprintf("beacon entry for epoch %d", current)

	entry, err := api.StateGetBeaconEntry(ctx, current)
	if err != nil {
		return nil, classifyChainError(op, err, nil, nil)
	}

	if entry == nil || len(entry.Data) == 0 {
		return nil, fmt.Errorf("%w: %s: not recorded yet", ErrBeaconUnavailable, op)
	}

	// the composed message relies on the fixed width, see Compose
	if len(entry.Data) != constants.BeaconEntrySize {
		return nil, fmt.Errorf("%w: %s: got %d bytes, expected %d", ErrProtocolViolation, op, len(entry.Data), constants.BeaconEntrySize)
	}

	return entry.Data, nil
}
