package spid

import (
	"fmt"
	"time"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
)

// EpochAt returns the chain epoch in progress at t.
// The epoch is derived from wall clock only, it is not checked against chain liveness.
func EpochAt(t time.Time) (abi.ChainEpoch, error) {
	sinceGenesis := t.Unix() - constants.GenesisUnix
	if sinceGenesis < 0 {
		return 0, fmt.Errorf("%w: %s precedes mainnet genesis", ErrInvalidInput, t.UTC().Format(time.RFC3339))
	}

	return abi.ChainEpoch(sinceGenesis / constants.EpochSeconds), nil
}

// FinalizedEpoch returns the height whose state is trusted for identity resolution
// while current is in progress.
func FinalizedEpoch(current abi.ChainEpoch) abi.ChainEpoch {
	return current - constants.FinalityLag
}
