// Package chain describes the chain daemon operations needed to issue a FIL-SPID credential.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/crypto"
)

// API is the subset of the full node API the issuer talks to.
//
// A nil result together with a nil error means the daemon answered with no value
// (null tipset, unknown miner, beacon not yet relayed); interpretation is left to the caller.
type API interface {
	// ChainGetTipSetByHeight returns the tipset at height, or the nearest one below it on null rounds.
	ChainGetTipSetByHeight(ctx context.Context, height abi.ChainEpoch) (*TipSet, error)

	// StateMinerInfo returns the miner actor info of provider as of the given tipset.
	StateMinerInfo(ctx context.Context, provider address.Address, tsk TipSetKey) (*MinerInfo, error)

	// StateGetBeaconEntry returns the beacon entry recorded for epoch.
	StateGetBeaconEntry(ctx context.Context, epoch abi.ChainEpoch) (*BeaconEntry, error)

	// WalletSign signs msg with the key behind signer, the key itself never leaves the daemon.
	WalletSign(ctx context.Context, signer address.Address, msg []byte) (*crypto.Signature, error)
}

var (
	// ErrUnavailable is returned when the daemon could not be reached or did not answer in time.
	ErrUnavailable = errors.New("chain daemon unavailable")

	// ErrMalformedResponse is returned when the daemon answered with something that can not be decoded.
	ErrMalformedResponse = errors.New("malformed chain daemon response")
)

// RPCError is an application level error reported by the daemon.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
