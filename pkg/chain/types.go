package chain

import (
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"
)

// TipSetKey identifies a tipset by the CIDs of its blocks.
type TipSetKey []cid.Cid

// TipSet is the part of a tipset the issuer cares about.
type TipSet struct {
	Cids   []cid.Cid      `json:"Cids"`
	Height abi.ChainEpoch `json:"Height"`
}

// Key returns the key used to address state as of this tipset.
func (ts *TipSet) Key() TipSetKey {
	return ts.Cids
}

// MinerInfo holds the control addresses of a miner actor.
//
// Addresses are kept as strings so an empty value can be told apart from a malformed one.
type MinerInfo struct {
	Owner  string `json:"Owner"`
	Worker string `json:"Worker"`
}

// BeaconEntry is a drand round as recorded on chain.
type BeaconEntry struct {
	Round uint64 `json:"Round"`
	Data  []byte `json:"Data"`
}
