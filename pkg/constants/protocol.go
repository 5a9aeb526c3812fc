package constants

import (
	"time"

	"github.com/filecoin-project/go-state-types/abi"
)

// Chain clock parameters of Filecoin mainnet.
const (
	// GenesisUnix is the unix timestamp of mainnet epoch 0.
	GenesisUnix int64 = 1598306400

	// EpochSeconds is the duration of a single epoch.
	EpochSeconds int64 = 30

	// FinalityLag is the number of epochs after which a tipset is treated as irreversible.
	FinalityLag abi.ChainEpoch = 900
)

// Signed message layout.
const (
	// SignaturePad prefixes every signed message. Three spaces never start a valid CBOR item,
	// so a signature over the message can not be passed off as one over a chain structure.
	SignaturePad = "   "

	// BeaconEntrySize is the exact size of a drand beacon entry as recorded on chain.
	BeaconEntrySize = 96

	// MaxPayloadSize caps the caller supplied payload, longer input is truncated.
	MaxPayloadSize = 2048
)

// DefaultRPCTimeout bounds every single call to the chain daemon.
const DefaultRPCTimeout = 5 * time.Second
