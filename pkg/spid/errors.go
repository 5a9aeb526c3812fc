package spid

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ribasushi/go-fil-spid/pkg/chain"
)

// Every issuance failure wraps exactly one of these, test with errors.Is.
var (
	// ErrInvalidInput is returned for a malformed provider id, a time before genesis or an unreadable payload.
	ErrInvalidInput = errors.New("invalid input")

	// ErrChainUnavailable is returned when the daemon could not be reached or timed out.
	ErrChainUnavailable = errors.New("chain unavailable")

	// ErrChainRPC is returned when the daemon reported an application level error.
	ErrChainRPC = errors.New("chain rpc error")

	// ErrChainEmptyResult is returned when no tipset exists at the finalized height.
	ErrChainEmptyResult = errors.New("chain returned no result")

	// ErrUnknownProvider is returned when the storage provider has no resolvable worker key.
	ErrUnknownProvider = errors.New("unknown storage provider")

	// ErrBeaconUnavailable is returned when the beacon entry for the current epoch is not recorded yet.
	ErrBeaconUnavailable = errors.New("beacon entry unavailable")

	// ErrProtocolViolation is returned when the daemon answered with data breaking a fixed format.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrSigningUnavailable is returned when the wallet can not sign with the worker key.
	ErrSigningUnavailable = errors.New("signing unavailable")
)

// Fragments of Lotus error messages which carry more meaning than a generic RPC failure.
var (
	unknownActorMarkers = []string{"actor not found", "resolution lookup failed"}
	missingKeyMarkers   = []string{"key info not found", "key not found", "wallet is locked"}
)

// classifyChainError maps a collaborator failure of op onto the error taxonomy.
// RPC errors mentioning one of markers are reported as notFound instead of ErrChainRPC.
func classifyChainError(op string, err error, notFound error, markers []string) error {
	var rpcErr *chain.RPCError

	switch {
	case errors.Is(err, chain.ErrMalformedResponse):
		return fmt.Errorf("%w: %s: %w", ErrProtocolViolation, op, err)
	case errors.As(err, &rpcErr):
		if notFound != nil && containsAny(rpcErr.Message, markers) {
			return fmt.Errorf("%w: %s: %w", notFound, op, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrChainRPC, op, err)
	case errors.Is(err, chain.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %w", ErrChainUnavailable, op, err)
	default:
		// anything else coming out of a collaborator is treated as a transport level failure
		return fmt.Errorf("%w: %s: %w", ErrChainUnavailable, op, err)
	}
}

func containsAny(message string, markers []string) bool {
	message = strings.ToLower(message)
	for _, marker := range markers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

func isTransient(err error) bool {
	return errors.Is(err, ErrChainUnavailable) || errors.Is(err, ErrBeaconUnavailable)
}
