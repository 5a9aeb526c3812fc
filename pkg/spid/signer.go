package spid

import (
	"context"
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/ribasushi/go-fil-spid/pkg/chain"
)

// Sign has the daemon wallet sign msg with worker.
// The result is the binary signature form: one type byte followed by the signature data.
func Sign(ctx context.Context, api chain.API, worker address.Address, msg []byte) ([]byte, error) {
	op := fmt.Sprintf("signing with %s", worker)

	sig, err := api.WalletSign(ctx, worker, msg)
	if err != nil {
		return nil, classifyChainError(op, err, ErrSigningUnavailable, missingKeyMarkers)
	}

	if sig == nil {
		return nil, fmt.Errorf("%w: %s: wallet returned no signature", ErrSigningUnavailable, op)
	}

	if len(sig.Data) == 0 {
		return nil, fmt.Errorf("%w: %s: empty signature", ErrProtocolViolation, op)
	}

	raw, err := sig.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProtocolViolation, op, err)
	}

	return raw, nil
}
