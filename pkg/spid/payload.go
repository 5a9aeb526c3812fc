package spid

import (
	"fmt"
	"io"

	"github.com/ribasushi/go-fil-spid/pkg/constants"
)

// ReadPayload reads the optional payload from r, at most MaxPayloadSize bytes.
// Longer input is truncated and reported, empty input or a nil reader means no payload.
func ReadPayload(r io.Reader) (payload []byte, truncated bool, err error) {
	if r == nil {
		return nil, false, nil
	}

	buf, err := io.ReadAll(io.LimitReader(r, constants.MaxPayloadSize+1))
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to read payload: %w", ErrInvalidInput, err)
	}

	switch {
	case len(buf) == 0:
		return nil, false, nil
	case len(buf) > constants.MaxPayloadSize:
		return buf[:constants.MaxPayloadSize], true, nil
	default:
		return buf, false, nil
	}
}
