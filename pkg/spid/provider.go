package spid

import (
	"fmt"
	"regexp"

	"github.com/filecoin-project/go-address"
)

var providerIDPattern = regexp.MustCompile(`^f0[0-9]+$`)

// ParseProviderID validates a storage provider id such as "f01000" and returns its address.
func ParseProviderID(id string) (address.Address, error) {
	if !providerIDPattern.MatchString(id) {
		return address.Undef, fmt.Errorf("%w: storage provider id %q does not match f0<digits>", ErrInvalidInput, id)
	}

	addr, err := address.NewFromString(id)
	if err != nil {
		return address.Undef, fmt.Errorf("%w: storage provider id %q: %w", ErrInvalidInput, id, err)
	}

	return addr, nil
}
