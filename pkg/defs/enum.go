package defs

import (
	"fmt"
	"strings"
)

func parseEnumCaseInsensitive[T ~string](value string, allowed ...T) (T, error) {
	value = strings.TrimSpace(value)
	for _, candidate := range allowed {
		if strings.EqualFold(value, string(candidate)) {
			return candidate, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("invalid value %q, expected one of %v", value, allowed)
}
