package spid_test

import (
	"strings"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/ribasushi/go-fil-spid/pkg/spid"
	"github.com/stretchr/testify/require"
)

// FuzzParseProviderID performs fuzz testing on ParseProviderID to ensure
// arbitrary command line input is either rejected as invalid input or yields
// an ID address.
func FuzzParseProviderID(f *testing.F) {
	// Seed corpus with valid ids
	f.Add("f01000")
	f.Add("f012345")
	f.Add("f00")

	// Seed corpus with invalid ids
	f.Add("")
	f.Add("12345")
	f.Add("f0abc")
	f.Add("t01000")
	f.Add("f1abjxfbp274xpdqcpuaykwkfb43omjotacm2p3za")
	f.Add("f01000;f02000")
	f.Add("f018446744073709551616") // uint64 overflow
	f.Add("f0\n1000")
	f.Add("f000012") // leading zeros

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := spid.ParseProviderID(input)
		if err != nil {
			require.ErrorIs(t, err, spid.ErrInvalidInput)
			return
		}

		require.Equal(t, address.ID, addr.Protocol(), "accepted id should be an ID address")
		require.False(t, strings.ContainsAny(input, ";: \t\r\n"), "accepted id should never break the header")
	})
}
