package spid_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/spid"
)

// about 95 years of epochs
const maxOffsetSeconds = 3_000_000_000

// TestEpochFormula verifies the epoch is the number of whole epochs elapsed since genesis.
// Property: EpochAt(genesis + s) == s / 30
func TestEpochFormula(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("epoch is elapsed seconds divided by epoch duration", prop.ForAll(
		func(offset int64) bool {
			epoch, err := spid.EpochAt(time.Unix(constants.GenesisUnix+offset, 0))
			if err != nil {
				return false
			}
			return int64(epoch) == offset/constants.EpochSeconds
		},
		gen.Int64Range(0, maxOffsetSeconds),
	))

	properties.TestingRun(t)
}

// TestEpochMonotonicity verifies the epoch never goes back as time moves forward.
// Property: t1 <= t2 => EpochAt(t1) <= EpochAt(t2)
func TestEpochMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("epoch is monotonic in time", prop.ForAll(
		func(offset, delta int64) bool {
			earlier, err1 := spid.EpochAt(time.Unix(constants.GenesisUnix+offset, 0))
			later, err2 := spid.EpochAt(time.Unix(constants.GenesisUnix+offset+delta, 0))
			if err1 != nil || err2 != nil {
				return false
			}
			return earlier <= later
		},
		gen.Int64Range(0, maxOffsetSeconds),
		gen.Int64Range(0, 3600),
	))

	properties.TestingRun(t)
}
