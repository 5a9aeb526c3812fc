package spid_test

import (
	"testing"
	"time"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/spid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochAt(t *testing.T) {
	genesis := time.Unix(constants.GenesisUnix, 0)

	tests := map[string]struct {
		at       time.Time
		expected abi.ChainEpoch
	}{
		"genesis": {
			at:       genesis,
			expected: 0,
		},
		"last second of the first epoch": {
			at:       genesis.Add(29 * time.Second),
			expected: 0,
		},
		"first second of the second epoch": {
			at:       genesis.Add(30 * time.Second),
			expected: 1,
		},
		"sub second precision is ignored": {
			at:       genesis.Add(59*time.Second + 999*time.Millisecond),
			expected: 1,
		},
		"epoch one million": {
			at:       time.Unix(1598306400+1_000_000*30, 0),
			expected: 1_000_000,
		},
		"middle of epoch one million": {
			at:       time.Unix(1598306400+1_000_000*30+15, 0),
			expected: 1_000_000,
		},
		"time zone does not matter": {
			at:       time.Unix(1598306400+30, 0).In(time.FixedZone("UTC+13", 13*3600)),
			expected: 1,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			// when:
			epoch, err := spid.EpochAt(test.at)

			// then:
			require.NoError(t, err)
			assert.Equal(t, test.expected, epoch)
		})
	}
}

func TestEpochAtBeforeGenesis(t *testing.T) {
	// given:
	beforeGenesis := time.Unix(constants.GenesisUnix-1, 0)

	// when:
	_, err := spid.EpochAt(beforeGenesis)

	// then:
	require.ErrorIs(t, err, spid.ErrInvalidInput)
}

func TestFinalizedEpoch(t *testing.T) {
	assert.Equal(t, abi.ChainEpoch(999_100), spid.FinalizedEpoch(1_000_000))
	assert.Equal(t, abi.ChainEpoch(0), spid.FinalizedEpoch(constants.FinalityLag))
	assert.Equal(t, abi.ChainEpoch(-1), spid.FinalizedEpoch(constants.FinalityLag-1))
}
