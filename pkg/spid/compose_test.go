package spid_test

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/internal/testabilities"
	"github.com/ribasushi/go-fil-spid/pkg/spid"
	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	beacon := testabilities.BeaconFor(1_000_000)

	tests := map[string]struct {
		payload []byte
	}{
		"no payload": {
			payload: nil,
		},
		"single byte payload": {
			payload: []byte{0x2a},
		},
		"maximum payload": {
			payload: bytes.Repeat([]byte{0xff}, constants.MaxPayloadSize),
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			// when:
			msg := spid.Compose(beacon, test.payload)

			// then:
			assert.Len(t, msg, 3+96+len(test.payload))
			assert.Equal(t, []byte("   "), msg[:3], "message should start with the pad")
			assert.Equal(t, beacon, msg[3:99], "beacon should follow the pad")
			assert.Equal(t, len(test.payload), len(msg[99:]))
			assert.True(t, bytes.Equal(test.payload, msg[99:]), "payload should close the message")
		})
	}
}

func TestComposeDoesNotAliasInputs(t *testing.T) {
	// given:
	beacon := testabilities.BeaconFor(42)
	payload := []byte("payload")

	// when:
	msg := spid.Compose(beacon, payload)
	msg[3] ^= 0xff
	msg[len(msg)-1] ^= 0xff

	// then:
	assert.Equal(t, testabilities.BeaconFor(42), beacon)
	assert.Equal(t, []byte("payload"), payload)
}

func TestBeaconEncodingWidth(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(testabilities.BeaconFor(1_000_000))

	assert.Len(t, encoded, 128)
	assert.NotContains(t, encoded, "=")
}

// TestComposeConcatenation verifies the composed message splits back into its parts.
// Property: Compose(b, p) == PAD || b || p
func TestComposeConcatenation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("message is pad, beacon and payload concatenated", prop.ForAll(
		func(epoch int64, payload []byte) bool {
			beacon := testabilities.BeaconFor(abi.ChainEpoch(epoch))
			msg := spid.Compose(beacon, payload)

			return len(msg) == len(constants.SignaturePad)+constants.BeaconEntrySize+len(payload) &&
				string(msg[:3]) == constants.SignaturePad &&
				bytes.Equal(msg[3:99], beacon) &&
				bytes.Equal(msg[99:], payload)
		},
		gen.Int64Range(0, 10_000_000),
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
