package spid_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/spid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPayload(t *testing.T) {
	tests := map[string]struct {
		input             io.Reader
		expectedSize      int
		expectedTruncated bool
	}{
		"nil reader": {
			input:        nil,
			expectedSize: 0,
		},
		"empty input": {
			input:        strings.NewReader(""),
			expectedSize: 0,
		},
		"short input": {
			input:        strings.NewReader("digest"),
			expectedSize: 6,
		},
		"exactly the maximum": {
			input:        bytes.NewReader(bytes.Repeat([]byte{'a'}, constants.MaxPayloadSize)),
			expectedSize: constants.MaxPayloadSize,
		},
		"one byte over the maximum": {
			input:             bytes.NewReader(bytes.Repeat([]byte{'a'}, constants.MaxPayloadSize+1)),
			expectedSize:      constants.MaxPayloadSize,
			expectedTruncated: true,
		},
		"far over the maximum": {
			input:             bytes.NewReader(bytes.Repeat([]byte{'a'}, 10*constants.MaxPayloadSize)),
			expectedSize:      constants.MaxPayloadSize,
			expectedTruncated: true,
		},
		"input arriving in single bytes": {
			input:        iotest.OneByteReader(strings.NewReader("slow input")),
			expectedSize: 10,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			// when:
			payload, truncated, err := spid.ReadPayload(test.input)

			// then:
			require.NoError(t, err)
			assert.Len(t, payload, test.expectedSize)
			assert.Equal(t, test.expectedTruncated, truncated)
		})
	}
}

func TestReadPayloadKeepsPrefix(t *testing.T) {
	// given:
	input := make([]byte, constants.MaxPayloadSize+100)
	for i := range input {
		input[i] = byte(i)
	}

	// when:
	payload, truncated, err := spid.ReadPayload(bytes.NewReader(input))

	// then:
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Equal(t, input[:constants.MaxPayloadSize], payload)
}

func TestReadPayloadFailure(t *testing.T) {
	// given:
	broken := iotest.ErrReader(errors.New("stdin closed"))

	// when:
	_, _, err := spid.ReadPayload(broken)

	// then:
	require.ErrorIs(t, err, spid.ErrInvalidInput)
	assert.ErrorContains(t, err, "stdin closed")
}
