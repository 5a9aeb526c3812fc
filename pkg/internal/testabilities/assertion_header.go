package testabilities

import (
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type HeaderAssertion interface {
	HasScheme() HeaderAssertion
	HasFieldCount(n int) HeaderAssertion
	HasEpoch(epoch abi.ChainEpoch) HeaderAssertion
	HasProvider(providerID string) HeaderAssertion
	HasHexSignature() HeaderAssertion
	HasSignature(signature []byte) HeaderAssertion
	HasPayload(payload []byte) HeaderAssertion
	HasNoPayload() HeaderAssertion
	// Signature returns the decoded signature field.
	Signature() []byte
}

type headerAssertion struct {
	testing.TB

	header string
	fields []string
}

func NewHeaderAssertion(t testing.TB, header string) HeaderAssertion {
	t.Helper()

	prefix := constants.AuthScheme + " "
	require.Truef(t, strings.HasPrefix(header, prefix), "header %q should start with %q", header, prefix)

	return &headerAssertion{
		TB:     t,
		header: header,
		fields: strings.Split(strings.TrimPrefix(header, prefix), constants.FieldSeparator),
	}
}

func (a *headerAssertion) HasScheme() HeaderAssertion {
	a.Helper()
	assert.Equal(a, constants.AuthScheme, strings.SplitN(a.header, " ", 2)[0], "header scheme should match")
	assert.Equal(a, 1, strings.Count(a.header, " "), "header should contain exactly one space")
	return a
}

func (a *headerAssertion) HasFieldCount(n int) HeaderAssertion {
	a.Helper()
	assert.Lenf(a, a.fields, n, "header %q should have %d fields", a.header, n)
	return a
}

func (a *headerAssertion) HasEpoch(epoch abi.ChainEpoch) HeaderAssertion {
	a.Helper()
	assert.Equal(a, strconv.FormatInt(int64(epoch), 10), a.field(0), "header epoch should match")
	return a
}

func (a *headerAssertion) HasProvider(providerID string) HeaderAssertion {
	a.Helper()
	assert.Equal(a, providerID, a.field(1), "header provider should match")
	return a
}

func (a *headerAssertion) HasHexSignature() HeaderAssertion {
	a.Helper()
	sig := a.field(2)
	assert.NotEmpty(a, sig, "header signature should not be empty")
	_, err := hex.DecodeString(sig)
	assert.NoErrorf(a, err, "header signature %q should be valid hex", sig)
	return a
}

func (a *headerAssertion) HasSignature(signature []byte) HeaderAssertion {
	a.Helper()
	assert.Equal(a, signature, a.Signature(), "header signature should match")
	return a
}

func (a *headerAssertion) HasPayload(payload []byte) HeaderAssertion {
	a.Helper()
	require.Lenf(a, a.fields, 4, "header %q should carry a payload", a.header)

	decoded, err := base64.StdEncoding.DecodeString(a.fields[3])
	require.NoErrorf(a, err, "header payload %q should be valid base64", a.fields[3])
	assert.Equal(a, payload, decoded, "header payload should match")
	return a
}

func (a *headerAssertion) HasNoPayload() HeaderAssertion {
	a.Helper()
	assert.Lenf(a, a.fields, 3, "header %q should not carry a payload", a.header)
	return a
}

func (a *headerAssertion) Signature() []byte {
	a.Helper()
	sig, err := hex.DecodeString(a.field(2))
	require.NoError(a, err, "header signature should be valid hex")
	return sig
}

func (a *headerAssertion) field(idx int) string {
	a.Helper()
	require.Greaterf(a, len(a.fields), idx, "header %q has too few fields", a.header)
	return a.fields[idx]
}
