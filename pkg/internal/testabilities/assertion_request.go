package testabilities

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RequestAssertion checks a request as received by the relying service.
type RequestAssertion interface {
	HasMethod(method string) RequestAssertion
	HasPath(path string) RequestAssertion
	HasHeadersContaining(headers map[string]string) RequestAssertion
	HasBody(expectedBody string) RequestAssertion
	// HasCredential checks the Authorization header and returns an assertion on its value.
	HasCredential() HeaderAssertion
	HasCredentialIn(headerName string) HeaderAssertion
}

type requestAssertion struct {
	testing.TB

	request *http.Request
}

func NewRequestAssertion(t testing.TB, request *http.Request) RequestAssertion {
	return &requestAssertion{
		TB:      t,
		request: request,
	}
}

func (a *requestAssertion) HasMethod(httpMethod string) RequestAssertion {
	a.Helper()
	if httpMethod == "" {
		httpMethod = http.MethodGet
	}
	assert.Equalf(a, httpMethod, a.request.Method, "Expect to receive %s request", httpMethod)
	return a
}

func (a *requestAssertion) HasPath(path string) RequestAssertion {
	a.Helper()
	if path == "" {
		// server will add "/" to path automatically so the assertion must adjust to this behavior.
		path = "/"
	}
	assert.Equal(a, path, a.request.URL.Path, "request path received by handler should match")
	return a
}

func (a *requestAssertion) HasHeadersContaining(headers map[string]string) RequestAssertion {
	a.Helper()
	for headerName, headerValue := range headers {
		assert.Equalf(a, headerValue, a.request.Header.Get(headerName), "Header %s value received by handler should match", headerName)
	}

	return a
}

func (a *requestAssertion) HasBody(expectedBody string) RequestAssertion {
	a.Helper()
	bodyBytes, err := io.ReadAll(a.request.Body)
	require.NoError(a, err, "failed to read request body: invalid test setup")
	// ensure the body is still readable by the handler.
	a.request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	if expectedBody == "" {
		assert.Empty(a, bodyBytes, "request body should be empty")
	} else {
		assert.Equal(a, expectedBody, string(bodyBytes), "request body should match")
	}
	return a
}

func (a *requestAssertion) HasCredential() HeaderAssertion {
	a.Helper()
	return a.HasCredentialIn(constants.HeaderAuthorization)
}

func (a *requestAssertion) HasCredentialIn(headerName string) HeaderAssertion {
	a.Helper()
	values := a.request.Header.Values(headerName)
	require.Lenf(a, values, 1, "request should carry exactly one %s header", headerName)
	return NewHeaderAssertion(a, values[0])
}
