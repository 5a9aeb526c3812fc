package testabilities

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// ServerFixture starts a plain HTTP server, standing in for a service relying on the header
// or for a misbehaving chain daemon.
type ServerFixture interface {
	WithRoute(pattern string, handler func(w http.ResponseWriter, r *http.Request)) ServerBuilder
	URL() *url.URL
}

type ServerBuilder interface {
	WithRoute(pattern string, handler func(w http.ResponseWriter, r *http.Request)) ServerBuilder
	// WithMiddlewareFunc wraps the routes, middleware are applied in the order they were added.
	WithMiddlewareFunc(func(next http.Handler) http.Handler) ServerBuilder
	Started() (cleanup func())
}

type serverFixture struct {
	testing.TB
	mux        *http.ServeMux
	middleware []func(next http.Handler) http.Handler
	server     *httptest.Server
}

func NewServerFixture(t testing.TB) ServerFixture {
	return &serverFixture{
		TB:  t,
		mux: http.NewServeMux(),
	}
}

func (f *serverFixture) WithRoute(pattern string, handler func(w http.ResponseWriter, r *http.Request)) ServerBuilder {
	f.mux.HandleFunc(pattern, handler)
	return f
}

func (f *serverFixture) WithMiddlewareFunc(middleware func(next http.Handler) http.Handler) ServerBuilder {
	f.middleware = append(f.middleware, middleware)
	return f
}

func (f *serverFixture) Started() (cleanup func()) {
	var handler http.Handler = f.mux
	for i := len(f.middleware) - 1; i >= 0; i-- {
		handler = f.middleware[i](handler)
	}

	f.server = httptest.NewServer(handler)
	return f.server.Close
}

func (f *serverFixture) URL() *url.URL {
	require.NotNil(f, f.server, "server must be started before URL can be retrieved: invalid test setup")

	serverURL, err := url.Parse(f.server.URL)
	require.NoErrorf(f, err, "failed to parse server URL (%s): invalid test setup", f.server.URL)

	return serverURL
}
