package testabilities

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-softwarelab/common/pkg/to"
	"github.com/ribasushi/go-fil-spid/pkg/internal/testabilities/testproviders"
	"github.com/ribasushi/go-fil-spid/pkg/middleware"
)

type ClientFixtureOptions struct {
	logger *slog.Logger
}

func WithClientLogger(logger *slog.Logger) func(options *ClientFixtureOptions) {
	return func(options *ClientFixtureOptions) {
		options.logger = logger
	}
}

// ClientFixture builds HTTP clients attaching credentials of a provider to every request.
type ClientFixture interface {
	ForProvider(provider testproviders.Provider, opts ...func(*middleware.TransportConfig)) *http.Client
}

type clientFixture struct {
	testing.TB
	issuer middleware.CredentialIssuer
	logger *slog.Logger
}

func newClientFixture(t testing.TB, issuer middleware.CredentialIssuer, opts ...func(*ClientFixtureOptions)) ClientFixture {
	f := &clientFixture{
		TB:     t,
		issuer: issuer,
	}

	options := to.OptionsWithDefault(ClientFixtureOptions{
		logger: NewTestLogger(f),
	}, opts...)

	f.logger = options.logger

	return f
}

func (f *clientFixture) ForProvider(provider testproviders.Provider, opts ...func(*middleware.TransportConfig)) *http.Client {
	defaults := []func(*middleware.TransportConfig){
		middleware.WithTransportLogger(f.logger),
	}

	return middleware.NewTransport(f.issuer, provider.ID, append(defaults, opts...)...).Client()
}
