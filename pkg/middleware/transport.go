// Package middleware attaches FIL-SPID credentials to outgoing HTTP requests.
package middleware

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-softwarelab/common/pkg/to"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/internal/authctx"
	"github.com/ribasushi/go-fil-spid/pkg/internal/logging"
	"github.com/ribasushi/go-fil-spid/pkg/spid"
)

// CredentialIssuer issues credentials, *spid.Issuer implements it.
type CredentialIssuer interface {
	Issue(ctx context.Context, providerID string, payload []byte) (*spid.Credential, error)
}

// TransportConfig is the configuration of the credential transport.
type TransportConfig struct {
	// HeaderName is the request header carrying the credential.
	HeaderName string
	// Base sends the requests once the credential is attached.
	Base http.RoundTripper
	// Payload derives the payload bound into the credential from the outgoing request.
	Payload func(r *http.Request) ([]byte, error)
	Logger  *slog.Logger
}

// WithTransportLogger configures the transport to use the provided logger.
func WithTransportLogger(logger *slog.Logger) func(*TransportConfig) {
	// don't override the default
	if logger == nil {
		return func(cfg *TransportConfig) {}
	}

	return func(cfg *TransportConfig) {
		cfg.Logger = logger
	}
}

// WithHeaderName sets the header the credential is sent in, Authorization by default.
func WithHeaderName(name string) func(*TransportConfig) {
	if name == "" {
		panic("header name must be provided")
	}

	return func(cfg *TransportConfig) {
		cfg.HeaderName = name
	}
}

// WithBaseTransport sets the round tripper requests are sent through, http.DefaultTransport by default.
func WithBaseTransport(rt http.RoundTripper) func(*TransportConfig) {
	if rt == nil {
		panic("base transport must be provided")
	}

	return func(cfg *TransportConfig) {
		cfg.Base = rt
	}
}

// WithRequestPayload binds the result of payload into every credential.
func WithRequestPayload(payload func(r *http.Request) ([]byte, error)) func(*TransportConfig) {
	if payload == nil {
		panic("payload function must be provided")
	}

	return func(cfg *TransportConfig) {
		cfg.Payload = payload
	}
}

// WithStaticPayload binds the same payload into every credential.
func WithStaticPayload(payload []byte) func(*TransportConfig) {
	return WithRequestPayload(func(*http.Request) ([]byte, error) {
		return payload, nil
	})
}

// WithRequestDigestPayload binds RequestDigest of every request into its credential.
func WithRequestDigestPayload() func(*TransportConfig) {
	return WithRequestPayload(RequestDigest)
}

// RequestDigest returns sha256("<METHOD> <URL>") of r.
func RequestDigest(r *http.Request) ([]byte, error) {
	if r.URL == nil {
		return nil, errors.New("request has no URL")
	}

	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.String()))
	return sum[:], nil
}

// Transport is an http.RoundTripper issuing a fresh credential for every request.
type Transport struct {
	issuer     CredentialIssuer
	providerID string
	options    []func(*TransportConfig)

	headerName string
	base       http.RoundTripper
	payload    func(r *http.Request) ([]byte, error)
	log        *slog.Logger
}

// NewTransport creates a transport issuing credentials of providerID with issuer.
func NewTransport(issuer CredentialIssuer, providerID string, opts ...func(*TransportConfig)) *Transport {
	if issuer == nil {
		panic("issuer must be provided to create credential transport")
	}

	cfg := to.OptionsWithDefault(TransportConfig{
		HeaderName: constants.HeaderAuthorization,
		Base:       http.DefaultTransport,
		Payload:    noPayload,
		Logger:     slog.Default(),
	}, opts...)

	return &Transport{
		issuer:     issuer,
		providerID: providerID,
		options:    opts,
		headerName: cfg.HeaderName,
		base:       cfg.Base,
		payload:    cfg.Payload,
		log:        logging.Child(cfg.Logger, "CredentialTransport"),
	}
}

// WithOptions returns a copy of the transport with additional options applied on top of the original ones.
//
// This can be useful when a single provider talks to several services,
// each expecting the credential in a different header or with a different payload.
func (t *Transport) WithOptions(opts ...func(*TransportConfig)) *Transport {
	return NewTransport(t.issuer, t.providerID, append(t.options[:len(t.options):len(t.options)], opts...)...)
}

// Client returns an http.Client sending its requests through the transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	payload, err := t.payload(req)
	if err != nil {
		closeBody(req)
		return nil, fmt.Errorf("deriving credential payload: %w", err)
	}

	credential, err := t.issuer.Issue(req.Context(), t.providerID, payload)
	if err != nil {
		closeBody(req)
		t.log.WarnContext(req.Context(), "Failed to issue credential",
			slog.String("provider", t.providerID),
			slog.String("url", req.URL.Redacted()),
			logging.Error(err),
		)
		return nil, fmt.Errorf("issuing credential for %s: %w", t.providerID, err)
	}

	t.log.DebugContext(req.Context(), "Attaching credential",
		slog.String("header", t.headerName),
		slog.Int64("epoch", int64(credential.Epoch)),
		slog.String("url", req.URL.Redacted()),
	)

	// a RoundTripper must not modify the request it was given
	signed := req.Clone(authctx.WithCredential(req.Context(), credential))
	signed.Header.Set(t.headerName, credential.Header())

	return t.base.RoundTrip(signed)
}

func noPayload(*http.Request) ([]byte, error) {
	return nil, nil
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
