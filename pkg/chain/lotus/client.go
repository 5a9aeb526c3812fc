// Package lotus implements chain.API on top of the Lotus JSON-RPC v1 endpoint.
package lotus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/crypto"
	"github.com/go-resty/resty/v2"
	"github.com/go-softwarelab/common/pkg/to"
	"github.com/google/uuid"
	"github.com/ribasushi/go-fil-spid/pkg/apiinfo"
	"github.com/ribasushi/go-fil-spid/pkg/chain"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ribasushi/go-fil-spid/pkg/chain/lotus"

// Method names of the full node API.
const (
	MethodChainGetTipSetByHeight = "Filecoin.ChainGetTipSetByHeight"
	MethodStateMinerInfo         = "Filecoin.StateMinerInfo"
	MethodStateGetBeaconEntry    = "Filecoin.StateGetBeaconEntry"
	MethodWalletSign             = "Filecoin.WalletSign"
)

// Config configures the client.
type Config struct {
	// Timeout bounds every single RPC call.
	Timeout time.Duration
	// Transport overrides the HTTP transport, mostly useful in tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// WithTimeout sets the per call timeout, non positive values keep the default.
func WithTimeout(timeout time.Duration) func(*Config) {
	return func(cfg *Config) {
		if timeout > 0 {
			cfg.Timeout = timeout
		}
	}
}

// WithTransport configures the client to send requests through rt.
func WithTransport(rt http.RoundTripper) func(*Config) {
	return func(cfg *Config) {
		cfg.Transport = rt
	}
}

// WithLogger configures the client to use the provided logger.
func WithLogger(logger *slog.Logger) func(*Config) {
	// don't override the default
	if logger == nil {
		return func(cfg *Config) {}
	}

	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// Client talks to a single chain daemon. It holds no per issuance state and is safe for concurrent use.
type Client struct {
	http    *resty.Client
	timeout time.Duration
	log     *slog.Logger
	tracer  trace.Tracer
}

var _ chain.API = (*Client)(nil)

// New creates a client for the daemon described by info.
func New(info apiinfo.APIInfo, opts ...func(*Config)) *Client {
	cfg := to.OptionsWithDefault(Config{
		Timeout: constants.DefaultRPCTimeout,
		Logger:  slog.Default(),
	}, opts...)

	httpClient := resty.New().
		SetBaseURL(info.Endpoint).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if info.Token != "" {
		httpClient.SetAuthToken(info.Token)
	}

	if cfg.Transport != nil {
		httpClient.SetTransport(cfg.Transport)
	}

	return &Client{
		http:    httpClient,
		timeout: cfg.Timeout,
		log:     logging.Child(cfg.Logger, "LotusClient"),
		tracer:  otel.Tracer(tracerName),
	}
}

// ChainGetTipSetByHeight implements chain.API.
func (c *Client) ChainGetTipSetByHeight(ctx context.Context, height abi.ChainEpoch) (*chain.TipSet, error) {
	var ts chain.TipSet
	found, err := c.call(ctx, MethodChainGetTipSetByHeight, &ts, height, nil)
	if err != nil || !found {
		return nil, err
	}
	return &ts, nil
}

// StateMinerInfo implements chain.API.
func (c *Client) StateMinerInfo(ctx context.Context, provider address.Address, tsk chain.TipSetKey) (*chain.MinerInfo, error) {
	var info chain.MinerInfo
	found, err := c.call(ctx, MethodStateMinerInfo, &info, provider, tsk)
	if err != nil || !found {
		return nil, err
	}
	return &info, nil
}

// StateGetBeaconEntry implements chain.API.
func (c *Client) StateGetBeaconEntry(ctx context.Context, epoch abi.ChainEpoch) (*chain.BeaconEntry, error) {
	var entry chain.BeaconEntry
	found, err := c.call(ctx, MethodStateGetBeaconEntry, &entry, epoch)
	if err != nil || !found {
		return nil, err
	}
	return &entry, nil
}

// WalletSign implements chain.API.
func (c *Client) WalletSign(ctx context.Context, signer address.Address, msg []byte) (*crypto.Signature, error) {
	var sig crypto.Signature
	found, err := c.call(ctx, MethodWalletSign, &sig, signer, msg)
	if err != nil || !found {
		return nil, err
	}
	return &sig, nil
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *chain.RPCError `json:"error"`
}

// call performs a single JSON-RPC round trip and decodes the result into out.
// It reports found=false when the daemon returned a null result.
func (c *Client) call(ctx context.Context, method string, out any, params ...any) (found bool, err error) {
	ctx, span := c.tracer.Start(ctx, method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", method),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := request{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}

	log := c.log.With(slog.String("method", method), slog.String("id", req.ID))
	started := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(constants.RPCPath)
	if err != nil {
		log.DebugContext(ctx, "RPC transport failure", logging.Error(err))
		return false, fmt.Errorf("%w: %s: %w", chain.ErrUnavailable, method, err)
	}

	log.DebugContext(ctx, "RPC call finished",
		slog.Int("status", resp.StatusCode()),
		slog.Duration("took", time.Since(started)),
	)

	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return false, &chain.RPCError{Code: resp.StatusCode(), Message: "daemon rejected the API token: " + resp.Status()}
	}

	var rsp response
	decodeErr := json.Unmarshal(resp.Body(), &rsp)

	if resp.IsError() {
		// lotus reports method and params errors as an error object with a 500 status
		if decodeErr == nil && rsp.Error != nil {
			return false, fmt.Errorf("%s: %w", method, rsp.Error)
		}
		return false, fmt.Errorf("%w: %s: unexpected HTTP status %s", chain.ErrUnavailable, method, resp.Status())
	}

	if decodeErr != nil {
		return false, fmt.Errorf("%w: %s: %w", chain.ErrMalformedResponse, method, decodeErr)
	}

	var id string
	if err := json.Unmarshal(rsp.ID, &id); err != nil || id != req.ID {
		return false, fmt.Errorf("%w: %s: response id %s does not match request id %q", chain.ErrMalformedResponse, method, string(rsp.ID), req.ID)
	}

	if rsp.Error != nil {
		return false, fmt.Errorf("%s: %w", method, rsp.Error)
	}

	if len(rsp.Result) == 0 || string(rsp.Result) == "null" {
		return false, nil
	}

	if err := json.Unmarshal(rsp.Result, out); err != nil {
		return false, fmt.Errorf("%w: %s: %w", chain.ErrMalformedResponse, method, err)
	}

	return true, nil
}
