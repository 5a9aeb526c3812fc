package testabilities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ribasushi/go-fil-spid/pkg/apiinfo"
	"github.com/ribasushi/go-fil-spid/pkg/chain"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
)

// RPCServerFixture exposes a FakeChain as a Lotus JSON-RPC endpoint.
type RPCServerFixture interface {
	// WithToken makes the endpoint reject requests without "Bearer <token>".
	WithToken(token string) RPCServerFixture
	Started() (info apiinfo.APIInfo, cleanup func())
	// Requests returns the number of HTTP requests served so far.
	Requests() int
}

type rpcServerFixture struct {
	testing.TB
	chain    *FakeChain
	token    string
	requests atomic.Int64
}

func NewRPCServerFixture(t testing.TB, fake *FakeChain) RPCServerFixture {
	return &rpcServerFixture{
		TB:    t,
		chain: fake,
	}
}

func (f *rpcServerFixture) WithToken(token string) RPCServerFixture {
	f.token = token
	return f
}

func (f *rpcServerFixture) Started() (info apiinfo.APIInfo, cleanup func()) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+constants.RPCPath, f.serveRPC)

	server := httptest.NewServer(mux)

	return apiinfo.APIInfo{Endpoint: server.URL, Token: f.token}, server.Close
}

func (f *rpcServerFixture) Requests() int {
	return int(f.requests.Load())
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	// a typed nil result is kept and encoded as null, the way Lotus reports "no value"
	Result  any             `json:"result,omitempty"`
	Error   *chain.RPCError `json:"error,omitempty"`
}

func (f *rpcServerFixture) serveRPC(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)

	if f.token != "" && r.Header.Get("Authorization") != "Bearer "+f.token {
		http.Error(w, "missing or invalid token", http.StatusUnauthorized)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := f.dispatch(r.Context(), req)

	rsp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	var rpcErr *chain.RPCError
	switch {
	case err == nil:
		rsp.Result = result
	case errors.As(err, &rpcErr):
		rsp.Error = rpcErr
	case errors.Is(err, chain.ErrUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	default:
		rsp.Error = &chain.RPCError{Code: -32603, Message: err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rsp)
}

func (f *rpcServerFixture) dispatch(ctx context.Context, req rpcRequest) (any, error) {
	method := strings.TrimPrefix(req.Method, "Filecoin.")

	switch method {
	case MethodChainGetTipSetByHeight:
		var height abi.ChainEpoch
		if err := params(req, &height); err != nil {
			return nil, err
		}
		return f.chain.ChainGetTipSetByHeight(ctx, height)
	case MethodStateMinerInfo:
		var provider address.Address
		var tsk chain.TipSetKey
		if err := params(req, &provider, &tsk); err != nil {
			return nil, err
		}
		return f.chain.StateMinerInfo(ctx, provider, tsk)
	case MethodStateGetBeaconEntry:
		var epoch abi.ChainEpoch
		if err := params(req, &epoch); err != nil {
			return nil, err
		}
		return f.chain.StateGetBeaconEntry(ctx, epoch)
	case MethodWalletSign:
		var signer address.Address
		var msg []byte
		if err := params(req, &signer, &msg); err != nil {
			return nil, err
		}
		return f.chain.WalletSign(ctx, signer, msg)
	default:
		return nil, &chain.RPCError{Code: -32601, Message: "method not found: " + req.Method}
	}
}

func params(req rpcRequest, out ...any) error {
	if len(req.Params) < len(out) {
		return &chain.RPCError{Code: -32602, Message: fmt.Sprintf("%s: expected %d params, got %d", req.Method, len(out), len(req.Params))}
	}

	for i, o := range out {
		if err := json.Unmarshal(req.Params[i], o); err != nil {
			return &chain.RPCError{Code: -32602, Message: fmt.Sprintf("%s: param %d: %s", req.Method, i, err)}
		}
	}

	return nil
}
