package constants

const (
	// RPCPath is the path of the chain daemon JSON-RPC v1 endpoint
	RPCPath = "/rpc/v1"
)
