// Package apiinfo locates the chain daemon the issuer talks to.
//
// It follows the Lotus conventions: a FULLNODE_API_INFO variable of the form
// "<token>:<multiaddr>", or the "api" and "token" files of a Lotus repository.
package apiinfo

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// Environment variables consulted by Discover.
const (
	EnvFullNodeAPIInfo = "FULLNODE_API_INFO"
	EnvLotusPath       = "LOTUS_PATH"
)

const (
	defaultRepoDir = ".lotus"
	apiFileName    = "api"
	tokenFileName  = "token"
)

// ErrNotFound is returned when no daemon connection info could be located.
var ErrNotFound = errors.New("chain daemon connection info not found")

// A token is a JWT, so three dot separated base64url segments, the last one possibly empty.
var infoWithToken = regexp.MustCompile(`^[a-zA-Z0-9\-_]+?\.[a-zA-Z0-9\-_]+?\.([a-zA-Z0-9\-_]+)?:.+$`)

// APIInfo is the resolved daemon connection handle.
type APIInfo struct {
	// Endpoint is the base URL of the daemon, without the RPC path.
	Endpoint string
	// Token is sent as a bearer token, it may be empty for read-only daemons.
	Token string
}

// Parse parses an api info string, "<token>:<address>" or a bare address.
// The address is either a multiaddr or an http(s)/ws(s) URL.
func Parse(s string) (APIInfo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return APIInfo{}, fmt.Errorf("%w: empty api info", ErrNotFound)
	}

	var token string
	if infoWithToken.MatchString(s) {
		token, s, _ = strings.Cut(s, ":")
	}

	endpoint, err := parseAddress(s)
	if err != nil {
		return APIInfo{}, err
	}

	return APIInfo{Endpoint: endpoint, Token: token}, nil
}

// Discover resolves the daemon connection info from FULLNODE_API_INFO,
// falling back to the repository at LOTUS_PATH (default ~/.lotus).
func Discover() (APIInfo, error) {
	if info := os.Getenv(EnvFullNodeAPIInfo); info != "" {
		parsed, err := Parse(info)
		if err != nil {
			return APIInfo{}, fmt.Errorf("invalid %s: %w", EnvFullNodeAPIInfo, err)
		}
		return parsed, nil
	}

	repo := os.Getenv(EnvLotusPath)
	if repo == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return APIInfo{}, fmt.Errorf("%w: %s is not set and home directory is unknown: %w", ErrNotFound, EnvLotusPath, err)
		}
		repo = filepath.Join(home, defaultRepoDir)
	}

	return FromRepo(repo)
}

// FromRepo reads the connection info from the api and token files of a Lotus repository.
func FromRepo(repo string) (APIInfo, error) {
	addr, err := os.ReadFile(filepath.Join(repo, apiFileName))
	if err != nil {
		return APIInfo{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	endpoint, err := parseAddress(strings.TrimSpace(string(addr)))
	if err != nil {
		return APIInfo{}, fmt.Errorf("invalid api file in %s: %w", repo, err)
	}

	// a missing token is fine, the daemon decides what an anonymous caller may do
	token, err := os.ReadFile(filepath.Join(repo, tokenFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return APIInfo{}, fmt.Errorf("failed to read token file in %s: %w", repo, err)
	}

	return APIInfo{Endpoint: endpoint, Token: strings.TrimSpace(string(token))}, nil
}

func parseAddress(addr string) (string, error) {
	if strings.HasPrefix(addr, "/") {
		maddr, err := ma.NewMultiaddr(addr)
		if err != nil {
			return "", fmt.Errorf("invalid multiaddr %q: %w", addr, err)
		}

		_, hostport, err := manet.DialArgs(maddr)
		if err != nil {
			return "", fmt.Errorf("unsupported multiaddr %q: %w", addr, err)
		}

		scheme := "http"
		for _, secure := range []int{ma.P_HTTPS, ma.P_WSS, ma.P_TLS} {
			if _, err := maddr.ValueForProtocol(secure); err == nil {
				scheme = "https"
			}
		}
		return scheme + "://" + hostport, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}

	switch u.Scheme {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("invalid address %q: unsupported scheme %q", addr, u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("invalid address %q: missing host", addr)
	}

	// the RPC path is appended by the client
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/rpc/v1"), "/")
	return u.String(), nil
}
