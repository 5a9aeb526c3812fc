package testproviders

import (
	"testing"

	primitives "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/filecoin-project/go-address"
	"github.com/stretchr/testify/require"
)

var Alice = Provider{
	Name:     "Alice",
	ID:       "f01000",
	WorkerID: 1100,
	PrivKey:  "143ab18a84d3b25e1a13cefa90038411e5d2014590a2a4a57263d1593c8dee1c",
}

var Bob = Provider{
	Name:     "Bob",
	ID:       "f02468",
	WorkerID: 2500,
	PrivKey:  "5f3e2d1c0b0a09080706050403020100f0e1d2c3b4a5968778695a4b3c2d1e0f",
}

// Provider is a storage provider whose worker key lives in the fake chain wallet.
type Provider struct {
	Name     string
	ID       string
	WorkerID uint64
	PrivKey  string
}

func (p Provider) Address(t testing.TB) address.Address {
	t.Helper()

	addr, err := address.NewFromString(p.ID)
	require.NoErrorf(t, err, "Provider %s has invalid id %q", p.Name, p.ID)
	return addr
}

func (p Provider) WorkerAddress(t testing.TB) address.Address {
	t.Helper()

	addr, err := address.NewIDAddress(p.WorkerID)
	require.NoErrorf(t, err, "Provider %s has invalid worker id %d", p.Name, p.WorkerID)
	return addr
}

func (p Provider) PrivateKey(t testing.TB) *primitives.PrivateKey {
	t.Helper()

	priv, err := primitives.PrivateKeyFromHex(p.PrivKey)
	require.NoErrorf(t, err, "Provider %s has invalid private key hex %q", p.Name, p.PrivKey)
	return priv
}

func (p Provider) PublicKey(t testing.TB) *primitives.PublicKey {
	t.Helper()
	return p.PrivateKey(t).PubKey()
}
