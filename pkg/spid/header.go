package spid

import (
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
)

// Credential is the outcome of a single issuance.
type Credential struct {
	// Epoch is the current epoch, the one the beacon entry belongs to.
	Epoch abi.ChainEpoch
	// FinalizedEpoch is the height the worker key was resolved at.
	FinalizedEpoch abi.ChainEpoch
	// ProviderID is the storage provider id exactly as supplied.
	ProviderID string
	Worker     address.Address
	// Message holds the signed bytes.
	Message   []byte
	Signature []byte
	Payload   []byte
}

// Header renders the credential as the FIL-SPID-V0 header value.
func (c *Credential) Header() string {
	return FormatHeader(c.Epoch, c.ProviderID, c.Signature, c.Payload)
}

func (c *Credential) String() string {
	return c.Header()
}

// FormatHeader renders "FIL-SPID-V0 <epoch>;<provider>;<hex signature>[;<base64 payload>]".
// The payload field is present only for a non empty payload.
func FormatHeader(epoch abi.ChainEpoch, providerID string, signature, payload []byte) string {
	var sb strings.Builder

	sb.WriteString(constants.AuthScheme)
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatInt(int64(epoch), 10))
	sb.WriteString(constants.FieldSeparator)
	sb.WriteString(providerID)
	sb.WriteString(constants.FieldSeparator)
	sb.WriteString(hex.EncodeToString(signature))

	if len(payload) > 0 {
		sb.WriteString(constants.FieldSeparator)
		sb.WriteString(base64.StdEncoding.EncodeToString(payload))
	}

	return sb.String()
}
