package authctx

import (
	"context"
	"fmt"

	"github.com/ribasushi/go-fil-spid/pkg/spid"
)

type contextKey string

// CredentialKey stores the credential attached to an outgoing request.
const CredentialKey contextKey = "spid_credential"

func WithCredential(ctx context.Context, credential *spid.Credential) context.Context {
	return context.WithValue(ctx, CredentialKey, credential)
}

func ShouldGetCredential(ctx context.Context) (*spid.Credential, error) {
	contextValue := ctx.Value(CredentialKey)
	if contextValue == nil {
		return nil, fmt.Errorf("%s not found in context", CredentialKey)
	}

	credential, ok := contextValue.(*spid.Credential)
	if !ok || credential == nil {
		return nil, fmt.Errorf("%s contains unexpected type %T", CredentialKey, contextValue)
	}

	return credential, nil
}
