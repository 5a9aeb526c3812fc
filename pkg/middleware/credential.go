package middleware

import (
	"context"

	"github.com/ribasushi/go-fil-spid/pkg/internal/authctx"
	"github.com/ribasushi/go-fil-spid/pkg/spid"
)

// ShouldGetCredential returns the credential the transport attached to a request.
// Pass the context of the request the transport sent, for example response.Request.Context().
func ShouldGetCredential(ctx context.Context) (*spid.Credential, error) {
	return authctx.ShouldGetCredential(ctx)
}
