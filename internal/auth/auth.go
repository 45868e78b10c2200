package auth

import (
	"context"
)

// Principal is the verified caller identity attached to every request after
// the auth middleware runs. The entitlement core trusts it completely and
// performs no credential verification of its own.
type Principal struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type ctxKey string

const principalKey ctxKey = "principal"

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
