package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/judyrop/crm/models"
)

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// OIDCVerifier accepts ID tokens from an external OpenID Connect issuer. The
// role comes from a configurable claim; tokens without a known role are
// treated as customers.
type OIDCVerifier struct {
	verifier  *oidc.IDTokenVerifier
	roleClaim string
}

func NewOIDCVerifier(ctx context.Context, issuer, clientID, roleClaim string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider %s: %w", issuer, err)
	}
	return newOIDCVerifier(provider.Verifier(&oidc.Config{ClientID: clientID}), roleClaim), nil
}

func newOIDCVerifier(v *oidc.IDTokenVerifier, roleClaim string) *OIDCVerifier {
	if roleClaim == "" {
		roleClaim = "role"
	}
	return &OIDCVerifier{verifier: v, roleClaim: roleClaim}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}

	role := models.RoleCustomer
	if raw, ok := claims[v.roleClaim].(string); ok {
		if r, ok := models.ParseRole(raw); ok {
			role = r
		}
	}
	username := tok.Subject
	for _, key := range []string{"preferred_username", "email"} {
		if s, ok := claims[key].(string); ok && s != "" {
			username = s
			break
		}
	}
	return &Identity{
		Username:  username,
		Role:      role,
		Source:    SourceOIDC,
		ExpiresAt: tok.Expiry,
	}, nil
}
