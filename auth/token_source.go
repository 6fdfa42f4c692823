package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts the session engine to golang.org/x/oauth2 so libraries
// that expect an oauth2.TokenSource can ride on the single-flight refresh.
// Token returns NotAuthenticatedErr once the session is unrecoverable.
func (s *Service) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, svc: s}
}

type tokenSource struct {
	ctx context.Context
	svc *Service
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	sess := ts.svc.EnsureValidAccessToken(ts.ctx)
	if sess == nil || sess.Tokens == nil {
		return nil, NotAuthenticatedErr
	}
	tok := &oauth2.Token{
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
		TokenType:    "Bearer",
	}
	if sess.Tokens.AccessTokenExpiresAt != nil {
		tok.Expiry = *sess.Tokens.AccessTokenExpiresAt
	}
	return tok, nil
}
