package api

import (
	"context"
	"net/http"

	"github.com/taskgrid/taskgrid-go/session"
)

// SessionGuard hands the transport a usable session. Implemented by the
// auth service: EnsureValidAccessToken performs the single-flight refresh
// when the access token has expired.
type SessionGuard interface {
	EnsureValidAccessToken(ctx context.Context) *session.StoredSession
	ClearSession()
}

// Transport issues authenticated requests: it attaches the Bearer token,
// refreshes proactively when the token is known-expired, and retries exactly
// once after a 401.
type Transport struct {
	client *Client
	store  session.Store
	guard  SessionGuard
}

// NewTransport wires the base client to the session store and guard.
func NewTransport(client *Client, store session.Store, guard SessionGuard) *Transport {
	return &Transport{client: client, store: store, guard: guard}
}

// Client returns the underlying unauthenticated client.
func (t *Transport) Client() *Client {
	return t.client
}

// Do executes an authenticated request.
//
// A token that is already expired per the stored expiry instant triggers a
// refresh before the first attempt, avoiding a guaranteed-401 round trip.
// A 401 response with a refresh token on hand triggers one refresh-and-retry;
// a second 401 means the refresh token itself is invalid or revoked, so the
// session store is cleared and the retry's error is returned. Never more
// than one retry.
func (t *Transport) Do(ctx context.Context, req Request, out any) error {
	if req.SkipAuth {
		return t.client.Do(ctx, req, out)
	}

	current := t.store.Read()
	var tokens *session.TokenPair
	if current != nil {
		tokens = current.Tokens
	}
	if session.IsAccessTokenExpired(tokens) {
		if refreshed := t.guard.EnsureValidAccessToken(ctx); refreshed != nil {
			tokens = refreshed.Tokens
		}
	}

	req.Bearer = accessToken(tokens)
	err := t.client.Do(ctx, req, out)
	if err == nil || !IsStatus(err, http.StatusUnauthorized) {
		return err
	}
	if tokens == nil || tokens.RefreshToken == "" {
		return err
	}

	refreshed := t.guard.EnsureValidAccessToken(ctx)
	if refreshed != nil {
		req.Bearer = accessToken(refreshed.Tokens)
	}
	retryErr := t.client.Do(ctx, req, out)
	if IsStatus(retryErr, http.StatusUnauthorized) {
		// The refresh token is dead too; nothing local can recover this.
		_ = t.store.Clear()
	}
	return retryErr
}

// Do executes an authenticated request through t and unwraps the `{data}`
// envelope into T.
func Do[T any](ctx context.Context, t *Transport, req Request) (T, error) {
	var env Envelope[T]
	if err := t.Do(ctx, req, &env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

func accessToken(t *session.TokenPair) string {
	if t == nil {
		return ""
	}
	return t.AccessToken
}
