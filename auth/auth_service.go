package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/taskgrid/taskgrid-go/api"
	"github.com/taskgrid/taskgrid-go/session"
)

// Resettable is per-account cached state (permission cache, user directory,
// image cache) that must not survive an account change. Everything
// registered here is cleared on both login and logout.
type Resettable interface {
	Clear()
}

// Service owns the authentication session lifecycle: login, logout, password
// change, and the single-flight access-token refresh. It is the only
// component that writes tokens into the store.
type Service struct {
	client *api.Client
	store  session.Store
	caches []Resettable
	log    zerolog.Logger

	mu       sync.Mutex
	inflight *refreshCall
}

// refreshCall is one in-progress refresh shared by every concurrent caller.
// done is closed after result is set and the in-flight marker is cleared,
// so the next refresh can only start against a settled outcome.
type refreshCall struct {
	done   chan struct{}
	result *session.StoredSession
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithCaches registers per-account caches to clear on login and logout.
func WithCaches(caches ...Resettable) ServiceOption {
	return func(s *Service) { s.caches = append(s.caches, caches...) }
}

// NewService creates the auth service.
func NewService(client *api.Client, store session.Store, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] api client is required")
	}
	if store == nil {
		return nil, errors.New("[NewService] session store is required")
	}
	s := &Service{
		client: client,
		store:  store,
		log:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginPayload struct {
	Tokens      *session.TokenPair `json:"tokens"`
	User        *session.User      `json:"user"`
	Permissions map[string]bool    `json:"permissions"`
}

// Login exchanges credentials for a session. The new session replaces any
// stored one and every registered cache is cleared first, so nothing cached
// under the previous account can bleed through. Errors propagate to the
// caller for display.
func (s *Service) Login(ctx context.Context, email, password string) (*session.StoredSession, error) {
	var env api.Envelope[loginPayload]
	req := api.Request{
		Method:   http.MethodPost,
		Path:     "/auth/login",
		Body:     credentials{Email: email, Password: password},
		SkipAuth: true,
	}
	if err := s.client.Do(ctx, req, &env); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] login request")
	}

	tokens := env.Data.Tokens
	if tokens == nil || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, MissingTokensErr
	}

	s.resetCaches()

	sess := &session.StoredSession{
		User:        env.Data.User,
		Permissions: env.Data.Permissions,
		Roles:       env.Data.User.RoleNames(),
		Tokens:      tokens,
	}
	if err := s.store.Write(sess); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] persist session")
	}
	return sess, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshPayload struct {
	Tokens      *session.TokenPair `json:"tokens"`
	User        *session.User      `json:"user,omitempty"`
	Permissions map[string]bool    `json:"permissions,omitempty"`
}

// Refresh exchanges the refresh token for a new token pair. Single-flight:
// while one refresh is in flight every concurrent caller blocks on it and
// receives the same outcome, so N overlapping expirations cost one network
// round trip. The in-flight marker is cleared on settlement, success or
// failure, before the next refresh may start.
//
// Any failure (network, non-2xx, malformed body) yields nil, never an
// error: callers must treat nil as "must re-authenticate".
func (s *Service) Refresh(ctx context.Context, refreshToken string) *session.StoredSession {
	s.mu.Lock()
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		<-call.done
		return call.result
	}
	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	s.mu.Unlock()

	result := s.doRefresh(ctx, refreshToken)

	s.mu.Lock()
	call.result = result
	s.inflight = nil
	s.mu.Unlock()
	close(call.done)

	return result
}

func (s *Service) doRefresh(ctx context.Context, refreshToken string) *session.StoredSession {
	var env api.Envelope[refreshPayload]
	req := api.Request{
		Method:   http.MethodPost,
		Path:     "/auth/refresh",
		Body:     refreshRequest{RefreshToken: refreshToken},
		SkipAuth: true,
	}
	if err := s.client.Do(ctx, req, &env); err != nil {
		s.log.Debug().Err(err).Msg("token refresh failed")
		return nil
	}
	tokens := env.Data.Tokens
	if tokens == nil || tokens.AccessToken == "" {
		s.log.Debug().Msg("token refresh response carried no tokens")
		return nil
	}

	// Refresh responses may omit user and permission data; merge the new
	// tokens into the cached identity rather than dropping it.
	merged := &session.StoredSession{Tokens: tokens}
	if current := s.store.Read(); current != nil {
		merged.User = current.User
		merged.Permissions = current.Permissions
		merged.Roles = current.Roles
	}
	if env.Data.User != nil {
		merged.User = env.Data.User
	}
	if len(env.Data.Permissions) > 0 {
		merged.Permissions = env.Data.Permissions
	}

	if err := s.store.Write(merged); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist refreshed session")
		return nil
	}
	return merged
}

// EnsureValidAccessToken returns a session whose access token is usable, or
// nil when the caller must re-authenticate.
//
// The common case is the fast path: token present and not expired, no
// network touched. An expired token with no refresh token, or a failed
// refresh, clears the store; that session is unrecoverable locally.
func (s *Service) EnsureValidAccessToken(ctx context.Context) *session.StoredSession {
	sess := s.store.Read()
	if sess == nil || sess.Tokens == nil {
		return nil
	}
	if !session.IsAccessTokenExpired(sess.Tokens) {
		return sess
	}
	if sess.Tokens.RefreshToken == "" {
		_ = s.store.Clear()
		return nil
	}
	refreshed := s.Refresh(ctx, sess.Tokens.RefreshToken)
	if refreshed == nil {
		_ = s.store.Clear()
		return nil
	}
	return refreshed
}

// Logout tells the backend to revoke the refresh token, then clears all
// local state. The server call is best effort: a network failure is logged
// and swallowed, and local cleanup runs regardless.
func (s *Service) Logout(ctx context.Context) {
	defer func() {
		s.resetCaches()
		_ = s.store.Clear()
	}()

	sess := s.EnsureValidAccessToken(ctx)
	if sess == nil || sess.Tokens == nil {
		return
	}
	req := api.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Body:   refreshRequest{RefreshToken: sess.Tokens.RefreshToken},
	}
	req.Bearer = sess.Tokens.AccessToken
	if err := s.client.Do(ctx, req, nil); err != nil {
		s.log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword submits a password change for the current user. Errors
// propagate as-is for UI display.
func (s *Service) ChangePassword(ctx context.Context, current, newPassword string) error {
	sess := s.EnsureValidAccessToken(ctx)
	if sess == nil || sess.Tokens == nil {
		return NotAuthenticatedErr
	}
	req := api.Request{
		Method: http.MethodPost,
		Path:   "/auth/change-password",
		Body:   changePasswordRequest{CurrentPassword: current, NewPassword: newPassword},
	}
	req.Bearer = sess.Tokens.AccessToken
	if err := s.client.Do(ctx, req, nil); err != nil {
		return errors.Wrap(err, "[Service.ChangePassword]")
	}
	return nil
}

// Session returns the stored session as-is.
func (s *Service) Session() *session.StoredSession {
	return s.store.Read()
}

// SetSession persists a session built outside the login flow (startup
// reconciliation, reset-password-by-token).
func (s *Service) SetSession(sess *session.StoredSession) error {
	return s.store.Write(sess)
}

// ClearSession drops the stored session.
func (s *Service) ClearSession() {
	_ = s.store.Clear()
}

func (s *Service) resetCaches() {
	for _, c := range s.caches {
		c.Clear()
	}
}

var _ api.SessionGuard = (*Service)(nil)
