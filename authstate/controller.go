// Package authstate holds the application-level view of the authentication
// session: the current snapshot, a loading flag, and the login/logout/
// refresh actions the UI drives.
package authstate

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/taskgrid/taskgrid-go/auth"
	"github.com/taskgrid/taskgrid-go/session"
	"github.com/taskgrid/taskgrid-go/taskapi"
)

// Controller mirrors the stored session in memory and reconciles it with
// the backend. It is the only writer back to the store besides the auth
// service itself.
type Controller struct {
	svc *auth.Service
	api *taskapi.Client
	log zerolog.Logger

	mu      sync.Mutex
	sess    *session.StoredSession
	loading bool
	lastErr string
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(log zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.log = log }
}

// NewController creates the session controller.
func NewController(svc *auth.Service, apiClient *taskapi.Client, options ...ControllerOption) (*Controller, error) {
	if svc == nil {
		return nil, errors.New("[NewController] auth service is required")
	}
	if apiClient == nil {
		return nil, errors.New("[NewController] task api client is required")
	}
	c := &Controller{
		svc: svc,
		api: apiClient,
		log: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Initialize reconciles stored tokens with fresh backend data at startup.
//
// With no stored access token the controller settles immediately as
// unauthenticated. Otherwise the token is validated (refreshing if needed),
// the user/permission/role data is fetched and merged with whatever the
// store already cached, and the merged session is persisted.
func (c *Controller) Initialize(ctx context.Context) {
	raw := c.svc.Session()
	if raw == nil || raw.Tokens == nil || raw.Tokens.AccessToken == "" {
		c.set(nil, false)
		return
	}

	c.setLoading(true)
	defer c.setLoading(false)

	sess := c.svc.EnsureValidAccessToken(ctx)
	if sess == nil {
		c.set(nil, false)
		return
	}

	enriched := c.enrich(ctx, sess)
	if err := c.svc.SetSession(enriched); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist reconciled session")
	}
	c.set(enriched, false)
}

// enrich fills in user, permission and role data around a token-bearing
// session. Cached values win over a possibly-incomplete fresh fetch; a
// failed role lookup degrades to no roles rather than failing startup.
func (c *Controller) enrich(ctx context.Context, sess *session.StoredSession) *session.StoredSession {
	merged := *sess

	user, perms, err := c.api.CurrentUser(ctx)
	if err != nil {
		// Startup must not hard-fail while holding a refreshable token;
		// run with the best data we have.
		c.log.Warn().Err(err).Msg("current-user fetch failed, keeping cached session data")
		return &merged
	}
	if merged.User == nil {
		merged.User = user
	}
	if len(merged.Permissions) == 0 {
		merged.Permissions = perms
	}

	roles := merged.User.RoleNames()
	if len(roles) == 0 && merged.User != nil {
		fetched, err := c.api.RolesByUser(ctx, merged.User.ID)
		if err != nil {
			c.log.Warn().Err(err).Msg("role fetch failed, continuing without roles")
		}
		for _, r := range fetched {
			roles = append(roles, r.Name)
		}
	}
	if roles == nil {
		roles = []string{}
	}
	merged.Roles = roles
	return &merged
}

// Login authenticates and enriches the resulting session the same way
// startup reconciliation does. The error is both recorded on the controller
// and returned for the caller to display.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.setLoading(true)
	defer c.setLoading(false)

	sess, err := c.svc.Login(ctx, email, password)
	if err != nil {
		c.setErr(err.Error())
		return err
	}

	enriched := c.enrich(ctx, sess)
	if err := c.svc.SetSession(enriched); err != nil {
		c.setErr(err.Error())
		return errors.Wrap(err, "[Controller.Login] persist session")
	}
	c.set(enriched, false)
	c.setErr("")
	return nil
}

// Logout clears the in-memory session unconditionally, whatever the server
// call did.
func (c *Controller) Logout(ctx context.Context) {
	c.svc.Logout(ctx)
	c.set(nil, false)
}

// RefreshSession re-runs the startup reconciliation on demand.
func (c *Controller) RefreshSession(ctx context.Context) {
	c.Initialize(ctx)
}

// Snapshot projects the current session into its read-only view. Computed
// on every call so it can never diverge from the held session.
func (c *Controller) Snapshot() session.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Snapshot()
}

// Loading reports whether a login or reconciliation is in progress.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last login error message, empty when the last action
// succeeded.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) set(sess *session.StoredSession, loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sess = sess
	c.loading = loading
}

func (c *Controller) setLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
}

func (c *Controller) setErr(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = msg
}
