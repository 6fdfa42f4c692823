package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskgrid/taskgrid-go/api"
	"github.com/taskgrid/taskgrid-go/auth"
	"github.com/taskgrid/taskgrid-go/session"
	"github.com/taskgrid/taskgrid-go/session/storefakes"
)

type serviceFixture struct {
	svc    *auth.Service
	store  *storefakes.FakeStore
	server *httptest.Server
}

func newServiceFixture(t *testing.T, handler http.Handler, options ...auth.ServiceOption) *serviceFixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := storefakes.NewFakeStore()
	svc, err := auth.NewService(api.NewClient(server.URL), store, options...)
	require.NoError(t, err)
	return &serviceFixture{svc: svc, store: store, server: server}
}

func seedSession(store *storefakes.FakeStore, accessToken, refreshToken string, expiresAt time.Time) {
	store.Seed(&session.StoredSession{
		User:        &session.User{ID: "u1", Email: "jane@example.com"},
		Permissions: map[string]bool{"perm_can_read_all_tasks": true},
		Roles:       []string{"member"},
		Tokens: &session.TokenPair{
			AccessToken:          accessToken,
			RefreshToken:         refreshToken,
			AccessTokenExpiresAt: &expiresAt,
		},
	})
}

// clearCounter counts Clear calls from the cache-reset hook.
type clearCounter struct{ calls int32 }

func (c *clearCounter) Clear() { atomic.AddInt32(&c.calls, 1) }

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := auth.NewService(nil, storefakes.NewFakeStore())
	require.Error(t, err)

	_, err = auth.NewService(api.NewClient("http://localhost"), nil)
	require.Error(t, err)
}

func TestLogin_StoresSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{
			"tokens":{"access_token":"acc","access_token_expires_in":3600,"refresh_token":"ref"},
			"user":{"id":"u1","email":"jane@example.com","roles":[{"id":"r1","name":"admin"}]},
			"permissions":{"perm_can_manage_users":true}
		}}`))
	})

	cache := &clearCounter{}
	fix := newServiceFixture(t, mux, auth.WithCaches(cache))

	sess, err := fix.svc.Login(context.Background(), "jane@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "acc", sess.Tokens.AccessToken)
	require.Equal(t, []string{"admin"}, sess.Roles)
	require.True(t, sess.Permissions["perm_can_manage_users"])
	require.EqualValues(t, 1, cache.calls)

	stored := fix.store.Read()
	require.NotNil(t, stored)
	require.Equal(t, "u1", stored.User.ID)
	// Persisting stamps the expiry from expires_in.
	require.NotNil(t, stored.Tokens.AccessTokenExpiresAt)
}

func TestLogin_MissingTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"tokens":{"access_token":"acc"},"user":{"id":"u1"}}}`))
	})
	fix := newServiceFixture(t, mux)

	_, err := fix.svc.Login(context.Background(), "jane@example.com", "hunter2")
	require.ErrorIs(t, err, auth.MissingTokensErr)
	require.Nil(t, fix.store.Read())
}

func TestLogin_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid credentials"}`))
	})
	fix := newServiceFixture(t, mux)

	_, err := fix.svc.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid credentials")
	require.Nil(t, fix.store.Read())
}

// N concurrent refreshes with one in flight collapse to a single network
// call, and every caller receives the same settled session.
func TestRefresh_SingleFlight(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		time.Sleep(100 * time.Millisecond) // hold callers in flight
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"tokens":{"access_token":"new-acc","access_token_expires_in":3600,"refresh_token":"new-ref"}}}`))
	})
	fix := newServiceFixture(t, mux)
	seedSession(fix.store, "old-acc", "old-ref", time.Now().Add(-time.Minute))

	const n = 25
	results := make([]*session.StoredSession, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = fix.svc.Refresh(context.Background(), "old-ref")
		}(i)
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 1, refreshCalls)
	require.NotNil(t, results[0])
	for _, res := range results {
		require.Same(t, results[0], res)
		require.Equal(t, "new-acc", res.Tokens.AccessToken)
	}
}

// A refresh response carrying only tokens keeps the cached user,
// permissions and roles.
func TestRefresh_MergesCachedIdentity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"tokens":{"access_token":"new-acc","access_token_expires_in":3600,"refresh_token":"new-ref"}}}`))
	})
	fix := newServiceFixture(t, mux)
	seedSession(fix.store, "old-acc", "old-ref", time.Now().Add(-time.Minute))

	sess := fix.svc.Refresh(context.Background(), "old-ref")
	require.NotNil(t, sess)
	require.Equal(t, "new-acc", sess.Tokens.AccessToken)
	require.Equal(t, "new-ref", sess.Tokens.RefreshToken)
	require.Equal(t, "u1", sess.User.ID)
	require.True(t, sess.Permissions["perm_can_read_all_tasks"])
	require.Equal(t, []string{"member"}, sess.Roles)

	stored := fix.store.Read()
	require.Equal(t, "new-acc", stored.Tokens.AccessToken)
}

// Fresh user and permission data in a refresh response replaces the cached
// copies.
func TestRefresh_ServerDataOverridesCache(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{
			"tokens":{"access_token":"new-acc","refresh_token":"new-ref"},
			"user":{"id":"u1","email":"renamed@example.com"},
			"permissions":{"perm_can_manage_users":true}
		}}`))
	})
	fix := newServiceFixture(t, mux)
	seedSession(fix.store, "old-acc", "old-ref", time.Now().Add(-time.Minute))

	sess := fix.svc.Refresh(context.Background(), "old-ref")
	require.NotNil(t, sess)
	require.Equal(t, "renamed@example.com", sess.User.Email)
	require.True(t, sess.Permissions["perm_can_manage_users"])
	require.False(t, sess.Permissions["perm_can_read_all_tasks"])
}

func TestRefresh_FailureReturnsNil(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	fix := newServiceFixture(t, mux)

	require.Nil(t, fix.svc.Refresh(context.Background(), "dead-ref"))

	// The in-flight marker settles on failure too; the next refresh makes
	// its own network call instead of joining a stale one.
	require.Nil(t, fix.svc.Refresh(context.Background(), "dead-ref"))
	require.EqualValues(t, 2, refreshCalls)
}

func TestEnsureValidAccessToken_FastPathNoNetwork(t *testing.T) {
	fix := newServiceFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	seedSession(fix.store, "live", "ref", time.Now().Add(time.Hour))

	sess := fix.svc.EnsureValidAccessToken(context.Background())
	require.NotNil(t, sess)
	require.Equal(t, "live", sess.Tokens.AccessToken)
}

func TestEnsureValidAccessToken_NoSession(t *testing.T) {
	fix := newServiceFixture(t, http.NewServeMux())
	require.Nil(t, fix.svc.EnsureValidAccessToken(context.Background()))
}

func TestEnsureValidAccessToken_ExpiredWithoutRefreshToken(t *testing.T) {
	fix := newServiceFixture(t, http.NewServeMux())
	seedSession(fix.store, "stale", "", time.Now().Add(-time.Minute))

	require.Nil(t, fix.svc.EnsureValidAccessToken(context.Background()))
	require.Equal(t, 1, fix.store.ClearCalls)
}

func TestEnsureValidAccessToken_RefreshFailureClearsStore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	fix := newServiceFixture(t, mux)
	seedSession(fix.store, "stale", "dead-ref", time.Now().Add(-time.Minute))

	require.Nil(t, fix.svc.EnsureValidAccessToken(context.Background()))
	require.Equal(t, 1, fix.store.ClearCalls)
	require.Nil(t, fix.store.Read())
}

func TestEnsureValidAccessToken_ExpiredRefreshes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"tokens":{"access_token":"renewed","access_token_expires_in":3600,"refresh_token":"new-ref"}}}`))
	})
	fix := newServiceFixture(t, mux)
	seedSession(fix.store, "stale", "old-ref", time.Now().Add(-time.Minute))

	sess := fix.svc.EnsureValidAccessToken(context.Background())
	require.NotNil(t, sess)
	require.Equal(t, "renewed", sess.Tokens.AccessToken)
}

// Local state is wiped even when the server rejects the logout call.
func TestLogout_ClearsLocalStateOnServerFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer live", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusInternalServerError)
	})
	cache := &clearCounter{}
	fix := newServiceFixture(t, mux, auth.WithCaches(cache))
	seedSession(fix.store, "live", "ref", time.Now().Add(time.Hour))

	fix.svc.Logout(context.Background())

	require.Nil(t, fix.store.Read())
	require.EqualValues(t, 1, cache.calls)
}

func TestLogout_NoSession(t *testing.T) {
	fix := newServiceFixture(t, http.NewServeMux())
	fix.svc.Logout(context.Background())
	require.Nil(t, fix.store.Read())
}

func TestChangePassword_NotAuthenticated(t *testing.T) {
	fix := newServiceFixture(t, http.NewServeMux())
	err := fix.svc.ChangePassword(context.Background(), "old", "new")
	require.ErrorIs(t, err, auth.NotAuthenticatedErr)
}

func TestChangePassword_PropagatesServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"current password is incorrect"}`))
	})
	fix := newServiceFixture(t, mux)
	seedSession(fix.store, "live", "ref", time.Now().Add(time.Hour))

	err := fix.svc.ChangePassword(context.Background(), "wrong", "new")
	require.Error(t, err)
	require.Contains(t, err.Error(), "current password is incorrect")
}

func TestChangePassword_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer live", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	fix := newServiceFixture(t, mux)
	seedSession(fix.store, "live", "ref", time.Now().Add(time.Hour))

	require.NoError(t, fix.svc.ChangePassword(context.Background(), "old", "new"))
}

func TestTokenSource(t *testing.T) {
	fix := newServiceFixture(t, http.NewServeMux())
	expiresAt := time.Now().Add(time.Hour)
	seedSession(fix.store, "live", "ref", expiresAt)

	ts := fix.svc.TokenSource(context.Background())
	tok, err := ts.Token()
	require.NoError(t, err)
	require.Equal(t, "live", tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, expiresAt.Unix(), tok.Expiry.Unix())

	fix.svc.ClearSession()
	_, err = ts.Token()
	require.ErrorIs(t, err, auth.NotAuthenticatedErr)
}
