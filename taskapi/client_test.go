package taskapi_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskgrid/taskgrid-go/api"
	"github.com/taskgrid/taskgrid-go/session"
	"github.com/taskgrid/taskgrid-go/session/storefakes"
	"github.com/taskgrid/taskgrid-go/taskapi"
)

// passthroughGuard never refreshes; taskapi tests run with a live token.
type passthroughGuard struct{ store *storefakes.FakeStore }

func (g *passthroughGuard) EnsureValidAccessToken(ctx context.Context) *session.StoredSession {
	return g.store.Read()
}

func (g *passthroughGuard) ClearSession() { _ = g.store.Clear() }

func newTestClient(t *testing.T, handler http.Handler) *taskapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := storefakes.NewFakeStore()
	expiresAt := time.Now().Add(time.Hour)
	store.Seed(&session.StoredSession{
		Tokens: &session.TokenPair{
			AccessToken:          "live",
			RefreshToken:         "ref",
			AccessTokenExpiresAt: &expiresAt,
		},
	})
	tr := api.NewTransport(api.NewClient(server.URL), store, &passthroughGuard{store: store})
	return taskapi.NewClient(tr)
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}

func TestTasks_FilterQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/task/all", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "p1", q.Get("project_id"))
		require.Equal(t, "open", q.Get("status"))
		require.Equal(t, "2", q.Get("page"))
		writeJSON(t, w, `{"data":{"items":[{"id":"t1","title":"Fix login"}],"total":41}}`)
	})
	client := newTestClient(t, mux)

	list, err := client.Tasks(context.Background(), taskapi.TaskFilter{
		ProjectID:   "p1",
		Status:      taskapi.TaskStatusOpen,
		ListOptions: taskapi.ListOptions{Page: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 41, list.Total)
	require.Len(t, list.Items, 1)
	require.Equal(t, "Fix login", list.Items[0].Title)
}

// Partial task updates only serialize the fields the caller set.
func TestUpdateTask_PartialBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/task/t1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]any{"title": "Renamed"}, body)
		writeJSON(t, w, `{"data":{"id":"t1","title":"Renamed"}}`)
	})
	client := newTestClient(t, mux)

	title := "Renamed"
	task, err := client.UpdateTask(context.Background(), "t1", taskapi.TaskInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Renamed", task.Title)
}

func TestUser_CachedAfterFirstFetch(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/user/u1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(t, w, `{"data":{"id":"u1","email":"jane@example.com"}}`)
	})
	client := newTestClient(t, mux)

	for i := 0; i < 3; i++ {
		user, err := client.User(context.Background(), "u1")
		require.NoError(t, err)
		require.Equal(t, "jane@example.com", user.Email)
	}
	require.EqualValues(t, 1, calls)
}

func TestUpdateUser_InvalidatesCache(t *testing.T) {
	var fetches int32
	mux := http.NewServeMux()
	mux.HandleFunc("/user/u1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			writeJSON(t, w, `{"data":{"id":"u1","email":"new@example.com"}}`)
			return
		}
		atomic.AddInt32(&fetches, 1)
		writeJSON(t, w, `{"data":{"id":"u1","email":"old@example.com"}}`)
	})
	client := newTestClient(t, mux)

	_, err := client.User(context.Background(), "u1")
	require.NoError(t, err)

	_, err = client.UpdateUser(context.Background(), "u1", taskapi.UserInput{Email: "new@example.com"})
	require.NoError(t, err)

	// The stale directory entry is gone; the next read refetches.
	_, err = client.User(context.Background(), "u1")
	require.NoError(t, err)
	require.EqualValues(t, 2, fetches)
}

func TestSearch_EscapesQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "login & sessions", r.URL.Query().Get("q"))
		writeJSON(t, w, `{"data":{"items":[{"entity_type":"task","entity_id":"t1","title":"Fix login"}],"total":1}}`)
	})
	client := newTestClient(t, mux)

	hits, err := client.Search(context.Background(), "login & sessions")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "task", hits[0].EntityType)
	require.Equal(t, "Fix login", hits[0].Title)
}

func TestImage_UploadAndCachedFetch(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	var fetches int32
	mux := http.NewServeMux()
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, base64.StdEncoding.EncodeToString(raw), body["content"])
		require.Equal(t, "t1", body["task_id"])
		writeJSON(t, w, `{"data":{"id":"img1","file_name":"shot.png"}}`)
	})
	mux.HandleFunc("/image/img1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		writeJSON(t, w, `{"data":{"content":"`+base64.StdEncoding.EncodeToString(raw)+`"}}`)
	})
	client := newTestClient(t, mux)

	att, err := client.UploadImage(context.Background(), "t1", "shot.png", raw)
	require.NoError(t, err)
	require.Equal(t, "img1", att.ID)

	for i := 0; i < 2; i++ {
		got, err := client.Image(context.Background(), "img1")
		require.NoError(t, err)
		require.Equal(t, raw, got)
	}
	require.EqualValues(t, 1, fetches)

	client.InvalidateImage("img1")
	_, err = client.Image(context.Background(), "img1")
	require.NoError(t, err)
	require.EqualValues(t, 2, fetches)
}
