package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mauv0809/chess-duels/internal/chat"
	"github.com/mauv0809/chess-duels/internal/config"
	"github.com/mauv0809/chess-duels/internal/duels"
	"github.com/mauv0809/chess-duels/internal/ledger"
	"github.com/mauv0809/chess-duels/internal/lichess"
	"github.com/mauv0809/chess-duels/internal/metrics"
	"github.com/mauv0809/chess-duels/internal/notifier"
	"github.com/mauv0809/chess-duels/internal/pubsub"
	"github.com/mauv0809/chess-duels/internal/registry"
	"github.com/mauv0809/chess-duels/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type testServer struct {
	*Server
	feed     *lichess.MockClient
	notifier *notifier.Mock
	pubsub   *pubsub.MockPubSubClient
}

// setupTestServer wires a server against a fresh store file and mock clients.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	feed := lichess.NewMockClient()
	mockNotifier := notifier.NewMock()
	mockPubSub := pubsub.NewMock()

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)

	syncer := duels.NewSyncer(st, feed, metricsSvc, mockNotifier, mockPubSub, duels.Options{})
	server := NewServer(registry.New(st, feed), chat.New(st), syncer, mockNotifier, metricsSvc, metricsHandler, config.Config{}, mockPubSub)

	return &testServer{Server: server, feed: feed, notifier: mockNotifier, pubsub: mockPubSub}
}

func doJSON(t *testing.T, s *testServer, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

// registerLinked registers each username and links it to "<name>_lc".
func registerLinked(t *testing.T, s *testServer, names ...string) {
	t.Helper()
	for _, name := range names {
		rr := doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: name})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		rr = doJSON(t, s, http.MethodPost, "/api/users/"+name+"/lichess", linkRequest{LichessUsername: name + "_lc"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
}

func TestHealthCheckHandler(t *testing.T) {
	s := setupTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	body := decode[map[string]any](t, rr)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["time"])
}

func TestUserHandlers(t *testing.T) {
	t.Run("register and list", func(t *testing.T) {
		s := setupTestServer(t)

		rr := doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "alice"})
		require.Equal(t, http.StatusCreated, rr.Code)
		created := decode[struct {
			User publicUser `json:"user"`
		}](t, rr)
		assert.Equal(t, "alice", created.User.Username)
		assert.NotEmpty(t, created.User.ID)
		assert.Nil(t, created.User.LichessUsername)

		rr = doJSON(t, s, http.MethodGet, "/api/users", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"lichessUsername":null`)
		listed := decode[struct {
			Users []publicUser `json:"users"`
		}](t, rr)
		require.Len(t, listed.Users, 1)
		assert.Equal(t, "alice", listed.Users[0].Username)
	})

	t.Run("invalid username is rejected", func(t *testing.T) {
		s := setupTestServer(t)
		rr := doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "a!"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		s := setupTestServer(t)
		doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "alice"})
		rr := doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "ALICE"})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		s := setupTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString("{"))
		rr := httptest.NewRecorder()
		s.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLinkLichessHandler(t *testing.T) {
	t.Run("link by handle", func(t *testing.T) {
		s := setupTestServer(t)
		doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "alice"})

		rr := doJSON(t, s, http.MethodPost, "/api/users/alice/lichess", linkRequest{LichessUsername: "AliceLC"})

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		body := decode[struct {
			User publicUser `json:"user"`
		}](t, rr)
		require.NotNil(t, body.User.LichessUsername)
		assert.Equal(t, "AliceLC", *body.User.LichessUsername)
		assert.NotNil(t, body.User.LinkedAt)
	})

	t.Run("link by token", func(t *testing.T) {
		s := setupTestServer(t)
		s.feed.AccountFunc = func(ctx context.Context, token string) (lichess.Account, error) {
			return lichess.Account{Username: "alice_lc"}, nil
		}
		doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "alice"})

		rr := doJSON(t, s, http.MethodPost, "/api/users/alice/lichess", linkRequest{Token: "lip_abc"})

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Contains(t, rr.Body.String(), `"lichessUsername":"alice_lc"`)
		assert.Equal(t, []string{"lip_abc"}, s.feed.AccountCalls)
	})

	t.Run("rejected token", func(t *testing.T) {
		s := setupTestServer(t)
		doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "alice"})
		rr := doJSON(t, s, http.MethodPost, "/api/users/alice/lichess", linkRequest{Token: "bad"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing handle and token", func(t *testing.T) {
		s := setupTestServer(t)
		doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "alice"})
		rr := doJSON(t, s, http.MethodPost, "/api/users/alice/lichess", linkRequest{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		s := setupTestServer(t)
		rr := doJSON(t, s, http.MethodPost, "/api/users/nobody/lichess", linkRequest{LichessUsername: "x_lc"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("handle already linked to someone else", func(t *testing.T) {
		s := setupTestServer(t)
		registerLinked(t, s, "alice")
		doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "bob"})
		rr := doJSON(t, s, http.MethodPost, "/api/users/bob/lichess", linkRequest{LichessUsername: "alice_lc"})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unlink", func(t *testing.T) {
		s := setupTestServer(t)
		registerLinked(t, s, "alice")
		rr := doJSON(t, s, http.MethodDelete, "/api/users/alice/lichess", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"lichessUsername":null`)
	})
}

func TestDuelsMatrixHandler(t *testing.T) {
	s := setupTestServer(t)
	registerLinked(t, s, "alice", "bob")
	playedAt := time.Now().Add(-time.Hour).UnixMilli()
	s.feed.GamesSinceFunc = func(ctx context.Context, username string, sinceMs int64) ([]ledger.Game, error) {
		if username != "alice_lc" {
			return []ledger.Game{}, nil
		}
		return []ledger.Game{{ID: "g1", White: "alice_lc", Black: "bob_lc", Winner: ledger.WinnerWhite, CreatedAt: playedAt}}, nil
	}

	rr := doJSON(t, s, http.MethodGet, "/api/duels", nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	view := decode[ledger.Matrix](t, rr)
	assert.Equal(t, []string{"alice", "bob"}, view.Names)
	require.NotNil(t, view.UpdatedAt)
	require.NotNil(t, view.Cells["alice"]["bob"])
	assert.Equal(t, 1, view.Cells["alice"]["bob"].W)
	assert.Equal(t, 1, view.Cells["bob"]["alice"].L)
	assert.Nil(t, view.Cells["alice"]["alice"])

	t.Run("fresh read does not refetch", func(t *testing.T) {
		s.feed.Reset()
		rr := doJSON(t, s, http.MethodGet, "/api/duels", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, s.feed.Calls())
	})

	t.Run("snapshot never fetches even when forced", func(t *testing.T) {
		s.feed.Reset()
		rr := doJSON(t, s, http.MethodGet, "/api/duels?snapshot=1&force=1", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, s.feed.Calls())
	})

	t.Run("force refetches", func(t *testing.T) {
		s.feed.Reset()
		rr := doJSON(t, s, http.MethodGet, "/api/duels?force=true", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, s.feed.Calls(), 2)
		view := decode[ledger.Matrix](t, rr)
		assert.Equal(t, 1, view.Cells["alice"]["bob"].Games, "a redelivered game is not counted twice")
	})
}

func TestSyncDuelsHandler(t *testing.T) {
	s := setupTestServer(t)
	registerLinked(t, s, "alice", "bob")
	s.feed.GamesSinceFunc = func(ctx context.Context, username string, sinceMs int64) ([]ledger.Game, error) {
		if username == "bob_lc" {
			return nil, &lichess.FeedFetchError{Username: username, StatusCode: http.StatusTooManyRequests}
		}
		return []ledger.Game{}, nil
	}

	rr := doJSON(t, s, http.MethodPost, "/api/duels/sync", nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[duels.PassResult](t, rr)
	assert.True(t, res.Ran)
	assert.Equal(t, 2, res.Accounts)
	assert.Equal(t, []string{"bob_lc"}, res.Failed)
	require.NotNil(t, res.LastSyncPassAt)

	t.Run("throttled without force", func(t *testing.T) {
		rr := doJSON(t, s, http.MethodPost, "/api/duels/sync", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		res := decode[duels.PassResult](t, rr)
		assert.False(t, res.Ran)
	})

	t.Run("force bypasses throttle", func(t *testing.T) {
		rr := doJSON(t, s, http.MethodPost, "/api/duels/sync?force=1", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		res := decode[duels.PassResult](t, rr)
		assert.True(t, res.Ran)
	})
}

func TestAnnounceStandingsHandler(t *testing.T) {
	t.Run("sends current standings with dry run flag", func(t *testing.T) {
		s := setupTestServer(t)
		registerLinked(t, s, "alice", "bob")
		var gotDryRun bool
		s.notifier.SendStandingsFunc = func(matrix ledger.Matrix, dryRun bool) error {
			gotDryRun = dryRun
			return nil
		}

		rr := doJSON(t, s, http.MethodPost, "/api/duels/announce?dry_run=true", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, s.notifier.SendStandingsCalls, 1)
		assert.Equal(t, []string{"alice", "bob"}, s.notifier.SendStandingsCalls[0].Names)
		assert.True(t, gotDryRun)
		assert.Empty(t, s.feed.Calls(), "announcing does not sync")
	})

	t.Run("notifier failure", func(t *testing.T) {
		s := setupTestServer(t)
		s.notifier.SendStandingsFunc = func(matrix ledger.Matrix, dryRun bool) error {
			return errors.New("slack down")
		}
		rr := doJSON(t, s, http.MethodPost, "/api/duels/announce", nil)
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestChatHandlers(t *testing.T) {
	s := setupTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/users", registerRequest{Username: "alice"})

	rr := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{Username: "alice", Text: "gg"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	posted := decode[struct {
		OK       bool                `json:"ok"`
		Message  store.ChatMessage   `json:"message"`
		Messages []store.ChatMessage `json:"messages"`
	}](t, rr)
	assert.True(t, posted.OK)
	assert.Equal(t, "gg", posted.Message.Text)
	assert.Len(t, posted.Messages, 1)

	rr = doJSON(t, s, http.MethodGet, "/api/chat", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	listed := decode[struct {
		Messages []store.ChatMessage `json:"messages"`
	}](t, rr)
	require.Len(t, listed.Messages, 1)
	assert.Equal(t, "alice", listed.Messages[0].Username)

	t.Run("empty message", func(t *testing.T) {
		rr := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{Username: "alice", Text: "   "})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown author", func(t *testing.T) {
		rr := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{Username: "mallory", Text: "hi"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func pushBody(t *testing.T, payload any) map[string]any {
	t.Helper()
	data, err := msgpack.Marshal(payload)
	require.NoError(t, err)
	return map[string]any{
		"subscription": "projects/test/subscriptions/sync",
		"message": map[string]any{
			"data":      base64.StdEncoding.EncodeToString(data),
			"messageId": "1",
		},
	}
}

func TestPubSubSyncHandler(t *testing.T) {
	t.Run("forced request runs a pass", func(t *testing.T) {
		s := setupTestServer(t)
		registerLinked(t, s, "alice")

		rr := doJSON(t, s, http.MethodPost, "/pubsub/sync", pushBody(t, pubsub.SyncRequest{Force: true}))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.True(t, decode[duels.PassResult](t, rr).Ran)
		assert.Len(t, s.feed.Calls(), 1)
		assert.Len(t, s.pubsub.ProcessMessageCalls, 1)
	})

	t.Run("invalid base64", func(t *testing.T) {
		s := setupTestServer(t)
		body := map[string]any{"message": map[string]any{"data": "%%%"}}
		rr := doJSON(t, s, http.MethodPost, "/pubsub/sync", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("undecodable payload", func(t *testing.T) {
		s := setupTestServer(t)
		s.pubsub.ProcessMessageFunc = func(data []byte, returnValue any) error {
			return errors.New("bad payload")
		}
		rr := doJSON(t, s, http.MethodPost, "/pubsub/sync", pushBody(t, pubsub.SyncRequest{}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/duels/sync", nil)

	rr := doJSON(t, s, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "chessduels_sync_passes_total 1")
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{registry.ErrInvalidUsername, http.StatusBadRequest},
		{lichess.ErrMissingToken, http.StatusBadRequest},
		{chat.ErrMessageTooLong, http.StatusBadRequest},
		{registry.ErrUserNotFound, http.StatusNotFound},
		{registry.ErrLichessLinked, http.StatusConflict},
		{lichess.ErrUnexpectedResponse, http.StatusBadGateway},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}
