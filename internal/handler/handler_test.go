package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/vines-backend/internal/auth"
	"github.com/sakif/vines-backend/internal/model"
	sqliteRepo "github.com/sakif/vines-backend/internal/repository/sqlite"
	"github.com/sakif/vines-backend/internal/service"
)

// HANDLER TESTS:
// These run the real handlers, services and SQLite repository behind the
// real auth middleware. Only the token verifier is stubbed (a token is just
// a lookup key) and the clock is pinned to Wednesday 2026-10-14.

var wednesday = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

type stubVerifier map[string]model.Principal

func (v stubVerifier) Verify(_ context.Context, token string) (model.Principal, error) {
	p, ok := v[token]
	if !ok {
		return model.Principal{}, auth.ErrInvalidToken
	}
	return p, nil
}

var testUsers = stubVerifier{
	"alice-token": {UserID: "alice", DisplayName: "alice", Email: "alice@example.com"},
	"bob-token":   {UserID: "bob", DisplayName: "bob", Email: "bob@example.com"},
	"carol-token": {UserID: "carol", DisplayName: "carol", Email: "carol@example.com"},
}

type testEnv struct {
	router http.Handler
	db     *sqliteRepo.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cal := service.Calendar{Now: func() time.Time { return wednesday }, Location: time.UTC}

	users := service.NewUserService(db, cal, logger)
	userH := NewUserHandler(users, logger)
	friendH := NewFriendHandler(service.NewFriendService(db, logger), logger)
	gardenH := NewGardenHandler(service.NewGardenService(db, db, cal, logger), logger)
	scoreH := NewScoreHandler(service.NewScoreService(db, cal, logger), logger)
	metricsH := NewMetricsHandler(service.NewMetricsService(db, cal, logger), logger)
	diaryH := NewDiaryHandler(service.NewDiaryService(db, db, cal, logger), logger)
	locationH := NewLocationHandler(service.NewLocationService(db, cal, logger), logger)
	healthH := NewHealthHandler(db, "test", logger)

	r := chi.NewRouter()
	r.Get("/health", healthH.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(testUsers, users, logger))

		r.Get("/users/me", userH.HandleMe)
		r.Patch("/users/me", userH.HandleUpdateMe)
		r.Get("/users/search", userH.HandleSearch)
		r.Get("/users/{userId}", userH.HandleGetUser)

		r.Get("/friends", friendH.HandleListFriends)
		r.Post("/friends/requests", friendH.HandleSendRequest)
		r.Get("/friends/requests", friendH.HandleListRequests)
		r.Post("/friends/requests/{userId}/accept", friendH.HandleAccept)
		r.Post("/friends/requests/{userId}/decline", friendH.HandleDecline)
		r.Delete("/friends/requests/{userId}", friendH.HandleCancel)
		r.Get("/friends/{userId}/status", friendH.HandleStatus)
		r.Delete("/friends/{userId}", friendH.HandleRemove)

		r.Post("/garden/checkin", gardenH.HandleCheckin)
		r.Get("/garden/week", gardenH.HandleThisWeek)
		r.Get("/garden/recent", gardenH.HandleRecent)
		r.Get("/garden/friends-today", gardenH.HandleFriendsToday)
		r.Get("/garden/user/{userId}/week", gardenH.HandleUserWeek)

		r.Post("/scores", scoreH.HandleCreate)
		r.Get("/scores", scoreH.HandleList)
		r.Put("/scores/{date}", scoreH.HandleUpdate)

		r.Post("/metrics/device", metricsH.HandleUpsert)
		r.Get("/metrics/device", metricsH.HandleRange)
		r.Post("/metrics/device/batch", metricsH.HandleBatch)
		r.Get("/metrics/device/{date}", metricsH.HandleGet)
		r.Delete("/metrics/device/{date}", metricsH.HandleDelete)

		r.Post("/diary", diaryH.HandleCreate)
		r.Get("/diary/me", diaryH.HandleMine)
		r.Get("/diary/friends", diaryH.HandleFriends)
		r.Get("/diary/user/{userId}", diaryH.HandleByUser)
		r.Delete("/diary/{entryId}", diaryH.HandleDelete)
		r.Post("/diary/{entryId}/reactions", diaryH.HandleReact)
		r.Delete("/diary/{entryId}/reactions", diaryH.HandleUnreact)
		r.Post("/diary/{entryId}/comments", diaryH.HandleComment)
		r.Get("/diary/{entryId}/comments", diaryH.HandleComments)
		r.Delete("/diary/{entryId}/comments/{commentId}", diaryH.HandleDeleteComment)

		r.Post("/location/summary", locationH.HandleUpsert)
		r.Get("/location/summary", locationH.HandleGet)
	})

	return &testEnv{router: r, db: db}
}

// do sends a request as the user owning token ("" for anonymous). body is
// JSON-encoded unless it is already a string.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login makes sure the user behind token has a users row.
func (e *testEnv) login(t *testing.T, tokens ...string) {
	t.Helper()
	for _, tok := range tokens {
		rec := e.do(t, http.MethodGet, "/api/users/me", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

func (e *testEnv) befriend(t *testing.T, fromToken, toToken, toID, fromID string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/friends/requests", fromToken, map[string]string{"toUserId": toID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = e.do(t, http.MethodPost, "/api/friends/requests/"+fromID+"/accept", toToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind string) ErrorResponse {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, kind, body.Error)
	assert.NotEmpty(t, body.Message)
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthResponse{OK: true, Env: "test"}, decode[HealthResponse](t, rec))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func TestHealth_DatabaseDown(t *testing.T) {
	h := NewHealthHandler(failingPinger{}, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, decode[HealthResponse](t, rec).OK)
}

func TestUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	paths := []string{"/api/friends", "/api/garden/week", "/api/users/me", "/api/scores"}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			assertError(t, env.do(t, http.MethodGet, p, "", nil), http.StatusUnauthorized, "unauthorized")
			assertError(t, env.do(t, http.MethodGet, p, "forged", nil), http.StatusUnauthorized, "unauthorized")
		})
	}
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice-token", "bob-token")

	t.Run("me is seeded from the token", func(t *testing.T) {
		me := decode[model.User](t, env.do(t, http.MethodGet, "/api/users/me", "alice-token", nil))
		assert.Equal(t, "alice", me.ID)
		assert.Equal(t, "alice", me.Username)
		assert.Equal(t, "alice@example.com", me.Email)
	})

	t.Run("patch me", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/api/users/me", "alice-token",
			map[string]string{"username": "  Alice_W  ", "birthday": "1999-04-01"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		me := decode[model.User](t, rec)
		assert.Equal(t, "Alice_W", me.Username)
		assert.Equal(t, "1999-04-01", me.Birthday)
		assert.Equal(t, "alice@example.com", me.Email, "untouched fields keep their value")
	})

	t.Run("patch validation", func(t *testing.T) {
		body := assertError(t, env.do(t, http.MethodPatch, "/api/users/me", "alice-token",
			map[string]string{"email": "not-an-email"}), http.StatusBadRequest, "validation_error")
		assert.Equal(t, "email", body.Field)

		assertError(t, env.do(t, http.MethodPatch, "/api/users/me", "alice-token", "{}"),
			http.StatusBadRequest, "validation_error")
		assertError(t, env.do(t, http.MethodPatch, "/api/users/me", "alice-token", "{not json"),
			http.StatusBadRequest, "validation_error")
	})

	t.Run("search ignores case", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/search?username=alice_w", "bob-token", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		found := decode[[]model.PublicProfile](t, rec)
		require.Len(t, found, 1)
		assert.Equal(t, "alice", found[0].ID)
	})

	t.Run("get by id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/bob", "alice-token", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bob", decode[model.User](t, rec).ID)

		assertError(t, env.do(t, http.MethodGet, "/api/users/nobody", "alice-token", nil),
			http.StatusNotFound, "not_found")
	})
}

func TestFriendRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice-token", "bob-token")

	// alice -> bob
	rec := env.do(t, http.MethodPost, "/api/friends/requests", "alice-token", map[string]string{"toUserId": "bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decode[model.FriendRequest](t, rec)
	assert.Equal(t, "alice", req.RequesterID)
	assert.Equal(t, "bob", req.ReceiverID)
	assert.Equal(t, model.FriendPending, req.Status)
	assert.Equal(t, "bob", req.OtherUserID)
	assert.Equal(t, model.DirectionOutgoing, req.Direction)

	// repeat send is a conflict
	assertError(t, env.do(t, http.MethodPost, "/api/friends/requests", "alice-token",
		map[string]string{"toUserId": "bob"}), http.StatusConflict, "already_exists")

	// bob sending back while alice's is pending is a conflict too
	assertError(t, env.do(t, http.MethodPost, "/api/friends/requests", "bob-token",
		map[string]string{"toUserId": "alice"}), http.StatusConflict, "already_exists")

	// bob sees it as incoming, alice as outgoing
	incoming := decode[[]model.FriendRequest](t, env.do(t, http.MethodGet, "/api/friends/requests?type=incoming", "bob-token", nil))
	require.Len(t, incoming, 1)
	assert.Equal(t, "alice", incoming[0].OtherUserID)
	assert.Equal(t, model.DirectionIncoming, incoming[0].Direction)

	outgoing := decode[[]model.FriendRequest](t, env.do(t, http.MethodGet, "/api/friends/requests?type=outgoing", "alice-token", nil))
	require.Len(t, outgoing, 1)
	assert.Equal(t, "bob", outgoing[0].OtherUserID)

	// bob accepts
	rec = env.do(t, http.MethodPost, "/api/friends/requests/alice/accept", "bob-token", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, OKResponse{OK: true}, decode[OKResponse](t, rec))

	// both see each other
	aliceFriends := decode[[]model.Friend](t, env.do(t, http.MethodGet, "/api/friends", "alice-token", nil))
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, "bob", aliceFriends[0].ID)

	bobFriends := decode[[]model.Friend](t, env.do(t, http.MethodGet, "/api/friends", "bob-token", nil))
	require.Len(t, bobFriends, 1)
	assert.Equal(t, "alice", bobFriends[0].ID)

	// nothing left pending
	pending := decode[[]model.FriendRequest](t, env.do(t, http.MethodGet, "/api/friends/requests", "bob-token", nil))
	assert.Empty(t, pending)

	st := decode[model.FriendshipStatus](t, env.do(t, http.MethodGet, "/api/friends/bob/status", "alice-token", nil))
	assert.Equal(t, model.FriendAccepted, st.Outgoing)
	assert.Equal(t, model.FriendAccepted, st.Incoming)

	// accepting again is harmless
	rec = env.do(t, http.MethodPost, "/api/friends/requests/alice/accept", "bob-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// unfriend removes both edges, a second time removes nothing
	rec = env.do(t, http.MethodDelete, "/api/friends/bob", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RemovedResponse{Removed: 2}, decode[RemovedResponse](t, rec))

	rec = env.do(t, http.MethodDelete, "/api/friends/bob", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RemovedResponse{Removed: 0}, decode[RemovedResponse](t, rec))

	assert.Empty(t, decode[[]model.Friend](t, env.do(t, http.MethodGet, "/api/friends", "bob-token", nil)))
}

func TestSendRequest_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice-token")

	tests := []struct {
		name      string
		body      any
		wantCode  int
		wantKind  string
		wantField string
	}{
		{"missing body", nil, http.StatusBadRequest, "validation_error", "body"},
		{"missing toUserId", map[string]string{}, http.StatusBadRequest, "validation_error", "toUserId"},
		{"self", map[string]string{"toUserId": "alice"}, http.StatusBadRequest, "validation_error", "toUserId"},
		{"unknown receiver", map[string]string{"toUserId": "ghost"}, http.StatusNotFound, "not_found", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/friends/requests", "alice-token", tt.body)
			body := assertError(t, rec, tt.wantCode, tt.wantKind)
			assert.Equal(t, tt.wantField, body.Field)
		})
	}
}

func TestDeclineAndCancel(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice-token", "bob-token", "carol-token")

	// nothing to act on
	assertError(t, env.do(t, http.MethodPost, "/api/friends/requests/alice/decline", "bob-token", nil),
		http.StatusNotFound, "not_found")
	assertError(t, env.do(t, http.MethodDelete, "/api/friends/requests/bob", "alice-token", nil),
		http.StatusNotFound, "not_found")
	assertError(t, env.do(t, http.MethodPost, "/api/friends/requests/alice/accept", "bob-token", nil),
		http.StatusNotFound, "not_found")

	// alice -> bob, declined; accepting afterwards is not_pending
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/api/friends/requests", "alice-token", map[string]string{"toUserId": "bob"}).Code)
	rec := env.do(t, http.MethodPost, "/api/friends/requests/alice/decline", "bob-token", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertError(t, env.do(t, http.MethodPost, "/api/friends/requests/alice/accept", "bob-token", nil),
		http.StatusConflict, "not_pending")

	// alice -> carol, cancelled by alice; carol can no longer accept
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/api/friends/requests", "alice-token", map[string]string{"toUserId": "carol"}).Code)
	rec = env.do(t, http.MethodDelete, "/api/friends/requests/carol", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertError(t, env.do(t, http.MethodPost, "/api/friends/requests/alice/accept", "carol-token", nil),
		http.StatusNotFound, "not_found")

	assert.Empty(t, decode[[]model.FriendRequest](t, env.do(t, http.MethodGet, "/api/friends/requests", "carol-token", nil)))
}

func TestGardenCheckin_FirstFlowerWins(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice-token")

	// empty shell before any check-in
	rec := env.do(t, http.MethodGet, "/api/garden/week", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shell := decode[model.WeeklyGarden](t, rec)
	assert.Equal(t, "2026-10-12", shell.WeekMonday)
	assert.Equal(t, 0, shell.EarnedCount)
	assert.Nil(t, shell.Image3)

	rec = env.do(t, http.MethodPost, "/api/garden/checkin", "alice-token", map[string]string{"flower_name": "rose"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	g := decode[model.WeeklyGarden](t, rec)
	require.NotNil(t, g.Image3, "Wednesday is slot 3")
	assert.Equal(t, "rose", *g.Image3)
	assert.Equal(t, 1, g.EarnedCount)

	rec = env.do(t, http.MethodPost, "/api/garden/checkin", "alice-token",
		map[string]string{"flower_name": "tulip", "pot_image": "terracotta"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	g = decode[model.WeeklyGarden](t, rec)
	assert.Equal(t, "rose", *g.Image3)
	assert.Equal(t, 1, g.EarnedCount)
	require.NotNil(t, g.PotImage)
	assert.Equal(t, "terracotta", *g.PotImage)

	week := decode[model.WeeklyGarden](t, env.do(t, http.MethodGet, "/api/garden/week", "alice-token", nil))
	assert.Equal(t, "rose", *week.Image3)
}

func TestGardenCheckin_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice-token")

	body := assertError(t, env.do(t, http.MethodPost, "/api/garden/checkin", "alice-token",
		map[string]string{}), http.StatusBadRequest, "validation_error")
	assert.Equal(t, "flower_name", body.Field)

	body = assertError(t, env.do(t, http.MethodPost, "/api/garden/checkin", "alice-token",
		map[string]string{"flower_name": "rose", "date": "14/10/2026"}), http.StatusBadRequest, "validation_error")
	assert.Equal(t, "date", body.Field)
}

func TestGardenRecentAndFriends(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice-token", "bob-token", "carol-token")
	env.befriend(t, "alice-token", "bob-token", "bob", "alice")
	env.befriend(t, "alice-token", "carol-token", "carol", "alice")

	// bob checks in today, carol only last week
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/garden/checkin", "bob-token",
		map[string]string{"flower_name": "daisy"}).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/garden/checkin", "carol-token",
		map[string]string{"flower_name": "lily", "date": "2026-10-07"}).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/garden/checkin", "carol-token",
		map[string]string{"flower_name": "iris", "date": "2026-08-03"}).Code)

	rec := env.do(t, http.MethodGet, "/api/garden/friends-today", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	today := decode[[]model.FriendCheckin](t, rec)
	require.Len(t, today, 1)
	assert.Equal(t, "bob", today[0].UserID)
	assert.Equal(t, "daisy", today[0].Flower)
	assert.Equal(t, "2026-10-14", today[0].CheckedInAt)

	recent := decode[[]model.WeeklyGarden](t, env.do(t, http.MethodGet, "/api/garden/recent", "carol-token", nil))
	require.Len(t, recent, 1, "the August week is outside the window")
	assert.Equal(t, "2026-10-05", recent[0].WeekMonday)

	bobWeek := decode[model.WeeklyGarden](t, env.do(t, http.MethodGet, "/api/garden/user/bob/week", "alice-token", nil))
	assert.Equal(t, "daisy", *bobWeek.Image3)

	assertError(t, env.do(t, http.MethodGet, "/api/garden/user/ghost/week", "alice-token", nil),
		http.StatusNotFound, "not_found")
}

func TestScores(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice-token")

	create := map[string]any{
		"score_date":          "2026-10-13",
		"mental_health_score": 0,
		"mental_details":      map[string]any{"mood": "tired"},
	}
	rec := env.do(t, http.MethodPost, "/api/scores", "alice-token", create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	score := decode[model.DailyScore](t, rec)
	assert.NotEmpty(t, score.ID)
	assert.Equal(t, 0, score.MentalHealthScore)
	assert.JSONEq(t, `{"mood":"tired"}`, string(score.MentalDetails))

	assertError(t, env.do(t, http.MethodPost, "/api/scores", "alice-token", create),
		http.StatusConflict, "already_exists")

	rec = env.do(t, http.MethodPut, "/api/scores/2026-10-13", "alice-token", map[string]any{"mental_health_score": 64})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 64, decode[model.DailyScore](t, rec).MentalHealthScore)

	assertError(t, env.do(t, http.MethodPut, "/api/scores/2026-10-01", "alice-token",
		map[string]any{"mental_health_score": 50}), http.StatusNotFound, "not_found")

	body := assertError(t, env.do(t, http.MethodPost, "/api/scores", "alice-token",
		map[string]any{"score_date": "2026-10-14", "mental_health_score": 101}), http.StatusBadRequest, "validation_error")
	assert.Equal(t, "mental_health_score", body.Field)

	list := decode[[]model.DailyScore](t, env.do(t, http.MethodGet, "/api/scores?days=7", "alice-token", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "2026-10-13", list[0].ScoreDate)

	one := decode[[]model.DailyScore](t, env.do(t, http.MethodGet, "/api/scores?date=2026-10-12", "alice-token", nil))
	assert.Empty(t, one)

	assertError(t, env.do(t, http.MethodGet, "/api/scores?days=week", "alice-token", nil),
		http.StatusBadRequest, "validation_error")
	assertError(t, env.do(t, http.MethodGet, "/api/scores?days=400", "alice-token", nil),
		http.StatusBadRequest, "validation_error")
}

func TestDeviceMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "alice-token")

	rec := env.do(t, http.MethodPost, "/api/metrics/device", "alice-token",
		map[string]any{"local_date": "2026-10-14", "screen_time_minutes": 212.5, "unlock_count": 80})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decode[model.DeviceMetrics](t, rec)
	assert.Equal(t, "alice", m.UserID)
	assert.InDelta(t, 212.5, m.ScreenTimeMinutes, 0.001)

	assertError(t, env.do(t, http.MethodPost, "/api/metrics/device", "alice-token",
		map[string]any{"user_id": "bob", "local_date": "2026-10-14", "screen_time_minutes": 1}),
		http.StatusForbidden, "forbidden")

	body := assertError(t, env.do(t, http.MethodPost, "/api/metrics/device", "alice-token",
		map[string]any{"local_date": "2026-10-14", "screen_time_minutes": -1}),
		http.StatusBadRequest, "validation_error")
	assert.Equal(t, "screen_time_minutes", body.Field)

	rec = env.do(t, http.MethodPost, "/api/metrics/device/batch", "alice-token", map[string]any{
		"rows": []map[string]any{
			{"local_date": "2026-10-12", "screen_time_minutes": 90},
			{"local_date": "2026-10-13", "screen_time_minutes": 120, "unlock_count": 40},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	batch := decode[BatchResponse](t, rec)
	assert.Equal(t, 2, batch.Count)
	assert.Len(t, batch.Rows, 2)

	rows := decode[[]model.DeviceMetrics](t, env.do(t, http.MethodGet, "/api/metrics/device", "alice-token", nil))
	require.Len(t, rows, 3)
	assert.Equal(t, "2026-10-12", rows[0].LocalDate)
	assert.Equal(t, "2026-10-14", rows[2].LocalDate)

	rows = decode[[]model.DeviceMetrics](t, env.do(t, http.MethodGet,
		"/api/metrics/device?from=2026-10-13&to=2026-10-13", "alice-token", nil))
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].UnlockCount)
	assert.Equal(t, 40, *rows[0].UnlockCount)

	rec = env.do(t, http.MethodDelete, "/api/metrics/device/2026-10-13", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertError(t, env.do(t, http.MethodGet, "/api/metrics/device/2026-10-13", "alice-token", nil),
		http.StatusNotFound, "not_found")
	assertError(t, env.do(t, http.MethodDelete, "/api/metrics/device/2026-10-13", "alice-token", nil),
		http.StatusNotFound, "not_found")
}
