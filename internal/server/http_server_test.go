package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/app"
	"github.com/tandemapp/tandem-server/internal/cache"
	"github.com/tandemapp/tandem-server/internal/config"
	"github.com/tandemapp/tandem-server/internal/db"
	"github.com/tandemapp/tandem-server/internal/server"
	"github.com/tandemapp/tandem-server/internal/service/admin"
	"github.com/tandemapp/tandem-server/internal/service/couple"
	"github.com/tandemapp/tandem-server/internal/service/feed"
)

// setupRouter wires the full API against an in-memory DB and miniredis,
// seeded with three users (99 is an admin) and two casa activities.
func setupRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	appCtx := app.New(gdb, cache.NewRedisCache(cfg), slog.New(slog.NewTextHandler(io.Discard, nil)))

	users := []db.User{
		{ID: 1, Email: "u1@test.com", PasswordHash: "x", Role: "user"},
		{ID: 2, Email: "u2@test.com", PasswordHash: "x", Role: "user"},
		{ID: 99, Email: "op@test.com", PasswordHash: "x", Role: "admin"},
	}
	require.NoError(t, gdb.Create(&users).Error)

	activities := []db.Activity{
		{Title: "Cook Pasta", Category: "casa", Difficulty: "Medium", Active: true},
		{Title: "Board Games", Category: "casa", Difficulty: "Easy", Active: true},
	}
	require.NoError(t, gdb.Create(&activities).Error)

	router := server.NewRouter(
		feed.NewRegistrar(appCtx),
		couple.NewRegistrar(appCtx),
		admin.NewRegistrar(appCtx),
	)
	return router, gdb
}

func doJSON(t *testing.T, router http.Handler, method, path string, userID uint64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestMissingIdentityRejected(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/feed/current?category=casa", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownCategoryIs404(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/feed/current?category=nope", 1, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPairingFlow(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/couples", 1, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	code, _ := created["inviteCode"].(string)
	require.NotEmpty(t, code)
	assert.Equal(t, false, created["paired"])

	rec = doJSON(t, router, http.MethodPost, "/api/v1/couples/join", 2, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, rec.Code)
	joined := decode(t, rec)
	assert.Equal(t, true, joined["paired"])

	// the code is now inert
	rec = doJSON(t, router, http.MethodPost, "/api/v1/couples/join", 99, map[string]string{"code": code})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/couples/me", 2, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSwipeContract(t *testing.T) {
	router, _ := setupRouter(t)

	// pair 1 and 2 so they share a scope
	rec := doJSON(t, router, http.MethodPost, "/api/v1/couples", 1, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	code := decode(t, rec)["inviteCode"].(string)
	rec = doJSON(t, router, http.MethodPost, "/api/v1/couples/join", 2, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, rec.Code)

	// partner 1 fetches the current card
	rec = doJSON(t, router, http.MethodGet, "/api/v1/feed/current?category=casa", 1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode(t, rec)
	activity := current["activity"].(map[string]any)
	activityID := uint64(activity["id"].(float64))
	state := current["state"].(map[string]any)
	require.Equal(t, float64(0), state["currentIndex"])
	require.Equal(t, float64(2), state["totalItems"])

	// partner 2 sees the identical card
	rec = doJSON(t, router, http.MethodGet, "/api/v1/feed/current?category=casa", 2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	other := decode(t, rec)
	assert.Equal(t, activity["id"], other["activity"].(map[string]any)["id"])

	// mismatch: right index, wrong item
	rec = doJSON(t, router, http.MethodPost, "/api/v1/feed/swipe", 1, map[string]any{
		"category": "casa", "activityId": activityID + 1000, "direction": "like", "expectedIndex": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "mismatch", decode(t, rec)["error"])

	// valid swipe advances
	rec = doJSON(t, router, http.MethodPost, "/api/v1/feed/swipe", 1, map[string]any{
		"category": "casa", "activityId": activityID, "direction": "like", "expectedIndex": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode(t, rec)
	assert.Equal(t, float64(1), result["state"].(map[string]any)["currentIndex"])

	// partner 2 replays the same claim and gets a conflict with fresh state
	rec = doJSON(t, router, http.MethodPost, "/api/v1/feed/swipe", 2, map[string]any{
		"category": "casa", "activityId": activityID, "direction": "dislike", "expectedIndex": 0,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode(t, rec)
	assert.Equal(t, "conflict", conflict["error"])
	assert.Equal(t, float64(1), conflict["state"].(map[string]any)["currentIndex"])
}

func TestResetRequiresAdmin(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/feed/reset", 1, map[string]string{"category": "casa"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/feed/reset", 99, map[string]string{"category": "casa"})
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode(t, rec)["state"].(map[string]any)
	assert.Equal(t, float64(1), state["deckVersion"])
	assert.Equal(t, float64(0), state["currentIndex"])
}

// TestServerErrorBodyIsGeneric verifies 5xx responses never echo internal
// error text; the detail belongs in the log.
func TestServerErrorBodyIsGeneric(t *testing.T) {
	router, gdb := setupRouter(t)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec := doJSON(t, router, http.MethodGet, "/api/v1/feed/current?category=casa", 1, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])
}

func TestAdminStats(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/stats", 1, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/admin/stats", 99, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)
	assert.Equal(t, float64(3), stats["totalUsers"])
	assert.Equal(t, float64(2), stats["totalActivities"])
}
