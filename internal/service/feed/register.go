package feed

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/app"
	svcErr "github.com/tandemapp/tandem-server/internal/errors"
	"github.com/tandemapp/tandem-server/internal/repository"
	"github.com/tandemapp/tandem-server/internal/server"
)

const historyPageSize = 20

// Registrar ties the feed service into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the feed service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register mounts the feed routes.
func (reg *Registrar) Register(r chi.Router) {
	h := &handler{
		appCtx:  reg.appCtx,
		svc:     NewService(reg.appCtx),
		users:   repository.NewUserRepository(reg.appCtx.DB),
		couples: repository.NewCoupleRepository(reg.appCtx.DB),
	}

	r.Route("/feed", func(r chi.Router) {
		r.Get("/current", h.handleCurrent)
		r.Post("/swipe", h.handleSwipe)
		r.Post("/reset", h.handleReset)
		r.Get("/history", h.handleHistory)
	})
}

type handler struct {
	appCtx  *app.AppContext
	svc     *Service
	users   *repository.UserRepository
	couples *repository.CoupleRepository
}

// GET /feed/current?category=
func (h *handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := server.UserID(ctx)

	category, err := NormalizeCategory(r.URL.Query().Get("category"))
	if err != nil {
		server.Fail(w, svcErr.HTTPStatus(err), err.Error())
		return
	}

	scope, err := h.svc.ResolveScope(ctx, userID)
	if err != nil {
		h.fail(w, "resolve scope failed", err)
		return
	}

	h.appCtx.Logger.Debug("fetch current", "scope", scope.String(), "category", category)

	resp, err := h.svc.FetchCurrent(ctx, scope, category)
	if err != nil {
		h.fail(w, "fetch current failed", err)
		return
	}
	server.JSON(w, http.StatusOK, resp)
}

type swipeRequest struct {
	Category      string `json:"category"`
	ActivityID    uint64 `json:"activityId"`
	Direction     string `json:"direction"`
	ExpectedIndex int    `json:"expectedIndex"`
}

// POST /feed/swipe
func (h *handler) handleSwipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := server.UserID(ctx)

	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := NormalizeCategory(req.Category)
	if err != nil {
		server.Fail(w, svcErr.HTTPStatus(err), err.Error())
		return
	}

	scope, err := h.svc.ResolveScope(ctx, userID)
	if err != nil {
		h.fail(w, "resolve scope failed", err)
		return
	}

	h.appCtx.Logger.Debug("swipe submitted",
		"scope", scope.String(), "user", userID, "category", category,
		"activity", req.ActivityID, "direction", req.Direction, "expected_index", req.ExpectedIndex)

	result, err := h.svc.Swipe(ctx, scope, userID, category, req.ActivityID, req.Direction, req.ExpectedIndex)
	if err != nil {
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			server.JSON(w, http.StatusConflict, map[string]any{
				"error": "conflict",
				"state": conflict.State,
			})
		case errors.Is(err, svcErr.ErrMismatch):
			server.Fail(w, http.StatusBadRequest, "mismatch")
		default:
			h.fail(w, "swipe failed", err)
		}
		return
	}
	server.JSON(w, http.StatusOK, result)
}

type resetRequest struct {
	Category string `json:"category"`
}

// POST /feed/reset — operator/debug endpoint, admin role required.
func (h *handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := server.UserID(ctx)

	admin, err := h.users.IsAdmin(ctx, userID)
	if err != nil {
		h.fail(w, "role check failed", err)
		return
	}
	if !admin {
		server.Fail(w, http.StatusForbidden, "forbidden")
		return
	}

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := NormalizeCategory(req.Category)
	if err != nil {
		server.Fail(w, svcErr.HTTPStatus(err), err.Error())
		return
	}

	scope, err := h.svc.ResolveScope(ctx, userID)
	if err != nil {
		h.fail(w, "resolve scope failed", err)
		return
	}

	state, err := h.svc.Reset(ctx, scope, category)
	if err != nil {
		h.fail(w, "reset failed", err)
		return
	}

	h.appCtx.Logger.Info("feed reset", "scope", scope.String(), "category", category, "version", state.DeckVersion)
	server.JSON(w, http.StatusOK, map[string]any{"state": state})
}

type historyEntry struct {
	UserID     uint64    `json:"userId"`
	ActivityID uint64    `json:"activityId"`
	Direction  string    `json:"direction"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GET /feed/history?category=&paginationToken=
func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := server.UserID(ctx)

	category, err := NormalizeCategory(r.URL.Query().Get("category"))
	if err != nil {
		server.Fail(w, svcErr.HTTPStatus(err), err.Error())
		return
	}

	couple, err := h.couples.GetByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		server.Fail(w, svcErr.HTTPStatus(svcErr.ErrNotPaired), "not paired")
		return
	}
	if err != nil {
		h.fail(w, "couple lookup failed", err)
		return
	}

	var token *string
	if raw := r.URL.Query().Get("paginationToken"); raw != "" {
		token = &raw
	}

	records, nextToken, err := h.svc.History(ctx, couple.ID, category, token, historyPageSize)
	if err != nil {
		h.fail(w, "history failed", err)
		return
	}

	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, historyEntry{
			UserID:     rec.UserID,
			ActivityID: rec.ActivityID,
			Direction:  rec.Direction,
			CreatedAt:  rec.CreatedAt,
		})
	}

	resp := map[string]any{"swipes": entries}
	if nextToken != nil {
		resp["nextPaginationToken"] = *nextToken
	}
	server.JSON(w, http.StatusOK, resp)
}

// fail logs unexpected errors and writes the mapped status. Expected typed
// results (conflict, mismatch) never pass through here. On 5xx the detail
// stays in the log; clients get a generic body.
func (h *handler) fail(w http.ResponseWriter, msg string, err error) {
	status := svcErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.appCtx.Logger.Error(msg, "err", err)
		server.Fail(w, status, "internal error")
		return
	}
	server.Fail(w, status, err.Error())
}
