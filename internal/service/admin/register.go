package admin

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tandemapp/tandem-server/internal/app"
	svcErr "github.com/tandemapp/tandem-server/internal/errors"
	"github.com/tandemapp/tandem-server/internal/server"
)

// Registrar ties the admin service into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the admin service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register mounts the admin routes behind the role gate.
func (reg *Registrar) Register(r chi.Router) {
	h := &handler{appCtx: reg.appCtx, svc: NewService(reg.appCtx)}

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/stats", h.handleStats)
		r.Patch("/activities/{id}", h.handleSetActive)
	})
}

type handler struct {
	appCtx *app.AppContext
	svc    *Service
}

func (h *handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, err := h.svc.IsAdmin(r.Context(), server.UserID(r.Context()))
		if err != nil {
			h.fail(w, "role check failed", err)
			return
		}
		if !admin {
			server.Fail(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GET /admin/stats
func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.fail(w, "stats failed", err)
		return
	}
	server.JSON(w, http.StatusOK, stats)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// PATCH /admin/activities/{id}
func (h *handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	activityID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		server.Fail(w, http.StatusBadRequest, "id must be a valid uint64")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetActivityActive(r.Context(), activityID, req.Active); err != nil {
		h.fail(w, "activity toggle failed", err)
		return
	}
	server.JSON(w, http.StatusOK, map[string]any{"id": activityID, "active": req.Active})
}

func (h *handler) fail(w http.ResponseWriter, msg string, err error) {
	status := svcErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.appCtx.Logger.Error(msg, "err", err)
		server.Fail(w, status, "internal error")
		return
	}
	server.Fail(w, status, err.Error())
}
