package couple

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/app"
	"github.com/tandemapp/tandem-server/internal/db"
	svcErr "github.com/tandemapp/tandem-server/internal/errors"
	"github.com/tandemapp/tandem-server/internal/server"
)

// Registrar ties the couple service into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the couple service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register mounts the pairing routes.
func (reg *Registrar) Register(r chi.Router) {
	h := &handler{appCtx: reg.appCtx, svc: NewService(reg.appCtx)}

	r.Route("/couples", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Post("/join", h.handleJoin)
		r.Get("/me", h.handleMe)
	})
}

type handler struct {
	appCtx *app.AppContext
	svc    *Service
}

type coupleView struct {
	ID         uint64 `json:"id"`
	InviteCode string `json:"inviteCode,omitempty"`
	Paired     bool   `json:"paired"`
}

func view(c db.Couple) coupleView {
	v := coupleView{ID: c.ID, Paired: c.User2ID != nil}
	if !v.Paired {
		// The code is only useful (and only shown) while it can still be redeemed.
		v.InviteCode = c.InviteCode
	}
	return v
}

// POST /couples
func (h *handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := server.UserID(ctx)

	couple, err := h.svc.Create(ctx, userID)
	if err != nil {
		h.fail(w, "couple create failed", err)
		return
	}
	server.JSON(w, http.StatusCreated, view(couple))
}

type joinRequest struct {
	Code string `json:"code"`
}

// POST /couples/join
func (h *handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := server.UserID(ctx)

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		server.Fail(w, http.StatusBadRequest, "code required")
		return
	}

	couple, err := h.svc.Join(ctx, userID, code)
	if err != nil {
		h.fail(w, "couple join failed", err)
		return
	}
	server.JSON(w, http.StatusOK, view(couple))
}

// GET /couples/me
func (h *handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := server.UserID(ctx)

	couple, err := h.svc.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		server.Fail(w, svcErr.HTTPStatus(svcErr.ErrNotPaired), "not paired")
		return
	}
	if err != nil {
		h.fail(w, "couple lookup failed", err)
		return
	}
	server.JSON(w, http.StatusOK, view(couple))
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
