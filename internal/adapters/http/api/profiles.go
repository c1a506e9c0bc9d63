package api

import (
	"net/http"
	"strconv"

	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/types"
)

// ProfilesHandler serves card state and user actions.
type ProfilesHandler struct {
	deps Dependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps Dependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

type stampRequest struct {
	StampID string `json:"stampId"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

// profileFrom resolves the {profile} path segment, writing a 404 when it is
// unknown.
func profileFrom(w http.ResponseWriter, r *http.Request) (model.Profile, bool) {
	p, err := model.ParseProfile(r.PathValue("profile"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_profile", err)
		return "", false
	}
	return p, true
}

// HandleState handles GET /state.
func (h *ProfilesHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.State(r.Context()))
}

// HandleProfile handles GET /profiles/{profile}.
func (h *ProfilesHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := profileFrom(w, r)
	if !ok {
		return
	}
	view, err := h.deps.Profile(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleGrid handles GET /profiles/{profile}/grid.
func (h *ProfilesHandler) HandleGrid(w http.ResponseWriter, r *http.Request) {
	p, ok := profileFrom(w, r)
	if !ok {
		return
	}
	view, err := h.deps.Profile(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Grid)
}

// HandleHistory handles GET /profiles/{profile}/history?page=N. Pages are
// zero-based.
func (h *ProfilesHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := profileFrom(w, r)
	if !ok {
		return
	}
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadPage)
			return
		}
		page = n
	}
	hp, err := h.deps.History(r.Context(), p, page)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hp)
}

// HandleStamp handles POST /profiles/{profile}/stamps.
func (h *ProfilesHandler) HandleStamp(w http.ResponseWriter, r *http.Request) {
	p, ok := profileFrom(w, r)
	if !ok {
		return
	}
	var req stampRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	res, err := h.deps.Stamp(r.Context(), p, req.StampID)
	writeAction(w, res, err)
}

// HandlePenalty handles POST /profiles/{profile}/penalty.
func (h *ProfilesHandler) HandlePenalty(w http.ResponseWriter, r *http.Request) {
	if p, ok := profileFrom(w, r); ok {
		res, err := h.deps.Penalty(r.Context(), p)
		writeAction(w, res, err)
	}
}

// HandleUndo handles POST /profiles/{profile}/undo.
func (h *ProfilesHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	if p, ok := profileFrom(w, r); ok {
		res, err := h.deps.Undo(r.Context(), p)
		writeAction(w, res, err)
	}
}

// HandleReset handles POST /profiles/{profile}/reset.
func (h *ProfilesHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if p, ok := profileFrom(w, r); ok {
		res, err := h.deps.Reset(r.Context(), p)
		writeAction(w, res, err)
	}
}

// HandleRedeem handles POST /profiles/{profile}/redeem.
func (h *ProfilesHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	if p, ok := profileFrom(w, r); ok {
		res, err := h.deps.Redeem(r.Context(), p)
		writeAction(w, res, err)
	}
}

// HandleRename handles PUT /profiles/{profile}/name.
func (h *ProfilesHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	p, ok := profileFrom(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	res, err := h.deps.Rename(r.Context(), p, req.Name)
	writeAction(w, res, err)
}

// HandleAvatar handles PUT /profiles/{profile}/avatar.
func (h *ProfilesHandler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	p, ok := profileFrom(w, r)
	if !ok {
		return
	}
	var req avatarRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	res, err := h.deps.ChangeAvatar(r.Context(), p, req.Avatar)
	writeAction(w, res, err)
}

// writeAction answers 202 for an accepted action: the state changed locally
// and the append runs in the background.
func writeAction(w http.ResponseWriter, res types.ActionResult, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}
