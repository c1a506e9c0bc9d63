package api

import "net/http"

// SyncHandler replays the log on demand, e.g. when a client regains focus.
type SyncHandler struct {
	deps Dependencies
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps Dependencies) *SyncHandler {
	return &SyncHandler{deps: deps}
}

// HandleSync handles POST /sync and returns the fresh state.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Sync(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Result: res, State: h.deps.State(r.Context())})
}
