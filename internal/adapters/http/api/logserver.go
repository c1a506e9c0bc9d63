package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/stampcard/internal/adapters/eventlog"
	"github.com/okian/stampcard/internal/adapters/repository"
	"github.com/okian/stampcard/internal/domain/dedupe"
	"github.com/okian/stampcard/pkg/logger"
	"github.com/okian/stampcard/pkg/metrics"
)

// LogHandler serves a local stand-in for the remote event log: GET returns
// every stored row as one JSON array and POST appends a row.
type LogHandler struct {
	store   repository.Store
	deduper dedupe.Deduper
	log     logger.Logger
}

// NewLogHandler creates a log handler over store. Posts carrying an
// X-Request-Id already seen by deduper are acknowledged without storing.
func NewLogHandler(store repository.Store, deduper dedupe.Deduper, log logger.Logger) *LogHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LogHandler{store: store, deduper: deduper, log: log}
}

type appendResponse struct {
	Result    string `json:"result"`
	Row       int64  `json:"row,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// HandleList handles GET /log.
func (h *LogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "list log rows", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "store", err)
		return
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleAppend handles POST /log. The body must be a single JSON object;
// the content type is not checked since clients post text/plain.
func (h *LogHandler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Join(ErrBadRequest, repository.ErrInvalidRow))
		return
	}

	id := r.Header.Get(eventlog.RequestIDHeader)
	if h.deduper != nil && id != "" && h.deduper.SeenAndRecord(r.Context(), id) {
		metrics.RecordLogDuplicateRow()
		writeJSON(w, http.StatusOK, appendResponse{Result: "success", Duplicate: true})
		return
	}

	seq, err := h.store.Append(r.Context(), body)
	if err != nil {
		if h.deduper != nil && id != "" {
			h.deduper.Unrecord(r.Context(), id)
		}
		h.log.Error(r.Context(), "append log row", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "store", err)
		return
	}
	metrics.UpdateLogRowsStored(h.store.Count(r.Context()))
	writeJSON(w, http.StatusOK, appendResponse{Result: "success", Row: seq})
}
