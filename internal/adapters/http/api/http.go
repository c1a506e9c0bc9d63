// Package api exposes the stamp card over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/stampcard/internal/app"
	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/projection"
	"github.com/okian/stampcard/internal/domain/types"
)

const maxRequestBytes = 64 << 10

// Dependencies required by HTTP handlers.
type Dependencies interface {
	State(ctx context.Context) model.SystemState
	Profile(ctx context.Context, p model.Profile) (types.ProfileView, error)
	History(ctx context.Context, p model.Profile, page int) (projection.HistoryPage, error)

	Stamp(ctx context.Context, p model.Profile, variant string) (types.ActionResult, error)
	Penalty(ctx context.Context, p model.Profile) (types.ActionResult, error)
	Undo(ctx context.Context, p model.Profile) (types.ActionResult, error)
	Reset(ctx context.Context, p model.Profile) (types.ActionResult, error)
	Redeem(ctx context.Context, p model.Profile) (types.ActionResult, error)
	Rename(ctx context.Context, p model.Profile, name string) (types.ActionResult, error)
	ChangeAvatar(ctx context.Context, p model.Profile, avatar string) (types.ActionResult, error)

	Sync(ctx context.Context) (types.SyncResult, error)
}

// Server wires HTTP routes for the stamp card API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	profilesHandler *ProfilesHandler
	syncHandler     *SyncHandler
	catalogHandler  *CatalogHandler
	logHandler      *LogHandler
}

// ServerOption configures optional routes.
type ServerOption func(*Server)

// WithLogHandler serves the local log endpoint on /log.
func WithLogHandler(h *LogHandler) ServerOption {
	return func(s *Server) {
		s.logHandler = h
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		profilesHandler: NewProfilesHandler(deps),
		syncHandler:     NewSyncHandler(deps),
		catalogHandler:  NewCatalogHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /stamps", MetricsMiddleware(s.catalogHandler.HandleCatalog, "stamps"))
	mux.HandleFunc("POST /sync", MetricsMiddleware(s.syncHandler.HandleSync, "sync"))

	p := s.profilesHandler
	mux.HandleFunc("GET /state", MetricsMiddleware(p.HandleState, "state"))
	mux.HandleFunc("GET /profiles/{profile}", MetricsMiddleware(p.HandleProfile, "profile"))
	mux.HandleFunc("GET /profiles/{profile}/grid", MetricsMiddleware(p.HandleGrid, "grid"))
	mux.HandleFunc("GET /profiles/{profile}/history", MetricsMiddleware(p.HandleHistory, "history"))
	mux.HandleFunc("POST /profiles/{profile}/stamps", MetricsMiddleware(p.HandleStamp, "stamp"))
	mux.HandleFunc("POST /profiles/{profile}/penalty", MetricsMiddleware(p.HandlePenalty, "penalty"))
	mux.HandleFunc("POST /profiles/{profile}/undo", MetricsMiddleware(p.HandleUndo, "undo"))
	mux.HandleFunc("POST /profiles/{profile}/reset", MetricsMiddleware(p.HandleReset, "reset"))
	mux.HandleFunc("POST /profiles/{profile}/redeem", MetricsMiddleware(p.HandleRedeem, "redeem"))
	mux.HandleFunc("PUT /profiles/{profile}/name", MetricsMiddleware(p.HandleRename, "name"))
	mux.HandleFunc("PUT /profiles/{profile}/avatar", MetricsMiddleware(p.HandleAvatar, "avatar"))

	if s.logHandler != nil {
		mux.HandleFunc("GET /log", MetricsMiddleware(s.logHandler.HandleList, "log"))
		mux.HandleFunc("POST /log", MetricsMiddleware(s.logHandler.HandleAppend, "log"))
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and domain errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrUnknownProfile):
		writeError(w, http.StatusNotFound, "unknown_profile", err)
	case errors.Is(err, model.ErrUnknownVariant):
		writeError(w, http.StatusBadRequest, "unknown_stamp", err)
	case errors.Is(err, service.ErrEmptyName), errors.Is(err, service.ErrEmptyAvatar):
		writeError(w, http.StatusBadRequest, "invalid_profile", err)
	case errors.Is(err, service.ErrNothingToPenalize),
		errors.Is(err, service.ErrNothingToUndo),
		errors.Is(err, service.ErrUndoNotStamp),
		errors.Is(err, service.ErrNothingToRedeem):
		writeError(w, http.StatusConflict, "not_allowed", err)
	case errors.Is(err, service.ErrNoLogClient):
		writeError(w, http.StatusServiceUnavailable, "no_log", err)
	case errors.Is(err, service.ErrSync):
		writeError(w, http.StatusBadGateway, "sync_failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
