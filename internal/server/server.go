// Package server exposes the engine's query and administrative HTTP surface
// plus a websocket stream of market snapshots.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vega-lab/vega-trading/internal/audit"
	"github.com/vega-lab/vega-trading/internal/logger"
	"github.com/vega-lab/vega-trading/internal/market"
	"github.com/vega-lab/vega-trading/internal/position"
	"github.com/vega-lab/vega-trading/internal/risk"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/internal/version"
)

const (
	readHeaderTimeout = 5 * time.Second
	streamBuffer      = 64
)

// Server wires the HTTP routes over the live engine components.
type Server struct {
	log     *logger.Logger
	store   *market.Store
	gate    *risk.Gate
	manager *position.Manager
	audit   *audit.Store

	router   *mux.Router
	upgrader websocket.Upgrader
	http     *http.Server
}

// New builds the server and its routes.
func New(addr string, store *market.Store, gate *risk.Gate, manager *position.Manager, auditStore *audit.Store, registry *prometheus.Registry, log *logger.Logger) *Server {
	s := &Server{
		log:     log,
		store:   store,
		gate:    gate,
		manager: manager,
		audit:   auditStore,
		router:  mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/snapshots", s.handleSnapshots).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/correlation", s.handleCorrelation).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/positions", s.handlePositions).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/positions/{id}", s.handlePosition).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/positions/{id}/events", s.handlePositionEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/risk/state", s.handleRiskState).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/risk/decisions", s.handleDecisions).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/admin/halt", s.handleHalt).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/admin/resume", s.handleResume).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/admin/limits", s.handleLimits).Methods(http.MethodPut)
	s.router.HandleFunc("/api/v1/admin/session/reset", s.handleSessionReset).Methods(http.MethodPost)
	s.router.HandleFunc("/ws/stream", s.handleStream)

	if registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("server listening", zap.String("addr", s.http.Addr))

	err := s.http.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.EngineVersion,
		"halted":  s.gate.Halted(),
	})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Snapshots())
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.CorrelationState())
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.manager.Positions())
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	pos, err := s.manager.Position(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)

		return
	}

	s.writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handlePositionEvents(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	events, err := s.audit.PositionEvents(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)

		return
	}

	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleRiskState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.gate.StateSnapshot())
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	decisions, err := s.audit.Decisions(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)

		return
	}

	s.writeJSON(w, http.StatusOK, decisions)
}

func (s *Server) handleHalt(w http.ResponseWriter, r *http.Request) {
	s.gate.TriggerHalt()
	s.writeJSON(w, http.StatusOK, map[string]bool{"halted": true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.gate.ClearHalt()
	s.writeJSON(w, http.StatusOK, map[string]bool{"halted": false})
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	var limits types.RiskLimits
	if err := json.NewDecoder(r.Body).Decode(&limits); err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	if err := s.gate.UpdateLimits(limits); err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	s.writeJSON(w, http.StatusOK, s.gate.Limits())
}

// handleSessionReset rolls the risk bookkeeping into a new trading session.
// The date defaults to today when the body omits it.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	if body.Date == "" {
		body.Date = time.Now().UTC().Format("2006-01-02")
	}

	s.gate.ResetSession(body.Date)
	s.writeJSON(w, http.StatusOK, s.gate.StateSnapshot())
}

// handleStream upgrades to a websocket and pushes every market snapshot the
// subscriber keeps up with. Slow consumers miss updates rather than slowing
// ingestion.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", zap.Error(err))

		return
	}

	defer conn.Close()

	updates, cancel := s.store.Subscribe(streamBuffer)
	defer cancel()

	for snap := range updates {
		if err := conn.WriteJSON(snap); err != nil {
			s.log.Debug("websocket client gone", zap.Error(err))

			return
		}
	}
}
