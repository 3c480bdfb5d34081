// Package ipc provides the local HTTP API for the rewards daemon. The
// control panel polls the snapshot, claims tasks, and manages the server
// lease through it; the event stream pushes changes as they happen.
package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
	"github.com/bodoithienha2026/WebRDP/internal/engine"
	"github.com/bodoithienha2026/WebRDP/internal/guard"
	"github.com/bodoithienha2026/WebRDP/internal/metrics"
	"github.com/bodoithienha2026/WebRDP/internal/provision"
	"github.com/bodoithienha2026/WebRDP/internal/store"
)

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Engine *engine.Engine
	Guard  *guard.Guard
	Trail  *store.AuditTrail
	Delay  provision.Delay
	Log    *zap.Logger
}

// NewHandler creates a Handler. A nil logger disables request logging.
func NewHandler(eng *engine.Engine, g *guard.Guard, trail *store.AuditTrail, delay provision.Delay, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Engine: eng, Guard: g, Trail: trail, Delay: delay, Log: log}
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ClaimResponse is the body returned by a successful claim.
type ClaimResponse struct {
	Reward   int64           `json:"reward"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSnapshot handles GET /api/v1/snapshot.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.Snapshot(r.Context()))
}

// ListActivity handles GET /api/v1/activity?limit=N. It reads from the
// audit trail, which remembers past the snapshot's short activity log.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.Trail.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// ClaimTask handles POST /api/v1/tasks/{taskType}/claim.
func (h *Handler) ClaimTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Guard.Allow(clientKey(r)); err != nil {
		writeError(w, err)
		return
	}

	taskType := domain.TaskType(chi.URLParam(r, "taskType"))

	// The artificial latency stands in for the upstream call the real
	// service would make before crediting.
	if err := h.Delay.Wait(r.Context()); err != nil {
		return
	}

	reward, err := h.Engine.ClaimTask(r.Context(), taskType)
	if err != nil {
		metrics.TaskClaims.WithLabelValues(string(taskType), "error").Inc()
		writeOpError(w, "claim_task", err)
		return
	}
	metrics.TaskClaims.WithLabelValues(string(taskType), "ok").Inc()
	metrics.PointsEarned.Add(float64(reward))

	writeJSON(w, http.StatusOK, ClaimResponse{
		Reward:   reward,
		Snapshot: h.Engine.Snapshot(r.Context()),
	})
}

// CreateLease handles POST /api/v1/lease. The response is accepted, not
// done: the lease stays provisioning until the background runner
// finishes it, and the event stream announces the change.
func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	if err := h.Guard.Allow(clientKey(r)); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Engine.CreateLease(r.Context()); err != nil {
		writeOpError(w, "create_lease", err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.Engine.Snapshot(r.Context()))
}

// StopLease handles POST /api/v1/lease/stop.
func (h *Handler) StopLease(w http.ResponseWriter, r *http.Request) {
	if err := h.Guard.Allow(clientKey(r)); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Engine.StopLease(r.Context()); err != nil {
		writeOpError(w, "stop_lease", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.Snapshot(r.Context()))
}

// ExtendLease handles POST /api/v1/lease/extend.
func (h *Handler) ExtendLease(w http.ResponseWriter, r *http.Request) {
	if err := h.Guard.Allow(clientKey(r)); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Engine.ExtendLease(r.Context()); err != nil {
		writeOpError(w, "extend_lease", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.Snapshot(r.Context()))
}

// Reset handles POST /api/v1/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Guard.Allow(clientKey(r)); err != nil {
		writeError(w, err)
		return
	}

	h.Log.Info("factory reset requested", zap.String("client", clientKey(r)))
	if err := h.Engine.Reset(r.Context()); err != nil {
		writeOpError(w, "reset", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Engine.Snapshot(r.Context()))
}

// StreamEvents handles GET /api/v1/events (SSE). The stream opens with a
// snapshot event so subscribers start from current truth, then forwards
// engine events as they are published.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := h.Engine.Events().Subscribe(32)
	defer cancel()

	h.Log.Debug("event stream opened", zap.String("client", clientKey(r)))
	writeSSE(w, flusher, "snapshot", h.Engine.Snapshot(r.Context()))

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.Log.Debug("event stream closed", zap.String("client", clientKey(r)))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeSSE(w, flusher, string(ev.Type), ev)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeOpError records a rejected engine operation before responding.
func writeOpError(w http.ResponseWriter, op string, err error) {
	metrics.OpFailures.WithLabelValues(op, strconv.Itoa(domain.ErrCode(err))).Inc()
	writeError(w, err)
}

func writeError(w http.ResponseWriter, err error) {
	if engErr, ok := err.(*domain.EngineError); ok {
		status := http.StatusInternalServerError
		switch engErr.Code {
		case domain.ErrInsufficientFunds.Code:
			status = http.StatusPaymentRequired
		case domain.ErrOnCooldown.Code, domain.ErrAlreadyClaimedToday.Code, domain.ErrThrottled.Code:
			status = http.StatusTooManyRequests
		case domain.ErrUnknownTask.Code:
			status = http.StatusNotFound
		case domain.ErrAlreadyActive.Code, domain.ErrNotRunning.Code,
			domain.ErrNothingToExtend.Code, domain.ErrInvalidTransition.Code,
			domain.ErrStateConflict.Code:
			status = http.StatusConflict
		}
		writeJSON(w, status, APIError{Code: engErr.Code, Message: engErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: err.Error()})
}

func writeSSE(w http.ResponseWriter, f http.Flusher, event string, v interface{}) {
	data, _ := json.Marshal(v)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	f.Flush()
}

// clientKey identifies a caller for rate limiting. RealIP middleware has
// already resolved forwarding headers into RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
