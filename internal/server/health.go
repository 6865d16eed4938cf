package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthHandler reports the state of the scheduled runs on /healthz.
//
// It answers 503 while the most recent run has failed so a supervisor can alert on it.
type HealthHandler struct {
	next func() time.Time

	mu          sync.RWMutex
	running     bool
	lastRun     time.Time
	lastOutcome string
	lastError   string
}

type healthResponse struct {
	Status      string     `json:"status"`
	Running     bool       `json:"running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastOutcome string     `json:"last_outcome,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// NewHealthHandler takes a function reporting the next scheduled run; it may be nil.
func NewHealthHandler(next func() time.Time) *HealthHandler {
	return &HealthHandler{next: next}
}

func (h *HealthHandler) Routes() []string {
	return []string{"/healthz"}
}

func (h *HealthHandler) RunStarted() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = true
}

// RunFinished records a run's outcome. Outcomes other than "error" and "timeout" count as healthy.
func (h *HealthHandler) RunFinished(outcome string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.running = false
	h.lastRun = time.Now()
	h.lastOutcome = outcome
	h.lastError = ""
	if err != nil {
		h.lastError = err.Error()
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := healthResponse{
		Status:      "ok",
		Running:     h.running,
		LastOutcome: h.lastOutcome,
		LastError:   h.lastError,
	}
	if !h.lastRun.IsZero() {
		last := h.lastRun
		resp.LastRun = &last
	}
	h.mu.RUnlock()

	if h.next != nil {
		if next := h.next(); !next.IsZero() {
			resp.NextRun = &next
		}
	}

	code := http.StatusOK
	if resp.LastOutcome == "error" || resp.LastOutcome == "timeout" {
		resp.Status = "failing"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
