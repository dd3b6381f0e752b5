package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/desertthunder/merchtrack/internal/tasks"
)

// LoadsFunc reads the current reviewer loads.
type LoadsFunc func(ctx context.Context) ([]tasks.ReviewerLoad, error)

// RunSummary is the status view of the last finished run.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	Worksheet   string    `json:"worksheet"`
	FinishedAt  time.Time `json:"finished_at"`
	Added       int       `json:"added"`
	Merged      int       `json:"merged"`
	Disappeared int       `json:"disappeared"`
	Failures    int       `json:"failures"`
	Notified    bool      `json:"notified"`
}

// StatusHandler serves the scheduler's health, last run, journal and reviewer loads as JSON.
type StatusHandler struct {
	journal models.Repository[*models.RunRecord]
	loads   LoadsFunc
	clock   shared.Clock
	next    func(time.Time) time.Time

	mu   sync.RWMutex
	last *RunSummary
}

var _ Handler = (*StatusHandler)(nil)

// StatusOpts configures a [StatusHandler]. Journal and Loads are optional; their routes answer 503 without them.
type StatusOpts struct {
	Journal models.Repository[*models.RunRecord]
	Loads   LoadsFunc
	Clock   shared.Clock
	NextRun func(now time.Time) time.Time
}

func NewStatusHandler(opts StatusOpts) *StatusHandler {
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock{}
	}
	return &StatusHandler{journal: opts.Journal, loads: opts.Loads, clock: opts.Clock, next: opts.NextRun}
}

func (h *StatusHandler) Routes() []string {
	return []string{"GET /healthz", "GET /runs", "GET /loads"}
}

// Record stores the outcome of a finished run for /healthz.
func (h *StatusHandler) Record(result *tasks.DailyResult) {
	added, merged, disappeared := result.Totals()
	summary := &RunSummary{
		RunID:       result.RunID,
		Worksheet:   result.Worksheet,
		FinishedAt:  h.clock.Now(),
		Added:       added,
		Merged:      merged,
		Disappeared: disappeared,
		Failures:    result.Failures(),
		Notified:    result.MessageID != 0 && result.NotifyErr == nil,
	}

	h.mu.Lock()
	h.last = summary
	h.mu.Unlock()
}

// LastRun returns the summary recorded last, or nil.
func (h *StatusHandler) LastRun() *RunSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/healthz":
		h.health(w)
	case "/runs":
		h.runs(w, r)
	case "/loads":
		h.reviewerLoads(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *StatusHandler) health(w http.ResponseWriter) {
	body := map[string]any{"status": "ok", "last_run": h.LastRun()}
	if h.next != nil {
		body["next_run"] = h.next(h.clock.Now())
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *StatusHandler) runs(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusServiceUnavailable, shared.ErrServiceUnavailable)
		return
	}

	criteria := map[string]any{"limit": 20}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, shared.ErrInvalidArgument)
			return
		}
		criteria["limit"] = limit
	}
	if v := r.URL.Query().Get("worksheet"); v != "" {
		criteria["worksheet"] = v
	}

	runs, err := h.journal.List(criteria)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []*models.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *StatusHandler) reviewerLoads(w http.ResponseWriter, r *http.Request) {
	if h.loads == nil {
		writeError(w, http.StatusServiceUnavailable, shared.ErrServiceUnavailable)
		return
	}
	loads, err := h.loads(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrStoreRead) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, loads)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Listen serves handler on addr until ctx is done, then shuts down gracefully.
func Listen(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("status server listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
