package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/app"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
)

// HealthServer exposes /health and /ready over plain HTTP alongside the
// gRPC API, grounded on the teacher's HealthServer: a liveness check that
// never depends on the fabric and a readiness check that exercises it.
type HealthServer struct {
	app *app.App
	mux *http.ServeMux
}

// NewHealthServer creates a health check HTTP server over a.
func NewHealthServer(a *app.App) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{app: a, mux: mux}

	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/ready", hs.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return hs
}

// Start starts the health check HTTP server. Blocks until addr fails to
// bind or the server is shut down.
func (hs *HealthServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// HealthResponse is the /health liveness response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse is the /ready readiness response.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// healthHandler implements /health: a liveness check that returns 200 as
// long as the process can handle an HTTP request at all.
func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Timestamp: time.Now()})
}

// readyHandler implements /ready: checks that bbolt storage (via the
// scheduler's job list) and the crawler's Redis queue are reachable,
// reporting not-ready rather than panicking if app is nil (process
// starting up).
func (hs *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	ready := true
	var message string

	if hs.app == nil {
		checks["fabric"] = "not initialized"
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not ready", Timestamp: time.Now(), Checks: checks, Message: "app not initialized",
		})
		return
	}

	if _, err := hs.app.SchedStore.ListJobs(); err != nil {
		checks["storage"] = fmt.Sprintf("error: %v", err)
		ready = false
		message = "storage not accessible"
	} else {
		checks["storage"] = "ok"
	}

	if _, err := hs.app.Crawler.Depths(); err != nil {
		checks["crawler"] = fmt.Sprintf("error: %v", err)
		ready = false
		if message == "" {
			message = "crawler backing store not accessible"
		}
	} else {
		checks["crawler"] = "ok"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadyResponse{
		Status: status, Timestamp: time.Now(), Checks: checks, Message: message,
	})
}

// GetHandler returns the HTTP handler for embedding in other servers.
func (hs *HealthServer) GetHandler() http.Handler {
	return hs.mux
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
