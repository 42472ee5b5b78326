// Package monitor serves the HTTP interface for observing the BEV pipeline:
// health and throughput endpoints, stored frame summaries, and debugging
// charts rendered with go-echarts.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
	"github.com/lattice-sensing/bevpipe/internal/store"
	"github.com/lattice-sensing/bevpipe/internal/version"
)

// SummarySource exposes the most recently processed frame summary. The
// pipeline implements it; tests stub it.
type SummarySource interface {
	LatestSummary() (frameID string, sum cloud.Summary, ok bool)
}

// WebServer handles the HTTP monitoring interface for the BEV pipeline.
type WebServer struct {
	address   string
	stats     *cloud.PipelineStats
	store     *store.Store
	summaries SummarySource
	server    *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address   string
	Stats     *cloud.PipelineStats
	Store     *store.Store
	Summaries SummarySource
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:   config.Address,
		stats:     config.Stats,
		store:     config.Store,
		summaries: config.Summaries,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
// when the context is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/api/summary", ws.handleLatestSummary)
	mux.HandleFunc("/api/summaries", ws.handleSummaries)
	mux.HandleFunc("/api/sessions", ws.handleSessions)
	mux.HandleFunc("/charts/lines", ws.handleLineChart)
	mux.HandleFunc("/charts/throughput", ws.handleThroughputChart)

	return mux
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok", "version": version.Version}
	if ws.stats != nil {
		resp["uptime_seconds"] = ws.stats.Uptime().Seconds()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if ws.stats == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no pipeline stats available")
		return
	}
	snap := ws.stats.LatestSnapshot()
	if snap == nil {
		snap = &cloud.StatsSnapshot{Timestamp: time.Now()}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (ws *WebServer) handleLatestSummary(w http.ResponseWriter, r *http.Request) {
	if ws.summaries == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no summary source configured")
		return
	}
	frameID, sum, ok := ws.summaries.LatestSummary()
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, "no frames processed yet")
		return
	}

	type lineCount struct {
		Line  uint8 `json:"line"`
		Count int   `json:"count"`
	}
	lines := make([]lineCount, 0, len(sum.LineCounts))
	for _, line := range sum.Lines() {
		lines = append(lines, lineCount{Line: line, Count: sum.LineCounts[line]})
	}

	resp := map[string]interface{}{
		"frame_id": frameID,
		"count":    sum.Count,
		"lines":    lines,
	}
	if sum.HasData {
		resp["x"] = sum.X
		resp["y"] = sum.Y
		resp["z"] = sum.Z
		resp["intensity"] = sum.Intensity
		resp["intensity_distribution"] = sum.IntensityD
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleSummaries returns recent stored frame summaries as a JSON array.
// Query params:
//
//	limit (optional, default 25, max 500)
func (ws *WebServer) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "no database configured for summary lookup")
		return
	}
	limit := 25
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
		if limit <= 0 || limit > 500 {
			limit = 25
		}
	}
	rows, err := ws.store.RecentSummaries(limit)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get recent summaries: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "no database configured for session lookup")
		return
	}
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
		if limit <= 0 || limit > 100 {
			limit = 10
		}
	}
	rows, err := ws.store.RecentSessions(limit)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get recent sessions: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}
