// Package server exposes the pipeline's command surface (SPEC_FULL §6)
// over HTTP: the named operations a UI would otherwise call through an
// RPC bridge, reachable here as small JSON endpoints.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/dwander/thumbpipe/internal/config"
	"github.com/dwander/thumbpipe/internal/decode"
	"github.com/dwander/thumbpipe/internal/hqworker"
	"github.com/dwander/thumbpipe/internal/queue"
	"github.com/dwander/thumbpipe/internal/thumbnail"
)

// Server is the HTTP command surface.
type Server struct {
	cfg      *config.Config
	queue    *queue.Queue
	hq       *hqworker.Worker
	producer *thumbnail.Producer
	mux      *http.ServeMux

	// bgCtx scopes goroutines a handler starts and returns from
	// immediately (start_worker, load_existing_hq_thumbnails,
	// start_hq_thumbnail_generation). It must outlive the triggering
	// request — net/http cancels r.Context() the instant the handler
	// returns, which would abort these passes almost immediately.
	bgCtx context.Context
}

// New creates a Server over an already-running Queue and HQ Worker. ctx
// scopes the background passes the command surface starts; it should be
// the same process-lifetime context the caller uses to drive shutdown.
func New(ctx context.Context, cfg *config.Config, q *queue.Queue, hq *hqworker.Worker, producer *thumbnail.Producer) *Server {
	s := &Server{cfg: cfg, queue: q, hq: hq, producer: producer, mux: http.NewServeMux(), bgCtx: ctx}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/thumbnails/start", s.handleStart)
	s.mux.HandleFunc("/api/thumbnails/priorities", s.handlePriorities)
	s.mux.HandleFunc("/api/thumbnails/pause", s.handlePause)
	s.mux.HandleFunc("/api/thumbnails/resume", s.handleResume)
	s.mux.HandleFunc("/api/thumbnails/completed", s.handleCompleted)
	s.mux.HandleFunc("/api/thumbnails/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/thumbnails/hq/classify", s.handleHQClassify)
	s.mux.HandleFunc("/api/thumbnails/hq/load-existing", s.handleHQLoadExisting)
	s.mux.HandleFunc("/api/thumbnails/hq/start", s.handleHQStart)
	s.mux.HandleFunc("/api/thumbnails/hq/cancel", s.handleHQCancel)
	s.mux.HandleFunc("/api/raw-preview", s.handleRawPreview)
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	log.Printf("server: command surface listening on %s", s.cfg.Server.Addr)
	return http.ListenAndServe(s.cfg.Server.Addr, s.corsMiddleware(s.mux))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type pathsRequest struct {
	Paths []string `json:"paths"`
}

// handleStart implements start_thumbnail_generation(paths).
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req pathsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.queue.Initialize(req.Paths)
	s.queue.StartWorker(s.bgCtx)
	jsonResponse(w, map[string]bool{"success": true})
}

type prioritiesRequest struct {
	VisibleIndices []int `json:"visible_indices"`
}

// handlePriorities implements update_thumbnail_priorities(visible_indices).
func (s *Server) handlePriorities(w http.ResponseWriter, r *http.Request) {
	var req prioritiesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	visible := make(map[int]struct{}, len(req.VisibleIndices))
	for _, idx := range req.VisibleIndices {
		visible[idx] = struct{}{}
	}
	s.queue.UpdatePriorities(visible)
	jsonResponse(w, map[string]bool{"success": true})
}

// handlePause implements pause_thumbnail_generation.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.queue.Pause()
	jsonResponse(w, map[string]bool{"success": true})
}

// handleResume implements resume_thumbnail_generation.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.queue.Resume()
	jsonResponse(w, map[string]bool{"success": true})
}

// handleCompleted implements get_completed_thumbnails.
func (s *Server) handleCompleted(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.queue.GetAllCompleted())
}

// handleGenerate implements generate_thumbnail_for_image(path) -> TR.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		jsonError(w, "missing path query parameter", http.StatusBadRequest)
		return
	}
	result, err := s.producer.ProduceFast(path)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, result)
}

// handleHQClassify implements classify_hq_thumbnails(paths) -> {existing, missing}.
func (s *Server) handleHQClassify(w http.ResponseWriter, r *http.Request) {
	var req pathsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	jsonResponse(w, s.producer.Classify(req.Paths))
}

// handleHQLoadExisting implements load_existing_hq_thumbnails(paths).
func (s *Server) handleHQLoadExisting(w http.ResponseWriter, r *http.Request) {
	var req pathsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	go s.hq.LoadExisting(s.bgCtx, req.Paths)
	jsonResponse(w, map[string]bool{"success": true})
}

// handleHQStart implements start_hq_thumbnail_generation(paths).
func (s *Server) handleHQStart(w http.ResponseWriter, r *http.Request) {
	var req pathsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	go s.hq.StartMissing(s.bgCtx, req.Paths)
	jsonResponse(w, map[string]bool{"success": true})
}

// handleHQCancel implements cancel_hq_thumbnail_generation.
func (s *Server) handleHQCancel(w http.ResponseWriter, r *http.Request) {
	s.hq.Cancel()
	jsonResponse(w, map[string]bool{"success": true})
}

// handleRawPreview implements extract_raw_preview(path) -> raw JPEG bytes,
// for full-image viewing of a RAW container's embedded preview rather than
// its 320px thumbnail.
func (s *Server) handleRawPreview(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		jsonError(w, "missing path query parameter", http.StatusBadRequest)
		return
	}
	jpegBytes, err := decode.ExtractPreview(path)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(jpegBytes)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		jsonError(w, "missing request body", http.StatusBadRequest)
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
