// Package server accepts catalog uploads over HTTP, runs them one at a time,
// and streams their progress to the browser.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/internal/progress"
)

// Job is one queued run handed to the RunFunc.
type Job struct {
	ID        string
	InputPath string
	OutputDir string
	Reporter  progress.Reporter
	OnStatus  func(model.RunStatus)
}

// RunFunc processes a job and returns its summary.
type RunFunc func(ctx context.Context, job Job) (*model.RunSummary, error)

// Options configures a Server.
type Options struct {
	DataDir        string   // per-run input and output live under DataDir/<id>
	AllowedOrigins []string // CORS; empty allows all
	QueueSize      int
	MaxUploadBytes int64
	Heartbeat      time.Duration // SSE keep-alive interval
}

type entry struct {
	run   model.Run
	input string
	feed  *progress.Feed
}

// Server tracks runs and executes them on a single worker.
type Server struct {
	runFn RunFunc
	opts  Options

	mu    sync.RWMutex
	runs  map[string]*entry
	queue chan string
}

// New creates a server.
func New(runFn RunFunc, opts Options) *Server {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}
	return &Server{
		runFn: runFn,
		opts:  opts,
		runs:  make(map[string]*entry),
		queue: make(chan string, opts.QueueSize),
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Cache-Control"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.handleCreateRun)
		r.Get("/{id}", s.handleGetRun)
		r.Get("/{id}/events", s.handleEvents)
		r.Get("/{id}/download", s.handleDownload)
	})
	return r
}

// Work executes queued runs until ctx is cancelled.
func (s *Server) Work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-s.queue:
			s.process(ctx, id)
		}
	}
}

func (s *Server) process(ctx context.Context, id string) {
	s.mu.RLock()
	e, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	defer e.feed.Close()

	log := zap.L().With(zap.String("run_id", id))
	log.Info("server: run started", zap.String("file", e.run.Filename))

	job := Job{
		ID:        id,
		InputPath: e.input,
		OutputDir: s.runDir(id),
		Reporter:  progress.Multi(e.feed, progress.Logger(log)),
		OnStatus:  func(st model.RunStatus) { s.setStatus(id, st, "", nil) },
	}

	summary, err := s.runFn(ctx, job)
	if err != nil {
		phase := phaseFor(s.status(id))
		s.setStatus(id, model.RunStatusFailed, err.Error(), nil)
		progress.Emit(e.feed, phase, progress.SeverityError, err.Error())
		log.Error("server: run failed", zap.Error(err))
		return
	}

	s.setStatus(id, model.RunStatusComplete, "", summary)
	progress.Emit(e.feed, progress.PhaseExport, progress.SeveritySuccess, "Run complete!")
	log.Info("server: run complete", zap.Int("matched", summary.Matched))
}

func (s *Server) enqueue(e *entry) bool {
	s.mu.Lock()
	s.runs[e.run.ID] = e
	s.mu.Unlock()

	select {
	case s.queue <- e.run.ID:
		return true
	default:
		s.mu.Lock()
		delete(s.runs, e.run.ID)
		s.mu.Unlock()
		return false
	}
}

func (s *Server) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.runs[id]
	return e, ok
}

// snapshot returns a copy of the run record.
func (s *Server) snapshot(id string) (model.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.runs[id]
	if !ok {
		return model.Run{}, false
	}
	return e.run, true
}

func (s *Server) status(id string) model.RunStatus {
	run, _ := s.snapshot(id)
	return run.Status
}

func (s *Server) setStatus(id string, st model.RunStatus, errMsg string, summary *model.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.runs[id]
	if !ok {
		return
	}
	e.run.Status = st
	e.run.UpdatedAt = time.Now().UTC()
	if errMsg != "" {
		e.run.Error = errMsg
	}
	if summary != nil {
		e.run.Summary = summary
	}
}

func phaseFor(st model.RunStatus) progress.Phase {
	switch st {
	case model.RunStatusMatching:
		return progress.PhaseMatching
	case model.RunStatusCleaning:
		return progress.PhaseCleaning
	case model.RunStatusSearching, model.RunStatusQueued:
		return progress.PhaseSearching
	default:
		return progress.PhaseExport
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
