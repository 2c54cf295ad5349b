package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/asin-match/internal/model"
	"github.com/sells-group/asin-match/internal/progress"
)

var allowedExts = map[string]bool{".csv": true, ".xlsx": true}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close() //nolint:errcheck

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExts[ext] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q (csv, xlsx)", ext))
		return
	}

	id := uuid.NewString()
	dir := s.runDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		zap.L().Error("server: create run dir", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	input := filepath.Join(dir, "input"+ext)
	if err := saveUpload(input, file); err != nil {
		zap.L().Error("server: save upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	now := time.Now().UTC()
	e := &entry{
		run: model.Run{
			ID:        id,
			Filename:  header.Filename,
			Status:    model.RunStatusQueued,
			CreatedAt: now,
			UpdatedAt: now,
		},
		input: input,
		feed:  progress.NewFeed(0),
	}
	if !s.enqueue(e) {
		os.RemoveAll(dir) //nolint:errcheck
		writeError(w, http.StatusServiceUnavailable, "run queue is full")
		return
	}

	zap.L().Info("server: run queued", zap.String("run_id", id), zap.String("file", header.Filename))
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": string(model.RunStatusQueued)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.snapshot(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleEvents streams progress as Server-Sent Events: the run's history
// first, then live events, then a final "done" event with the run status.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := e.feed.Subscribe()
	defer cancel()

	ticker := time.NewTicker(s.opts.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n") //nolint:errcheck
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				run, _ := s.snapshot(id)
				writeSSE(w, "done", map[string]string{"status": string(run.Status), "error": run.Error})
				flusher.Flush()
				return
			}
			writeSSE(w, "progress", ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data) //nolint:errcheck
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	run, ok := s.snapshot(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if run.Status != model.RunStatusComplete || run.Summary == nil || run.Summary.FinalPath == "" {
		writeError(w, http.StatusConflict, fmt.Sprintf("run is %s", run.Status))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(run.Summary.FinalPath)))
	http.ServeFile(w, r, run.Summary.FinalPath)
}

func (s *Server) runDir(id string) string {
	return filepath.Join(s.opts.DataDir, id)
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close() //nolint:errcheck
		return err
	}
	return dst.Close()
}
