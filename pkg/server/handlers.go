package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"github.com/jqnatividad/qsv-stats/pkg/config"
	"github.com/jqnatividad/qsv-stats/pkg/describe"
	"github.com/jqnatividad/qsv-stats/pkg/httpx"
	"github.com/jqnatividad/qsv-stats/pkg/store"
)

// Router builds the HTTP API.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/datasets", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{name}/samples", s.handleIngest).Methods(http.MethodPost)
	api.HandleFunc("/datasets/{name}/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{name}/snapshot", s.handleSnapshotSave).Methods(http.MethodPost)
	api.HandleFunc("/datasets/{name}/restore", s.handleRestore).Methods(http.MethodPost)
	api.HandleFunc("/datasets/{name}/merge", s.handleMerge).Methods(http.MethodPost)
	api.HandleFunc("/datasets/{name}", s.handleDelete).Methods(http.MethodDelete)
	if s.hub != nil {
		api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}

// IngestResponse reports what one ingest absorbed.
type IngestResponse struct {
	Dataset string `json:"dataset"`
	Samples int    `json:"samples"`
	Columns int    `json:"columns"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if len(req.Columns) == 0 && len(req.Nulls) == 0 {
		httpx.RespondErrorString(w, http.StatusBadRequest, "request carries no samples")
		return
	}

	d := s.getOrCreate(name)
	samples, err := d.Ingest(req)
	switch {
	case errors.Is(err, ErrColumnLimit):
		httpx.RespondError(w, http.StatusTooManyRequests, err)
		return
	case errors.Is(err, ErrTooManySamples):
		httpx.RespondError(w, http.StatusRequestEntityTooLarge, err)
		return
	case err != nil:
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	s.publishUpdate(name, d)
	httpx.RespondJSON(w, http.StatusOK, IngestResponse{
		Dataset: name,
		Samples: samples,
		Columns: len(req.Columns),
	})
}

// StatsResponse is the full readout of one dataset.
type StatsResponse struct {
	Dataset string                 `json:"dataset"`
	Columns []describe.ColumnStats `json:"columns"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	d := s.Dataset(name)
	if d == nil {
		httpx.RespondError(w, http.StatusNotFound, ErrDatasetNotFound)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, StatsResponse{
		Dataset: name,
		Columns: d.Stats(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	live := s.List()
	sort.Strings(live)

	saved, err := s.store.List(r.Context())
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string][]string{
		"datasets":  live,
		"snapshots": saved,
	})
}

func (s *Server) handleSnapshotSave(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ctx, cancel := contextWithTimeout(r, config.SnapshotTimeout)
	defer cancel()

	if err := s.SaveSnapshot(ctx, name); err != nil {
		if errors.Is(err, ErrDatasetNotFound) {
			httpx.RespondError(w, http.StatusNotFound, err)
			return
		}
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"dataset": name, "snapshot": "saved"})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	ctx, cancel := contextWithTimeout(r, config.SnapshotTimeout)
	defer cancel()

	if err := s.RestoreSnapshot(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.RespondError(w, http.StatusNotFound, err)
			return
		}
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}
	s.publishUpdate(name, s.Dataset(name))
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"dataset": name, "snapshot": "restored"})
}

// MergeRequest names the dataset to fold into the request target.
type MergeRequest struct {
	Source string `json:"source"`
}

// handleMerge folds the source dataset into the target and removes the
// source: the HTTP face of the aggregate merge contract.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Source == "" || req.Source == name {
		httpx.RespondErrorString(w, http.StatusBadRequest, "source must name a different dataset")
		return
	}

	src := s.detach(req.Source)
	if src == nil {
		httpx.RespondError(w, http.StatusNotFound, ErrDatasetNotFound)
		return
	}
	d := s.getOrCreate(name)
	d.merge(src)

	s.publishUpdate(name, d)
	httpx.RespondJSON(w, http.StatusOK, map[string]string{
		"dataset": name,
		"merged":  req.Source,
	})
}

// handleDelete drops the live dataset. The stored snapshot survives
// unless the request asks for purge=true, so a delete-then-restore
// recovers the last saved state.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if s.detach(name) == nil {
		httpx.RespondError(w, http.StatusNotFound, ErrDatasetNotFound)
		return
	}
	if r.URL.Query().Get("purge") == "true" {
		if err := s.store.Delete(r.Context(), name); err != nil {
			log.Printf("Failed to delete snapshot for %q: %v", name, err)
		}
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"dataset": name, "deleted": "ok"})
}

// publishUpdate broadcasts a lightweight change notification.
func (s *Server) publishUpdate(name string, d *Dataset) {
	if s.hub == nil || d == nil || !s.hub.HasClients() {
		return
	}
	d.mu.Lock()
	columns := len(d.columns)
	d.mu.Unlock()
	if err := s.hub.Broadcast(StreamUpdate{
		Dataset: name,
		Columns: columns,
		At:      time.Now().UTC(),
	}); err != nil {
		log.Printf("Failed to broadcast update for %q: %v", name, err)
	}
}

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}
