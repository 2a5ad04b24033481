package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/thruflo/sortvis/internal/dataset"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/history"
	"github.com/thruflo/sortvis/internal/stream"
)

// DefaultHistoryLimit is the number of runs GET /api/runs returns when no
// limit is given.
const DefaultHistoryLimit = 50

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// methodNotAllowed answers 405 for a path that only accepts allowed.
func methodNotAllowed(allowed string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allowed)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
}

func decodeBody(r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", engine.ErrInvalidInput, err)
	}
	return nil
}

// handleState handles GET /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stream.NewSnapshotEvent(s.engine.Snapshot()))
}

// handleAlgorithms handles GET /api/algorithms.
func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	algs := engine.Algorithms()
	names := make([]string, len(algs))
	for i, a := range algs {
		names[i] = a.String()
	}
	writeJSON(w, http.StatusOK, names)
}

type dataSetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DefaultSize int    `json:"default_size"`
}

// handleDataSets handles GET /api/datasets.
func (s *Server) handleDataSets(w http.ResponseWriter, r *http.Request) {
	types := dataset.Types()
	infos := make([]dataSetInfo, len(types))
	for i, t := range types {
		infos[i] = dataSetInfo{Name: string(t), Description: t.Description(), DefaultSize: t.DefaultSize()}
	}
	writeJSON(w, http.StatusOK, infos)
}

type resetRequest struct {
	Values  []int  `json:"values,omitempty"`
	DataSet string `json:"dataset,omitempty"`
	Size    int    `json:"size,omitempty"`
	Seed    int64  `json:"seed,omitempty"`
}

// handleReset handles POST /api/reset. An empty body generates the default
// data set.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.reset(req.Values, req.DataSet, req.Size, req.Seed); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stream.NewSnapshotEvent(s.engine.Snapshot()))
}

type runRequest struct {
	Algorithm string `json:"algorithm"`
}

type runResponse struct {
	RunID     string           `json:"run_id"`
	Algorithm engine.Algorithm `json:"algorithm"`
}

// handleStartRun handles POST /api/run.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	alg, err := engine.ParseAlgorithm(req.Algorithm)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", engine.ErrInvalidInput, err))
		return
	}

	h, err := s.startRun(alg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runResponse{RunID: h.ID(), Algorithm: h.Algorithm()})
}

type cancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	RunID     string `json:"run_id,omitempty"`
}

// handleCancel handles POST /api/cancel. Cancelling with no active run is
// not an error.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := s.cancelRun()
	writeJSON(w, http.StatusOK, cancelResponse{Cancelled: id != "", RunID: id})
}

// handleRuns handles GET /api/runs?limit=N, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []history.RunRecord{})
		return
	}

	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	records, err := s.history.List(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleRun handles GET /api/runs/{id}.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, history.ErrNotFound)
		return
	}
	rec, err := s.history.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
