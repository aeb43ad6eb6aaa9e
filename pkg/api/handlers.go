package api

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/gridpool/gridpool/pkg/lifecycle"
	"github.com/gridpool/gridpool/pkg/manager"
	"github.com/gridpool/gridpool/pkg/policy"
	"github.com/gridpool/gridpool/pkg/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// parseDate reads an optional YYYY-MM-DD query parameter. The second
// return is false when the parameter was present but malformed.
func parseDate(w http.ResponseWriter, r *http.Request, param string) (time.Time, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, param+" must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) handleContributeNode(w http.ResponseWriter, r *http.Request) {
	var req manager.NodeContributionRequest
	if !readJSON(w, r, &req) {
		return
	}

	result, err := s.manager.ContributeNode(&req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !result.Accepted {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.manager.ListNodes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) handleRemoveNodeNow(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	node, err := s.manager.Lifecycle().RemoveNow(url)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, node)
}

type releaseRequest struct {
	URL        string `json:"url"`
	OwnerNetID string `json:"owner_net_id"`
}

func (s *Server) handleReleaseNode(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if !readJSON(w, r, &req) {
		return
	}

	err := s.manager.Lifecycle().RequestRemoval(req.URL, req.OwnerNetID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, lifecycle.ErrNotOwner):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending removal at next cutover"})
}

func (s *Server) handleCancelRelease(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if !readJSON(w, r, &req) {
		return
	}

	err := s.manager.Lifecycle().CancelRemoval(req.URL, req.OwnerNetID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, lifecycle.ErrNotOwner):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removal cancelled"})
}

func (s *Server) handlePendingRemovals(w http.ResponseWriter, r *http.Request) {
	pending, err := s.manager.ListPendingRemovals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleRunRemovalBatch(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Lifecycle().RunBatch(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "batch complete"})
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req manager.JobRequest
	if !readJSON(w, r, &req) {
		return
	}

	result, err := s.manager.SubmitJob(&req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !result.Accepted {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.manager.ListJobs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleAssigned(w http.ResponseWriter, r *http.Request) {
	if faculty := r.URL.Query().Get("faculty"); faculty != "" {
		total, err := s.manager.AssignedTotalsFor(faculty)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, total)
		return
	}

	totals, err := s.manager.AssignedTotals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleReserved(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(w, r, "date")
	if !ok {
		return
	}

	totals, err := s.manager.ReservedTotals(r.URL.Query().Get("faculty"), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleAvailable(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(w, r, "date")
	if !ok {
		return
	}

	rows, err := s.manager.AvailableTotals(r.URL.Query().Get("faculty"), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleAvailableUntil(w http.ResponseWriter, r *http.Request) {
	faculty := r.URL.Query().Get("faculty")
	if faculty == "" {
		writeError(w, http.StatusBadRequest, "faculty query parameter is required")
		return
	}
	until, ok := parseDate(w, r, "until")
	if !ok {
		return
	}
	if until.IsZero() {
		writeError(w, http.StatusBadRequest, "until query parameter is required")
		return
	}

	series, err := s.manager.AvailableUntil(faculty, until)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, series)
}

type policiesRequest struct {
	Job        string `json:"job,omitempty"`
	Assignment string `json:"assignment,omitempty"`
}

func (s *Server) handleSetPolicies(w http.ResponseWriter, r *http.Request) {
	var req policiesRequest
	if !readJSON(w, r, &req) {
		return
	}

	if req.Job != "" {
		p, err := policy.JobPolicyByName(req.Job)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.manager.Scheduler().SetPolicy(p)
	}
	if req.Assignment != "" {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		p, err := policy.AssignmentPolicyByName(req.Assignment, rng)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.manager.SetAssignmentPolicy(p)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"job": s.manager.Scheduler().Policy().Name(),
	})
}
