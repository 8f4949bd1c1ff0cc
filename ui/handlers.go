package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simonsteiger/strix/app"
	"github.com/simonsteiger/strix/domain/contrast"
	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/domain/posterior"
)

// contrastRequest is the JSON body for POST /api/contrast. Posterior draws
// arrive as parallel per-group arrays, one value per MCMC draw.
type contrastRequest struct {
	Intercepts      map[string][]float64 `json:"intercepts"`
	Slopes          map[string][]float64 `json:"slopes"`
	Sigmas          map[string][]float64 `json:"sigmas"`
	Grid            []float64            `json:"grid"`
	ReferenceOffset float64              `json:"reference_offset"`
	DrawCount       int                  `json:"draw_count"`
	GroupA          string               `json:"group_a"`
	GroupB          string               `json:"group_b"`
	QuantileLevels  []float64            `json:"quantile_levels,omitempty"`
	Seed            *int64               `json:"seed,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleContrast(w http.ResponseWriter, r *http.Request) {
	var req contrastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	sample := posterior.NewSample()
	for group, draws := range req.Intercepts {
		sample.Set(posterior.ParamIntercept, posterior.GroupID(group), draws)
	}
	for group, draws := range req.Slopes {
		sample.Set(posterior.ParamSlope, posterior.GroupID(group), draws)
	}
	for group, draws := range req.Sigmas {
		sample.Set(posterior.ParamSigma, posterior.GroupID(group), draws)
	}

	seed := s.defaults.DefaultSeed
	if req.Seed != nil {
		seed = *req.Seed
	}
	drawCount := req.DrawCount
	if drawCount == 0 {
		drawCount = s.defaults.DefaultDrawCount
	}
	levels := req.QuantileLevels
	if len(levels) == 0 {
		levels = s.defaults.QuantileLevels
	}

	result, err := s.service.Run(r.Context(), app.ContrastRequest{
		Posterior:       sample,
		Grid:            contrast.Grid(req.Grid),
		ReferenceOffset: req.ReferenceOffset,
		DrawCount:       drawCount,
		GroupA:          posterior.GroupID(req.GroupA),
		GroupB:          posterior.GroupID(req.GroupB),
		QuantileLevels:  levels,
		Seed:            seed,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotImplemented, "run storage not configured")
		return
	}
	manifests, err := s.repo.ListRuns(r.Context(), 50)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, manifests)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotImplemented, "run storage not configured")
		return
	}
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotImplemented, "run storage not configured")
		return
	}
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.repo.GetRun(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	md := app.BuildMarkdownReport(result)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(app.RenderHTMLReport(md))
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsInputError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case core.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
