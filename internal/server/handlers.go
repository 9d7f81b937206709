package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hupe1980/ivfgo"
)

type searchRequest struct {
	Vector       []float32 `json:"vector"`
	TopK         int       `json:"top_k"`
	NProbe       *int      `json:"nprobe,omitempty"`
	ProbeRatio   *float32  `json:"probe_ratio,omitempty"`
	RefineFactor *int      `json:"refine_factor,omitempty"`
	FilterIDs    []uint32  `json:"filter_ids,omitempty"`
	Explain      bool      `json:"explain,omitempty"`
}

type searchHit struct {
	ID       uint32  `json:"id"`
	Distance float32 `json:"distance"`
}

type explainResponse struct {
	Probed    []int   `json:"probed"`
	Scanned   int     `json:"scanned"`
	Threshold float32 `json:"threshold"`
}

type searchResponse struct {
	Results []searchHit      `json:"results"`
	Explain *explainResponse `json:"explain,omitempty"`
}

type insertRequest struct {
	Vectors [][]float32 `json:"vectors"`
}

type insertResponse struct {
	IDs []uint32 `json:"ids"`
}

type vectorResponse struct {
	ID     uint32    `json:"id"`
	Vector []float32 `json:"vector"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.TopK == 0 {
		req.TopK = s.config.Search.DefaultTopK
	}
	if req.TopK > s.config.Search.MaxTopK {
		s.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("top_k exceeds maximum of %d", s.config.Search.MaxTopK))
		return
	}

	var opts []ivfgo.SearchOption
	if req.NProbe != nil {
		opts = append(opts, ivfgo.WithNProbe(*req.NProbe))
	}
	if req.ProbeRatio != nil {
		opts = append(opts, ivfgo.WithProbeRatio(*req.ProbeRatio))
	}
	if req.RefineFactor != nil {
		opts = append(opts, ivfgo.WithRefineFactor(*req.RefineFactor))
	}
	if req.FilterIDs != nil {
		ids := make([]ivfgo.ID, len(req.FilterIDs))
		for i, id := range req.FilterIDs {
			ids[i] = ivfgo.ID(id)
		}
		opts = append(opts, ivfgo.WithFilterIDs(ids...))
	}

	res, ex, err := s.db.Explain(r.Context(), req.Vector, req.TopK, opts...)
	if err != nil {
		s.respondDBError(w, r, err)
		return
	}

	resp := searchResponse{Results: make([]searchHit, len(res))}
	for i, h := range res {
		resp.Results[i] = searchHit{ID: uint32(h.ID), Distance: h.Distance}
	}
	if req.Explain {
		resp.Explain = &explainResponse{Probed: ex.Probed, Scanned: ex.Scanned, Threshold: ex.Threshold}
	}
	s.respondJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Vectors) == 0 {
		s.respondError(w, r, http.StatusBadRequest, "vectors must not be empty")
		return
	}

	ids, err := s.db.BatchInsert(r.Context(), req.Vectors)
	if err != nil {
		s.respondDBError(w, r, err)
		return
	}
	resp := insertResponse{IDs: make([]uint32, len(ids))}
	for i, id := range ids {
		resp.IDs[i] = uint32(id)
	}
	s.respondJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) handleGetVector(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid vector id")
		return
	}
	v, err := s.db.Get(ivfgo.ID(id))
	if err != nil {
		s.respondDBError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, vectorResponse{ID: uint32(id), Vector: v})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Build(r.Context()); err != nil {
		s.respondDBError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, s.db.Stats().Index)
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Checkpoint(r.Context()); err != nil {
		s.respondDBError(w, r, err)
		return
	}
	st := s.db.Stats()
	s.respondJSON(w, r, http.StatusOK, map[string]uint64{"snapshot_lsn": st.SnapshotLSN})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, s.db.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.codec.Unmarshal(body, v); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
