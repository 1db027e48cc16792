package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/san-kum/vicsek/internal/torus"
	"github.com/san-kum/vicsek/internal/vicsek"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// StateResponse is the full snapshot returned by GET /state and every
// mutating endpoint.
type StateResponse struct {
	Running    bool              `json:"running"`
	Iteration  int               `json:"iteration"`
	Phi        float64           `json:"phi"`
	AvgPhi     float64           `json:"avg_phi"`
	Config     vicsek.Config     `json:"config"`
	Domain     torus.Domain      `json:"domain"`
	Particles  []vicsek.Particle `json:"particles"`
	LocalOrder []float64         `json:"local_order,omitempty"`
	Neighbors  [][]int           `json:"neighbors,omitempty"`
}

type HistoryResponse struct {
	Iteration int       `json:"iteration"`
	Phi       []float64 `json:"phi"`
	AvgPhi    float64   `json:"avg_phi"`
}

// ResetRequest fields left out keep their current value.
type ResetRequest struct {
	Config *vicsek.Config `json:"config,omitempty"`
	Domain *torus.Domain  `json:"domain,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps validation failures to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError
	var ve *vicsek.ValidationError
	switch {
	case errors.As(err, &ve):
		resp.Field = ve.Field
		status = http.StatusBadRequest
	case errors.Is(err, vicsek.ErrNotReady):
		status = http.StatusConflict
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf(format, args...)})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// snapshot must be called with mu held.
func (s *Server) snapshot(detail bool) StateResponse {
	st := s.sim.State()
	resp := StateResponse{
		Running:   s.running,
		Iteration: st.Iteration,
		Phi:       st.CurrentPhi,
		AvgPhi:    st.AvgPhi,
		Config:    s.sim.Config(),
		Domain:    s.sim.Domain(),
		Particles: st.Particles,
	}
	if detail {
		resp.LocalOrder = s.sim.LocalOrder()
		resp.Neighbors = s.sim.Neighbors()
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: time.Now(),
		Message:   "simulation server running",
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "pong",
		"timestamp": time.Now(),
	})
}

// handleState accepts ?detail=1 to include local order and neighbor lists.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	detail, _ := strconv.ParseBool(r.URL.Query().Get("detail"))
	s.mu.Lock()
	resp := s.snapshot(detail)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := HistoryResponse{
		Iteration: s.sim.Iteration(),
		Phi:       s.sim.PhiHistory(),
		AvgPhi:    s.sim.AvgPhi(),
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	n := 1
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 || v > MaxStepsPerRequest {
			badRequest(w, "n must be an integer in [1, %d]", MaxStepsPerRequest)
			return
		}
		n = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sim.StepN(r.Context(), n); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(false))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "decode body: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, d := s.sim.Config(), s.sim.Domain()
	if req.Config != nil {
		cfg = *req.Config
	}
	if req.Domain != nil {
		d = *req.Domain
	}
	if err := s.sim.Reset(cfg, d); err != nil {
		writeError(w, err)
		return
	}
	s.log.Info("simulation reset", "particles", cfg.ParticleCount, "seed", cfg.Seed, "domain", d.String())
	writeJSON(w, http.StatusOK, s.snapshot(false))
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var patch vicsek.ConfigPatch
	if err := decodeBody(r, &patch); err != nil {
		badRequest(w, "decode body: %v", err)
		return
	}
	if patch.Empty() {
		badRequest(w, "empty config patch")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sim.UpdateConfig(patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(false))
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var d torus.Domain
	if err := decodeBody(r, &d); err != nil {
		badRequest(w, "decode body: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sim.Resize(d); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(false))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.setRunning(true)
	writeJSON(w, http.StatusOK, map[string]bool{"running": true})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.setRunning(false)
	writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}
