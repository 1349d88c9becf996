package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/Harshitk-cp/groundwork/internal/service"
)

type RerankHandler struct {
	gate *service.RerankGate
}

func NewRerankHandler(gate *service.RerankGate) *RerankHandler {
	return &RerankHandler{gate: gate}
}

type decideRerankRequest struct {
	Intent   string    `json:"intent"`
	Scores   []float64 `json:"scores"`
	Sources  []string  `json:"sources"`
	ForceOn  bool      `json:"force_on"`
	ForceOff bool      `json:"force_off"`
	Mode     string    `json:"mode"`
}

type decideRerankResponse struct {
	Enabled     bool   `json:"enabled"`
	Reason      string `json:"reason"`
	Explanation string `json:"explanation"`
}

// Decide runs the gate on caller-supplied first-pass signals without
// touching retrieval.
func (h *RerankHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req decideRerankRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := service.RerankInput{
		Intent:   req.Intent,
		Signal:   domain.RetrievalSignal{Scores: req.Scores, Sources: req.Sources},
		ForceOn:  req.ForceOn,
		ForceOff: req.ForceOff,
		Mode:     req.Mode,
	}
	d := h.gate.Decide(in)
	writeJSON(w, http.StatusOK, decideRerankResponse{
		Enabled:     d.Enabled,
		Reason:      d.Reason,
		Explanation: h.gate.Explain(in),
	})
}
