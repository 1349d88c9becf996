package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/Harshitk-cp/groundwork/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ArgumentHandler struct {
	svc    *service.ArgumentService
	logger *zap.Logger
}

func NewArgumentHandler(svc *service.ArgumentService, logger *zap.Logger) *ArgumentHandler {
	return &ArgumentHandler{svc: svc, logger: logger}
}

type createClaimRequest struct {
	Text       string `json:"text"`
	EntityType string `json:"entity_type,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
}

type createSpanRequest struct {
	SourceChunkID string `json:"source_chunk_id"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	Quote         string `json:"quote"`
}

type linkSupportRequest struct {
	SpanID        uuid.UUID            `json:"span_id"`
	Justification domain.Justification `json:"justification"`
	CreatedBy     string               `json:"created_by,omitempty"`
	Method        string               `json:"method,omitempty"`
}

type linkArgumentRequest struct {
	ToClaimID uuid.UUID           `json:"to_claim_id"`
	Relation  domain.RelationType `json:"relation"`
	CreatedBy string              `json:"created_by,omitempty"`
	Method    string              `json:"method,omitempty"`
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

type listEdgesResponse struct {
	Edges []domain.GroundedEdge `json:"edges"`
	Count int                   `json:"count"`
}

func (h *ArgumentHandler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var req createClaimRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.svc.CreateClaim(r.Context(), req.Text, req.EntityType, req.EntityID)
	if err != nil {
		h.fail(w, "create claim", err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (h *ArgumentHandler) GetClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.svc.GetClaim(r.Context(), id)
	if err != nil {
		h.fail(w, "get claim", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ArgumentHandler) ListEdges(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	edges, err := h.svc.ListEdgesFrom(r.Context(), id)
	if err != nil {
		h.fail(w, "list edges", err)
		return
	}
	if edges == nil {
		edges = []domain.GroundedEdge{}
	}
	writeJSON(w, http.StatusOK, listEdgesResponse{Edges: edges, Count: len(edges)})
}

func (h *ArgumentHandler) LinkSupport(w http.ResponseWriter, r *http.Request) {
	claimID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req linkSupportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	edgeID, err := h.svc.LinkSupportedBy(r.Context(), claimID, req.SpanID, req.Justification,
		domain.Provenance{CreatedBy: req.CreatedBy, Method: req.Method})
	if err != nil {
		h.fail(w, "link support", err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: edgeID})
}

func (h *ArgumentHandler) LinkArgument(w http.ResponseWriter, r *http.Request) {
	fromID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req linkArgumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !domain.ValidRelationType(string(req.Relation)) {
		writeError(w, http.StatusBadRequest, "unknown relation type: "+string(req.Relation))
		return
	}
	edgeID, err := h.svc.LinkArgument(r.Context(), fromID, req.ToClaimID, req.Relation,
		domain.Provenance{CreatedBy: req.CreatedBy, Method: req.Method})
	if err != nil {
		h.fail(w, "link argument", err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: edgeID})
}

func (h *ArgumentHandler) CreateSpan(w http.ResponseWriter, r *http.Request) {
	var req createSpanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.svc.CreateEvidenceSpan(r.Context(), req.SourceChunkID, req.Start, req.End, req.Quote)
	if err != nil {
		h.fail(w, "create evidence span", err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (h *ArgumentHandler) GetSpan(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	sp, err := h.svc.GetEvidenceSpan(r.Context(), id)
	if err != nil {
		h.fail(w, "get evidence span", err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (h *ArgumentHandler) GetEdge(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	e, err := h.svc.GetEdge(r.Context(), id)
	if err != nil {
		h.fail(w, "get edge", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *ArgumentHandler) ApproveEdge(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.ApproveEdge(r.Context(), id); err != nil {
		h.fail(w, "approve edge", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ArgumentHandler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Debug(op+" failed", zap.Error(err))
	writeServiceError(w, err)
}
