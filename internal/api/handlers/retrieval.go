package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/groundwork/internal/service"
	"go.uber.org/zap"
)

type RetrievalHandler struct {
	retrieval *service.RetrievalService
	answers   *service.AnswerService
	logger    *zap.Logger
}

func NewRetrievalHandler(retrieval *service.RetrievalService, answers *service.AnswerService, logger *zap.Logger) *RetrievalHandler {
	return &RetrievalHandler{retrieval: retrieval, answers: answers, logger: logger}
}

func (h *RetrievalHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req service.RetrieveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.retrieval.Retrieve(r.Context(), req)
	if err != nil {
		h.logger.Debug("retrieve failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RetrievalHandler) Answer(w http.ResponseWriter, r *http.Request) {
	if h.answers == nil {
		writeError(w, http.StatusServiceUnavailable, "answering is not configured")
		return
	}
	var req service.AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.answers.Answer(r.Context(), req)
	if err != nil {
		h.logger.Warn("answer failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
