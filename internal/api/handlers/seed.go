package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/Harshitk-cp/groundwork/internal/service"
	"go.uber.org/zap"
)

type SeedHandler struct {
	svc    *service.SeedService
	logger *zap.Logger
}

func NewSeedHandler(svc *service.SeedService, logger *zap.Logger) *SeedHandler {
	return &SeedHandler{svc: svc, logger: logger}
}

type seedResponse struct {
	Fingerprint string              `json:"fingerprint"`
	Packets     []domain.SeedPacket `json:"packets"`
	Count       int                 `json:"count"`
}

func newSeedResponse(b *domain.SeedBundle) seedResponse {
	packets := b.AllPackets()
	if packets == nil {
		packets = []domain.SeedPacket{}
	}
	return seedResponse{Fingerprint: b.Fingerprint(), Packets: packets, Count: len(packets)}
}

func (h *SeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetOrLoadSeedBundle(r.Context(), r.URL.Query().Get("question"))
	if err != nil {
		h.logger.Warn("seed bundle unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "seed bundle not ready")
		return
	}
	writeJSON(w, http.StatusOK, newSeedResponse(b))
}

func (h *SeedHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Refresh(r.Context())
	if err != nil {
		h.logger.Error("seed refresh failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "seed refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, newSeedResponse(b))
}
