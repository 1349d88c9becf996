package service

import (
	"context"
	"strings"
	"sync"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"go.uber.org/zap"
)

const defaultRetrievalTopK = 8

type RetrieveRequest struct {
	Question      string `json:"question"`
	Intent        string `json:"intent"`
	Mode          string `json:"mode,omitempty"`
	TopK          int    `json:"top_k,omitempty"`
	ForceRerank   bool   `json:"force_rerank,omitempty"`
	ForceNoRerank bool   `json:"force_no_rerank,omitempty"`
}

type RetrieveResult struct {
	Decision       domain.RerankDecision `json:"rerank"`
	Explanation    string                `json:"explanation"`
	RerankModel    string                `json:"rerank_model,omitempty"`
	RerankFallback bool                  `json:"rerank_fallback,omitempty"`
	Candidates     []domain.Candidate    `json:"candidates"`
	SeedPackets    []domain.SeedPacket   `json:"seed_packets"`
}

// RetrievalService runs the evidence pipeline: embed, first-pass vector
// search, the rerank gate, the optional second pass, and the seed floor.
type RetrievalService struct {
	embedder domain.EmbeddingClient
	vectors  domain.VectorSearcher
	gate     *RerankGate
	reranker domain.Reranker
	seeds    *SeedService
	topK     int
	logger   *zap.Logger

	mu      sync.Mutex
	reasons map[string]int64
}

func NewRetrievalService(
	embedder domain.EmbeddingClient,
	vectors domain.VectorSearcher,
	gate *RerankGate,
	logger *zap.Logger,
) *RetrievalService {
	if gate == nil {
		gate = NewRerankGate()
	}
	return &RetrievalService{
		embedder: embedder,
		vectors:  vectors,
		gate:     gate,
		topK:     defaultRetrievalTopK,
		logger:   logger,
		reasons:  make(map[string]int64),
	}
}

// SetReranker wires the second-pass model. A nil reranker leaves every
// positive gate decision without effect.
func (s *RetrievalService) SetReranker(r domain.Reranker) {
	s.reranker = r
}

func (s *RetrievalService) SetSeedService(seeds *SeedService) {
	s.seeds = seeds
}

func (s *RetrievalService) SetTopK(k int) {
	if k > 0 {
		s.topK = k
	}
}

// ReasonCounts returns how often each gate reason has fired since start.
func (s *RetrievalService) ReasonCounts() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.reasons))
	for k, v := range s.reasons {
		out[k] = v
	}
	return out
}

func (s *RetrievalService) Retrieve(ctx context.Context, req RetrieveRequest) (*RetrieveResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, &domain.ValidationError{Field: "question", Reason: "must not be empty"}
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	candidates := s.firstPass(ctx, question, topK*2)

	in := RerankInput{
		Intent:   req.Intent,
		Signal:   signalOf(candidates),
		ForceOn:  req.ForceRerank,
		ForceOff: req.ForceNoRerank,
		Mode:     req.Mode,
	}
	decision := s.gate.Decide(in)
	s.countReason(decision.Reason)

	result := &RetrieveResult{
		Decision:    decision,
		Explanation: s.gate.Explain(in),
	}

	if decision.Enabled && s.reranker != nil && len(candidates) > 0 {
		result.RerankModel = s.reranker.ModelName()
		reranked, err := s.reranker.Rerank(ctx, question, candidates)
		if err != nil {
			s.logger.Warn("rerank failed, keeping first-pass order",
				zap.String("model", result.RerankModel),
				zap.Error(err))
			result.RerankFallback = true
		} else {
			candidates = reranked
		}
	}

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	result.Candidates = candidates

	if s.seeds != nil {
		bundle, err := s.seeds.GetOrLoadSeedBundle(ctx, question)
		if err != nil {
			s.logger.Warn("seed floor unavailable", zap.Error(err))
		} else {
			result.SeedPackets = bundle.AllPackets()
		}
	}
	if result.SeedPackets == nil {
		result.SeedPackets = []domain.SeedPacket{}
	}

	s.logger.Debug("retrieval complete",
		zap.String("intent", req.Intent),
		zap.Bool("rerank", decision.Enabled),
		zap.String("reason", decision.Reason),
		zap.Int("candidates", len(result.Candidates)),
		zap.Int("seed_packets", len(result.SeedPackets)))

	return result, nil
}

// firstPass never fails: an embedding error degrades to an empty candidate
// list, which the gate reads as a weak signal.
func (s *RetrievalService) firstPass(ctx context.Context, question string, k int) []domain.Candidate {
	if s.embedder == nil || s.vectors == nil {
		return []domain.Candidate{}
	}
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		s.logger.Warn("query embedding failed", zap.Error(err))
		return []domain.Candidate{}
	}
	return s.vectors.Search(ctx, vec, k)
}

func (s *RetrievalService) countReason(reason string) {
	s.mu.Lock()
	s.reasons[reason]++
	s.mu.Unlock()
}

func signalOf(candidates []domain.Candidate) domain.RetrievalSignal {
	sig := domain.RetrievalSignal{
		Scores:  make([]float64, len(candidates)),
		Sources: make([]string, len(candidates)),
	}
	for i, c := range candidates {
		sig.Scores[i] = float64(c.Score)
		sig.Sources[i] = c.SourceKey()
	}
	return sig
}
