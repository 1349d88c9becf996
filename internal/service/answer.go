package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	answerCreatedBy = "answer_service"
	answerMethod    = "llm_draft"
)

type AnswerRequest struct {
	RetrieveRequest
}

// SupportLink is one grounded SUPPORTED_BY edge written for a drafted claim.
type SupportLink struct {
	EdgeID  uuid.UUID `json:"edge_id"`
	SpanID  uuid.UUID `json:"span_id"`
	ChunkID string    `json:"chunk_id"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
	Quote   string    `json:"quote"`
}

type AnsweredClaim struct {
	ClaimID uuid.UUID     `json:"claim_id"`
	Text    string        `json:"text"`
	Support []SupportLink `json:"support"`
}

type RejectedClaim struct {
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// AnswerResult carries answer text only when Grounded is true.
type AnswerResult struct {
	Grounded  bool            `json:"grounded"`
	Answer    string          `json:"answer,omitempty"`
	Claims    []AnsweredClaim `json:"claims"`
	Rejected  []RejectedClaim `json:"rejected,omitempty"`
	Retrieval *RetrieveResult `json:"retrieval"`
}

// AnswerService drafts claims from retrieved evidence and records only the
// ones whose citations can be located verbatim in that evidence.
type AnswerService struct {
	retrieval *RetrievalService
	arguments *ArgumentService
	llm       domain.LLMClient
	logger    *zap.Logger
}

func NewAnswerService(retrieval *RetrievalService, arguments *ArgumentService, llm domain.LLMClient, logger *zap.Logger) *AnswerService {
	return &AnswerService{retrieval: retrieval, arguments: arguments, llm: llm, logger: logger}
}

func (s *AnswerService) Answer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	retrieved, err := s.retrieval.Retrieve(ctx, req.RetrieveRequest)
	if err != nil {
		return nil, err
	}

	evidence := evidenceFrom(retrieved)
	result := &AnswerResult{Retrieval: retrieved, Claims: []AnsweredClaim{}}
	if len(evidence) == 0 {
		return result, nil
	}

	chunkText := make(map[string]string, len(evidence))
	for _, e := range evidence {
		chunkText[e.ChunkID] = e.Text
	}

	drafts, err := s.llm.DraftClaims(ctx, req.Question, evidence)
	if err != nil {
		return nil, errors.Join(domain.ErrUpstreamUnavailable, err)
	}

	for _, d := range drafts {
		answered, reason, err := s.record(ctx, d, chunkText)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			s.logger.Info("dropped ungrounded draft claim", zap.String("reason", reason))
			result.Rejected = append(result.Rejected, RejectedClaim{Text: d.Text, Reason: reason})
			continue
		}
		result.Claims = append(result.Claims, *answered)
	}

	if len(result.Claims) > 0 {
		texts := make([]string, len(result.Claims))
		for i, c := range result.Claims {
			texts[i] = c.Text
		}
		result.Grounded = true
		result.Answer = strings.Join(texts, " ")
	}
	return result, nil
}

// record writes one draft. A non-empty reason means the draft was rejected
// before anything was written.
func (s *AnswerService) record(ctx context.Context, d domain.DraftClaim, texts map[string]string) (*AnsweredClaim, string, error) {
	if strings.TrimSpace(d.Text) == "" {
		return nil, "empty claim text", nil
	}

	var located []domain.Justification
	for _, c := range d.Citations {
		text, ok := texts[c.ChunkID]
		if !ok {
			continue
		}
		start, end, ok := locateQuote(text, c.Quote)
		if !ok {
			continue
		}
		located = append(located, domain.Justification{ChunkID: c.ChunkID, Start: start, End: end, Quote: c.Quote})
	}
	if len(located) == 0 {
		return nil, "no citation matches the retrieved evidence", nil
	}

	claimID, err := s.arguments.CreateClaim(ctx, d.Text, "", "")
	if err != nil {
		return nil, "", err
	}
	answered := &AnsweredClaim{ClaimID: claimID, Text: strings.TrimSpace(d.Text)}
	prov := domain.Provenance{CreatedBy: answerCreatedBy, Method: answerMethod}

	for _, j := range located {
		spanID, err := s.arguments.CreateEvidenceSpan(ctx, j.ChunkID, j.Start, j.End, j.Quote)
		if err != nil {
			return nil, "", err
		}
		edgeID, err := s.arguments.LinkSupportedBy(ctx, claimID, spanID, j, prov)
		if err != nil {
			return nil, "", err
		}
		answered.Support = append(answered.Support, SupportLink{
			EdgeID:  edgeID,
			SpanID:  spanID,
			ChunkID: j.ChunkID,
			Start:   j.Start,
			End:     j.End,
			Quote:   j.Quote,
		})
	}
	return answered, "", nil
}

// evidenceFrom merges candidates with the seed packets that carry whole chunk
// text, so located offsets stay chunk offsets. The first occurrence of a
// chunk id wins.
func evidenceFrom(r *RetrieveResult) []domain.EvidencePacket {
	seen := make(map[string]bool)
	var out []domain.EvidencePacket
	add := func(chunkID, text string) {
		if chunkID == "" || text == "" || seen[chunkID] {
			return
		}
		seen[chunkID] = true
		out = append(out, domain.EvidencePacket{ChunkID: chunkID, Text: text})
	}
	for _, c := range r.Candidates {
		add(c.ChunkID, c.Text)
	}
	for _, p := range r.SeedPackets {
		if p.Kind == domain.PacketCrossEdge {
			continue
		}
		add(p.ChunkID, p.Text)
	}
	return out
}

// locateQuote finds the first exact occurrence of quote in text and returns
// it as rune offsets.
func locateQuote(text, quote string) (int, int, bool) {
	if quote == "" {
		return 0, 0, false
	}
	i := strings.Index(text, quote)
	if i < 0 {
		return 0, 0, false
	}
	start := utf8.RuneCountInString(text[:i])
	return start, start + utf8.RuneCountInString(quote), true
}
