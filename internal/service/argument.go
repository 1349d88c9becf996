package service

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/Harshitk-cp/groundwork/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArgumentService is the single write path into the argument graph. No
// SUPPORTED_BY edge leaves it without a justification span.
type ArgumentService struct {
	store        domain.ArgumentStore
	chunks       domain.ChunkStore
	verifyQuotes bool
	logger       *zap.Logger
}

func NewArgumentService(s domain.ArgumentStore, logger *zap.Logger) *ArgumentService {
	return &ArgumentService{store: s, logger: logger}
}

// SetQuoteVerifier enables byte-exact checking of justification quotes
// against the named chunk at write time.
func (s *ArgumentService) SetQuoteVerifier(chunks domain.ChunkStore, enabled bool) {
	s.chunks = chunks
	s.verifyQuotes = enabled && chunks != nil
}

func (s *ArgumentService) CreateClaim(ctx context.Context, text, entityType, entityID string) (uuid.UUID, error) {
	c, err := domain.NewClaim(text, entityType, entityID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.store.CreateClaim(ctx, c); err != nil {
		return uuid.Nil, err
	}
	return c.ID, nil
}

func (s *ArgumentService) CreateEvidenceSpan(ctx context.Context, chunkID string, start, end int, quote string) (uuid.UUID, error) {
	sp, err := domain.NewEvidenceSpan(chunkID, start, end, quote)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.store.CreateEvidenceSpan(ctx, sp); err != nil {
		return uuid.Nil, err
	}
	return sp.ID, nil
}

// LinkSupportedBy registers claim -SUPPORTED_BY-> span. The justification is
// checked before anything is written; the store then upserts the edge and
// attaches the justification atomically. Re-linking returns the same edge id.
func (s *ArgumentService) LinkSupportedBy(ctx context.Context, claimID, spanID uuid.UUID, j domain.Justification, prov domain.Provenance) (uuid.UUID, error) {
	if err := j.Validate(); err != nil {
		s.logger.Warn("rejected ungrounded link",
			zap.String("claim_id", claimID.String()),
			zap.String("span_id", spanID.String()),
			zap.Error(err))
		return uuid.Nil, err
	}
	if err := s.verifyQuote(ctx, j); err != nil {
		s.logger.Warn("rejected link with mismatched quote",
			zap.String("claim_id", claimID.String()),
			zap.String("chunk_id", j.ChunkID),
			zap.Error(err))
		return uuid.Nil, err
	}

	edge := domain.NewGroundedEdge(claimID, spanID, domain.RelationSupportedBy, prov)
	if err := s.store.LinkSupportedBy(ctx, edge, j); err != nil {
		return uuid.Nil, mapStoreErr(err, claimID)
	}
	return edge.ID, nil
}

// LinkArgument registers a claim-to-claim relation. It carries no grounding
// requirement.
func (s *ArgumentService) LinkArgument(ctx context.Context, fromID, toID uuid.UUID, relation domain.RelationType, prov domain.Provenance) (uuid.UUID, error) {
	if !domain.ValidArgumentRelation(relation) {
		return uuid.Nil, &domain.ValidationError{Field: "relation", Reason: "not a claim-to-claim relation: " + string(relation)}
	}
	if fromID == toID {
		return uuid.Nil, &domain.ValidationError{Field: "to_claim_id", Reason: "a claim cannot relate to itself"}
	}

	edge := domain.NewGroundedEdge(fromID, toID, relation, prov)
	if err := s.store.LinkArgument(ctx, edge); err != nil {
		return uuid.Nil, mapStoreErr(err, fromID)
	}
	return edge.ID, nil
}

func (s *ArgumentService) GetClaim(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	c, err := s.store.GetClaim(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, id)
	}
	return c, nil
}

func (s *ArgumentService) GetEvidenceSpan(ctx context.Context, id uuid.UUID) (*domain.EvidenceSpan, error) {
	sp, err := s.store.GetEvidenceSpan(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, id)
	}
	return sp, nil
}

func (s *ArgumentService) GetEdge(ctx context.Context, id uuid.UUID) (*domain.GroundedEdge, error) {
	e, err := s.store.GetEdge(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, id)
	}
	return e, nil
}

func (s *ArgumentService) ListEdgesFrom(ctx context.Context, claimID uuid.UUID) ([]domain.GroundedEdge, error) {
	if _, err := s.GetClaim(ctx, claimID); err != nil {
		return nil, err
	}
	return s.store.ListEdgesFrom(ctx, claimID)
}

func (s *ArgumentService) ApproveEdge(ctx context.Context, id uuid.UUID) error {
	if err := s.store.ApproveEdge(ctx, id); err != nil {
		return mapStoreErr(err, id)
	}
	return nil
}

// verifyQuote checks that the quote is exactly the chunk text at [start, end)
// in rune offsets. A chunk that cannot be read does not block the link.
func (s *ArgumentService) verifyQuote(ctx context.Context, j domain.Justification) error {
	if !s.verifyQuotes {
		return nil
	}
	text, err := s.chunks.GetChunkText(ctx, j.ChunkID)
	if err != nil {
		s.logger.Debug("quote verification skipped", zap.String("chunk_id", j.ChunkID), zap.Error(err))
		return nil
	}
	runes := []rune(text)
	if j.End > len(runes) {
		return &domain.GroundingError{Reason: "justification range exceeds chunk " + j.ChunkID}
	}
	if string(runes[j.Start:j.End]) != j.Quote {
		return &domain.GroundingError{Reason: "quote does not match chunk " + j.ChunkID + " at the given offsets"}
	}
	return nil
}

// mapStoreErr translates store sentinels into domain errors. id is the row
// the operation looked up when the store does not name one itself.
func mapStoreErr(err error, id uuid.UUID) error {
	var missing *store.MissingRowError
	if errors.As(err, &missing) {
		id = missing.ID
	}
	switch {
	case errors.Is(err, store.ErrClaimNotFound):
		return &domain.NotFoundError{Kind: "claim", ID: id.String()}
	case errors.Is(err, store.ErrSpanNotFound):
		return &domain.NotFoundError{Kind: "evidence span", ID: id.String()}
	case errors.Is(err, store.ErrEdgeNotFound):
		return &domain.NotFoundError{Kind: "edge", ID: id.String()}
	case errors.Is(err, store.ErrUngrounded):
		return &domain.GroundingError{Reason: err.Error()}
	}
	return err
}
