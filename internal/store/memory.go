package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/google/uuid"
)

// MemoryArgumentStore is an in-process ArgumentStore with the same
// idempotency rules as ArgumentStore. It backs tests and local demos.
type MemoryArgumentStore struct {
	mu     sync.Mutex
	claims map[uuid.UUID]domain.Claim
	spans  map[uuid.UUID]domain.EvidenceSpan
	edges  map[uuid.UUID]*domain.GroundedEdge
	order  []uuid.UUID
}

func NewMemoryArgumentStore() *MemoryArgumentStore {
	return &MemoryArgumentStore{
		claims: make(map[uuid.UUID]domain.Claim),
		spans:  make(map[uuid.UUID]domain.EvidenceSpan),
		edges:  make(map[uuid.UUID]*domain.GroundedEdge),
	}
}

func (s *MemoryArgumentStore) CreateClaim(ctx context.Context, c *domain.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	s.claims[c.ID] = *c
	return nil
}

func (s *MemoryArgumentStore) GetClaim(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, ErrClaimNotFound
	}
	return &c, nil
}

func (s *MemoryArgumentStore) CreateEvidenceSpan(ctx context.Context, sp *domain.EvidenceSpan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.spans {
		if existing.SourceChunkID == sp.SourceChunkID && existing.Start == sp.Start &&
			existing.End == sp.End && existing.Quote == sp.Quote {
			*sp = existing
			return nil
		}
	}
	sp.ID = uuid.New()
	sp.CreatedAt = time.Now().UTC()
	s.spans[sp.ID] = *sp
	return nil
}

func (s *MemoryArgumentStore) GetEvidenceSpan(ctx context.Context, id uuid.UUID) (*domain.EvidenceSpan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spans[id]
	if !ok {
		return nil, ErrSpanNotFound
	}
	return &sp, nil
}

func (s *MemoryArgumentStore) LinkSupportedBy(ctx context.Context, edge *domain.GroundedEdge, j domain.Justification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[edge.FromID]; !ok {
		return &MissingRowError{Err: ErrClaimNotFound, ID: edge.FromID}
	}
	if _, ok := s.spans[edge.ToID]; !ok {
		return &MissingRowError{Err: ErrSpanNotFound, ID: edge.ToID}
	}

	stored := s.upsertLocked(edge)
	for _, existing := range stored.Justifications {
		if existing.ChunkID == j.ChunkID && existing.Start == j.Start &&
			existing.End == j.End && existing.Quote == j.Quote {
			copyEdge(edge, stored)
			return nil
		}
	}
	stored.Justifications = append(stored.Justifications, domain.JustificationSpan{
		ID:        uuid.New(),
		EdgeID:    stored.ID,
		ChunkID:   j.ChunkID,
		Start:     j.Start,
		End:       j.End,
		Quote:     j.Quote,
		CreatedAt: time.Now().UTC(),
	})
	copyEdge(edge, stored)
	return nil
}

func (s *MemoryArgumentStore) LinkArgument(ctx context.Context, edge *domain.GroundedEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range []uuid.UUID{edge.FromID, edge.ToID} {
		if _, ok := s.claims[id]; !ok {
			return &MissingRowError{Err: ErrClaimNotFound, ID: id}
		}
	}
	copyEdge(edge, s.upsertLocked(edge))
	return nil
}

func (s *MemoryArgumentStore) GetEdge(ctx context.Context, id uuid.UUID) (*domain.GroundedEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[id]
	if !ok {
		return nil, ErrEdgeNotFound
	}
	out := &domain.GroundedEdge{}
	copyEdge(out, e)
	return out, nil
}

func (s *MemoryArgumentStore) ListEdgesFrom(ctx context.Context, claimID uuid.UUID) ([]domain.GroundedEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.GroundedEdge
	for _, id := range s.order {
		e := s.edges[id]
		if e.FromID != claimID {
			continue
		}
		var cp domain.GroundedEdge
		copyEdge(&cp, e)
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryArgumentStore) ApproveEdge(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[id]
	if !ok {
		return ErrEdgeNotFound
	}
	e.Status = domain.EdgeStatusApproved
	return nil
}

func (s *MemoryArgumentStore) upsertLocked(edge *domain.GroundedEdge) *domain.GroundedEdge {
	for _, id := range s.order {
		e := s.edges[id]
		if e.FromID == edge.FromID && e.Relation == edge.Relation && e.ToID == edge.ToID {
			return e
		}
	}
	stored := &domain.GroundedEdge{}
	copyEdge(stored, edge)
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now().UTC()
	stored.Justifications = nil
	s.edges[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	return stored
}

func copyEdge(dst, src *domain.GroundedEdge) {
	justs := append([]domain.JustificationSpan(nil), src.Justifications...)
	*dst = *src
	dst.Justifications = justs
}
