package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func TestBestJustification(t *testing.T) {
	e := domain.SeedEdge{FromID: "P001", ToID: "P002", Relation: "ENABLES"}

	text, src := bestJustification(e, strPtr("quoted"), strPtr("excerpt"))
	assert.Equal(t, "quoted", text)
	assert.Equal(t, domain.FromJustification, src)

	text, src = bestJustification(e, strPtr("  "), strPtr("excerpt"))
	assert.Equal(t, "excerpt", text)
	assert.Equal(t, domain.FromExcerpt, src)

	text, src = bestJustification(e, nil, nil)
	assert.Equal(t, "ENABLES(P001→P002)", text)
	assert.Equal(t, domain.FromPlaceholder, src)
}

func TestDecodeRefs(t *testing.T) {
	logger := zap.NewNop()

	refs := decodeRefs([]byte(`[{"type":"verse","value":"2:183","label":"fasting"}]`), logger, "c1")
	require.Len(t, refs, 1)
	assert.Equal(t, domain.Ref{Type: "verse", Value: "2:183", Label: "fasting"}, refs[0])

	assert.Nil(t, decodeRefs(nil, logger, "c1"))
	assert.Nil(t, decodeRefs([]byte(`{"not":"a list"`), logger, "c1"))
}

func TestVectorStore_Unconfigured(t *testing.T) {
	s := NewVectorStore(nil, zap.NewNop())
	got := s.Search(context.Background(), []float32{1, 2}, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestIsCheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", Message: "supported_by edge has no justification"}
	assert.True(t, isCheckViolation(pgErr))
	assert.True(t, isCheckViolation(fmt.Errorf("commit: %w", pgErr)))
	assert.False(t, isCheckViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isCheckViolation(errors.New("23514")))
}

func TestMissingRowError(t *testing.T) {
	id := uuid.New()
	err := error(&MissingRowError{Err: ErrSpanNotFound, ID: id})
	assert.ErrorIs(t, err, ErrSpanNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), id.String())
}

func TestMemoryArgumentStore_Approve(t *testing.T) {
	s := NewMemoryArgumentStore()
	ctx := context.Background()

	c := &domain.Claim{Text: "a"}
	require.NoError(t, s.CreateClaim(ctx, c))
	sp := &domain.EvidenceSpan{SourceChunkID: "k", Start: 0, End: 1, Quote: "q"}
	require.NoError(t, s.CreateEvidenceSpan(ctx, sp))

	edge := domain.NewGroundedEdge(c.ID, sp.ID, domain.RelationSupportedBy, domain.Provenance{})
	require.NoError(t, s.LinkSupportedBy(ctx, edge, domain.Justification{ChunkID: "k", Start: 0, End: 1, Quote: "q"}))
	require.NoError(t, s.ApproveEdge(ctx, edge.ID))

	got, err := s.GetEdge(ctx, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EdgeStatusApproved, got.Status)

	// returned edges are copies
	got.Justifications[0].Quote = "mutated"
	again, err := s.GetEdge(ctx, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, "q", again.Justifications[0].Quote)

	assert.ErrorIs(t, s.ApproveEdge(ctx, uuid.New()), ErrEdgeNotFound)
}
