package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/Harshitk-cp/groundwork/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockChunkStore implements domain.ChunkStore for testing.
type mockChunkStore struct {
	texts map[string]string
	calls int
}

func (m *mockChunkStore) GetChunkText(ctx context.Context, chunkID string) (string, error) {
	m.calls++
	t, ok := m.texts[chunkID]
	if !ok {
		return "", store.ErrChunkNotFound
	}
	return t, nil
}

const spiritualChunk = "البعد الروحي هو صلة القلب بالله، ومنه تنبع الطمأنينة."

func newArgumentFixture(t *testing.T) (*ArgumentService, *store.MemoryArgumentStore, uuid.UUID, uuid.UUID) {
	t.Helper()
	mem := store.NewMemoryArgumentStore()
	svc := NewArgumentService(mem, zap.NewNop())
	ctx := context.Background()

	claimID, err := svc.CreateClaim(ctx, "Spiritual practice brings calm.", "pillar", "P001")
	require.NoError(t, err)
	spanID, err := svc.CreateEvidenceSpan(ctx, "def:P001", 0, 12, "البعد الروحي")
	require.NoError(t, err)
	return svc, mem, claimID, spanID
}

func justificationCount(t *testing.T, svc *ArgumentService, edgeID uuid.UUID) int {
	t.Helper()
	edge, err := svc.GetEdge(context.Background(), edgeID)
	require.NoError(t, err)
	return len(edge.Justifications)
}

func validJustification() domain.Justification {
	return domain.Justification{ChunkID: "def:P001", Start: 0, End: 12, Quote: "البعد الروحي"}
}

func TestArgumentService_LinkSupportedBy(t *testing.T) {
	svc, _, claimID, spanID := newArgumentFixture(t)
	ctx := context.Background()

	edgeID, err := svc.LinkSupportedBy(ctx, claimID, spanID, validJustification(), domain.Provenance{})
	require.NoError(t, err)

	edge, err := svc.GetEdge(ctx, edgeID)
	require.NoError(t, err)
	assert.Equal(t, domain.RelationSupportedBy, edge.Relation)
	assert.Equal(t, "system", edge.CreatedBy)
	assert.Equal(t, "manual", edge.Method)
	assert.Equal(t, domain.EdgeStatusProposed, edge.Status)
	require.Len(t, edge.Justifications, 1)
	assert.Equal(t, "البعد الروحي", edge.Justifications[0].Quote)
	assert.Equal(t, 1, justificationCount(t, svc, edgeID))
}

func TestArgumentService_LinkSupportedByIsIdempotent(t *testing.T) {
	svc, _, claimID, spanID := newArgumentFixture(t)
	ctx := context.Background()

	first, err := svc.LinkSupportedBy(ctx, claimID, spanID, validJustification(), domain.Provenance{})
	require.NoError(t, err)
	second, err := svc.LinkSupportedBy(ctx, claimID, spanID, validJustification(), domain.Provenance{CreatedBy: "reviewer"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, justificationCount(t, svc, first))

	edges, err := svc.ListEdgesFrom(ctx, claimID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "system", edges[0].CreatedBy)
}

func TestArgumentService_ConcurrentLinkSupportedByConverges(t *testing.T) {
	svc, _, claimID, spanID := newArgumentFixture(t)
	ctx := context.Background()

	const workers = 50
	ids := make(chan uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.LinkSupportedBy(ctx, claimID, spanID, validJustification(), domain.Provenance{})
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	distinct := map[uuid.UUID]bool{}
	for id := range ids {
		distinct[id] = true
	}
	require.Len(t, distinct, 1)
	for id := range distinct {
		assert.Equal(t, 1, justificationCount(t, svc, id))
	}

	edges, err := svc.ListEdgesFrom(ctx, claimID)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestArgumentService_SecondJustificationAttachesToSameEdge(t *testing.T) {
	svc, _, claimID, spanID := newArgumentFixture(t)
	ctx := context.Background()

	first, err := svc.LinkSupportedBy(ctx, claimID, spanID, validJustification(), domain.Provenance{})
	require.NoError(t, err)
	other := domain.Justification{ChunkID: "def:P001", Start: 20, End: 25, Quote: "بالله"}
	second, err := svc.LinkSupportedBy(ctx, claimID, spanID, other, domain.Provenance{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, justificationCount(t, svc, first))
}

func TestArgumentService_RejectsUngroundedLinks(t *testing.T) {
	tests := []struct {
		name    string
		j       domain.Justification
		wantErr error
	}{
		{"empty quote", domain.Justification{ChunkID: "def:P001", Start: 0, End: 12, Quote: ""}, domain.ErrGrounding},
		{"whitespace quote", domain.Justification{ChunkID: "def:P001", Start: 0, End: 12, Quote: "  "}, domain.ErrGrounding},
		{"empty chunk", domain.Justification{ChunkID: "", Start: 0, End: 12, Quote: "x"}, domain.ErrGrounding},
		{"inverted range", domain.Justification{ChunkID: "def:P001", Start: 5, End: 5, Quote: "x"}, domain.ErrValidation},
		{"negative start", domain.Justification{ChunkID: "def:P001", Start: -1, End: 5, Quote: "x"}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, claimID, spanID := newArgumentFixture(t)
			_, err := svc.LinkSupportedBy(context.Background(), claimID, spanID, tt.j, domain.Provenance{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			edges, err := svc.ListEdgesFrom(context.Background(), claimID)
			require.NoError(t, err)
			assert.Empty(t, edges)
		})
	}
}

func TestArgumentService_NotFound(t *testing.T) {
	svc, _, claimID, spanID := newArgumentFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := svc.LinkSupportedBy(ctx, missing, spanID, validJustification(), domain.Provenance{})
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "claim", nf.Kind)
	assert.Equal(t, missing.String(), nf.ID)

	_, err = svc.LinkSupportedBy(ctx, claimID, missing, validJustification(), domain.Provenance{})
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "evidence span", nf.Kind)
	assert.Equal(t, missing.String(), nf.ID)

	_, err = svc.GetEdge(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.ListEdgesFrom(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.ApproveEdge(ctx, missing), domain.ErrNotFound)
}

func TestArgumentService_LinkArgument(t *testing.T) {
	svc, _, claimID, _ := newArgumentFixture(t)
	ctx := context.Background()
	otherID, err := svc.CreateClaim(ctx, "Calm improves sleep.", "", "")
	require.NoError(t, err)

	edgeID, err := svc.LinkArgument(ctx, claimID, otherID, domain.RelationEntails, domain.Provenance{CreatedBy: "editor", Method: "review"})
	require.NoError(t, err)
	again, err := svc.LinkArgument(ctx, claimID, otherID, domain.RelationEntails, domain.Provenance{})
	require.NoError(t, err)
	assert.Equal(t, edgeID, again)

	_, err = svc.LinkArgument(ctx, claimID, otherID, domain.RelationSupportedBy, domain.Provenance{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.LinkArgument(ctx, claimID, claimID, domain.RelationContradicts, domain.Provenance{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.LinkArgument(ctx, claimID, uuid.New(), domain.RelationContradicts, domain.Provenance{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.ApproveEdge(ctx, edgeID))
	edge, err := svc.GetEdge(ctx, edgeID)
	require.NoError(t, err)
	assert.Equal(t, domain.EdgeStatusApproved, edge.Status)
	assert.Empty(t, edge.Justifications)
}

func TestArgumentService_CreateValidation(t *testing.T) {
	svc := NewArgumentService(store.NewMemoryArgumentStore(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreateClaim(ctx, "   ", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.CreateEvidenceSpan(ctx, "", 0, 1, "x")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.CreateEvidenceSpan(ctx, "c", 3, 1, "x")
	assert.ErrorIs(t, err, domain.ErrValidation)

	a, err := svc.CreateEvidenceSpan(ctx, "c", 0, 1, "x")
	require.NoError(t, err)
	b, err := svc.CreateEvidenceSpan(ctx, "c", 0, 1, "x")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestArgumentService_QuoteVerification(t *testing.T) {
	svc, _, claimID, spanID := newArgumentFixture(t)
	chunks := &mockChunkStore{texts: map[string]string{"def:P001": spiritualChunk}}
	svc.SetQuoteVerifier(chunks, true)
	ctx := context.Background()

	_, err := svc.LinkSupportedBy(ctx, claimID, spanID, validJustification(), domain.Provenance{})
	require.NoError(t, err)

	shifted := domain.Justification{ChunkID: "def:P001", Start: 1, End: 13, Quote: "البعد الروحي"}
	_, err = svc.LinkSupportedBy(ctx, claimID, spanID, shifted, domain.Provenance{})
	assert.ErrorIs(t, err, domain.ErrGrounding)

	past := domain.Justification{ChunkID: "def:P001", Start: 0, End: 500, Quote: "البعد الروحي"}
	_, err = svc.LinkSupportedBy(ctx, claimID, spanID, past, domain.Provenance{})
	assert.ErrorIs(t, err, domain.ErrGrounding)

	unknown := domain.Justification{ChunkID: "def:P999", Start: 0, End: 3, Quote: "abc"}
	_, err = svc.LinkSupportedBy(ctx, claimID, spanID, unknown, domain.Provenance{})
	assert.NoError(t, err)
}

func TestArgumentService_VerifierDisabled(t *testing.T) {
	svc, _, claimID, spanID := newArgumentFixture(t)
	chunks := &mockChunkStore{texts: map[string]string{"def:P001": spiritualChunk}}
	svc.SetQuoteVerifier(chunks, false)

	shifted := domain.Justification{ChunkID: "def:P001", Start: 1, End: 13, Quote: "البعد الروحي"}
	_, err := svc.LinkSupportedBy(context.Background(), claimID, spanID, shifted, domain.Provenance{})
	assert.NoError(t, err)
	assert.Zero(t, chunks.calls)
}

func TestMapStoreErr(t *testing.T) {
	id := uuid.New()
	err := mapStoreErr(store.ErrUngrounded, id)
	assert.ErrorIs(t, err, domain.ErrGrounding)

	err = mapStoreErr(store.ErrEdgeNotFound, id)
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, id.String(), nf.ID)

	plain := errors.New("boom")
	assert.Equal(t, plain, mapStoreErr(plain, id))
}
