package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/Harshitk-cp/groundwork/internal/llm"
	"github.com/Harshitk-cp/groundwork/internal/rerank"
	"github.com/Harshitk-cp/groundwork/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type answerFixture struct {
	svc      *AnswerService
	mem      *store.MemoryArgumentStore
	llm      *llm.MockClient
	reranker *rerank.MockReranker
}

func newAnswerFixture(candidates []domain.Candidate, src domain.SeedSource) *answerFixture {
	logger := zap.NewNop()
	mem := store.NewMemoryArgumentStore()
	retrieval := NewRetrievalService(&mockEmbedder{}, &mockVectors{candidates: candidates}, nil, logger)
	reranker := rerank.NewMockReranker()
	retrieval.SetReranker(reranker)
	if src != nil {
		retrieval.SetSeedService(newTestSeedService(src))
	}
	client := llm.NewMockClient()
	return &answerFixture{
		svc:      NewAnswerService(retrieval, NewArgumentService(mem, logger), client, logger),
		mem:      mem,
		llm:      client,
		reranker: reranker,
	}
}

func TestAnswerService_CrossPillarQuestion(t *testing.T) {
	candidates := []domain.Candidate{
		{ChunkID: "kb:12", SourceDocID: "book", Text: "الصلاة تجمع بين الروح والجسد. وهي حركة وسكون.", Score: 0.52},
		{ChunkID: "kb:40", SourceDocID: "book", Text: "الصيام يهذب النفس.", Score: 0.47},
	}
	f := newAnswerFixture(candidates, pillarSource())
	question := "ما العلاقة بين البعد الروحي والبعد البدني؟"

	res, err := f.svc.Answer(context.Background(), AnswerRequest{RetrieveRequest{
		Question: question,
		Intent:   "cross_pillar_path",
	}})
	require.NoError(t, err)

	assert.True(t, res.Retrieval.Decision.Enabled)
	assert.Equal(t, ReasonConditionalTriggered, res.Retrieval.Decision.Reason)
	assert.Equal(t, 1, f.reranker.Calls)

	require.True(t, res.Grounded)
	assert.NotEmpty(t, res.Answer)
	assert.Empty(t, res.Rejected)

	// two candidates plus P001/P002 definitions and the policy; edge packets are not evidence
	require.Len(t, f.llm.DraftCalls, 1)
	evidence := f.llm.DraftCalls[0].Evidence
	assert.Len(t, evidence, 5)
	for _, e := range evidence {
		assert.NotEqual(t, "edge:3", e.ChunkID)
	}

	require.Len(t, res.Claims, 5)
	for _, c := range res.Claims {
		require.NotEmpty(t, c.Support, c.Text)
		for _, s := range c.Support {
			edge, err := f.mem.GetEdge(context.Background(), s.EdgeID)
			require.NoError(t, err)
			assert.Equal(t, domain.RelationSupportedBy, edge.Relation)
			assert.Equal(t, answerCreatedBy, edge.CreatedBy)
			require.Len(t, edge.Justifications, 1)
			assert.NotEmpty(t, edge.Justifications[0].Quote)
		}
	}

	first := res.Claims[0].Support[0]
	assert.Equal(t, "kb:12", first.ChunkID)
	assert.Equal(t, "الصلاة تجمع بين الروح والجسد.", first.Quote)
	assert.Equal(t, 0, first.Start)
	assert.Equal(t, 29, first.End)
}

func TestAnswerService_RejectsUnlocatableCitations(t *testing.T) {
	candidates := []domain.Candidate{{ChunkID: "kb:1", SourceDocID: "d", Text: "Sleep restores the body.", Score: 0.9}}
	f := newAnswerFixture(candidates, nil)
	f.llm.DraftResponse = []domain.DraftClaim{
		{Text: "Sleep restores the body.", Citations: []domain.Citation{{ChunkID: "kb:1", Quote: "restores the body"}}},
		{Text: "Sleep is worship.", Citations: []domain.Citation{{ChunkID: "kb:1", Quote: "sleep is worship"}}},
		{Text: "Invented.", Citations: []domain.Citation{{ChunkID: "kb:999", Quote: "Sleep"}}},
		{Text: "No citation."},
		{Text: "  ", Citations: []domain.Citation{{ChunkID: "kb:1", Quote: "Sleep"}}},
	}

	res, err := f.svc.Answer(context.Background(), AnswerRequest{RetrieveRequest{Question: "why sleep?"}})
	require.NoError(t, err)

	require.True(t, res.Grounded)
	assert.Equal(t, "Sleep restores the body.", res.Answer)
	require.Len(t, res.Claims, 1)
	assert.Equal(t, 6, res.Claims[0].Support[0].Start)
	assert.Equal(t, 23, res.Claims[0].Support[0].End)
	require.Len(t, res.Rejected, 4)
	assert.Equal(t, "empty claim text", res.Rejected[3].Reason)
}

func TestAnswerService_NothingGrounded(t *testing.T) {
	candidates := []domain.Candidate{{ChunkID: "kb:1", SourceDocID: "d", Text: "Sleep restores the body.", Score: 0.9}}
	f := newAnswerFixture(candidates, nil)
	f.llm.DraftResponse = []domain.DraftClaim{
		{Text: "Sleep is worship.", Citations: []domain.Citation{{ChunkID: "kb:1", Quote: "worship"}}},
	}

	res, err := f.svc.Answer(context.Background(), AnswerRequest{RetrieveRequest{Question: "why sleep?"}})
	require.NoError(t, err)
	assert.False(t, res.Grounded)
	assert.Empty(t, res.Answer)
	assert.Empty(t, res.Claims)
	assert.Len(t, res.Rejected, 1)
}

func TestAnswerService_NoEvidenceSkipsModel(t *testing.T) {
	f := newAnswerFixture(nil, nil)
	res, err := f.svc.Answer(context.Background(), AnswerRequest{RetrieveRequest{Question: "anything"}})
	require.NoError(t, err)
	assert.False(t, res.Grounded)
	assert.NotNil(t, res.Claims)
	assert.Empty(t, f.llm.DraftCalls)
}

func TestAnswerService_ModelFailure(t *testing.T) {
	candidates := []domain.Candidate{{ChunkID: "kb:1", Text: "x.", Score: 0.9}}
	f := newAnswerFixture(candidates, nil)
	f.llm.DraftError = errors.New("503 from provider")

	_, err := f.svc.Answer(context.Background(), AnswerRequest{RetrieveRequest{Question: "q"}})
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestAnswerService_BlankQuestion(t *testing.T) {
	f := newAnswerFixture(nil, nil)
	_, err := f.svc.Answer(context.Background(), AnswerRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLocateQuote(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		quote      string
		start, end int
		ok         bool
	}{
		{"ascii", "abc def", "def", 4, 7, true},
		{"arabic offsets are runes", "البعد الروحي هو صلة", "هو", 13, 15, true},
		{"first occurrence", "aa aa", "aa", 0, 2, true},
		{"missing", "abc", "xyz", 0, 0, false},
		{"empty quote", "abc", "", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := locateQuote(tt.text, tt.quote)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestEvidenceFrom_DedupsAndSkipsEdges(t *testing.T) {
	r := &RetrieveResult{
		Candidates: []domain.Candidate{{ChunkID: "c1", Text: "candidate"}},
		SeedPackets: []domain.SeedPacket{
			{Kind: domain.PacketDefinition, ChunkID: "c1", Text: "definition"},
			{Kind: domain.PacketCrossEdge, ChunkID: "c2", Text: "quote"},
			{Kind: domain.PacketPolicy, ChunkID: "p", Text: "policy"},
			{Kind: domain.PacketDefinition, ChunkID: "", Text: "orphan"},
		},
	}
	got := evidenceFrom(r)
	assert.Equal(t, []domain.EvidencePacket{
		{ChunkID: "c1", Text: "candidate"},
		{ChunkID: "p", Text: "policy"},
	}, got)
}
