package domain

import (
	"context"
)

// Ref is a structured cross-reference attached to a retrieved chunk.
type Ref struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Candidate is one piece of evidence returned by the vector similarity service.
type Candidate struct {
	ChunkID      string  `json:"chunk_id"`
	EntityType   string  `json:"entity_type"`
	EntityID     string  `json:"entity_id"`
	ChunkType    string  `json:"chunk_type"`
	Text         string  `json:"text"`
	SourceDocID  string  `json:"source_doc_id"`
	SourceAnchor string  `json:"source_anchor"`
	Refs         []Ref   `json:"refs,omitempty"`
	Score        float32 `json:"score"`
}

// SourceKey identifies the source a candidate came from, for diversity checks.
func (c Candidate) SourceKey() string {
	if c.SourceDocID != "" {
		return c.SourceDocID
	}
	return c.ChunkID
}

// VectorSearcher must return an empty slice, never an error, when the backing
// service is unreachable or unconfigured.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, topK int) []Candidate
}

// ChunkStore is the read-only document store.
type ChunkStore interface {
	GetChunkText(ctx context.Context, chunkID string) (string, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reranker rescores candidates against the query. Callers fall back to the
// first-pass order on error.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate) ([]Candidate, error)
	ModelName() string
}

// Citation points a drafted claim at the evidence it quotes.
type Citation struct {
	ChunkID string `json:"chunk_id"`
	Quote   string `json:"quote"`
}

type DraftClaim struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// EvidencePacket is prompt material handed to the drafting model.
type EvidencePacket struct {
	ChunkID string `json:"chunk_id"`
	Text    string `json:"text"`
}

type LLMClient interface {
	DraftClaims(ctx context.Context, question string, evidence []EvidencePacket) ([]DraftClaim, error)
}
