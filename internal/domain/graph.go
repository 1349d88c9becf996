package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RelationType string

const (
	RelationSupportedBy RelationType = "SUPPORTED_BY"
	RelationEntails     RelationType = "ENTAILS"
	RelationTensionWith RelationType = "TENSION_WITH"
	RelationContradicts RelationType = "CONTRADICTS"
	RelationElaborates  RelationType = "ELABORATES"
	RelationExemplifies RelationType = "EXEMPLIFIES"
)

type NodeKind string

const (
	NodeClaim        NodeKind = "claim"
	NodeEvidenceSpan NodeKind = "evidence_span"
)

// RelationEndpoints fixes the (from, to) node kinds for every relation.
var RelationEndpoints = map[RelationType][2]NodeKind{
	RelationSupportedBy: {NodeClaim, NodeEvidenceSpan},
	RelationEntails:     {NodeClaim, NodeClaim},
	RelationTensionWith: {NodeClaim, NodeClaim},
	RelationContradicts: {NodeClaim, NodeClaim},
	RelationElaborates:  {NodeClaim, NodeClaim},
	RelationExemplifies: {NodeClaim, NodeClaim},
}

func ValidRelationType(r string) bool {
	_, ok := RelationEndpoints[RelationType(r)]
	return ok
}

// ValidArgumentRelation reports whether r links two claims.
func ValidArgumentRelation(r RelationType) bool {
	ends, ok := RelationEndpoints[r]
	return ok && ends[1] == NodeClaim
}

type EdgeStatus string

const (
	EdgeStatusProposed EdgeStatus = "proposed"
	EdgeStatusApproved EdgeStatus = "approved"
)

// Provenance records who asserted an edge and how.
type Provenance struct {
	CreatedBy string `json:"created_by"`
	Method    string `json:"method"`
}

func (p Provenance) withDefaults() Provenance {
	if strings.TrimSpace(p.CreatedBy) == "" {
		p.CreatedBy = "system"
	}
	if strings.TrimSpace(p.Method) == "" {
		p.Method = "manual"
	}
	return p
}

type Claim struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewClaim normalizes and validates claim input.
func NewClaim(text, entityType, entityID string) (*Claim, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	return &Claim{
		Text:       text,
		EntityType: strings.TrimSpace(entityType),
		EntityID:   strings.TrimSpace(entityID),
	}, nil
}

type EvidenceSpan struct {
	ID            uuid.UUID `json:"id"`
	SourceChunkID string    `json:"source_chunk_id"`
	Start         int       `json:"start"`
	End           int       `json:"end"`
	Quote         string    `json:"quote"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEvidenceSpan validates a located quote. Offsets are rune offsets into the chunk text.
func NewEvidenceSpan(chunkID string, start, end int, quote string) (*EvidenceSpan, error) {
	chunkID = strings.TrimSpace(chunkID)
	if chunkID == "" {
		return nil, &ValidationError{Field: "source_chunk_id", Reason: "must not be empty"}
	}
	if err := validateOffsets(start, end); err != nil {
		return nil, err
	}
	if quote == "" {
		return nil, &ValidationError{Field: "quote", Reason: "must not be empty"}
	}
	return &EvidenceSpan{SourceChunkID: chunkID, Start: start, End: end, Quote: quote}, nil
}

// Justification is the (chunk, range, quote) triple that grounds one SUPPORTED_BY edge.
type Justification struct {
	ChunkID string `json:"chunk_id"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Quote   string `json:"quote"`
}

// Validate is the grounding checkpoint. A missing chunk id or quote is a
// GroundingError; malformed offsets are a ValidationError.
func (j Justification) Validate() error {
	if strings.TrimSpace(j.ChunkID) == "" {
		return &GroundingError{Reason: "justification chunk_id is empty"}
	}
	if strings.TrimSpace(j.Quote) == "" {
		return &GroundingError{Reason: "justification quote is empty"}
	}
	return validateOffsets(j.Start, j.End)
}

func validateOffsets(start, end int) error {
	if start < 0 || end < 0 {
		return &ValidationError{Field: "offsets", Reason: "must not be negative"}
	}
	if start >= end {
		return &ValidationError{Field: "offsets", Reason: "start must be less than end"}
	}
	return nil
}

type JustificationSpan struct {
	ID        uuid.UUID `json:"id"`
	EdgeID    uuid.UUID `json:"edge_id"`
	ChunkID   string    `json:"chunk_id"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Quote     string    `json:"quote"`
	CreatedAt time.Time `json:"created_at"`
}

type GroundedEdge struct {
	ID             uuid.UUID           `json:"id"`
	FromID         uuid.UUID           `json:"from_id"`
	ToID           uuid.UUID           `json:"to_id"`
	Relation       RelationType        `json:"relation"`
	CreatedBy      string              `json:"created_by"`
	Method         string              `json:"method"`
	Status         EdgeStatus          `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	Justifications []JustificationSpan `json:"justifications,omitempty"`
}

// NewGroundedEdge builds an unsaved edge carrying provenance defaults.
func NewGroundedEdge(from, to uuid.UUID, relation RelationType, prov Provenance) *GroundedEdge {
	prov = prov.withDefaults()
	return &GroundedEdge{
		FromID:    from,
		ToID:      to,
		Relation:  relation,
		CreatedBy: prov.CreatedBy,
		Method:    prov.Method,
		Status:    EdgeStatusProposed,
	}
}

// ArgumentStore persists claims, evidence spans and edges. Implementations must
// make LinkSupportedBy a single atomic unit: the edge upsert and the
// justification insert commit together or not at all.
type ArgumentStore interface {
	CreateClaim(ctx context.Context, c *Claim) error
	GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error)
	CreateEvidenceSpan(ctx context.Context, s *EvidenceSpan) error
	GetEvidenceSpan(ctx context.Context, id uuid.UUID) (*EvidenceSpan, error)

	// LinkSupportedBy upserts the claim->span edge and attaches j. On an
	// existing (from, relation, to) edge it returns that edge's id.
	LinkSupportedBy(ctx context.Context, edge *GroundedEdge, j Justification) error
	// LinkArgument upserts a claim->claim edge.
	LinkArgument(ctx context.Context, edge *GroundedEdge) error

	GetEdge(ctx context.Context, id uuid.UUID) (*GroundedEdge, error)
	ListEdgesFrom(ctx context.Context, claimID uuid.UUID) ([]GroundedEdge, error)
	ApproveEdge(ctx context.Context, id uuid.UUID) error
}
