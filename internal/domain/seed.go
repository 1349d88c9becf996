package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

type PacketKind string

const (
	PacketDefinition PacketKind = "pillar_definition"
	PacketCrossEdge  PacketKind = "cross_entity_edge"
	PacketPolicy     PacketKind = "policy_answer"
)

// JustificationSource says where a cross edge's text came from.
type JustificationSource string

const (
	FromJustification JustificationSource = "justification"
	FromExcerpt       JustificationSource = "excerpt"
	FromPlaceholder   JustificationSource = "placeholder"
)

// SeedDefinition is the definition record of one top-level entity.
type SeedDefinition struct {
	EntityType   string   `json:"entity_type"`
	EntityID     string   `json:"entity_id"`
	EntityName   string   `json:"entity_name"`
	Aliases      []string `json:"aliases,omitempty"`
	ChunkID      string   `json:"chunk_id"`
	Text         string   `json:"text"`
	SourceAnchor string   `json:"source_anchor,omitempty"`
}

// SeedEdge is a cross-entity relationship annotated with its best justification text.
type SeedEdge struct {
	EdgeID              int64               `json:"edge_id"`
	FromType            string              `json:"from_type"`
	FromID              string              `json:"from_id"`
	Relation            string              `json:"relation"`
	ToType              string              `json:"to_type"`
	ToID                string              `json:"to_id"`
	ChunkID             string              `json:"chunk_id,omitempty"`
	Justification       string              `json:"justification"`
	JustificationSource JustificationSource `json:"justification_source"`
}

// EdgePlaceholder is the synthesized text for an edge with no quote and no excerpt.
func EdgePlaceholder(relation, fromID, toID string) string {
	return fmt.Sprintf("%s(%s→%s)", relation, fromID, toID)
}

type SeedPolicy struct {
	ChunkID string `json:"chunk_id"`
	Text    string `json:"text"`
}

// SeedPacket is one item of floor evidence as handed to prompt construction.
type SeedPacket struct {
	Kind         PacketKind `json:"kind"`
	Key          string     `json:"key"`
	EntityType   string     `json:"entity_type,omitempty"`
	EntityID     string     `json:"entity_id,omitempty"`
	Relation     string     `json:"relation,omitempty"`
	FromID       string     `json:"from_id,omitempty"`
	ToID         string     `json:"to_id,omitempty"`
	ChunkID      string     `json:"chunk_id,omitempty"`
	Text         string     `json:"text"`
	SourceAnchor string     `json:"source_anchor,omitempty"`
}

// SeedBundle is a point-in-time collection of floor evidence. Its ordering is
// a pure function of entity ids and edge ids, never of load time.
type SeedBundle struct {
	Definitions []SeedDefinition `json:"definitions"`
	CrossEdges  []SeedEdge       `json:"cross_edges"`
	Policy      *SeedPolicy      `json:"policy,omitempty"`
	LoadedAt    time.Time        `json:"loaded_at"`
}

// NewSeedBundle copies and sorts its inputs.
func NewSeedBundle(defs []SeedDefinition, edges []SeedEdge, policy *SeedPolicy) *SeedBundle {
	b := &SeedBundle{
		Definitions: append([]SeedDefinition(nil), defs...),
		CrossEdges:  append([]SeedEdge(nil), edges...),
		LoadedAt:    time.Now().UTC(),
	}
	if policy != nil {
		p := *policy
		b.Policy = &p
	}
	sort.SliceStable(b.Definitions, func(i, j int) bool {
		if b.Definitions[i].EntityID != b.Definitions[j].EntityID {
			return b.Definitions[i].EntityID < b.Definitions[j].EntityID
		}
		return b.Definitions[i].ChunkID < b.Definitions[j].ChunkID
	})
	sort.SliceStable(b.CrossEdges, func(i, j int) bool {
		return b.CrossEdges[i].EdgeID < b.CrossEdges[j].EdgeID
	})
	return b
}

// AllPackets returns definitions, then cross edges, then the policy item.
func (b *SeedBundle) AllPackets() []SeedPacket {
	if b == nil {
		return nil
	}
	out := make([]SeedPacket, 0, len(b.Definitions)+len(b.CrossEdges)+1)
	for _, d := range b.Definitions {
		out = append(out, SeedPacket{
			Kind:         PacketDefinition,
			Key:          "def:" + d.EntityID,
			EntityType:   d.EntityType,
			EntityID:     d.EntityID,
			ChunkID:      d.ChunkID,
			Text:         d.Text,
			SourceAnchor: d.SourceAnchor,
		})
	}
	for _, e := range b.CrossEdges {
		out = append(out, SeedPacket{
			Kind:     PacketCrossEdge,
			Key:      fmt.Sprintf("edge:%d", e.EdgeID),
			Relation: e.Relation,
			FromID:   e.FromID,
			ToID:     e.ToID,
			ChunkID:  e.ChunkID,
			Text:     e.Justification,
		})
	}
	if b.Policy != nil {
		out = append(out, SeedPacket{
			Kind:    PacketPolicy,
			Key:     "policy",
			ChunkID: b.Policy.ChunkID,
			Text:    b.Policy.Text,
		})
	}
	return out
}

// Fingerprint is a digest of AllPackets, for replay and debugging comparisons.
func (b *SeedBundle) Fingerprint() string {
	raw, _ := json.Marshal(b.AllPackets())
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// MentionedEntities returns ids of definitions whose name or alias occurs in the question.
func (b *SeedBundle) MentionedEntities(question string) map[string]bool {
	q := NormalizeQuestion(question)
	found := make(map[string]bool)
	if b == nil || q == "" {
		return found
	}
	for _, d := range b.Definitions {
		names := append([]string{d.EntityName}, d.Aliases...)
		for _, n := range names {
			n = NormalizeQuestion(n)
			if n != "" && strings.Contains(q, n) {
				found[d.EntityID] = true
				break
			}
		}
	}
	return found
}

// Subset keeps definitions of the given entities and the edges touching any of them.
// The policy item is always kept.
func (b *SeedBundle) Subset(entityIDs map[string]bool) *SeedBundle {
	var defs []SeedDefinition
	for _, d := range b.Definitions {
		if entityIDs[d.EntityID] {
			defs = append(defs, d)
		}
	}
	var edges []SeedEdge
	for _, e := range b.CrossEdges {
		if entityIDs[e.FromID] || entityIDs[e.ToID] {
			edges = append(edges, e)
		}
	}
	sub := NewSeedBundle(defs, edges, b.Policy)
	sub.LoadedAt = b.LoadedAt
	return sub
}

// NormalizeQuestion applies NFKC, lower-cases and collapses whitespace.
func NormalizeQuestion(q string) string {
	q = norm.NFKC.String(q)
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// SeedSource runs the floor-evidence queries.
type SeedSource interface {
	LoadDefinitions(ctx context.Context) ([]SeedDefinition, error)
	LoadCrossEdges(ctx context.Context) ([]SeedEdge, error)
	// LoadPolicyAnswer returns nil, nil when no policy item exists.
	LoadPolicyAnswer(ctx context.Context) (*SeedPolicy, error)
}

// SeedLoadResult distinguishes "no edges exist" from "edge load failed".
type SeedLoadResult struct {
	Bundle    *SeedBundle
	EdgesErr  error
	PolicyErr error
}

func (r SeedLoadResult) Partial() bool {
	return r.EdgesErr != nil || r.PolicyErr != nil
}
