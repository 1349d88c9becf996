package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	definitionChunkType = "definition"
	policyChunkType     = "policy_answer"
	excerptChars        = 400
)

// SeedStore runs the floor-evidence queries against the knowledge base tables.
type SeedStore struct {
	db *pgxpool.Pool
}

func NewSeedStore(db *pgxpool.Pool) *SeedStore {
	return &SeedStore{db: db}
}

// LoadDefinitions returns one definition chunk per top-level entity, lowest
// chunk id first, ordered by entity id.
func (s *SeedStore) LoadDefinitions(ctx context.Context) ([]domain.SeedDefinition, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT ON (c.entity_id)
		        c.entity_type, c.entity_id, e.name, e.aliases, c.chunk_id, c.text, c.source_anchor
		 FROM chunks c
		 JOIN entities e ON e.entity_type = c.entity_type AND e.entity_id = c.entity_id
		 WHERE e.top_level AND c.chunk_type = $1
		 ORDER BY c.entity_id, c.chunk_id`,
		definitionChunkType,
	)
	if err != nil {
		return nil, fmt.Errorf("definitions query: %w", err)
	}
	defer rows.Close()

	var defs []domain.SeedDefinition
	for rows.Next() {
		var d domain.SeedDefinition
		if err := rows.Scan(&d.EntityType, &d.EntityID, &d.EntityName, &d.Aliases, &d.ChunkID, &d.Text, &d.SourceAnchor); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// LoadCrossEdges returns approved edges between two different top-level
// entities, ordered by edge id.
func (s *SeedStore) LoadCrossEdges(ctx context.Context) ([]domain.SeedEdge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ee.id, ee.from_type, ee.from_id, ee.relation, ee.to_type, ee.to_id,
		        COALESCE(ee.source_chunk_id, ''),
		        (SELECT j.quote FROM entity_edge_justifications j
		          WHERE j.edge_id = ee.id AND btrim(j.quote) <> ''
		          ORDER BY j.id LIMIT 1),
		        LEFT(c.text, $1)
		 FROM entity_edges ee
		 JOIN entities ef ON ef.entity_type = ee.from_type AND ef.entity_id = ee.from_id AND ef.top_level
		 JOIN entities et ON et.entity_type = ee.to_type AND et.entity_id = ee.to_id AND et.top_level
		 LEFT JOIN chunks c ON c.chunk_id = ee.source_chunk_id
		 WHERE ee.status = 'approved' AND ee.from_id <> ee.to_id
		 ORDER BY ee.id`,
		excerptChars,
	)
	if err != nil {
		return nil, fmt.Errorf("cross edges query: %w", err)
	}
	defer rows.Close()

	var edges []domain.SeedEdge
	for rows.Next() {
		var e domain.SeedEdge
		var quote, excerpt *string
		if err := rows.Scan(&e.EdgeID, &e.FromType, &e.FromID, &e.Relation, &e.ToType, &e.ToID, &e.ChunkID, &quote, &excerpt); err != nil {
			return nil, fmt.Errorf("scan cross edge: %w", err)
		}
		e.Justification, e.JustificationSource = bestJustification(e, quote, excerpt)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func bestJustification(e domain.SeedEdge, quote, excerpt *string) (string, domain.JustificationSource) {
	if quote != nil && strings.TrimSpace(*quote) != "" {
		return *quote, domain.FromJustification
	}
	if excerpt != nil && strings.TrimSpace(*excerpt) != "" {
		return *excerpt, domain.FromExcerpt
	}
	return domain.EdgePlaceholder(e.Relation, e.FromID, e.ToID), domain.FromPlaceholder
}

func (s *SeedStore) LoadPolicyAnswer(ctx context.Context) (*domain.SeedPolicy, error) {
	p := &domain.SeedPolicy{}
	err := s.db.QueryRow(ctx,
		`SELECT chunk_id, text FROM chunks WHERE chunk_type = $1 ORDER BY chunk_id LIMIT 1`,
		policyChunkType,
	).Scan(&p.ChunkID, &p.Text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("policy query: %w", err)
	}
	return p, nil
}
