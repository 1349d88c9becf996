package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ArgumentStore struct {
	db *pgxpool.Pool
}

func NewArgumentStore(db *pgxpool.Pool) *ArgumentStore {
	return &ArgumentStore{db: db}
}

func (s *ArgumentStore) CreateClaim(ctx context.Context, c *domain.Claim) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO claims (text, entity_type, entity_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.Text, c.EntityType, c.EntityID,
	).Scan(&c.ID, &c.CreatedAt)
}

func (s *ArgumentStore) GetClaim(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	c := &domain.Claim{}
	err := s.db.QueryRow(ctx,
		`SELECT id, text, entity_type, entity_id, created_at FROM claims WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Text, &c.EntityType, &c.EntityID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return c, nil
}

// CreateEvidenceSpan records one grounding fact. Re-recording the same
// (chunk, range, quote) returns the existing span id.
func (s *ArgumentStore) CreateEvidenceSpan(ctx context.Context, sp *domain.EvidenceSpan) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO evidence_spans (source_chunk_id, start_offset, end_offset, quote)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (source_chunk_id, start_offset, end_offset, md5(quote)) DO UPDATE
		 SET source_chunk_id = EXCLUDED.source_chunk_id
		 RETURNING id, created_at`,
		sp.SourceChunkID, sp.Start, sp.End, sp.Quote,
	).Scan(&sp.ID, &sp.CreatedAt)
}

func (s *ArgumentStore) GetEvidenceSpan(ctx context.Context, id uuid.UUID) (*domain.EvidenceSpan, error) {
	sp := &domain.EvidenceSpan{}
	err := s.db.QueryRow(ctx,
		`SELECT id, source_chunk_id, start_offset, end_offset, quote, created_at
		 FROM evidence_spans WHERE id = $1`,
		id,
	).Scan(&sp.ID, &sp.SourceChunkID, &sp.Start, &sp.End, &sp.Quote, &sp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpanNotFound
		}
		return nil, err
	}
	return sp, nil
}

// LinkSupportedBy upserts the edge and attaches the justification in one
// transaction. The deferred trigger on argument_edges rejects the commit if a
// SUPPORTED_BY edge would end up without a justification row.
func (s *ArgumentStore) LinkSupportedBy(ctx context.Context, edge *domain.GroundedEdge, j domain.Justification) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin link tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := rowExists(ctx, tx, `SELECT 1 FROM claims WHERE id = $1`, edge.FromID, ErrClaimNotFound); err != nil {
		return err
	}
	if err := rowExists(ctx, tx, `SELECT 1 FROM evidence_spans WHERE id = $1`, edge.ToID, ErrSpanNotFound); err != nil {
		return err
	}

	if err := upsertEdge(ctx, tx, edge); err != nil {
		return fmt.Errorf("upsert supported_by edge: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO edge_justifications (edge_id, chunk_id, start_offset, end_offset, quote)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (edge_id, chunk_id, start_offset, end_offset, md5(quote)) DO NOTHING`,
		edge.ID, j.ChunkID, j.Start, j.End, j.Quote,
	)
	if err != nil {
		return fmt.Errorf("insert justification: %w", err)
	}

	justs, err := listJustifications(ctx, tx, []uuid.UUID{edge.ID})
	if err != nil {
		return err
	}
	edge.Justifications = justs[edge.ID]

	if err := tx.Commit(ctx); err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", ErrUngrounded, err)
		}
		return fmt.Errorf("commit link tx: %w", err)
	}
	return nil
}

func (s *ArgumentStore) LinkArgument(ctx context.Context, edge *domain.GroundedEdge) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin link tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, id := range []uuid.UUID{edge.FromID, edge.ToID} {
		if err := rowExists(ctx, tx, `SELECT 1 FROM claims WHERE id = $1`, id, ErrClaimNotFound); err != nil {
			return err
		}
	}

	if err := upsertEdge(ctx, tx, edge); err != nil {
		return fmt.Errorf("upsert argument edge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit link tx: %w", err)
	}
	return nil
}

func (s *ArgumentStore) GetEdge(ctx context.Context, id uuid.UUID) (*domain.GroundedEdge, error) {
	e := &domain.GroundedEdge{}
	err := s.db.QueryRow(ctx,
		`SELECT id, from_id, to_id, relation, created_by, method, status, created_at
		 FROM argument_edges WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.FromID, &e.ToID, &e.Relation, &e.CreatedBy, &e.Method, &e.Status, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEdgeNotFound
		}
		return nil, err
	}

	justs, err := listJustifications(ctx, s.db, []uuid.UUID{e.ID})
	if err != nil {
		return nil, err
	}
	e.Justifications = justs[e.ID]
	return e, nil
}

func (s *ArgumentStore) ListEdgesFrom(ctx context.Context, claimID uuid.UUID) ([]domain.GroundedEdge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, from_id, to_id, relation, created_by, method, status, created_at
		 FROM argument_edges WHERE from_id = $1
		 ORDER BY created_at, id`,
		claimID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []domain.GroundedEdge
	var ids []uuid.UUID
	for rows.Next() {
		var e domain.GroundedEdge
		if err := rows.Scan(&e.ID, &e.FromID, &e.ToID, &e.Relation, &e.CreatedBy, &e.Method, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		edges = append(edges, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return edges, nil
	}

	justs, err := listJustifications(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range edges {
		edges[i].Justifications = justs[edges[i].ID]
	}
	return edges, nil
}

func (s *ArgumentStore) ApproveEdge(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE argument_edges SET status = $2 WHERE id = $1`,
		id, domain.EdgeStatusApproved,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEdgeNotFound
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func rowExists(ctx context.Context, q querier, query string, id uuid.UUID, notFound error) error {
	var one int
	err := q.QueryRow(ctx, query, id).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &MissingRowError{Err: notFound, ID: id}
		}
		return err
	}
	return nil
}

// upsertEdge converges concurrent creators on one row: the conflicting insert
// waits for the winner and then returns its id.
func upsertEdge(ctx context.Context, q querier, edge *domain.GroundedEdge) error {
	return q.QueryRow(ctx,
		`INSERT INTO argument_edges (from_id, to_id, relation, created_by, method, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (from_id, relation, to_id) DO UPDATE
		 SET relation = argument_edges.relation
		 RETURNING id, created_by, method, status, created_at`,
		edge.FromID, edge.ToID, edge.Relation, edge.CreatedBy, edge.Method, edge.Status,
	).Scan(&edge.ID, &edge.CreatedBy, &edge.Method, &edge.Status, &edge.CreatedAt)
}

func listJustifications(ctx context.Context, q querier, edgeIDs []uuid.UUID) (map[uuid.UUID][]domain.JustificationSpan, error) {
	rows, err := q.Query(ctx,
		`SELECT id, edge_id, chunk_id, start_offset, end_offset, quote, created_at
		 FROM edge_justifications WHERE edge_id = ANY($1)
		 ORDER BY created_at, id`,
		edgeIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("list justifications: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.JustificationSpan)
	for rows.Next() {
		var j domain.JustificationSpan
		if err := rows.Scan(&j.ID, &j.EdgeID, &j.ChunkID, &j.Start, &j.End, &j.Quote, &j.CreatedAt); err != nil {
			return nil, err
		}
		out[j.EdgeID] = append(out[j.EdgeID], j)
	}
	return out, rows.Err()
}
