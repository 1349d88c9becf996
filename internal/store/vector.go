package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// VectorStore is the boundary to pgvector similarity search. It degrades to
// an empty result instead of returning errors.
type VectorStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewVectorStore(db *pgxpool.Pool, logger *zap.Logger) *VectorStore {
	return &VectorStore{db: db, logger: logger}
}

func (s *VectorStore) Search(ctx context.Context, queryVector []float32, topK int) []domain.Candidate {
	if s.db == nil || len(queryVector) == 0 || topK <= 0 {
		return []domain.Candidate{}
	}

	rows, err := s.db.Query(ctx,
		`SELECT chunk_id, entity_type, entity_id, chunk_type, text, source_doc_id, source_anchor, refs,
		        1 - (embedding <=> $1) AS score
		 FROM chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(queryVector), topK,
	)
	if err != nil {
		s.logger.Warn("vector search unavailable", zap.Error(errors.Join(domain.ErrUpstreamUnavailable, err)))
		return []domain.Candidate{}
	}
	defer rows.Close()

	results := make([]domain.Candidate, 0, topK)
	for rows.Next() {
		var c domain.Candidate
		var refs []byte
		var score float64
		if err := rows.Scan(&c.ChunkID, &c.EntityType, &c.EntityID, &c.ChunkType, &c.Text,
			&c.SourceDocID, &c.SourceAnchor, &refs, &score); err != nil {
			s.logger.Warn("skipping unreadable vector row", zap.Error(err))
			continue
		}
		c.Score = float32(score)
		c.Refs = decodeRefs(refs, s.logger, c.ChunkID)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("vector search interrupted", zap.Error(err))
		return []domain.Candidate{}
	}
	return results
}

// decodeRefs drops a malformed refs payload rather than failing the result.
func decodeRefs(raw []byte, logger *zap.Logger, chunkID string) []domain.Ref {
	if len(raw) == 0 {
		return nil
	}
	var refs []domain.Ref
	if err := json.Unmarshal(raw, &refs); err != nil {
		logger.Debug("dropping malformed refs", zap.String("chunk_id", chunkID), zap.Error(err))
		return nil
	}
	return refs
}
