package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChunkStore struct {
	db *pgxpool.Pool
}

func NewChunkStore(db *pgxpool.Pool) *ChunkStore {
	return &ChunkStore{db: db}
}

func (s *ChunkStore) GetChunkText(ctx context.Context, chunkID string) (string, error) {
	var text string
	err := s.db.QueryRow(ctx, `SELECT text FROM chunks WHERE chunk_id = $1`, chunkID).Scan(&text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrChunkNotFound
		}
		return "", err
	}
	return text, nil
}
