package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")

	ErrClaimNotFound = fmt.Errorf("claim: %w", ErrNotFound)
	ErrSpanNotFound  = fmt.Errorf("evidence span: %w", ErrNotFound)
	ErrEdgeNotFound  = fmt.Errorf("edge: %w", ErrNotFound)
	ErrChunkNotFound = fmt.Errorf("chunk: %w", ErrNotFound)

	// ErrUngrounded is returned when the database refuses a SUPPORTED_BY edge
	// without a justification row.
	ErrUngrounded = errors.New("supported_by edge without justification")
)

const sqlStateCheckViolation = "23514"

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateCheckViolation
}

// MissingRowError names the row a write referenced but could not find.
type MissingRowError struct {
	Err error
	ID  uuid.UUID
}

func (e *MissingRowError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.ID)
}

func (e *MissingRowError) Unwrap() error { return e.Err }
