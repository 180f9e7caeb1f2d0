package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"voxgate/internal/voiceprint/models"
)

// Postgres persists voiceprints in PostgreSQL.
//
// Each identity maps to a single row; Put is an upsert, so per-identity
// linearizability comes from row-level locking in the database. The embedding
// is stored as a JSONB array, one record per identity as required by the
// registry contract.
type Postgres struct {
	db *sql.DB

	mu  sync.Mutex
	dim int // pinned lazily from existing rows or the first Put
}

// NewPostgres constructs a PostgreSQL-backed registry.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Put stores the voiceprint for identity, overwriting any existing row.
func (s *Postgres) Put(ctx context.Context, identity string, print models.Voiceprint) (*models.Entry, error) {
	if err := s.pinDim(ctx, print.Dim()); err != nil {
		return nil, err
	}

	embedding, err := json.Marshal(print)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO voiceprints (identity, embedding, dim, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity) DO UPDATE
		SET embedding = EXCLUDED.embedding,
		    dim = EXCLUDED.dim,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, identity, embedding, print.Dim(), now); err != nil {
		return nil, fmt.Errorf("upsert voiceprint: %w", err)
	}

	return &models.Entry{Identity: identity, Print: print.Clone(), UpdatedAt: now}, nil
}

// Get retrieves the voiceprint for identity.
func (s *Postgres) Get(ctx context.Context, identity string) (*models.Entry, error) {
	query := `SELECT embedding, updated_at FROM voiceprints WHERE identity = $1`

	var (
		embedding []byte
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, query, identity).Scan(&embedding, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query voiceprint: %w", err)
	}

	var print models.Voiceprint
	if err := json.Unmarshal(embedding, &print); err != nil {
		return nil, fmt.Errorf("unmarshal embedding: %w", err)
	}

	return &models.Entry{Identity: identity, Print: print, UpdatedAt: updatedAt}, nil
}

// Delete removes the row for identity.
func (s *Postgres) Delete(ctx context.Context, identity string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM voiceprints WHERE identity = $1`, identity)
	if err != nil {
		return fmt.Errorf("delete voiceprint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete voiceprint: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of enrolled identities.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM voiceprints`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count voiceprints: %w", err)
	}
	return n, nil
}

// pinDim enforces a single embedding dimension for the registry lifetime.
// The pin is loaded lazily from existing rows so restarts keep the dimension
// of previously enrolled voiceprints.
func (s *Postgres) pinDim(ctx context.Context, dim int) error {
	if dim == 0 {
		return fmt.Errorf("empty voiceprint: %w", ErrDimensionMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		var existing int
		err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(dim), 0) FROM voiceprints`).Scan(&existing)
		if err != nil {
			return fmt.Errorf("load pinned dimension: %w", err)
		}
		if existing == 0 {
			s.dim = dim
			return nil
		}
		s.dim = existing
	}

	if dim != s.dim {
		return fmt.Errorf("got dim %d, registry pinned to %d: %w", dim, s.dim, ErrDimensionMismatch)
	}
	return nil
}
