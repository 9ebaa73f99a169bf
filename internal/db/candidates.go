package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/talent-pipeline/internal/types"
)

const candidateColumns = `id, name, email, phone, skills, resume, last_login_at, created_at, updated_at`

func scanCandidate(row pgx.Row) (*types.Candidate, error) {
	var c types.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Skills, &c.Resume, &c.LastLoginAt,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCandidate retrieves a candidate by ID
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	c, err := scanCandidate(db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// GetCandidateByEmail retrieves a candidate by email, case-insensitively
func (db *DB) GetCandidateByEmail(ctx context.Context, email string) (*types.Candidate, error) {
	c, err := scanCandidate(db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE email = $1`, NormalizeEmail(email)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate by email: %w", err)
	}
	return c, nil
}

// UpsertCandidate inserts a candidate or, when the email is already known,
// refreshes its contact fields and resume. c.ID is set to the stored ID.
func (db *DB) UpsertCandidate(ctx context.Context, c *types.Candidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Email = NormalizeEmail(c.Email)
	now := time.Now().UTC()

	row := db.pool.QueryRow(ctx,
		`INSERT INTO candidates (id, name, email, phone, skills, resume, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (email) DO UPDATE SET
		    name = EXCLUDED.name,
		    phone = CASE WHEN EXCLUDED.phone = '' THEN candidates.phone ELSE EXCLUDED.phone END,
		    resume = CASE WHEN EXCLUDED.resume = '' THEN candidates.resume ELSE EXCLUDED.resume END,
		    updated_at = EXCLUDED.updated_at
		 RETURNING `+candidateColumns,
		c.ID, c.Name, c.Email, c.Phone, nonNil(c.Skills), c.Resume, now,
	)
	stored, err := scanCandidate(row)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate: %w", err)
	}
	*c = *stored
	return nil
}

// UpdateCandidateResume overwrites the candidate's latest resume reference.
func (db *DB) UpdateCandidateResume(ctx context.Context, id uuid.UUID, resume string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE candidates SET resume = $2, updated_at = NOW() WHERE id = $1`, id, resume)
	if err != nil {
		return fmt.Errorf("failed to update candidate resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &types.NotFoundError{Kind: "candidate", ID: id.String()}
	}
	return nil
}
