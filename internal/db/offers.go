package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/talent-pipeline/internal/types"
)

const offerColumns = `id, job_title, priority, status, due_date, created_by, assigned_to, description,
	skills, preferred_skills, experience, position_available, location, city, state, country,
	employment_type, salary, currency, company_name, is_jd_created, created_at, updated_at`

func scanOffer(row pgx.Row) (*types.Offer, error) {
	var o types.Offer
	var priority, status, employmentType string
	err := row.Scan(
		&o.ID, &o.JobTitle, &priority, &status, &o.DueDate, &o.CreatedBy, &o.AssignedTo, &o.Description,
		&o.Skills, &o.PreferredSkills, &o.Experience, &o.PositionAvailable, &o.Location, &o.City, &o.State,
		&o.Country, &employmentType, &o.Salary, &o.Currency, &o.CompanyName, &o.IsJDCreated,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Priority = types.Priority(priority)
	o.Status = types.OfferStatus(status)
	o.EmploymentType = types.EmploymentType(employmentType)
	return &o, nil
}

// CreateOffer inserts an offer. A nil ID is replaced with a fresh one.
func (db *DB) CreateOffer(ctx context.Context, offer *types.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	now := time.Now().UTC()
	offer.CreatedAt, offer.UpdatedAt = now, now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO offers (`+offerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		         $17, $18, $19, $20, $21, $22, $23)`,
		offer.ID, offer.JobTitle, string(offer.Priority), string(offer.Status), offer.DueDate,
		offer.CreatedBy, offer.AssignedTo, offer.Description, nonNil(offer.Skills),
		nonNil(offer.PreferredSkills), offer.Experience, offer.PositionAvailable, offer.Location,
		offer.City, offer.State, offer.Country, string(offer.EmploymentType), offer.Salary,
		offer.Currency, offer.CompanyName, offer.IsJDCreated, offer.CreatedAt, offer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

// GetOffer retrieves an offer by ID
func (db *DB) GetOffer(ctx context.Context, id uuid.UUID) (*types.Offer, error) {
	o, err := scanOffer(db.pool.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return o, nil
}

// UpdateOffer overwrites every mutable column of an offer. Concurrent writers are last-write-wins.
func (db *DB) UpdateOffer(ctx context.Context, offer *types.Offer) error {
	offer.UpdatedAt = time.Now().UTC()
	tag, err := db.pool.Exec(ctx,
		`UPDATE offers SET
		    job_title = $2, priority = $3, status = $4, due_date = $5, assigned_to = $6,
		    description = $7, skills = $8, preferred_skills = $9, experience = $10,
		    position_available = $11, location = $12, city = $13, state = $14, country = $15,
		    employment_type = $16, salary = $17, currency = $18, company_name = $19,
		    is_jd_created = $20, updated_at = $21
		 WHERE id = $1`,
		offer.ID, offer.JobTitle, string(offer.Priority), string(offer.Status), offer.DueDate,
		offer.AssignedTo, offer.Description, nonNil(offer.Skills), nonNil(offer.PreferredSkills),
		offer.Experience, offer.PositionAvailable, offer.Location, offer.City, offer.State,
		offer.Country, string(offer.EmploymentType), offer.Salary, offer.Currency, offer.CompanyName,
		offer.IsJDCreated, offer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &types.NotFoundError{Kind: "offer", ID: offer.ID.String()}
	}
	return nil
}

// ListOffers returns offers matching the filter, newest first.
func (db *DB) ListOffers(ctx context.Context, filter OfferFilter) ([]types.Offer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE ($1::uuid IS NULL OR created_by = $1)
		   AND ($2::uuid IS NULL OR assigned_to = $2)
		 ORDER BY created_at DESC`,
		filter.CreatedBy, filter.AssignedTo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	offers := []types.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}
	return offers, nil
}
