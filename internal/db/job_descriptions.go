package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/talent-pipeline/internal/types"
)

const jdColumns = `id, offer_id, created_by, schema_version, job_summary, responsibilities, requirements,
	benefits, additional_notes, additional_info, company_name, generated_by_ai, ai_generation,
	public_token, applied_candidates, filtered_candidates, unfiltered_candidates, created_at, updated_at`

func scanJobDescription(row pgx.Row) (*types.JobDescription, error) {
	var jd types.JobDescription
	var aiGeneration, applied, filtered, unfiltered []byte
	err := row.Scan(
		&jd.ID, &jd.OfferID, &jd.CreatedBy, &jd.SchemaVersion, &jd.JobSummary, &jd.Responsibilities,
		&jd.Requirements, &jd.Benefits, &jd.AdditionalNotes, &jd.AdditionalInfo, &jd.CompanyName,
		&jd.GeneratedByAI, &aiGeneration, &jd.PublicToken, &applied, &filtered, &unfiltered,
		&jd.CreatedAt, &jd.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(aiGeneration) > 0 {
		jd.AIGeneration = &types.AIGenerationDetails{}
		if err := json.Unmarshal(aiGeneration, jd.AIGeneration); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ai_generation: %w", err)
		}
	}
	if err := json.Unmarshal(applied, &jd.AppliedCandidates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal applied_candidates: %w", err)
	}
	if err := json.Unmarshal(filtered, &jd.FilteredCandidates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filtered_candidates: %w", err)
	}
	if err := json.Unmarshal(unfiltered, &jd.UnfilteredCandidates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal unfiltered_candidates: %w", err)
	}
	jd.Normalize()
	return &jd, nil
}

type outcomeColumns struct {
	applied, filtered, unfiltered []byte
}

func marshalOutcome(jd *types.JobDescription) (*outcomeColumns, error) {
	var cols outcomeColumns
	var err error
	if cols.applied, err = json.Marshal(jd.AppliedCandidates); err != nil {
		return nil, fmt.Errorf("failed to marshal applied candidates: %w", err)
	}
	if cols.filtered, err = json.Marshal(jd.FilteredCandidates); err != nil {
		return nil, fmt.Errorf("failed to marshal filtered candidates: %w", err)
	}
	if cols.unfiltered, err = json.Marshal(jd.UnfilteredCandidates); err != nil {
		return nil, fmt.Errorf("failed to marshal unfiltered candidates: %w", err)
	}
	return &cols, nil
}

// CreateJobDescription inserts a JD. A nil ID is replaced with a fresh one.
// A duplicate public token is reported as a ConflictError.
func (db *DB) CreateJobDescription(ctx context.Context, jd *types.JobDescription) error {
	if jd.ID == uuid.Nil {
		jd.ID = uuid.New()
	}
	jd.Normalize()
	now := time.Now().UTC()
	jd.CreatedAt, jd.UpdatedAt = now, now

	cols, err := marshalOutcome(jd)
	if err != nil {
		return err
	}
	var aiGeneration []byte
	if jd.AIGeneration != nil {
		if aiGeneration, err = json.Marshal(jd.AIGeneration); err != nil {
			return fmt.Errorf("failed to marshal ai generation details: %w", err)
		}
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO job_descriptions (`+jdColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		jd.ID, jd.OfferID, jd.CreatedBy, jd.SchemaVersion, jd.JobSummary, jd.Responsibilities,
		jd.Requirements, jd.Benefits, jd.AdditionalNotes, jd.AdditionalInfo, jd.CompanyName,
		jd.GeneratedByAI, aiGeneration, jd.PublicToken, cols.applied, cols.filtered, cols.unfiltered,
		jd.CreatedAt, jd.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return &types.ConflictError{Message: "public token already in use"}
	}
	if err != nil {
		return fmt.Errorf("failed to create job description: %w", err)
	}
	return nil
}

func (db *DB) getJobDescriptionWhere(ctx context.Context, where string, arg any) (*types.JobDescription, error) {
	jd, err := scanJobDescription(db.pool.QueryRow(ctx,
		`SELECT `+jdColumns+` FROM job_descriptions WHERE `+where, arg))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job description: %w", err)
	}
	return jd, nil
}

// GetJobDescription retrieves a JD by ID
func (db *DB) GetJobDescription(ctx context.Context, id uuid.UUID) (*types.JobDescription, error) {
	return db.getJobDescriptionWhere(ctx, "id = $1", id)
}

// GetJobDescriptionByOffer retrieves the oldest JD of an offer.
func (db *DB) GetJobDescriptionByOffer(ctx context.Context, offerID uuid.UUID) (*types.JobDescription, error) {
	return db.getJobDescriptionWhere(ctx, "offer_id = $1 ORDER BY created_at LIMIT 1", offerID)
}

// GetJobDescriptionByToken retrieves a JD by its public token
func (db *DB) GetJobDescriptionByToken(ctx context.Context, token string) (*types.JobDescription, error) {
	return db.getJobDescriptionWhere(ctx, "public_token = $1", token)
}

// ListJobDescriptions returns JDs matching the filter, newest first.
func (db *DB) ListJobDescriptions(ctx context.Context, filter JDFilter) ([]types.JobDescription, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jdColumns+` FROM job_descriptions
		 WHERE ($1::uuid[] IS NULL OR offer_id = ANY($1))
		 ORDER BY created_at DESC`,
		filter.OfferIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job descriptions: %w", err)
	}
	defer rows.Close()

	jds := []types.JobDescription{}
	for rows.Next() {
		jd, err := scanJobDescription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job description: %w", err)
		}
		jds = append(jds, *jd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job descriptions: %w", err)
	}
	return jds, nil
}

// DeleteJobDescription removes a JD. Deleting a missing JD is not an error.
func (db *DB) DeleteJobDescription(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM job_descriptions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete job description: %w", err)
	}
	return nil
}

// screeningUpdate is the part of an applied record a screening run may change.
type screeningUpdate struct {
	CandidateID   uuid.UUID               `json:"candidate"`
	Status        types.ApplicationStatus `json:"status"`
	AIScore       *int                    `json:"aiScore,omitempty"`
	AIExplanation string                  `json:"aiExplanation,omitempty"`
}

// screeningUpdates keeps the first record per candidate, matching applyScreening.
func screeningUpdates(records []types.ApplicationRecord) []screeningUpdate {
	seen := make(map[uuid.UUID]bool, len(records))
	out := make([]screeningUpdate, 0, len(records))
	for _, rec := range records {
		if seen[rec.CandidateID] {
			continue
		}
		seen[rec.CandidateID] = true
		out = append(out, screeningUpdate{
			CandidateID:   rec.CandidateID,
			Status:        rec.Status,
			AIScore:       rec.AIScore,
			AIExplanation: rec.AIExplanation,
		})
	}
	return out
}

// applyScreening copies status, score and explanation from run onto the
// matching stored records. Stored records without a counterpart in run are
// returned unchanged, and records only present in run are ignored.
func applyScreening(stored, run []types.ApplicationRecord) []types.ApplicationRecord {
	byCandidate := make(map[uuid.UUID]screeningUpdate, len(run))
	for _, u := range screeningUpdates(run) {
		byCandidate[u.CandidateID] = u
	}
	out := make([]types.ApplicationRecord, len(stored))
	for i, rec := range stored {
		if u, ok := byCandidate[rec.CandidateID]; ok {
			rec.Status = u.Status
			rec.AIScore = u.AIScore
			rec.AIExplanation = u.AIExplanation
		}
		out[i] = rec
	}
	return out
}

// SaveScreeningOutcome replaces the filtered and unfiltered collections and
// updates status, score and explanation of the matching applied records in one
// statement. Applied records the run did not see, such as applications made
// while it was in flight, are left as stored.
func (db *DB) SaveScreeningOutcome(ctx context.Context, jd *types.JobDescription) error {
	cols, err := marshalOutcome(jd)
	if err != nil {
		return err
	}
	updates, err := json.Marshal(screeningUpdates(jd.AppliedCandidates))
	if err != nil {
		return fmt.Errorf("failed to marshal screening updates: %w", err)
	}
	jd.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE job_descriptions AS j
		 SET applied_candidates = COALESCE((
		         SELECT jsonb_agg(
		                    CASE WHEN u.upd IS NULL THEN a.rec
		                         ELSE (a.rec - 'aiScore' - 'aiExplanation') || u.upd
		                    END ORDER BY a.ord)
		         FROM jsonb_array_elements(j.applied_candidates) WITH ORDINALITY AS a(rec, ord)
		         LEFT JOIN LATERAL (
		             SELECT x AS upd FROM jsonb_array_elements($2::jsonb) AS x
		             WHERE x->>'candidate' = a.rec->>'candidate'
		             LIMIT 1
		         ) AS u ON true
		     ), '[]'::jsonb),
		     filtered_candidates = $3, unfiltered_candidates = $4,
		     schema_version = $5, updated_at = $6
		 WHERE j.id = $1`,
		jd.ID, updates, cols.filtered, cols.unfiltered, types.JDSchemaVersion, jd.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save screening outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &types.NotFoundError{Kind: "job description", ID: jd.ID.String()}
	}
	return nil
}

// AppendApplication appends rec to the JD's applied candidates unless that candidate
// already applied. It reports whether the record was appended. The containment check
// and the append run in one statement so concurrent applies cannot both succeed.
func (db *DB) AppendApplication(ctx context.Context, jdID uuid.UUID, rec types.ApplicationRecord) (bool, error) {
	if rec.Status == "" {
		rec.Status = types.ApplicationPending
	}
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to marshal application: %w", err)
	}
	applicant, err := candidateContainment(rec.CandidateID)
	if err != nil {
		return false, err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE job_descriptions
		 SET applied_candidates = applied_candidates || jsonb_build_array($2::jsonb), updated_at = NOW()
		 WHERE id = $1 AND NOT applied_candidates @> $3::jsonb`,
		jdID, recJSON, applicant,
	)
	if err != nil {
		return false, fmt.Errorf("failed to append application: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM job_descriptions WHERE id = $1)`, jdID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check job description: %w", err)
	}
	if !exists {
		return false, &types.NotFoundError{Kind: "job description", ID: jdID.String()}
	}
	return false, nil
}

// candidateContainment is the JSONB value matched by `applied_candidates @>`
// when looking for one candidate's record.
func candidateContainment(candidateID uuid.UUID) ([]byte, error) {
	b, err := json.Marshal([]map[string]string{{"candidate": candidateID.String()}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal candidate filter: %w", err)
	}
	return b, nil
}

// ListApplications returns every application of the candidate, most recent first.
func (db *DB) ListApplications(ctx context.Context, candidateID uuid.UUID) ([]types.AppliedJob, error) {
	applicant, err := candidateContainment(candidateID)
	if err != nil {
		return nil, err
	}
	rows, err := db.pool.Query(ctx,
		`SELECT j.id, j.offer_id, j.job_summary, a.rec
		 FROM job_descriptions AS j
		 CROSS JOIN LATERAL jsonb_array_elements(j.applied_candidates) AS a(rec)
		 WHERE j.applied_candidates @> $1::jsonb AND a.rec->>'candidate' = $2`,
		applicant, candidateID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	jobs := []types.AppliedJob{}
	for rows.Next() {
		var jd types.JobDescription
		var raw []byte
		if err := rows.Scan(&jd.ID, &jd.OfferID, &jd.JobSummary, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		var rec types.ApplicationRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal application: %w", err)
		}
		if rec.Status == "" {
			rec.Status = types.ApplicationPending
		}
		jobs = append(jobs, appliedJob(&jd, rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}
	sortAppliedJobs(jobs)
	return jobs, nil
}
