package screening

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// OutcomeStore persists the three candidate collections of a JD in one write.
type OutcomeStore interface {
	SaveScreeningOutcome(ctx context.Context, jd *types.JobDescription) error
}

// Merged is a JD with a run's verdicts folded in.
type Merged struct {
	JD         *types.JobDescription
	Filtered   []Verdict
	Unfiltered []Verdict
	// Unscreened lists applicants that received no verdict; they are left pending.
	Unscreened []uuid.UUID
	// Skipped lists verdicts that matched no applied record.
	Skipped []Verdict
}

// Merge returns a copy of jd whose outcome collections are replaced by the
// verdicts and whose applied records carry the new status, score and
// rationale. jd itself is not modified.
func Merge(jd *types.JobDescription, filtered, unfiltered []Verdict) *Merged {
	out := *jd
	out.AppliedCandidates = make([]types.ApplicationRecord, len(jd.AppliedCandidates))
	copy(out.AppliedCandidates, jd.AppliedCandidates)
	out.FilteredCandidates = []types.OutcomeEntry{}
	out.UnfilteredCandidates = []types.OutcomeEntry{}

	index := make(map[uuid.UUID]int, len(out.AppliedCandidates))
	for i, rec := range out.AppliedCandidates {
		if _, dup := index[rec.CandidateID]; !dup {
			index[rec.CandidateID] = i
		}
	}

	m := &Merged{JD: &out, Filtered: []Verdict{}, Unfiltered: []Verdict{}}
	assigned := make(map[uuid.UUID]bool, len(filtered)+len(unfiltered))

	apply := func(v Verdict, status types.ApplicationStatus) bool {
		idx, ok := index[v.CandidateID]
		if !ok || assigned[v.CandidateID] {
			m.Skipped = append(m.Skipped, v)
			return false
		}
		assigned[v.CandidateID] = true
		score := v.Score
		rec := &out.AppliedCandidates[idx]
		rec.Status = status
		rec.AIScore = &score
		rec.AIExplanation = v.Rationale
		entry := types.OutcomeEntry{CandidateID: v.CandidateID, AIScore: v.Score, AIExplanation: v.Rationale}
		if status == types.ApplicationFiltered {
			out.FilteredCandidates = append(out.FilteredCandidates, entry)
		} else {
			out.UnfilteredCandidates = append(out.UnfilteredCandidates, entry)
		}
		return true
	}

	for _, v := range filtered {
		if apply(v, types.ApplicationFiltered) {
			m.Filtered = append(m.Filtered, v)
		}
	}
	for _, v := range unfiltered {
		if apply(v, types.ApplicationUnfiltered) {
			m.Unfiltered = append(m.Unfiltered, v)
		}
	}

	for i := range out.AppliedCandidates {
		rec := &out.AppliedCandidates[i]
		if assigned[rec.CandidateID] {
			continue
		}
		rec.Status = types.ApplicationPending
		rec.AIScore = nil
		rec.AIExplanation = ""
		m.Unscreened = append(m.Unscreened, rec.CandidateID)
	}

	return m
}

// AggregateWriter folds a run into its JD and saves it once.
type AggregateWriter struct {
	store  OutcomeStore
	logger *zap.Logger
}

// NewAggregateWriter creates a writer.
func NewAggregateWriter(store OutcomeStore, log *zap.Logger) *AggregateWriter {
	return &AggregateWriter{store: store, logger: logger.OrNop(log)}
}

// Commit merges the verdicts into jd and persists the result. On failure
// nothing of the run is visible and a *PersistenceError is returned.
func (w *AggregateWriter) Commit(ctx context.Context, jd *types.JobDescription, filtered, unfiltered []Verdict) (*Merged, error) {
	m := Merge(jd, filtered, unfiltered)
	for _, v := range m.Skipped {
		w.logger.Warn("verdict matches no applied record",
			zap.String(logger.FieldJDID, jd.ID.String()),
			zap.String(logger.FieldCandidateID, v.CandidateID.String()))
	}

	if err := w.store.SaveScreeningOutcome(ctx, m.JD); err != nil {
		w.logger.Error("screening outcome not saved", zap.String(logger.FieldJDID, jd.ID.String()), zap.Error(err))
		return nil, &PersistenceError{JDID: jd.ID, Cause: err}
	}
	return m, nil
}
