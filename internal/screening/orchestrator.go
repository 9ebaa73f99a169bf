// Package screening partitions a JD's applicants into accepted and rejected
// pools using an external classifier, and persists the outcome into the JD.
package screening

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/cache"
	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// AcceptanceThreshold is the minimum score for a candidate to be filtered in.
const AcceptanceThreshold = 60

const notResumePrefix = "The uploaded document is not a resume. "

// Verdict is the outcome for one candidate in one run.
type Verdict struct {
	CandidateID uuid.UUID `json:"id"`
	Score       int       `json:"score"`
	Rationale   string    `json:"explanation"`
	Accepted    bool      `json:"-"`
}

// RunResult is the partitioned outcome of a run, in roster order.
type RunResult struct {
	Filtered   []Verdict
	Unfiltered []Verdict
	Misses     []ReconciliationMiss
	// Failures counts candidates whose fetch or classifier call failed.
	Failures int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger.OrNop(l) }
}

// WithExtractionCache caches successful extractions by resume reference.
func WithExtractionCache(c cache.JSONCache, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.extraction.cache = c
		o.extraction.cacheTTL = ttl
	}
}

// Orchestrator drives extraction and evaluation for every applicant of a JD.
// Candidates are processed one at a time in roster order.
type Orchestrator struct {
	extraction ExtractionStage
	evaluation EvaluationStage
	logger     *zap.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(fetcher DocumentFetcher, classifier Classifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extraction: ExtractionStage{fetcher: fetcher, classifier: classifier},
		evaluation: EvaluationStage{classifier: classifier},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.extraction.logger = o.logger
	return o
}

type candidateOutcome struct {
	ref       string
	score     int
	rationale string
	failed    bool
}

// Run screens every applicant of jd. Per-candidate failures become
// unfiltered verdicts; only cancellation aborts the run.
func (o *Orchestrator) Run(ctx context.Context, jd *types.JobDescription) (*RunResult, error) {
	log := o.logger.With(zap.String(logger.FieldJDID, jd.ID.String()))
	roster := NewRoster(jd.AppliedCandidates)
	reqs := Requirements{
		JobSummary:       jd.JobSummary,
		Responsibilities: jd.Responsibilities,
		Requirements:     jd.Requirements,
	}

	result := &RunResult{Filtered: []Verdict{}, Unfiltered: []Verdict{}}
	seen := make(map[uuid.UUID]bool, roster.Len())

	for _, rec := range roster.Records() {
		if err := ctx.Err(); err != nil {
			log.Warn("screening run cancelled", zap.Int("screened", len(seen)), zap.Int("applicants", roster.Len()))
			return nil, fmt.Errorf("%w: %w", ErrRunCancelled, err)
		}

		outcome, err := o.screenCandidate(ctx, log, reqs, rec)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRunCancelled, err)
		}
		if outcome.failed {
			result.Failures++
		}

		id, ok := roster.Reconcile(outcome.ref)
		if !ok {
			miss := ReconciliationMiss{Ref: outcome.ref, Reason: "matches no applicant; verdict dropped"}
			result.Misses = append(result.Misses, miss)
			log.Warn("reconciliation miss", zap.String(logger.FieldCandidateID, rec.CandidateID.String()), zap.String("ref", outcome.ref))
			continue
		}
		if seen[id] {
			miss := ReconciliationMiss{Ref: outcome.ref, Reason: "candidate already has a verdict in this run; duplicate dropped"}
			result.Misses = append(result.Misses, miss)
			log.Warn("duplicate verdict", zap.String(logger.FieldCandidateID, id.String()), zap.String("ref", outcome.ref))
			continue
		}
		seen[id] = true

		v := Verdict{
			CandidateID: id,
			Score:       outcome.score,
			Rationale:   outcome.rationale,
			Accepted:    outcome.score >= AcceptanceThreshold,
		}
		if v.Accepted {
			result.Filtered = append(result.Filtered, v)
		} else {
			result.Unfiltered = append(result.Unfiltered, v)
		}
		log.Info("candidate screened",
			zap.String(logger.FieldCandidateID, id.String()),
			zap.Int("score", v.Score),
			zap.Bool("accepted", v.Accepted))
	}

	log.Info("screening run complete",
		zap.Int("applicants", roster.Len()),
		zap.Int("filtered", len(result.Filtered)),
		zap.Int("unfiltered", len(result.Unfiltered)),
		zap.Int("failures", result.Failures),
		zap.Int("misses", len(result.Misses)))
	return result, nil
}

// screenCandidate returns an error only when ctx ended during the candidate.
func (o *Orchestrator) screenCandidate(ctx context.Context, log *zap.Logger, reqs Requirements, rec types.ApplicationRecord) (candidateOutcome, error) {
	ref := rec.CandidateID.String()

	ext, err := o.extraction.Extract(ctx, rec.Resume)
	if err != nil {
		if ctx.Err() != nil {
			return candidateOutcome{}, ctx.Err()
		}
		log.Warn("resume extraction failed", zap.String(logger.FieldCandidateID, ref), zap.Error(err))
		return failureOutcome(ref, err), nil
	}

	if !ext.IsResume {
		return candidateOutcome{ref: ref, score: 0, rationale: notResumePrefix + ext.Content}, nil
	}

	eval, err := o.evaluation.Evaluate(ctx, reqs, ref, ext.Content)
	if err != nil {
		if ctx.Err() != nil {
			return candidateOutcome{}, ctx.Err()
		}
		log.Warn("resume evaluation failed", zap.String(logger.FieldCandidateID, ref), zap.Error(err))
		return failureOutcome(ref, err), nil
	}

	return candidateOutcome{ref: eval.CandidateRef, score: eval.Score, rationale: eval.Rationale}, nil
}

func failureOutcome(ref string, err error) candidateOutcome {
	return candidateOutcome{
		ref:       ref,
		score:     0,
		rationale: "Automatic screening failed: " + logger.Truncate(err.Error(), 500),
		failed:    true,
	}
}
