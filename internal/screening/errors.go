package screening

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRunCancelled is returned when the run's context ends before all
// candidates were screened. Nothing is persisted for a cancelled run.
var ErrRunCancelled = errors.New("screening run cancelled")

// Stage names a step of per-candidate processing.
type Stage string

// Stages.
const (
	StageFetch      Stage = "fetch"
	StageExtraction Stage = "extraction"
	StageEvaluation Stage = "evaluation"
)

// ClassifierError reports a failed or unparseable classifier call.
// It is always confined to one candidate.
type ClassifierError struct {
	Stage   Stage
	Message string
	Cause   error
}

func (e *ClassifierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Message)
}

func (e *ClassifierError) Unwrap() error {
	return e.Cause
}

// PersistenceError reports that the outcome of a run could not be saved.
// The JD keeps its previous outcome collections.
type PersistenceError struct {
	JDID  uuid.UUID
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist screening outcome for JD %s: %v", e.JDID, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// ReconciliationMiss is a verdict whose candidate reference could not be
// tied to an applicant. The verdict is dropped and reported as a warning.
type ReconciliationMiss struct {
	Ref    string
	Reason string
}

func (m ReconciliationMiss) Error() string {
	return fmt.Sprintf("candidate reference %q: %s", m.Ref, m.Reason)
}
