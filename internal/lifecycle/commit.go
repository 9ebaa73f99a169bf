package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// InconsistentStateError reports a JD that was saved while its offer's status
// update failed. When Compensated is true the JD was removed again and the
// store is back to its previous state.
type InconsistentStateError struct {
	JDID        uuid.UUID
	OfferID     uuid.UUID
	Cause       error
	Compensated bool
}

func (e *InconsistentStateError) Error() string {
	state := "job description left without offer update"
	if e.Compensated {
		state = "job description rolled back"
	}
	return fmt.Sprintf("offer %s not updated after creating job description %s (%s): %v", e.OfferID, e.JDID, state, e.Cause)
}

func (e *InconsistentStateError) Unwrap() error {
	return e.Cause
}

type jdCommitStore interface {
	CreateJobDescription(ctx context.Context, jd *types.JobDescription) error
	DeleteJobDescription(ctx context.Context, id uuid.UUID) error
	UpdateOffer(ctx context.Context, offer *types.Offer) error
}

// commitJD persists jd and then the offer advanced to "JD created". Both
// mutations are staged before either write. If the JD write fails the offer
// is untouched; if the offer write fails the JD is deleted again.
func commitJD(ctx context.Context, store jdCommitStore, log *zap.Logger, offer *types.Offer, jd *types.JobDescription) (*types.Offer, error) {
	next, err := markJDCreated(offer)
	if err != nil {
		return nil, err
	}

	if err := store.CreateJobDescription(ctx, jd); err != nil {
		return nil, fmt.Errorf("failed to save job description: %w", err)
	}

	if err := store.UpdateOffer(ctx, next); err != nil {
		inconsistent := &InconsistentStateError{JDID: jd.ID, OfferID: offer.ID, Cause: err}
		// The compensating delete must run even when the request context is gone.
		if delErr := store.DeleteJobDescription(context.WithoutCancel(ctx), jd.ID); delErr != nil {
			log.Error("compensating JD delete failed",
				zap.String(logger.FieldJDID, jd.ID.String()),
				zap.String(logger.FieldOfferID, offer.ID.String()),
				zap.Error(delErr))
		} else {
			inconsistent.Compensated = true
		}
		log.Error("offer status update failed after JD creation",
			zap.String(logger.FieldJDID, jd.ID.String()),
			zap.String(logger.FieldOfferID, offer.ID.String()),
			zap.Bool("compensated", inconsistent.Compensated),
			zap.Error(err))
		return nil, inconsistent
	}
	return next, nil
}
