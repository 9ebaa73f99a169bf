// Package lifecycle manages offers and their job descriptions: the offer
// status machine, JD creation, applications and invitations.
package lifecycle

import (
	"fmt"

	"github.com/jonathan/talent-pipeline/internal/types"
)

// InvalidTransitionError reports a status change the offer lifecycle does not allow.
type InvalidTransitionError struct {
	From   types.OfferStatus
	To     types.OfferStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move offer from %q to %q: %s", e.From, e.To, e.Reason)
}

// CheckTransition reports whether an administrative status change is allowed.
// Status only moves forward, "JD created" is reached only by creating the JD,
// and "In progress" and "Closed" require the JD to exist.
func CheckTransition(offer *types.Offer, to types.OfferStatus) error {
	from := offer.Status
	switch {
	case !to.Valid():
		return &InvalidTransitionError{From: from, To: to, Reason: "unknown status"}
	case to.Rank() <= from.Rank():
		return &InvalidTransitionError{From: from, To: to, Reason: "status may only move forward"}
	case to == types.OfferStatusJDCreated:
		return &InvalidTransitionError{From: from, To: to, Reason: "set automatically when the job description is created"}
	case to.Rank() > types.OfferStatusJDCreated.Rank() && !offer.IsJDCreated:
		return &InvalidTransitionError{From: from, To: to, Reason: "the job description has not been created"}
	}
	return nil
}

// markJDCreated returns a copy of offer advanced to "JD created".
func markJDCreated(offer *types.Offer) (*types.Offer, error) {
	if offer.IsJDCreated {
		return nil, &types.ConflictError{Message: "a job description already exists for this offer"}
	}
	if offer.Status.Rank() > types.OfferStatusJDCreated.Rank() {
		return nil, &InvalidTransitionError{From: offer.Status, To: types.OfferStatusJDCreated, Reason: "status may only move forward"}
	}
	next := *offer
	next.Status = types.OfferStatusJDCreated
	next.IsJDCreated = true
	return &next, nil
}
