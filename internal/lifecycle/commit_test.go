package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/types"
)

func TestCommitJD_JDWriteFailureLeavesOffer(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	offer := fx.createOffer(t)
	fx.store.FailOn(db.OpCreateJobDescription, errors.New("disk full"))

	_, err := fx.manager.CreateJD(ctx, fx.hr, offer.ID, manualJD())
	require.Error(t, err)
	assert.Equal(t, 0, fx.store.Calls(db.OpUpdateOffer))

	stored, err := fx.store.GetOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OfferStatusJDPending, stored.Status)
	assert.False(t, stored.IsJDCreated)
}

func TestCommitJD_OfferWriteFailureCompensates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	offer := fx.createOffer(t)
	boom := errors.New("write conflict")
	fx.store.FailOn(db.OpUpdateOffer, boom)

	_, err := fx.manager.CreateJD(ctx, fx.hr, offer.ID, manualJD())
	var ise *InconsistentStateError
	require.True(t, errors.As(err, &ise))
	assert.True(t, ise.Compensated)
	assert.Equal(t, offer.ID, ise.OfferID)
	assert.ErrorIs(t, err, boom)

	jd, err := fx.store.GetJobDescriptionByOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Nil(t, jd, "the JD is rolled back")

	fx.store.FailOn(db.OpUpdateOffer, nil)
	_, err = fx.manager.CreateJD(ctx, fx.hr, offer.ID, manualJD())
	assert.NoError(t, err, "a retry succeeds after compensation")
}

func TestCommitJD_CompensationFailure(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	offer := fx.createOffer(t)
	fx.store.FailOn(db.OpUpdateOffer, errors.New("write conflict"))
	fx.store.FailOn(db.OpDeleteJobDescription, errors.New("connection lost"))

	_, err := fx.manager.CreateJD(ctx, fx.hr, offer.ID, manualJD())
	var ise *InconsistentStateError
	require.True(t, errors.As(err, &ise))
	assert.False(t, ise.Compensated)
	assert.Contains(t, err.Error(), "left without offer update")
}
