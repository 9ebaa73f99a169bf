package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/types"
)

func (fx *fixture) createJD(t *testing.T) *types.JobDescription {
	t.Helper()
	offer := fx.createOffer(t)
	jd, err := fx.manager.CreateJD(context.Background(), fx.hr, offer.ID, manualJD())
	require.NoError(t, err)
	return jd
}

func (fx *fixture) createCandidate(t *testing.T, email string) *types.Principal {
	t.Helper()
	c := &types.Candidate{Name: "Ana", Email: email, Resume: "https://files.example.com/old.pdf"}
	require.NoError(t, fx.store.UpsertCandidate(context.Background(), c))
	return &types.Principal{UserID: c.ID, Role: types.RoleCandidate}
}

func application(resume string) types.ApplicationRequest {
	return types.ApplicationRequest{Resume: resume, Name: "Ana", Email: "ana@example.com", Phone: "555-0100"}
}

func TestApply_RecordsPendingApplication(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	jd := fx.createJD(t)
	actor := fx.createCandidate(t, "ana@example.com")

	rec, err := fx.manager.Apply(ctx, actor, jd.ID, application("https://files.example.com/new.pdf"))
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationPending, rec.Status)
	assert.Equal(t, actor.UserID, rec.CandidateID)

	stored, err := fx.store.GetJobDescription(ctx, jd.ID)
	require.NoError(t, err)
	require.Len(t, stored.AppliedCandidates, 1)
	assert.Equal(t, "https://files.example.com/new.pdf", stored.AppliedCandidates[0].Resume)

	candidate, err := fx.store.GetCandidate(ctx, actor.UserID)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/new.pdf", candidate.Resume, "latest resume is overwritten")
}

func TestApply_DuplicateRejected(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	jd := fx.createJD(t)
	actor := fx.createCandidate(t, "ana@example.com")

	_, err := fx.manager.Apply(ctx, actor, jd.ID, application("https://files.example.com/a.pdf"))
	require.NoError(t, err)

	_, err = fx.manager.Apply(ctx, actor, jd.ID, application("https://files.example.com/b.pdf"))
	var conflict *types.ConflictError
	require.True(t, errors.As(err, &conflict))

	stored, err := fx.store.GetJobDescription(ctx, jd.ID)
	require.NoError(t, err)
	assert.Len(t, stored.AppliedCandidates, 1)
	assert.Equal(t, "https://files.example.com/a.pdf", stored.AppliedCandidates[0].Resume)
}

func TestApply_Rejections(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	jd := fx.createJD(t)

	var fe *types.ForbiddenError
	_, err := fx.manager.Apply(ctx, fx.hr, jd.ID, application("https://files.example.com/a.pdf"))
	assert.True(t, errors.As(err, &fe))

	var nf *types.NotFoundError
	ghost := &types.Principal{UserID: uuid.New(), Role: types.RoleCandidate}
	_, err = fx.manager.Apply(ctx, ghost, jd.ID, application("https://files.example.com/a.pdf"))
	assert.True(t, errors.As(err, &nf))

	actor := fx.createCandidate(t, "ana@example.com")
	_, err = fx.manager.Apply(ctx, actor, uuid.New(), application("https://files.example.com/a.pdf"))
	assert.True(t, errors.As(err, &nf))

	var ve *types.ValidationError
	_, err = fx.manager.Apply(ctx, actor, jd.ID, application("not a url"))
	assert.True(t, errors.As(err, &ve))
}

func TestAddResume_UpsertsCandidate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	jd := fx.createJD(t)

	rec, err := fx.manager.AddResume(ctx, fx.hr, jd.ID, application("https://files.example.com/a.pdf"))
	require.NoError(t, err)

	candidate, err := fx.store.GetCandidateByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, candidate.ID, rec.CandidateID)

	_, err = fx.manager.AddResume(ctx, fx.hr, jd.ID, application("https://files.example.com/b.pdf"))
	var conflict *types.ConflictError
	assert.True(t, errors.As(err, &conflict))

	stored, err := fx.store.GetJobDescription(ctx, jd.ID)
	require.NoError(t, err)
	assert.Len(t, stored.AppliedCandidates, 1)
}

func TestAddResume_DuplicateLeavesCandidateUntouched(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	jd := fx.createJD(t)

	_, err := fx.manager.AddResume(ctx, fx.hr, jd.ID, application("https://files.example.com/a.pdf"))
	require.NoError(t, err)

	dup := application("https://files.example.com/b.pdf")
	dup.Email = "ANA@example.com"
	_, err = fx.manager.AddResume(ctx, fx.hr, jd.ID, dup)
	var conflict *types.ConflictError
	require.True(t, errors.As(err, &conflict))

	candidate, err := fx.store.GetCandidateByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "https://files.example.com/a.pdf", candidate.Resume)
	assert.Equal(t, 1, fx.store.Calls(db.OpUpsertCandidate))
}

func TestAddResume_OnlyManagers(t *testing.T) {
	fx := newFixture(t)
	jd := fx.createJD(t)

	_, err := fx.manager.AddResume(context.Background(), &types.Principal{UserID: uuid.New(), Role: types.RoleHR}, jd.ID,
		application("https://files.example.com/a.pdf"))
	var fe *types.ForbiddenError
	assert.True(t, errors.As(err, &fe))
}

func TestInvite_CountsSends(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	jd := fx.createJD(t)
	ana := fx.createCandidate(t, "ana@example.com")
	bo := fx.createCandidate(t, "bo@example.com")
	fx.notifier.fail["bo@example.com"] = errors.New("mailbox full")
	fx.notifier.sent = nil

	missing := uuid.NewString()
	result, err := fx.manager.Invite(ctx, fx.hr, jd.ID, types.InviteRequest{
		CandidateIDs: []string{ana.UserID.String(), bo.UserID.String(), missing},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SentCount)
	assert.ElementsMatch(t, []string{bo.UserID.String(), missing}, result.Failed)

	require.Len(t, fx.notifier.sent, 1)
	assert.Contains(t, fx.notifier.sent[0].Body, fx.manager.PublicLink(jd))
}

func TestInvite_Validation(t *testing.T) {
	fx := newFixture(t)
	jd := fx.createJD(t)

	_, err := fx.manager.Invite(context.Background(), fx.hr, jd.ID, types.InviteRequest{})
	var ve *types.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestAppliedJobs_ListsOwnApplications(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	first := fx.createJD(t)
	second := fx.createJD(t)
	fx.createJD(t)
	actor := fx.createCandidate(t, "ana@example.com")

	_, err := fx.manager.Apply(ctx, actor, first.ID, application("https://files.example.com/a.pdf"))
	require.NoError(t, err)
	_, err = fx.manager.Apply(ctx, actor, second.ID, application("https://files.example.com/a.pdf"))
	require.NoError(t, err)

	jobs, err := fx.manager.AppliedJobs(ctx, actor)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	ids := []uuid.UUID{jobs[0].JDID, jobs[1].JDID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
	assert.Equal(t, types.ApplicationPending, jobs[0].Status)

	_, err = fx.manager.AppliedJobs(ctx, fx.hr)
	var fe *types.ForbiddenError
	assert.True(t, errors.As(err, &fe))
}
