package screening

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-pipeline/internal/types"
)

func TestParseRef(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name  string
		raw   string
		kind  RefKind
		email string
	}{
		{name: "canonical id", raw: id.String(), kind: RefByID},
		{name: "id with whitespace", raw: "  " + id.String() + "\n", kind: RefByID},
		{name: "email", raw: "Ana@Example.com", kind: RefByEmail, email: "ana@example.com"},
		{name: "garbage", raw: "candidate #2", kind: RefUnknown},
		{name: "empty", raw: "", kind: RefUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ParseRef(tt.raw)
			assert.Equal(t, tt.kind, ref.Kind())
			switch tt.kind {
			case RefByID:
				got, ok := ref.ID()
				assert.True(t, ok)
				assert.Equal(t, id, got)
			case RefByEmail:
				got, ok := ref.Email()
				assert.True(t, ok)
				assert.Equal(t, tt.email, got)
			default:
				_, okID := ref.ID()
				_, okEmail := ref.Email()
				assert.False(t, okID)
				assert.False(t, okEmail)
			}
		})
	}
}

func TestCandidateRef_StringKeepsInput(t *testing.T) {
	assert.Equal(t, "Ana@Example.com", ByEmail(" Ana@Example.com ").String())
	id := uuid.New()
	assert.Equal(t, id.String(), ByID(id).String())
}

func TestRoster_ResolveEmailToID(t *testing.T) {
	ana := applicant("ana@example.com", "r1")
	bo := applicant("bo@example.com", "r2")
	roster := NewRoster([]types.ApplicationRecord{ana, bo})

	assert.Equal(t, bo.CandidateID.String(), roster.Resolve("bo@example.com"))
	assert.Equal(t, bo.CandidateID.String(), roster.Resolve("  BO@Example.COM "))
	assert.Equal(t, ana.CandidateID.String(), roster.Resolve(ana.CandidateID.String()))
	assert.Equal(t, "stranger@example.com", roster.Resolve("stranger@example.com"))
}

func TestRoster_ResolveIsIdempotent(t *testing.T) {
	records := []types.ApplicationRecord{
		applicant("ana@example.com", "r1"),
		applicant("bo@example.com", "r2"),
		applicant("cy@example.com", "r3"),
	}
	roster := NewRoster(records)

	inputs := []string{"not-an-email", "unknown@example.com", "", uuid.NewString()}
	for _, rec := range records {
		inputs = append(inputs, rec.Email, rec.CandidateID.String())
	}

	for _, in := range inputs {
		once := roster.Resolve(in)
		assert.Equal(t, once, roster.Resolve(once), "resolve(resolve(%q)) must equal resolve(%q)", in, in)
	}
}

func TestRoster_Reconcile(t *testing.T) {
	ana := applicant("ana@example.com", "r1")
	roster := NewRoster([]types.ApplicationRecord{ana})

	id, ok := roster.Reconcile(ana.CandidateID.String())
	require.True(t, ok)
	assert.Equal(t, ana.CandidateID, id)

	id, ok = roster.Reconcile("ANA@example.com")
	require.True(t, ok)
	assert.Equal(t, ana.CandidateID, id)

	_, ok = roster.Reconcile(uuid.NewString())
	assert.False(t, ok, "an id outside the roster is a miss")

	_, ok = roster.Reconcile("someone@else.com")
	assert.False(t, ok)

	_, ok = roster.Reconcile("Ana")
	assert.False(t, ok)
}

func TestRoster_DuplicateEmailFirstWins(t *testing.T) {
	first := applicant("shared@example.com", "r1")
	second := applicant("shared@example.com", "r2")
	roster := NewRoster([]types.ApplicationRecord{first, second})

	id, ok := roster.Reconcile("shared@example.com")
	require.True(t, ok)
	assert.Equal(t, first.CandidateID, id)

	rec, ok := roster.Record(second.CandidateID)
	require.True(t, ok)
	assert.Equal(t, "r2", rec.Resume)
}

func TestRoster_Empty(t *testing.T) {
	roster := NewRoster(nil)
	assert.Equal(t, 0, roster.Len())
	assert.Equal(t, "x@example.com", roster.Resolve("x@example.com"))
	_, ok := roster.Reconcile("x@example.com")
	assert.False(t, ok)
}
