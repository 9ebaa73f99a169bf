package screening

import (
	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/types"
)

// Roster indexes a JD's applied candidates by id and by email. It is built
// once per run from the JD loaded at the start of that run.
type Roster struct {
	records []types.ApplicationRecord
	byID    map[uuid.UUID]int
	byEmail map[string]int
}

// NewRoster builds a roster. When several records share an email the first
// one in roster order wins.
func NewRoster(records []types.ApplicationRecord) *Roster {
	r := &Roster{
		records: records,
		byID:    make(map[uuid.UUID]int, len(records)),
		byEmail: make(map[string]int, len(records)),
	}
	for i, rec := range records {
		if _, dup := r.byID[rec.CandidateID]; !dup {
			r.byID[rec.CandidateID] = i
		}
		if email := normalizeEmail(rec.Email); email != "" {
			if _, dup := r.byEmail[email]; !dup {
				r.byEmail[email] = i
			}
		}
	}
	return r
}

// Len returns the number of applied records.
func (r *Roster) Len() int { return len(r.records) }

// Records returns the applied records in roster order.
func (r *Roster) Records() []types.ApplicationRecord { return r.records }

// Resolve maps a raw reference to the canonical candidate id when it matches
// an applicant's email, and returns it unchanged otherwise. Canonical ids
// never contain "@", so Resolve(Resolve(x)) == Resolve(x).
func (r *Roster) Resolve(rawRef string) string {
	if idx, ok := r.byEmail[normalizeEmail(rawRef)]; ok {
		return r.records[idx].CandidateID.String()
	}
	return rawRef
}

// Lookup returns the canonical id a reference points at within the roster.
func (r *Roster) Lookup(ref CandidateRef) (uuid.UUID, bool) {
	switch ref.Kind() {
	case RefByID:
		id, _ := ref.ID()
		if _, ok := r.byID[id]; ok {
			return id, true
		}
	case RefByEmail:
		email, _ := ref.Email()
		if idx, ok := r.byEmail[email]; ok {
			return r.records[idx].CandidateID, true
		}
	}
	return uuid.Nil, false
}

// Reconcile resolves a raw reference and confirms it names an applicant.
func (r *Roster) Reconcile(rawRef string) (uuid.UUID, bool) {
	return r.Lookup(ParseRef(r.Resolve(rawRef)))
}

// Record returns the applied record for a canonical id.
func (r *Roster) Record(id uuid.UUID) (types.ApplicationRecord, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return types.ApplicationRecord{}, false
	}
	return r.records[idx], true
}
