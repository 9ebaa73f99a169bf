package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/types"
)

// Operation names accepted by MemoryStore.FailOn and MemoryStore.Calls.
const (
	OpCreateOffer          = "CreateOffer"
	OpUpdateOffer          = "UpdateOffer"
	OpCreateJobDescription = "CreateJobDescription"
	OpDeleteJobDescription = "DeleteJobDescription"
	OpSaveScreeningOutcome = "SaveScreeningOutcome"
	OpAppendApplication    = "AppendApplication"
	OpUpsertCandidate      = "UpsertCandidate"
)

// MemoryStore is a process-local Store. It backs `serve --memory` and tests.
// Values are copied on the way in and out, so callers never share state with the store.
type MemoryStore struct {
	mu         sync.Mutex
	offers     map[uuid.UUID]*types.Offer
	jds        map[uuid.UUID]*types.JobDescription
	candidates map[uuid.UUID]*types.Candidate
	users      map[uuid.UUID]*types.User
	failures   map[string]error
	calls      map[string]int
	now        func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		offers:     make(map[uuid.UUID]*types.Offer),
		jds:        make(map[uuid.UUID]*types.JobDescription),
		candidates: make(map[uuid.UUID]*types.Candidate),
		users:      make(map[uuid.UUID]*types.User),
		failures:   make(map[string]error),
		calls:      make(map[string]int),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// FailOn makes every later call of op return err. A nil err clears the failure.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls returns how many times op was invoked, including failed calls.
func (m *MemoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// enter records a call and returns the injected failure, if any. m.mu must be held.
func (m *MemoryStore) enter(op string) error {
	m.calls[op]++
	if err := m.failures[op]; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateOffer stores a copy of offer.
func (m *MemoryStore) CreateOffer(_ context.Context, offer *types.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreateOffer); err != nil {
		return err
	}
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	now := m.now()
	offer.CreatedAt, offer.UpdatedAt = now, now
	m.offers[offer.ID] = cloneOffer(offer)
	return nil
}

// GetOffer returns a copy of the offer, or nil.
func (m *MemoryStore) GetOffer(_ context.Context, id uuid.UUID) (*types.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, nil
	}
	return cloneOffer(o), nil
}

// UpdateOffer replaces the stored offer.
func (m *MemoryStore) UpdateOffer(_ context.Context, offer *types.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpdateOffer); err != nil {
		return err
	}
	existing, ok := m.offers[offer.ID]
	if !ok {
		return &types.NotFoundError{Kind: "offer", ID: offer.ID.String()}
	}
	offer.CreatedAt = existing.CreatedAt
	offer.UpdatedAt = m.now()
	m.offers[offer.ID] = cloneOffer(offer)
	return nil
}

// ListOffers returns matching offers, newest first.
func (m *MemoryStore) ListOffers(_ context.Context, filter OfferFilter) ([]types.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	offers := []types.Offer{}
	for _, o := range m.offers {
		if filter.matches(o) {
			offers = append(offers, *cloneOffer(o))
		}
	}
	sort.Slice(offers, func(i, j int) bool {
		if offers[i].CreatedAt.Equal(offers[j].CreatedAt) {
			return offers[i].ID.String() < offers[j].ID.String()
		}
		return offers[i].CreatedAt.After(offers[j].CreatedAt)
	})
	return offers, nil
}

// CreateJobDescription stores a copy of jd.
func (m *MemoryStore) CreateJobDescription(_ context.Context, jd *types.JobDescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreateJobDescription); err != nil {
		return err
	}
	if jd.ID == uuid.Nil {
		jd.ID = uuid.New()
	}
	for _, existing := range m.jds {
		if jd.PublicToken != "" && existing.PublicToken == jd.PublicToken {
			return &types.ConflictError{Message: "public token already in use"}
		}
	}
	jd.Normalize()
	now := m.now()
	jd.CreatedAt, jd.UpdatedAt = now, now
	m.jds[jd.ID] = cloneJD(jd)
	return nil
}

// GetJobDescription returns a copy of the JD, or nil.
func (m *MemoryStore) GetJobDescription(_ context.Context, id uuid.UUID) (*types.JobDescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	jd, ok := m.jds[id]
	if !ok {
		return nil, nil
	}
	return cloneJD(jd), nil
}

// GetJobDescriptionByOffer returns the oldest JD of the offer, or nil.
func (m *MemoryStore) GetJobDescriptionByOffer(_ context.Context, offerID uuid.UUID) (*types.JobDescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *types.JobDescription
	for _, jd := range m.jds {
		if jd.OfferID == offerID && (found == nil || jd.CreatedAt.Before(found.CreatedAt)) {
			found = jd
		}
	}
	if found == nil {
		return nil, nil
	}
	return cloneJD(found), nil
}

// GetJobDescriptionByToken returns the JD with the public token, or nil.
func (m *MemoryStore) GetJobDescriptionByToken(_ context.Context, token string) (*types.JobDescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, jd := range m.jds {
		if jd.PublicToken == token {
			return cloneJD(jd), nil
		}
	}
	return nil, nil
}

// ListJobDescriptions returns copies of the matching JDs, newest first.
func (m *MemoryStore) ListJobDescriptions(_ context.Context, filter JDFilter) ([]types.JobDescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	jds := []types.JobDescription{}
	for _, jd := range m.jds {
		if filter.matches(jd) {
			jds = append(jds, *cloneJD(jd))
		}
	}
	sort.Slice(jds, func(i, j int) bool {
		if jds[i].CreatedAt.Equal(jds[j].CreatedAt) {
			return jds[i].ID.String() < jds[j].ID.String()
		}
		return jds[i].CreatedAt.After(jds[j].CreatedAt)
	})
	return jds, nil
}

// DeleteJobDescription removes the JD if present.
func (m *MemoryStore) DeleteJobDescription(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDeleteJobDescription); err != nil {
		return err
	}
	delete(m.jds, id)
	return nil
}

// SaveScreeningOutcome replaces the outcome collections of the stored JD and
// copies status, score and explanation onto the stored applied records.
// Records that are not in jd, such as applications made during the run, are
// kept as stored.
func (m *MemoryStore) SaveScreeningOutcome(_ context.Context, jd *types.JobDescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpSaveScreeningOutcome); err != nil {
		return err
	}
	stored, ok := m.jds[jd.ID]
	if !ok {
		return &types.NotFoundError{Kind: "job description", ID: jd.ID.String()}
	}
	src := cloneJD(jd)
	stored.AppliedCandidates = applyScreening(stored.AppliedCandidates, src.AppliedCandidates)
	stored.FilteredCandidates = src.FilteredCandidates
	stored.UnfilteredCandidates = src.UnfilteredCandidates
	stored.SchemaVersion = types.JDSchemaVersion
	stored.UpdatedAt = m.now()
	jd.UpdatedAt = stored.UpdatedAt
	return nil
}

// AppendApplication appends rec unless the candidate already applied.
func (m *MemoryStore) AppendApplication(_ context.Context, jdID uuid.UUID, rec types.ApplicationRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpAppendApplication); err != nil {
		return false, err
	}
	jd, ok := m.jds[jdID]
	if !ok {
		return false, &types.NotFoundError{Kind: "job description", ID: jdID.String()}
	}
	if jd.HasApplicant(rec.CandidateID) {
		return false, nil
	}
	if rec.Status == "" {
		rec.Status = types.ApplicationPending
	}
	jd.AppliedCandidates = append(jd.AppliedCandidates, cloneRecord(rec))
	jd.UpdatedAt = m.now()
	return true, nil
}

// GetCandidate returns a copy of the candidate, or nil.
func (m *MemoryStore) GetCandidate(_ context.Context, id uuid.UUID) (*types.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, nil
	}
	return cloneCandidate(c), nil
}

// GetCandidateByEmail returns the candidate with the email, or nil.
func (m *MemoryStore) GetCandidateByEmail(_ context.Context, email string) (*types.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.candidateByEmail(NormalizeEmail(email)); c != nil {
		return cloneCandidate(c), nil
	}
	return nil, nil
}

func (m *MemoryStore) candidateByEmail(email string) *types.Candidate {
	for _, c := range m.candidates {
		if c.Email == email {
			return c
		}
	}
	return nil
}

// UpsertCandidate inserts c or refreshes the candidate with the same email.
func (m *MemoryStore) UpsertCandidate(_ context.Context, c *types.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpsertCandidate); err != nil {
		return err
	}
	c.Email = NormalizeEmail(c.Email)
	now := m.now()

	if existing := m.candidateByEmail(c.Email); existing != nil {
		existing.Name = c.Name
		if c.Phone != "" {
			existing.Phone = c.Phone
		}
		if c.Resume != "" {
			existing.Resume = c.Resume
		}
		existing.UpdatedAt = now
		*c = *cloneCandidate(existing)
		return nil
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Skills = nonNil(c.Skills)
	c.CreatedAt, c.UpdatedAt = now, now
	m.candidates[c.ID] = cloneCandidate(c)
	return nil
}

// UpdateCandidateResume overwrites the candidate's latest resume reference.
func (m *MemoryStore) UpdateCandidateResume(_ context.Context, id uuid.UUID, resume string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return &types.NotFoundError{Kind: "candidate", ID: id.String()}
	}
	c.Resume = resume
	c.UpdatedAt = m.now()
	return nil
}

// ListApplications returns every application of the candidate, most recent first.
func (m *MemoryStore) ListApplications(_ context.Context, candidateID uuid.UUID) ([]types.AppliedJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := []types.AppliedJob{}
	for _, jd := range m.jds {
		for _, rec := range jd.AppliedCandidates {
			if rec.CandidateID == candidateID {
				jobs = append(jobs, appliedJob(jd, rec))
			}
		}
	}
	sortAppliedJobs(jobs)
	return jobs, nil
}

// CreateUser stores a staff user.
func (m *MemoryStore) CreateUser(_ context.Context, u *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = NormalizeEmail(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return &types.ConflictError{Message: fmt.Sprintf("user with email %s already exists", u.Email)}
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = m.now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

// GetUser returns a copy of the user, or nil.
func (m *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneOffer(o *types.Offer) *types.Offer {
	cp := *o
	cp.Skills = cloneStrings(o.Skills)
	cp.PreferredSkills = cloneStrings(o.PreferredSkills)
	if o.DueDate != nil {
		d := *o.DueDate
		cp.DueDate = &d
	}
	return &cp
}

func cloneRecord(r types.ApplicationRecord) types.ApplicationRecord {
	if r.AIScore != nil {
		score := *r.AIScore
		r.AIScore = &score
	}
	return r
}

func cloneJD(jd *types.JobDescription) *types.JobDescription {
	cp := *jd
	cp.Responsibilities = cloneStrings(jd.Responsibilities)
	cp.Requirements = cloneStrings(jd.Requirements)
	cp.Benefits = cloneStrings(jd.Benefits)
	if jd.AIGeneration != nil {
		gen := *jd.AIGeneration
		cp.AIGeneration = &gen
	}
	if jd.AppliedCandidates != nil {
		cp.AppliedCandidates = make([]types.ApplicationRecord, len(jd.AppliedCandidates))
		for i, rec := range jd.AppliedCandidates {
			cp.AppliedCandidates[i] = cloneRecord(rec)
		}
	}
	if jd.FilteredCandidates != nil {
		cp.FilteredCandidates = append([]types.OutcomeEntry(nil), jd.FilteredCandidates...)
	}
	if jd.UnfilteredCandidates != nil {
		cp.UnfilteredCandidates = append([]types.OutcomeEntry(nil), jd.UnfilteredCandidates...)
	}
	cp.Normalize()
	return &cp
}

func cloneCandidate(c *types.Candidate) *types.Candidate {
	cp := *c
	cp.Skills = cloneStrings(c.Skills)
	if c.LastLoginAt != nil {
		t := *c.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}

// ListUsers returns copies of the users holding role, ordered by name.
func (m *MemoryStore) ListUsers(_ context.Context, role types.Role) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []types.User{}
	for _, u := range m.users {
		if u.Role == role {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name == users[j].Name {
			return users[i].Email < users[j].Email
		}
		return users[i].Name < users[j].Name
	})
	return users, nil
}
