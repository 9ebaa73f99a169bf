package screening

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/talent-pipeline/internal/fetch"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// fakeFetcher serves documents from memory, keyed by resume reference.
type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string]*fetch.Document
	errs  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{docs: map[string]*fetch.Document{}, errs: map[string]error{}}
}

func (f *fakeFetcher) addText(ref, text string) *fakeFetcher {
	f.docs[ref] = &fetch.Document{Ref: ref, Data: []byte(text), ContentType: "text/plain", Text: text}
	return f
}

func (f *fakeFetcher) addBinary(ref, contentType string) *fakeFetcher {
	f.docs[ref] = &fetch.Document{Ref: ref, Data: []byte{0x89, 0x50, 0x4e, 0x47}, ContentType: contentType}
	return f
}

func (f *fakeFetcher) Fetch(_ context.Context, ref string) (*fetch.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ref)
	if err := f.errs[ref]; err != nil {
		return nil, err
	}
	doc, ok := f.docs[ref]
	if !ok {
		return nil, &fetch.Error{URL: ref, Message: "not found", StatusCode: 404}
	}
	return doc, nil
}

// mockClassifier implements Classifier with function fields.
type mockClassifier struct {
	ExtractFunc  func(ctx context.Context, doc *fetch.Document) (*Extraction, error)
	EvaluateFunc func(ctx context.Context, req EvaluationRequest) (*Evaluation, error)

	mu            sync.Mutex
	extractCalls  int
	evaluateCalls int
}

func (m *mockClassifier) Extract(ctx context.Context, doc *fetch.Document) (*Extraction, error) {
	m.mu.Lock()
	m.extractCalls++
	m.mu.Unlock()
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, doc)
	}
	return &Extraction{IsResume: true, Content: doc.Text}, nil
}

func (m *mockClassifier) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	m.mu.Lock()
	m.evaluateCalls++
	m.mu.Unlock()
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, req)
	}
	return &Evaluation{CandidateRef: req.CandidateRef, Score: 70, Explanation: "Solid match."}, nil
}

// keywordScorer scores a resume by the share of requirements it mentions.
func keywordScorer(_ context.Context, req EvaluationRequest) (*Evaluation, error) {
	if len(req.Requirements.Requirements) == 0 {
		return &Evaluation{CandidateRef: req.CandidateRef, Score: 50, Explanation: "No requirements."}, nil
	}
	hits := 0
	text := strings.ToLower(req.ExtractedText)
	for _, r := range req.Requirements.Requirements {
		if strings.Contains(text, strings.ToLower(r)) {
			hits++
		}
	}
	score := float64(hits) * 100 / float64(len(req.Requirements.Requirements))
	return &Evaluation{CandidateRef: req.CandidateRef, Score: score, Explanation: "Keyword overlap."}, nil
}

func applicant(email, resume string) types.ApplicationRecord {
	return types.ApplicationRecord{
		CandidateID: uuid.New(),
		Resume:      resume,
		Name:        strings.Split(email, "@")[0],
		Email:       email,
		AppliedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Status:      types.ApplicationPending,
	}
}

func newJD(requirements []string, records ...types.ApplicationRecord) *types.JobDescription {
	jd := &types.JobDescription{
		ID:                uuid.New(),
		OfferID:           uuid.New(),
		JobSummary:        "Platform engineer",
		Requirements:      requirements,
		AppliedCandidates: records,
		PublicToken:       uuid.NewString(),
	}
	jd.Normalize()
	return jd
}

func verdictIDs(vs []Verdict) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(vs))
	for _, v := range vs {
		ids = append(ids, v.CandidateID)
	}
	return ids
}

var errTransient = errors.New("connection reset by peer")
