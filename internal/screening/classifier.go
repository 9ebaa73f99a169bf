package screening

import (
	"context"

	"github.com/jonathan/talent-pipeline/internal/fetch"
)

// Extraction is the classifier's reading of one document.
// When IsResume is false, Content is a human-readable rejection reason.
type Extraction struct {
	IsResume bool   `json:"isResume"`
	Content  string `json:"content"`
}

// Requirements is the part of a JD a resume is evaluated against.
type Requirements struct {
	JobSummary       string
	Responsibilities []string
	Requirements     []string
}

// EvaluationRequest asks the classifier to score one resume.
type EvaluationRequest struct {
	Requirements
	CandidateRef  string
	ExtractedText string
}

// Evaluation is the classifier's raw judgement. CandidateRef is whatever the
// classifier echoed back and may be an id, an email or empty.
type Evaluation struct {
	CandidateRef string  `json:"id"`
	Score        float64 `json:"score"`
	Explanation  string  `json:"explanation"`
}

// Classifier performs document extraction and fitness evaluation.
type Classifier interface {
	Extract(ctx context.Context, doc *fetch.Document) (*Extraction, error)
	Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error)
}

// DocumentFetcher resolves a resume reference to its content.
type DocumentFetcher interface {
	Fetch(ctx context.Context, ref string) (*fetch.Document, error)
}
