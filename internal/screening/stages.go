package screening

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/cache"
	"github.com/jonathan/talent-pipeline/internal/fetch"
	"github.com/jonathan/talent-pipeline/internal/llm"
)

const extractionCachePrefix = "screening:extract:v1:"

// supportedDocumentTypes are the binary media types forwarded to the classifier.
var supportedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
}

// ExtractionStage fetches a resume and asks the classifier whether it is a
// resume and what it says.
type ExtractionStage struct {
	fetcher    DocumentFetcher
	classifier Classifier
	cache      cache.JSONCache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// Extract returns an Extraction for resumeRef. Unsupported or unreadable
// content yields IsResume=false with a reason; fetch and classifier
// failures are returned as errors.
func (s *ExtractionStage) Extract(ctx context.Context, resumeRef string) (*Extraction, error) {
	key := extractionCacheKey(resumeRef)
	if s.cache != nil {
		var cached Extraction
		found, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("extraction cache read failed", zap.Error(err))
		}
		if found {
			s.logger.Debug("extraction cache hit", zap.String("resume", resumeRef))
			return &cached, nil
		}
	}

	doc, err := s.fetcher.Fetch(ctx, resumeRef)
	if err != nil {
		return nil, &ClassifierError{Stage: StageFetch, Message: "could not retrieve resume", Cause: err}
	}

	if reason := rejectDocument(doc); reason != "" {
		return &Extraction{IsResume: false, Content: reason}, nil
	}

	ext, err := s.classifier.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	ext.Content = strings.TrimSpace(llm.StripControlChars(ext.Content))
	if ext.IsResume && ext.Content == "" {
		return &Extraction{IsResume: false, Content: "The document contains no readable resume text."}, nil
	}
	if !ext.IsResume && ext.Content == "" {
		ext.Content = "The document does not appear to be a resume."
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, ext, s.cacheTTL); err != nil {
			s.logger.Warn("extraction cache write failed", zap.Error(err))
		}
	}
	return ext, nil
}

// rejectDocument returns a rejection reason for documents the classifier
// cannot read, or "" when the document should be classified.
func rejectDocument(doc *fetch.Document) string {
	if doc.IsText() {
		return ""
	}
	switch {
	case strings.HasPrefix(doc.ContentType, "text/"):
		return "The document contains no readable text."
	case supportedDocumentTypes[doc.ContentType]:
		return ""
	default:
		return fmt.Sprintf("The document type %s is not supported; the resume must be a PDF.", doc.ContentType)
	}
}

func extractionCacheKey(resumeRef string) string {
	sum := sha256.Sum256([]byte(resumeRef))
	return extractionCachePrefix + hex.EncodeToString(sum[:])
}

// ScoredEvaluation is a validated evaluation.
type ScoredEvaluation struct {
	CandidateRef string
	Score        int
	Rationale    string
}

// EvaluationStage scores an extracted resume against JD requirements.
type EvaluationStage struct {
	classifier Classifier
}

// Evaluate returns a score in [0,100]. Scores outside that range, NaN and
// empty rationales are classifier failures.
func (s *EvaluationStage) Evaluate(ctx context.Context, reqs Requirements, candidateRef, extractedText string) (*ScoredEvaluation, error) {
	eval, err := s.classifier.Evaluate(ctx, EvaluationRequest{
		Requirements:  reqs,
		CandidateRef:  candidateRef,
		ExtractedText: extractedText,
	})
	if err != nil {
		return nil, err
	}

	if math.IsNaN(eval.Score) || math.IsInf(eval.Score, 0) || eval.Score < 0 || eval.Score > 100 {
		return nil, &ClassifierError{Stage: StageEvaluation, Message: fmt.Sprintf("score %v outside 0-100", eval.Score)}
	}
	rationale := strings.TrimSpace(llm.StripControlChars(eval.Explanation))
	if rationale == "" {
		return nil, &ClassifierError{Stage: StageEvaluation, Message: "empty explanation"}
	}

	ref := strings.TrimSpace(eval.CandidateRef)
	if ref == "" {
		ref = candidateRef
	}

	return &ScoredEvaluation{
		CandidateRef: ref,
		Score:        int(math.Round(eval.Score)),
		Rationale:    rationale,
	}, nil
}
