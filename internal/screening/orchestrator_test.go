package screening

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/talent-pipeline/internal/cache"
	"github.com/jonathan/talent-pipeline/internal/fetch"
	"github.com/jonathan/talent-pipeline/internal/types"
)

func TestRun_FailureIsolationWithImageApplicant(t *testing.T) {
	first := applicant("ana@example.com", "r1")
	second := applicant("bo@example.com", "r2")
	third := applicant("cy@example.com", "r3")
	jd := newJD([]string{"Go"}, first, second, third)

	f := newFakeFetcher().
		addText("r1", "Go services").
		addBinary("r2", "image/png").
		addText("r3", "Java services")
	c := &mockClassifier{
		ExtractFunc: func(_ context.Context, doc *fetch.Document) (*Extraction, error) {
			if doc.ContentType == "image/png" {
				return &Extraction{IsResume: false, Content: "The document appears to be an image of a certificate, not a resume."}, nil
			}
			return &Extraction{IsResume: true, Content: doc.Text}, nil
		},
		EvaluateFunc: keywordScorer,
	}

	result, err := NewOrchestrator(f, c).Run(context.Background(), jd)
	require.NoError(t, err)

	all := append(append([]Verdict{}, result.Filtered...), result.Unfiltered...)
	require.Len(t, all, 3)
	assert.Equal(t, 2, c.evaluateCalls, "the image is never evaluated")

	byID := map[string]Verdict{}
	for _, v := range all {
		byID[v.CandidateID.String()] = v
	}
	image := byID[second.CandidateID.String()]
	assert.Equal(t, 0, image.Score)
	assert.False(t, image.Accepted)
	assert.Contains(t, image.Rationale, "not a resume")

	assert.Equal(t, 100, byID[first.CandidateID.String()].Score)
	assert.Equal(t, 0, byID[third.CandidateID.String()].Score)
	assert.Equal(t, 0, result.Failures)
}

func TestRun_GoKubernetesScenario(t *testing.T) {
	strong := applicant("ana@example.com", "r1")
	notResume := applicant("bo@example.com", "r2")
	jd := newJD([]string{"Go", "Kubernetes"}, strong, notResume)

	f := newFakeFetcher().
		addText("r1", "Five years of Go and Kubernetes operators").
		addText("r2", "Certificate of completion")
	c := &mockClassifier{
		ExtractFunc: func(_ context.Context, doc *fetch.Document) (*Extraction, error) {
			if doc.Ref == "r2" {
				return &Extraction{IsResume: false, Content: "The document is a certificate."}, nil
			}
			return &Extraction{IsResume: true, Content: doc.Text}, nil
		},
		EvaluateFunc: keywordScorer,
	}

	result, err := NewOrchestrator(f, c).Run(context.Background(), jd)
	require.NoError(t, err)

	require.Len(t, result.Filtered, 1)
	assert.Equal(t, strong.CandidateID, result.Filtered[0].CandidateID)
	assert.GreaterOrEqual(t, result.Filtered[0].Score, AcceptanceThreshold)

	require.Len(t, result.Unfiltered, 1)
	assert.Equal(t, notResume.CandidateID, result.Unfiltered[0].CandidateID)
	assert.Equal(t, 0, result.Unfiltered[0].Score)
}

func TestRun_ThresholdPartition(t *testing.T) {
	scores := []float64{0, 59, 59.4, 59.5, 60, 61, 100}
	var records []types.ApplicationRecord
	f := newFakeFetcher()
	byResume := map[string]float64{}
	for i, s := range scores {
		ref := string(rune('a' + i))
		records = append(records, applicant(ref+"@example.com", ref))
		f.addText(ref, "resume "+ref)
		byResume["resume "+ref] = s
	}
	jd := newJD(nil, records...)

	c := &mockClassifier{
		EvaluateFunc: func(_ context.Context, req EvaluationRequest) (*Evaluation, error) {
			return &Evaluation{CandidateRef: req.CandidateRef, Score: byResume[req.ExtractedText], Explanation: "scored"}, nil
		},
	}

	result, err := NewOrchestrator(f, c).Run(context.Background(), jd)
	require.NoError(t, err)

	for _, v := range result.Filtered {
		assert.True(t, v.Accepted)
		assert.GreaterOrEqual(t, v.Score, AcceptanceThreshold)
	}
	for _, v := range result.Unfiltered {
		assert.False(t, v.Accepted)
		assert.Less(t, v.Score, AcceptanceThreshold)
	}
	assert.Len(t, result.Filtered, 4)
	assert.Len(t, result.Unfiltered, 3)

	inFiltered := map[string]bool{}
	for _, id := range verdictIDs(result.Filtered) {
		inFiltered[id.String()] = true
	}
	for _, id := range verdictIDs(result.Unfiltered) {
		assert.False(t, inFiltered[id.String()], "no candidate appears in both collections")
	}
}

func TestRun_PreservesRosterOrder(t *testing.T) {
	var records []types.ApplicationRecord
	f := newFakeFetcher()
	for _, ref := range []string{"a", "b", "c", "d"} {
		records = append(records, applicant(ref+"@example.com", ref))
		f.addText(ref, "Go")
	}
	jd := newJD([]string{"Go"}, records...)

	result, err := NewOrchestrator(f, &mockClassifier{EvaluateFunc: keywordScorer}).Run(context.Background(), jd)
	require.NoError(t, err)

	got := verdictIDs(result.Filtered)
	require.Len(t, got, 4)
	for i, rec := range records {
		assert.Equal(t, rec.CandidateID, got[i])
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, f.calls)
}

func TestRun_ZeroApplicants(t *testing.T) {
	c := &mockClassifier{}
	result, err := NewOrchestrator(newFakeFetcher(), c).Run(context.Background(), newJD([]string{"Go"}))
	require.NoError(t, err)
	assert.NotNil(t, result.Filtered)
	assert.NotNil(t, result.Unfiltered)
	assert.Empty(t, result.Filtered)
	assert.Empty(t, result.Unfiltered)
	assert.Equal(t, 0, c.extractCalls)
}

func TestRun_PerCandidateFailuresAreUnfiltered(t *testing.T) {
	fetchFails := applicant("a@example.com", "missing")
	evalFails := applicant("b@example.com", "r2")
	healthy := applicant("c@example.com", "r3")
	jd := newJD([]string{"Go"}, fetchFails, evalFails, healthy)

	f := newFakeFetcher().addText("r2", "broken").addText("r3", "Go")
	c := &mockClassifier{
		EvaluateFunc: func(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
			if req.ExtractedText == "broken" {
				return nil, &ClassifierError{Stage: StageEvaluation, Message: "malformed classifier response"}
			}
			return keywordScorer(ctx, req)
		},
	}

	result, err := NewOrchestrator(f, c).Run(context.Background(), jd)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failures)

	require.Len(t, result.Filtered, 1)
	assert.Equal(t, healthy.CandidateID, result.Filtered[0].CandidateID)

	require.Len(t, result.Unfiltered, 2)
	for _, v := range result.Unfiltered {
		assert.Equal(t, 0, v.Score)
		assert.Contains(t, v.Rationale, "Automatic screening failed")
	}
}

func TestRun_ReconcilesEmailEcho(t *testing.T) {
	ana := applicant("Ana@Example.com", "r1")
	jd := newJD([]string{"Go"}, ana)

	f := newFakeFetcher().addText("r1", "Go")
	c := &mockClassifier{
		EvaluateFunc: func(context.Context, EvaluationRequest) (*Evaluation, error) {
			return &Evaluation{CandidateRef: "ana@example.com", Score: 90, Explanation: "Great."}, nil
		},
	}

	result, err := NewOrchestrator(f, c).Run(context.Background(), jd)
	require.NoError(t, err)
	require.Len(t, result.Filtered, 1)
	assert.Equal(t, ana.CandidateID, result.Filtered[0].CandidateID)
	assert.Empty(t, result.Misses)
}

func TestRun_UnknownEchoIsDroppedWithWarning(t *testing.T) {
	ana := applicant("ana@example.com", "r1")
	bo := applicant("bo@example.com", "r2")
	jd := newJD([]string{"Go"}, ana, bo)

	f := newFakeFetcher().addText("r1", "Go").addText("r2", "Go")
	c := &mockClassifier{
		EvaluateFunc: func(_ context.Context, req EvaluationRequest) (*Evaluation, error) {
			if req.CandidateRef == ana.CandidateID.String() {
				return &Evaluation{CandidateRef: "stranger@example.com", Score: 90, Explanation: "Great."}, nil
			}
			return &Evaluation{CandidateRef: req.CandidateRef, Score: 90, Explanation: "Great."}, nil
		},
	}

	core, logs := observer.New(zapcore.WarnLevel)
	result, err := NewOrchestrator(f, c, WithLogger(zap.New(core))).Run(context.Background(), jd)
	require.NoError(t, err)

	require.Len(t, result.Filtered, 1)
	assert.Equal(t, bo.CandidateID, result.Filtered[0].CandidateID)
	require.Len(t, result.Misses, 1)
	assert.Equal(t, "stranger@example.com", result.Misses[0].Ref)
	assert.Equal(t, 1, logs.FilterMessage("reconciliation miss").Len())
}

func TestRun_DuplicateEchoKeepsFirstVerdict(t *testing.T) {
	ana := applicant("ana@example.com", "r1")
	bo := applicant("bo@example.com", "r2")
	jd := newJD([]string{"Go"}, ana, bo)

	f := newFakeFetcher().addText("r1", "Go").addText("r2", "Go")
	c := &mockClassifier{
		EvaluateFunc: func(context.Context, EvaluationRequest) (*Evaluation, error) {
			return &Evaluation{CandidateRef: "ana@example.com", Score: 75, Explanation: "Echoes the wrong person."}, nil
		},
	}

	result, err := NewOrchestrator(f, c).Run(context.Background(), jd)
	require.NoError(t, err)
	require.Len(t, result.Filtered, 1)
	assert.Equal(t, ana.CandidateID, result.Filtered[0].CandidateID)
	require.Len(t, result.Misses, 1)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	jd := newJD([]string{"Go"}, applicant("a@example.com", "r1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &mockClassifier{}
	_, err := NewOrchestrator(newFakeFetcher().addText("r1", "Go"), c).Run(ctx, jd)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.extractCalls)
}

func TestRun_CancelledMidRunStopsLaunching(t *testing.T) {
	jd := newJD([]string{"Go"},
		applicant("a@example.com", "r1"),
		applicant("b@example.com", "r2"),
		applicant("c@example.com", "r3"))
	f := newFakeFetcher().addText("r1", "Go").addText("r2", "Go").addText("r3", "Go")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &mockClassifier{
		EvaluateFunc: func(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
			cancel()
			return nil, ctx.Err()
		},
	}

	_, err := NewOrchestrator(f, c).Run(ctx, jd)
	assert.ErrorIs(t, err, ErrRunCancelled)
	assert.Equal(t, 1, c.evaluateCalls)
	assert.Equal(t, []string{"r1"}, f.calls)
}

func TestRun_UsesExtractionCache(t *testing.T) {
	jd := newJD([]string{"Go"}, applicant("a@example.com", "r1"))
	f := newFakeFetcher().addText("r1", "Go")
	c := &mockClassifier{}
	o := NewOrchestrator(f, c, WithExtractionCache(cache.NewMemory(), time.Hour))

	_, err := o.Run(context.Background(), jd)
	require.NoError(t, err)
	_, err = o.Run(context.Background(), jd)
	require.NoError(t, err)

	assert.Equal(t, 1, c.extractCalls)
	assert.Equal(t, 2, c.evaluateCalls)
}

func TestRun_ClassifierErrorsDoNotEscape(t *testing.T) {
	jd := newJD([]string{"Go"}, applicant("a@example.com", "r1"))
	c := &mockClassifier{
		ExtractFunc: func(context.Context, *fetch.Document) (*Extraction, error) {
			return nil, errors.New("upstream 503")
		},
	}
	result, err := NewOrchestrator(newFakeFetcher().addText("r1", "Go"), c).Run(context.Background(), jd)
	require.NoError(t, err)
	require.Len(t, result.Unfiltered, 1)
	assert.Contains(t, result.Unfiltered[0].Rationale, "upstream 503")
}
