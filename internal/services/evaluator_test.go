package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"alfredoptarigan/cv-screener/internal/models"
)

type stubScorer struct {
	score  func(in ScoringInput) (*Assessment, error)
	block  chan struct{}
	calls  atomic.Int64
	active atomic.Int64
	peak   atomic.Int64
}

func (s *stubScorer) Name() string { return "stub" }

func (s *stubScorer) Score(ctx context.Context, in ScoringInput) (*Assessment, error) {
	s.calls.Add(1)
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.score != nil {
		return s.score(in)
	}
	return fullAssessment(len(in.DisplayName)), nil
}

func fullAssessment(score int) *Assessment {
	return &Assessment{
		Score:              score,
		MatchPercentage:    80,
		Qualifications:     []string{"4+ years of relevant experience"},
		Strengths:          []string{"Problem-solving abilities"},
		InterviewQuestions: []string{"Describe a complex problem you solved and your approach."},
	}
}

func TestEvaluatePreservesOrder(t *testing.T) {
	t.Parallel()

	docs := make([]models.Document, 0, 20)
	for i := 0; i < 20; i++ {
		docs = append(docs, doc(fmt.Sprintf("candidate-%02d.pdf", i)))
	}

	scorer := &stubScorer{score: func(in ScoringInput) (*Assessment, error) {
		// Later documents finish first.
		var idx int
		fmt.Sscanf(in.DisplayName, "candidate %d", &idx)
		time.Sleep(time.Duration(20-idx) * time.Millisecond)
		return fullAssessment(70), nil
	}}

	batch, err := NewEvaluator(scorer, 5, nil).Evaluate(t.Context(), "Backend Engineer", docs, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(batch.Candidates) != len(docs) {
		t.Fatalf("expected %d candidates, got %d", len(docs), len(batch.Candidates))
	}
	for i, c := range batch.Candidates {
		if c.SourceFileName != docs[i].FileName {
			t.Fatalf("candidate %d source = %q, want %q", i, c.SourceFileName, docs[i].FileName)
		}
		if c.ID != i+1 {
			t.Fatalf("candidate %d id = %d, want %d", i, c.ID, i+1)
		}
	}
	if batch.JobDescription != "Backend Engineer" || batch.Scorer != "stub" {
		t.Fatalf("unexpected batch metadata: %+v", batch)
	}
}

func TestEvaluateRespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	docs := make([]models.Document, 0, 12)
	for i := 0; i < 12; i++ {
		docs = append(docs, doc(fmt.Sprintf("c%d.pdf", i)))
	}

	scorer := &stubScorer{score: func(ScoringInput) (*Assessment, error) {
		time.Sleep(5 * time.Millisecond)
		return fullAssessment(70), nil
	}}

	if _, err := NewEvaluator(scorer, 3, nil).Evaluate(t.Context(), "Role", docs, nil); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if peak := scorer.peak.Load(); peak > 3 {
		t.Fatalf("peak concurrency = %d, want <= 3", peak)
	}
	if calls := scorer.calls.Load(); calls != 12 {
		t.Fatalf("scorer calls = %d, want 12", calls)
	}
}

func TestEvaluateClampsAndFillsRecord(t *testing.T) {
	t.Parallel()

	scorer := &stubScorer{score: func(ScoringInput) (*Assessment, error) {
		a := fullAssessment(140)
		a.MatchPercentage = -5
		a.Qualifications = []string{" ", "Bachelor's degree in related field"}
		return a, nil
	}}

	batch, err := NewEvaluator(scorer, 1, nil).Evaluate(t.Context(), "Role", []models.Document{doc("Jane_Doe.pdf")}, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	c := batch.Candidates[0]
	if c.Score != 100 || c.MatchPercentage != 0 {
		t.Fatalf("scores not clamped: score=%d match=%d", c.Score, c.MatchPercentage)
	}
	if c.DisplayName != "Jane Doe" || c.ContactHandle != "jane.doe@email.com" {
		t.Fatalf("unexpected identity: %q %q", c.DisplayName, c.ContactHandle)
	}
	if c.Overview != OverviewFor("Jane Doe", 100) {
		t.Fatalf("overview not filled: %q", c.Overview)
	}
	if len(c.Qualifications) != 1 {
		t.Fatalf("blank qualifications kept: %v", c.Qualifications)
	}
	if c.RedFlags == nil || len(c.RedFlags) != 0 {
		t.Fatalf("expected empty, non-nil red flags, got %#v", c.RedFlags)
	}
}

func TestEvaluateRecordsDocumentFailures(t *testing.T) {
	t.Parallel()

	docs := []models.Document{
		doc("alice.pdf"),
		{FileName: "", SizeBytes: 10},
		doc("bob.pdf"),
		doc("broken.pdf"),
		doc("carol.pdf"),
	}

	scorer := &stubScorer{score: func(in ScoringInput) (*Assessment, error) {
		switch in.DisplayName {
		case "broken":
			return nil, errors.New("model unavailable")
		case "carol":
			a := fullAssessment(70)
			a.InterviewQuestions = nil
			return a, nil
		}
		return fullAssessment(75), nil
	}}

	batch, err := NewEvaluator(scorer, 2, nil).Evaluate(t.Context(), "Role", docs, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(batch.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(batch.Candidates))
	}
	if batch.Candidates[0].DisplayName != "alice" || batch.Candidates[1].DisplayName != "bob" {
		t.Fatalf("unexpected candidates: %+v", batch.Candidates)
	}
	if batch.Candidates[0].ID != 1 || batch.Candidates[1].ID != 3 {
		t.Fatalf("ids should follow document position, got %d and %d", batch.Candidates[0].ID, batch.Candidates[1].ID)
	}

	if len(batch.Failures) != 3 {
		t.Fatalf("expected 3 failures, got %+v", batch.Failures)
	}
	wantPositions := []int{1, 3, 4}
	for i, f := range batch.Failures {
		if f.Position != wantPositions[i] || f.Reason == "" {
			t.Fatalf("failure %d = %+v", i, f)
		}
	}
}

func TestEvaluateReportsProgress(t *testing.T) {
	t.Parallel()

	docs := []models.Document{doc("a.pdf"), doc("b.pdf"), {FileName: ""}, doc("c.pdf")}

	var mu sync.Mutex
	var seen []int
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != len(docs) {
			t.Errorf("progress total = %d", total)
		}
		seen = append(seen, done)
	}

	if _, err := NewEvaluator(&stubScorer{}, 2, nil).Evaluate(t.Context(), "Role", docs, progress); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(seen) != len(docs) {
		t.Fatalf("expected %d progress calls, got %v", len(docs), seen)
	}
	maxSeen := 0
	for _, n := range seen {
		maxSeen = max(maxSeen, n)
	}
	if maxSeen != len(docs) {
		t.Fatalf("progress never reached %d: %v", len(docs), seen)
	}
}

func TestEvaluateCancellationDiscardsBatch(t *testing.T) {
	t.Parallel()

	scorer := &stubScorer{block: make(chan struct{})}
	ctx, cancel := context.WithCancel(t.Context())

	type outcome struct {
		batch *models.EvaluationBatch
		err   error
	}
	result := make(chan outcome, 1)
	go func() {
		batch, err := NewEvaluator(scorer, 2, nil).Evaluate(ctx, "Role", []models.Document{doc("a.pdf"), doc("b.pdf"), doc("c.pdf")}, nil)
		result <- outcome{batch, err}
	}()

	deadline := time.After(2 * time.Second)
	for scorer.active.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("scorer never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()

	select {
	case out := <-result:
		if !errors.Is(out.err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", out.err)
		}
		if out.batch != nil {
			t.Fatalf("expected no batch after cancellation, got %+v", out.batch)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Evaluate did not return after cancellation")
	}
}

func TestEvaluateEmptyInput(t *testing.T) {
	t.Parallel()

	batch, err := NewEvaluator(&stubScorer{}, 2, nil).Evaluate(t.Context(), "Role", nil, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(batch.Candidates) != 0 || len(batch.Failures) != 0 {
		t.Fatalf("expected empty batch, got %+v", batch)
	}
}
