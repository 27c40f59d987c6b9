package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
)

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("screening did not finish in time")
	}
}

func newTestRunner(t *testing.T, scorer Scorer) (Runner, repositories.ScreeningRepository) {
	t.Helper()

	repo := repositories.NewMemoryScreeningRepository()
	runner := NewRunner(repo, NewEvaluator(scorer, 2, nil), 2, nil)
	runner.Start(t.Context())
	t.Cleanup(runner.Stop)
	return runner, repo
}

func TestRunnerCompletesScreening(t *testing.T) {
	t.Parallel()

	runner, repo := newTestRunner(t, &stubScorer{})

	screening, err := runner.Submit(&Submission{
		JobDescription: "Backend Engineer",
		Documents:      []models.Document{doc("jane-doe.pdf"), doc("john_smith.pdf"), {FileName: ""}},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if screening.Status != models.StatusQueued || screening.Total != 3 || screening.Scorer != "stub" {
		t.Fatalf("unexpected queued screening: %+v", screening)
	}

	waitDone(t, runner.Done(screening.ID))

	stored, err := repo.FindByID(screening.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.Status != models.StatusCompleted || stored.Progress() != 100 {
		t.Fatalf("unexpected final state: status=%s progress=%d", stored.Status, stored.Progress())
	}

	batch := stored.Batch()
	if len(batch.Candidates) != 2 || len(batch.Failures) != 1 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if batch.Candidates[0].DisplayName != "jane doe" || batch.Candidates[1].DisplayName != "john smith" {
		t.Fatalf("batch order not preserved: %+v", batch.Candidates)
	}
}

func TestRunnerRecordsFailure(t *testing.T) {
	t.Parallel()

	repo := repositories.NewMemoryScreeningRepository()
	runner := NewRunner(repo, failingEvaluator{}, 1, nil)
	runner.Start(t.Context())
	t.Cleanup(runner.Stop)

	screening, err := runner.Submit(&Submission{JobDescription: "Role", Documents: []models.Document{doc("a.pdf")}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitDone(t, runner.Done(screening.ID))

	stored, _ := repo.FindByID(screening.ID)
	if stored.Status != models.StatusFailed || stored.ErrorMessage != "scoring backend down" {
		t.Fatalf("unexpected state: %+v", stored)
	}
}

func TestRunnerCancelDiscardsPartialResults(t *testing.T) {
	t.Parallel()

	scorer := &stubScorer{block: make(chan struct{})}
	runner, repo := newTestRunner(t, scorer)

	screening, err := runner.Submit(&Submission{
		JobDescription: "Role",
		Documents:      []models.Document{doc("a.pdf"), doc("b.pdf"), doc("c.pdf")},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deadline := time.After(5 * time.Second)
	for scorer.active.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("evaluation never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if !runner.Cancel(screening.ID) {
		t.Fatalf("Cancel() reported screening as inactive")
	}
	waitDone(t, runner.Done(screening.ID))

	stored, err := repo.FindByID(screening.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.Status != models.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", stored.Status)
	}
	if len(stored.Candidates) != 0 {
		t.Fatalf("cancelled screening kept %d candidates", len(stored.Candidates))
	}

	if runner.Cancel(screening.ID) {
		t.Fatalf("second Cancel() should report inactive")
	}
}

func TestRunnerCancelUnknown(t *testing.T) {
	t.Parallel()

	runner, _ := newTestRunner(t, &stubScorer{})
	if runner.Cancel(uuid.New()) {
		t.Fatalf("Cancel() of unknown screening reported active")
	}
	waitDone(t, runner.Done(uuid.New()))
}

func TestRunnerStartFailsStaleScreenings(t *testing.T) {
	t.Parallel()

	repo := repositories.NewMemoryScreeningRepository()
	stale := &models.Screening{JobDescription: "Role", Status: models.StatusProcessing, Total: 2}
	if err := repo.Create(stale); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	runner := NewRunner(repo, NewEvaluator(&stubScorer{}, 1, nil), 1, nil)
	runner.Start(t.Context())
	t.Cleanup(runner.Stop)

	stored, _ := repo.FindByID(stale.ID)
	if stored.Status != models.StatusFailed || stored.ErrorMessage != interruptedMessage {
		t.Fatalf("stale screening not failed: %+v", stored)
	}
}

func TestRunnerSubmitAfterStop(t *testing.T) {
	t.Parallel()

	runner := NewRunner(repositories.NewMemoryScreeningRepository(), NewEvaluator(&stubScorer{}, 1, nil), 1, nil)
	runner.Start(t.Context())
	runner.Stop()

	_, err := runner.Submit(&Submission{JobDescription: "Role", Documents: []models.Document{doc("a.pdf")}})
	if !errors.Is(err, ErrRunnerStopped) {
		t.Fatalf("expected ErrRunnerStopped, got %v", err)
	}
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(context.Context, string, []models.Document, ProgressFunc) (*models.EvaluationBatch, error) {
	return nil, errors.New("scoring backend down")
}

func (failingEvaluator) ScorerName() string { return "failing" }
