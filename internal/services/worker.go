package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
)

const (
	defaultQueueSize = 100

	interruptedMessage = "interrupted before completion"
	shutdownMessage    = "interrupted by shutdown"
)

var ErrRunnerStopped = errors.New("runner stopped")

// Runner evaluates submissions in the background. Each screening moves from
// queued to processing and ends completed, failed or cancelled.
type Runner interface {
	Start(ctx context.Context)
	Stop()
	Submit(sub *Submission) (*models.Screening, error)
	// Cancel abandons a queued or running screening. It reports whether the
	// screening was still active.
	Cancel(id uuid.UUID) bool
	// Done is closed once the screening reaches a terminal status.
	Done(id uuid.UUID) <-chan struct{}
}

type batchEvaluator interface {
	Evaluate(ctx context.Context, jobDescription string, docs []models.Document, progress ProgressFunc) (*models.EvaluationBatch, error)
	ScorerName() string
}

type job struct {
	id         uuid.UUID
	submission *Submission
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}

	mu        sync.Mutex
	cancelled bool
	evaluated int
}

type worker struct {
	repo        repositories.ScreeningRepository
	evaluator   batchEvaluator
	jobQueue    chan *job
	concurrency int
	logger      *zap.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once

	mu         sync.Mutex
	baseCtx    context.Context
	baseCancel context.CancelFunc
	jobs       map[uuid.UUID]*job
}

func NewRunner(
	repo repositories.ScreeningRepository,
	evaluator batchEvaluator,
	concurrency int,
	log *zap.Logger,
) Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &worker{
		repo:        repo,
		evaluator:   evaluator,
		jobQueue:    make(chan *job, defaultQueueSize),
		concurrency: concurrency,
		logger:      logger.OrNop(log),
		stopChan:    make(chan struct{}),
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
		jobs:        make(map[uuid.UUID]*job),
	}
}

// Start implements Runner. Screenings left queued or processing by a previous
// process cannot be resumed because their documents were never stored; they
// are marked failed.
func (w *worker) Start(ctx context.Context) {
	w.mu.Lock()
	w.baseCtx, w.baseCancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.failStale()

	w.logger.Info("starting runner", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(i + 1)
	}
}

// Stop implements Runner.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("stopping runner")
		close(w.stopChan)

		w.mu.Lock()
		w.baseCancel()
		w.mu.Unlock()

		w.wg.Wait()

		for {
			select {
			case j := <-w.jobQueue:
				w.finish(j, w.interrupted(j))
			default:
				w.logger.Info("runner stopped")
				return
			}
		}
	})
}

// Submit implements Runner.
func (w *worker) Submit(sub *Submission) (*models.Screening, error) {
	select {
	case <-w.stopChan:
		return nil, ErrRunnerStopped
	default:
	}

	screening := &models.Screening{
		ID:             uuid.New(),
		JobDescription: sub.JobDescription,
		Status:         models.StatusQueued,
		Scorer:         w.evaluator.ScorerName(),
		Total:          len(sub.Documents),
	}
	if err := w.repo.Create(screening); err != nil {
		return nil, err
	}

	w.mu.Lock()
	ctx, cancel := context.WithCancel(w.baseCtx)
	j := &job{
		id:         screening.ID,
		submission: sub,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	w.jobs[j.id] = j
	w.mu.Unlock()

	select {
	case w.jobQueue <- j:
		w.logger.Info("screening enqueued", zap.String("id", j.id.String()), zap.Int("documents", screening.Total))
		return screening, nil
	case <-w.stopChan:
		w.finish(j, w.interrupted(j))
		return nil, ErrRunnerStopped
	}
}

// Cancel implements Runner.
func (w *worker) Cancel(id uuid.UUID) bool {
	w.mu.Lock()
	j, ok := w.jobs[id]
	w.mu.Unlock()
	if !ok {
		return false
	}

	j.mu.Lock()
	if j.cancelled {
		j.mu.Unlock()
		return false
	}
	j.cancelled = true
	j.mu.Unlock()

	j.cancel()
	if err := w.repo.UpdateStatus(id, models.StatusCancelled); err != nil {
		w.logger.Warn("failed to mark screening cancelled", zap.String("id", id.String()), zap.Error(err))
	}

	w.logger.Info("screening cancelled", zap.String("id", id.String()))
	return true
}

// Done implements Runner. Unknown or finished screenings get a closed channel.
func (w *worker) Done(id uuid.UUID) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	if j, ok := w.jobs[id]; ok {
		return j.done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

func (w *worker) processJobs(workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case j := <-w.jobQueue:
			w.process(workerID, j)
		}
	}
}

func (w *worker) process(workerID int, j *job) {
	log := w.logger.With(zap.Int("worker", workerID), zap.String("id", j.id.String()))

	if j.ctx.Err() != nil {
		w.finish(j, w.interrupted(j))
		return
	}

	if err := w.repo.UpdateStatus(j.id, models.StatusProcessing); err != nil {
		log.Error("failed to mark screening processing", zap.Error(err))
		w.finish(j, nil)
		return
	}

	log.Info("processing screening")

	batch, err := w.evaluator.Evaluate(j.ctx, j.submission.JobDescription, j.submission.Documents, func(done, _ int) {
		w.reportProgress(j, done)
	})
	if err != nil {
		if j.ctx.Err() != nil {
			log.Info("screening abandoned", zap.Error(err))
			w.finish(j, w.interrupted(j))
			return
		}
		log.Error("screening failed", zap.Error(err))
		w.finish(j, func() error { return w.repo.UpdateError(j.id, err.Error()) })
		return
	}

	w.finish(j, func() error { return w.repo.SaveResult(j.id, batch) })
	log.Info("screening completed", zap.Int("candidates", len(batch.Candidates)), zap.Int("failures", len(batch.Failures)))
}

// interrupted records a screening stopped by shutdown. User cancellations are
// recorded by Cancel, and finish skips the write for them.
func (w *worker) interrupted(j *job) func() error {
	return func() error {
		return w.repo.UpdateError(j.id, shutdownMessage)
	}
}

func (w *worker) reportProgress(j *job, done int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancelled || done <= j.evaluated {
		return
	}
	j.evaluated = done
	if err := w.repo.UpdateProgress(j.id, done); err != nil {
		w.logger.Warn("failed to update progress", zap.String("id", j.id.String()), zap.Error(err))
	}
}

// finish runs the terminal write unless the screening was cancelled, then
// releases waiters.
func (w *worker) finish(j *job, write func() error) {
	j.mu.Lock()
	if !j.cancelled && write != nil {
		if err := write(); err != nil {
			w.logger.Error("failed to record screening outcome", zap.String("id", j.id.String()), zap.Error(err))
		}
	}
	j.cancelled = true
	j.mu.Unlock()

	j.cancel()

	w.mu.Lock()
	delete(w.jobs, j.id)
	w.mu.Unlock()

	close(j.done)
}

func (w *worker) failStale() {
	stale, err := w.repo.FindByStatus(models.StatusQueued, models.StatusProcessing)
	if err != nil {
		w.logger.Warn("failed to fetch stale screenings", zap.Error(err))
		return
	}

	for _, s := range stale {
		w.mu.Lock()
		_, active := w.jobs[s.ID]
		w.mu.Unlock()
		if active {
			continue
		}
		if err := w.repo.UpdateError(s.ID, interruptedMessage); err != nil {
			w.logger.Warn("failed to fail stale screening", zap.String("id", s.ID.String()), zap.Error(err))
		}
	}

	if len(stale) > 0 {
		w.logger.Info("stale screenings marked failed", zap.Int("count", len(stale)))
	}
}
