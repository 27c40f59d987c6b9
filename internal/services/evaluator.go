package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
)

// ProgressFunc is called after each document finishes, possibly from several
// goroutines at once.
type ProgressFunc func(done, total int)

type Evaluator struct {
	scorer      Scorer
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

func NewEvaluator(scorer Scorer, concurrency int, log *zap.Logger) *Evaluator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Evaluator{
		scorer:      scorer,
		concurrency: concurrency,
		logger:      logger.OrNop(log),
		now:         time.Now,
	}
}

func (e *Evaluator) ScorerName() string {
	return e.scorer.Name()
}

// Evaluate produces one record per usable document, in input order. Documents
// that cannot be identified or scored end up in the batch failures instead.
// When ctx is cancelled the whole batch is discarded and ctx's error returned.
func (e *Evaluator) Evaluate(ctx context.Context, jobDescription string, docs []models.Document, progress ProgressFunc) (*models.EvaluationBatch, error) {
	records := make([]*models.CandidateRecord, len(docs))
	failures := make([]*models.DocumentFailure, len(docs))

	var done atomic.Int64
	report := func() {
		n := int(done.Add(1))
		if progress != nil {
			progress(n, len(docs))
		}
	}

	e.logger.Info("evaluation started",
		zap.String("scorer", e.scorer.Name()),
		zap.Int("documents", len(docs)),
		zap.Int("concurrency", e.concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			record, err := e.evaluateOne(gctx, jobDescription, i, doc)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("document skipped",
					zap.Int("position", i),
					zap.String("file", doc.FileName),
					zap.Error(err),
				)
				failures[i] = &models.DocumentFailure{Position: i, FileName: doc.FileName, Reason: err.Error()}
				report()
				return nil
			}

			records[i] = record
			report()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Info("evaluation abandoned", zap.Error(err))
		return nil, fmt.Errorf("evaluation cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation cancelled: %w", err)
	}

	batch := &models.EvaluationBatch{
		JobDescription: jobDescription,
		Candidates:     make([]models.CandidateRecord, 0, len(docs)),
		Scorer:         e.scorer.Name(),
		CreatedAt:      e.now(),
	}
	for i := range docs {
		if records[i] != nil {
			batch.Candidates = append(batch.Candidates, *records[i])
		}
		if failures[i] != nil {
			batch.Failures = append(batch.Failures, *failures[i])
		}
	}

	e.logger.Info("evaluation completed",
		zap.Int("candidates", len(batch.Candidates)),
		zap.Int("failures", len(batch.Failures)),
	)

	return batch, nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, jobDescription string, position int, doc models.Document) (*models.CandidateRecord, error) {
	if strings.TrimSpace(doc.FileName) == "" {
		return nil, fmt.Errorf("%w: document at position %d has no file name", ErrInvalidDocument, position)
	}

	name := DisplayName(doc.FileName)
	if name == "" {
		return nil, fmt.Errorf("%w: no display name derivable from %q", ErrInvalidDocument, doc.FileName)
	}

	assessment, err := e.scorer.Score(ctx, ScoringInput{
		JobDescription: jobDescription,
		DisplayName:    name,
		Document:       doc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to score %s: %w", doc.FileName, err)
	}
	if assessment == nil {
		return nil, fmt.Errorf("%w: scorer returned nothing for %s", ErrIncompleteRecord, doc.FileName)
	}

	return buildRecord(position+1, name, doc.FileName, assessment)
}

func buildRecord(id int, name, fileName string, a *Assessment) (*models.CandidateRecord, error) {
	qualifications := nonBlank(a.Qualifications)
	strengths := nonBlank(a.Strengths)
	questions := nonBlank(a.InterviewQuestions)

	switch {
	case len(qualifications) == 0:
		return nil, fmt.Errorf("%w: no qualifications for %s", ErrIncompleteRecord, fileName)
	case len(strengths) == 0:
		return nil, fmt.Errorf("%w: no strengths for %s", ErrIncompleteRecord, fileName)
	case len(questions) == 0:
		return nil, fmt.Errorf("%w: no interview questions for %s", ErrIncompleteRecord, fileName)
	}

	score := clampPercent(a.Score)
	overview := strings.TrimSpace(a.Overview)
	if overview == "" {
		overview = OverviewFor(name, score)
	}

	return &models.CandidateRecord{
		ID:                 id,
		DisplayName:        name,
		ContactHandle:      ContactHandle(name),
		Score:              score,
		MatchPercentage:    clampPercent(a.MatchPercentage),
		Overview:           overview,
		Qualifications:     qualifications,
		RedFlags:           nonBlank(a.RedFlags),
		Strengths:          strengths,
		InterviewQuestions: questions,
		SourceFileName:     fileName,
	}, nil
}

// nonBlank returns a fresh slice of the trimmed, non-empty entries of items.
func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// IsDocumentFailure reports whether err only affects a single document.
func IsDocumentFailure(err error) bool {
	return errors.Is(err, ErrInvalidDocument) || errors.Is(err, ErrIncompleteRecord)
}
