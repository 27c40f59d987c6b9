package repositories

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/models"
)

type memoryScreeningRepository struct {
	mu         sync.RWMutex
	screenings map[uuid.UUID]*models.Screening
	now        func() time.Time
}

// NewMemoryScreeningRepository keeps screenings for the lifetime of the process.
func NewMemoryScreeningRepository() ScreeningRepository {
	return &memoryScreeningRepository{
		screenings: make(map[uuid.UUID]*models.Screening),
		now:        time.Now,
	}
}

func (r *memoryScreeningRepository) Create(screening *models.Screening) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if screening.ID == uuid.Nil {
		screening.ID = uuid.New()
	}
	if _, ok := r.screenings[screening.ID]; ok {
		return fmt.Errorf("failed to create screening: duplicate id %s", screening.ID)
	}
	if screening.Status == "" {
		screening.Status = models.StatusQueued
	}
	now := r.now()
	screening.CreatedAt = now
	screening.UpdatedAt = now

	r.screenings[screening.ID] = cloneScreening(screening)
	return nil
}

func (r *memoryScreeningRepository) FindByID(id uuid.UUID) (*models.Screening, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.screenings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneScreening(s), nil
}

func (r *memoryScreeningRepository) UpdateStatus(id uuid.UUID, status models.ScreeningStatus) error {
	return r.modify(id, func(s *models.Screening) {
		s.Status = status
	})
}

func (r *memoryScreeningRepository) UpdateProgress(id uuid.UUID, evaluated int) error {
	return r.modify(id, func(s *models.Screening) {
		s.Evaluated = evaluated
	})
}

func (r *memoryScreeningRepository) SaveResult(id uuid.UUID, batch *models.EvaluationBatch) error {
	return r.modify(id, func(s *models.Screening) {
		completedAt := batch.CreatedAt
		s.Status = models.StatusCompleted
		s.Scorer = batch.Scorer
		s.Evaluated = len(batch.Candidates) + len(batch.Failures)
		s.Failures = slices.Clone(batch.Failures)
		s.ErrorMessage = ""
		s.CompletedAt = &completedAt
		s.Candidates = cloneRows(models.NewCandidateRows(id, batch.Candidates))
	})
}

func (r *memoryScreeningRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.modify(id, func(s *models.Screening) {
		s.Status = models.StatusFailed
		s.ErrorMessage = errorMsg
	})
}

func (r *memoryScreeningRepository) FindByStatus(statuses ...models.ScreeningStatus) ([]models.Screening, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Screening
	for _, s := range r.screenings {
		if slices.Contains(statuses, s.Status) {
			out = append(out, *cloneScreening(s))
		}
	}
	slices.SortFunc(out, func(a, b models.Screening) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (r *memoryScreeningRepository) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.screenings[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.screenings, id)
	return nil
}

func (r *memoryScreeningRepository) modify(id uuid.UUID, fn func(s *models.Screening)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.screenings[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(s)
	s.UpdatedAt = r.now()
	return nil
}

func cloneScreening(s *models.Screening) *models.Screening {
	c := *s
	c.Failures = slices.Clone(s.Failures)
	c.Candidates = cloneRows(s.Candidates)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func cloneRows(rows []models.CandidateRow) []models.CandidateRow {
	if rows == nil {
		return nil
	}
	out := make([]models.CandidateRow, len(rows))
	for i, row := range rows {
		row.Qualifications = slices.Clone(row.Qualifications)
		row.RedFlags = slices.Clone(row.RedFlags)
		row.Strengths = slices.Clone(row.Strengths)
		row.InterviewQuestions = slices.Clone(row.InterviewQuestions)
		out[i] = row
	}
	return out
}
