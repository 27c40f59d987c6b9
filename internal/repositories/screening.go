package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/cv-screener/internal/models"
)

var ErrNotFound = errors.New("screening not found")

type ScreeningRepository interface {
	Create(screening *models.Screening) error
	FindByID(id uuid.UUID) (*models.Screening, error)
	UpdateStatus(id uuid.UUID, status models.ScreeningStatus) error
	UpdateProgress(id uuid.UUID, evaluated int) error
	SaveResult(id uuid.UUID, batch *models.EvaluationBatch) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindByStatus(statuses ...models.ScreeningStatus) ([]models.Screening, error)
	Delete(id uuid.UUID) error
}

type screeningRepository struct {
	db *gorm.DB
}

func NewScreeningRepository(db *gorm.DB) ScreeningRepository {
	return &screeningRepository{db: db}
}

func (r *screeningRepository) Create(screening *models.Screening) error {
	if screening.ID == uuid.Nil {
		screening.ID = uuid.New()
	}
	if err := r.db.Create(screening).Error; err != nil {
		return fmt.Errorf("failed to create screening: %w", err)
	}
	return nil
}

func (r *screeningRepository) FindByID(id uuid.UUID) (*models.Screening, error) {
	var screening models.Screening
	err := r.db.
		Preload("Candidates", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&screening).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find screening: %w", err)
	}
	return &screening, nil
}

func (r *screeningRepository) UpdateStatus(id uuid.UUID, status models.ScreeningStatus) error {
	return r.update(id, map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
}

func (r *screeningRepository) UpdateProgress(id uuid.UUID, evaluated int) error {
	return r.update(id, map[string]interface{}{
		"evaluated":  evaluated,
		"updated_at": time.Now(),
	})
}

// SaveResult stores the batch rows and marks the screening completed in one transaction.
func (r *screeningRepository) SaveResult(id uuid.UUID, batch *models.EvaluationBatch) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("screening_id = ?", id).Delete(&models.CandidateRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear candidates: %w", err)
		}

		if rows := models.NewCandidateRows(id, batch.Candidates); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to save candidates: %w", err)
			}
		}

		completedAt := batch.CreatedAt
		result := tx.Model(&models.Screening{ID: id}).
			Select("status", "scorer", "evaluated", "failures", "error_message", "completed_at", "updated_at").
			Updates(&models.Screening{
				Status:      models.StatusCompleted,
				Scorer:      batch.Scorer,
				Evaluated:   len(batch.Candidates) + len(batch.Failures),
				Failures:    batch.Failures,
				CompletedAt: &completedAt,
				UpdatedAt:   time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update result: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}

func (r *screeningRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	})
}

func (r *screeningRepository) FindByStatus(statuses ...models.ScreeningStatus) ([]models.Screening, error) {
	var screenings []models.Screening
	err := r.db.
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&screenings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find screenings: %w", err)
	}
	return screenings, nil
}

func (r *screeningRepository) Delete(id uuid.UUID) error {
	result := r.db.Select("Candidates").Delete(&models.Screening{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete screening: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (r *screeningRepository) update(id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.Model(&models.Screening{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update screening: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
