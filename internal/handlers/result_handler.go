package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

type ResultHandler struct {
	repo repositories.ScreeningRepository
}

func NewResultHandler(repo repositories.ScreeningRepository) *ResultHandler {
	return &ResultHandler{
		repo: repo,
	}
}

// HandleGetResult handles GET /screenings/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	screening, status, err := findScreening(c, h.repo)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	response := models.ScreeningResponse{
		ID:       screening.ID.String(),
		Status:   string(screening.Status),
		Progress: screening.Progress(),
	}

	if screening.Status == models.StatusCompleted {
		response.Result = services.BuildResult(screening.Batch())
	}

	if screening.Status == models.StatusFailed && screening.ErrorMessage != "" {
		response.ErrorMessage = &screening.ErrorMessage
	}

	return c.JSON(response)
}

// findScreening resolves the :id param and maps lookup errors to a status code.
func findScreening(c *fiber.Ctx, repo repositories.ScreeningRepository) (*models.Screening, int, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.StatusBadRequest, errors.New("invalid screening ID format")
	}

	screening, err := repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fiber.StatusNotFound, errors.New("screening not found")
		}
		return nil, fiber.StatusInternalServerError, err
	}

	return screening, fiber.StatusOK, nil
}
