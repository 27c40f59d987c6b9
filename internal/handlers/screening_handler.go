package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

const (
	jobDescriptionField = "job_description"
	filesField          = "files"
)

type ScreeningHandler struct {
	repo         repositories.ScreeningRepository
	runner       services.Runner
	maxDocuments int
	maxFileSize  int64
	logger       *zap.Logger
}

func NewScreeningHandler(
	repo repositories.ScreeningRepository,
	runner services.Runner,
	maxDocuments int,
	maxFileSize int64,
	log *zap.Logger,
) *ScreeningHandler {
	return &ScreeningHandler{
		repo:         repo,
		runner:       runner,
		maxDocuments: maxDocuments,
		maxFileSize:  maxFileSize,
		logger:       logger.OrNop(log),
	}
}

// HandleCreate handles POST /screenings
func (h *ScreeningHandler) HandleCreate(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	intake := services.NewIntake(h.maxDocuments, h.maxFileSize, h.logger)
	if values := form.Value[jobDescriptionField]; len(values) > 0 {
		intake.SetJobDescription(values[0])
	}

	docs, err := h.readDocuments(form.File[filesField])
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	accepted := intake.Accept(docs)

	submission, err := intake.Submit()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	screening, err := h.runner.Submit(submission)
	if err != nil {
		if errors.Is(err, services.ErrRunnerStopped) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "server is shutting down",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to queue screening: %v", err),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(models.CreateScreeningResponse{
		ID:       screening.ID.String(),
		Status:   string(screening.Status),
		Accepted: accepted.Accepted,
		Rejected: accepted.Rejected + accepted.Truncated,
	})
}

// HandleDelete handles DELETE /screenings/:id
func (h *ScreeningHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid screening ID format",
		})
	}

	cancelled := h.runner.Cancel(id)

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Screening not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.logger.Info("screening discarded", zap.String("id", id.String()), zap.Bool("cancelled", cancelled))
	return c.SendStatus(fiber.StatusNoContent)
}

// readDocuments keeps the part order. Oversized parts are not read; intake
// rejects them on their declared size.
func (h *ScreeningHandler) readDocuments(files []*multipart.FileHeader) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(files))
	for _, fh := range files {
		doc := models.Document{
			FileName:  fh.Filename,
			MimeType:  fh.Header.Get(fiber.HeaderContentType),
			SizeBytes: fh.Size,
		}

		if fh.Size <= h.maxFileSize {
			content, err := readPart(fh)
			if err != nil {
				return nil, err
			}
			doc.Content = content
		}

		docs = append(docs, doc)
	}
	return docs, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file %s: %w", fh.Filename, err)
	}
	return content, nil
}
