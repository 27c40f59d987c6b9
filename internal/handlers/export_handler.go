package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

type ExportHandler struct {
	repo       repositories.ScreeningRepository
	sheets     *services.SheetsExporter
	validate   *validator.Validate
	dateLayout string
	now        func() time.Time
	logger     *zap.Logger
}

// NewExportHandler builds the export endpoints. sheets may be nil when no
// Google credentials are configured.
func NewExportHandler(
	repo repositories.ScreeningRepository,
	sheets *services.SheetsExporter,
	dateLayout string,
	log *zap.Logger,
) *ExportHandler {
	return &ExportHandler{
		repo:       repo,
		sheets:     sheets,
		validate:   validator.New(),
		dateLayout: dateLayout,
		now:        time.Now,
		logger:     logger.OrNop(log),
	}
}

// HandleExportCSV handles GET /screenings/:id/export
func (h *ExportHandler) HandleExportCSV(c *fiber.Ctx) error {
	batch, status, err := h.completedBatch(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	at := h.now()
	data, err := services.SerializeCSV(batch.JobDescription, services.Rank(batch.Candidates), at, h.dateLayout)
	if err != nil {
		return c.Status(exportErrorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(services.ExportFileName(batch.JobDescription, at))
	return c.Send(data)
}

// HandleExportSheets handles POST /screenings/:id/sheets
func (h *ExportHandler) HandleExportSheets(c *fiber.Ctx) error {
	if h.sheets == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Google Sheets export is not configured",
		})
	}

	var req models.SheetsExportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("invalid request: %v", err),
		})
	}

	batch, status, err := h.completedBatch(c)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	resp, err := h.sheets.Export(c.UserContext(), req.SpreadsheetID, req.Tab, batch)
	if err != nil {
		if errors.Is(err, services.ErrExportFailure) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("sheets export failed", zap.String("spreadsheet_id", req.SpreadsheetID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(resp)
}

func (h *ExportHandler) completedBatch(c *fiber.Ctx) (*models.EvaluationBatch, int, error) {
	screening, status, err := findScreening(c, h.repo)
	if err != nil {
		return nil, status, err
	}

	if screening.Status != models.StatusCompleted {
		return nil, fiber.StatusConflict, fmt.Errorf("%w: status is %s", services.ErrBatchNotReady, screening.Status)
	}

	return screening.Batch(), fiber.StatusOK, nil
}

func exportErrorStatus(err error) int {
	if errors.Is(err, services.ErrExportFailure) {
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}
