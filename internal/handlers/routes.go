package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the screening API on router.
func RegisterRoutes(router fiber.Router, screenings *ScreeningHandler, results *ResultHandler, exports *ExportHandler) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	router.Post("/screenings", screenings.HandleCreate)
	router.Get("/screenings/:id", results.HandleGetResult)
	router.Delete("/screenings/:id", screenings.HandleDelete)
	router.Get("/screenings/:id/export", exports.HandleExportCSV)
	router.Post("/screenings/:id/sheets", exports.HandleExportSheets)
}

// ErrorHandler renders unhandled errors as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
