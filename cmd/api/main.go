package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/handlers"
	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/repositories"
	"alfredoptarigan/cv-screener/internal/services"
)

const multipartOverhead = 1 << 20

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env == "production", cfg.Server.Env == "development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	log.Info("config loaded", zap.String("env", cfg.Server.Env), zap.String("store", cfg.Database.Driver))

	repo, err := newScreeningRepository(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize screening store", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scorer, err := services.NewScorer(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize scorer", zap.Error(err))
	}
	log.Info("scorer initialized", zap.String("scorer", scorer.Name()))

	evaluator := services.NewEvaluator(scorer, cfg.Worker.Concurrency, log)

	runner := services.NewRunner(repo, evaluator, cfg.Worker.Concurrency, log)
	runner.Start(ctx)

	var sheetsExporter *services.SheetsExporter
	if cfg.Sheets.CredentialsPath != "" {
		client, err := services.NewSheetsClient(ctx, cfg.Sheets.CredentialsPath)
		if err != nil {
			log.Fatal("failed to initialize Google Sheets", zap.Error(err))
		}
		sheetsExporter = services.NewSheetsExporter(client, cfg.Export.DateLayout, log)
		log.Info("google sheets export enabled")
	}

	screeningHandler := handlers.NewScreeningHandler(repo, runner, cfg.Intake.MaxDocuments, cfg.Storage.MaxFileSize, log)
	resultHandler := handlers.NewResultHandler(repo)
	exportHandler := handlers.NewExportHandler(repo, sheetsExporter, cfg.Export.DateLayout, log)

	app := fiber.New(fiber.Config{
		AppName:      "CV Screener API",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize)*cfg.Intake.MaxDocuments + multipartOverhead,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Disposition",
	}))

	handlers.RegisterRoutes(app.Group("/api/v1"), screeningHandler, resultHandler, exportHandler)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "CV Screener API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/screenings",
				"GET /api/v1/screenings/:id",
				"DELETE /api/v1/screenings/:id",
				"GET /api/v1/screenings/:id/export",
				"POST /api/v1/screenings/:id/sheets",
			},
		})
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		runner.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func newScreeningRepository(cfg *config.Config, log *zap.Logger) (repositories.ScreeningRepository, error) {
	if cfg.Database.Driver != "postgres" {
		return repositories.NewMemoryScreeningRepository(), nil
	}

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	return repositories.NewScreeningRepository(db), nil
}
