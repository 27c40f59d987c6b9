package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// Ingests screening rubrics (PDF or text) into the Qdrant collection used by
// the gemini scorer.
func main() {
	dir := flag.String("dir", "./rubrics", "directory with rubric documents")
	debug := flag.Bool("debug", false, "verbose/debug output")
	flag.Parse()

	log, err := logger.New(false, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating a logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.Load()
	if cfg.Qdrant.URL == "" {
		log.Fatal("QDRANT_URL is required for ingestion")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gemini, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
	if err != nil {
		log.Fatal("failed to initialize gemini", zap.Error(err))
	}

	store, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		log.Fatal("failed to initialize qdrant", zap.Error(err))
	}
	if err := store.InitCollection(ctx); err != nil {
		log.Fatal("failed to initialize collection", zap.Error(err))
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatal("failed to read rubric directory", zap.String("dir", *dir), zap.Error(err))
	}

	extractor := services.NewTextExtractor()
	chunker := services.NewTextChunker()

	successCount, failCount := 0, 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warn("ingestion interrupted")
			break
		}

		path := filepath.Join(*dir, entry.Name())
		fileLog := log.With(zap.String("file", path))

		content, err := os.ReadFile(path)
		if err != nil {
			fileLog.Error("failed to read file", zap.Error(err))
			failCount++
			continue
		}

		text, err := extractor.ExtractText(models.Document{FileName: entry.Name(), Content: content})
		if err != nil {
			fileLog.Warn("skipping file", zap.Error(err))
			failCount++
			continue
		}

		if err := store.DeleteSource(ctx, entry.Name()); err != nil {
			fileLog.Warn("failed to drop previous passages", zap.Error(err))
		}

		chunks := chunker.ChunkText(text, chunkSize, chunkOverlap)
		stored := 0
		for i, chunk := range chunks {
			embedding, err := gemini.GenerateEmbedding(ctx, chunk)
			if err != nil {
				fileLog.Error("failed to embed chunk", zap.Int("chunk", i), zap.Error(err))
				continue
			}

			passage := services.RubricPassage{
				Source: entry.Name(),
				Kind:   services.RubricKindScreening,
				Chunk:  i,
				Text:   chunk,
			}
			if err := store.UpsertPassage(ctx, passage, embedding); err != nil {
				fileLog.Error("failed to store chunk", zap.Int("chunk", i), zap.Error(err))
				continue
			}
			stored++
		}

		fileLog.Info("file ingested", zap.Int("chunks", len(chunks)), zap.Int("stored", stored))
		if stored == len(chunks) {
			successCount++
		} else {
			failCount++
		}
	}

	log.Info("ingestion summary",
		zap.Int("successful", successCount),
		zap.Int("failed", failCount),
		zap.String("collection", cfg.Qdrant.Collection),
		zap.String("dir", strings.TrimSpace(*dir)),
	)

	if failCount > 0 {
		os.Exit(1)
	}
}
