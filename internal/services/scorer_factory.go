package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/logger"
)

// NewScorer builds the scorer selected by cfg.Scoring.Scorer. The gemini
// scorer uses rubric retrieval only when a Qdrant URL is configured.
func NewScorer(ctx context.Context, cfg *config.Config, log *zap.Logger) (Scorer, error) {
	log = logger.OrNop(log)

	switch cfg.Scoring.Scorer {
	case "", ReferenceScorerName:
		return NewReferenceScorer(ReferenceScorerConfig{
			ScoreMin:           cfg.Scoring.ScoreMin,
			ScoreMax:           cfg.Scoring.ScoreMax,
			MatchMin:           cfg.Scoring.MatchMin,
			MatchMax:           cfg.Scoring.MatchMax,
			RedFlagProbability: cfg.Scoring.RedFlagProbability,
			Seed:               cfg.Scoring.Seed,
			Delay:              cfg.Scoring.Delay,
		})

	case GeminiScorerName:
		gemini, err := NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
		if err != nil {
			return nil, err
		}

		var retriever RubricRetriever
		if cfg.Qdrant.URL != "" {
			store, err := NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
			if err != nil {
				return nil, err
			}
			if err := store.InitCollection(ctx); err != nil {
				return nil, fmt.Errorf("failed to init rubric collection: %w", err)
			}
			retriever = NewRubricRetriever(gemini, store, defaultRubricResults)
			log.Info("rubric retrieval enabled", zap.String("collection", cfg.Qdrant.Collection))
		}

		return NewGeminiScorer(gemini, NewTextExtractor(), retriever, cfg.Worker.RetryMaxAttempts, log), nil

	default:
		return nil, fmt.Errorf("unknown scorer %q", cfg.Scoring.Scorer)
	}
}
