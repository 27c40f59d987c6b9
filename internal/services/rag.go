package services

import (
	"context"
	"fmt"
)

// RubricKindScreening tags passages that describe how to screen for a role.
const RubricKindScreening = "screening_rubric"

const defaultRubricResults = 3

type embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// RubricRetriever finds screening guidance relevant to a query.
type RubricRetriever interface {
	Retrieve(ctx context.Context, query string) ([]SearchResult, error)
}

type ragRetriever struct {
	embedder embedder
	store    RubricStore
	limit    int
}

func NewRubricRetriever(embedder embedder, store RubricStore, limit int) RubricRetriever {
	if limit <= 0 {
		limit = defaultRubricResults
	}
	return &ragRetriever{embedder: embedder, store: store, limit: limit}
}

// Retrieve implements RubricRetriever.
func (r *ragRetriever) Retrieve(ctx context.Context, query string) ([]SearchResult, error) {
	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.store.SearchSimilar(ctx, embedding, RubricKindScreening, r.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve rubric: %w", err)
	}

	return results, nil
}
