package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
)

const (
	qdrantGRPCPort      = 6334
	embeddingVectorSize = 768

	payloadSourceKey = "source"
	payloadKindKey   = "kind"
	payloadTextKey   = "text"
	payloadChunkKey  = "chunk"
)

// RubricStore keeps screening guidance passages (rubrics, role profiles) as
// embedded chunks for retrieval at scoring time.
type RubricStore interface {
	InitCollection(ctx context.Context) error
	UpsertPassage(ctx context.Context, passage RubricPassage, embedding []float32) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, kind string, limit int) ([]SearchResult, error)
	DeleteSource(ctx context.Context, source string) error
}

type RubricPassage struct {
	Source string
	Kind   string
	Chunk  int
	Text   string
}

type SearchResult struct {
	Source string
	Kind   string
	Score  float32
	Text   string
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	logger         *zap.Logger
}

func NewQdrantService(urlStr, apiKey, collectionName string, log *zap.Logger) (RubricStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid Qdrant URL: missing host in %q", urlStr)
	}

	// The go client speaks gRPC, so the REST port is never the default.
	port := qdrantGRPCPort
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     embeddingVectorSize,
		logger:         logger.OrNop(log),
	}, nil
}

// InitCollection implements RubricStore.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		q.logger.Debug("qdrant collection exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.logger.Info("qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// UpsertPassage implements RubricStore. Point IDs are derived from source and
// chunk so re-ingesting a file replaces its passages.
func (q *qdrantService) UpsertPassage(ctx context.Context, passage RubricPassage, embedding []float32) error {
	pointID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(passage.Source+"#"+strconv.Itoa(passage.Chunk)))

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(pointID.String()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			payloadSourceKey: passage.Source,
			payloadKindKey:   passage.Kind,
			payloadChunkKey:  int64(passage.Chunk),
			payloadTextKey:   passage.Text,
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SearchSimilar implements RubricStore.
func (q *qdrantService) SearchSimilar(ctx context.Context, queryEmbedding []float32, kind string, limit int) ([]SearchResult, error) {
	var filter *qdrant.Filter
	if kind != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(payloadKindKey, kind),
			},
		}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		results = append(results, SearchResult{
			Source: payloadString(payload, payloadSourceKey),
			Kind:   payloadString(payload, payloadKindKey),
			Score:  point.Score,
			Text:   payloadString(payload, payloadTextKey),
		})
	}

	return results, nil
}

// DeleteSource implements RubricStore.
func (q *qdrantService) DeleteSource(ctx context.Context, source string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(payloadSourceKey, source),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete passages of %s: %w", source, err)
	}

	return nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}
