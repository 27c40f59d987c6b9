package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
)

const (
	GeminiScorerName = "gemini"

	geminiTemperature = 0.2
	maxResumeRunes    = 30000
	maxLogPreview     = 200
)

type textGenerator interface {
	GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error)
}

// GeminiScorer extracts the resume text and asks the model for an assessment.
// The rubric retriever is optional.
type GeminiScorer struct {
	generator  textGenerator
	extractor  TextExtractor
	retriever  RubricRetriever
	prompts    *PromptBuilder
	maxRetries int
	logger     *zap.Logger
}

func NewGeminiScorer(generator textGenerator, extractor TextExtractor, retriever RubricRetriever, maxRetries int, log *zap.Logger) *GeminiScorer {
	return &GeminiScorer{
		generator:  generator,
		extractor:  extractor,
		retriever:  retriever,
		prompts:    NewPromptBuilder(),
		maxRetries: maxRetries,
		logger:     logger.OrNop(log),
	}
}

func (g *GeminiScorer) Name() string {
	return GeminiScorerName
}

// Score implements Scorer.
func (g *GeminiScorer) Score(ctx context.Context, in ScoringInput) (*Assessment, error) {
	text, err := g.extractor.ExtractText(in.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", in.Document.FileName, err)
	}
	if utf8.RuneCountInString(text) > maxResumeRunes {
		text = string([]rune(text)[:maxResumeRunes])
	}

	roleTitle := RoleTitle(in.JobDescription)
	rubric := g.rubricFor(ctx, roleTitle)

	prompt := g.prompts.BuildCandidateScreeningPrompt(text, in.JobDescription, rubric, roleTitle, in.DisplayName)

	g.logger.Debug("gemini screening request",
		zap.String("file", in.Document.FileName),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := g.generator.GenerateTextWithRetry(ctx, prompt, geminiTemperature, g.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to assess %s: %w", in.Document.FileName, err)
	}

	g.logger.Debug("gemini screening response",
		zap.String("file", in.Document.FileName),
		zap.String("response_preview", logger.TruncateForLog(raw, maxLogPreview)),
	)

	return parseAssessment(raw)
}

func (g *GeminiScorer) rubricFor(ctx context.Context, roleTitle string) string {
	if g.retriever == nil {
		return noRubricContext
	}

	results, err := g.retriever.Retrieve(ctx, g.prompts.BuildRetrievalQuery(roleTitle))
	if err != nil {
		// Guidance is an enrichment; scoring proceeds without it.
		g.logger.Warn("rubric retrieval failed", zap.String("role", roleTitle), zap.Error(err))
		return noRubricContext
	}
	return FormatRAGContext(results)
}

type assessmentPayload struct {
	Score              float64  `json:"score"`
	MatchPercentage    float64  `json:"match_percentage"`
	Overview           string   `json:"overview"`
	Qualifications     []string `json:"qualifications"`
	RedFlags           []string `json:"red_flags"`
	Strengths          []string `json:"strengths"`
	InterviewQuestions []string `json:"interview_questions"`
}

func parseAssessment(raw string) (*Assessment, error) {
	var payload assessmentPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse assessment: %w", err)
	}

	return &Assessment{
		Score:              clampPercent(int(math.Round(payload.Score))),
		MatchPercentage:    clampPercent(int(math.Round(payload.MatchPercentage))),
		Overview:           strings.TrimSpace(payload.Overview),
		Qualifications:     payload.Qualifications,
		RedFlags:           payload.RedFlags,
		Strengths:          payload.Strengths,
		InterviewQuestions: payload.InterviewQuestions,
	}, nil
}

// extractJSON strips markdown fences and surrounding prose from a model reply.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}

	return strings.TrimSpace(text)
}
