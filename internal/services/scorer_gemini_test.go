package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"alfredoptarigan/cv-screener/internal/models"
)

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (g *stubGenerator) GenerateTextWithRetry(_ context.Context, prompt string, _ float32, _ int) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

type stubExtractor struct {
	text string
	err  error
}

func (e stubExtractor) ExtractText(models.Document) (string, error) { return e.text, e.err }

type stubRetriever struct {
	results []SearchResult
	err     error
}

func (r stubRetriever) Retrieve(context.Context, string) ([]SearchResult, error) {
	return r.results, r.err
}

const assessmentReply = "```json\n" + `{
  "score": 87.6,
  "match_percentage": 120,
  "overview": "  Solid backend profile.  ",
  "qualifications": ["Go", "PostgreSQL"],
  "red_flags": [],
  "strengths": ["Ownership"],
  "interview_questions": ["How do you size a worker pool?"]
}` + "\n```"

func TestGeminiScorerScore(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{reply: assessmentReply}
	scorer := NewGeminiScorer(gen, stubExtractor{text: "Ten years of Go."}, stubRetriever{
		results: []SearchResult{{Source: "backend.md", Score: 0.91, Text: "Probe concurrency experience."}},
	}, 1, nil)

	in := ScoringInput{
		JobDescription: "Senior Backend Engineer\nWe build APIs.",
		DisplayName:    "jane doe",
		Document:       models.Document{FileName: "jane-doe.pdf"},
	}

	a, err := scorer.Score(t.Context(), in)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if a.Score != 88 || a.MatchPercentage != 100 {
		t.Fatalf("unexpected figures: score=%d match=%d", a.Score, a.MatchPercentage)
	}
	if a.Overview != "Solid backend profile." {
		t.Fatalf("unexpected overview %q", a.Overview)
	}
	if len(a.Qualifications) != 2 || len(a.RedFlags) != 0 {
		t.Fatalf("unexpected lists: %+v", a)
	}

	for _, want := range []string{"Senior Backend Engineer", "jane doe", "Ten years of Go.", "Probe concurrency experience."} {
		if !strings.Contains(gen.prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestGeminiScorerRetrievalFailureDegrades(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{reply: assessmentReply}
	scorer := NewGeminiScorer(gen, stubExtractor{text: "resume"}, stubRetriever{err: errors.New("qdrant down")}, 1, nil)

	if _, err := scorer.Score(t.Context(), ScoringInput{JobDescription: "Role", DisplayName: "x"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if !strings.Contains(gen.prompt, noRubricContext) {
		t.Fatalf("prompt should fall back to %q", noRubricContext)
	}
}

func TestGeminiScorerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extractor stubExtractor
		gen       *stubGenerator
		wantErr   error
	}{
		{
			name:      "unsupported document",
			extractor: stubExtractor{err: ErrUnsupportedFormat},
			gen:       &stubGenerator{reply: assessmentReply},
			wantErr:   ErrUnsupportedFormat,
		},
		{
			name:      "generator failure",
			extractor: stubExtractor{text: "resume"},
			gen:       &stubGenerator{err: context.DeadlineExceeded},
			wantErr:   context.DeadlineExceeded,
		},
		{
			name:      "malformed reply",
			extractor: stubExtractor{text: "resume"},
			gen:       &stubGenerator{reply: "I cannot assess this candidate."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scorer := NewGeminiScorer(tt.gen, tt.extractor, nil, 1, nil)
			_, err := scorer.Score(t.Context(), ScoringInput{DisplayName: "x", Document: models.Document{FileName: "x.pdf"}})
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding prose", in: "Here you go: {\"a\":{\"b\":2}} hope it helps", want: `{"a":{"b":2}}`},
		{name: "no object", in: "  nothing  ", want: "nothing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := extractJSON(tt.in); got != tt.want {
				t.Fatalf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAssessmentClamps(t *testing.T) {
	t.Parallel()

	a, err := parseAssessment(`{"score": -4, "match_percentage": 42.4}`)
	if err != nil {
		t.Fatalf("parseAssessment() error = %v", err)
	}
	if a.Score != 0 || a.MatchPercentage != 42 {
		t.Fatalf("unexpected figures: %+v", a)
	}
}
