package services

import (
	"context"
	"fmt"
	"time"

	"alfredoptarigan/cv-screener/internal/models"
)

// ScoringInput is what a Scorer gets to see for one candidate.
type ScoringInput struct {
	JobDescription string
	DisplayName    string
	Document       models.Document
}

// Assessment is the scorer-specific part of a candidate record. Identity
// fields are filled in by the Evaluator.
type Assessment struct {
	Score              int
	MatchPercentage    int
	Overview           string
	Qualifications     []string
	RedFlags           []string
	Strengths          []string
	InterviewQuestions []string
}

// Scorer turns one document into an Assessment. Implementations must be
// safe for concurrent use.
type Scorer interface {
	Name() string
	Score(ctx context.Context, in ScoringInput) (*Assessment, error)
}

// OverviewFor renders the banded narrative used when a scorer does not
// produce its own.
func OverviewFor(displayName string, score int) string {
	alignment, competencies, closing := "adequate", "solid", "May require additional evaluation."
	switch {
	case score >= 80:
		alignment, competencies, closing = "excellent", "exceptional", "Highly recommended for interview."
	case score >= 70:
		alignment, closing = "strong", "Good candidate worth considering."
	}

	return fmt.Sprintf(
		"%s demonstrates %s alignment with the role requirements. Shows %s technical competencies and relevant experience. %s",
		displayName, alignment, competencies, closing,
	)
}

func clampPercent(v int) int {
	return min(max(v, 0), 100)
}

// waitFor blocks for d or until ctx is done.
func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
