package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

const ReferenceScorerName = "reference"

// ReferenceScorerConfig holds the placeholder parameters. Ranges are inclusive.
type ReferenceScorerConfig struct {
	ScoreMin           int
	ScoreMax           int
	MatchMin           int
	MatchMax           int
	RedFlagProbability float64
	// Seed makes the draws reproducible; zero picks a random seed.
	Seed int64
	// Delay simulates the time a real model would take per document.
	Delay time.Duration
}

func DefaultReferenceScorerConfig() ReferenceScorerConfig {
	return ReferenceScorerConfig{
		ScoreMin:           60,
		ScoreMax:           99,
		MatchMin:           70,
		MatchMax:           99,
		RedFlagProbability: 0.3,
	}
}

var (
	referenceRedFlags = []string{
		"Missing required experience",
		"Gap in employment history",
	}
	referenceStrengths = []string{
		"Strong technical background",
		"Relevant industry experience",
		"Good communication skills",
		"Problem-solving abilities",
	}
	referenceQuestions = []string{
		"Tell me about your experience with the technologies mentioned in your resume.",
		"How do you handle challenging projects with tight deadlines?",
		"What interests you most about this role and our company?",
		"Describe a complex problem you solved and your approach.",
	}
)

// ReferenceScorer is the stand-in scorer: it ignores document content and
// draws every figure at random within the configured ranges.
type ReferenceScorer struct {
	cfg ReferenceScorerConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewReferenceScorer(cfg ReferenceScorerConfig) (*ReferenceScorer, error) {
	if cfg.ScoreMin < 0 || cfg.ScoreMax > 100 || cfg.ScoreMin > cfg.ScoreMax {
		return nil, fmt.Errorf("invalid score range [%d,%d]", cfg.ScoreMin, cfg.ScoreMax)
	}
	if cfg.MatchMin < 0 || cfg.MatchMax > 100 || cfg.MatchMin > cfg.MatchMax {
		return nil, fmt.Errorf("invalid match range [%d,%d]", cfg.MatchMin, cfg.MatchMax)
	}
	if cfg.RedFlagProbability < 0 || cfg.RedFlagProbability > 1 {
		return nil, fmt.Errorf("invalid red flag probability %v", cfg.RedFlagProbability)
	}

	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &ReferenceScorer{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

func (s *ReferenceScorer) Name() string {
	return ReferenceScorerName
}

func (s *ReferenceScorer) Score(ctx context.Context, in ScoringInput) (*Assessment, error) {
	if err := waitFor(ctx, s.cfg.Delay); err != nil {
		return nil, err
	}

	s.mu.Lock()
	score := s.between(s.cfg.ScoreMin, s.cfg.ScoreMax)
	match := s.between(s.cfg.MatchMin, s.cfg.MatchMax)
	years := s.between(2, 9)
	flagged := s.rng.Float64() < s.cfg.RedFlagProbability
	s.mu.Unlock()

	redFlags := []string{}
	if flagged {
		redFlags = append(redFlags, referenceRedFlags...)
	}

	return &Assessment{
		Score:           score,
		MatchPercentage: match,
		Overview:        OverviewFor(in.DisplayName, score),
		Qualifications: []string{
			fmt.Sprintf("%d+ years of relevant experience", years),
			"Bachelor's degree in related field",
			"Strong technical skills in required technologies",
			"Proven track record of successful projects",
		},
		RedFlags:           redFlags,
		Strengths:          append([]string(nil), referenceStrengths...),
		InterviewQuestions: append([]string(nil), referenceQuestions...),
	}, nil
}

// between draws uniformly from [lo, hi]; callers hold s.mu.
func (s *ReferenceScorer) between(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}
