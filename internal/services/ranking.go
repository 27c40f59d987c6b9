package services

import (
	"cmp"
	"slices"

	"alfredoptarigan/cv-screener/internal/models"
)

// TopCandidateThreshold is the score from which a candidate counts as a top candidate.
const TopCandidateThreshold = 80

// Rank returns a copy of candidates ordered by descending score. Candidates
// with equal scores keep their relative input order.
func Rank(candidates []models.CandidateRecord) []models.CandidateRecord {
	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b models.CandidateRecord) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

// Summarize computes the dashboard aggregates. The result does not depend on
// the order of candidates.
func Summarize(candidates []models.CandidateRecord) models.BatchSummary {
	summary := models.BatchSummary{TotalCandidates: len(candidates)}
	if len(candidates) == 0 {
		return summary
	}

	total := 0
	for _, c := range candidates {
		total += c.Score
		if c.Score >= TopCandidateThreshold {
			summary.TopCandidateCount++
		}
		if len(c.RedFlags) > 0 {
			summary.FlaggedCandidateCount++
		}
	}

	// Half-up rounding on non-negative integers.
	summary.AverageScore = (2*total + len(candidates)) / (2 * len(candidates))
	return summary
}

// RankedView attaches the 1-based rank and score band to already ranked candidates.
func RankedView(ranked []models.CandidateRecord) []models.RankedCandidate {
	out := make([]models.RankedCandidate, 0, len(ranked))
	for i, c := range ranked {
		out = append(out, models.RankedCandidate{
			Rank:            i + 1,
			Band:            ScoreBand(c.Score),
			CandidateRecord: c,
		})
	}
	return out
}

// BuildResult assembles the dashboard payload for a completed batch.
func BuildResult(batch *models.EvaluationBatch) *models.ScreeningResult {
	ranked := Rank(batch.Candidates)
	return &models.ScreeningResult{
		RoleTitle:  RoleTitle(batch.JobDescription),
		Summary:    Summarize(batch.Candidates),
		Candidates: RankedView(ranked),
		Failures:   batch.Failures,
		Scorer:     batch.Scorer,
		CreatedAt:  batch.CreatedAt,
	}
}
