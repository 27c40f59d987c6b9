package services

import (
	"fmt"
	"strings"
)

const noRubricContext = "No relevant context found."

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildCandidateScreeningPrompt asks for one candidate assessment as a JSON object.
func (pb *PromptBuilder) BuildCandidateScreeningPrompt(resumeText, jobDescription, rubric, roleTitle, candidateName string) string {
	return fmt.Sprintf(`You are an expert HR recruiter screening candidates for a %s position.

JOB DESCRIPTION:
%s

SCREENING GUIDANCE:
%s

CANDIDATE: %s

RESUME:
%s

Assess how well the candidate fits the job description. Base every statement on the resume text.

Return your response in the following JSON format:
{
  "score": <integer 0-100, overall suitability>,
  "match_percentage": <integer 0-100, share of stated requirements the resume covers>,
  "overview": "<2-3 sentences summarising the fit>",
  "qualifications": ["<qualification found in the resume>", ...],
  "red_flags": ["<concern>", ...],
  "strengths": ["<strength>", ...],
  "interview_questions": ["<question to ask this candidate>", ...]
}

Give at least one entry for qualifications, strengths and interview_questions. Use an empty red_flags list when there are no concerns.`,
		roleTitle, jobDescription, rubric, candidateName, resumeText)
}

// BuildRetrievalQuery creates the query used to look up screening guidance.
func (pb *PromptBuilder) BuildRetrievalQuery(roleTitle string) string {
	return fmt.Sprintf("Screening criteria, required qualifications and interview focus for %s", roleTitle)
}

// FormatRAGContext joins retrieved passages into a prompt section.
func FormatRAGContext(results []SearchResult) string {
	if len(results) == 0 {
		return noRubricContext
	}

	parts := make([]string, 0, len(results))
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Context %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
