package models

import "time"

// CandidateRecord is the evaluated view of a single document.
type CandidateRecord struct {
	ID                 int      `json:"id"`
	DisplayName        string   `json:"name"`
	ContactHandle      string   `json:"email"`
	Score              int      `json:"score"`
	MatchPercentage    int      `json:"match_percentage"`
	Overview           string   `json:"overview"`
	Qualifications     []string `json:"qualifications"`
	RedFlags           []string `json:"red_flags"`
	Strengths          []string `json:"strengths"`
	InterviewQuestions []string `json:"interview_questions"`
	SourceFileName     string   `json:"file_name"`
}

// DocumentFailure records a document that could not be turned into a record.
type DocumentFailure struct {
	Position int    `json:"position"`
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// EvaluationBatch is the immutable output of one evaluation run. Candidates
// keep the order of the submitted documents.
type EvaluationBatch struct {
	JobDescription string            `json:"job_description"`
	Candidates     []CandidateRecord `json:"candidates"`
	Failures       []DocumentFailure `json:"failures,omitempty"`
	Scorer         string            `json:"scorer"`
	CreatedAt      time.Time         `json:"created_at"`
}

// BatchSummary holds the dashboard aggregates of a batch.
type BatchSummary struct {
	TotalCandidates       int `json:"total_candidates"`
	AverageScore          int `json:"average_score"`
	TopCandidateCount     int `json:"top_candidate_count"`
	FlaggedCandidateCount int `json:"flagged_candidate_count"`
}
