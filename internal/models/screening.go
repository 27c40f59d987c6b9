package models

import (
	"time"

	"github.com/google/uuid"
)

type ScreeningStatus string

const (
	StatusQueued     ScreeningStatus = "queued"
	StatusProcessing ScreeningStatus = "processing"
	StatusCompleted  ScreeningStatus = "completed"
	StatusFailed     ScreeningStatus = "failed"
	StatusCancelled  ScreeningStatus = "cancelled"
)

// Screening tracks one submitted analysis and, once completed, its batch.
type Screening struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	JobDescription string            `gorm:"type:text" json:"job_description"`
	Status         ScreeningStatus   `gorm:"not null;default:'queued'" json:"status"`
	Scorer         string            `gorm:"type:text" json:"scorer"`
	Total          int               `gorm:"not null;default:0" json:"total"`
	Evaluated      int               `gorm:"not null;default:0" json:"evaluated"`
	Failures       []DocumentFailure `gorm:"serializer:json" json:"failures,omitempty"`
	ErrorMessage   string            `gorm:"type:text" json:"error_message,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	CreatedAt      time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Candidates []CandidateRow `gorm:"foreignKey:ScreeningID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Screening) TableName() string {
	return "screenings"
}

// CandidateRow is the persisted form of a CandidateRecord.
type CandidateRow struct {
	RowID              uint      `gorm:"primaryKey;autoIncrement"`
	ScreeningID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Position           int       `gorm:"not null"`
	CandidateID        int       `gorm:"not null"`
	DisplayName        string    `gorm:"type:text"`
	ContactHandle      string    `gorm:"type:text"`
	Score              int
	MatchPercentage    int
	Overview           string   `gorm:"type:text"`
	Qualifications     []string `gorm:"serializer:json"`
	RedFlags           []string `gorm:"serializer:json"`
	Strengths          []string `gorm:"serializer:json"`
	InterviewQuestions []string `gorm:"serializer:json"`
	SourceFileName     string   `gorm:"type:text"`
}

func (CandidateRow) TableName() string {
	return "screening_candidates"
}

// Progress returns the evaluated share of the screening as a whole percentage.
func (s *Screening) Progress() int {
	if s.Status == StatusCompleted {
		return 100
	}
	if s.Total <= 0 {
		return 0
	}
	return s.Evaluated * 100 / s.Total
}

// Batch rebuilds the evaluation batch of a completed screening.
func (s *Screening) Batch() *EvaluationBatch {
	candidates := make([]CandidateRecord, 0, len(s.Candidates))
	for _, row := range s.Candidates {
		candidates = append(candidates, row.Record())
	}

	createdAt := s.UpdatedAt
	if s.CompletedAt != nil {
		createdAt = *s.CompletedAt
	}

	return &EvaluationBatch{
		JobDescription: s.JobDescription,
		Candidates:     candidates,
		Failures:       s.Failures,
		Scorer:         s.Scorer,
		CreatedAt:      createdAt,
	}
}

// NewCandidateRows converts batch records into rows; position follows batch order.
func NewCandidateRows(screeningID uuid.UUID, records []CandidateRecord) []CandidateRow {
	rows := make([]CandidateRow, 0, len(records))
	for i, r := range records {
		rows = append(rows, CandidateRow{
			ScreeningID:        screeningID,
			Position:           i,
			CandidateID:        r.ID,
			DisplayName:        r.DisplayName,
			ContactHandle:      r.ContactHandle,
			Score:              r.Score,
			MatchPercentage:    r.MatchPercentage,
			Overview:           r.Overview,
			Qualifications:     r.Qualifications,
			RedFlags:           r.RedFlags,
			Strengths:          r.Strengths,
			InterviewQuestions: r.InterviewQuestions,
			SourceFileName:     r.SourceFileName,
		})
	}
	return rows
}

func (r CandidateRow) Record() CandidateRecord {
	redFlags := r.RedFlags
	if redFlags == nil {
		redFlags = []string{}
	}
	return CandidateRecord{
		ID:                 r.CandidateID,
		DisplayName:        r.DisplayName,
		ContactHandle:      r.ContactHandle,
		Score:              r.Score,
		MatchPercentage:    r.MatchPercentage,
		Overview:           r.Overview,
		Qualifications:     r.Qualifications,
		RedFlags:           redFlags,
		Strengths:          r.Strengths,
		InterviewQuestions: r.InterviewQuestions,
		SourceFileName:     r.SourceFileName,
	}
}
