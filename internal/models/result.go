package models

import "time"

type CreateScreeningResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
}

type ScreeningResponse struct {
	ID           string           `json:"id"`
	Status       string           `json:"status"`
	Progress     int              `json:"progress"`
	Result       *ScreeningResult `json:"result,omitempty"`
	ErrorMessage *string          `json:"error_message,omitempty"`
}

type ScreeningResult struct {
	RoleTitle  string            `json:"role_title"`
	Summary    BatchSummary      `json:"summary"`
	Candidates []RankedCandidate `json:"candidates"`
	Failures   []DocumentFailure `json:"failures,omitempty"`
	Scorer     string            `json:"scorer"`
	CreatedAt  time.Time         `json:"created_at"`
}

type RankedCandidate struct {
	Rank int    `json:"rank"`
	Band string `json:"band"`
	CandidateRecord
}

type SheetsExportRequest struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
	Tab           string `json:"tab" validate:"omitempty,max=100"`
}

type SheetsExportResponse struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	Tab           string `json:"tab"`
	RowsWritten   int    `json:"rows_written"`
}
