package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestScreeningProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    Screening
		want int
	}{
		{name: "no documents", s: Screening{Status: StatusQueued}, want: 0},
		{name: "partial", s: Screening{Status: StatusProcessing, Total: 3, Evaluated: 1}, want: 33},
		{name: "completed", s: Screening{Status: StatusCompleted, Total: 3, Evaluated: 2}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.s.Progress(); got != tt.want {
				t.Fatalf("Progress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCandidateRowsRoundTripOrder(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	records := []CandidateRecord{
		{ID: 2, DisplayName: "b", Score: 90},
		{ID: 1, DisplayName: "a", Score: 70, RedFlags: []string{"gap"}},
	}

	rows := NewCandidateRows(id, records)
	if rows[0].Position != 0 || rows[1].Position != 1 || rows[0].ScreeningID != id {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	completedAt := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	s := Screening{JobDescription: "Role", Candidates: rows, CompletedAt: &completedAt}
	batch := s.Batch()

	if batch.Candidates[0].ID != 2 || batch.Candidates[1].ID != 1 {
		t.Fatalf("order not preserved: %+v", batch.Candidates)
	}
	if batch.Candidates[0].RedFlags == nil || len(batch.Candidates[0].RedFlags) != 0 {
		t.Fatalf("nil red flags should become an empty list")
	}
	if !batch.CreatedAt.Equal(completedAt) {
		t.Fatalf("CreatedAt = %v, want %v", batch.CreatedAt, completedAt)
	}
}
