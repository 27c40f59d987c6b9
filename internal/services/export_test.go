package services

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"alfredoptarigan/cv-screener/internal/models"
)

var exportDate = time.Date(2026, 3, 7, 10, 30, 0, 0, time.UTC)

func TestSerializeCSVExactOutput(t *testing.T) {
	t.Parallel()

	ranked := []models.CandidateRecord{
		{
			ID:                 2,
			DisplayName:        "john smith",
			ContactHandle:      "john.smith@email.com",
			Score:              91,
			Overview:           `Says "hello" often`,
			Qualifications:     []string{"7+ years of relevant experience", "Bachelor's degree in related field"},
			RedFlags:           []string{"Gap in employment history"},
			InterviewQuestions: []string{"Why Go?", "Why now?"},
		},
		{
			ID:                 1,
			DisplayName:        "jane doe",
			ContactHandle:      "jane.doe@email.com",
			Score:              64,
			Overview:           "Solid, steady",
			Qualifications:     []string{"3+ years of relevant experience"},
			RedFlags:           []string{},
			InterviewQuestions: []string{"Tell me about yourself."},
		},
	}

	got, err := SerializeCSV("Senior Backend Engineer. Requires 5+ years Go experience.", ranked, exportDate, "")
	if err != nil {
		t.Fatalf("SerializeCSV() error = %v", err)
	}

	want := strings.Join([]string{
		`"Role: Senior Backend Engineer"`,
		`"Total Candidates: 2"`,
		`"Export Date: 3/7/2026"`,
		``,
		`Ranking,Candidate Name,Email Address,Rating Score (%),Overview,Qualifications,Red Flags,Suggested Interview Questions`,
		`1,"john smith","john.smith@email.com",91,"Says ""hello"" often","7+ years of relevant experience; Bachelor's degree in related field","Gap in employment history","Why Go?; Why now?"`,
		`2,"jane doe","jane.doe@email.com",64,"Solid, steady","3+ years of relevant experience","None identified","Tell me about yourself."`,
	}, "\n")

	if string(got) != want {
		t.Fatalf("unexpected CSV\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSerializeCSVShapeAndReparse(t *testing.T) {
	t.Parallel()

	ranked := Rank([]models.CandidateRecord{
		candidate(1, "alice", 70),
		candidate(2, "bob", 95, "Missing required experience", "Gap in employment history"),
		candidate(3, "carol", 82),
	})
	ranked[1].Overview = "Line one\nline two with \"quotes\", commas"

	data, err := SerializeCSV("Data Engineer", ranked, exportDate, DefaultExportDateLayout)
	if err != nil {
		t.Fatalf("SerializeCSV() error = %v", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("csv reparse failed: %v", err)
	}

	// encoding/csv skips the blank separator line.
	if len(records) != 3+1+len(ranked) {
		t.Fatalf("expected %d records, got %d", 3+1+len(ranked), len(records))
	}
	if records[0][0] != "Role: Data Engineer" || records[1][0] != "Total Candidates: 3" {
		t.Fatalf("unexpected metadata: %v", records[:3])
	}
	if strings.Join(records[3], ",") != strings.Join(ExportColumns, ",") {
		t.Fatalf("unexpected header: %v", records[3])
	}

	rows := records[4:]
	for i, row := range rows {
		if len(row) != len(ExportColumns) {
			t.Fatalf("row %d has %d fields", i, len(row))
		}
		if row[1] != ranked[i].DisplayName {
			t.Fatalf("row %d name = %q, want %q", i, row[1], ranked[i].DisplayName)
		}
		if row[0] != []string{"1", "2", "3"}[i] {
			t.Fatalf("row %d ranking = %q", i, row[0])
		}
	}

	if rows[1][4] != ranked[1].Overview {
		t.Fatalf("escaped overview did not survive: %q", rows[1][4])
	}
	if rows[0][6] != "Missing required experience; Gap in employment history" {
		t.Fatalf("red flags = %q", rows[0][6])
	}
	if rows[2][6] != "None identified" {
		t.Fatalf("empty red flags = %q", rows[2][6])
	}
}

func TestSerializeCSVLineCount(t *testing.T) {
	t.Parallel()

	ranked := []models.CandidateRecord{candidate(1, "a", 70), candidate(2, "b", 80)}
	data, err := SerializeCSV("Role", ranked, exportDate, "")
	if err != nil {
		t.Fatalf("SerializeCSV() error = %v", err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) != 3+1+1+len(ranked) {
		t.Fatalf("expected %d lines, got %d", 3+1+1+len(ranked), len(lines))
	}
	if lines[3] != "" {
		t.Fatalf("expected blank separator, got %q", lines[3])
	}
	if strings.HasSuffix(string(data), "\n") {
		t.Fatalf("unexpected trailing newline")
	}
}

func TestSerializeCSVRefusesEmptyBatch(t *testing.T) {
	t.Parallel()

	data, err := SerializeCSV("Role", nil, exportDate, "")
	if !errors.Is(err, ErrExportFailure) {
		t.Fatalf("expected ErrExportFailure, got %v", err)
	}
	if data != nil {
		t.Fatalf("expected no data, got %q", data)
	}
}

func TestSerializeCSVRefusesNamelessCandidate(t *testing.T) {
	t.Parallel()

	_, err := SerializeCSV("Role", []models.CandidateRecord{candidate(1, " ", 70)}, exportDate, "")
	if !errors.Is(err, ErrExportFailure) {
		t.Fatalf("expected ErrExportFailure, got %v", err)
	}
}

func TestSerializeCSVDateLayout(t *testing.T) {
	t.Parallel()

	data, err := SerializeCSV("Role", []models.CandidateRecord{candidate(1, "a", 70)}, exportDate, "02.01.2006")
	if err != nil {
		t.Fatalf("SerializeCSV() error = %v", err)
	}
	if !strings.Contains(string(data), `"Export Date: 07.03.2026"`) {
		t.Fatalf("custom date layout not applied:\n%s", data)
	}
}

func TestExportTableValues(t *testing.T) {
	t.Parallel()

	table, err := BuildExportTable("Role", []models.CandidateRecord{candidate(1, "a", 70)}, exportDate, "")
	if err != nil {
		t.Fatalf("BuildExportTable() error = %v", err)
	}

	values := table.Values()
	if len(values) != 6 {
		t.Fatalf("expected 6 value rows, got %d", len(values))
	}
	if len(values[3]) != 0 {
		t.Fatalf("expected empty separator row, got %v", values[3])
	}
	if values[4][0] != "Ranking" || values[5][0] != 1 || values[5][3] != 70 || values[5][6] != "None identified" {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestExampleScenario(t *testing.T) {
	t.Parallel()

	job := "Senior Backend Engineer. Requires 5+ years Go experience."
	in := NewIntake(0, 0, nil)
	in.SetJobDescription(job)
	in.Accept([]models.Document{doc("jane-doe.pdf"), doc("john_smith.pdf")})

	sub, err := in.Submit()
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	scorer, err := NewReferenceScorer(DefaultReferenceScorerConfig())
	if err != nil {
		t.Fatalf("NewReferenceScorer() error = %v", err)
	}

	batch, err := NewEvaluator(scorer, 2, nil).Evaluate(t.Context(), sub.JobDescription, sub.Documents, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if len(batch.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(batch.Candidates))
	}
	if batch.Candidates[0].DisplayName != "jane doe" || batch.Candidates[1].DisplayName != "john smith" {
		t.Fatalf("unexpected names: %q, %q", batch.Candidates[0].DisplayName, batch.Candidates[1].DisplayName)
	}

	data, err := SerializeCSV(job, Rank(batch.Candidates), exportDate, "")
	if err != nil {
		t.Fatalf("SerializeCSV() error = %v", err)
	}
	if !strings.HasPrefix(string(data), `"Role: Senior Backend Engineer"`) {
		t.Fatalf("unexpected role line: %s", strings.SplitN(string(data), "\n", 2)[0])
	}
	if got := ExportFileName(job, exportDate); got != "senior-backend-engineer-candidate-analysis-2026-03-07.csv" {
		t.Fatalf("ExportFileName() = %q", got)
	}
}
