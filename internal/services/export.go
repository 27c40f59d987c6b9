package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"alfredoptarigan/cv-screener/internal/models"
)

const (
	listSeparator  = "; "
	noRedFlagsText = "None identified"

	// DefaultExportDateLayout renders the export date as month/day/year without padding.
	DefaultExportDateLayout = "1/2/2006"
)

// ExportColumns is the column header row of the CSV export, in order.
var ExportColumns = []string{
	"Ranking",
	"Candidate Name",
	"Email Address",
	"Rating Score (%)",
	"Overview",
	"Qualifications",
	"Red Flags",
	"Suggested Interview Questions",
}

// ExportRow is one ranked candidate flattened into export cells.
type ExportRow struct {
	Ranking            int
	Name               string
	Email              string
	Score              int
	Overview           string
	Qualifications     string
	RedFlags           string
	InterviewQuestions string
}

// ExportTable is the tabular form of a ranked batch, independent of the
// target format.
type ExportTable struct {
	RoleTitle  string
	Total      int
	ExportDate string
	Rows       []ExportRow
}

// BuildExportTable flattens ranked candidates. It refuses an empty batch
// rather than produce a file without rows.
func BuildExportTable(jobDescription string, ranked []models.CandidateRecord, at time.Time, dateLayout string) (*ExportTable, error) {
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: no candidates to export", ErrExportFailure)
	}
	if dateLayout == "" {
		dateLayout = DefaultExportDateLayout
	}

	table := &ExportTable{
		RoleTitle:  RoleTitle(jobDescription),
		Total:      len(ranked),
		ExportDate: at.Format(dateLayout),
		Rows:       make([]ExportRow, 0, len(ranked)),
	}

	for i, c := range ranked {
		if strings.TrimSpace(c.DisplayName) == "" {
			return nil, fmt.Errorf("%w: candidate at rank %d has no name", ErrExportFailure, i+1)
		}

		redFlags := noRedFlagsText
		if len(c.RedFlags) > 0 {
			redFlags = strings.Join(c.RedFlags, listSeparator)
		}

		table.Rows = append(table.Rows, ExportRow{
			Ranking:            i + 1,
			Name:               c.DisplayName,
			Email:              c.ContactHandle,
			Score:              c.Score,
			Overview:           c.Overview,
			Qualifications:     strings.Join(c.Qualifications, listSeparator),
			RedFlags:           redFlags,
			InterviewQuestions: strings.Join(c.InterviewQuestions, listSeparator),
		})
	}

	return table, nil
}

// Metadata returns the three lines preceding the column header.
func (t *ExportTable) Metadata() []string {
	return []string{
		"Role: " + t.RoleTitle,
		"Total Candidates: " + strconv.Itoa(t.Total),
		"Export Date: " + t.ExportDate,
	}
}

// CSV renders the table. Lines are joined with "\n" and there is no trailing
// newline. Text cells are always quoted; numeric cells never are.
func (t *ExportTable) CSV() []byte {
	lines := make([]string, 0, len(t.Rows)+5)
	for _, meta := range t.Metadata() {
		lines = append(lines, quoteField(meta))
	}
	lines = append(lines, "", strings.Join(ExportColumns, ","))

	for _, r := range t.Rows {
		lines = append(lines, strings.Join([]string{
			strconv.Itoa(r.Ranking),
			quoteField(r.Name),
			quoteField(r.Email),
			strconv.Itoa(r.Score),
			quoteField(r.Overview),
			quoteField(r.Qualifications),
			quoteField(r.RedFlags),
			quoteField(r.InterviewQuestions),
		}, ","))
	}

	return []byte(strings.Join(lines, "\n"))
}

// Values renders the table as spreadsheet cell values with the same layout as CSV.
func (t *ExportTable) Values() [][]interface{} {
	values := make([][]interface{}, 0, len(t.Rows)+5)
	for _, meta := range t.Metadata() {
		values = append(values, []interface{}{meta})
	}
	values = append(values, []interface{}{})

	header := make([]interface{}, len(ExportColumns))
	for i, col := range ExportColumns {
		header[i] = col
	}
	values = append(values, header)

	for _, r := range t.Rows {
		values = append(values, []interface{}{
			r.Ranking, r.Name, r.Email, r.Score, r.Overview, r.Qualifications, r.RedFlags, r.InterviewQuestions,
		})
	}
	return values
}

// SerializeCSV ranks nothing; it expects candidates already in ranked order.
func SerializeCSV(jobDescription string, ranked []models.CandidateRecord, at time.Time, dateLayout string) ([]byte, error) {
	table, err := BuildExportTable(jobDescription, ranked, at, dateLayout)
	if err != nil {
		return nil, err
	}
	return table.CSV(), nil
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
