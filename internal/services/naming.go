package services

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	contactDomain    = "email.com"
	defaultRoleTitle = "Position"
	exportFileSuffix = "-candidate-analysis-"
	exportISODate    = "2006-01-02"
	bytesPerMegabyte = 1024 * 1024
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nameSeparator = strings.NewReplacer("-", " ", "_", " ")
	pathSeparator = strings.NewReplacer("/", "-", `\`, "-")
)

// DisplayName strips the extension from fileName and turns '-' and '_' into spaces.
func DisplayName(fileName string) string {
	base := filepath.Base(strings.TrimSpace(fileName))
	if base == "." || base == "/" {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(nameSeparator.Replace(base))
}

// ContactHandle builds the synthetic address shown next to a candidate.
func ContactHandle(displayName string) string {
	local := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(displayName)), ".")
	return local + "@" + contactDomain
}

// RoleTitle returns the first line of the job description cut at its first
// period, or "Position" when that is empty.
func RoleTitle(jobDescription string) string {
	line, _, _ := strings.Cut(jobDescription, "\n")
	title, _, _ := strings.Cut(line, ".")
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	return defaultRoleTitle
}

// Slugify lowercases s and collapses whitespace runs into single hyphens.
func Slugify(s string) string {
	s = pathSeparator.Replace(strings.ToLower(strings.TrimSpace(s)))
	return whitespaceRun.ReplaceAllString(s, "-")
}

// ExportFileName is the conventional name of the CSV export for a job.
func ExportFileName(jobDescription string, at time.Time) string {
	return Slugify(RoleTitle(jobDescription)) + exportFileSuffix + at.Format(exportISODate) + ".csv"
}

// ScoreBand classifies a score for display: high, medium or low.
func ScoreBand(score int) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 60:
		return "medium"
	default:
		return "low"
	}
}

// FormatFileSize renders a byte count in megabytes with two decimals.
func FormatFileSize(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/bytesPerMegabyte)
}
