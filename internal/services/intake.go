package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
)

const (
	DefaultMaxDocuments = 50
	DefaultMaxFileSize  = 10 * bytesPerMegabyte
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

const pdfMimeType = "application/pdf"

var allowedMimeTypes = map[string]bool{
	pdfMimeType:          true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// Submission is the completed intake handed over to evaluation.
type Submission struct {
	JobDescription string
	Documents      []models.Document
}

// AcceptResult reports what happened to one Accept call.
type AcceptResult struct {
	Accepted  int
	Rejected  int
	Truncated int
}

// Intake collects the job description and the candidate documents before
// evaluation. It is not safe for concurrent use.
type Intake struct {
	jobDescription string
	documents      []models.Document
	maxDocuments   int
	maxFileSize    int64
	logger         *zap.Logger
}

func NewIntake(maxDocuments int, maxFileSize int64, log *zap.Logger) *Intake {
	if maxDocuments <= 0 {
		maxDocuments = DefaultMaxDocuments
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Intake{
		maxDocuments: maxDocuments,
		maxFileSize:  maxFileSize,
		logger:       logger.OrNop(log),
	}
}

// SetJobDescription replaces the job description text.
func (in *Intake) SetJobDescription(text string) {
	in.jobDescription = text
}

// Accept filters files through the allow-list and appends the survivors to
// the held set until it reaches the cap. Files already held are never dropped.
func (in *Intake) Accept(files []models.Document) AcceptResult {
	var result AcceptResult
	for _, f := range files {
		if err := in.CheckDocument(f); err != nil {
			result.Rejected++
			in.logger.Debug("file rejected", zap.String("file", f.FileName), zap.Error(err))
			continue
		}
		if len(in.documents) >= in.maxDocuments {
			result.Truncated++
			continue
		}
		in.documents = append(in.documents, f)
		result.Accepted++
	}

	in.logger.Debug("files accepted",
		zap.Int("accepted", result.Accepted),
		zap.Int("rejected", result.Rejected),
		zap.Int("truncated", result.Truncated),
		zap.Int("held", len(in.documents)),
	)

	return result
}

// Remove drops the held document at index.
func (in *Intake) Remove(index int) error {
	if index < 0 || index >= len(in.documents) {
		return fmt.Errorf("no document at position %d", index)
	}
	in.documents = append(in.documents[:index], in.documents[index+1:]...)
	return nil
}

// Documents returns a copy of the held documents in acceptance order.
func (in *Intake) Documents() []models.Document {
	out := make([]models.Document, len(in.documents))
	copy(out, in.documents)
	return out
}

func (in *Intake) Len() int {
	return len(in.documents)
}

// Reset clears the job description and all held documents.
func (in *Intake) Reset() {
	in.jobDescription = ""
	in.documents = nil
}

// Submit hands the held set over. It fails with ErrIncompleteSubmission when
// the trimmed job description is empty or no document is held.
func (in *Intake) Submit() (*Submission, error) {
	if strings.TrimSpace(in.jobDescription) == "" {
		return nil, fmt.Errorf("%w: job description is required", ErrIncompleteSubmission)
	}
	if len(in.documents) == 0 {
		return nil, fmt.Errorf("%w: at least one document is required", ErrIncompleteSubmission)
	}

	return &Submission{
		JobDescription: in.jobDescription,
		Documents:      in.Documents(),
	}, nil
}

// CheckDocument applies the type and size allow-list to a single file. The
// file name suffix decides first. Without an allowed suffix the declared MIME
// type must be allowed, or the content must sniff as PDF.
func (in *Intake) CheckDocument(doc models.Document) error {
	if strings.TrimSpace(doc.FileName) == "" {
		return fmt.Errorf("%w: empty file name", ErrRejectedInput)
	}
	if doc.SizeBytes < 0 {
		return fmt.Errorf("%w: negative size", ErrRejectedInput)
	}
	if doc.SizeBytes > in.maxFileSize {
		return fmt.Errorf("%w: %s exceeds %s", ErrRejectedInput, FormatFileSize(doc.SizeBytes), FormatFileSize(in.maxFileSize))
	}
	if HasAllowedExtension(doc.FileName) {
		return nil
	}
	if allowedMimeTypes[declaredMimeType(doc)] {
		return nil
	}
	if len(doc.Content) > 0 && mimetype.Detect(doc.Content).Is(pdfMimeType) {
		return nil
	}
	return fmt.Errorf("%w: unsupported type %q", ErrRejectedInput, filepath.Ext(doc.FileName))
}

// HasAllowedExtension reports whether fileName ends in .pdf, .doc, .docx or .txt.
func HasAllowedExtension(fileName string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))]
}

func declaredMimeType(doc models.Document) string {
	base, _, _ := strings.Cut(doc.MimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
