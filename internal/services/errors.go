package services

import (
	"errors"

	"alfredoptarigan/cv-screener/internal/repositories"
)

var (
	// ErrRejectedInput marks a file that failed the intake allow-list. Intake
	// filters these out silently; the error only surfaces from CheckDocument.
	ErrRejectedInput = errors.New("rejected input")
	// ErrInvalidDocument marks a document that cannot be identified.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrIncompleteSubmission marks a submission without a job description or documents.
	ErrIncompleteSubmission = errors.New("incomplete submission")
	// ErrExportFailure marks a batch that cannot be serialized.
	ErrExportFailure = errors.New("export failure")

	ErrBatchNotFound     = repositories.ErrNotFound
	ErrBatchNotReady     = errors.New("screening not completed")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrIncompleteRecord  = errors.New("incomplete assessment")
)
