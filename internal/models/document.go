package models

// Document is one uploaded resume as handed over by the upload surface.
// Content is carried through untouched; only scorers that extract text read it.
type Document struct {
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
	Content   []byte `json:"-"`
}
