package document

import (
	"strings"
	"time"
)

// Kind identifies a supported document format.
type Kind string

const (
	KindText  Kind = "Text"
	KindPDF   Kind = "PDF"
	KindDOCX  Kind = "DOCX"
	KindExcel Kind = "Excel"
)

// Document is the single active uploaded file's extracted text plus metadata.
// It is created whole on successful extraction and replaced whole on the
// next upload; fields are never mutated individually.
type Document struct {
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	Content     string    `json:"content"`
	SizeBytes   int       `json:"sizeBytes"`
	ProcessedAt time.Time `json:"processedAt"`
}

// New builds a Document from freshly extracted text. SizeBytes is derived
// from the extracted text, not the original file.
func New(name string, kind Kind, content string) Document {
	return Document{
		Name:        name,
		Kind:        kind,
		Content:     content,
		SizeBytes:   len(content),
		ProcessedAt: time.Now().UTC(),
	}
}

// KindFromFilename maps a filename's final dot-segment to a Kind.
// The match is case-insensitive. Legacy .doc files dispatch to the DOCX
// extractor and fail there if the payload is not an OOXML container.
func KindFromFilename(name string) (Kind, bool) {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return "", false
	}
	switch strings.ToLower(name[idx+1:]) {
	case "txt", "md":
		return KindText, true
	case "pdf":
		return KindPDF, true
	case "docx", "doc":
		return KindDOCX, true
	case "xls", "xlsx":
		return KindExcel, true
	default:
		return "", false
	}
}
