package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/docchat-dev/docchat/internal/model/document"
)

// TextExtractor handles plain text and Markdown uploads.
type TextExtractor struct{}

func (TextExtractor) Kind() document.Kind { return document.KindText }

// Extract decodes the bytes as UTF-8 and returns them untouched.
func (TextExtractor) Extract(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", newError(FailureDecode, document.KindText, "file is not valid UTF-8 text")
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", newError(FailureEmptyDocument, document.KindText, "file contains no text")
	}
	return text, nil
}
