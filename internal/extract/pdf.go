package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/docchat-dev/docchat/internal/model/document"
)

// PDFExtractor extracts text from PDF files in page order. Each page's
// contribution is prefixed with a "--- Page N ---" marker; a page that
// yields no text contributes its marker only.
type PDFExtractor struct{}

func (PDFExtractor) Kind() document.Kind { return document.KindPDF }

func (PDFExtractor) Extract(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = newError(FailureDecode, document.KindPDF, fmt.Sprintf("malformed PDF: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", wrapError(FailureDecode, document.KindPDF, "failed to open PDF", err)
	}

	var sb strings.Builder
	pageChars := 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		fmt.Fprintf(&sb, "\n--- Page %d ---\n", pageNum)

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			// A failing page contributes nothing; the rest of the
			// document is still extracted.
			continue
		}
		sb.WriteString(pageText)
		pageChars += len(strings.TrimSpace(pageText))
	}

	if pageChars == 0 {
		return "", newError(FailureNoExtractableText, document.KindPDF,
			"no extractable text in any page; the PDF may be scanned images only")
	}
	return sb.String(), nil
}
