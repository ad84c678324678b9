package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/docchat-dev/docchat/internal/model/document"
)

// DocxExtractor parses a .docx file by streaming word/document.xml from
// the ZIP container: paragraph texts in document order, one per line,
// followed by a [TABLES] section when the document contains tables.
type DocxExtractor struct{}

func (DocxExtractor) Kind() document.Kind { return document.KindDOCX }

func (DocxExtractor) Extract(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", wrapError(FailureDecode, document.KindDOCX, "file is not a valid OOXML container", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", newError(FailureDecode, document.KindDOCX, "word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", wrapError(FailureDecode, document.KindDOCX, "failed to open word/document.xml", err)
	}
	defer rc.Close()

	paragraphs, tables, err := walkDocumentXML(rc)
	if err != nil {
		return "", wrapError(FailureDecode, document.KindDOCX, "failed to parse word/document.xml", err)
	}

	var sb strings.Builder
	for _, p := range paragraphs {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	if len(tables) > 0 {
		sb.WriteString("\n[TABLES]\n")
		for i, table := range tables {
			fmt.Fprintf(&sb, "Table %d:\n", i+1)
			for _, row := range table {
				sb.WriteString(strings.TrimSpace(strings.Join(row, " | ")))
				sb.WriteByte('\n')
			}
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", newError(FailureNoContent, document.KindDOCX, "document contains no text")
	}
	return text, nil
}

// walkDocumentXML streams the WordprocessingML body, collecting non-blank
// paragraph texts outside tables and cell texts grouped by table and row.
func walkDocumentXML(r io.Reader) (paragraphs []string, tables [][][]string, err error) {
	decoder := xml.NewDecoder(r)

	var (
		tableDepth int
		inText     bool
		para       strings.Builder
		cell       strings.Builder
		row        []string
		table      [][]string
	)

	for {
		tok, tokErr := decoder.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return nil, nil, tokErr
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					table = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					para.Reset()
				}
			case "t":
				inText = true
			case "tab":
				if tableDepth > 0 {
					cell.WriteByte('\t')
				} else {
					para.WriteByte('\t')
				}
			}

		case xml.CharData:
			if !inText {
				continue
			}
			if tableDepth > 0 {
				cell.Write(t)
			} else {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth == 0 {
					if text := strings.TrimSpace(para.String()); text != "" {
						paragraphs = append(paragraphs, text)
					}
				}
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "tr":
				if tableDepth == 1 && len(row) > 0 {
					table = append(table, row)
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(table) > 0 {
					tables = append(tables, table)
				}
			}
		}
	}

	return paragraphs, tables, nil
}
