package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/docchat-dev/docchat/internal/model/document"
)

// ExcelExtractor renders every sheet of a workbook as text, in workbook
// order, each under a "--- Sheet: <name> ---" header with row index
// labels.
type ExcelExtractor struct{}

func (ExcelExtractor) Kind() document.Kind { return document.KindExcel }

func (ExcelExtractor) Extract(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", wrapError(FailureDecode, document.KindExcel, "failed to open workbook", err)
	}
	defer f.Close()

	var sb strings.Builder
	cellChars := 0
	for _, sheet := range f.GetSheetList() {
		fmt.Fprintf(&sb, "\n--- Sheet: %s ---\n", sheet)

		rows, rowsErr := f.GetRows(sheet)
		if rowsErr != nil {
			continue
		}
		for i, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			fmt.Fprintf(&sb, "%d: %s\n", i, line)
			cellChars += len(line)
		}
	}

	if cellChars == 0 {
		return "", newError(FailureNoData, document.KindExcel, "workbook contains no data")
	}
	return sb.String(), nil
}
