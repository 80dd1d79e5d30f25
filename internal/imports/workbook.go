package imports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"campaign-import/internal/records"
)

// ReadWorkbook returns every sheet of an xlsx workbook in tab order. Cells are
// read raw so date cells arrive as spreadsheet serials.
func ReadWorkbook(r io.Reader) ([]records.RawSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	var out []records.RawSheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrInvalidWorkbook, name, err)
		}
		raw := make([][]any, len(rows))
		for i, row := range rows {
			cells := make([]any, len(row))
			for j, v := range row {
				cells[j] = v
			}
			raw[i] = cells
		}
		out = append(out, records.RawSheet{Name: name, Rows: raw})
	}
	return out, nil
}
