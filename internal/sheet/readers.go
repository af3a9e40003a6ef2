package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

func unreadable(format Format, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrUnreadableFile, format, err)
}

var errNoSheet = errors.New("no worksheet found")

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, unreadable(FormatXLSX, err)
	}
	defer func() { _ = file.Close() }()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, unreadable(FormatXLSX, errNoSheet)
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, unreadable(FormatXLSX, err)
	}
	return rows, nil
}

func readXLS(data []byte) (grid [][]string, err error) {
	// The xls decoder panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, unreadable(FormatXLS, fmt.Errorf("decoder panic: %v", r))
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, unreadable(FormatXLS, err)
	}
	if workbook.NumSheets() == 0 {
		return nil, unreadable(FormatXLS, errNoSheet)
	}
	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, unreadable(FormatXLS, errNoSheet)
	}

	grid = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		// Rows built from cell records alone carry no column bounds.
		last := row.LastCol()
		if last <= 0 {
			last = xlsMaxCols
		}
		cells := make([]string, last)
		for c := range last {
			cells[c] = row.Col(c)
		}
		grid = append(grid, trimTrailing(cells))
	}
	return grid, nil
}

// xlsMaxCols is the BIFF8 column limit.
const xlsMaxCols = 256

func trimTrailing(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

// readCSV decodes UTF-8 text, honouring a UTF-8 or UTF-16 byte order mark.
func readCSV(ctx context.Context, data []byte) ([][]string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := csv.NewReader(transform.NewReader(bytes.NewReader(data), decoder))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var grid [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, unreadable(FormatCSV, err)
		}
		grid = append(grid, rec)
		if len(grid)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	return grid, nil
}
