// Package sheet turns uploaded spreadsheet bytes into rows.
//
// Only the first worksheet is read. Its first row names the columns; every
// following non-blank row becomes a core.Row whose cells appear in column
// order. Empty cells are left out of the row.
//
// Column names follow these rules:
//
//   - a blank header cell becomes __EMPTY, then __EMPTY_1, __EMPTY_2, ...
//   - a repeated header gets a numeric suffix: Item, Item_1, Item_2, ...
//
// The format is detected from the content, not the file name or MIME type:
// a ZIP container is read as xlsx, an OLE2 compound file as xls, and
// anything else as CSV.
package sheet

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

// Format identifies a spreadsheet container.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Detect returns the container format of data.
func Detect(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	default:
		return FormatCSV
	}
}

// Parser reads the first sheet of xlsx, xls and CSV files.
// The zero value is ready to use.
type Parser struct {
	// MaxRows rejects sheets with more data rows than this. Zero means no limit.
	MaxRows int
}

var _ core.Parser = Parser{}

// Parse implements core.Parser.
func (p Parser) Parse(ctx context.Context, data []byte) ([]core.Row, error) {
	var (
		grid [][]string
		err  error
	)
	switch f := Detect(data); f {
	case FormatXLSX:
		grid, err = readXLSX(data)
	case FormatXLS:
		grid, err = readXLS(data)
	default:
		grid, err = readCSV(ctx, data)
	}
	if err != nil {
		return nil, err
	}
	return p.toRows(ctx, grid)
}

// ctxCheckEvery is how many rows are converted between cancellation checks.
const ctxCheckEvery = 1000

func (p Parser) toRows(ctx context.Context, grid [][]string) ([]core.Row, error) {
	if len(grid) == 0 {
		return []core.Row{}, nil
	}

	width := 0
	for _, r := range grid {
		width = max(width, len(r))
	}
	headers := Headers(grid[0], width)

	rows := make([]core.Row, 0, len(grid)-1)
	for i, rec := range grid[1:] {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row := make(core.Row, 0, len(rec))
		for c, v := range rec {
			if v == "" {
				continue
			}
			row = append(row, core.Cell{Column: headers[c], Value: v})
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
		if p.MaxRows > 0 && len(rows) > p.MaxRows {
			return nil, fmt.Errorf("%w: more than %d rows", core.ErrFileTooLarge, p.MaxRows)
		}
	}
	return rows, nil
}

// emptyHeader names columns whose header cell is blank.
const emptyHeader = "__EMPTY"

// Headers builds unique column names for a header row padded to width.
func Headers(cells []string, width int) []string {
	width = max(width, len(cells))
	seen := make(map[string]int, width)
	out := make([]string, width)

	for i := range width {
		base := emptyHeader
		if i < len(cells) && cells[i] != "" {
			base = cells[i]
		}

		name := base
		if n, dup := seen[base]; dup {
			for {
				name = base + "_" + strconv.Itoa(n)
				n++
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
			seen[name] = 1
		} else {
			seen[base] = 1
		}
		out[i] = name
	}
	return out
}
