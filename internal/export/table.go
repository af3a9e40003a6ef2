// Package export turns the order ledger into a printable table and PDF.
package export

import "github.com/MuhammadJuraij/OrderEase/internal/core"

// Header is the fixed column header of the export table.
var Header = []string{"Customer Name", "Item Name", "Quantity", "Amount", "Note"}

// RowKind distinguishes the rows of a Table.
type RowKind int

const (
	RowItem   RowKind = iota // one ledger item
	RowSpacer                // blank separator after the last item
	RowNote                  // free text spanning every column
)

// Row is one line of the export table. Item rows have one cell per header
// column; a note row has a single cell.
type Row struct {
	Kind  RowKind
	Cells []string
}

// Table is the ledger laid out for printing.
type Table struct {
	Header []string
	Rows   []Row
}

// Format lays out ledger as a table. Each item gets its own row and only the
// first row of a customer carries the customer name. A blank spacer row is
// always appended, followed by a note row when note is non-empty.
func Format(ledger core.Ledger, note string) Table {
	t := Table{Header: append([]string(nil), Header...)}

	for _, entry := range ledger {
		for i, item := range entry.Items {
			customer := ""
			if i == 0 {
				customer = entry.CustomerName
			}
			t.Rows = append(t.Rows, Row{
				Kind:  RowItem,
				Cells: []string{customer, item.ItemName, item.Quantity, item.Amount, item.Note},
			})
		}
	}

	t.Rows = append(t.Rows, Row{Kind: RowSpacer, Cells: make([]string, len(Header))})
	if note != "" {
		t.Rows = append(t.Rows, Row{Kind: RowNote, Cells: []string{note}})
	}
	return t
}

// ItemRows returns the number of item rows.
func (t Table) ItemRows() int {
	n := 0
	for _, r := range t.Rows {
		if r.Kind == RowItem {
			n++
		}
	}
	return n
}
