package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cell is one column of a parsed spreadsheet row.
type Cell struct {
	Column string
	Value  string
}

// Row is one parsed spreadsheet record: an ordered mapping of column name to
// cell text. The shape is whatever the source file defines.
type Row []Cell

// NewRow builds a row from alternating column/value pairs.
// A trailing column without a value is ignored.
func NewRow(pairs ...string) Row {
	row := make(Row, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		row = append(row, Cell{Column: pairs[i], Value: pairs[i+1]})
	}
	return row
}

// Values returns the cell values in column order.
func (r Row) Values() []string {
	vals := make([]string, len(r))
	for i, c := range r {
		vals[i] = c.Value
	}
	return vals
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, c := range r {
		cols[i] = c.Column
	}
	return cols
}

// Get returns the value for a column.
func (r Row) Get(column string) (string, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}
	return "", false
}

// Clone returns a copy that shares no backing array with r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// itemNameColumns is how many leading values make up an item name.
const itemNameColumns = 3

// ItemName is the display name stored in the ledger for a selected row:
// the first three values joined with ", ".
func ItemName(r Row) string {
	vals := r.Values()
	if len(vals) > itemNameColumns {
		vals = vals[:itemNameColumns]
	}
	return strings.Join(vals, ", ")
}

// Summary joins every value of the row with ", ".
func (r Row) Summary() string {
	return strings.Join(r.Values(), ", ")
}

// MarshalJSON encodes the row as a JSON object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order.
// Non-string scalars keep their literal text, so 5 becomes "5"; null becomes "".
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}

	row := Row{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("row: expected key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("row: value for %q: %w", key, err)
		}
		row = append(row, Cell{Column: key, Value: rawText(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = row
	return nil
}

// rawText converts a raw JSON value to the text a cell would display.
func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

// FileRecord holds the rows parsed from one uploaded file.
type FileRecord struct {
	Name string `json:"fileName"`
	Rows []Row  `json:"data"`
}

// LineItem is one order line pending commit.
type LineItem struct {
	Row      Row    `json:"selectedItem"`
	Quantity string `json:"quantity"`
	Amount   string `json:"amount"`
	Note     string `json:"notes"`
}

// LedgerItem is one committed order line as stored in the ledger.
type LedgerItem struct {
	ItemName string `json:"itemName"`
	Quantity string `json:"quantity"`
	Amount   string `json:"amount"`
	Note     string `json:"notes"`
}

// LedgerItem converts a pending line into its committed form.
func (li LineItem) LedgerItem() LedgerItem {
	return LedgerItem{
		ItemName: ItemName(li.Row),
		Quantity: li.Quantity,
		Amount:   li.Amount,
		Note:     li.Note,
	}
}

// LedgerEntry is the durable, per-customer accumulation of committed items.
type LedgerEntry struct {
	CustomerName string       `json:"shopName"`
	Items        []LedgerItem `json:"items"`
}

// UploadPhase indicates the current stage of a file parse.
type UploadPhase string

const (
	PhasePending  UploadPhase = "pending"
	PhaseParsing  UploadPhase = "parsing"
	PhaseComplete UploadPhase = "complete"
	PhaseFailed   UploadPhase = "failed"
)

// UploadStatus is a snapshot of one upload's progress.
type UploadStatus struct {
	UploadID string      `json:"uploadId"`
	FileName string      `json:"fileName"`
	Phase    UploadPhase `json:"phase"`
	Rows     int         `json:"rows"`
	Error    string      `json:"error,omitempty"`
}

// UploadResult is the final outcome of an upload.
type UploadResult struct {
	UploadID string        `json:"uploadId"`
	FileName string        `json:"fileName"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}
