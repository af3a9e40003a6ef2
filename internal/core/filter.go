package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter returns every file with its rows restricted to those matching query.
// File order and row order are preserved, and files with no matching rows are
// still returned. An empty query matches every row; whether to display anything
// for it is up to the caller.
func Filter(files []FileRecord, query string) []FileRecord {
	needle := strings.ToLower(query)

	out := make([]FileRecord, len(files))
	for i, f := range files {
		rows := make([]Row, 0, len(f.Rows))
		for _, row := range f.Rows {
			if rowContains(row, needle) {
				rows = append(rows, row)
			}
		}
		out[i] = FileRecord{Name: f.Name, Rows: rows}
	}
	return out
}

// RowMatches reports whether any value of row contains query, case-insensitively.
func RowMatches(row Row, query string) bool {
	return rowContains(row, strings.ToLower(query))
}

func rowContains(row Row, lowerNeedle string) bool {
	for _, c := range row {
		if strings.Contains(strings.ToLower(c.Value), lowerNeedle) {
			return true
		}
	}
	return false
}

// CountRows returns the total number of rows across files.
func CountRows(files []FileRecord) int {
	n := 0
	for _, f := range files {
		n += len(f.Rows)
	}
	return n
}

// RowAt returns the row at (file, row) indexes of files.
func RowAt(files []FileRecord, fileIdx, rowIdx int) (Row, error) {
	if err := checkIndex(fileIdx, len(files)); err != nil {
		return nil, err
	}
	rows := files[fileIdx].Rows
	if err := checkIndex(rowIdx, len(rows)); err != nil {
		return nil, err
	}
	return rows[rowIdx], nil
}

// ResultRef points at one row of a filtered result set. File is the name of
// the file the row was shown under, so a reference made before files were
// added or removed is rejected instead of selecting a different row.
type ResultRef struct {
	File    string
	FileIdx int
	RowIdx  int
}

// String encodes the reference as "<file index>:<row index>:<file name>".
func (r ResultRef) String() string {
	return fmt.Sprintf("%d:%d:%s", r.FileIdx, r.RowIdx, r.File)
}

// ParseResultRef decodes a value produced by ResultRef.String.
func ParseResultRef(v string) (ResultRef, error) {
	parts := strings.SplitN(v, ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		return ResultRef{}, fmt.Errorf("result %q: %w", v, ErrIndex)
	}
	fi, err1 := strconv.Atoi(parts[0])
	ri, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return ResultRef{}, fmt.Errorf("result %q: %w", v, ErrIndex)
	}
	return ResultRef{File: parts[2], FileIdx: fi, RowIdx: ri}, nil
}

// Resolve returns the referenced row of files, failing with ErrIndex when
// the position no longer holds a row of the same file.
func (r ResultRef) Resolve(files []FileRecord) (Row, error) {
	row, err := RowAt(files, r.FileIdx, r.RowIdx)
	if err != nil {
		return nil, err
	}
	if files[r.FileIdx].Name != r.File {
		return nil, fmt.Errorf("result %s now belongs to %s: %w", r, files[r.FileIdx].Name, ErrIndex)
	}
	return row, nil
}
