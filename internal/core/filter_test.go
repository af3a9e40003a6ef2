package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func sampleFiles() []FileRecord {
	return []FileRecord{
		{Name: "fasteners.xlsx", Rows: []Row{
			NewRow("Item", "Bolt", "Size", "M8"),
			NewRow("Item", "Nut", "Size", "M8"),
			NewRow("Item", "Washer", "Size", "M10"),
		}},
		{Name: "tools.csv", Rows: []Row{
			NewRow("Item", "Spanner", "Size", "13mm"),
		}},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantNames [][]string
	}{
		{
			name:      "case insensitive substring",
			query:     "bOL",
			wantNames: [][]string{{"Bolt"}, {}},
		},
		{
			name:      "matches any column",
			query:     "m8",
			wantNames: [][]string{{"Bolt", "Nut"}, {}},
		},
		{
			name:      "files without hits are kept",
			query:     "spanner",
			wantNames: [][]string{{}, {"Spanner"}},
		},
		{
			name:      "empty query keeps everything",
			query:     "",
			wantNames: [][]string{{"Bolt", "Nut", "Washer"}, {"Spanner"}},
		},
		{
			name:      "no match anywhere",
			query:     "hammer",
			wantNames: [][]string{{}, {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sampleFiles(), tt.query)
			if len(got) != 2 || got[0].Name != "fasteners.xlsx" || got[1].Name != "tools.csv" {
				t.Fatalf("file order or count changed: %+v", got)
			}
			gotNames := make([][]string, len(got))
			for i, f := range got {
				gotNames[i] = []string{}
				for _, r := range f.Rows {
					v, _ := r.Get("Item")
					gotNames[i] = append(gotNames[i], v)
				}
			}
			if diff := cmp.Diff(tt.wantNames, gotNames); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	files := sampleFiles()
	_ = Filter(files, "bolt")
	if len(files[0].Rows) != 3 {
		t.Errorf("input rows changed: %d", len(files[0].Rows))
	}
}

func TestRowMatches(t *testing.T) {
	row := NewRow("Item", "Hex Bolt", "Grade", "8.8")
	if !RowMatches(row, "HEX") {
		t.Error("expected match on HEX")
	}
	if RowMatches(row, "Item") {
		t.Error("column names must not match")
	}
}

func TestCountRows(t *testing.T) {
	if got := CountRows(sampleFiles()); got != 4 {
		t.Errorf("CountRows() = %d, want 4", got)
	}
	if got := CountRows(nil); got != 0 {
		t.Errorf("CountRows(nil) = %d, want 0", got)
	}
}

func TestRowAt(t *testing.T) {
	files := sampleFiles()

	row, err := RowAt(files, 1, 0)
	if err != nil {
		t.Fatalf("RowAt: %v", err)
	}
	if v, _ := row.Get("Item"); v != "Spanner" {
		t.Errorf("RowAt(1,0) = %v", row)
	}

	for _, idx := range [][2]int{{2, 0}, {-1, 0}, {1, 1}, {0, -1}} {
		if _, err := RowAt(files, idx[0], idx[1]); !errors.Is(err, ErrIndex) {
			t.Errorf("RowAt(%d,%d) err = %v, want ErrIndex", idx[0], idx[1], err)
		}
	}
}

func TestParseResultRef(t *testing.T) {
	tests := []struct {
		in      string
		want    ResultRef
		wantErr bool
	}{
		{in: "0:1:a.csv", want: ResultRef{File: "a.csv", FileIdx: 0, RowIdx: 1}},
		{in: "2:0:price list: 2024.csv", want: ResultRef{File: "price list: 2024.csv", FileIdx: 2, RowIdx: 0}},
		{in: "0:1", wantErr: true},
		{in: "0:1:", wantErr: true},
		{in: "x:1:a.csv", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseResultRef(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrIndex) {
				t.Errorf("ParseResultRef(%q) error = %v, want ErrIndex", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseResultRef(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseResultRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if back, _ := ParseResultRef(got.String()); back != got {
			t.Errorf("String() = %q does not decode to itself", got.String())
		}
	}
}

func TestResultRef_Resolve(t *testing.T) {
	files := sampleFiles()

	row, err := ResultRef{File: "tools.csv", FileIdx: 1, RowIdx: 0}.Resolve(files)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := ItemName(row); got != "Spanner, 13mm" {
		t.Errorf("Resolve() = %q, want Spanner, 13mm", got)
	}

	if _, err := (ResultRef{File: "tools.csv", FileIdx: 0, RowIdx: 0}).Resolve(files); !errors.Is(err, ErrIndex) {
		t.Errorf("Resolve with moved file: err = %v, want ErrIndex", err)
	}
	if _, err := (ResultRef{File: "tools.csv", FileIdx: 1, RowIdx: 3}).Resolve(files); !errors.Is(err, ErrIndex) {
		t.Errorf("Resolve out of range: err = %v, want ErrIndex", err)
	}
}

func TestFilterProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	files := gen.SliceOf(gen.AlphaString()).Map(func(values []string) []FileRecord {
		var rows []Row
		for _, v := range values {
			rows = append(rows, NewRow("Item", v))
		}
		return []FileRecord{{Name: "a.csv", Rows: rows}, {Name: "b.csv"}}
	})

	properties.Property("empty query keeps every row", prop.ForAll(
		func(fs []FileRecord) bool {
			return cmp.Equal(Filter(fs, ""), fs, cmp.Comparer(sameRows))
		},
		files,
	))

	properties.Property("result is an ordered subset of the input", prop.ForAll(
		func(fs []FileRecord, q string) bool {
			got := Filter(fs, q)
			if len(got) != len(fs) {
				return false
			}
			for i := range fs {
				if got[i].Name != fs[i].Name || !isSubsequence(got[i].Rows, fs[i].Rows) {
					return false
				}
				for _, row := range got[i].Rows {
					if !RowMatches(row, q) {
						return false
					}
				}
			}
			return true
		},
		files,
		gen.AlphaString(),
	))

	properties.Property("matching ignores case", prop.ForAll(
		func(fs []FileRecord, q string) bool {
			return CountRows(Filter(fs, strings.ToUpper(q))) == CountRows(Filter(fs, strings.ToLower(q)))
		},
		files,
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func sameRows(a, b []Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Summary() != b[i].Summary() {
			return false
		}
	}
	return true
}

// isSubsequence reports whether every row of sub appears in all, in order.
func isSubsequence(sub, all []Row) bool {
	j := 0
	for _, r := range all {
		if j < len(sub) && r.Summary() == sub[j].Summary() {
			j++
		}
	}
	return j == len(sub)
}
