package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func ledgerItems(names ...string) []LedgerItem {
	out := make([]LedgerItem, len(names))
	for i, n := range names {
		out[i] = LedgerItem{ItemName: n, Quantity: "1"}
	}
	return out
}

func TestMerge(t *testing.T) {
	base := Ledger{
		{CustomerName: "Acme", Items: ledgerItems("a1")},
		{CustomerName: "Bravo", Items: ledgerItems("b1")},
	}

	tests := []struct {
		name     string
		customer string
		add      []LedgerItem
		want     Ledger
	}{
		{
			name:     "existing customer appends in place",
			customer: "Acme",
			add:      ledgerItems("a2", "a3"),
			want: Ledger{
				{CustomerName: "Acme", Items: ledgerItems("a1", "a2", "a3")},
				{CustomerName: "Bravo", Items: ledgerItems("b1")},
			},
		},
		{
			name:     "new customer appended at end",
			customer: "Charlie",
			add:      ledgerItems("c1"),
			want: Ledger{
				{CustomerName: "Acme", Items: ledgerItems("a1")},
				{CustomerName: "Bravo", Items: ledgerItems("b1")},
				{CustomerName: "Charlie", Items: ledgerItems("c1")},
			},
		},
		{
			name:     "names compared exactly",
			customer: "acme",
			add:      ledgerItems("x"),
			want: Ledger{
				{CustomerName: "Acme", Items: ledgerItems("a1")},
				{CustomerName: "Bravo", Items: ledgerItems("b1")},
				{CustomerName: "acme", Items: ledgerItems("x")},
			},
		},
		{
			name:     "no items is a no-op",
			customer: "Delta",
			add:      nil,
			want:     base,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(base, tt.customer, tt.add)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge mismatch (-want +got):\n%s", diff)
			}
			if len(base[0].Items) != 1 {
				t.Fatal("Merge modified its input")
			}
		})
	}
}

func TestLedger_Totals(t *testing.T) {
	l := Ledger{
		{CustomerName: "Acme", Items: []LedgerItem{
			{Amount: "1.10"}, {Amount: "2.20"}, {Amount: ""}, {Amount: "n/a"},
		}},
		{CustomerName: "Bravo", Items: nil},
	}

	got := l.Totals()
	if len(got) != 2 {
		t.Fatalf("Totals len = %d", len(got))
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("3.30")) {
		t.Errorf("Acme amount = %s, want 3.30", got[0].Amount)
	}
	if got[0].Priced != 2 || got[0].Unpriced != 2 {
		t.Errorf("Acme priced/unpriced = %d/%d, want 2/2", got[0].Priced, got[0].Unpriced)
	}
	if !got[1].Amount.IsZero() {
		t.Errorf("Bravo amount = %s, want 0", got[1].Amount)
	}
}

func TestMergeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	names := []string{"Acme", "Bravo", "Charlie", "Delta"}
	customers := gen.IntRange(0, len(names)-1).Map(func(i int) string { return names[i] })

	properties.Property("every merged item is kept exactly once", prop.ForAll(
		func(commits []string, counts []uint8) bool {
			var l Ledger
			total := 0
			for i, c := range commits {
				n := 1
				if i < len(counts) {
					n = int(counts[i]%4) + 1
				}
				batch := make([]LedgerItem, n)
				l = Merge(l, c, batch)
				total += n
			}
			return l.ItemCount() == total
		},
		gen.SliceOf(customers),
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("customer names stay unique and in first-commit order", prop.ForAll(
		func(commits []string) bool {
			var l Ledger
			var firstSeen []string
			seen := map[string]bool{}
			for _, c := range commits {
				l = Merge(l, c, ledgerItems(c))
				if !seen[c] {
					seen[c] = true
					firstSeen = append(firstSeen, c)
				}
			}
			if len(l) != len(firstSeen) {
				return false
			}
			for i, e := range l {
				if e.CustomerName != firstSeen[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
