package core

import "github.com/shopspring/decimal"

// Ledger maps customer names to their accumulated committed items, in first-commit order.
type Ledger []LedgerEntry

// Merge appends items to the entry for customerName, creating it if needed,
// and returns the updated ledger. The input ledger is not modified.
//
// Lookup is exact string equality: "Acme" and "acme " are different customers.
// Merging no items returns the ledger unchanged.
func Merge(l Ledger, customerName string, items []LedgerItem) Ledger {
	out := l.clone()
	if len(items) == 0 {
		return out
	}

	if i, ok := out.Find(customerName); ok {
		merged := make([]LedgerItem, 0, len(out[i].Items)+len(items))
		merged = append(merged, out[i].Items...)
		merged = append(merged, items...)
		out[i].Items = merged
		return out
	}

	return append(out, LedgerEntry{
		CustomerName: customerName,
		Items:        append([]LedgerItem(nil), items...),
	})
}

// Find returns the index of the entry for customerName.
func (l Ledger) Find(customerName string) (int, bool) {
	for i, e := range l {
		if e.CustomerName == customerName {
			return i, true
		}
	}
	return -1, false
}

// ItemCount returns the number of items across all entries.
func (l Ledger) ItemCount() int {
	n := 0
	for _, e := range l {
		n += len(e.Items)
	}
	return n
}

func (l Ledger) clone() Ledger {
	out := make(Ledger, len(l))
	for i, e := range l {
		out[i] = LedgerEntry{
			CustomerName: e.CustomerName,
			Items:        append([]LedgerItem(nil), e.Items...),
		}
	}
	return out
}

// CustomerTotal is the sum of the numeric amounts recorded for one customer.
type CustomerTotal struct {
	CustomerName string
	Amount       decimal.Decimal
	Priced       int // items with a numeric amount
	Unpriced     int // items with an empty or non-numeric amount
}

// Totals sums item amounts per customer. Amounts are free text, so anything
// that does not parse as a number is counted as unpriced.
func (l Ledger) Totals() []CustomerTotal {
	totals := make([]CustomerTotal, len(l))
	for i, e := range l {
		t := CustomerTotal{CustomerName: e.CustomerName, Amount: decimal.Zero}
		for _, item := range e.Items {
			d, err := decimal.NewFromString(item.Amount)
			if err != nil {
				t.Unpriced++
				continue
			}
			t.Amount = t.Amount.Add(d)
			t.Priced++
		}
		totals[i] = t
	}
	return totals
}
