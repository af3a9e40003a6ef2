package core

// Draft holds the transient form fields of the order being edited.
type Draft struct {
	Customer string
	Search   string
	Quantity string
	Amount   string
	Note     string
}

// OrderBuilder accumulates line items for a single customer before they are
// committed to the ledger. It is not safe for concurrent use; the service
// serializes access per session.
type OrderBuilder struct {
	Draft

	selected Row
	items    []LineItem
	editing  int // -1 when no item is being edited
}

// NewOrderBuilder returns an empty builder.
func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{editing: -1}
}

// SetSearch updates the search text. Typing discards any pending selection.
func (b *OrderBuilder) SetSearch(q string) {
	b.Search = q
	b.selected = nil
}

// SelectRow captures row as the pending selection and shows its item name in
// the search text. No line item is created until AddOrUpdate.
func (b *OrderBuilder) SelectRow(row Row) LineItem {
	b.selected = row.Clone()
	b.Search = ItemName(row)
	return LineItem{
		Row:      b.selected,
		Quantity: b.Quantity,
		Amount:   b.Amount,
		Note:     b.Note,
	}
}

// Selected returns the pending selection, if any.
func (b *OrderBuilder) Selected() (Row, bool) {
	return b.selected, b.selected != nil
}

// AddOrUpdate validates the fields and either replaces the item being edited
// or appends a new one. The transient item fields are cleared afterwards; the
// customer name is kept for the next item of the same order.
func (b *OrderBuilder) AddOrUpdate(customerName string, selected Row, quantity, amount, note string) error {
	var missing []string
	if customerName == "" {
		missing = append(missing, "customer name")
	}
	if quantity == "" {
		missing = append(missing, "quantity")
	}
	if selected == nil {
		missing = append(missing, "item")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Message: missingFields}
	}

	item := LineItem{
		Row:      selected.Clone(),
		Quantity: quantity,
		Amount:   amount,
		Note:     note,
	}
	if b.editing >= 0 {
		b.items[b.editing] = item
		b.editing = -1
	} else {
		b.items = append(b.items, item)
	}

	b.Customer = customerName
	b.clearItemFields()
	return nil
}

// AddDraft calls AddOrUpdate with the builder's own draft fields and selection.
func (b *OrderBuilder) AddDraft() error {
	return b.AddOrUpdate(b.Customer, b.selected, b.Quantity, b.Amount, b.Note)
}

func (b *OrderBuilder) clearItemFields() {
	b.Quantity = ""
	b.Amount = ""
	b.Note = ""
	b.Search = ""
	b.selected = nil
}

// DeleteItem removes the item at index i; later items shift down by one.
// The edit target follows the item it refers to.
func (b *OrderBuilder) DeleteItem(i int) error {
	if err := checkIndex(i, len(b.items)); err != nil {
		return err
	}
	b.items = append(b.items[:i:i], b.items[i+1:]...)

	switch {
	case b.editing == i:
		b.editing = -1
	case b.editing > i:
		b.editing--
	}
	return nil
}

// EditItem loads the item at index i into the draft fields and makes it the
// target of the next AddOrUpdate.
func (b *OrderBuilder) EditItem(i int) (LineItem, error) {
	if err := checkIndex(i, len(b.items)); err != nil {
		return LineItem{}, err
	}
	item := b.items[i]
	b.Quantity = item.Quantity
	b.Amount = item.Amount
	b.Note = item.Note
	b.selected = item.Row.Clone()
	b.Search = item.Row.Summary()
	b.editing = i
	return item, nil
}

// CancelEdit drops the edit target and clears the item fields.
func (b *OrderBuilder) CancelEdit() {
	b.editing = -1
	b.clearItemFields()
}

// EditingIndex returns the index of the item being edited.
func (b *OrderBuilder) EditingIndex() (int, bool) {
	return b.editing, b.editing >= 0
}

// Items returns a copy of the pending line items.
func (b *OrderBuilder) Items() []LineItem {
	return append([]LineItem(nil), b.items...)
}

// Len returns the number of pending line items.
func (b *OrderBuilder) Len() int { return len(b.items) }

// Commit merges the pending items into ledger under the current customer name.
// If save is non-nil it is called with the merged ledger, and the pending
// items are cleared only when it succeeds.
func (b *OrderBuilder) Commit(ledger Ledger, save func(Ledger) error) (Ledger, error) {
	if len(b.items) == 0 {
		return ledger, &ValidationError{Message: noOrderData}
	}

	items := make([]LedgerItem, len(b.items))
	for i, li := range b.items {
		items[i] = li.LedgerItem()
	}
	next := Merge(ledger, b.Customer, items)

	if save != nil {
		if err := save(next); err != nil {
			return ledger, err
		}
	}

	b.items = nil
	b.editing = -1
	return next, nil
}

// Reset discards everything, including the customer name.
func (b *OrderBuilder) Reset() {
	*b = OrderBuilder{editing: -1}
}
