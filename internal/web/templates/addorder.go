package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

// AddOrderData feeds the order entry page.
type AddOrderData struct {
	Page
	Order     core.OrderSnapshot
	Results   []core.FileRecord // search results for Order.Search
	Customers []string          // names already in the ledger, offered as suggestions
}

// ShowResults reports whether the result dropdown is open: only while the
// user is typing a query and nothing is selected yet.
func (d AddOrderData) ShowResults() bool {
	return d.Order.Search != "" && !d.Order.HasSelection()
}

// AddOrder renders the order form. Every button posts the same form so the
// draft fields survive each round trip.
func AddOrder(d AddOrderData) templ.Component {
	return Layout(d.Page, component(func(_ context.Context, w *page) {
		o := d.Order
		w.raw(`<section><h2>Add order</h2><form method="post" action="/addorder/add">`)

		w.raw(`<div class="row">`)
		w.rawf(`<label>Customer name<input name="customer" value="%s" list="customers" autocomplete="off"></label>`, o.Customer)
		w.raw(`<datalist id="customers">`)
		for _, c := range d.Customers {
			w.rawf(`<option value="%s">`, c)
		}
		w.raw(`</datalist></div>`)

		w.raw(`<div class="row" style="margin-top:.75rem">`)
		w.rawf(`<label style="flex:1">Item<input name="search" value="%s" placeholder="Search items" autocomplete="off"></label>`, o.Search)
		w.raw(`<button type="submit" formaction="/addorder/search">Search</button></div>`)

		if d.ShowResults() {
			writeResults(w, d.Results)
		}
		if o.HasSelection() {
			w.raw(`<p class="muted">Selected: `)
			w.text(core.ItemName(o.Selected))
			w.raw(`</p>`)
		}

		w.raw(`<div class="row" style="margin-top:.75rem">`)
		w.rawf(`<label>Quantity<input name="quantity" value="%s"></label>`, o.Quantity)
		w.rawf(`<label>Amount<input name="amount" value="%s"></label>`, o.Amount)
		w.rawf(`<label style="flex:1">Note<input name="note" value="%s"></label>`, o.Note)
		if o.IsEditing() {
			w.raw(`<button type="submit">Update item</button>`)
			w.raw(`<button type="submit" class="secondary" formaction="/addorder/cancel">Cancel</button>`)
		} else {
			w.raw(`<button type="submit">Add item</button>`)
		}
		w.raw(`</div>`)

		writeItems(w, o)
		w.raw(`</form></section>`)
	}))
}

func writeResults(w *page, results []core.FileRecord) {
	total := core.CountRows(results)
	if total == 0 {
		w.raw(`<p class="muted">No items match.</p>`)
		return
	}
	w.rawf(`<p class="muted">%s matching items</p><div class="results">`, total)
	for fi, f := range results {
		for ri, row := range f.Rows {
			ref := core.ResultRef{File: f.Name, FileIdx: fi, RowIdx: ri}
			w.rawf(`<button type="submit" name="pick" value="%s" formaction="/addorder/select">`, ref)
			w.text(row.Summary())
			w.rawf(` <span class="muted">· %s</span></button>`, f.Name)
		}
	}
	w.raw(`</div>`)
}

func writeItems(w *page, o core.OrderSnapshot) {
	if len(o.Items) == 0 {
		return
	}
	w.raw(`<h3>Items for `)
	w.text(o.Customer)
	w.raw(`</h3><table><thead><tr><th>#</th><th>Item</th><th>Quantity</th><th>Amount</th><th>Note</th><th></th></tr></thead><tbody>`)
	for i, it := range o.Items {
		idx := strconv.Itoa(i)
		if i == o.Editing {
			w.raw(`<tr class="editing">`)
		} else {
			w.raw(`<tr>`)
		}
		w.rawf(`<td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td>`,
			i+1, core.ItemName(it.Row), it.Quantity, it.Amount, it.Note)
		w.raw(`<td>`)
		w.rawf(`<button type="submit" class="secondary" formaction="/addorder/edit/%s">Edit</button> `, idx)
		w.rawf(`<button type="submit" class="danger" formaction="/addorder/delete/%s">Delete</button>`, idx)
		w.raw(`</td></tr>`)
	}
	w.raw(`</tbody></table>`)
	w.raw(`<p style="margin-top:.75rem"><button type="submit" formaction="/addorder/submit">Submit order</button></p>`)
}
