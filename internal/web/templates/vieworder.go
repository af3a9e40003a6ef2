package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

// ViewOrderData feeds the ledger page.
type ViewOrderData struct {
	Page
	Ledger core.Ledger
	Totals []core.CustomerTotal
	Note   string
}

// ViewOrder renders the committed orders with the export and reset forms.
func ViewOrder(d ViewOrderData) templ.Component {
	return Layout(d.Page, component(func(_ context.Context, w *page) {
		w.raw(`<section><h2>Orders</h2>`)
		if len(d.Ledger) == 0 {
			w.raw(`<p class="muted">No orders yet.</p></section>`)
			return
		}

		w.raw(`<table><thead><tr><th>Customer Name</th><th>Item Name</th><th>Quantity</th><th>Amount</th><th>Note</th></tr></thead><tbody>`)
		for _, e := range d.Ledger {
			for i, it := range e.Items {
				w.raw(`<tr>`)
				if i == 0 {
					w.rawf(`<td rowspan="%s">%s</td>`, len(e.Items), e.CustomerName)
				}
				w.rawf(`<td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					it.ItemName, it.Quantity, it.Amount, it.Note)
			}
		}
		w.raw(`</tbody></table></section>`)

		w.raw(`<section><h2>Totals</h2><table><thead><tr><th>Customer</th><th>Items</th><th>Amount</th></tr></thead><tbody>`)
		for _, t := range d.Totals {
			w.rawf(`<tr><td>%s</td><td>%s</td><td>%s`, t.CustomerName, t.Priced+t.Unpriced, t.Amount.StringFixed(2))
			if t.Unpriced > 0 {
				w.rawf(` <span class="muted">(%s without amount)</span>`, t.Unpriced)
			}
			w.raw(`</td></tr>`)
		}
		w.raw(`</tbody></table></section>`)

		w.raw(`<section><h2>Export</h2><form method="post" action="/vieworder/export">`)
		w.rawf(`<label>Note<textarea name="note" rows="3" cols="60">%s</textarea></label>`, d.Note)
		w.raw(`<p><button type="submit">Download PDF</button></p></form>`)
		w.raw(`<form method="post" action="/vieworder/reset" onsubmit="return confirm('Are you sure you want to reset all orders?')">`)
		w.raw(`<button type="submit" class="danger">Reset orders</button></form></section>`)
	}))
}
