package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
	"github.com/MuhammadJuraij/OrderEase/internal/web/templates"
)

const addOrderPath = "/addorder"

// handleAddOrder renders the session's pending order.
func (s *Server) handleAddOrder(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)
	order := s.service.Order(sessionID(r))

	data := templates.AddOrderData{
		Page:  s.page(r, "Add Order", addOrderPath),
		Order: order,
	}
	if order.Search != "" && !order.HasSelection() {
		results, err := s.service.Search(ctx, order.Search)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		data.Results = results
	}
	if ledger, err := s.service.Ledger(ctx); err == nil {
		for _, e := range ledger {
			data.Customers = append(data.Customers, e.CustomerName)
		}
	}
	render(w, r, templates.AddOrder(data))
}

// saveDraft copies the posted form fields into the session's builder. A
// changed search text drops the pending selection.
func (s *Server) saveDraft(r *http.Request) {
	_ = r.ParseForm()
	_ = s.service.WithOrder(sessionID(r), func(b *core.OrderBuilder) error {
		if v, ok := r.PostForm["customer"]; ok {
			b.Customer = v[0]
		}
		if v, ok := r.PostForm["quantity"]; ok {
			b.Quantity = strings.TrimSpace(v[0])
		}
		if v, ok := r.PostForm["amount"]; ok {
			b.Amount = strings.TrimSpace(v[0])
		}
		if v, ok := r.PostForm["note"]; ok {
			b.Note = v[0]
		}
		if v, ok := r.PostForm["search"]; ok && v[0] != b.Search {
			b.SetSearch(v[0])
		}
		return nil
	})
}

func (s *Server) handleOrderSearch(w http.ResponseWriter, r *http.Request) {
	s.saveDraft(r)
	http.Redirect(w, r, addOrderPath, http.StatusSeeOther)
}

// handleOrderSelect picks a search result. The "pick" value is a
// core.ResultRef into the current filtered results.
func (s *Server) handleOrderSelect(w http.ResponseWriter, r *http.Request) {
	s.saveDraft(r)

	ref, err := core.ParseResultRef(r.PostFormValue("pick"))
	if err != nil {
		s.failPage(w, r, err, addOrderPath)
		return
	}
	if _, err := s.service.SelectSearchResult(requestContext(r), sessionID(r), ref); err != nil {
		s.failPage(w, r, err, addOrderPath)
		return
	}
	http.Redirect(w, r, addOrderPath, http.StatusSeeOther)
}

// handleOrderAdd adds the drafted item or updates the one being edited.
func (s *Server) handleOrderAdd(w http.ResponseWriter, r *http.Request) {
	s.saveDraft(r)
	err := s.service.WithOrder(sessionID(r), func(b *core.OrderBuilder) error {
		return b.AddDraft()
	})
	if err != nil {
		s.failPage(w, r, err, addOrderPath)
		return
	}
	http.Redirect(w, r, addOrderPath, http.StatusSeeOther)
}

func (s *Server) handleOrderEdit(w http.ResponseWriter, r *http.Request) {
	s.saveDraft(r)
	err := s.withIndex(r, func(b *core.OrderBuilder, i int) error {
		_, err := b.EditItem(i)
		return err
	})
	if err != nil {
		s.failPage(w, r, err, addOrderPath)
		return
	}
	http.Redirect(w, r, addOrderPath, http.StatusSeeOther)
}

func (s *Server) handleOrderDelete(w http.ResponseWriter, r *http.Request) {
	s.saveDraft(r)
	err := s.withIndex(r, func(b *core.OrderBuilder, i int) error {
		return b.DeleteItem(i)
	})
	if err != nil {
		s.failPage(w, r, err, addOrderPath)
		return
	}
	http.Redirect(w, r, addOrderPath, http.StatusSeeOther)
}

// withIndex runs fn with the {index} path parameter. Non-numeric indexes are
// reported as out of range.
func (s *Server) withIndex(r *http.Request, fn func(b *core.OrderBuilder, i int) error) error {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("item %q: %w", raw, core.ErrIndex)
	}
	return s.service.WithOrder(sessionID(r), func(b *core.OrderBuilder) error {
		return fn(b, i)
	})
}

func (s *Server) handleOrderCancel(w http.ResponseWriter, r *http.Request) {
	s.saveDraft(r)
	_ = s.service.WithOrder(sessionID(r), func(b *core.OrderBuilder) error {
		b.CancelEdit()
		return nil
	})
	http.Redirect(w, r, addOrderPath, http.StatusSeeOther)
}

// handleOrderSubmit commits the pending order. On success the customer name is
// cleared so the next order starts blank.
func (s *Server) handleOrderSubmit(w http.ResponseWriter, r *http.Request) {
	s.saveDraft(r)
	entry, err := s.service.CommitOrder(requestContext(r), sessionID(r))
	if err != nil {
		s.failPage(w, r, err, addOrderPath)
		return
	}
	_ = s.service.WithOrder(sessionID(r), func(b *core.OrderBuilder) error {
		b.Customer = ""
		return nil
	})
	s.succeed(w, r, fmt.Sprintf("Order saved for %s (%d items in total).", entry.CustomerName, len(entry.Items)), addOrderPath)
}
