package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MuhammadJuraij/OrderEase/internal/export"
	"github.com/MuhammadJuraij/OrderEase/internal/logging"
	"github.com/MuhammadJuraij/OrderEase/internal/web/templates"
)

const viewOrderPath = "/vieworder"

// handleViewOrder renders the ledger with per-customer totals.
func (s *Server) handleViewOrder(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.service.Ledger(requestContext(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render(w, r, templates.ViewOrder(templates.ViewOrderData{
		Page:   s.page(r, "View Order", viewOrderPath),
		Ledger: ledger,
		Totals: ledger.Totals(),
		Note:   r.URL.Query().Get("note"),
	}))
}

func (s *Server) handleResetOrders(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ResetOrders(requestContext(r)); err != nil {
		s.failPage(w, r, err, viewOrderPath)
		return
	}
	s.succeed(w, r, "All orders were cleared.", viewOrderPath)
}

// handleExportPage downloads the ledger as a PDF with the posted note.
func (s *Server) handleExportPage(w http.ResponseWriter, r *http.Request) {
	data, err := s.exportPDF(requestContext(r), r.FormValue("note"))
	if err != nil {
		s.failPage(w, r, err, viewOrderPath)
		return
	}
	s.sendPDF(w, r, data)
}

// exportPDF renders the current ledger.
func (s *Server) exportPDF(ctx context.Context, note string) ([]byte, error) {
	ledger, err := s.service.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = export.WritePDF(&buf, export.Format(ledger, note), export.Options{
		Title:    s.cfg.Export.Title,
		PageSize: s.cfg.Export.PageSize,
		Optimize: s.cfg.Export.Optimize,
	})
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	logging.FromContext(ctx).Info("orders exported", "customers", len(ledger), "items", ledger.ItemCount(), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (s *Server) sendPDF(w http.ResponseWriter, r *http.Request, data []byte) {
	name := s.cfg.Export.FileName
	if name == "" {
		name = "orders.pdf"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Warn("write pdf", "error", err)
	}
}
