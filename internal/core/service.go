package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Parser turns raw spreadsheet bytes into rows of the first sheet.
type Parser interface {
	Parse(ctx context.Context, data []byte) ([]Row, error)
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	MaxConcurrentUploads int
	MaxUploadWait        time.Duration
	ParseTimeout         time.Duration
}

// DefaultParseTimeout bounds a single file parse.
const DefaultParseTimeout = 2 * time.Minute

// Service ties the row store, the per-session order builders and the ledger
// together. All store mutations are read-modify-write of whole values and are
// serialized by stateMu.
type Service struct {
	store   Store
	parser  Parser
	limiter *UploadLimiter
	opts    Options
	now     func() time.Time

	stateMu sync.Mutex
	// Guarded by stateMu. Every listing, removal and reset takes the next
	// seq; a parse listed before a later removal of its name or a later
	// reset is stale and its rows are dropped.
	seq       uint64
	resetAt   uint64
	removedAt map[string]uint64

	uploadsMu sync.RWMutex
	uploads   map[string]*activeUpload
	uploadsWG sync.WaitGroup

	sessionsMu sync.Mutex
	sessions   map[string]*session
}

// NewService creates a Service over st, parsing uploads with p.
func NewService(st Store, p Parser, opts Options) *Service {
	if opts.ParseTimeout <= 0 {
		opts.ParseTimeout = DefaultParseTimeout
	}
	return &Service{
		store:    st,
		parser:   p,
		limiter:  NewUploadLimiter(opts.MaxConcurrentUploads, opts.MaxUploadWait),
		opts:     opts,
		now:      time.Now,
		uploads:   make(map[string]*activeUpload),
		sessions:  make(map[string]*session),
		removedAt: make(map[string]uint64),
	}
}

// FileNames returns the uploaded file names, including files still being parsed.
func (s *Service) FileNames(ctx context.Context) ([]string, error) {
	return loadFileNames(ctx, s.store)
}

// Files returns every parsed file with all of its rows.
func (s *Service) Files(ctx context.Context) ([]FileRecord, error) {
	return loadFiles(ctx, s.store)
}

// Search filters all parsed files by query.
func (s *Service) Search(ctx context.Context, query string) ([]FileRecord, error) {
	files, err := loadFiles(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return Filter(files, query), nil
}

// RemoveFile drops every file record and listed name equal to name.
func (s *Service) RemoveFile(ctx context.Context, name string) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	files, err := loadFiles(ctx, s.store)
	if err != nil {
		return err
	}
	kept := files[:0:0]
	for _, f := range files {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	if err := saveFiles(ctx, s.store, kept); err != nil {
		return err
	}
	s.seq++
	s.removedAt[name] = s.seq

	names, err := loadFileNames(ctx, s.store)
	if err != nil {
		return err
	}
	keptNames := names[:0:0]
	for _, n := range names {
		if n != name {
			keptNames = append(keptNames, n)
		}
	}
	if err := saveFileNames(ctx, s.store, keptNames); err != nil {
		return err
	}

	slog.Info("file removed", "file", name, "records_removed", len(files)-len(kept))
	return nil
}

// ResetAll clears the file list, all parsed rows and the ledger.
func (s *Service) ResetAll(ctx context.Context) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if err := s.store.Delete(ctx, KeyFileNames, KeyFileData, KeyLedger); err != nil {
		return persistErr("delete", "all", err)
	}
	s.seq++
	s.resetAt = s.seq
	clear(s.removedAt)
	slog.Warn("all data reset")
	return nil
}

// Ledger returns the committed orders.
func (s *Service) Ledger(ctx context.Context) (Ledger, error) {
	return loadLedger(ctx, s.store)
}

// ResetOrders clears the ledger but keeps uploaded files.
func (s *Service) ResetOrders(ctx context.Context) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if err := s.store.Delete(ctx, KeyLedger); err != nil {
		return persistErr("delete", KeyLedger, err)
	}
	slog.Warn("orders reset")
	return nil
}

// CommitOrder merges the session's pending order into the ledger.
// The pending items are kept if the ledger cannot be written.
func (s *Service) CommitOrder(ctx context.Context, sessionID string) (LedgerEntry, error) {
	var entry LedgerEntry
	err := s.WithOrder(sessionID, func(b *OrderBuilder) error {
		s.stateMu.Lock()
		defer s.stateMu.Unlock()

		ledger, err := loadLedger(ctx, s.store)
		if err != nil {
			return err
		}

		customer := b.Customer
		count := b.Len()
		next, err := b.Commit(ledger, func(l Ledger) error {
			return saveLedger(ctx, s.store, l)
		})
		if err != nil {
			return err
		}

		if i, ok := next.Find(customer); ok {
			entry = next[i]
		}
		slog.Info("order committed", "customer", customer, "items", count, "customer_items", len(entry.Items))
		return nil
	})
	return entry, err
}

// PlaceOrder commits a one-off order for customer without touching any session.
func (s *Service) PlaceOrder(ctx context.Context, customer string, items []LineItem) (LedgerEntry, error) {
	b := NewOrderBuilder()
	for _, li := range items {
		if err := b.AddOrUpdate(customer, li.Row, li.Quantity, li.Amount, li.Note); err != nil {
			return LedgerEntry{}, err
		}
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	ledger, err := loadLedger(ctx, s.store)
	if err != nil {
		return LedgerEntry{}, err
	}
	next, err := b.Commit(ledger, func(l Ledger) error {
		return saveLedger(ctx, s.store, l)
	})
	if err != nil {
		return LedgerEntry{}, err
	}
	i, _ := next.Find(customer)
	return next[i], nil
}

// SelectSearchResult selects a row from the results of the session's current
// search. ref refers to the filtered result set the user was shown; it fails
// with ErrIndex if that set has changed underneath it.
func (s *Service) SelectSearchResult(ctx context.Context, sessionID string, ref ResultRef) (LineItem, error) {
	files, err := loadFiles(ctx, s.store)
	if err != nil {
		return LineItem{}, err
	}

	var item LineItem
	err = s.WithOrder(sessionID, func(b *OrderBuilder) error {
		row, err := ref.Resolve(Filter(files, b.Search))
		if err != nil {
			return fmt.Errorf("select result: %w", err)
		}
		item = b.SelectRow(row)
		return nil
	})
	return item, err
}
