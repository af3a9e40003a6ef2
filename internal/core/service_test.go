package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mapStore is an in-memory Store whose writes can be made to fail.
type mapStore struct {
	mu      sync.Mutex
	data    map[string]string
	failSet error
}

func newMapStore() *mapStore { return &mapStore{data: map[string]string{}} }

func (m *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = value
	return nil
}

func (m *mapStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mapStore) setFailure(err error) {
	m.mu.Lock()
	m.failSet = err
	m.mu.Unlock()
}

// lineParser treats each line of the payload as a row with a single "Item"
// column. A payload starting with "bad" fails.
type lineParser struct{}

func (lineParser) Parse(_ context.Context, data []byte) ([]Row, error) {
	text := string(data)
	if strings.HasPrefix(text, "bad") {
		return nil, fmt.Errorf("%w: garbage", ErrUnreadableFile)
	}
	var rows []Row
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		rows = append(rows, NewRow("Item", line))
	}
	return rows, nil
}

// gatedParser blocks every Parse until release is closed. Each call
// announces itself on entered first.
type gatedParser struct {
	entered chan struct{}
	release chan struct{}
}

func newGatedParser() *gatedParser {
	return &gatedParser{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (p *gatedParser) Parse(ctx context.Context, data []byte) ([]Row, error) {
	p.entered <- struct{}{}
	<-p.release
	return lineParser{}.Parse(ctx, data)
}

func (p *gatedParser) waitEntered(t *testing.T, n int) {
	t.Helper()
	for range n {
		select {
		case <-p.entered:
		case <-time.After(5 * time.Second):
			t.Fatal("parse did not start")
		}
	}
}

func newTestService(t *testing.T) (*Service, *mapStore) {
	t.Helper()
	st := newMapStore()
	svc := NewService(st, lineParser{}, Options{MaxConcurrentUploads: 2, MaxUploadWait: time.Second})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.WaitForUploads(ctx)
	})
	return svc, st
}

func csvFile(name, body string) UploadFile {
	return UploadFile{Name: name, ContentType: MIMETypeCSV, Data: []byte(body)}
}

func waitAll(t *testing.T, svc *Service, ids []string) []*UploadResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out []*UploadResult
	for _, id := range ids {
		res, err := svc.WaitForUpload(ctx, id)
		require.NoError(t, err)
		out = append(out, res)
	}
	return out
}

func TestService_StartUploads(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ids, rejected, err := svc.StartUploads(ctx, []UploadFile{
		csvFile("fasteners.csv", "Bolt\nNut"),
		{Name: "notes.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		{Name: "tools.xlsx", ContentType: MIMETypeXLSX, Data: []byte("Spanner")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.pdf"}, rejected)
	require.Len(t, ids, 2)

	names, err := svc.FileNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fasteners.csv", "tools.xlsx"}, names)

	results := waitAll(t, svc, ids)
	assert.Equal(t, 2, results[0].Rows)
	assert.Empty(t, results[0].Error)

	status, err := svc.UploadStatus(ids[1])
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, status.Phase)
	assert.Equal(t, 1, status.Rows)

	files, err := svc.Files(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, CountRows(files))
}

func TestService_UploadsOldestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	var tick atomic.Int64
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.Add(time.Duration(tick.Add(1)) * time.Second) }

	var ids []string
	for _, name := range []string{"c.csv", "a.csv", "b.csv"} {
		id, err := svc.StartUpload(context.Background(), csvFile(name, "x"))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	waitAll(t, svc, ids)

	uploads := svc.Uploads()
	require.Len(t, uploads, 3)
	for i, u := range uploads {
		assert.Equal(t, ids[i], u.UploadID)
		assert.Equal(t, PhaseComplete, u.Phase)
	}
	assert.Equal(t, "c.csv", uploads[0].FileName)
}

func TestService_StartUploads_AllRejected(t *testing.T) {
	svc, st := newTestService(t)

	ids, rejected, err := svc.StartUploads(context.Background(), []UploadFile{
		{Name: "a.txt", ContentType: "text/plain", Data: []byte("x")},
	})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, []string{"a.txt"}, rejected)
	_, ok, _ := st.Get(context.Background(), KeyFileNames)
	assert.False(t, ok, "rejected uploads leave no trace")
}

func TestService_StartUpload_Unsupported(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.StartUpload(context.Background(), UploadFile{Name: "x.doc", ContentType: "application/msword"})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestService_ParseFailureKeepsName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ids, _, err := svc.StartUploads(ctx, []UploadFile{csvFile("broken.csv", "bad data")})
	require.NoError(t, err)
	res := waitAll(t, svc, ids)[0]
	assert.NotEmpty(t, res.Error)

	status, err := svc.UploadStatus(ids[0])
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, status.Phase)

	names, _ := svc.FileNames(ctx)
	assert.Equal(t, []string{"broken.csv"}, names)
	files, _ := svc.Files(ctx)
	assert.Empty(t, files)
}

func TestService_EmptyUploadFails(t *testing.T) {
	svc, _ := newTestService(t)
	ids, _, err := svc.StartUploads(context.Background(), []UploadFile{csvFile("empty.csv", "")})
	require.NoError(t, err)
	res := waitAll(t, svc, ids)[0]
	assert.Contains(t, res.Error, "empty file")
}

func TestService_ConcurrentUploadsKeepEveryFile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []string
	)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.StartUpload(ctx, csvFile(fmt.Sprintf("f%d.csv", i), "row"))
			if err != nil {
				t.Errorf("StartUpload: %v", err)
				return
			}
			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
		}()
	}
	wg.Wait()
	waitAll(t, svc, ids)

	names, err := svc.FileNames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 10)
	files, err := svc.Files(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 10)
}

func TestService_UploadNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UploadStatus("nope")
	assert.ErrorIs(t, err, ErrUploadNotFound)
	_, err = svc.WaitForUpload(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestService_RemoveFile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ids, _, err := svc.StartUploads(ctx, []UploadFile{
		csvFile("a.csv", "Bolt"),
		csvFile("b.csv", "Nut"),
		csvFile("a.csv", "Washer"),
	})
	require.NoError(t, err)
	waitAll(t, svc, ids)

	require.NoError(t, svc.RemoveFile(ctx, "a.csv"))

	names, _ := svc.FileNames(ctx)
	assert.Equal(t, []string{"b.csv"}, names)
	files, _ := svc.Files(ctx)
	require.Len(t, files, 1)
	assert.Equal(t, "b.csv", files[0].Name)

	require.NoError(t, svc.RemoveFile(ctx, "missing.csv"), "removing an unknown name is a no-op")
}

func TestService_RemovedOrResetWhileParsing(t *testing.T) {
	tests := []struct {
		name  string
		clear func(ctx context.Context, svc *Service) error
	}{
		{"reset", func(ctx context.Context, svc *Service) error { return svc.ResetAll(ctx) }},
		{"remove", func(ctx context.Context, svc *Service) error { return svc.RemoveFile(ctx, "a.csv") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			parser := newGatedParser()
			svc := NewService(newMapStore(), parser, Options{MaxConcurrentUploads: 2, MaxUploadWait: time.Second})

			ids, _, err := svc.StartUploads(ctx, []UploadFile{csvFile("a.csv", "Bolt")})
			require.NoError(t, err)
			parser.waitEntered(t, 1)

			require.NoError(t, tt.clear(ctx, svc))
			close(parser.release)
			res := waitAll(t, svc, ids)[0]

			assert.Contains(t, res.Error, ErrUploadDiscarded.Error())
			assert.Zero(t, res.Rows)
			st, err := svc.UploadStatus(ids[0])
			require.NoError(t, err)
			assert.Equal(t, PhaseFailed, st.Phase)

			names, _ := svc.FileNames(ctx)
			assert.Empty(t, names)
			found, err := svc.Search(ctx, "")
			require.NoError(t, err)
			assert.Zero(t, CountRows(found), "rows of a removed file must not come back")
		})
	}
}

func TestService_ParseSurvivesUnrelatedRemoval(t *testing.T) {
	ctx := context.Background()
	st := newMapStore()
	_, err := NewService(st, lineParser{}, Options{}).ImportFiles(ctx, []UploadFile{csvFile("b.csv", "Nut")})
	require.NoError(t, err)

	parser := newGatedParser()
	svc := NewService(st, parser, Options{MaxConcurrentUploads: 2, MaxUploadWait: time.Second})
	ids, _, err := svc.StartUploads(ctx, []UploadFile{csvFile("a.csv", "Bolt")})
	require.NoError(t, err)
	parser.waitEntered(t, 1)
	require.NoError(t, svc.RemoveFile(ctx, "b.csv"))
	close(parser.release)

	res := waitAll(t, svc, ids)[0]
	assert.Empty(t, res.Error)
	files, _ := svc.Files(ctx)
	require.Len(t, files, 1)
	assert.Equal(t, "a.csv", files[0].Name)
}

func TestService_ReuploadAfterRemoveWhileParsing(t *testing.T) {
	ctx := context.Background()
	parser := newGatedParser()
	svc := NewService(newMapStore(), parser, Options{MaxConcurrentUploads: 2, MaxUploadWait: time.Second})

	first, _, err := svc.StartUploads(ctx, []UploadFile{csvFile("a.csv", "Old")})
	require.NoError(t, err)
	parser.waitEntered(t, 1)
	require.NoError(t, svc.RemoveFile(ctx, "a.csv"))

	second, _, err := svc.StartUploads(ctx, []UploadFile{csvFile("a.csv", "New")})
	require.NoError(t, err)
	parser.waitEntered(t, 1)
	close(parser.release)
	waitAll(t, svc, append(first, second...))

	names, _ := svc.FileNames(ctx)
	assert.Equal(t, []string{"a.csv"}, names)
	files, _ := svc.Files(ctx)
	require.Len(t, files, 1)
	assert.Equal(t, "New", ItemName(files[0].Rows[0]))
}

func TestService_SelectAfterFilesChanged(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportFiles(ctx, []UploadFile{csvFile("a.csv", "Bolt"), csvFile("b.csv", "Big bolt")})
	require.NoError(t, err)
	require.NoError(t, svc.WithOrder("s1", func(b *OrderBuilder) error {
		b.SetSearch("bolt")
		return nil
	}))

	// "Bolt" was shown at 0:0. Once a.csv is gone, 0:0 holds "Big bolt".
	shown := ResultRef{File: "a.csv", FileIdx: 0, RowIdx: 0}
	require.NoError(t, svc.RemoveFile(ctx, "a.csv"))

	_, err = svc.SelectSearchResult(ctx, "s1", shown)
	assert.ErrorIs(t, err, ErrIndex)
	assert.False(t, svc.Order("s1").HasSelection())

	li, err := svc.SelectSearchResult(ctx, "s1", ResultRef{File: "b.csv", FileIdx: 0, RowIdx: 0})
	require.NoError(t, err)
	assert.Equal(t, "Big bolt", ItemName(li.Row))
}

func TestService_Search(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	records, err := svc.ImportFiles(ctx, []UploadFile{
		csvFile("a.csv", "Hex Bolt\nNut"),
		csvFile("b.csv", "Carriage bolt"),
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	got, err := svc.Search(ctx, "BOLT")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Rows, 1)
	assert.Len(t, got[1].Rows, 1)
}

func TestService_ImportFilesAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportFiles(ctx, []UploadFile{
		csvFile("good.csv", "Bolt"),
		csvFile("bad.csv", "bad"),
	})
	assert.ErrorIs(t, err, ErrUnreadableFile)

	names, _ := svc.FileNames(ctx)
	assert.Empty(t, names)

	_, err = svc.ImportFiles(ctx, []UploadFile{{Name: "x.pdf", ContentType: "application/pdf"}})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestService_OrderFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportFiles(ctx, []UploadFile{csvFile("a.csv", "Bolt\nNut\nBolt cutter")})
	require.NoError(t, err)

	require.NoError(t, svc.WithOrder("s1", func(b *OrderBuilder) error {
		b.Customer = "Acme"
		b.SetSearch("bolt")
		return nil
	}))

	// Index 1 of the filtered results is "Bolt cutter", not "Nut".
	li, err := svc.SelectSearchResult(ctx, "s1", ResultRef{File: "a.csv", FileIdx: 0, RowIdx: 1})
	require.NoError(t, err)
	v, _ := li.Row.Get("Item")
	assert.Equal(t, "Bolt cutter", v)

	_, err = svc.SelectSearchResult(ctx, "s1", ResultRef{File: "a.csv", FileIdx: 0, RowIdx: 5})
	assert.ErrorIs(t, err, ErrIndex)

	require.NoError(t, svc.WithOrder("s1", func(b *OrderBuilder) error {
		b.Quantity = "3"
		return b.AddDraft()
	}))

	snap := svc.Order("s1")
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Acme", snap.Customer)
	assert.False(t, snap.IsEditing())

	entry, err := svc.CommitOrder(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", entry.CustomerName)
	assert.Equal(t, []LedgerItem{{ItemName: "Bolt cutter", Quantity: "3"}}, entry.Items)

	assert.Empty(t, svc.Order("s1").Items)
	assert.Empty(t, svc.Order("s2").Items, "sessions are independent")

	ledger, err := svc.Ledger(ctx)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

func TestService_CommitEmptyOrder(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CommitOrder(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_CommitPersistenceFailure(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.WithOrder("s1", func(b *OrderBuilder) error {
		return b.AddOrUpdate("Acme", rowBolt, "1", "", "")
	}))

	st.setFailure(errors.New("quota exceeded"))
	_, err := svc.CommitOrder(ctx, "s1")
	require.ErrorIs(t, err, ErrPersistence)
	assert.Len(t, svc.Order("s1").Items, 1, "items survive a failed save")

	st.setFailure(nil)
	_, err = svc.CommitOrder(ctx, "s1")
	require.NoError(t, err)
}

func TestService_PlaceOrderMergesCustomers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, "Acme", []LineItem{{Row: rowBolt, Quantity: "1"}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, "Bravo", []LineItem{{Row: rowNut, Quantity: "2"}})
	require.NoError(t, err)
	entry, err := svc.PlaceOrder(ctx, "Acme", []LineItem{{Row: rowPin, Quantity: "3"}})
	require.NoError(t, err)
	assert.Len(t, entry.Items, 2)

	_, err = svc.PlaceOrder(ctx, "Acme", []LineItem{{Row: rowPin}})
	assert.ErrorIs(t, err, ErrValidation)

	ledger, _ := svc.Ledger(ctx)
	require.Len(t, ledger, 2)
	assert.Equal(t, "Acme", ledger[0].CustomerName)
	assert.Equal(t, 3, ledger.ItemCount())
}

func TestService_Resets(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportFiles(ctx, []UploadFile{csvFile("a.csv", "Bolt")})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, "Acme", []LineItem{{Row: rowBolt, Quantity: "1"}})
	require.NoError(t, err)

	require.NoError(t, svc.ResetOrders(ctx))
	ledger, _ := svc.Ledger(ctx)
	assert.Empty(t, ledger)
	names, _ := svc.FileNames(ctx)
	assert.Len(t, names, 1, "order reset keeps files")

	require.NoError(t, svc.ResetAll(ctx))
	names, _ = svc.FileNames(ctx)
	assert.Empty(t, names)
	files, _ := svc.Files(ctx)
	assert.Empty(t, files)
}

func TestService_JanitorSweep(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ids, _, err := svc.StartUploads(context.Background(), []UploadFile{csvFile("a.csv", "Bolt")})
	require.NoError(t, err)
	waitAll(t, svc, ids)

	svc.Order("old")
	now = now.Add(90 * time.Minute)
	svc.Order("fresh")
	now = now.Add(60 * time.Minute)

	svc.sweep(JanitorConfig{IdleTimeout: 2 * time.Hour}.withDefaults())

	assert.Equal(t, 1, svc.SessionCount())
	_, err = svc.UploadStatus(ids[0])
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestService_StartJanitorStops(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartJanitor(ctx, JanitorConfig{CheckInterval: time.Millisecond})
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
