package core

// service_upload.go implements the read-then-parse-then-store upload pipeline.
//
// StartUploads records the accepted file names right away and parses each file
// in its own goroutine. Until a parse finishes, its name is listed but its rows
// are not searchable. Parses cannot be cancelled from the UI; shutdown waits
// for them via WaitForUploads.

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Accepted upload content types.
const (
	MIMETypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMETypeXLS  = "application/vnd.ms-excel"
	MIMETypeCSV  = "text/csv"
)

var supportedTypes = map[string]bool{
	MIMETypeXLSX: true,
	MIMETypeXLS:  true,
	MIMETypeCSV:  true,
}

var typesByExt = map[string]string{
	".xlsx": MIMETypeXLSX,
	".xls":  MIMETypeXLS,
	".csv":  MIMETypeCSV,
}

// UnsupportedTypeMessage is the alert shown when uploads are rejected.
const UnsupportedTypeMessage = "Only Excel (.xlsx, .xls) and CSV (.csv) files are allowed."

// IsSupportedType reports whether contentType is one of the accepted MIME types.
// Parameters such as charset are ignored.
func IsSupportedType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return supportedTypes[strings.ToLower(mt)]
}

// ContentTypeForFile guesses the content type from a file extension, for
// callers that have no browser-supplied type.
func ContentTypeForFile(name string) string {
	return typesByExt[strings.ToLower(filepath.Ext(name))]
}

// UploadFile is one file submitted for parsing.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type activeUpload struct {
	mu       sync.Mutex
	status   UploadStatus
	result   *UploadResult
	done     chan struct{}
	started  time.Time
	finished time.Time
}

func (u *activeUpload) snapshot() UploadStatus {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

func (u *activeUpload) setPhase(p UploadPhase) {
	u.mu.Lock()
	u.status.Phase = p
	u.mu.Unlock()
}

// StartUploads accepts the supported files, lists their names immediately and
// parses them in the background. Unsupported files are returned in rejected
// and leave no trace in the name list or row store.
func (s *Service) StartUploads(ctx context.Context, files []UploadFile) (ids []string, rejected []string, err error) {
	var accepted []UploadFile
	for _, f := range files {
		if IsSupportedType(f.ContentType) {
			accepted = append(accepted, f)
		} else {
			rejected = append(rejected, f.Name)
		}
	}
	if len(rejected) > 0 {
		slog.Warn("uploads rejected", "files", rejected, "reason", ErrUnsupportedFileType)
	}
	if len(accepted) == 0 {
		return nil, rejected, nil
	}

	listed, err := s.appendFileNames(ctx, accepted)
	if err != nil {
		return nil, rejected, err
	}

	for _, f := range accepted {
		ids = append(ids, s.startParse(f, listed))
	}
	return ids, rejected, nil
}

// StartUpload accepts a single file. It returns ErrUnsupportedFileType if the
// content type is not accepted.
func (s *Service) StartUpload(ctx context.Context, f UploadFile) (string, error) {
	ids, rejected, err := s.StartUploads(ctx, []UploadFile{f})
	if err != nil {
		return "", err
	}
	if len(rejected) > 0 {
		return "", fmt.Errorf("%s: %w", f.Name, ErrUnsupportedFileType)
	}
	return ids[0], nil
}

// appendFileNames lists files and returns the sequence number of the listing.
func (s *Service) appendFileNames(ctx context.Context, files []UploadFile) (uint64, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if err := s.listNames(ctx, files); err != nil {
		return 0, err
	}
	s.seq++
	return s.seq, nil
}

func (s *Service) listNames(ctx context.Context, files []UploadFile) error {
	names, err := loadFileNames(ctx, s.store)
	if err != nil {
		return err
	}
	for _, f := range files {
		names = append(names, f.Name)
	}
	return saveFileNames(ctx, s.store, names)
}

func (s *Service) storeRecords(ctx context.Context, records []FileRecord) error {
	files, err := loadFiles(ctx, s.store)
	if err != nil {
		return err
	}
	return saveFiles(ctx, s.store, append(files, records...))
}

// storeParsed stores the rows of a background parse unless its name was
// removed or everything was reset after it was listed.
func (s *Service) storeParsed(ctx context.Context, listed uint64, rec FileRecord) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if listed < s.resetAt || listed < s.removedAt[rec.Name] {
		return fmt.Errorf("%s: %w: removed while parsing", rec.Name, ErrUploadDiscarded)
	}
	return s.storeRecords(ctx, []FileRecord{rec})
}

func (s *Service) startParse(f UploadFile, listed uint64) string {
	id := uuid.New().String()
	upload := &activeUpload{
		status: UploadStatus{
			UploadID: id,
			FileName: f.Name,
			Phase:    PhasePending,
		},
		done:    make(chan struct{}),
		started: s.now(),
	}

	s.uploadsMu.Lock()
	s.uploads[id] = upload
	s.uploadsMu.Unlock()

	s.uploadsWG.Add(1)
	go func() {
		defer s.uploadsWG.Done()
		s.processUpload(upload, f, listed)
	}()
	return id
}

// processUpload runs detached from the request that started it.
func (s *Service) processUpload(upload *activeUpload, f UploadFile, listed uint64) {
	start := s.now()
	logger := slog.With("upload_id", upload.status.UploadID, "file", f.Name)

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ParseTimeout)
	defer cancel()

	rows, err := s.parseFile(ctx, upload, f)
	if err == nil {
		err = s.storeParsed(ctx, listed, FileRecord{Name: f.Name, Rows: rows})
	}

	result := &UploadResult{
		UploadID: upload.status.UploadID,
		FileName: f.Name,
		Rows:     len(rows),
		Duration: s.now().Sub(start),
	}

	upload.mu.Lock()
	if err != nil {
		result.Error = err.Error()
		result.Rows = 0
		upload.status.Phase = PhaseFailed
		upload.status.Error = err.Error()
	} else {
		upload.status.Phase = PhaseComplete
		upload.status.Rows = len(rows)
	}
	upload.result = result
	upload.finished = s.now()
	upload.mu.Unlock()
	close(upload.done)

	if err != nil {
		logger.Error("upload failed", "error", err)
		return
	}
	logger.Info("upload parsed", "rows", len(rows), "duration_ms", result.Duration.Milliseconds())
}

func (s *Service) parseFile(ctx context.Context, upload *activeUpload, f UploadFile) ([]Row, error) {
	if len(f.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	upload.setPhase(PhaseParsing)
	rows, err := s.parser.Parse(ctx, f.Data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Name, err)
	}
	return rows, nil
}

// UploadStatus returns the current state of an upload.
func (s *Service) UploadStatus(uploadID string) (UploadStatus, error) {
	upload, err := s.lookupUpload(uploadID)
	if err != nil {
		return UploadStatus{}, err
	}
	return upload.snapshot(), nil
}

// WaitForUpload blocks until the upload finishes or ctx is done.
func (s *Service) WaitForUpload(ctx context.Context, uploadID string) (*UploadResult, error) {
	upload, err := s.lookupUpload(uploadID)
	if err != nil {
		return nil, err
	}
	select {
	case <-upload.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	upload.mu.Lock()
	defer upload.mu.Unlock()
	r := *upload.result
	return &r, nil
}

func (s *Service) lookupUpload(uploadID string) (*activeUpload, error) {
	s.uploadsMu.RLock()
	upload, ok := s.uploads[uploadID]
	s.uploadsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}
	return upload, nil
}

// Uploads returns the status of every upload not yet pruned, oldest first.
func (s *Service) Uploads() []UploadStatus {
	s.uploadsMu.RLock()
	active := make([]*activeUpload, 0, len(s.uploads))
	for _, u := range s.uploads {
		active = append(active, u)
	}
	s.uploadsMu.RUnlock()

	slices.SortFunc(active, func(a, b *activeUpload) int {
		if c := a.started.Compare(b.started); c != 0 {
			return c
		}
		return strings.Compare(a.status.UploadID, b.status.UploadID)
	})
	out := make([]UploadStatus, len(active))
	for i, u := range active {
		out[i] = u.snapshot()
	}
	return out
}

// WaitForUploads blocks until every started parse has finished or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.uploadsWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UploadLimiterStatus reports parse slot usage.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// ImportFiles parses files concurrently and stores them in argument order.
// Unlike StartUploads it is all-or-nothing: if any file is unsupported or
// fails to parse, nothing is stored.
func (s *Service) ImportFiles(ctx context.Context, files []UploadFile) ([]FileRecord, error) {
	var unsupported []string
	for _, f := range files {
		if !IsSupportedType(f.ContentType) {
			unsupported = append(unsupported, f.Name)
		}
	}
	if len(unsupported) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, strings.Join(unsupported, ", "))
	}

	records := make([]FileRecord, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limiter.MaxConcurrent())
	for i, f := range files {
		g.Go(func() error {
			if len(f.Data) == 0 {
				return fmt.Errorf("%s: %w", f.Name, ErrEmptyFile)
			}
			rows, err := s.parser.Parse(gctx, f.Data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", f.Name, err)
			}
			records[i] = FileRecord{Name: f.Name, Rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if err := s.listNames(ctx, files); err != nil {
		return nil, err
	}
	if err := s.storeRecords(ctx, records); err != nil {
		return nil, err
	}
	slog.Info("files imported", "count", len(records), "rows", CountRows(records))
	return records, nil
}

// pruneUploads forgets finished uploads older than retention.
func (s *Service) pruneUploads(retention time.Duration) int {
	cutoff := s.now().Add(-retention)

	s.uploadsMu.Lock()
	defer s.uploadsMu.Unlock()

	pruned := 0
	for id, u := range s.uploads {
		u.mu.Lock()
		old := !u.finished.IsZero() && u.finished.Before(cutoff)
		u.mu.Unlock()
		if old {
			delete(s.uploads, id)
			pruned++
		}
	}
	return pruned
}

