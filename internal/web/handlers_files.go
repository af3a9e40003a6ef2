package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
	"github.com/MuhammadJuraij/OrderEase/internal/web/templates"
)

// handleHome renders the upload form, the file list and the row browser.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)
	query := r.URL.Query().Get("q")

	names, err := s.service.FileNames(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	files, err := s.service.Files(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	data := templates.HomeData{
		Page:     s.page(r, "Files", "/"),
		Files:    fileEntries(names, files, s.service.Uploads()),
		Records:  core.Filter(files, query),
		Query:    query,
		MaxFiles: s.cfg.Upload.MaxFiles,
	}
	render(w, r, templates.Home(data))
}

// fileEntries pairs every listed name with its row count and, while it has
// no stored rows, the state of its most recent upload.
func fileEntries(names []string, files []core.FileRecord, uploads []core.UploadStatus) []templates.FileEntry {
	rows := make(map[string]int)
	stored := make(map[string]bool)
	for _, f := range files {
		rows[f.Name] += len(f.Rows)
		stored[f.Name] = true
	}
	latest := make(map[string]core.UploadStatus)
	for _, u := range uploads {
		latest[u.FileName] = u
	}

	entries := make([]templates.FileEntry, len(names))
	for i, name := range names {
		e := templates.FileEntry{Name: name, Rows: rows[name]}
		if u, ok := latest[name]; ok && !stored[name] {
			e.Phase = u.Phase
			e.Error = u.Error
		}
		entries[i] = e
	}
	return entries
}

// handleUpload accepts the multipart "files" field, lists the accepted files
// right away and parses them in the background.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	files, err := s.readUploads(w, r)
	if err != nil {
		s.failPage(w, r, err, "/")
		return
	}

	ids, rejected, err := s.service.StartUploads(requestContext(r), files)
	if len(rejected) > 0 {
		s.flashes.push(sessionID(r), rejectedFlash())
	}
	if err != nil {
		s.failPage(w, r, err, "/")
		return
	}
	msg := ""
	if len(ids) > 0 {
		msg = fmt.Sprintf("%d file(s) uploaded.", len(ids))
	}
	s.succeed(w, r, msg, "/")
}

func rejectedFlash() templates.Flash {
	m := core.MapError(core.ErrUnsupportedFileType)
	return templates.Flash{Kind: "error", Message: m.Message, Action: m.Action, Code: m.Code}
}

// readUploads reads every file of the "files" (or "file") form field.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]core.UploadFile, error) {
	limit := s.cfg.Upload.MaxFileSize * int64(max(1, s.cfg.Upload.MaxFiles))
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, core.ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	headers := r.MultipartForm.File["files"]
	headers = append(headers, r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		return nil, core.ErrNoFile
	}
	if s.cfg.Upload.MaxFiles > 0 && len(headers) > s.cfg.Upload.MaxFiles {
		return nil, &core.ValidationError{
			Message: fmt.Sprintf("at most %d files can be uploaded at once", s.cfg.Upload.MaxFiles),
		}
	}

	out := make([]core.UploadFile, 0, len(headers))
	for _, h := range headers {
		if h.Size > s.cfg.Upload.MaxFileSize {
			return nil, fmt.Errorf("%s: %w", h.Filename, core.ErrFileTooLarge)
		}
		data, err := readPart(h)
		if err != nil {
			return nil, err
		}
		out = append(out, core.UploadFile{
			Name:        h.Filename,
			ContentType: uploadType(h),
			Data:        data,
		})
	}
	return out, nil
}

func readPart(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", h.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", h.Filename, err)
	}
	return data, nil
}

// uploadType is the browser-declared type. Clients that send no type or a
// generic binary type get one derived from the file extension.
func uploadType(h *multipart.FileHeader) string {
	ct := h.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		return core.ContentTypeForFile(h.Filename)
	}
	return ct
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	if name == "" {
		s.failPage(w, r, core.ErrNoFile, "/")
		return
	}
	if err := s.service.RemoveFile(requestContext(r), name); err != nil {
		s.failPage(w, r, err, "/")
		return
	}
	s.succeed(w, r, "Removed "+name+".", "/")
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ResetAll(requestContext(r)); err != nil {
		s.failPage(w, r, err, "/")
		return
	}
	s.succeed(w, r, "All files and orders were cleared.", "/")
}
