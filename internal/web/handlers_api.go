package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

// FileSummary describes one listed file in API responses.
type FileSummary struct {
	Name   string           `json:"fileName"`
	Rows   int              `json:"rows"`
	Phase  core.UploadPhase `json:"phase,omitempty"`
	Error  string           `json:"error,omitempty"`
	Stored bool             `json:"stored"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	UploadIDs []string             `json:"uploadIds"`
	Rejected  []string             `json:"rejected,omitempty"`
	Message   string               `json:"message,omitempty"`
	Results   []*core.UploadResult `json:"results,omitempty"`
}

func (s *Server) handleAPIFiles(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)
	names, err := s.service.FileNames(ctx)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	files, err := s.service.Files(ctx)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	entries := fileEntries(names, files, s.service.Uploads())
	stored := make(map[string]bool, len(files))
	for _, f := range files {
		stored[f.Name] = true
	}
	out := make([]FileSummary, len(entries))
	for i, e := range entries {
		out[i] = FileSummary{Name: e.Name, Rows: e.Rows, Phase: e.Phase, Error: e.Error, Stored: stored[e.Name]}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAPISearch returns every file with its rows matching q. An empty q
// matches everything.
func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.Search(requestContext(r), r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if files == nil {
		files = []core.FileRecord{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleAPILedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.service.Ledger(requestContext(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if ledger == nil {
		ledger = core.Ledger{}
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (s *Server) handleAPIUploads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Uploads())
}

func (s *Server) handleAPIUploadStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.UploadStatus(chi.URLParam(r, "uploadID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAPIUploadQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.UploadLimiterStatus())
}

// handleAPIUpload starts parsing the posted files and answers 202 with their
// upload ids. With ?wait=true it answers once every parse has finished.
func (s *Server) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	files, err := s.readUploads(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ctx := requestContext(r)
	ids, rejected, err := s.service.StartUploads(ctx, files)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if len(ids) == 0 {
		s.respondError(w, r, core.ErrUnsupportedFileType, http.StatusUnsupportedMediaType)
		return
	}

	resp := UploadResponse{UploadIDs: ids, Rejected: rejected}
	if len(rejected) > 0 {
		resp.Message = core.UnsupportedTypeMessage
	}

	status := http.StatusAccepted
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		waitCtx, cancel := context.WithTimeout(ctx, uploadGrace)
		defer cancel()
		for _, id := range ids {
			res, err := s.service.WaitForUpload(waitCtx, id)
			if err != nil {
				s.respondError(w, r, err, statusFor(err))
				return
			}
			resp.Results = append(resp.Results, res)
		}
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// handleAPIExport returns the ledger as a PDF; ?note= adds the note row.
func (s *Server) handleAPIExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.exportPDF(requestContext(r), r.URL.Query().Get("note"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.sendPDF(w, r, data)
}
