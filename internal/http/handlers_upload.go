package http

import (
	"io"
	"log/slog"
	"net/http"
)

// maxUploadBytes caps image uploads at 10 MB.
const maxUploadBytes = 10 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if !s.requireAuth(w, r) {
		return
	}
	if s.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Reading upload failed", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	url, err := s.uploader.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Blob upload failed", "error", err, "filename", header.Filename, "size", len(data))
		writeError(w, http.StatusBadGateway, "Failed to store upload")
		return
	}

	slog.InfoContext(r.Context(), "Upload stored", "filename", header.Filename, "size", len(data), "url", url)
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
