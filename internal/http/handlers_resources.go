package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/holygrail/holygrail-web/internal/domain/model"
	"github.com/holygrail/holygrail-web/internal/ports"
)

const (
	// maxUploadBytes bounds a single resource upload.
	maxUploadBytes = 32 << 20
	// uploadMemory is how much of a multipart body is held in memory before spilling to disk.
	uploadMemory = 8 << 20

	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// ResourceHandlers passes uploads and leaderboard reads through to the backend
// on behalf of the signed-in user.
type ResourceHandlers struct {
	Backend ports.ResourceBackend
	Logger  *slog.Logger
}

func (h *ResourceHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Upload forwards a multipart upload (title, subject, file).
// POST /api/resources.
func (h *ResourceHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		WriteError(w, ErrorParams{Code: status, ErrCode: "invalid_upload", Err: err})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("file is required"),
			Field:   "file",
		})
		return
	}
	defer file.Close()

	in := model.UploadInput{
		Title:       r.FormValue("title"),
		Subject:     r.FormValue("subject"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}
	res, err := h.Backend.UploadResource(r.Context(), in)
	if err != nil {
		h.logger().WarnContext(r.Context(), "resource upload failed",
			slog.String("filename", header.Filename),
			slog.Any("error", err))
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, res)
}

// Leaderboard lists the top contributors.
// GET /api/leaderboard?limit=N.
func (h *ResourceHandlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Backend.Leaderboard(r.Context(), ParseLimit(r, defaultLeaderboardLimit, maxLeaderboardLimit))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}

// ParseLimit returns the limit query parameter clamped to [1, maxLimit],
// or def when absent or malformed.
func ParseLimit(r *http.Request, def, maxLimit int) int {
	if maxLimit < 1 {
		maxLimit = 1
	}
	lim := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			lim = i
		}
	}
	return min(max(lim, 1), maxLimit)
}
