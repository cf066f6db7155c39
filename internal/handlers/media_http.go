package handlers

import (
	"net/http"
	"path"

	"github.com/rs/zerolog"

	"hostel-ts/internal/middleware"
	"hostel-ts/internal/storage"
	"hostel-ts/internal/utils"
)

const maxUploadBytes = 10 << 20

type MediaHTTP struct {
	store storage.MediaStore
	log   zerolog.Logger
}

// NewMediaHTTP accepts a nil store; uploads then answer 503.
func NewMediaHTTP(store storage.MediaStore, log zerolog.Logger) *MediaHTTP {
	return &MediaHTTP{store: store, log: log}
}

// POST /api/media (multipart field "file")
func (h *MediaHTTP) Upload() http.HandlerFunc { return h.UploadTo("") }

// UploadTo stores files under folder/<userId> instead of <userId>.
func (h *MediaHTTP) UploadTo(folder string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			utils.Error(w, http.StatusServiceUnavailable, "media uploads are not configured")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, hdr, err := r.FormFile("file")
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		uid, _ := middleware.Identity(r)
		url, err := h.store.Upload(r.Context(), file, hdr.Filename, path.Join(folder, uid))
		if err != nil {
			h.log.Error().Err(err).Str("user", uid).Str("folder", folder).Msg("media upload failed")
			utils.Error(w, http.StatusBadGateway, "upload failed")
			return
		}
		utils.JSON(w, http.StatusCreated, map[string]string{"url": url})
	}
}
