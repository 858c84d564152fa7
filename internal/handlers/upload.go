package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/userhub/apiserver/internal/storage"
)

const (
	maxUploadBytes = 10 << 20
	formFieldImage = "image"
)

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// UploadHandler stores and serves profile images.
type UploadHandler struct {
	storage storage.ObjectStorage
}

// NewUploadHandler constructs an UploadHandler over the given backend.
func NewUploadHandler(store storage.ObjectStorage) *UploadHandler {
	return &UploadHandler{storage: store}
}

// UploadRouter registers the upload routes on the given router.
func UploadRouter(r chi.Router, store storage.ObjectStorage, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUploadHandler(store)

	r.With(authMiddleware).Post("/", handler.Upload)
	r.Get("/{key}", handler.Serve)
}

// Upload accepts a single image in the "image" multipart field and
// stores it in the object storage bucket.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	contentType, ok := allowedImageTypes[ext]
	if !ok {
		writeError(w, http.StatusBadRequest, "images only (jpg, jpeg, png)")
		return
	}

	key := fmt.Sprintf("%s-%d%s", formFieldImage, time.Now().UnixNano(), ext)
	if err := h.storage.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "image uploaded",
		"image":   "/api/upload/" + key,
	})
}

// Serve streams a previously uploaded image.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	contentType, ok := allowedImageTypes[strings.ToLower(path.Ext(key))]
	if !ok {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	object, err := h.storage.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, object); err != nil {
		return
	}
}
