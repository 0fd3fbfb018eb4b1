package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rooklabs/marquee/internal/models"
	"github.com/rooklabs/marquee/internal/services"
	pkghttp "github.com/rooklabs/marquee/pkg/http"
)

// UploadServiceInterface defines the object storage operations
type UploadServiceInterface interface {
	UploadImage(ctx context.Context, body io.Reader, filename, contentType string, size int64, folder string) (*services.UploadResult, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// UploadHandler handles image upload HTTP requests
type UploadHandler struct {
	service       UploadServiceInterface
	maxUploadSize int64
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(service UploadServiceInterface, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{service: service, maxUploadSize: maxUploadSize}
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Upload stores a multipart image and returns its key and URL
// @Summary Upload an image
// @Description Accepts a multipart form with a "file" field and stores it as a banner image.
// @Tags uploads
// @Accept multipart/form-data
// @Param file formData file true "Image file (jpeg, png or webp)"
// @Produce json
// @Success 201 {object} services.UploadResult
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 413 {object} pkghttp.ErrorResponse
// @Security BearerAuth
// @Router /uploads [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkghttp.WriteError(w, http.StatusRequestEntityTooLarge,
				"payload_too_large", "File exceeds the upload size limit")
			return
		}
		pkghttp.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[strings.ToLower(contentType)] {
		pkghttp.WriteBadRequest(w, "Only jpeg, png and webp images are accepted")
		return
	}

	result, err := h.service.UploadImage(r.Context(), file, header.Filename, contentType, header.Size, "banners")
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Invalid file")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to store file")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, result)
}

// PresignDownload returns a short-lived download URL for a stored object
// @Summary Presign a download
// @Tags uploads
// @Param key query string true "Object key returned by the upload endpoint"
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} pkghttp.ErrorResponse
// @Security BearerAuth
// @Router /uploads/presign [get]
func (h *UploadHandler) PresignDownload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		pkghttp.WriteBadRequest(w, "Missing key parameter")
		return
	}

	url, err := h.service.PresignDownload(r.Context(), key)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Invalid key")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to presign URL")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Delete removes a stored object
// @Summary Delete an uploaded image
// @Tags uploads
// @Param key query string true "Object key returned by the upload endpoint"
// @Success 204 "No Content"
// @Failure 400 {object} pkghttp.ErrorResponse
// @Security BearerAuth
// @Router /uploads [delete]
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		pkghttp.WriteBadRequest(w, "Missing key parameter")
		return
	}

	if err := h.service.DeleteObject(r.Context(), key); err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Invalid key")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to delete file")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
