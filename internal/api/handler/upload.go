package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/repository"
	"github.com/mliu/reelgen/internal/uploads"
)

// UploadHandler handles image upload endpoints.
type UploadHandler struct {
	service *uploads.Service
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(service *uploads.Service) *UploadHandler {
	return &UploadHandler{service: service}
}

// uploadedImageView is the wire shape of one stored upload.
type uploadedImageView struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

func viewOf(img *domain.UploadedImage) uploadedImageView {
	return uploadedImageView{
		ID:          img.ID,
		Filename:    img.OriginalFilename,
		ContentType: img.ContentType,
		FileSize:    img.FileSize,
		Width:       img.Width,
		Height:      img.Height,
	}
}

// UploadImages handles POST /api/v1/images. Accepts a multipart form with
// one or more files under the "images" field; the whole batch is rejected if
// any file fails validation.
func (h *UploadHandler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(domain.ErrInvalidRequest, "multipart form is required"))
		return
	}

	files := form.File["images"]
	if err := h.service.CheckBatch(len(files)); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(domain.ErrInvalidRequest, err.Error()))
		return
	}

	userID := c.GetHeader("X-User-ID")

	results := make([]uploadedImageView, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(domain.ErrInvalidRequest, "unreadable file "+fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(domain.ErrInvalidRequest, "unreadable file "+fh.Filename))
			return
		}

		img, err := h.service.Store(c.Request.Context(), userID, fh.Filename, data)
		if err != nil {
			if errors.Is(err, uploads.ErrInvalidUpload) {
				c.JSON(http.StatusBadRequest, errorBody(domain.ErrInvalidRequest, err.Error()))
			} else {
				c.JSON(http.StatusInternalServerError, errorBody(domain.ErrInternal, "failed to store upload"))
			}
			return
		}
		results = append(results, viewOf(img))
	}

	c.JSON(http.StatusCreated, gin.H{"images": results})
}

// DeleteImage handles DELETE /api/v1/images/:id.
func (h *UploadHandler) DeleteImage(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody(domain.ErrInternal, "failed to delete image"))
		return
	}

	c.Status(http.StatusNoContent)
}

// ListImages handles GET /api/v1/images.
func (h *UploadHandler) ListImages(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	images, err := h.service.List(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(domain.ErrInternal, "failed to list uploads"))
		return
	}

	views := make([]uploadedImageView, 0, len(images))
	for i := range images {
		views = append(views, viewOf(&images[i]))
	}
	c.JSON(http.StatusOK, gin.H{"images": views})
}
