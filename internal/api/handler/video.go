package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/status"
	"github.com/mliu/reelgen/internal/video"
)

// VideoHandler handles video generation endpoints.
type VideoHandler struct {
	orchestrator *video.Orchestrator
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(orchestrator *video.Orchestrator) *VideoHandler {
	return &VideoHandler{orchestrator: orchestrator}
}

// createVideoRequest is the wire shape of POST /api/v1/videos. Older clients
// send script/media_source/images; both spellings are accepted and folded
// into the canonical request before submission.
type createVideoRequest struct {
	MediaMode       domain.MediaMode    `json:"media_mode"`
	MediaSource     domain.MediaMode    `json:"media_source"` // legacy alias
	Text            string              `json:"text"`
	Script          string              `json:"script"` // legacy alias
	SegmentCount    int                 `json:"segment_count"`
	DurationSeconds int                 `json:"duration_seconds"`
	Voice           string              `json:"voice"`
	ImageIDs        []string            `json:"image_ids"`
	Images          []string            `json:"images"` // legacy alias
	StockItems      []domain.StockItem  `json:"stock_items"`
	Captions        domain.CaptionPrefs `json:"captions"`
}

func (r *createVideoRequest) canonical() *domain.VideoRequest {
	mode := r.MediaMode
	if mode == "" {
		mode = r.MediaSource
	}
	text := r.Text
	if text == "" {
		text = r.Script
	}
	imageIDs := r.ImageIDs
	if len(imageIDs) == 0 {
		imageIDs = r.Images
	}
	return &domain.VideoRequest{
		MediaMode:       mode,
		Text:            text,
		SegmentCount:    r.SegmentCount,
		DurationSeconds: r.DurationSeconds,
		Voice:           r.Voice,
		ImageIDs:        imageIDs,
		StockItems:      r.StockItems,
		Captions:        r.Captions,
	}
}

// CreateVideo handles POST /api/v1/videos. Accepted jobs return 202 with the
// job id; clients poll the status endpoint for the outcome.
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	var req createVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(domain.ErrInvalidRequest, "malformed request body"))
		return
	}

	jobID, err := h.orchestrator.Submit(c.Request.Context(), req.canonical())
	if err != nil {
		kind := domain.KindOf(err)
		code := http.StatusInternalServerError
		if kind == domain.ErrInvalidRequest {
			code = http.StatusBadRequest
		}
		c.JSON(code, errorBody(kind, errorMessage(err)))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// GetVideoStatus handles GET /api/v1/videos/:id/status.
func (h *VideoHandler) GetVideoStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, errorBody(domain.ErrInvalidRequest, "job id is required"))
		return
	}

	rec, err := h.orchestrator.GetStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody(domain.ErrInternal, "status lookup failed"))
		return
	}

	c.JSON(http.StatusOK, rec)
}

func errorBody(kind domain.ErrorKind, message string) gin.H {
	return gin.H{"error": gin.H{"kind": kind, "message": message}}
}

func errorMessage(err error) string {
	var pe *domain.PipelineError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
