package video

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmaldonado1992/MedVerify/internal/apperr"
	"github.com/dmaldonado1992/MedVerify/internal/auth"
	"github.com/dmaldonado1992/MedVerify/internal/presigned"
	"github.com/dmaldonado1992/MedVerify/internal/storage"
)

// multipartOverhead leaves room for form fields and part headers on top of the
// file size limit.
const multipartOverhead = 1 << 20

// RegisterRoutes mounts video endpoints under /videos.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	videos := router.Group("/videos")
	{
		videos.POST("/upload", handler.upload)
		videos.GET("/list", handler.list)
		videos.GET("/usage", handler.usage)
		videos.GET("/:videoId/url", handler.url)
	}
}

type httpHandler struct {
	service *Service
}

// upload godoc
//
//	@Summary		Upload video
//	@Description	Stores a video for a registered user and returns a 24h link.
//	@Tags			Videos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			video		formData	file	true	"video file"
//	@Param			userId		formData	string	true	"owner user id"
//	@Param			userEmail	formData	string	false	"notification address"
//	@Success		201			{object}	apperr.Envelope
//	@Failure		400			{object}	apperr.Envelope
//	@Failure		413			{object}	apperr.Envelope
//	@Failure		500			{object}	apperr.Envelope
//	@Router			/videos/upload [post]
func (h *httpHandler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxBytes()+multipartOverhead)

	if _, err := c.MultipartForm(); err != nil {
		if isBodyTooLarge(err) {
			apperr.Respond(c, apperr.TooLarge(ErrFileTooLarge.Error()))
			return
		}
		apperr.Respond(c, apperr.Validation("multipart form with a video file is required"))
		return
	}

	userID := strings.TrimSpace(c.PostForm("userId"))
	if userID == "" {
		apperr.Respond(c, toAppError(ErrMissingUserID))
		return
	}
	if err := auth.Authorize(c, userID); err != nil {
		apperr.Respond(c, err)
		return
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		apperr.Respond(c, toAppError(ErrMissingFile))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		apperr.Respond(c, apperr.Upstream("failed to read upload", err))
		return
	}
	defer file.Close()

	result, err := h.service.Upload(c.Request.Context(), UploadInput{
		UserID:      userID,
		UserEmail:   c.PostForm("userEmail"),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}

	apperr.OK(c, http.StatusCreated, "video uploaded", result)
}

// url godoc
//
//	@Summary		Video link
//	@Description	Returns a time-limited GET link for one of the user's videos.
//	@Tags			Videos
//	@Produce		json
//	@Param			videoId	path		string	true	"video id"
//	@Param			userId	query		string	true	"owner user id"
//	@Param			mode	query		string	false	"derived or native"
//	@Success		200		{object}	apperr.Envelope
//	@Failure		400		{object}	apperr.Envelope
//	@Failure		404		{object}	apperr.Envelope
//	@Router			/videos/{videoId}/url [get]
func (h *httpHandler) url(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		apperr.Respond(c, toAppError(ErrMissingUserID))
		return
	}
	if err := auth.Authorize(c, userID); err != nil {
		apperr.Respond(c, err)
		return
	}

	var mode presigned.Mode
	if raw := c.Query("mode"); raw != "" {
		parsed, err := presigned.ParseMode(raw)
		if err != nil {
			apperr.Respond(c, apperr.Validation("mode must be derived or native"))
			return
		}
		mode = parsed
	}

	// Malformed ids cannot belong to anyone.
	videoID, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		apperr.Respond(c, toAppError(ErrVideoNotFound))
		return
	}

	link, err := h.service.URL(c.Request.Context(), userID, videoID, mode)
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}
	apperr.OK(c, http.StatusOK, "", link)
}

// list godoc
//
//	@Summary	List videos
//	@Tags		Videos
//	@Produce	json
//	@Param		userId	query		string	true	"owner user id"
//	@Success	200		{object}	apperr.Envelope
//	@Failure	400		{object}	apperr.Envelope
//	@Router		/videos/list [get]
func (h *httpHandler) list(c *gin.Context) {
	userID := c.Query("userId")
	if err := auth.Authorize(c, userID); err != nil {
		apperr.Respond(c, err)
		return
	}

	videos, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}
	if videos == nil {
		videos = []Summary{}
	}
	apperr.OK(c, http.StatusOK, "", videos)
}

// usage godoc
//
//	@Summary	Storage usage
//	@Tags		Videos
//	@Produce	json
//	@Param		userId	query		string	true	"owner user id"
//	@Success	200		{object}	apperr.Envelope
//	@Failure	400		{object}	apperr.Envelope
//	@Router		/videos/usage [get]
func (h *httpHandler) usage(c *gin.Context) {
	userID := c.Query("userId")
	if err := auth.Authorize(c, userID); err != nil {
		apperr.Respond(c, err)
		return
	}

	usage, err := h.service.Usage(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, toAppError(err))
		return
	}
	apperr.OK(c, http.StatusOK, "", usage)
}

func toAppError(err error) error {
	var storageErr *storage.Error
	switch {
	case errors.Is(err, ErrMissingUserID),
		errors.Is(err, ErrMissingFile),
		errors.Is(err, ErrNotVideo),
		errors.Is(err, ErrUnknownUser):
		return apperr.Validation(err.Error())
	case errors.Is(err, ErrFileTooLarge):
		return apperr.TooLarge(err.Error())
	case errors.Is(err, ErrVideoNotFound):
		return apperr.NotFound(err.Error())
	case errors.Is(err, ErrDuplicateKey):
		return apperr.Conflict(err.Error())
	case errors.As(err, &storageErr):
		return apperr.Upstream("failed to store video", err)
	default:
		return apperr.Upstream("video operation failed", err)
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
