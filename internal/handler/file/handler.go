package file

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/abdulhamidalthaljy/CareConnect/internal/handler"
	"github.com/abdulhamidalthaljy/CareConnect/internal/middleware"
	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/file"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

type Handler struct {
	svc *file.Service
}

func NewHandler(svc *file.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload_file", middleware.RequireRole(model.RolePatient), h.Upload)
	r.GET("/download_file/:id", h.Download)
}

func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.RespondWithError(c, apperrors.NewTooLarge("File too large"))
			return
		}
		httputil.RespondWithError(c, apperrors.NewBadRequest(file.MsgNoFile, err))
		return
	}

	src, err := fh.Open()
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest(file.MsgNoFile, err))
		return
	}
	defer src.Close()

	stored, err := h.svc.Upload(c.Request.Context(), middleware.MustUser(c), file.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        src,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, gin.H{
		"message":           "File uploaded successfully",
		"file_id":           stored.ID,
		"original_filename": stored.OriginalFilename,
	})
}

// Download streams the file as an attachment under its original name.
func (h *Handler) Download(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	dl, err := h.svc.Open(c.Request.Context(), middleware.MustUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	defer dl.Body.Close()

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.File.OriginalFilename}))
	c.Header("Content-Type", dl.File.ContentType)
	c.Header("Content-Length", fmt.Sprintf("%d", dl.File.Size))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, dl.Body); err != nil {
		log.Warn().Err(err).Int64("file_id", id).Msg("download interrupted")
	}
}
