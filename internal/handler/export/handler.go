package export

import (
	"github.com/gin-gonic/gin"

	"github.com/abdulhamidalthaljy/CareConnect/internal/middleware"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/export"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/export_excel", h.Excel)
	r.GET("/export_pdf", h.PDF)
}

func (h *Handler) Excel(c *gin.Context) {
	doc, err := h.svc.Excel(c.Request.Context(), middleware.MustUser(c), c.Query("patient_id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithAttachment(c, doc.ContentType, doc.Filename, doc.Data)
}

func (h *Handler) PDF(c *gin.Context) {
	doc, err := h.svc.PDF(c.Request.Context(), middleware.MustUser(c), c.Query("patient_id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithAttachment(c, doc.ContentType, doc.Filename, doc.Data)
}
