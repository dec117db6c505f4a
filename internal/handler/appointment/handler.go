package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abdulhamidalthaljy/CareConnect/internal/handler"
	"github.com/abdulhamidalthaljy/CareConnect/internal/middleware"
	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/appointment"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/appointments", middleware.RequireRole(model.RolePatient), h.ListForPatient)
	r.POST("/request_appointment", middleware.RequireRole(model.RolePatient), h.Request)
	r.GET("/doctor/appointments", middleware.RequireRole(model.RoleDoctor), h.ListForDoctor)
	r.POST("/confirm_appointment/:id", middleware.RequireRole(model.RoleDoctor), h.Confirm)
	r.POST("/cancel_appointment/:id", h.Cancel)
}

func (h *Handler) ListForPatient(c *gin.Context) {
	list, err := h.service.ListForPatient(c.Request.Context(), middleware.MustUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) Request(c *gin.Context) {
	var req model.AppointmentRequest
	if !handler.Bind(c, &req) {
		return
	}

	appt, err := h.service.Request(c.Request.Context(), middleware.MustUser(c), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, appt)
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	list, err := h.service.ListForDoctor(c.Request.Context(), middleware.MustUser(c), c.Query("status"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) Confirm(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	appt, err := h.service.Confirm(c.Request.Context(), middleware.MustUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, appt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	appt, err := h.service.Cancel(c.Request.Context(), middleware.MustUser(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, appt)
}
