package patient

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abdulhamidalthaljy/CareConnect/internal/handler"
	"github.com/abdulhamidalthaljy/CareConnect/internal/middleware"
	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/clinical"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

// Handler serves a patient's own records. Deletes also accept doctors.
type Handler struct {
	svc *clinical.Service
}

func NewHandler(svc *clinical.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes expects r to require authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patientOnly := middleware.RequireRole(model.RolePatient)

	r.GET("/dashboard", h.Dashboard)
	r.GET("/update_profile", patientOnly, h.GetProfile)
	r.POST("/update_profile", patientOnly, h.UpdateProfile)
	r.POST("/add_medicine", patientOnly, h.AddMedicine)
	r.POST("/delete_medicine/:id", h.DeleteMedicine)
	r.POST("/add_vital", patientOnly, h.AddVital)
	r.POST("/delete_vital/:id", h.DeleteVital)
	r.GET("/api/get_vitals", h.ListVitals)
}

func (h *Handler) Dashboard(c *gin.Context) {
	user := middleware.MustUser(c)
	if user.IsDoctor() {
		c.Redirect(http.StatusFound, "/doctor")
		return
	}

	dash, err := h.svc.Dashboard(c.Request.Context(), user)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, dash)
}

func (h *Handler) GetProfile(c *gin.Context) {
	user := middleware.MustUser(c)
	profile, err := h.svc.GetProfile(c.Request.Context(), user, user.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"profile": profile})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.ProfileRequest
	if !handler.Bind(c, &req) {
		return
	}

	user := middleware.MustUser(c)
	profile, err := h.svc.UpdateProfile(c.Request.Context(), user, user.ID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Profile updated successfully", "profile": profile})
}

func (h *Handler) AddMedicine(c *gin.Context) {
	var req model.MedicineRequest
	if !handler.Bind(c, &req) {
		return
	}

	user := middleware.MustUser(c)
	med, err := h.svc.AddMedicine(c.Request.Context(), user, user.ID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, med)
}

func (h *Handler) DeleteMedicine(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteMedicine(c.Request.Context(), middleware.MustUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Medicine deleted"})
}

func (h *Handler) AddVital(c *gin.Context) {
	var req model.VitalRequest
	if !handler.Bind(c, &req) {
		return
	}

	user := middleware.MustUser(c)
	vital, err := h.svc.AddVital(c.Request.Context(), user, user.ID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, vital)
}

func (h *Handler) DeleteVital(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteVital(c.Request.Context(), middleware.MustUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Vital deleted"})
}

// ListVitals honours ?patient_id= for doctors only.
func (h *Handler) ListVitals(c *gin.Context) {
	var patientID int64
	if raw := strings.TrimSpace(c.Query("patient_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httputil.RespondWithError(c, apperrors.NewBadRequest("Invalid patient id", err))
			return
		}
		patientID = id
	}

	vitals, err := h.svc.ListVitals(c.Request.Context(), middleware.MustUser(c), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, vitals)
}
