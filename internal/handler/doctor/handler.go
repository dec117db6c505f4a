package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abdulhamidalthaljy/CareConnect/internal/handler"
	"github.com/abdulhamidalthaljy/CareConnect/internal/middleware"
	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/clinical"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/httputil"
)

// Handler lets doctors browse and edit any patient's record.
type Handler struct {
	svc *clinical.Service
}

func NewHandler(svc *clinical.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctor := r.Group("/doctor", middleware.RequireRole(model.RoleDoctor))
	{
		doctor.GET("", h.Dashboard)
		doctor.GET("/view/:patient_id", h.ViewPatient)
		doctor.POST("/update_profile/:patient_id", h.UpdateProfile)
		doctor.POST("/add_medicine/:patient_id", h.AddMedicine)
		doctor.POST("/delete_medicine/:med_id", h.DeleteMedicine)
		doctor.POST("/add_vital/:patient_id", h.AddVital)
		doctor.POST("/delete_vital/:vital_id", h.DeleteVital)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	user := middleware.MustUser(c)
	patients, err := h.svc.ListPatients(c.Request.Context(), user)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"user":     user.Contact(),
		"patients": patients,
	})
}

func (h *Handler) ViewPatient(c *gin.Context) {
	patientID, ok := handler.ParamID(c, "patient_id")
	if !ok {
		return
	}
	view, err := h.svc.PatientView(c.Request.Context(), middleware.MustUser(c), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, view)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	patientID, ok := handler.ParamID(c, "patient_id")
	if !ok {
		return
	}
	var req model.ProfileRequest
	if !handler.Bind(c, &req) {
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), middleware.MustUser(c), patientID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Patient profile updated", "profile": profile})
}

func (h *Handler) AddMedicine(c *gin.Context) {
	patientID, ok := handler.ParamID(c, "patient_id")
	if !ok {
		return
	}
	var req model.MedicineRequest
	if !handler.Bind(c, &req) {
		return
	}

	med, err := h.svc.AddMedicine(c.Request.Context(), middleware.MustUser(c), patientID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, med)
}

func (h *Handler) DeleteMedicine(c *gin.Context) {
	id, ok := handler.ParamID(c, "med_id")
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
	patientID, ok := handler.ParamID(c, "patient_id")
	if !ok {
		return
	}
	var req model.VitalRequest
	if !handler.Bind(c, &req) {
		return
	}

	vital, err := h.svc.AddVital(c.Request.Context(), middleware.MustUser(c), patientID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, vital)
}

func (h *Handler) DeleteVital(c *gin.Context) {
	id, ok := handler.ParamID(c, "vital_id")
	if !ok {
		return
	}
	if err := h.svc.DeleteVital(c.Request.Context(), middleware.MustUser(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Vital deleted"})
}
