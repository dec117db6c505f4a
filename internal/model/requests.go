package model

type RegisterRequest struct {
	Username        string `form:"username" json:"username" binding:"required,max=150"`
	Email           string `form:"email" json:"email" binding:"omitempty,email"`
	Password        string `form:"password" json:"password" binding:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" binding:"required"`
	Role            string `form:"role" json:"role"`
}

type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type ProfileRequest struct {
	FullName      string `form:"full_name" json:"full_name" binding:"max=200"`
	Address       string `form:"address" json:"address" binding:"max=300"`
	Allergies     string `form:"allergies" json:"allergies"`
	HealthHistory string `form:"health_history" json:"health_history"`
}

type MedicineRequest struct {
	Name   string `form:"name" json:"name" binding:"required,max=200"`
	Dosage string `form:"dosage" json:"dosage" binding:"max=200"`
}

type VitalRequest struct {
	Type   string `form:"type" json:"type" binding:"max=50"`
	Value1 string `form:"value1" json:"value1" binding:"required,max=50,decimal"`
	Value2 string `form:"value2" json:"value2" binding:"omitempty,max=50,decimal"`
}

type AppointmentRequest struct {
	DoctorID  int64  `form:"doctor_id" json:"doctor_id" binding:"required"`
	StartTime string `form:"start_time" json:"start_time" binding:"required"`
}
