package model

import (
	"fmt"
	"strings"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// ParseAppointmentStatus accepts the three statuses, case-insensitively.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

type Appointment struct {
	ID        int64             `json:"id" db:"id"`
	PatientID int64             `json:"patient_id" db:"patient_id"`
	DoctorID  int64             `json:"doctor_id" db:"doctor_id"`
	StartTime time.Time         `json:"start_time" db:"start_time"`
	Status    AppointmentStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

// Involves reports whether userID is the patient or the doctor.
func (a *Appointment) Involves(userID int64) bool {
	return a.PatientID == userID || a.DoctorID == userID
}
