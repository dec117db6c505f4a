package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

type Profile struct {
	ID            int64  `json:"id" db:"id"`
	UserID        int64  `json:"user_id" db:"user_id"`
	FullName      string `json:"full_name" db:"full_name"`
	Address       string `json:"address" db:"address"`
	Allergies     string `json:"allergies" db:"allergies"`
	HealthHistory string `json:"health_history" db:"health_history"`
}

type Medicine struct {
	ID        int64  `json:"id" db:"id"`
	PatientID int64  `json:"patient_id" db:"patient_id"`
	Name      string `json:"name" db:"name"`
	Dosage    string `json:"dosage" db:"dosage"`
}

// Vital is one measurement. Values are kept as the submitted decimal strings.
type Vital struct {
	ID        int64     `json:"id" db:"id"`
	PatientID int64     `json:"patient_id" db:"patient_id"`
	Type      string    `json:"type" db:"type"`
	Value1    string    `json:"value1" db:"value1"`
	Value2    *string   `json:"value2" db:"value2"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Reading formats the values as "v1" or "v1/v2".
func (v Vital) Reading() string {
	if v.Value2 != nil && *v.Value2 != "" {
		return v.Value1 + "/" + *v.Value2
	}
	return v.Value1
}

// IsDecimal reports whether s parses as a finite decimal number.
func IsDecimal(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// PatientRecord aggregates everything exported for one patient.
type PatientRecord struct {
	Patient   *User
	Profile   *Profile
	Medicines []*Medicine
	Vitals    []*Vital // ascending by timestamp
}
