package model

import "time"

type MedicalFile struct {
	ID               int64     `json:"id" db:"id"`
	PatientID        int64     `json:"patient_id" db:"patient_id"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	StorageFilename  string    `json:"-" db:"storage_filename"`
	ContentType      string    `json:"content_type" db:"content_type"`
	Size             int64     `json:"size" db:"size"`
	UploadTimestamp  time.Time `json:"upload_timestamp" db:"upload_timestamp"`
}
