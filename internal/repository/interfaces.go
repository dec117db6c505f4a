package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrDuplicateEmail is the ErrDuplicate raised by the users email key.
	ErrDuplicateEmail = fmt.Errorf("email: %w", ErrDuplicate)
	// ErrStale reports a compare-and-set that found the row in another state.
	ErrStale = errors.New("record changed concurrently")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)
		Delete(ctx context.Context, id int64) error
	}

	ProfileRepository interface {
		Get(ctx context.Context, userID int64) (*model.Profile, error)
		Upsert(ctx context.Context, profile *model.Profile) error
	}

	MedicineRepository interface {
		Create(ctx context.Context, medicine *model.Medicine) error
		Get(ctx context.Context, id int64) (*model.Medicine, error)
		Delete(ctx context.Context, id int64) error
		ListByPatient(ctx context.Context, patientID int64) ([]*model.Medicine, error)
	}

	VitalRepository interface {
		Create(ctx context.Context, vital *model.Vital) error
		Get(ctx context.Context, id int64) (*model.Vital, error)
		Delete(ctx context.Context, id int64) error
		// ListByPatient returns vitals oldest first.
		ListByPatient(ctx context.Context, patientID int64) ([]*model.Vital, error)
	}

	FileRepository interface {
		Create(ctx context.Context, file *model.MedicalFile) error
		Get(ctx context.Context, id int64) (*model.MedicalFile, error)
		Delete(ctx context.Context, id int64) error
		// ListByPatient returns files newest first.
		ListByPatient(ctx context.Context, patientID int64) ([]*model.MedicalFile, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		// UpdateStatus moves the appointment to "to" only while its status
		// is still "from". A row in any other state yields ErrStale.
		UpdateStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) error
		// ListByPatient returns appointments latest start first.
		ListByPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error)
		// ListByDoctor returns appointments earliest start first; an empty
		// status matches every status.
		ListByDoctor(ctx context.Context, doctorID int64, status model.AppointmentStatus) ([]*model.Appointment, error)
	}

	ChatRepository interface {
		Create(ctx context.Context, message *model.ChatMessage) error
		// ListConversation returns messages exchanged between a and b in
		// either direction, oldest first.
		ListConversation(ctx context.Context, a, b int64) ([]*model.ChatMessage, error)
	}
)

// Store bundles every repository behind one backend.
type Store struct {
	Users        UserRepository
	Profiles     ProfileRepository
	Medicines    MedicineRepository
	Vitals       VitalRepository
	Files        FileRepository
	Appointments AppointmentRepository
	Chat         ChatRepository

	// Ping reports backend health for readiness checks.
	Ping func(ctx context.Context) error
}
