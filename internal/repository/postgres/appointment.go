package postgres

import (
	"context"
	"fmt"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

const appointmentColumns = `id, patient_id, doctor_id, start_time, status, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (patient_id, doctor_id, start_time, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query, appt.PatientID, appt.DoctorID, appt.StartTime, appt.Status)
	return wrap("create appointment", row.Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt))
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return nil, wrap("get appointment", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) error {
	query := `
		UPDATE appointments SET
			status = $1,
			updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return wrap("update appointment", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Either gone or no longer in "from"; the caller re-reads to tell.
		return fmt.Errorf("update appointment: %w", repository.ErrStale)
	}
	return nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY start_time DESC, id DESC
	`

	appts := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appts, query, patientID); err != nil {
		return nil, wrap("list patient appointments", err)
	}
	return appts, nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY start_time ASC, id ASC
	`

	appts := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appts, query, doctorID, string(status)); err != nil {
		return nil, wrap("list doctor appointments", err)
	}
	return appts, nil
}
