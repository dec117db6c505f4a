package postgres

import (
	"context"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type vitalRepository struct {
	BaseRepository
}

func NewVitalRepository(base BaseRepository) repository.VitalRepository {
	return &vitalRepository{base}
}

func (r *vitalRepository) Create(ctx context.Context, vital *model.Vital) error {
	query := `
		INSERT INTO vitals (patient_id, type, value1, value2, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	row := r.db.QueryRowxContext(ctx, query,
		vital.PatientID,
		vital.Type,
		vital.Value1,
		vital.Value2,
		vital.Timestamp,
	)
	return wrap("create vital", row.Scan(&vital.ID))
}

func (r *vitalRepository) Get(ctx context.Context, id int64) (*model.Vital, error) {
	var vital model.Vital
	err := r.db.GetContext(ctx, &vital,
		`SELECT id, patient_id, type, value1, value2, timestamp FROM vitals WHERE id = $1`, id)
	if err != nil {
		return nil, wrap("get vital", err)
	}
	return &vital, nil
}

func (r *vitalRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vitals WHERE id = $1`, id)
	if err != nil {
		return wrap("delete vital", err)
	}
	return expectAffected("delete vital", result)
}

func (r *vitalRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Vital, error) {
	query := `
		SELECT id, patient_id, type, value1, value2, timestamp
		FROM vitals
		WHERE patient_id = $1
		ORDER BY timestamp ASC, id ASC
	`

	vitals := []*model.Vital{}
	if err := r.db.SelectContext(ctx, &vitals, query, patientID); err != nil {
		return nil, wrap("list vitals", err)
	}
	return vitals, nil
}
