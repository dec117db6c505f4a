package postgres

import (
	"context"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type medicineRepository struct {
	BaseRepository
}

func NewMedicineRepository(base BaseRepository) repository.MedicineRepository {
	return &medicineRepository{base}
}

func (r *medicineRepository) Create(ctx context.Context, medicine *model.Medicine) error {
	query := `
		INSERT INTO medicines (patient_id, name, dosage)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	row := r.db.QueryRowxContext(ctx, query, medicine.PatientID, medicine.Name, medicine.Dosage)
	return wrap("create medicine", row.Scan(&medicine.ID))
}

func (r *medicineRepository) Get(ctx context.Context, id int64) (*model.Medicine, error) {
	var medicine model.Medicine
	err := r.db.GetContext(ctx, &medicine,
		`SELECT id, patient_id, name, dosage FROM medicines WHERE id = $1`, id)
	if err != nil {
		return nil, wrap("get medicine", err)
	}
	return &medicine, nil
}

func (r *medicineRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return wrap("delete medicine", err)
	}
	return expectAffected("delete medicine", result)
}

func (r *medicineRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.Medicine, error) {
	query := `
		SELECT id, patient_id, name, dosage
		FROM medicines
		WHERE patient_id = $1
		ORDER BY id
	`

	medicines := []*model.Medicine{}
	if err := r.db.SelectContext(ctx, &medicines, query, patientID); err != nil {
		return nil, wrap("list medicines", err)
	}
	return medicines, nil
}
