package postgres

import (
	"context"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type fileRepository struct {
	BaseRepository
}

func NewFileRepository(base BaseRepository) repository.FileRepository {
	return &fileRepository{base}
}

func (r *fileRepository) Create(ctx context.Context, file *model.MedicalFile) error {
	query := `
		INSERT INTO medical_files (
			patient_id, original_filename, storage_filename,
			content_type, size, upload_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	row := r.db.QueryRowxContext(ctx, query,
		file.PatientID,
		file.OriginalFilename,
		file.StorageFilename,
		file.ContentType,
		file.Size,
		file.UploadTimestamp,
	)
	return wrap("create file", row.Scan(&file.ID))
}

func (r *fileRepository) Get(ctx context.Context, id int64) (*model.MedicalFile, error) {
	query := `
		SELECT id, patient_id, original_filename, storage_filename,
			content_type, size, upload_timestamp
		FROM medical_files
		WHERE id = $1
	`

	var file model.MedicalFile
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		return nil, wrap("get file", err)
	}
	return &file, nil
}

func (r *fileRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medical_files WHERE id = $1`, id)
	if err != nil {
		return wrap("delete file", err)
	}
	return expectAffected("delete file", result)
}

func (r *fileRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.MedicalFile, error) {
	query := `
		SELECT id, patient_id, original_filename, storage_filename,
			content_type, size, upload_timestamp
		FROM medical_files
		WHERE patient_id = $1
		ORDER BY upload_timestamp DESC, id DESC
	`

	files := []*model.MedicalFile{}
	if err := r.db.SelectContext(ctx, &files, query, patientID); err != nil {
		return nil, wrap("list files", err)
	}
	return files, nil
}
