package memory

import (
	"context"
	"sort"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type fileRepository struct{ *db }

func (r *fileRepository) Create(_ context.Context, file *model.MedicalFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[file.PatientID]; !ok {
		return repository.ErrNotFound
	}
	for _, f := range r.files {
		if f.StorageFilename == file.StorageFilename {
			return repository.ErrDuplicate
		}
	}
	file.ID = r.id()
	stored := *file
	r.files[file.ID] = &stored
	return nil
}

func (r *fileRepository) Get(_ context.Context, id int64) (*model.MedicalFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (r *fileRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

func (r *fileRepository) ListByPatient(_ context.Context, patientID int64) ([]*model.MedicalFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.MedicalFile{}
	for _, f := range r.files {
		if f.PatientID == patientID {
			copied := *f
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadTimestamp.Equal(out[j].UploadTimestamp) {
			return out[i].UploadTimestamp.After(out[j].UploadTimestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
