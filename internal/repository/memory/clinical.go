package memory

import (
	"context"
	"sort"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type profileRepository struct{ *db }

func (r *profileRepository) Get(_ context.Context, userID int64) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *profileRepository) Upsert(_ context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[profile.UserID]; !ok {
		return repository.ErrNotFound
	}
	if existing, ok := r.profiles[profile.UserID]; ok {
		profile.ID = existing.ID
	} else {
		profile.ID = r.id()
	}
	stored := *profile
	r.profiles[profile.UserID] = &stored
	return nil
}

type medicineRepository struct{ *db }

func (r *medicineRepository) Create(_ context.Context, medicine *model.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[medicine.PatientID]; !ok {
		return repository.ErrNotFound
	}
	medicine.ID = r.id()
	stored := *medicine
	r.medicines[medicine.ID] = &stored
	return nil
}

func (r *medicineRepository) Get(_ context.Context, id int64) (*model.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.medicines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *medicineRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.medicines[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.medicines, id)
	return nil
}

func (r *medicineRepository) ListByPatient(_ context.Context, patientID int64) ([]*model.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Medicine{}
	for _, m := range r.medicines {
		if m.PatientID == patientID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type vitalRepository struct{ *db }

func (r *vitalRepository) Create(_ context.Context, vital *model.Vital) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[vital.PatientID]; !ok {
		return repository.ErrNotFound
	}
	vital.ID = r.id()
	stored := *vital
	r.vitals[vital.ID] = &stored
	return nil
}

func (r *vitalRepository) Get(_ context.Context, id int64) (*model.Vital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vitals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *vitalRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vitals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.vitals, id)
	return nil
}

func (r *vitalRepository) ListByPatient(_ context.Context, patientID int64) ([]*model.Vital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Vital{}
	for _, v := range r.vitals {
		if v.PatientID == patientID {
			copied := *v
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
