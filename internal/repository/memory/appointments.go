package memory

import (
	"context"
	"sort"
	"time"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type appointmentRepository struct{ *db }

func (r *appointmentRepository) Create(_ context.Context, appt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[appt.PatientID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.users[appt.DoctorID]; !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	appt.ID = r.id()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	stored := *appt
	r.appointments[appt.ID] = &stored
	return nil
}

func (r *appointmentRepository) Get(_ context.Context, id int64) (*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *appointmentRepository) UpdateStatus(_ context.Context, id int64, from, to model.AppointmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != from {
		return repository.ErrStale
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *appointmentRepository) ListByPatient(_ context.Context, patientID int64) ([]*model.Appointment, error) {
	out := r.filter(func(a *model.Appointment) bool { return a.PatientID == patientID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *appointmentRepository) ListByDoctor(_ context.Context, doctorID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	out := r.filter(func(a *model.Appointment) bool {
		return a.DoctorID == doctorID && (status == "" || a.Status == status)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *appointmentRepository) filter(keep func(*model.Appointment) bool) []*model.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Appointment{}
	for _, a := range r.appointments {
		if keep(a) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out
}
