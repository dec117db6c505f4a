// Package appointment books and transitions patient/doctor appointments.
package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/notification"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
)

var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseStartTime accepts RFC3339 and naive ISO timestamps, read as UTC.
func ParseStartTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.NewBadRequest("Invalid date/time format", nil)
}

type Service struct {
	users    repository.UserRepository
	appts    repository.AppointmentRepository
	notifier notification.Notifier
}

func NewService(users repository.UserRepository, appts repository.AppointmentRepository, notifier notification.Notifier) *Service {
	return &Service{users: users, appts: appts, notifier: notifier}
}

// PatientAppointments is the patient's list plus the doctors to book with.
type PatientAppointments struct {
	Appointments []*model.Appointment `json:"appointments"`
	Doctors      []model.Contact      `json:"doctors"`
}

// DoctorAppointments carries patient usernames keyed by id.
type DoctorAppointments struct {
	Appointments []*model.Appointment `json:"appointments"`
	Patients     map[int64]string     `json:"patients"`
	Status       string               `json:"status"`
}

func (s *Service) Request(ctx context.Context, actor *model.User, req model.AppointmentRequest) (*model.Appointment, error) {
	if !actor.IsPatient() {
		return nil, apperrors.NewForbidden("only patients request appointments")
	}
	start, err := ParseStartTime(req.StartTime)
	if err != nil {
		return nil, err
	}
	doctor, err := s.users.Get(ctx, req.DoctorID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternal(err)
	}
	if err != nil || !doctor.IsDoctor() {
		return nil, apperrors.NewBadRequest("Invalid doctor", err)
	}

	appt := &model.Appointment{
		PatientID: actor.ID,
		DoctorID:  doctor.ID,
		StartTime: start,
		Status:    model.AppointmentStatusPending,
	}
	if err := s.appts.Create(ctx, appt); err != nil {
		return nil, apperrors.NewInternal(err)
	}

	log.Info().Int64("appointment_id", appt.ID).Int64("patient_id", actor.ID).Int64("doctor_id", doctor.ID).Msg("appointment requested")
	s.notifier.AppointmentChanged(ctx, appt, actor, doctor)
	return appt, nil
}

func (s *Service) get(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, apperrors.NewInternal(err)
	}
	return appt, nil
}

// maxTransitionAttempts bounds re-reads after a lost compare-and-set. The
// status graph has two edges, so a third attempt always sees a settled row.
const maxTransitionAttempts = 3

// Confirm moves a pending appointment to confirmed. Only its doctor may.
func (s *Service) Confirm(ctx context.Context, actor *model.User, id int64) (*model.Appointment, error) {
	appt, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsDoctor() || appt.DoctorID != actor.ID {
		return nil, apperrors.NewForbidden("not this appointment's doctor")
	}

	return s.transition(ctx, appt, model.AppointmentStatusConfirmed, func(current model.AppointmentStatus) (bool, error) {
		switch current {
		case model.AppointmentStatusConfirmed:
			return false, nil
		case model.AppointmentStatusCancelled:
			return false, apperrors.NewConflict("Cannot confirm a cancelled appointment", nil)
		}
		return true, nil
	})
}

// Cancel is allowed to either participant from any status.
func (s *Service) Cancel(ctx context.Context, actor *model.User, id int64) (*model.Appointment, error) {
	appt, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Involves(actor.ID) {
		return nil, apperrors.NewForbidden("not a participant")
	}

	return s.transition(ctx, appt, model.AppointmentStatusCancelled, func(current model.AppointmentStatus) (bool, error) {
		return current != model.AppointmentStatusCancelled, nil
	})
}

// transition writes "to" only if the row still holds the status it was read
// with. allow decides, for the current status, whether to write, return the
// row unchanged, or fail. A lost race re-reads the row and decides again.
func (s *Service) transition(
	ctx context.Context,
	appt *model.Appointment,
	to model.AppointmentStatus,
	allow func(model.AppointmentStatus) (bool, error),
) (*model.Appointment, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		apply, err := allow(appt.Status)
		if err != nil {
			return nil, err
		}
		if !apply {
			return appt, nil
		}

		err = s.appts.UpdateStatus(ctx, appt.ID, appt.Status, to)
		switch {
		case err == nil:
			updated, err := s.get(ctx, appt.ID)
			if err != nil {
				return nil, err
			}
			log.Info().Int64("appointment_id", appt.ID).Str("from", string(appt.Status)).Str("to", string(to)).Msg("appointment status changed")
			s.notify(ctx, updated)
			return updated, nil
		case errors.Is(err, repository.ErrStale), errors.Is(err, repository.ErrNotFound):
			log.Debug().Int64("appointment_id", appt.ID).Str("expected", string(appt.Status)).Msg("appointment changed concurrently")
			if appt, err = s.get(ctx, appt.ID); err != nil {
				return nil, err
			}
		default:
			return nil, apperrors.NewInternal(err)
		}
	}
	return nil, apperrors.NewConflict("Appointment changed concurrently, try again", nil)
}

func (s *Service) notify(ctx context.Context, appt *model.Appointment) {
	patient, err := s.users.Get(ctx, appt.PatientID)
	if err != nil {
		log.Warn().Err(err).Int64("appointment_id", appt.ID).Msg("skip notification: patient lookup failed")
		return
	}
	doctor, err := s.users.Get(ctx, appt.DoctorID)
	if err != nil {
		log.Warn().Err(err).Int64("appointment_id", appt.ID).Msg("skip notification: doctor lookup failed")
		return
	}
	s.notifier.AppointmentChanged(ctx, appt, patient, doctor)
}

func (s *Service) ListForPatient(ctx context.Context, actor *model.User) (*PatientAppointments, error) {
	if !actor.IsPatient() {
		return nil, apperrors.NewForbidden("patient role required")
	}
	appts, err := s.appts.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	doctors, err := s.users.ListByRole(ctx, model.RoleDoctor)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	out := &PatientAppointments{Appointments: appts, Doctors: make([]model.Contact, 0, len(doctors))}
	for _, d := range doctors {
		out.Doctors = append(out.Doctors, d.Contact())
	}
	return out, nil
}

// ListForDoctor filters by status; "" and "all" return everything.
func (s *Service) ListForDoctor(ctx context.Context, actor *model.User, status string) (*DoctorAppointments, error) {
	if !actor.IsDoctor() {
		return nil, apperrors.NewForbidden("doctor role required")
	}

	var filter model.AppointmentStatus
	if st := strings.TrimSpace(status); st != "" && !strings.EqualFold(st, "all") {
		parsed, err := model.ParseAppointmentStatus(st)
		if err != nil {
			return nil, apperrors.NewBadRequest("Invalid status filter", err)
		}
		filter = parsed
	}

	appts, err := s.appts.ListByDoctor(ctx, actor.ID, filter)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	patients := make(map[int64]string)
	for _, a := range appts {
		if _, ok := patients[a.PatientID]; ok {
			continue
		}
		p, err := s.users.Get(ctx, a.PatientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, apperrors.NewInternal(err)
		}
		patients[p.ID] = p.Username
	}

	label := string(filter)
	if label == "" {
		label = "all"
	}
	return &DoctorAppointments{Appointments: appts, Patients: patients, Status: label}, nil
}
