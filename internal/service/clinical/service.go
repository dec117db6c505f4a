// Package clinical manages patient profiles, medicines and vitals.
//
// A patient may only touch their own records. A doctor may touch the
// records of any patient; there is no doctor-patient linkage.
package clinical

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
)

const (
	msgMissingVitalFields = "Missing required fields"
	msgVitalNotNumeric    = "Vital values must be numeric"
)

type Service struct {
	store repository.Store
	now   func() time.Time
}

func NewService(store repository.Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Dashboard is the landing view for a patient.
type Dashboard struct {
	User         model.Contact        `json:"user"`
	Profile      *model.Profile       `json:"profile"`
	Medicines    []*model.Medicine    `json:"medicines"`
	Vitals       []*model.Vital       `json:"vitals"`
	Files        []*model.MedicalFile `json:"files"`
	Appointments []*model.Appointment `json:"appointments"`
}

// PatientView is what a doctor sees for one patient.
type PatientView struct {
	Patient   model.Contact        `json:"patient"`
	Profile   *model.Profile       `json:"profile"`
	Medicines []*model.Medicine    `json:"medicines"`
	Vitals    []*model.Vital       `json:"vitals"` // newest first
	Files     []*model.MedicalFile `json:"files"`
}

// targetPatient authorizes actor against patientID and returns the patient.
func (s *Service) targetPatient(ctx context.Context, actor *model.User, patientID int64) (*model.User, error) {
	switch actor.Role {
	case model.RolePatient:
		if patientID != actor.ID {
			return nil, apperrors.NewForbidden("patient acting on another patient")
		}
		return actor, nil
	case model.RoleDoctor:
		return s.LookupPatient(ctx, patientID)
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
}

// LookupPatient loads patientID and requires it to be a patient.
func (s *Service) LookupPatient(ctx context.Context, patientID int64) (*model.User, error) {
	user, err := s.store.Users.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("patient", err)
		}
		return nil, apperrors.NewInternal(err)
	}
	if !user.IsPatient() {
		return nil, apperrors.NewNotFound("patient", nil)
	}
	return user, nil
}

// authorizeOwned checks actor may mutate a record owned by ownerID.
func authorizeOwned(actor *model.User, ownerID int64) error {
	switch actor.Role {
	case model.RoleDoctor:
		return nil
	case model.RolePatient:
		if actor.ID == ownerID {
			return nil
		}
	}
	return apperrors.NewForbidden("record owned by another patient")
}

func requireDoctor(actor *model.User) error {
	if !actor.IsDoctor() {
		return apperrors.NewForbidden("doctor role required")
	}
	return nil
}

func (s *Service) Dashboard(ctx context.Context, actor *model.User) (*Dashboard, error) {
	if !actor.IsPatient() {
		return nil, apperrors.NewForbidden("patient role required")
	}

	profile, err := s.profile(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	medicines, err := s.store.Medicines.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	vitals, err := s.store.Vitals.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	files, err := s.store.Files.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	appts, err := s.store.Appointments.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	return &Dashboard{
		User:         actor.Contact(),
		Profile:      profile,
		Medicines:    medicines,
		Vitals:       vitals,
		Files:        files,
		Appointments: appts,
	}, nil
}

// ListPatients returns every patient ordered by username.
func (s *Service) ListPatients(ctx context.Context, actor *model.User) ([]model.Contact, error) {
	if err := requireDoctor(actor); err != nil {
		return nil, err
	}
	users, err := s.store.Users.ListByRole(ctx, model.RolePatient)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	out := make([]model.Contact, 0, len(users))
	for _, u := range users {
		out = append(out, u.Contact())
	}
	return out, nil
}

func (s *Service) PatientView(ctx context.Context, actor *model.User, patientID int64) (*PatientView, error) {
	if err := requireDoctor(actor); err != nil {
		return nil, err
	}
	patient, err := s.LookupPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile(ctx, patient.ID)
	if err != nil {
		return nil, err
	}
	medicines, err := s.store.Medicines.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	vitals, err := s.store.Vitals.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	sort.SliceStable(vitals, func(i, j int) bool { return vitals[i].Timestamp.After(vitals[j].Timestamp) })
	files, err := s.store.Files.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	return &PatientView{
		Patient:   patient.Contact(),
		Profile:   profile,
		Medicines: medicines,
		Vitals:    vitals,
		Files:     files,
	}, nil
}

// profile returns nil without error when the patient has none yet.
func (s *Service) profile(ctx context.Context, userID int64) (*model.Profile, error) {
	p, err := s.store.Profiles.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, actor *model.User, patientID int64) (*model.Profile, error) {
	patient, err := s.targetPatient(ctx, actor, patientID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, patient.ID)
}

func (s *Service) UpdateProfile(ctx context.Context, actor *model.User, patientID int64, req model.ProfileRequest) (*model.Profile, error) {
	patient, err := s.targetPatient(ctx, actor, patientID)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		UserID:        patient.ID,
		FullName:      strings.TrimSpace(req.FullName),
		Address:       strings.TrimSpace(req.Address),
		Allergies:     strings.TrimSpace(req.Allergies),
		HealthHistory: strings.TrimSpace(req.HealthHistory),
	}
	if longerThan(profile.FullName, maxFullNameLen) || longerThan(profile.Address, maxAddressLen) {
		return nil, apperrors.NewBadRequest("Profile field too long", nil)
	}
	if err := s.store.Profiles.Upsert(ctx, profile); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return profile, nil
}

func (s *Service) AddMedicine(ctx context.Context, actor *model.User, patientID int64, req model.MedicineRequest) (*model.Medicine, error) {
	patient, err := s.targetPatient(ctx, actor, patientID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("Medicine name is required", nil)
	}
	medicine := &model.Medicine{
		PatientID: patient.ID,
		Name:      name,
		Dosage:    strings.TrimSpace(req.Dosage),
	}
	if longerThan(medicine.Name, maxMedicineLen) || longerThan(medicine.Dosage, maxMedicineLen) {
		return nil, apperrors.NewBadRequest("Medicine field too long", nil)
	}
	if err := s.store.Medicines.Create(ctx, medicine); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return medicine, nil
}

func (s *Service) DeleteMedicine(ctx context.Context, actor *model.User, id int64) error {
	medicine, err := s.store.Medicines.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("medicine", err)
		}
		return apperrors.NewInternal(err)
	}
	if err := authorizeOwned(actor, medicine.PatientID); err != nil {
		return err
	}
	if err := s.store.Medicines.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("medicine", err)
		}
		return apperrors.NewInternal(err)
	}
	return nil
}

// AddVital validates the decimal values before anything is written.
func (s *Service) AddVital(ctx context.Context, actor *model.User, patientID int64, req model.VitalRequest) (*model.Vital, error) {
	patient, err := s.targetPatient(ctx, actor, patientID)
	if err != nil {
		return nil, err
	}

	vType := strings.TrimSpace(req.Type)
	value1 := strings.TrimSpace(req.Value1)
	value2 := strings.TrimSpace(req.Value2)
	if vType == "" || value1 == "" {
		return nil, apperrors.NewBadRequest(msgMissingVitalFields, nil)
	}
	if !model.IsDecimal(value1) || (value2 != "" && !model.IsDecimal(value2)) {
		return nil, apperrors.NewBadRequest(msgVitalNotNumeric, nil)
	}
	if longerThan(vType, maxVitalFieldLen) || longerThan(value1, maxVitalFieldLen) || longerThan(value2, maxVitalFieldLen) {
		return nil, apperrors.NewBadRequest("Vital field too long", nil)
	}

	vital := &model.Vital{
		PatientID: patient.ID,
		Type:      vType,
		Value1:    value1,
		Timestamp: s.now(),
	}
	if value2 != "" {
		vital.Value2 = &value2
	}
	if err := s.store.Vitals.Create(ctx, vital); err != nil {
		return nil, apperrors.NewInternal(err)
	}

	log.Debug().Int64("patient_id", patient.ID).Int64("vital_id", vital.ID).Msg("vital recorded")
	return vital, nil
}

func (s *Service) DeleteVital(ctx context.Context, actor *model.User, id int64) error {
	vital, err := s.store.Vitals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("vital", err)
		}
		return apperrors.NewInternal(err)
	}
	if err := authorizeOwned(actor, vital.PatientID); err != nil {
		return err
	}
	if err := s.store.Vitals.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("vital", err)
		}
		return apperrors.NewInternal(err)
	}
	return nil
}

// ListVitals returns the actor's own vitals, or those of patientID when
// the actor is a doctor. A zero patientID means "self".
func (s *Service) ListVitals(ctx context.Context, actor *model.User, patientID int64) ([]*model.Vital, error) {
	target := actor.ID
	if patientID != 0 {
		if err := requireDoctor(actor); err != nil {
			return nil, err
		}
		patient, err := s.LookupPatient(ctx, patientID)
		if err != nil {
			return nil, err
		}
		target = patient.ID
	}

	vitals, err := s.store.Vitals.ListByPatient(ctx, target)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return vitals, nil
}

// Column widths, in characters.
const (
	maxFullNameLen   = 200
	maxAddressLen    = 300
	maxMedicineLen   = 200
	maxVitalFieldLen = 50
)

func longerThan(s string, n int) bool {
	return utf8.RuneCountInString(s) > n
}
