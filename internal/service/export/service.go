// Package export renders a patient's record as a workbook or PDF report.
package export

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/clinical"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/metrics"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// Document is a rendered export ready to send.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Service struct {
	store    repository.Store
	patients *clinical.Service
	metrics  *metrics.Metrics
}

func NewService(store repository.Store, patients *clinical.Service, m *metrics.Metrics) *Service {
	return &Service{store: store, patients: patients, metrics: m}
}

// Resolve picks the export target. Without a parameter the actor exports
// themselves; naming a patient is reserved to doctors, who may export any
// patient.
func (s *Service) Resolve(ctx context.Context, actor *model.User, patientIDParam string) (*model.User, error) {
	param := strings.TrimSpace(patientIDParam)
	if param == "" {
		return actor, nil
	}
	if !actor.IsDoctor() {
		return nil, apperrors.NewForbidden("only doctors export other records")
	}
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return nil, apperrors.NewBadRequest("Invalid patient id", err)
	}
	return s.patients.LookupPatient(ctx, id)
}

// LoadRecord gathers everything an export shows for patient.
func (s *Service) LoadRecord(ctx context.Context, patient *model.User) (*model.PatientRecord, error) {
	record := &model.PatientRecord{Patient: patient}

	profile, err := s.store.Profiles.Get(ctx, patient.ID)
	switch {
	case err == nil:
		record.Profile = profile
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewInternal(err)
	}

	if record.Medicines, err = s.store.Medicines.ListByPatient(ctx, patient.ID); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	if record.Vitals, err = s.store.Vitals.ListByPatient(ctx, patient.ID); err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return record, nil
}

func (s *Service) Excel(ctx context.Context, actor *model.User, patientIDParam string) (*Document, error) {
	return s.render(ctx, actor, patientIDParam, "xlsx", func(r *model.PatientRecord) (*Document, error) {
		data, err := Workbook(r)
		if err != nil {
			return nil, err
		}
		return &Document{
			Filename:    fmt.Sprintf("careconnect_patient_%d.xlsx", r.Patient.ID),
			ContentType: ContentTypeXLSX,
			Data:        data,
		}, nil
	})
}

func (s *Service) PDF(ctx context.Context, actor *model.User, patientIDParam string) (*Document, error) {
	return s.render(ctx, actor, patientIDParam, "pdf", func(r *model.PatientRecord) (*Document, error) {
		data, err := VitalsReport(r)
		if err != nil {
			return nil, err
		}
		return &Document{
			Filename:    fmt.Sprintf("careconnect_vitals_%d.pdf", r.Patient.ID),
			ContentType: ContentTypePDF,
			Data:        data,
		}, nil
	})
}

func (s *Service) render(ctx context.Context, actor *model.User, param, format string, build func(*model.PatientRecord) (*Document, error)) (*Document, error) {
	patient, err := s.Resolve(ctx, actor, param)
	if err != nil {
		return nil, err
	}
	record, err := s.LoadRecord(ctx, patient)
	if err != nil {
		return nil, err
	}
	doc, err := build(record)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Errorf("render %s: %w", format, err))
	}

	s.metrics.ExportsGenerated.WithLabelValues(format).Inc()
	log.Info().Int64("actor_id", actor.ID).Int64("patient_id", patient.ID).Str("format", format).Msg("export generated")
	return doc, nil
}
