package export_test

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository/memory"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/clinical"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/export"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/metrics"
)

type env struct {
	svc      *export.Service
	store    repository.Store
	patient  *model.User
	patient2 *model.User
	doctor   *model.User
}

func setup(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	mk := func(name string, role model.Role) *model.User {
		u := &model.User{Username: name, PasswordHash: "x", Role: role}
		require.NoError(t, store.Users.Create(context.Background(), u))
		return u
	}
	return &env{
		svc:      export.NewService(store, clinical.NewService(store), metrics.NewNop()),
		store:    store,
		patient:  mk("patient1", model.RolePatient),
		patient2: mk("patient2", model.RolePatient),
		doctor:   mk("doctor1", model.RoleDoctor),
	}
}

func seed(t *testing.T, store repository.Store, patientID int64, vitals int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Profiles.Upsert(ctx, &model.Profile{UserID: patientID, FullName: "Pat One", Address: "1 Main St", Allergies: "pollen"}))
	require.NoError(t, store.Medicines.Create(ctx, &model.Medicine{PatientID: patientID, Name: "Aspirin", Dosage: "100mg"}))
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < vitals; i++ {
		v2 := "80"
		require.NoError(t, store.Vitals.Create(ctx, &model.Vital{
			PatientID: patientID, Type: "bp", Value1: strconv.Itoa(110 + i%20), Value2: &v2,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}
}

func TestResolve(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	self, err := e.svc.Resolve(ctx, e.patient, "")
	require.NoError(t, err)
	assert.Equal(t, e.patient.ID, self.ID)

	_, err = e.svc.Resolve(ctx, e.patient, strconv.FormatInt(e.patient2.ID, 10))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	other, err := e.svc.Resolve(ctx, e.doctor, strconv.FormatInt(e.patient2.ID, 10))
	require.NoError(t, err)
	assert.Equal(t, e.patient2.ID, other.ID)

	_, err = e.svc.Resolve(ctx, e.doctor, "abc")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))

	_, err = e.svc.Resolve(ctx, e.doctor, strconv.FormatInt(e.doctor.ID, 10))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestExcelExport(t *testing.T) {
	e := setup(t)
	seed(t, e.store, e.patient.ID, 3)

	doc, err := e.svc.Excel(context.Background(), e.doctor, strconv.FormatInt(e.patient.ID, 10))
	require.NoError(t, err)
	assert.Equal(t, export.ContentTypeXLSX, doc.ContentType)
	assert.Equal(t, "careconnect_patient_"+strconv.FormatInt(e.patient.ID, 10)+".xlsx", doc.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Profile", "Medicines", "Vitals"}, f.GetSheetList())

	profile, err := f.GetRows("Profile")
	require.NoError(t, err)
	assert.Equal(t, []string{"Username", "patient1"}, profile[1])
	assert.Equal(t, []string{"Full name", "Pat One"}, profile[2])

	meds, err := f.GetRows("Medicines")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Dosage"}, {"Aspirin", "100mg"}}, meds)

	vitals, err := f.GetRows("Vitals")
	require.NoError(t, err)
	require.Len(t, vitals, 4)
	assert.Equal(t, []string{"bp", "110", "80", "2026-01-01T08:00:00Z"}, vitals[1])
}

func TestPDFExportPaginates(t *testing.T) {
	e := setup(t)
	seed(t, e.store, e.patient.ID, 120)

	doc, err := e.svc.PDF(context.Background(), e.patient, "")
	require.NoError(t, err)
	assert.Equal(t, export.ContentTypePDF, doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF")))

	r, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	require.NoError(t, err)
	assert.Greater(t, r.NumPage(), 1)
}

func TestPDFExportEmptyRecord(t *testing.T) {
	e := setup(t)

	doc, err := e.svc.PDF(context.Background(), e.patient, "")
	require.NoError(t, err)

	r, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumPage())

	text, err := r.GetPlainText()
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(text)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No vitals recorded")
}
