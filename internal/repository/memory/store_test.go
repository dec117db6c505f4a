package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository/memory"
)

func createUser(t *testing.T, store repository.Store, username string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func TestUsernameIsUniqueAndCaseSensitive(t *testing.T) {
	store := memory.NewStore()
	createUser(t, store, "patient1", model.RolePatient)

	err := store.Users.Create(context.Background(), &model.User{Username: "patient1", Role: model.RolePatient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	createUser(t, store, "Patient1", model.RolePatient)
	patients, err := store.Users.ListByRole(context.Background(), model.RolePatient)
	require.NoError(t, err)
	assert.Len(t, patients, 2)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := createUser(t, store, "patient1", model.RolePatient)

	require.NoError(t, store.Profiles.Upsert(ctx, &model.Profile{UserID: p.ID, FullName: "Pat"}))
	require.NoError(t, store.Medicines.Create(ctx, &model.Medicine{PatientID: p.ID, Name: "Aspirin"}))
	require.NoError(t, store.Vitals.Create(ctx, &model.Vital{PatientID: p.ID, Type: "bp", Value1: "120", Timestamp: time.Now()}))
	require.NoError(t, store.Files.Create(ctx, &model.MedicalFile{PatientID: p.ID, StorageFilename: "a.png"}))

	require.NoError(t, store.Users.Delete(ctx, p.ID))

	_, err := store.Profiles.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	meds, _ := store.Medicines.ListByPatient(ctx, p.ID)
	assert.Empty(t, meds)
	vitals, _ := store.Vitals.ListByPatient(ctx, p.ID)
	assert.Empty(t, vitals)
	files, _ := store.Files.ListByPatient(ctx, p.ID)
	assert.Empty(t, files)
}

func TestOwnedRowsNeedExistingPatient(t *testing.T) {
	store := memory.NewStore()
	err := store.Medicines.Create(context.Background(), &model.Medicine{PatientID: 404, Name: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProfileUpsertKeepsID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := createUser(t, store, "patient1", model.RolePatient)

	first := &model.Profile{UserID: p.ID, FullName: "A"}
	require.NoError(t, store.Profiles.Upsert(ctx, first))
	second := &model.Profile{UserID: p.ID, FullName: "B"}
	require.NoError(t, store.Profiles.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	got, err := store.Profiles.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.FullName)
}

func TestConversationOrdering(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	a := createUser(t, store, "patient1", model.RolePatient)
	b := createUser(t, store, "doctor1", model.RoleDoctor)
	c := createUser(t, store, "doctor2", model.RoleDoctor)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Chat.Create(ctx, &model.ChatMessage{SenderID: b.ID, ReceiverID: a.ID, Text: "second", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, store.Chat.Create(ctx, &model.ChatMessage{SenderID: a.ID, ReceiverID: b.ID, Text: "first", Timestamp: base}))
	require.NoError(t, store.Chat.Create(ctx, &model.ChatMessage{SenderID: a.ID, ReceiverID: c.ID, Text: "other", Timestamp: base}))

	msgs, err := store.Chat.ListConversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "second", msgs[1].Text)
}

func TestAppointmentOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := createUser(t, store, "patient1", model.RolePatient)
	d := createUser(t, store, "doctor1", model.RoleDoctor)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	late := &model.Appointment{PatientID: p.ID, DoctorID: d.ID, StartTime: base.Add(48 * time.Hour), Status: model.AppointmentStatusPending}
	early := &model.Appointment{PatientID: p.ID, DoctorID: d.ID, StartTime: base, Status: model.AppointmentStatusPending}
	require.NoError(t, store.Appointments.Create(ctx, late))
	require.NoError(t, store.Appointments.Create(ctx, early))
	require.NoError(t, store.Appointments.UpdateStatus(ctx, early.ID, model.AppointmentStatusPending, model.AppointmentStatusConfirmed))
	assert.ErrorIs(t, store.Appointments.UpdateStatus(ctx, early.ID, model.AppointmentStatusPending, model.AppointmentStatusCancelled), repository.ErrStale)

	forPatient, err := store.Appointments.ListByPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, late.ID, forPatient[0].ID)

	forDoctor, err := store.Appointments.ListByDoctor(ctx, d.ID, "")
	require.NoError(t, err)
	assert.Equal(t, early.ID, forDoctor[0].ID)

	pending, err := store.Appointments.ListByDoctor(ctx, d.ID, model.AppointmentStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, late.ID, pending[0].ID)
}
