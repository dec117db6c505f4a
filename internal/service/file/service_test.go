package file_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository/memory"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/file"
	"github.com/abdulhamidalthaljy/CareConnect/internal/storage"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/metrics"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// countingStore records every call that reaches storage.
type countingStore struct {
	storage.Store
	puts, deletes int
}

func (c *countingStore) Put(ctx context.Context, key string, r io.Reader, size int64, ct string) error {
	c.puts++
	return c.Store.Put(ctx, key, r, size, ct)
}

func (c *countingStore) Delete(ctx context.Context, key string) error {
	c.deletes++
	return c.Store.Delete(ctx, key)
}

type failingFiles struct {
	repository.FileRepository
}

func (failingFiles) Create(context.Context, *model.MedicalFile) error {
	return errors.New("insert failed")
}

type env struct {
	svc     *file.Service
	objects *countingStore
	root    string
	store   repository.Store
	patient *model.User
	other   *model.User
	doctor  *model.User
}

func setup(t *testing.T, maxBytes int64) *env {
	t.Helper()
	root := t.TempDir()
	fs, err := storage.NewFileStore(root)
	require.NoError(t, err)
	objects := &countingStore{Store: fs}

	store := memory.NewStore()
	mk := func(name string, role model.Role) *model.User {
		u := &model.User{Username: name, PasswordHash: "x", Role: role}
		require.NoError(t, store.Users.Create(context.Background(), u))
		return u
	}
	return &env{
		svc:     file.NewService(store.Files, objects, maxBytes, metrics.NewNop()),
		objects: objects,
		root:    root,
		store:   store,
		patient: mk("patient1", model.RolePatient),
		other:   mk("patient2", model.RolePatient),
		doctor:  mk("doctor1", model.RoleDoctor),
	}
}

func assertBadRequest(t *testing.T, err error, msg string) {
	t.Helper()
	appErr := apperrors.As(err)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Equal(t, msg, appErr.Message)
}

func TestUploadRejectsExtensionBeforeStorage(t *testing.T) {
	e := setup(t, 1<<20)

	_, err := e.svc.Upload(context.Background(), e.patient, file.Upload{Filename: "photo.exe", Body: bytes.NewReader(pngBytes(t))})
	assertBadRequest(t, err, file.MsgTypeNotAllowed)

	assert.Zero(t, e.objects.puts)
	entries, err := os.ReadDir(e.root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadStoresPNG(t *testing.T) {
	e := setup(t, 1<<20)
	data := pngBytes(t)

	f, err := e.svc.Upload(context.Background(), e.patient, file.Upload{
		Filename:    `C:\Users\me\photo.PNG`,
		ContentType: "image/png",
		Body:        bytes.NewReader(data),
	})
	require.NoError(t, err)

	assert.Equal(t, "photo.PNG", f.OriginalFilename)
	assert.NotEqual(t, f.OriginalFilename, f.StorageFilename)
	assert.True(t, strings.HasSuffix(f.StorageFilename, ".png"))
	assert.Len(t, f.StorageFilename, 32+len(".png"))
	assert.Equal(t, "image/png", f.ContentType)

	stored, err := os.ReadFile(objectPath(e.root, e.patient.ID, f.StorageFilename))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestUploadTruncatesLongOriginalName(t *testing.T) {
	e := setup(t, 1<<20)

	f, err := e.svc.Upload(context.Background(), e.patient, file.Upload{
		Filename: strings.Repeat("ü", 300) + ".png",
		Body:     bytes.NewReader(pngBytes(t)),
	})
	require.NoError(t, err)

	assert.Equal(t, 255, utf8.RuneCountInString(f.OriginalFilename))
	assert.True(t, strings.HasSuffix(f.OriginalFilename, "ü.png"))
}

func TestUploadRejectsBadContent(t *testing.T) {
	e := setup(t, 1<<20)
	ctx := context.Background()

	_, err := e.svc.Upload(ctx, e.patient, file.Upload{Filename: "scan.png", Body: strings.NewReader("not an image")})
	assertBadRequest(t, err, file.MsgInvalidImage)

	_, err = e.svc.Upload(ctx, e.patient, file.Upload{Filename: "report.pdf", Body: bytes.NewReader(pngBytes(t))})
	assertBadRequest(t, err, file.MsgInvalidPDF)

	_, err = e.svc.Upload(ctx, e.patient, file.Upload{Filename: "scan.jpg", Body: bytes.NewReader(pngBytes(t))})
	assertBadRequest(t, err, file.MsgInvalidImage)

	_, err = e.svc.Upload(ctx, e.patient, file.Upload{Filename: "scan.png", ContentType: "application/pdf", Body: bytes.NewReader(pngBytes(t))})
	assertBadRequest(t, err, file.MsgTypeMismatch)

	_, err = e.svc.Upload(ctx, e.patient, file.Upload{Filename: "", Body: bytes.NewReader(pngBytes(t))})
	assertBadRequest(t, err, file.MsgNoSelectedFile)

	assert.Zero(t, e.objects.puts)
}

func TestUploadAcceptsPDF(t *testing.T) {
	e := setup(t, 1<<20)
	body := "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"

	f, err := e.svc.Upload(context.Background(), e.patient, file.Upload{Filename: "report.pdf", ContentType: "application/pdf; charset=binary", Body: strings.NewReader(body)})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.ContentType)
}

func TestUploadTooLarge(t *testing.T) {
	e := setup(t, 16)

	_, err := e.svc.Upload(context.Background(), e.patient, file.Upload{Filename: "scan.png", Body: bytes.NewReader(pngBytes(t))})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrTooLarge))
	assert.Zero(t, e.objects.puts)
}

func TestUploadRemovesObjectWhenInsertFails(t *testing.T) {
	e := setup(t, 1<<20)
	svc := file.NewService(failingFiles{e.store.Files}, e.objects, 1<<20, metrics.NewNop())

	_, err := svc.Upload(context.Background(), e.patient, file.Upload{Filename: "scan.png", Body: bytes.NewReader(pngBytes(t))})
	require.Error(t, err)
	assert.Equal(t, file.MsgSaveFailed, apperrors.As(err).Message)
	assert.Equal(t, 1, e.objects.puts)
	assert.Equal(t, 1, e.objects.deletes)

	entries, err := os.ReadDir(filepath.Dir(objectPath(e.root, e.patient.ID, "x")))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadRequiresPatient(t *testing.T) {
	e := setup(t, 1<<20)
	_, err := e.svc.Upload(context.Background(), e.doctor, file.Upload{Filename: "scan.png", Body: bytes.NewReader(pngBytes(t))})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}

func TestOpen(t *testing.T) {
	e := setup(t, 1<<20)
	ctx := context.Background()
	data := pngBytes(t)

	f, err := e.svc.Upload(ctx, e.patient, file.Upload{Filename: "scan.png", Body: bytes.NewReader(data)})
	require.NoError(t, err)

	for _, actor := range []*model.User{e.patient, e.doctor} {
		dl, err := e.svc.Open(ctx, actor, f.ID)
		require.NoError(t, err)
		got, err := io.ReadAll(dl.Body)
		require.NoError(t, err)
		require.NoError(t, dl.Body.Close())
		assert.Equal(t, data, got)
		assert.Equal(t, "scan.png", dl.File.OriginalFilename)
	}

	_, err = e.svc.Open(ctx, e.other, f.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))

	_, err = e.svc.Open(ctx, e.patient, 9999)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func objectPath(root string, patientID int64, name string) string {
	return filepath.Join(root, filepath.FromSlash(file.ObjectKey(patientID, name)))
}
