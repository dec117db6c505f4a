// Package file validates, stores and serves patient medical files.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/storage"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/metrics"
)

const (
	MsgNoFile         = "No file part"
	MsgNoSelectedFile = "No selected file"
	MsgTypeNotAllowed = "File type not allowed"
	MsgTypeMismatch   = "File content type does not match extension"
	MsgInvalidPDF     = "Invalid PDF file"
	MsgInvalidImage   = "Invalid image file"
	MsgInvalidPath    = "Invalid file path"
	MsgSaveFailed     = "Failed to save file"
)

// Upload is one incoming multipart file.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Download is an opened stored file. Callers close Body.
type Download struct {
	File *model.MedicalFile
	Body io.ReadCloser
}

type Service struct {
	files    repository.FileRepository
	objects  storage.Store
	maxBytes int64
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(files repository.FileRepository, objects storage.Store, maxBytes int64, m *metrics.Metrics) *Service {
	return &Service{
		files:    files,
		objects:  objects,
		maxBytes: maxBytes,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) reject(reason string, err error) error {
	s.metrics.UploadsRejected.WithLabelValues(reason).Inc()
	return err
}

// ObjectKey is the storage key for a stored file of patientID.
func ObjectKey(patientID int64, storageName string) string {
	return fmt.Sprintf("user_%d/%s", patientID, storageName)
}

// Upload validates up, writes its bytes and records the file row. Nothing
// reaches storage until name, extension, size and content all pass.
func (s *Service) Upload(ctx context.Context, actor *model.User, up Upload) (*model.MedicalFile, error) {
	if !actor.IsPatient() {
		return nil, apperrors.NewForbidden("only patients upload files")
	}

	original := sanitizeName(up.Filename)
	if original == "" {
		return nil, s.reject("empty_name", apperrors.NewBadRequest(MsgNoSelectedFile, nil))
	}
	ext := strings.ToLower(filepath.Ext(original))
	if _, ok := allowedTypes[ext]; !ok {
		return nil, s.reject("extension", apperrors.NewBadRequest(MsgTypeNotAllowed, nil))
	}
	if !declaredTypeAllowed(ext, up.ContentType) {
		return nil, s.reject("content_type", apperrors.NewBadRequest(MsgTypeMismatch, nil))
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, s.maxBytes+1))
	if err != nil {
		return nil, apperrors.NewBadRequest("Failed to read upload", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, s.reject("size", apperrors.NewTooLarge(fmt.Sprintf("File exceeds %d bytes", s.maxBytes)))
	}

	contentType, ok := sniff(ext, data)
	if !ok {
		msg := MsgInvalidImage
		if ext == ".pdf" {
			msg = MsgInvalidPDF
		}
		return nil, s.reject("content", apperrors.NewBadRequest(msg, nil))
	}

	storageName := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	key := ObjectKey(actor.ID, storageName)
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		if errors.Is(err, storage.ErrInvalidPath) {
			return nil, s.reject("path", apperrors.NewBadRequest(MsgInvalidPath, err))
		}
		return nil, s.reject("storage", &apperrors.AppError{Code: apperrors.ErrInternal, Message: MsgSaveFailed, Err: err})
	}

	file := &model.MedicalFile{
		PatientID:        actor.ID,
		OriginalFilename: original,
		StorageFilename:  storageName,
		ContentType:      contentType,
		Size:             int64(len(data)),
		UploadTimestamp:  s.now(),
	}
	if err := s.files.Create(ctx, file); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			log.Error().Err(delErr).Str("key", key).Msg("failed to remove orphaned upload")
		}
		return nil, s.reject("storage", &apperrors.AppError{Code: apperrors.ErrInternal, Message: MsgSaveFailed, Err: err})
	}

	s.metrics.FilesUploaded.Inc()
	log.Info().Int64("patient_id", actor.ID).Int64("file_id", file.ID).Int64("size", file.Size).Msg("file uploaded")
	return file, nil
}

// List returns the files of patientID newest first.
func (s *Service) List(ctx context.Context, actor *model.User, patientID int64) ([]*model.MedicalFile, error) {
	if !actor.IsDoctor() && actor.ID != patientID {
		return nil, apperrors.NewForbidden("files of another patient")
	}
	files, err := s.files.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return files, nil
}

// Open serves a file to its owning patient or to any doctor.
func (s *Service) Open(ctx context.Context, actor *model.User, id int64) (*Download, error) {
	file, err := s.files.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("file", err)
		}
		return nil, apperrors.NewInternal(err)
	}
	if !actor.IsDoctor() && file.PatientID != actor.ID {
		return nil, apperrors.NewForbidden("file owned by another patient")
	}

	body, err := s.objects.Open(ctx, ObjectKey(file.PatientID, file.StorageFilename))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFound("file", err)
		}
		return nil, apperrors.NewInternal(err)
	}
	return &Download{File: file, Body: body}, nil
}
