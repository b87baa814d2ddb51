package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/tnp-portal/apiserver/config"
	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/internal/storage"
	"github.com/tnp-portal/apiserver/types"
)

var pdfMagic = []byte("%PDF-")

// UploadService validates uploaded files and stores them in object
// storage. Resumes must be PDFs; avatars and marksheets must be JPEG or
// PNG images. Extensions are not trusted, content is sniffed.
type UploadService struct {
	storage        *storage.Storage
	maxResumeBytes int64
	maxImageBytes  int64
}

func NewUploadService(store *storage.Storage, cfg config.UploadsConfig) *UploadService {
	return &UploadService{
		storage:        store,
		maxResumeBytes: cfg.MaxResumeBytes,
		maxImageBytes:  cfg.MaxImageBytes,
	}
}

// MaxResumeBytes is the configured resume size ceiling.
func (s *UploadService) MaxResumeBytes() int64 { return s.maxResumeBytes }

// MaxImageBytes is the configured image size ceiling.
func (s *UploadService) MaxImageBytes() int64 { return s.maxImageBytes }

// StoreResume validates and stores a PDF resume for the given student.
func (s *UploadService) StoreResume(ctx context.Context, studentID int, filename string, data []byte) (types.ResumeFile, error) {
	if len(data) == 0 {
		return types.ResumeFile{}, apperr.BadRequest("resume file is empty")
	}
	if int64(len(data)) > s.maxResumeBytes {
		return types.ResumeFile{}, apperr.BadRequest("resume file too large")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return types.ResumeFile{}, apperr.BadRequest("resume must be a PDF")
	}

	key := fmt.Sprintf("resumes/%d/%s.pdf", studentID, uuid.NewString())
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		return types.ResumeFile{}, fmt.Errorf("failed to store resume: %w", err)
	}

	return types.ResumeFile{
		ObjectKey:   key,
		Filename:    sanitizeFilename(filename),
		Size:        int64(len(data)),
		ContentType: "application/pdf",
	}, nil
}

// StoreImage validates and stores an avatar or marksheet image.
// kind becomes the key prefix, e.g. "avatars" or "marksheets".
func (s *UploadService) StoreImage(ctx context.Context, userID int, kind string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.BadRequest("image file is empty")
	}
	if int64(len(data)) > s.maxImageBytes {
		return "", apperr.BadRequest("image file too large")
	}

	contentType := http.DetectContentType(data)
	var ext string
	switch contentType {
	case "image/jpeg":
		ext = "jpg"
	case "image/png":
		ext = "png"
	default:
		return "", apperr.BadRequest("image must be a JPEG or PNG")
	}

	key := fmt.Sprintf("%s/%d/%s.%s", kind, userID, uuid.NewString(), ext)
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return key, nil
}

// Open returns a reader for a stored object.
func (s *UploadService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.storage.Get(ctx, key)
}

// Remove deletes a stored object, for cleaning up uploads whose owning
// record was never created.
func (s *UploadService) Remove(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

// sanitizeFilename strips any path components from an upload filename.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := path.Base(path.Clean(name))
	if base == "." || base == "/" {
		return "upload.pdf"
	}
	return base
}
