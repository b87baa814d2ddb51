package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnp-portal/apiserver/config"
	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/internal/storage"
)

// fakeObjectStorage keeps uploaded objects in memory.
type fakeObjectStorage struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: map[string][]byte{}}
}

func (s *fakeObjectStorage) EnsureBucket(context.Context) error { return nil }

func (s *fakeObjectStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeObjectStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStorage) Bucket() string { return "test-bucket" }

func newUploadFixture() (*UploadService, *fakeObjectStorage) {
	backend := newFakeObjectStorage()
	svc := NewUploadService(storage.NewStorage(backend), config.UploadsConfig{
		MaxResumeBytes: 1 << 20,
		MaxImageBytes:  1 << 20,
	})
	return svc, backend
}

var (
	pdfBytes = []byte("%PDF-1.4\n%test document")
	pngBytes = append([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 32)...)
	jpgBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 32)...)
)

func TestStoreResume(t *testing.T) {
	svc, backend := newUploadFixture()
	ctx := context.Background()

	resume, err := svc.StoreResume(ctx, 7, "My Resume.pdf", pdfBytes)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resume.ObjectKey, "resumes/7/"))
	assert.True(t, strings.HasSuffix(resume.ObjectKey, ".pdf"))
	assert.Equal(t, "My Resume.pdf", resume.Filename)
	assert.Equal(t, "application/pdf", resume.ContentType)
	assert.Equal(t, int64(len(pdfBytes)), resume.Size)
	assert.Equal(t, pdfBytes, backend.objects[resume.ObjectKey])
}

func TestStoreResumeRejectsNonPDF(t *testing.T) {
	svc, _ := newUploadFixture()
	ctx := context.Background()

	// Extension lies, content decides.
	_, err := svc.StoreResume(ctx, 7, "resume.pdf", pngBytes)
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)

	_, err = svc.StoreResume(ctx, 7, "resume.pdf", nil)
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
}

func TestStoreResumeSizeLimit(t *testing.T) {
	svc, _ := newUploadFixture()
	ctx := context.Background()

	big := append([]byte("%PDF-1.4"), make([]byte, 2<<20)...)
	_, err := svc.StoreResume(ctx, 7, "resume.pdf", big)
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
}

func TestStoreImage(t *testing.T) {
	svc, backend := newUploadFixture()
	ctx := context.Background()

	key, err := svc.StoreImage(ctx, 3, "avatars", pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "avatars/3/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Contains(t, backend.objects, key)

	key, err = svc.StoreImage(ctx, 3, "marksheets", jpgBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "marksheets/3/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	_, err = svc.StoreImage(ctx, 3, "avatars", pdfBytes)
	assert.Equal(t, apperr.CodeBadRequest, apperr.From(err).Code)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "resume.pdf", sanitizeFilename("../../etc/resume.pdf"))
	assert.Equal(t, "resume.pdf", sanitizeFilename(`C:\Users\me\resume.pdf`))
	assert.Equal(t, "resume.pdf", sanitizeFilename("resume.pdf"))
	assert.Equal(t, "upload.pdf", sanitizeFilename("/"))
}
