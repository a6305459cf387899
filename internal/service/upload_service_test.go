package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

type storageStub struct {
	name     string
	uploaded bytes.Buffer
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	s.name = name
	s.uploaded.Reset()
	_, err := s.uploaded.ReadFrom(reader)
	if err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

func TestUploadServiceRejectsSize(t *testing.T) {
	storage := &storageStub{}
	svc := NewUploadService(storage, 1, testLogger())

	file := buildFileHeader(t, "photo.png", append(pngHeader, bytes.Repeat([]byte("a"), 2*1024*1024)...))

	_, err := svc.UploadImage(context.Background(), devActor, UploadAvatar, file)
	require.ErrorIs(t, err, ErrUploadTooLarge)
	require.ErrorIs(t, err, apperror.ErrValidation)
	require.Zero(t, storage.uploaded.Len())
}

func TestUploadServiceTypeValidation(t *testing.T) {
	svc := NewUploadService(&storageStub{}, 5, testLogger())

	file := buildFileHeader(t, "notes.png", []byte("plain text pretending to be an image"))
	_, err := svc.UploadImage(context.Background(), devActor, UploadAvatar, file)
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)

	_, err = svc.UploadImage(context.Background(), devActor, UploadAvatar, nil)
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUploadServiceRequiresActor(t *testing.T) {
	svc := NewUploadService(&storageStub{}, 5, testLogger())

	_, err := svc.UploadImage(context.Background(), session.Actor{}, UploadAvatar, buildFileHeader(t, "a.png", pngHeader))
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestUploadServiceSuccess(t *testing.T) {
	storage := &storageStub{}
	svc := NewUploadService(storage, 5, testLogger())

	file := buildFileHeader(t, "My Selfie.JPG", pngHeader)

	resp, err := svc.UploadImage(context.Background(), devActor, UploadAvatar, file)
	require.NoError(t, err)
	require.Equal(t, "image/png", resp.ContentType)
	require.Equal(t, int64(len(pngHeader)), resp.Size)
	require.True(t, strings.HasPrefix(storage.name, "avatar/"+devActor.UserID+"-my-selfie-"), storage.name)
	require.True(t, strings.HasSuffix(storage.name, ".png"), storage.name)
	require.Equal(t, "https://cdn.example.com/"+storage.name, resp.URL)
	require.Equal(t, pngHeader, storage.uploaded.Bytes())
}

func TestDiskStorageWritesBelowDir(t *testing.T) {
	dir := t.TempDir()
	storage := DiskStorage{Dir: dir, URLPrefix: "/uploads/"}

	url, err := storage.Upload(context.Background(), "issue/user-1-leak.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.Equal(t, "/uploads/issue/user-1-leak.png", url)

	written, err := os.ReadFile(filepath.Join(dir, "issue", "user-1-leak.png"))
	require.NoError(t, err)
	require.Equal(t, pngHeader, written)
}

func TestSanitizeFileName(t *testing.T) {
	name := sanitizeFileName("../../etc/passwd", ".png")
	require.True(t, strings.HasPrefix(name, "passwd-"), name)
	require.NotContains(t, name, "/")

	require.True(t, strings.HasPrefix(sanitizeFileName("???.gif", ".gif"), "upload-"))
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}
