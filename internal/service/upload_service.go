package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/observability"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

// Upload purposes, used as the storage prefix and metric label.
const (
	UploadAvatar     = "avatar"
	UploadIssueImage = "issue"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the content is not a supported image.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadService validates and stores user images.
type UploadService interface {
	UploadImage(ctx context.Context, actor session.Actor, purpose string, file *multipart.FileHeader) (dto.UploadResponse, error)
}

type uploadService struct {
	storage FileStorage
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewUploadService constructs an upload service. maxSizeMB defaults to 5.
func NewUploadService(storage FileStorage, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	return &uploadService{
		storage: storage,
		logger:  componentLogger(logger, "upload_service"),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer(tracerPrefix + "upload"),
	}
}

func (s *uploadService) UploadImage(ctx context.Context, actor session.Actor, purpose string, file *multipart.FileHeader) (dto.UploadResponse, error) {
	ctx, err := authorize(ctx, actor)
	if err != nil {
		return dto.UploadResponse{}, err
	}
	ctx, span := s.tracer.Start(ctx, "upload.image", trace.WithAttributes(
		attribute.String("upload.purpose", purpose),
		attribute.Int64("upload.max_bytes", s.maxSize),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.UploadResponse{}, apperror.Validation("file is required")
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)
	if file.Size > s.maxSize {
		return dto.UploadResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.UploadResponse{}, apperror.Wrap(err, apperror.KindValidation, "could not read upload")
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.UploadResponse{}, apperror.Wrap(err, apperror.KindValidation, "could not read upload")
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.UploadResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes()).String()
	span.SetAttributes(attribute.String("upload.detected_mime", detected))
	ext, ok := allowedImageTypes[detected]
	if !ok {
		return dto.UploadResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	name := path.Join(purpose, actor.UserID+"-"+sanitizeFileName(file.Filename, ext))
	url, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.UploadResponse{}, apperror.Wrap(err, apperror.KindServer, "failed to store upload")
	}

	observability.UploadRequests().WithLabelValues(purpose).Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Str("user_id", actor.UserID).Str("purpose", purpose).Int("size", buf.Len()).Msg("image stored")

	return dto.UploadResponse{URL: url, ContentType: detected, Size: int64(buf.Len())}, nil
}

func (s *uploadService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	switch reason {
	case "size":
		return apperror.Wrap(err, apperror.KindValidation, fmt.Sprintf("file too large, max size is %dMB", s.maxSize/(1024*1024)))
	default:
		return apperror.Wrap(err, apperror.KindValidation, "invalid file type, allowed: jpg, png, gif, webp")
	}
}

// sanitizeFileName keeps a lowercase slug of the original name and forces
// the extension of the sniffed content type.
func sanitizeFileName(name, ext string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}
	return base + "-" + uuid.NewString()[:8] + ext
}

// DiskStorage writes uploads below Dir and serves them from URLPrefix.
type DiskStorage struct {
	Dir       string
	URLPrefix string
}

// Upload implements FileStorage.
func (d DiskStorage) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	target := filepath.Join(d.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, reader); err != nil {
		_ = out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(d.URLPrefix, "/") + "/" + name, nil
}
