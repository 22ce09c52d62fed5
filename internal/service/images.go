package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var allowedImageExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// ImageResolver validates raw images and stores them, returning stored paths
type ImageResolver interface {
	// Check validates a payload without storing it and returns its extension.
	Check(field string, payload domain.ImagePayload) (string, error)
	Resolve(ctx context.Context, field string, payload domain.ImagePayload) (string, error)
	// Discard removes stored images on a best-effort basis.
	Discard(ctx context.Context, paths []string)
}

type diskImageResolver struct {
	disk   storage.Disk
	dir    string
	logger *zap.Logger
}

// NewImageResolver stores images on disk below dir
func NewImageResolver(disk storage.Disk, dir string, logger *zap.Logger) ImageResolver {
	return &diskImageResolver{disk: disk, dir: dir, logger: logger}
}

type decodedImage struct {
	ext         string
	contentType string
	data        []byte
}

// decodeImage extracts bytes and extension. The extension comes from the
// filename, else from a data URI media type, else from the content itself.
func decodeImage(field string, payload domain.ImagePayload) (*decodedImage, error) {
	if payload.Empty() {
		return nil, domain.NewInvalidInput(field, nil, "image is required")
	}

	data := payload.Data
	mediaType := ""
	if len(data) == 0 {
		raw := strings.TrimSpace(payload.Base64)
		if strings.HasPrefix(raw, "data:") {
			header, body, ok := strings.Cut(raw, ",")
			if !ok {
				return nil, domain.NewInvalidInput(field, nil, "malformed data uri")
			}
			mediaType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
			raw = body
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, &domain.Error{Code: domain.CodeInvalidInput, Field: field, Message: "image is not valid base64", Err: err}
		}
		data = decoded
	}
	if len(data) == 0 {
		return nil, domain.NewInvalidInput(field, nil, "image is empty")
	}

	var ext string
	switch {
	case payload.Filename != "":
		ext = strings.TrimPrefix(strings.ToLower(filepath.Ext(payload.Filename)), ".")
	case mediaType != "":
		if m := mimetype.Lookup(mediaType); m != nil {
			ext = strings.TrimPrefix(m.Extension(), ".")
		} else {
			ext = mediaType
		}
	default:
		ext = strings.TrimPrefix(mimetype.Detect(data).Extension(), ".")
	}

	contentType, ok := allowedImageExtensions[ext]
	if !ok {
		value := payload.Filename
		if value == "" {
			value = ext
		}
		return nil, domain.NewInvalidImageFormat(field, value)
	}

	return &decodedImage{ext: ext, contentType: contentType, data: data}, nil
}

func (r *diskImageResolver) Check(field string, payload domain.ImagePayload) (string, error) {
	img, err := decodeImage(field, payload)
	if err != nil {
		return "", err
	}
	return img.ext, nil
}

func (r *diskImageResolver) Resolve(ctx context.Context, field string, payload domain.ImagePayload) (string, error) {
	img, err := decodeImage(field, payload)
	if err != nil {
		return "", err
	}

	p := path.Join(r.dir, fmt.Sprintf("%s.%s", uuid.New(), img.ext))
	if err := r.disk.Put(ctx, p, img.data, img.contentType); err != nil {
		return "", domain.NewStorageFailure(fmt.Errorf("failed to store image %s: %w", field, err))
	}

	return p, nil
}

func (r *diskImageResolver) Discard(ctx context.Context, paths []string) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range paths {
		if err := r.disk.Delete(ctx, p); err != nil {
			r.logger.Warn("Failed to discard image", zap.String("path", p), zap.Error(err))
		}
	}
}
