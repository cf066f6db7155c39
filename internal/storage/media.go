// Package storage uploads issue media to object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"hostel-ts/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// MediaStore puts a file somewhere public and returns its URL.
type MediaStore interface {
	Upload(ctx context.Context, file io.Reader, filename, owner string) (string, error)
}

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cfg config.Config) (*CloudinaryStore, error) {
	if !cfg.MediaEnabled() {
		return nil, errors.New("cloudinary configuration is missing")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: cfg.MediaFolder}, nil
}

// Upload stores file under <folder>/<owner>/<uuid> and returns its https URL.
func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader, filename, owner string) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       ObjectKey(owner, filename),
		Folder:         s.folder,
		ResourceType:   "auto",
		UniqueFilename: boolPtr(false),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload media: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// ObjectKey names an uploaded object: owner directory plus a random name that
// keeps the original extension.
func ObjectKey(owner, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	key := uuid.NewString()
	if ext != "" {
		key += "." + ext
	}
	if owner = strings.Trim(owner, "/ "); owner != "" {
		return owner + "/" + key
	}
	return key
}

func boolPtr(b bool) *bool { return &b }
