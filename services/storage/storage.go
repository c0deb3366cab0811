package storage

import (
	"bytes"
	"context"
	"fmt"

	"reservo/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// StorageServiceImpl stores evidence on Cloudinary.
type StorageServiceImpl struct {
	cld    *cloudinary.Cloudinary
	logger *zap.Logger
}

// NewStorageService creates a new StorageServiceImpl from a cloudinary:// URL.
func NewStorageService(cloudinaryURL string, logger *zap.Logger) (StorageService, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &StorageServiceImpl{cld: cld, logger: logger}, nil
}

// UploadEvidence uploads a file under the booking's folder and returns its secure URL.
func (s *StorageServiceImpl) UploadEvidence(ctx context.Context, bookingID string, file models.EvidenceUpload) (*StoredFile, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("StorageServiceImpl: empty file %q", file.Filename)
	}
	sum := Checksum(file.Data)
	publicID := publicIDFor(bookingID, sum)

	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(file.Data), uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: "auto",
		Overwrite:    api.Bool(true),
		Context:      api.CldAPIMap{"caption": file.Caption, "filename": file.Filename},
	})
	if err != nil {
		return nil, fmt.Errorf("StorageServiceImpl: failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("StorageServiceImpl: upload rejected: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return nil, fmt.Errorf("StorageServiceImpl: no secure URL returned")
	}
	s.logger.Debug("Evidence uploaded", zap.String("bookingId", bookingID), zap.String("publicId", result.PublicID))
	return &StoredFile{Ref: result.SecureURL, PublicID: result.PublicID, Checksum: sum}, nil
}

// DeleteFile deletes a file from Cloudinary given its public ID.
func (s *StorageServiceImpl) DeleteFile(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("StorageServiceImpl: failed to delete file: %w", err)
	}
	return nil
}
