package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/utils"
)

// ImageAsset is what the image host returns for a stored image
type ImageAsset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// ImageService handles product image upload and deletion on the image host
type ImageService interface {
	// UploadProductImage validates and stores an image for productID
	UploadProductImage(ctx context.Context, productID uint, fileHeader *multipart.FileHeader) (ImageAsset, error)

	// DeleteImage removes an image from the host
	DeleteImage(ctx context.Context, publicID string) error
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
}

var imageServiceInstance ImageService

// InitImageService initializes the image service with S3 backend
func InitImageService(s3Service S3Interface) ImageService {
	imageServiceInstance = &S3ImageService{
		s3Service: s3Service,
	}
	return imageServiceInstance
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// productImageKey returns products/<id>/<uuid><ext>
func productImageKey(productID uint, ext string) string {
	return fmt.Sprintf("products/%d/%s%s", productID, uuid.NewString(), ext)
}

// UploadProductImage validates the file and uploads it to S3
func (s *S3ImageService) UploadProductImage(ctx context.Context, productID uint, fileHeader *multipart.FileHeader) (ImageAsset, error) {
	img, err := utils.ReadImageFile(fileHeader)
	if err != nil {
		return ImageAsset{}, err
	}

	key := productImageKey(productID, img.Extension)
	if err := s.s3Service.PutObject(ctx, key, img.Content, img.ContentType); err != nil {
		return ImageAsset{}, fmt.Errorf("failed to upload image: %w", err)
	}

	return ImageAsset{URL: s.s3Service.PublicURL(key), PublicID: key}, nil
}

// DeleteImage deletes an image from S3
func (s *S3ImageService) DeleteImage(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	if err := s.s3Service.DeleteObject(ctx, publicID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// PurgeImages deletes hosted images whose records are already gone.
// Failures are logged and do not fail the caller.
func PurgeImages(ctx context.Context, images ImageService, publicIDs ...string) {
	if images == nil {
		return
	}
	for _, id := range publicIDs {
		if err := images.DeleteImage(ctx, id); err != nil {
			zlog.Warn().Err(err).Str("public_id", id).Msg("failed to delete hosted image")
		}
	}
}
