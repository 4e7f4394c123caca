package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

// allowedImageTypes maps sniffed content types to the extension stored on the image host
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ImageFile is a validated upload ready to be sent to the image host
type ImageFile struct {
	Content     []byte
	ContentType string
	Extension   string
}

// ValidateImageFile checks the upload size and extension before the body is read
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
		return nil
	}
	return &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: "Only PNG, JPEG and WEBP images are allowed",
	}
}

// ReadImageFile validates an upload and reads it, confirming the content really is an image
func ReadImageFile(fileHeader *multipart.FileHeader) (*ImageFile, error) {
	if err := ValidateImageFile(fileHeader); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if len(content) > MaxFileSize {
		return nil, &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	contentType := http.DetectContentType(content)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "File content is not a PNG, JPEG or WEBP image",
		}
	}

	return &ImageFile{Content: content, ContentType: contentType, Extension: ext}, nil
}
