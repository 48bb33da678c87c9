package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrInvalidUpload wraps all upload validation failures so handlers can map
// them to a 400 response.
var ErrInvalidUpload = errors.New("invalid upload")

// ImageInfo is the probed metadata of a validated upload.
type ImageInfo struct {
	Format      string // jpeg, png, gif, webp
	ContentType string
	Width       int
	Height      int
}

// Validator checks upload batches against size and format limits.
type Validator struct {
	maxFiles    int
	maxFileSize int64
}

// NewValidator creates an upload validator. Zero limits fall back to 10
// files of 10MB each.
func NewValidator(maxFiles int, maxFileSize int64) *Validator {
	if maxFiles <= 0 {
		maxFiles = 10
	}
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &Validator{maxFiles: maxFiles, maxFileSize: maxFileSize}
}

// CheckBatch validates the number of files in one upload request.
func (v *Validator) CheckBatch(count int) error {
	if count == 0 {
		return fmt.Errorf("%w: no files provided", ErrInvalidUpload)
	}
	if count > v.maxFiles {
		return fmt.Errorf("%w: at most %d files per request", ErrInvalidUpload, v.maxFiles)
	}
	return nil
}

// CheckImage validates one file's size and decodes its header to confirm it
// is a supported image format. The whole file content is required because
// format sniffing alone is spoofable.
func (v *Validator) CheckImage(filename string, data []byte) (*ImageInfo, error) {
	if int64(len(data)) > v.maxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidUpload, filename, v.maxFileSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidUpload, filename)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a supported image", ErrInvalidUpload, filename)
	}

	return &ImageInfo{
		Format:      format,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
