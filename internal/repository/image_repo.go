package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mliu/reelgen/internal/domain"
)

// ErrImageNotFound is returned when no uploaded image exists for an id.
var ErrImageNotFound = errors.New("uploaded image not found")

// ImageRepository handles uploaded image records.
type ImageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new ImageRepository.
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts a new uploaded image record.
func (r *ImageRepository) Create(ctx context.Context, img *domain.UploadedImage) error {
	return r.db.WithContext(ctx).Create(img).Error
}

// GetByID retrieves an uploaded image by its id. The id is the primary key,
// so this is an index lookup rather than a scan over stored objects.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: opaque image id assigned at upload time.
// Returns:
//   - *domain.UploadedImage: record if found.
//   - error: ErrImageNotFound if no record exists, other errors on failure.
func (r *ImageRepository) GetByID(ctx context.Context, id string) (*domain.UploadedImage, error) {
	var img domain.UploadedImage
	if err := r.db.WithContext(ctx).First(&img, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &img, nil
}

// ListByUser returns uploaded images belonging to a user, newest first.
func (r *ImageRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.UploadedImage, error) {
	var images []domain.UploadedImage
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&images).Error
	return images, err
}

// Delete removes an uploaded image record.
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.UploadedImage{}, "id = ?", id).Error
}
