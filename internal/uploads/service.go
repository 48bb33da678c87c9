package uploads

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/logger"
	"github.com/mliu/reelgen/internal/repository"
	"github.com/mliu/reelgen/internal/storage"
)

// Service stores validated image uploads and records them in the index so
// video jobs can reference them by id.
type Service struct {
	repo      *repository.ImageRepository
	objects   storage.ObjectStorage
	validator *Validator
}

// NewService creates an upload service.
func NewService(repo *repository.ImageRepository, objects storage.ObjectStorage, validator *Validator) *Service {
	return &Service{repo: repo, objects: objects, validator: validator}
}

// Store validates one file, writes it to object storage, and indexes it.
// Returns the indexed record whose id callers pass in video requests.
func (s *Service) Store(ctx context.Context, userID, filename string, data []byte) (*domain.UploadedImage, error) {
	info, err := s.validator.CheckImage(filename, data)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := fmt.Sprintf("user_uploads/%s/%s.%s", time.Now().UTC().Format("2006/01/02"), id, info.Format)
	if err := s.objects.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), info.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	img := &domain.UploadedImage{
		ID:               id,
		UserID:           userID,
		OriginalFilename: filename,
		StorageKey:       key,
		ContentType:      info.ContentType,
		FileSize:         int64(len(data)),
		Width:            info.Width,
		Height:           info.Height,
	}
	if err := s.repo.Create(ctx, img); err != nil {
		// Keep storage and index consistent; the object is orphaned
		// otherwise.
		if derr := s.objects.Delete(ctx, key); derr != nil {
			logger.CtxWarn(ctx, "failed to delete orphaned upload %s: %v", key, derr)
		}
		return nil, fmt.Errorf("failed to index upload: %w", err)
	}

	logger.CtxInfo(ctx, "stored upload %s (%dx%d, %d bytes)", id, info.Width, info.Height, len(data))
	return img, nil
}

// List returns a user's uploads, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]domain.UploadedImage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// Delete removes an upload from both the index and object storage.
func (s *Service) Delete(ctx context.Context, id string) error {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, img.StorageKey); err != nil {
		return fmt.Errorf("failed to delete stored object: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

// CheckBatch validates the file count of one upload request.
func (s *Service) CheckBatch(count int) error {
	return s.validator.CheckBatch(count)
}
