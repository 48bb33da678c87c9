package video

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/storage"
)

// StoragePublisher uploads finished videos to object storage and returns a
// time-limited signed URL for the client to download the artifact.
type StoragePublisher struct {
	objects storage.ObjectStorage
	signTTL time.Duration
}

// NewStoragePublisher creates a publisher signing URLs for signTTL.
func NewStoragePublisher(objects storage.ObjectStorage, signTTL time.Duration) *StoragePublisher {
	if signTTL <= 0 {
		signTTL = 24 * time.Hour
	}
	return &StoragePublisher{objects: objects, signTTL: signTTL}
}

// Publish uploads the rendered file under videos/<jobID>.mp4 and returns a
// signed GET URL.
func (p *StoragePublisher) Publish(ctx context.Context, jobID, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", domain.NewPipelineError(domain.ErrPublishFailed,
			"rendered video is not readable", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", domain.NewPipelineError(domain.ErrPublishFailed,
			"rendered video is not readable", err)
	}

	key := fmt.Sprintf("videos/%s.mp4", jobID)
	if err := p.objects.Upload(ctx, key, f, info.Size(), "video/mp4"); err != nil {
		return "", domain.NewPipelineError(domain.ErrPublishFailed,
			"video upload failed", err)
	}

	url, err := p.objects.PresignURL(ctx, key, p.signTTL)
	if err != nil {
		return "", domain.NewPipelineError(domain.ErrPublishFailed,
			"failed to sign artifact URL", err)
	}
	return url, nil
}
