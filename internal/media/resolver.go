package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/logger"
	"github.com/mliu/reelgen/internal/prompts"
)

// ImageIndex looks up uploaded image metadata by id.
type ImageIndex interface {
	GetByID(ctx context.Context, id string) (*domain.UploadedImage, error)
}

// ObjectDownloader streams stored objects by key.
type ObjectDownloader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// ImageGenerator produces imagery for AI_GENERATED jobs.
type ImageGenerator interface {
	ExtractKeywords(ctx context.Context, text string, max int) []string
	GenerateImage(ctx context.Context, keyword string) ([]byte, error)
	SearchPhotos(ctx context.Context, query string, count int) ([]string, error)
}

// URLFetcher downloads a remote URL to a local path.
type URLFetcher interface {
	Fetch(ctx context.Context, url, dest string) (string, error)
}

// Resolver turns a request's media references into local image files under
// the job working directory. The media mode decides the strategy and, more
// importantly, the failure policy: explicit user selections never fall back
// to other sources.
type Resolver struct {
	index   ImageIndex
	objects ObjectDownloader
	gen     ImageGenerator
	fetcher URLFetcher
}

// NewResolver creates a media resolver.
func NewResolver(index ImageIndex, objects ObjectDownloader, gen ImageGenerator, fetcher URLFetcher) *Resolver {
	return &Resolver{
		index:   index,
		objects: objects,
		gen:     gen,
		fetcher: fetcher,
	}
}

// Resolve fetches the job's media into workdir and returns the assets in
// on-screen order. count is the desired asset count for generated imagery;
// uploaded and stock modes use exactly the references in the request.
//
// Failure policy by mode:
//   - USER_UPLOADED: any missing or unreadable image fails the whole job
//     with UserMediaUnavailable. No substitution.
//   - STOCK: any unreachable URL fails with StockMediaUnavailable.
//   - AI_GENERATED: generation falls back to photo search per keyword; the
//     job fails with GenerationFailed only when no asset at all could be
//     produced.
func (r *Resolver) Resolve(ctx context.Context, workdir string, req *domain.VideoRequest, count int) ([]domain.MediaAsset, error) {
	switch req.MediaMode {
	case domain.MediaModeUserUploaded:
		return r.resolveUploaded(ctx, workdir, req.ImageIDs)
	case domain.MediaModeStock:
		return r.resolveStock(ctx, workdir, req.StockItems)
	case domain.MediaModeAIGenerated:
		return r.resolveGenerated(ctx, workdir, req.Text, count)
	default:
		return nil, domain.NewPipelineError(domain.ErrInvalidRequest,
			fmt.Sprintf("unknown media mode %q", req.MediaMode), nil)
	}
}

func (r *Resolver) resolveUploaded(ctx context.Context, workdir string, ids []string) ([]domain.MediaAsset, error) {
	assets := make([]domain.MediaAsset, 0, len(ids))
	for i, id := range ids {
		img, err := r.index.GetByID(ctx, id)
		if err != nil {
			return nil, domain.NewPipelineError(domain.ErrUserMediaUnavailable,
				fmt.Sprintf("uploaded image %s not found", id), err)
		}

		body, err := r.objects.Download(ctx, img.StorageKey)
		if err != nil {
			return nil, domain.NewPipelineError(domain.ErrUserMediaUnavailable,
				fmt.Sprintf("uploaded image %s is not readable", id), err)
		}

		dest := filepath.Join(workdir, fmt.Sprintf("media_%03d%s", i, extForContentType(img.ContentType)))
		if err := writeFile(dest, body); err != nil {
			body.Close()
			return nil, domain.NewPipelineError(domain.ErrUserMediaUnavailable,
				fmt.Sprintf("failed to stage uploaded image %s", id), err)
		}
		body.Close()

		assets = append(assets, domain.MediaAsset{
			ID:          id,
			LocalPath:   dest,
			ContentType: img.ContentType,
		})
	}
	return assets, nil
}

func (r *Resolver) resolveStock(ctx context.Context, workdir string, items []domain.StockItem) ([]domain.MediaAsset, error) {
	assets := make([]domain.MediaAsset, 0, len(items))
	for i, item := range items {
		dest := filepath.Join(workdir, fmt.Sprintf("media_%03d.jpg", i))
		contentType, err := r.fetcher.Fetch(ctx, item.URL, dest)
		if err != nil {
			return nil, domain.NewPipelineError(domain.ErrStockMediaUnavailable,
				fmt.Sprintf("stock media %s could not be fetched", item.ID), err)
		}
		assets = append(assets, domain.MediaAsset{
			ID:          item.ID,
			SourceURL:   item.URL,
			LocalPath:   dest,
			ContentType: contentType,
		})
	}
	return assets, nil
}

func (r *Resolver) resolveGenerated(ctx context.Context, workdir, text string, count int) ([]domain.MediaAsset, error) {
	keywords := r.gen.ExtractKeywords(ctx, text, count)
	if len(keywords) == 0 {
		keywords = prompts.FallbackKeywords
	}

	var assets []domain.MediaAsset
	var failed []string
	for i := 0; i < count; i++ {
		keyword := keywords[i%len(keywords)]
		data, err := r.gen.GenerateImage(ctx, keyword)
		if err != nil {
			logger.CtxWarn(ctx, "image generation failed for keyword %q: %v", keyword, err)
			failed = append(failed, keyword)
			continue
		}

		dest := filepath.Join(workdir, fmt.Sprintf("media_%03d.png", i))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return nil, domain.NewPipelineError(domain.ErrInternal,
				"failed to write generated image", err)
		}
		assets = append(assets, domain.MediaAsset{
			ID:          uuid.New().String(),
			LocalPath:   dest,
			ContentType: "image/png",
		})
	}

	// Cover generation misses with photo search before giving up.
	if len(failed) > 0 {
		assets = append(assets, r.searchFallback(ctx, workdir, failed, len(assets))...)
	}

	if len(assets) == 0 {
		return nil, domain.NewPipelineError(domain.ErrGenerationFailed,
			"no imagery could be generated for the request", nil)
	}
	return assets, nil
}

func (r *Resolver) searchFallback(ctx context.Context, workdir string, keywords []string, offset int) []domain.MediaAsset {
	var assets []domain.MediaAsset
	for _, keyword := range keywords {
		urls, err := r.gen.SearchPhotos(ctx, keyword, 1)
		if err != nil || len(urls) == 0 {
			logger.CtxWarn(ctx, "photo search failed for keyword %q: %v", keyword, err)
			continue
		}

		dest := filepath.Join(workdir, fmt.Sprintf("media_%03d.jpg", offset+len(assets)))
		contentType, err := r.fetcher.Fetch(ctx, urls[0], dest)
		if err != nil {
			logger.CtxWarn(ctx, "photo download failed for keyword %q: %v", keyword, err)
			continue
		}
		assets = append(assets, domain.MediaAsset{
			ID:          uuid.New().String(),
			SourceURL:   urls[0],
			LocalPath:   dest,
			ContentType: contentType,
		})
	}
	return assets
}

func writeFile(dest string, body io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func extForContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
