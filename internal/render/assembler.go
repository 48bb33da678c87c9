package render

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/logger"
)

// Assembler renders per-asset segments concurrently and concatenates them
// into a single silent video. Assembly is all-or-nothing: one failed segment
// fails the whole stage, since a video with silently missing imagery is not
// an acceptable deliverable.
type Assembler struct {
	renderer Renderer
	workers  int
}

// NewAssembler creates an assembler rendering at most workers segments at
// once.
func NewAssembler(renderer Renderer, workers int) *Assembler {
	if workers <= 0 {
		workers = 2
	}
	return &Assembler{renderer: renderer, workers: workers}
}

// Assemble renders all assets and concatenates the segments in asset order.
// Returns the path of the silent video.
func (a *Assembler) Assemble(ctx context.Context, workdir string, assets []domain.MediaAsset) (string, error) {
	if len(assets) == 0 {
		return "", domain.NewPipelineError(domain.ErrAssemblyFailed,
			"no media assets to assemble", nil)
	}

	segments := make([]string, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			path, err := a.renderer.RenderSegment(gctx, workdir, asset, i)
			if err != nil {
				return err
			}
			segments[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", domain.NewPipelineError(domain.ErrAssemblyFailed,
			"segment rendering failed", err)
	}

	logger.CtxDebug(ctx, "rendered %d segments, concatenating", len(segments))

	out, err := a.renderer.Concat(ctx, workdir, segments)
	if err != nil {
		return "", domain.NewPipelineError(domain.ErrAssemblyFailed,
			"segment concatenation failed", err)
	}
	return out, nil
}
