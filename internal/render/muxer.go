package render

import (
	"context"

	"github.com/mliu/reelgen/internal/domain"
)

// Muxer merges narration audio and the optional caption overlay into the
// assembled video. Caption preferences with no usable chunks degrade to a
// plain mux; a broken caption filter must not block delivery of the video.
type Muxer struct {
	renderer Renderer
}

// NewMuxer creates a muxer on top of the given renderer.
func NewMuxer(renderer Renderer) *Muxer {
	return &Muxer{renderer: renderer}
}

// Mux produces the final deliverable and returns its path.
func (m *Muxer) Mux(ctx context.Context, workdir, videoPath string, narration *domain.NarrationResult, captions *domain.CaptionPrefs) (string, error) {
	out, err := m.renderer.Mux(ctx, workdir, videoPath, narration.AudioPath, captions)
	if err != nil {
		return "", domain.NewPipelineError(domain.ErrAssemblyFailed,
			"final mux failed", err)
	}
	return out, nil
}
