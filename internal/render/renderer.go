package render

import (
	"context"

	"github.com/mliu/reelgen/internal/domain"
)

// Renderer abstracts the video encoding backend. The production
// implementation shells out to ffmpeg; tests substitute a fake.
type Renderer interface {
	// RenderSegment encodes one still image into a video segment of the
	// asset's planned duration and returns the segment path.
	RenderSegment(ctx context.Context, workdir string, asset domain.MediaAsset, index int) (string, error)

	// Concat joins segment files in order into a single silent video.
	Concat(ctx context.Context, workdir string, segments []string) (string, error)

	// Mux combines the silent video with narration audio and an optional
	// caption overlay into the final deliverable.
	Mux(ctx context.Context, workdir, videoPath, audioPath string, captions *domain.CaptionPrefs) (string, error)

	// ProbeDuration reports the playable duration of a media file.
	ProbeDuration(ctx context.Context, path string) (float64, error)
}
