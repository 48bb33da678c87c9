package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/logger"
)

// FFmpegRenderer implements Renderer by shelling out to ffmpeg and ffprobe.
type FFmpegRenderer struct {
	ffmpegPath  string
	ffprobePath string
	width       int
	height      int
	fps         int
}

// FFmpegConfig holds configuration for the ffmpeg renderer.
type FFmpegConfig struct {
	FFmpegPath  string
	FFprobePath string
	AspectRatio string // "9:16" or "16:9"
	FPS         int
}

// NewFFmpegRenderer creates an ffmpeg-backed renderer.
func NewFFmpegRenderer(cfg *FFmpegConfig) *FFmpegRenderer {
	ffmpegPath := cfg.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := cfg.FFprobePath
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	fps := cfg.FPS
	if fps <= 0 {
		fps = 30
	}

	width, height := 1080, 1920
	if cfg.AspectRatio == "16:9" {
		width, height = 1920, 1080
	}

	return &FFmpegRenderer{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		width:       width,
		height:      height,
		fps:         fps,
	}
}

// RenderSegment loops one still image into an H.264 segment of the planned
// duration, scaled and padded to the output frame.
func (r *FFmpegRenderer) RenderSegment(ctx context.Context, workdir string, asset domain.MediaAsset, index int) (string, error) {
	out := filepath.Join(workdir, fmt.Sprintf("segment_%03d.mp4", index))
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,format=yuv420p",
		r.width, r.height, r.width, r.height)

	args := []string{
		"-y",
		"-loop", "1",
		"-i", asset.LocalPath,
		"-t", formatSeconds(asset.Duration),
		"-vf", vf,
		"-r", strconv.Itoa(r.fps),
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		out,
	}
	if err := r.run(ctx, r.ffmpegPath, args); err != nil {
		return "", fmt.Errorf("segment %d render failed: %w", index, err)
	}
	return out, nil
}

// Concat joins segments losslessly with the concat demuxer.
func (r *FFmpegRenderer) Concat(ctx context.Context, workdir string, segments []string) (string, error) {
	listPath := filepath.Join(workdir, "segments.txt")
	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "file '%s'\n", s)
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}

	out := filepath.Join(workdir, "video_silent.mp4")
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		out,
	}
	if err := r.run(ctx, r.ffmpegPath, args); err != nil {
		return "", fmt.Errorf("segment concat failed: %w", err)
	}
	return out, nil
}

// Mux merges narration audio into the video. With captions enabled the video
// stream is re-encoded to burn in the drawtext overlay; without them the
// video stream is copied untouched.
func (r *FFmpegRenderer) Mux(ctx context.Context, workdir, videoPath, audioPath string, captions *domain.CaptionPrefs) (string, error) {
	out := filepath.Join(workdir, "final.mp4")
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v",
		"-map", "1:a",
	}
	if filter := captionFilter(captions, r.height); filter != "" {
		args = append(args, "-vf", filter, "-c:v", "libx264", "-preset", "fast", "-pix_fmt", "yuv420p")
	} else {
		args = append(args, "-c:v", "copy")
	}
	args = append(args,
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		out,
	)
	if err := r.run(ctx, r.ffmpegPath, args); err != nil {
		return "", fmt.Errorf("audio mux failed: %w", err)
	}
	return out, nil
}

// ProbeDuration reads the container duration via ffprobe.
func (r *FFmpegRenderer) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, r.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable ffprobe duration %q: %w", strings.TrimSpace(string(output)), err)
	}
	return duration, nil
}

func (r *FFmpegRenderer) run(ctx context.Context, bin string, args []string) error {
	logger.CtxDebug(ctx, "exec %s %s", bin, strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", bin, err, tail(stderr.String(), 500))
	}
	return nil
}

// tail returns at most n trailing bytes of s. ffmpeg stderr is verbose and
// the useful part is at the end.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

func formatSeconds(d float64) string {
	return strconv.FormatFloat(d, 'f', 3, 64)
}
