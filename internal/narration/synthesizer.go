package narration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/logger"
)

// DurationProber reports the playable duration of a media file in seconds.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Synthesizer renders narration audio through an OpenAI-compatible speech
// endpoint. Narration failures are always fatal for the job; a silent or
// text-only fallback is worse than an honest error.
type Synthesizer struct {
	client       *resty.Client
	endpoint     string
	model        string
	defaultVoice string
	prober       DurationProber
}

// Config holds configuration for the narration synthesizer.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Voice   string
}

// NewSynthesizer creates a narration synthesizer.
func NewSynthesizer(cfg *Config, prober DurationProber) *Synthesizer {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetTimeout(120 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	voice := cfg.Voice
	if voice == "" {
		voice = "alloy"
	}

	return &Synthesizer{
		client:       client,
		endpoint:     baseURL,
		model:        cfg.Model,
		defaultVoice: voice,
		prober:       prober,
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize renders text to narration.mp3 under workdir and probes its
// duration. voice overrides the configured default when non-empty.
func (s *Synthesizer) Synthesize(ctx context.Context, workdir, text, voice string) (*domain.NarrationResult, error) {
	if voice == "" {
		voice = s.defaultVoice
	}
	audioPath := filepath.Join(workdir, "narration.mp3")

	req := speechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: "mp3",
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetOutput(audioPath).
		Post(s.endpoint + "/audio/speech")
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrNarrationFailed,
			"speech synthesis request failed", err)
	}
	if resp.IsError() {
		os.Remove(audioPath)
		return nil, domain.NewPipelineError(domain.ErrNarrationFailed,
			fmt.Sprintf("speech synthesis returned status %d", resp.StatusCode()), nil)
	}

	info, err := os.Stat(audioPath)
	if err != nil || info.Size() == 0 {
		return nil, domain.NewPipelineError(domain.ErrNarrationFailed,
			"speech synthesis produced no audio", err)
	}

	duration, err := s.prober.ProbeDuration(ctx, audioPath)
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrNarrationFailed,
			"failed to probe narration duration", err)
	}
	if duration <= 0 {
		return nil, domain.NewPipelineError(domain.ErrNarrationFailed,
			"narration audio has zero duration", nil)
	}

	logger.CtxDebug(ctx, "narration synthesized: %.1fs, %d bytes", duration, info.Size())
	return &domain.NarrationResult{AudioPath: audioPath, Duration: duration}, nil
}
