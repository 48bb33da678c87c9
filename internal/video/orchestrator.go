package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/logger"
	"github.com/mliu/reelgen/internal/status"
	"github.com/mliu/reelgen/internal/textproc"
)

const (
	minDurationSecs     = 5
	maxDurationSecs     = 180
	defaultDurationSecs = 30
	maxTextLength       = 5000
)

// MediaResolver fetches the job's imagery into the working directory.
type MediaResolver interface {
	Resolve(ctx context.Context, workdir string, req *domain.VideoRequest, count int) ([]domain.MediaAsset, error)
}

// NarrationSynthesizer renders narration audio for the job text.
type NarrationSynthesizer interface {
	Synthesize(ctx context.Context, workdir, text, voice string) (*domain.NarrationResult, error)
}

// Assembler renders and concatenates the video segments.
type Assembler interface {
	Assemble(ctx context.Context, workdir string, assets []domain.MediaAsset) (string, error)
}

// Muxer merges narration and captions into the final video.
type Muxer interface {
	Mux(ctx context.Context, workdir, videoPath string, narration *domain.NarrationResult, captions *domain.CaptionPrefs) (string, error)
}

// Publisher moves the finished video to durable storage and returns the
// client-facing artifact URL.
type Publisher interface {
	Publish(ctx context.Context, jobID, path string) (string, error)
}

// Orchestrator owns the video generation job lifecycle: it validates
// requests synchronously, runs the pipeline in the background, and keeps the
// status store current at every stage boundary. All pipeline state lives in
// the status store; the orchestrator itself is stateless across jobs.
type Orchestrator struct {
	store       status.Store
	resolver    MediaResolver
	synthesizer NarrationSynthesizer
	assembler   Assembler
	muxer       Muxer
	publisher   Publisher
	analyzer    *textproc.Analyzer
	workdirRoot string
	captions    bool
}

// Options configures orchestrator behavior.
type Options struct {
	// WorkdirRoot is the parent directory for per-job scratch space.
	// Empty uses the system temp directory.
	WorkdirRoot string

	// CaptionsEnabled allows caption overlays. When false, caption
	// preferences on requests are ignored.
	CaptionsEnabled bool
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	store status.Store,
	resolver MediaResolver,
	synthesizer NarrationSynthesizer,
	assembler Assembler,
	muxer Muxer,
	publisher Publisher,
	analyzer *textproc.Analyzer,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		resolver:    resolver,
		synthesizer: synthesizer,
		assembler:   assembler,
		muxer:       muxer,
		publisher:   publisher,
		analyzer:    analyzer,
		workdirRoot: opts.WorkdirRoot,
		captions:    opts.CaptionsEnabled,
	}
}

// Submit validates the request, persists the initial QUEUED record, and
// starts the pipeline in the background. Validation failures surface
// synchronously and leave no job record behind. A store failure also
// surfaces synchronously; accepting a job whose progress can never be
// observed helps nobody.
func (o *Orchestrator) Submit(ctx context.Context, req *domain.VideoRequest) (string, error) {
	if err := o.validate(req); err != nil {
		return "", err
	}

	jobID := uuid.New().String()
	now := time.Now().UTC()
	rec := &domain.JobRecord{
		JobID:     jobID,
		State:     domain.StateQueued,
		Progress:  0,
		MediaMode: req.MediaMode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.Create(ctx, rec); err != nil {
		return "", domain.NewPipelineError(domain.ErrInternal,
			"failed to persist job record", err)
	}

	go o.execute(rec, req)

	return jobID, nil
}

// GetStatus returns the current job record. Pure read; it never mutates the
// record or its TTL.
func (o *Orchestrator) GetStatus(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	return o.store.Get(ctx, jobID)
}

// execute runs the pipeline for one job. It owns the job record from here
// on: nothing else writes it. The working directory is removed on every
// exit path, including panics.
func (o *Orchestrator) execute(rec *domain.JobRecord, req *domain.VideoRequest) {
	ctx := logger.SetJobID(context.Background(), rec.JobID)
	ctx = logger.WithField(ctx, logger.FieldMediaMode, string(req.MediaMode))

	defer func() {
		if r := recover(); r != nil {
			logger.CtxError(ctx, "pipeline panic: %v", r)
			o.fail(ctx, rec, domain.NewPipelineError(domain.ErrInternal,
				fmt.Sprintf("pipeline panic: %v", r), nil))
		}
	}()

	rec.State = domain.StateProcessing
	rec.Stage = domain.StageMediaResolution
	o.persist(ctx, rec)

	workdir, err := os.MkdirTemp(o.workdirRoot, "reelgen-"+rec.JobID+"-")
	if err != nil {
		o.fail(ctx, rec, domain.NewPipelineError(domain.ErrInternal,
			"failed to create working directory", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(workdir); err != nil {
			logger.CtxWarn(ctx, "failed to remove workdir %s: %v", workdir, err)
		}
	}()

	started := time.Now()
	logger.CtxInfo(ctx, "job started, workdir %s", workdir)

	// Stage 1: media resolution.
	count := req.SegmentCount
	if count <= 0 {
		count = o.analyzer.TargetSegments(float64(req.DurationSeconds))
	}
	assets, err := o.resolver.Resolve(ctx, workdir, req, count)
	if err != nil {
		o.fail(ctx, rec, err)
		return
	}
	logger.FromContext(ctx).WithField(logger.FieldCount, len(assets)).Debug("media resolved")
	o.advance(ctx, rec, domain.StageNarration, domain.ProgressMediaResolved)

	// Stage 2: narration.
	narration, err := o.synthesizer.Synthesize(ctx, workdir, req.Text, req.Voice)
	if err != nil {
		o.fail(ctx, rec, err)
		return
	}
	o.advance(ctx, rec, domain.StageAssembly, domain.ProgressNarrationDone)

	// The narration sets the real video length; fit the visuals to it.
	plan := o.analyzer.Plan(len(assets), narration.Duration)
	if plan.Count == 0 {
		o.fail(ctx, rec, domain.NewPipelineError(domain.ErrAssemblyFailed,
			"no usable segment plan for narration length", nil))
		return
	}
	assets = assets[:plan.Count]
	for i := range assets {
		assets[i].Duration = plan.Durations[i]
	}

	captions := req.Captions
	if !o.captions {
		captions.Enabled = false
		captions.Chunks = nil
	}
	if captions.Enabled && len(captions.Chunks) == 0 {
		captions.Chunks = o.analyzer.CaptionChunks(req.Text, narration.Duration)
	}

	// Stage 3: assembly.
	silentPath, err := o.assembler.Assemble(ctx, workdir, assets)
	if err != nil {
		o.fail(ctx, rec, err)
		return
	}
	o.advance(ctx, rec, domain.StageMux, domain.ProgressAssemblyDone)

	// Stage 4: mux.
	finalPath, err := o.muxer.Mux(ctx, workdir, silentPath, narration, &captions)
	if err != nil {
		o.fail(ctx, rec, err)
		return
	}
	o.advance(ctx, rec, domain.StageUpload, domain.ProgressMuxDone)

	// Stage 5: upload.
	url, err := o.publisher.Publish(ctx, rec.JobID, finalPath)
	if err != nil {
		o.fail(ctx, rec, err)
		return
	}

	rec.State = domain.StateCompleted
	rec.Progress = domain.ProgressCompleted
	rec.Stage = ""
	rec.ArtifactURL = url
	rec.Error = nil
	o.persist(ctx, rec)

	logger.CtxInfo(ctx, "job completed in %s", time.Since(started).Round(time.Millisecond))
}

// advance records a completed stage boundary and the next stage.
func (o *Orchestrator) advance(ctx context.Context, rec *domain.JobRecord, next domain.Stage, progress int) {
	rec.Stage = next
	if progress > rec.Progress {
		rec.Progress = progress
	}
	o.persist(ctx, rec)
}

// fail moves the record to FAILED with a classified error. Progress stays at
// the last completed checkpoint.
func (o *Orchestrator) fail(ctx context.Context, rec *domain.JobRecord, err error) {
	if rec.State.Terminal() {
		return
	}

	message := err.Error()
	var pe *domain.PipelineError
	if errors.As(err, &pe) {
		message = pe.Message
	}

	rec.State = domain.StateFailed
	rec.ArtifactURL = ""
	rec.Error = &domain.JobError{
		Kind:    domain.KindOf(err),
		Stage:   rec.Stage,
		Message: message,
	}
	o.persist(ctx, rec)

	logger.FromContext(ctx).WithField(logger.FieldStage, string(rec.Error.Stage)).Errorf("job failed: %v", err)
}

// persist writes the record, logging but tolerating store errors mid-flight.
// A transient store outage should not kill a render that is already paid
// for; the next stage boundary retries the write.
func (o *Orchestrator) persist(ctx context.Context, rec *domain.JobRecord) {
	rec.UpdatedAt = time.Now().UTC()
	if err := o.store.Update(ctx, rec); err != nil {
		logger.CtxWarn(ctx, "failed to persist job record: %v", err)
	}
}

// validate checks the request shape synchronously, before any record is
// created. All violations are InvalidRequest.
func (o *Orchestrator) validate(req *domain.VideoRequest) error {
	if req == nil {
		return domain.NewPipelineError(domain.ErrInvalidRequest, "request body is required", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return domain.NewPipelineError(domain.ErrInvalidRequest, "text is required", nil)
	}
	if len(req.Text) > maxTextLength {
		return domain.NewPipelineError(domain.ErrInvalidRequest,
			fmt.Sprintf("text exceeds %d characters", maxTextLength), nil)
	}
	if !req.MediaMode.Valid() {
		return domain.NewPipelineError(domain.ErrInvalidRequest,
			fmt.Sprintf("unknown media mode %q", req.MediaMode), nil)
	}

	if req.DurationSeconds == 0 {
		req.DurationSeconds = defaultDurationSecs
	}
	if req.DurationSeconds < minDurationSecs || req.DurationSeconds > maxDurationSecs {
		return domain.NewPipelineError(domain.ErrInvalidRequest,
			fmt.Sprintf("duration must be between %d and %d seconds", minDurationSecs, maxDurationSecs), nil)
	}

	// segment_count is a hint, not a budget; it still drives how much
	// imagery gets produced, so it obeys the same ceiling as planning.
	if req.SegmentCount < 0 || req.SegmentCount > o.analyzer.MaxSegments() {
		return domain.NewPipelineError(domain.ErrInvalidRequest,
			fmt.Sprintf("segment_count must be between 0 and %d", o.analyzer.MaxSegments()), nil)
	}

	switch req.MediaMode {
	case domain.MediaModeUserUploaded:
		if len(req.ImageIDs) == 0 {
			return domain.NewPipelineError(domain.ErrInvalidRequest,
				"image_ids is required for USER_UPLOADED media mode", nil)
		}
		for _, id := range req.ImageIDs {
			if strings.TrimSpace(id) == "" {
				return domain.NewPipelineError(domain.ErrInvalidRequest,
					"image_ids must not contain empty entries", nil)
			}
		}
	case domain.MediaModeStock:
		if len(req.StockItems) == 0 {
			return domain.NewPipelineError(domain.ErrInvalidRequest,
				"stock_items is required for STOCK media mode", nil)
		}
		for _, item := range req.StockItems {
			if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.URL) == "" {
				return domain.NewPipelineError(domain.ErrInvalidRequest,
					"stock_items entries require both id and url", nil)
			}
		}
	}

	for _, c := range req.Captions.Chunks {
		if c.End < c.Start || c.Start < 0 {
			return domain.NewPipelineError(domain.ErrInvalidRequest,
				"caption chunks require 0 <= start_time <= end_time", nil)
		}
	}

	return nil
}
