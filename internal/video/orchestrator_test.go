package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mliu/reelgen/internal/domain"
	"github.com/mliu/reelgen/internal/status"
	"github.com/mliu/reelgen/internal/textproc"
)

type fakeResolver struct {
	mu       sync.Mutex
	err      error
	workdirs []string
}

func (f *fakeResolver) Resolve(_ context.Context, workdir string, req *domain.VideoRequest, count int) ([]domain.MediaAsset, error) {
	f.mu.Lock()
	f.workdirs = append(f.workdirs, workdir)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	n := count
	if req.MediaMode == domain.MediaModeUserUploaded {
		n = len(req.ImageIDs)
	}
	assets := make([]domain.MediaAsset, n)
	for i := range assets {
		assets[i] = domain.MediaAsset{ID: fmt.Sprintf("a%d", i), LocalPath: workdir + "/x.png"}
	}
	return assets, nil
}

func (f *fakeResolver) lastWorkdir() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.workdirs) == 0 {
		return ""
	}
	return f.workdirs[len(f.workdirs)-1]
}

type fakeSynth struct {
	err      error
	duration float64
}

func (f *fakeSynth) Synthesize(_ context.Context, workdir, _, _ string) (*domain.NarrationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := f.duration
	if d == 0 {
		d = 30
	}
	return &domain.NarrationResult{AudioPath: workdir + "/narration.mp3", Duration: d}, nil
}

type fakeAssembler struct {
	err  error
	boom bool
}

func (f *fakeAssembler) Assemble(_ context.Context, workdir string, assets []domain.MediaAsset) (string, error) {
	if f.boom {
		panic("assembler exploded")
	}
	if f.err != nil {
		return "", f.err
	}
	return workdir + "/video_silent.mp4", nil
}

type fakeMuxer struct {
	mu       sync.Mutex
	err      error
	captions *domain.CaptionPrefs
}

func (f *fakeMuxer) Mux(_ context.Context, workdir, _ string, _ *domain.NarrationResult, captions *domain.CaptionPrefs) (string, error) {
	f.mu.Lock()
	f.captions = captions
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return workdir + "/final.mp4", nil
}

type fakePublisher struct {
	err error
}

func (f *fakePublisher) Publish(_ context.Context, jobID, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example/videos/" + jobID + ".mp4?sig=abc", nil
}

// recordingStore captures every persisted snapshot so tests can assert on
// the observable progress sequence.
type recordingStore struct {
	status.Store
	mu        sync.Mutex
	snapshots []domain.JobRecord
}

func (r *recordingStore) Update(ctx context.Context, rec *domain.JobRecord) error {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, *rec)
	r.mu.Unlock()
	return r.Store.Update(ctx, rec)
}

func (r *recordingStore) progresses() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, s := range r.snapshots {
		out = append(out, s.Progress)
	}
	return out
}

type failingStore struct{}

func (failingStore) Create(context.Context, *domain.JobRecord) error { return errors.New("redis down") }
func (failingStore) Update(context.Context, *domain.JobRecord) error { return errors.New("redis down") }
func (failingStore) Get(context.Context, string) (*domain.JobRecord, error) {
	return nil, errors.New("redis down")
}

type deps struct {
	store     *recordingStore
	resolver  *fakeResolver
	synth     *fakeSynth
	assembler *fakeAssembler
	muxer     *fakeMuxer
	publisher *fakePublisher
}

func newTestOrchestrator(t *testing.T, d *deps) (*Orchestrator, *deps) {
	t.Helper()
	if d == nil {
		d = &deps{}
	}
	if d.store == nil {
		d.store = &recordingStore{Store: status.NewMemoryStore(time.Hour)}
	}
	if d.resolver == nil {
		d.resolver = &fakeResolver{}
	}
	if d.synth == nil {
		d.synth = &fakeSynth{}
	}
	if d.assembler == nil {
		d.assembler = &fakeAssembler{}
	}
	if d.muxer == nil {
		d.muxer = &fakeMuxer{}
	}
	if d.publisher == nil {
		d.publisher = &fakePublisher{}
	}

	o := NewOrchestrator(
		d.store, d.resolver, d.synth, d.assembler, d.muxer, d.publisher,
		textproc.NewAnalyzer(3.0, 10),
		Options{WorkdirRoot: t.TempDir(), CaptionsEnabled: true},
	)
	return o, d
}

func waitForTerminal(t *testing.T, o *Orchestrator, jobID string) *domain.JobRecord {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := o.GetStatus(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if rec.State.Terminal() {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func aiRequest() *domain.VideoRequest {
	return &domain.VideoRequest{
		MediaMode: domain.MediaModeAIGenerated,
		Text:      "The ocean covers most of the planet. Its depths remain unexplored.",
	}
}

func TestSubmitCompletesWithCheckpoints(t *testing.T) {
	o, d := newTestOrchestrator(t, nil)

	req := aiRequest()
	req.Captions.Enabled = true
	jobID, err := o.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if jobID == "" {
		t.Fatal("Submit() returned empty job id")
	}

	rec := waitForTerminal(t, o, jobID)
	if rec.State != domain.StateCompleted {
		t.Fatalf("State = %s, want COMPLETED (error: %+v)", rec.State, rec.Error)
	}
	if rec.Progress != 100 {
		t.Errorf("Progress = %d, want 100", rec.Progress)
	}
	if rec.ArtifactURL == "" {
		t.Error("ArtifactURL is empty on COMPLETED record")
	}
	if rec.Error != nil {
		t.Errorf("Error = %+v, want nil on COMPLETED record", rec.Error)
	}

	// Progress must pass through each checkpoint in order, never regressing.
	seen := d.store.progresses()
	want := map[int]bool{20: false, 40: false, 60: false, 80: false, 100: false}
	last := 0
	for _, p := range seen {
		if p < last {
			t.Errorf("progress regressed: %v", seen)
		}
		last = p
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, ok := range want {
		if !ok {
			t.Errorf("checkpoint %d never persisted: %v", p, seen)
		}
	}

	// Captions were enabled with no explicit chunks; the pipeline derives
	// them from the text.
	d.muxer.mu.Lock()
	captions := d.muxer.captions
	d.muxer.mu.Unlock()
	if captions == nil || len(captions.Chunks) == 0 {
		t.Error("muxer received no derived caption chunks")
	}
}

func TestSubmitInvalidRequests(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)

	testCases := []struct {
		name string
		req  *domain.VideoRequest
	}{
		{"empty text", &domain.VideoRequest{MediaMode: domain.MediaModeAIGenerated}},
		{"unknown mode", &domain.VideoRequest{MediaMode: "HOLOGRAM", Text: "hi"}},
		{"uploaded without ids", &domain.VideoRequest{MediaMode: domain.MediaModeUserUploaded, Text: "hi"}},
		{"stock without items", &domain.VideoRequest{MediaMode: domain.MediaModeStock, Text: "hi"}},
		{"stock item missing url", &domain.VideoRequest{
			MediaMode:  domain.MediaModeStock,
			Text:       "hi",
			StockItems: []domain.StockItem{{ID: "s1"}},
		}},
		{"duration out of range", &domain.VideoRequest{
			MediaMode:       domain.MediaModeAIGenerated,
			Text:            "hi",
			DurationSeconds: 600,
		}},
		{"segment count above ceiling", &domain.VideoRequest{
			MediaMode:    domain.MediaModeAIGenerated,
			Text:         "hi",
			SegmentCount: 1000000,
		}},
		{"negative segment count", &domain.VideoRequest{
			MediaMode:    domain.MediaModeAIGenerated,
			Text:         "hi",
			SegmentCount: -1,
		}},
		{"negative caption timing", &domain.VideoRequest{
			MediaMode: domain.MediaModeAIGenerated,
			Text:      "hi",
			Captions: domain.CaptionPrefs{
				Enabled: true,
				Chunks:  []domain.CaptionChunk{{Text: "x", Start: 5, End: 2}},
			},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			jobID, err := o.Submit(context.Background(), tc.req)
			if err == nil {
				t.Fatal("Submit() succeeded, want InvalidRequest")
			}
			if kind := domain.KindOf(err); kind != domain.ErrInvalidRequest {
				t.Errorf("error kind = %s, want %s", kind, domain.ErrInvalidRequest)
			}
			if jobID != "" {
				t.Errorf("jobID = %q, want empty on rejected request", jobID)
			}
		})
	}
}

func TestCaptionsDisabledByConfig(t *testing.T) {
	d := &deps{
		store:     &recordingStore{Store: status.NewMemoryStore(time.Hour)},
		resolver:  &fakeResolver{},
		synth:     &fakeSynth{},
		assembler: &fakeAssembler{},
		muxer:     &fakeMuxer{},
		publisher: &fakePublisher{},
	}
	o := NewOrchestrator(
		d.store, d.resolver, d.synth, d.assembler, d.muxer, d.publisher,
		textproc.NewAnalyzer(3.0, 10),
		Options{WorkdirRoot: t.TempDir(), CaptionsEnabled: false},
	)

	req := aiRequest()
	req.Captions = domain.CaptionPrefs{
		Enabled: true,
		Chunks:  []domain.CaptionChunk{{Text: "hello", Start: 0, End: 2}},
	}
	jobID, err := o.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	rec := waitForTerminal(t, o, jobID)
	if rec.State != domain.StateCompleted {
		t.Fatalf("State = %s, want COMPLETED (error: %+v)", rec.State, rec.Error)
	}

	d.muxer.mu.Lock()
	captions := d.muxer.captions
	d.muxer.mu.Unlock()
	if captions == nil {
		t.Fatal("muxer never received caption preferences")
	}
	if captions.Enabled || len(captions.Chunks) != 0 {
		t.Errorf("captions = %+v, want disabled when the service config turns them off", captions)
	}
}

func TestSubmitStoreDownFailsSynchronously(t *testing.T) {
	o := NewOrchestrator(
		failingStore{}, &fakeResolver{}, &fakeSynth{}, &fakeAssembler{}, &fakeMuxer{}, &fakePublisher{},
		textproc.NewAnalyzer(3.0, 10),
		Options{WorkdirRoot: t.TempDir()},
	)

	_, err := o.Submit(context.Background(), aiRequest())
	if err == nil {
		t.Fatal("Submit() succeeded with a failing store")
	}
	if kind := domain.KindOf(err); kind != domain.ErrInternal {
		t.Errorf("error kind = %s, want %s", kind, domain.ErrInternal)
	}
}

func TestUserMediaUnavailableFailsJob(t *testing.T) {
	resolver := &fakeResolver{
		err: domain.NewPipelineError(domain.ErrUserMediaUnavailable, "uploaded image img-9 not found", nil),
	}
	o, _ := newTestOrchestrator(t, &deps{resolver: resolver})

	req := &domain.VideoRequest{
		MediaMode: domain.MediaModeUserUploaded,
		Text:      "hello",
		ImageIDs:  []string{"img-9"},
	}
	jobID, err := o.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	rec := waitForTerminal(t, o, jobID)
	if rec.State != domain.StateFailed {
		t.Fatalf("State = %s, want FAILED", rec.State)
	}
	if rec.Error == nil || rec.Error.Kind != domain.ErrUserMediaUnavailable {
		t.Errorf("Error = %+v, want kind %s", rec.Error, domain.ErrUserMediaUnavailable)
	}
	if rec.Error.Stage != domain.StageMediaResolution {
		t.Errorf("Error.Stage = %s, want %s", rec.Error.Stage, domain.StageMediaResolution)
	}
	if rec.ArtifactURL != "" {
		t.Errorf("ArtifactURL = %q, want empty on FAILED record", rec.ArtifactURL)
	}
	if rec.Progress != 0 {
		t.Errorf("Progress = %d, want 0 before the first checkpoint", rec.Progress)
	}
}

func TestNarrationFailureRemovesWorkdir(t *testing.T) {
	synth := &fakeSynth{err: domain.NewPipelineError(domain.ErrNarrationFailed, "tts down", nil)}
	o, d := newTestOrchestrator(t, &deps{synth: synth})

	jobID, err := o.Submit(context.Background(), aiRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	rec := waitForTerminal(t, o, jobID)
	if rec.Error == nil || rec.Error.Kind != domain.ErrNarrationFailed {
		t.Fatalf("Error = %+v, want kind %s", rec.Error, domain.ErrNarrationFailed)
	}
	if rec.Progress != domain.ProgressMediaResolved {
		t.Errorf("Progress = %d, want %d (last checkpoint)", rec.Progress, domain.ProgressMediaResolved)
	}

	workdir := d.resolver.lastWorkdir()
	if workdir == "" {
		t.Fatal("resolver never saw a workdir")
	}
	waitForRemoval(t, workdir)
}

func TestMuxFailure(t *testing.T) {
	muxer := &fakeMuxer{err: domain.NewPipelineError(domain.ErrAssemblyFailed, "final mux failed", nil)}
	o, _ := newTestOrchestrator(t, &deps{muxer: muxer})

	jobID, err := o.Submit(context.Background(), aiRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	rec := waitForTerminal(t, o, jobID)
	if rec.Error == nil || rec.Error.Kind != domain.ErrAssemblyFailed {
		t.Fatalf("Error = %+v, want kind %s", rec.Error, domain.ErrAssemblyFailed)
	}
	if rec.Error.Stage != domain.StageMux {
		t.Errorf("Error.Stage = %s, want %s", rec.Error.Stage, domain.StageMux)
	}
	if rec.Progress != domain.ProgressAssemblyDone {
		t.Errorf("Progress = %d, want %d", rec.Progress, domain.ProgressAssemblyDone)
	}
}

func TestPublishFailure(t *testing.T) {
	publisher := &fakePublisher{err: domain.NewPipelineError(domain.ErrPublishFailed, "bucket gone", nil)}
	o, _ := newTestOrchestrator(t, &deps{publisher: publisher})

	jobID, err := o.Submit(context.Background(), aiRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	rec := waitForTerminal(t, o, jobID)
	if rec.Error == nil || rec.Error.Kind != domain.ErrPublishFailed {
		t.Fatalf("Error = %+v, want kind %s", rec.Error, domain.ErrPublishFailed)
	}
	if rec.Progress != domain.ProgressMuxDone {
		t.Errorf("Progress = %d, want %d", rec.Progress, domain.ProgressMuxDone)
	}
}

func TestPanicBecomesInternalError(t *testing.T) {
	o, d := newTestOrchestrator(t, &deps{assembler: &fakeAssembler{boom: true}})

	jobID, err := o.Submit(context.Background(), aiRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	rec := waitForTerminal(t, o, jobID)
	if rec.State != domain.StateFailed {
		t.Fatalf("State = %s, want FAILED", rec.State)
	}
	if rec.Error == nil || rec.Error.Kind != domain.ErrInternal {
		t.Errorf("Error = %+v, want kind %s", rec.Error, domain.ErrInternal)
	}

	waitForRemoval(t, d.resolver.lastWorkdir())
}

func TestCompletedWorkdirRemoved(t *testing.T) {
	o, d := newTestOrchestrator(t, nil)

	jobID, err := o.Submit(context.Background(), aiRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitForTerminal(t, o, jobID)
	waitForRemoval(t, d.resolver.lastWorkdir())
}

func TestFailNeverLeavesTerminalState(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)

	rec := &domain.JobRecord{
		JobID:       "done",
		State:       domain.StateCompleted,
		Progress:    100,
		ArtifactURL: "https://cdn.example/videos/done.mp4",
	}
	o.fail(context.Background(), rec, errors.New("late failure"))

	if rec.State != domain.StateCompleted {
		t.Errorf("State = %s, terminal record was rewritten", rec.State)
	}
	if rec.ArtifactURL == "" {
		t.Error("ArtifactURL cleared on terminal record")
	}
}

func TestGetStatusUnknownJob(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)

	_, err := o.GetStatus(context.Background(), "no-such-job")
	if !errors.Is(err, status.ErrNotFound) {
		t.Errorf("GetStatus() error = %v, want ErrNotFound", err)
	}
}

// waitForRemoval polls for the workdir to disappear. The terminal record is
// written before the deferred cleanup runs, so a grace window is needed.
func waitForRemoval(t *testing.T, dir string) {
	t.Helper()
	if dir == "" {
		t.Fatal("no workdir recorded")
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("workdir %s still exists", dir)
}
