package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/mliu/reelgen/internal/domain"
)

type fakeRenderer struct {
	mu          sync.Mutex
	failIndexes map[int]bool
	rendered    []int
	concatArgs  []string
	muxErr      error
}

func (f *fakeRenderer) RenderSegment(_ context.Context, workdir string, asset domain.MediaAsset, index int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIndexes[index] {
		return "", errors.New("encode error")
	}
	f.rendered = append(f.rendered, index)
	return fmt.Sprintf("%s/segment_%03d.mp4", workdir, index), nil
}

func (f *fakeRenderer) Concat(_ context.Context, workdir string, segments []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.concatArgs = append([]string(nil), segments...)
	return workdir + "/video_silent.mp4", nil
}

func (f *fakeRenderer) Mux(_ context.Context, workdir, _, _ string, _ *domain.CaptionPrefs) (string, error) {
	if f.muxErr != nil {
		return "", f.muxErr
	}
	return workdir + "/final.mp4", nil
}

func (f *fakeRenderer) ProbeDuration(context.Context, string) (float64, error) {
	return 30, nil
}

func testAssets(n int) []domain.MediaAsset {
	assets := make([]domain.MediaAsset, n)
	for i := range assets {
		assets[i] = domain.MediaAsset{
			ID:        fmt.Sprintf("asset-%d", i),
			LocalPath: fmt.Sprintf("/tmp/media_%03d.png", i),
			Duration:  3,
		}
	}
	return assets
}

func TestAssemblePreservesSegmentOrder(t *testing.T) {
	fr := &fakeRenderer{}
	a := NewAssembler(fr, 4)

	out, err := a.Assemble(context.Background(), "/tmp/job", testAssets(6))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if out != "/tmp/job/video_silent.mp4" {
		t.Errorf("out = %s", out)
	}

	// Segments render concurrently but must be concatenated in asset order.
	if len(fr.concatArgs) != 6 {
		t.Fatalf("concat got %d segments, want 6", len(fr.concatArgs))
	}
	for i, s := range fr.concatArgs {
		want := fmt.Sprintf("segment_%03d.mp4", i)
		if !strings.HasSuffix(s, want) {
			t.Errorf("concatArgs[%d] = %s, want suffix %s", i, s, want)
		}
	}
}

func TestAssembleOneFailureFailsAll(t *testing.T) {
	fr := &fakeRenderer{failIndexes: map[int]bool{3: true}}
	a := NewAssembler(fr, 2)

	_, err := a.Assemble(context.Background(), "/tmp/job", testAssets(5))
	if err == nil {
		t.Fatal("Assemble() succeeded with a failing segment")
	}
	if kind := domain.KindOf(err); kind != domain.ErrAssemblyFailed {
		t.Errorf("error kind = %s, want %s", kind, domain.ErrAssemblyFailed)
	}
	if fr.concatArgs != nil {
		t.Error("concat ran despite a failed segment")
	}
}

func TestAssembleNoAssets(t *testing.T) {
	a := NewAssembler(&fakeRenderer{}, 2)

	_, err := a.Assemble(context.Background(), "/tmp/job", nil)
	if kind := domain.KindOf(err); kind != domain.ErrAssemblyFailed {
		t.Errorf("error kind = %s, want %s", kind, domain.ErrAssemblyFailed)
	}
}

func TestMuxFailureClassified(t *testing.T) {
	fr := &fakeRenderer{muxErr: errors.New("codec error")}
	m := NewMuxer(fr)

	narration := &domain.NarrationResult{AudioPath: "/tmp/job/narration.mp3", Duration: 30}
	_, err := m.Mux(context.Background(), "/tmp/job", "/tmp/job/video_silent.mp4", narration, nil)
	if err == nil {
		t.Fatal("Mux() succeeded, want failure")
	}
	if kind := domain.KindOf(err); kind != domain.ErrAssemblyFailed {
		t.Errorf("error kind = %s, want %s", kind, domain.ErrAssemblyFailed)
	}
}
