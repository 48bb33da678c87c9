package render

import (
	"strings"
	"testing"

	"github.com/mliu/reelgen/internal/domain"
)

func TestCaptionFilterDisabled(t *testing.T) {
	if f := captionFilter(nil, 1920); f != "" {
		t.Errorf("nil prefs filter = %q, want empty", f)
	}
	if f := captionFilter(&domain.CaptionPrefs{Enabled: false}, 1920); f != "" {
		t.Errorf("disabled prefs filter = %q, want empty", f)
	}
	if f := captionFilter(&domain.CaptionPrefs{Enabled: true}, 1920); f != "" {
		t.Errorf("enabled prefs with no chunks filter = %q, want empty", f)
	}
}

func TestCaptionFilterChunks(t *testing.T) {
	prefs := &domain.CaptionPrefs{
		Enabled: true,
		Chunks: []domain.CaptionChunk{
			{Text: "Hello world", Start: 0, End: 2.5},
			{Text: "Second line", Start: 2.5, End: 5},
		},
	}

	f := captionFilter(prefs, 1920)
	if count := strings.Count(f, "drawtext="); count != 2 {
		t.Errorf("drawtext count = %d, want 2", count)
	}
	if !strings.Contains(f, "between(t,0.000,2.500)") {
		t.Errorf("filter missing first chunk timing: %s", f)
	}
	if !strings.Contains(f, "between(t,2.500,5.000)") {
		t.Errorf("filter missing second chunk timing: %s", f)
	}
	if !strings.Contains(f, "fontsize=48") {
		t.Errorf("filter missing default font size: %s", f)
	}
}

func TestCaptionFilterSkipsDegenerateChunks(t *testing.T) {
	prefs := &domain.CaptionPrefs{
		Enabled: true,
		Chunks: []domain.CaptionChunk{
			{Text: "   ", Start: 0, End: 2},
			{Text: "kept", Start: 2, End: 2}, // zero length
			{Text: "shown", Start: 2, End: 4},
		},
	}

	f := captionFilter(prefs, 1920)
	if count := strings.Count(f, "drawtext="); count != 1 {
		t.Errorf("drawtext count = %d, want 1: %s", count, f)
	}
	if !strings.Contains(f, "shown") {
		t.Errorf("filter missing surviving chunk: %s", f)
	}
}

func TestCaptionFilterStyleOverrides(t *testing.T) {
	prefs := &domain.CaptionPrefs{
		Enabled: true,
		Style:   &domain.CaptionStyle{FontSize: 64, Color: "yellow", Position: "top"},
		Chunks:  []domain.CaptionChunk{{Text: "styled", Start: 0, End: 1}},
	}

	f := captionFilter(prefs, 1920)
	if !strings.Contains(f, "fontsize=64") {
		t.Errorf("filter missing font size override: %s", f)
	}
	if !strings.Contains(f, "fontcolor=yellow") {
		t.Errorf("filter missing color override: %s", f)
	}
	if !strings.Contains(f, "y=192") {
		t.Errorf("filter missing top position: %s", f)
	}
}

func TestEscapeDrawtext(t *testing.T) {
	got := escapeDrawtext("it's 50%: done")
	if strings.Contains(got, "it's") {
		t.Errorf("unescaped quote in %q", got)
	}
	if !strings.Contains(got, `\%`) {
		t.Errorf("unescaped percent in %q", got)
	}
	if !strings.Contains(got, `\:`) {
		t.Errorf("unescaped colon in %q", got)
	}
}
