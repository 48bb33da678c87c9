package textproc

import (
	"math"
	"testing"
)

func TestPlanSegmentCounts(t *testing.T) {
	a := NewAnalyzer(3.0, 10)

	testCases := []struct {
		name      string
		available int
		duration  float64
		wantCount int
	}{
		{
			name:      "15s video caps at five segments",
			available: 20,
			duration:  15,
			wantCount: 5,
		},
		{
			name:      "long video caps at ten segments",
			available: 50,
			duration:  60,
			wantCount: 10,
		},
		{
			name:      "fewer assets than target uses all assets",
			available: 3,
			duration:  30,
			wantCount: 3,
		},
		{
			name:      "short video shrinks below minimum window",
			available: 10,
			duration:  10,
			wantCount: 3, // 10s / 3s minimum hold
		},
		{
			name:      "tiny duration still yields one segment",
			available: 5,
			duration:  2,
			wantCount: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan := a.Plan(tc.available, tc.duration)
			if plan.Count != tc.wantCount {
				t.Errorf("Count = %d, want %d", plan.Count, tc.wantCount)
			}
			if len(plan.Durations) != tc.wantCount {
				t.Fatalf("len(Durations) = %d, want %d", len(plan.Durations), tc.wantCount)
			}

			sum := 0.0
			for _, d := range plan.Durations {
				sum += d
			}
			if math.Abs(sum-tc.duration) > 1e-9 {
				t.Errorf("durations sum = %f, want %f", sum, tc.duration)
			}
		})
	}
}

func TestPlanZeroInputs(t *testing.T) {
	a := NewAnalyzer(0, 0)

	if plan := a.Plan(0, 30); plan.Count != 0 {
		t.Errorf("Plan with no assets: Count = %d, want 0", plan.Count)
	}
	if plan := a.Plan(5, 0); plan.Count != 0 {
		t.Errorf("Plan with no duration: Count = %d, want 0", plan.Count)
	}
}

func TestPlanMinimumHoldTime(t *testing.T) {
	a := NewAnalyzer(3.0, 10)

	plan := a.Plan(10, 12)
	for i, d := range plan.Durations {
		if d < 3.0-1e-9 {
			t.Errorf("Durations[%d] = %f, below 3s minimum", i, d)
		}
	}
}

func TestCaptionChunks(t *testing.T) {
	a := NewAnalyzer(3.0, 10)

	chunks := a.CaptionChunks("Hello world. This is a longer second sentence here.", 10)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}

	if chunks[0].Start != 0 {
		t.Errorf("chunks[0].Start = %f, want 0", chunks[0].Start)
	}
	if chunks[1].End != 10 {
		t.Errorf("chunks[1].End = %f, want 10", chunks[1].End)
	}
	if chunks[0].End != chunks[1].Start {
		t.Errorf("chunk boundary mismatch: %f != %f", chunks[0].End, chunks[1].Start)
	}

	// The longer sentence should hold the screen longer.
	first := chunks[0].End - chunks[0].Start
	second := chunks[1].End - chunks[1].Start
	if second <= first {
		t.Errorf("second chunk (%f) not longer than first (%f)", second, first)
	}
}

func TestCaptionChunksEmptyText(t *testing.T) {
	a := NewAnalyzer(3.0, 10)

	if chunks := a.CaptionChunks("", 10); chunks != nil {
		t.Errorf("chunks = %v, want nil", chunks)
	}
	if chunks := a.CaptionChunks("   ", 10); chunks != nil {
		t.Errorf("whitespace chunks = %v, want nil", chunks)
	}
}
