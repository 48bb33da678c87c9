package textproc

import (
	"math"
	"strings"

	"github.com/mliu/reelgen/internal/domain"
)

// Analyzer derives segment timing and caption hints from narration text.
// It is pure computation; when hints cannot be derived it degrades to fixed
// defaults rather than failing the job.
type Analyzer struct {
	minSegmentSecs float64
	minSegments    int
	maxSegments    int
}

// NewAnalyzer creates an analyzer with the given timing bounds. Zero values
// fall back to the standard 3s minimum and 5-10 segment window.
func NewAnalyzer(minSegmentSecs float64, maxSegments int) *Analyzer {
	if minSegmentSecs <= 0 {
		minSegmentSecs = 3.0
	}
	if maxSegments <= 0 {
		maxSegments = 10
	}
	return &Analyzer{
		minSegmentSecs: minSegmentSecs,
		minSegments:    5,
		maxSegments:    maxSegments,
	}
}

// SegmentPlan is the per-segment duration schedule for one job.
type SegmentPlan struct {
	Count     int
	Durations []float64
}

// MaxSegments returns the configured segment ceiling.
func (a *Analyzer) MaxSegments() int {
	return a.maxSegments
}

// TargetSegments returns the ideal segment count for a video of the given
// length, before asset availability is known. Callers generating imagery use
// it to decide how many images to produce.
func (a *Analyzer) TargetSegments(totalDuration float64) int {
	if totalDuration <= 0 {
		return a.minSegments
	}
	target := int(math.Round(totalDuration / 3))
	if target < a.minSegments {
		target = a.minSegments
	}
	if target > a.maxSegments {
		target = a.maxSegments
	}
	return target
}

// Plan computes how many of the available assets to use and how long each
// stays on screen so the segments fill totalDuration. Short videos get
// fewer, longer segments; every segment holds at least the configured
// minimum so single frames never flash by.
// Parameters:
//   - available: number of resolved media assets.
//   - totalDuration: target video length in seconds.
// Returns:
//   - SegmentPlan: segment count and equal per-segment durations.
func (a *Analyzer) Plan(available int, totalDuration float64) SegmentPlan {
	if available <= 0 || totalDuration <= 0 {
		return SegmentPlan{}
	}

	// Aim for one image per ~3 seconds, within the 5-10 window.
	target := a.TargetSegments(totalDuration)

	count := available
	if count > target {
		count = target
	}

	// Shrink the count if the split would drop below the minimum hold time.
	if totalDuration/float64(count) < a.minSegmentSecs {
		count = int(math.Floor(totalDuration / a.minSegmentSecs))
		if count < 1 {
			count = 1
		}
		if count > available {
			count = available
		}
	}

	per := totalDuration / float64(count)
	durations := make([]float64, count)
	for i := range durations {
		durations[i] = per
	}

	return SegmentPlan{Count: count, Durations: durations}
}

// CaptionChunks splits narration text into sentence-level caption chunks,
// spreading them across totalDuration proportionally to word count. Used
// when the request enables captions but carries no explicit timing data.
func (a *Analyzer) CaptionChunks(text string, totalDuration float64) []domain.CaptionChunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 || totalDuration <= 0 {
		return nil
	}

	totalWords := 0
	counts := make([]int, len(sentences))
	for i, s := range sentences {
		counts[i] = len(strings.Fields(s))
		totalWords += counts[i]
	}
	if totalWords == 0 {
		return nil
	}

	chunks := make([]domain.CaptionChunk, 0, len(sentences))
	cursor := 0.0
	for i, s := range sentences {
		share := totalDuration * float64(counts[i]) / float64(totalWords)
		end := cursor + share
		if i == len(sentences)-1 {
			end = totalDuration
		}
		chunks = append(chunks, domain.CaptionChunk{
			Text:  s,
			Start: cursor,
			End:   end,
		})
		cursor = end
	}
	return chunks
}

func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	for _, r := range text {
		b.WriteRune(r)
		switch r {
		case '.', '!', '?', '。', '！', '？':
			flush()
		}
	}
	flush()
	return sentences
}
