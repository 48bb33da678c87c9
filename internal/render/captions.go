package render

import (
	"fmt"
	"strings"

	"github.com/mliu/reelgen/internal/domain"
)

const (
	defaultFontSize = 48
	defaultColor    = "white"
)

// captionFilter builds an ffmpeg drawtext filter chain from caption
// preferences. Returns an empty string when there is nothing to draw, so
// callers can skip the video re-encode entirely.
func captionFilter(prefs *domain.CaptionPrefs, height int) string {
	if prefs == nil || !prefs.Enabled || len(prefs.Chunks) == 0 {
		return ""
	}

	fontSize := defaultFontSize
	color := defaultColor
	position := "bottom"
	if prefs.Style != nil {
		if prefs.Style.FontSize > 0 {
			fontSize = prefs.Style.FontSize
		}
		if prefs.Style.Color != "" {
			color = prefs.Style.Color
		}
		if prefs.Style.Position != "" {
			position = prefs.Style.Position
		}
	}

	var y string
	switch position {
	case "top":
		y = fmt.Sprintf("%d", height/10)
	case "center":
		y = "(h-text_h)/2"
	default:
		y = "h-text_h-" + fmt.Sprintf("%d", height/10)
	}

	filters := make([]string, 0, len(prefs.Chunks))
	for _, c := range prefs.Chunks {
		if strings.TrimSpace(c.Text) == "" || c.End <= c.Start {
			continue
		}
		filters = append(filters, fmt.Sprintf(
			"drawtext=text='%s':fontsize=%d:fontcolor=%s:x=(w-text_w)/2:y=%s:box=1:boxcolor=black@0.5:boxborderw=8:enable='between(t,%.3f,%.3f)'",
			escapeDrawtext(c.Text), fontSize, color, y, c.Start, c.End))
	}
	return strings.Join(filters, ",")
}

// escapeDrawtext escapes characters that break drawtext argument parsing.
func escapeDrawtext(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\\\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(text)
}
