package domain

// StockItem maps an opaque stock media id to a pre-resolved URL supplied by
// the caller. The slice order in VideoRequest is the on-screen order.
type StockItem struct {
	ID  string `json:"id" binding:"required"`
	URL string `json:"url" binding:"required"`
}

// CaptionChunk is one piece of caption text with explicit timing relative
// to the start of the video.
type CaptionChunk struct {
	Text  string  `json:"text"`
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// CaptionStyle holds caption rendering preferences.
type CaptionStyle struct {
	FontSize int    `json:"font_size,omitempty"`
	Color    string `json:"color,omitempty"`
	Position string `json:"position,omitempty"` // top, bottom, center
}

// CaptionPrefs controls the optional caption overlay. Enabled with no
// chunks degrades to no captions rather than failing the mux stage.
type CaptionPrefs struct {
	Enabled bool           `json:"enabled"`
	Style   *CaptionStyle  `json:"style,omitempty"`
	Chunks  []CaptionChunk `json:"chunks,omitempty"`
}

// VideoRequest is the canonical, normalized request shape consumed by the
// orchestrator. Field aliasing and schema migration happen at the HTTP
// parsing boundary; the pipeline only ever sees this struct.
type VideoRequest struct {
	MediaMode       MediaMode    `json:"media_mode"`
	Text            string       `json:"text"`
	SegmentCount    int          `json:"segment_count,omitempty"`
	DurationSeconds int          `json:"duration_seconds,omitempty"`
	Voice           string       `json:"voice,omitempty"`
	ImageIDs        []string     `json:"image_ids,omitempty"`
	StockItems      []StockItem  `json:"stock_items,omitempty"`
	Captions        CaptionPrefs `json:"captions,omitempty"`
}
