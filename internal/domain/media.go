package domain

import "time"

// MediaAsset is a resolved image asset with its fetched local copy and the
// intended on-screen duration. Assets live only for the duration of one
// job's execution; LocalPath points into the job working directory.
type MediaAsset struct {
	ID          string
	SourceURL   string
	LocalPath   string
	ContentType string
	Duration    float64 // seconds on screen; set by the segment plan
}

// UploadedImage maps an opaque image id to its storage location and content
// type. The id is the primary key so resolver lookups hit the index instead
// of scanning stored objects.
type UploadedImage struct {
	ID               string    `gorm:"type:text;primaryKey" json:"id"`
	UserID           string    `gorm:"type:text;index" json:"user_id,omitempty"`
	OriginalFilename string    `json:"original_filename"`
	StorageKey       string    `gorm:"not null" json:"storage_key"`
	ContentType      string    `json:"content_type"`
	FileSize         int64     `json:"file_size"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for UploadedImage.
func (UploadedImage) TableName() string {
	return "uploaded_images"
}

// NarrationResult is the synthesized narration audio for one job.
type NarrationResult struct {
	AudioPath string
	Duration  float64 // seconds, probed from the rendered file
}
