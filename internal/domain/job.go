package domain

import "time"

// JobState represents the lifecycle state of a video generation job.
// Transitions: StateQueued -> StateProcessing -> StateCompleted | StateFailed.
// Terminal states are never left.
type JobState string

const (
	StateQueued     JobState = "QUEUED"
	StateProcessing JobState = "PROCESSING"
	StateCompleted  JobState = "COMPLETED"
	StateFailed     JobState = "FAILED"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Stage names the pipeline step currently executing or last attempted.
// Advisory only; used for progress reporting.
type Stage string

const (
	StageMediaResolution Stage = "media_resolution"
	StageNarration       Stage = "narration"
	StageAssembly        Stage = "assembly"
	StageMux             Stage = "mux"
	StageUpload          Stage = "upload"
)

// Progress checkpoints persisted after each completed stage.
const (
	ProgressMediaResolved = 20
	ProgressNarrationDone = 40
	ProgressAssemblyDone  = 60
	ProgressMuxDone       = 80
	ProgressCompleted     = 100
)

// MediaMode is the fixed source policy for a job's imagery.
type MediaMode string

const (
	MediaModeAIGenerated  MediaMode = "AI_GENERATED"
	MediaModeUserUploaded MediaMode = "USER_UPLOADED"
	MediaModeStock        MediaMode = "STOCK"
)

// Valid reports whether the mode is one of the known media modes.
func (m MediaMode) Valid() bool {
	switch m {
	case MediaModeAIGenerated, MediaModeUserUploaded, MediaModeStock:
		return true
	}
	return false
}

// JobError describes why a job reached StateFailed.
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Stage   Stage     `json:"stage,omitempty"`
	Message string    `json:"message"`
}

// JobRecord is the unit of work and its lifecycle ledger, persisted in the
// status store for the duration of the job TTL. Exactly one of ArtifactURL
// or Error is set once the record reaches a terminal state.
type JobRecord struct {
	JobID       string    `json:"job_id"`
	State       JobState  `json:"state"`
	Stage       Stage     `json:"stage,omitempty"`
	Progress    int       `json:"progress"`
	MediaMode   MediaMode `json:"media_mode"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	Error       *JobError `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
