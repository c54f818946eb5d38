package domain

import "time"

// JobStatus enumerates image job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ImageStyle is the user facing style toggle.
type ImageStyle string

const (
	ImageStyleNatural ImageStyle = "natural"
	ImageStyleVivid   ImageStyle = "vivid"
)

// ImageQuality is the user facing quality tier; providers map it to their own.
type ImageQuality string

const (
	ImageQualityStandard ImageQuality = "standard"
	ImageQualityHigh     ImageQuality = "high"
)

// ImageFormat selects the output canvas.
type ImageFormat string

const (
	ImageFormatSquare    ImageFormat = "square"
	ImageFormatPortrait  ImageFormat = "portrait"
	ImageFormatLandscape ImageFormat = "landscape"
)

// GenerationJob tracks one asynchronous image generation.
type GenerationJob struct {
	ID           string
	OwnerID      string
	Prompt       string
	Style        ImageStyle
	Quality      ImageQuality
	Format       ImageFormat
	Status       JobStatus
	ResultURL    string
	ErrorMessage string
	CreditsUsed  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobSnapshot is what a polling client sees.
type JobSnapshot struct {
	ID     string
	Status JobStatus
	Result string
	Error  string
}

// Snapshot projects the job into its polling view.
func (j *GenerationJob) Snapshot() JobSnapshot {
	return JobSnapshot{ID: j.ID, Status: j.Status, Result: j.ResultURL, Error: j.ErrorMessage}
}
