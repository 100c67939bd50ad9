// Package job implements the translation job state machine described in
// spec.md §4.8: submit/status/interrupt/list over a per-job worker, with
// pluggable persistence in pkg/job/store.
package job

import "time"

// Status is one state in the job state machine.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusInterrupted Status = "interrupted"
	StatusError       Status = "error"
)

// InputFormat names the document kind a job translates.
type InputFormat string

const (
	FormatText InputFormat = "text"
	FormatEPUB InputFormat = "epub"
	FormatSRT  InputFormat = "srt"
)

// Config is the caller-supplied description of a translation job, stored
// verbatim alongside the job record.
type Config struct {
	InputPath               string      `json:"input_path"`
	OutputPath              string      `json:"output_path"`
	Format                  InputFormat `json:"format"`
	SourceLanguage          string      `json:"source_language"`
	TargetLanguage          string      `json:"target_language"`
	Provider                string      `json:"provider"`
	Model                   string      `json:"model"`
	CustomInstructions      string      `json:"custom_instructions,omitempty"`
	EnablePostProcess       bool        `json:"enable_post_process"`
	PostProcessInstructions string      `json:"post_process_instructions,omitempty"`
	// TargetScript optionally forces translated text into a specific
	// Serbian script ("latin" or "cyrillic") regardless of which one the
	// provider produced. Empty leaves the provider's own script choice.
	// Applied to text and EPUB jobs; SRT jobs ignore it.
	TargetScript string `json:"target_script,omitempty"`
	SubmittedBy  string `json:"submitted_by,omitempty"`
}

// Stats mirrors the chunk/job/block completion counters emitted by C5-C7.
type Stats struct {
	CompletedUnits int `json:"completed_units"`
	FailedUnits    int `json:"failed_units"`
	TotalUnits     int `json:"total_units"`
}

// Record is a job's full persisted state. status() returns a deep copy of
// this struct (spec.md §4.8).
type Record struct {
	ID       string `json:"id"`
	Status   Status `json:"status"`
	Progress float64 `json:"progress"`
	Stats    Stats  `json:"stats"`
	Logs     []string `json:"logs"`
	Error    string `json:"error,omitempty"`

	Config Config `json:"config"`

	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of the record, used to satisfy status()'s
// thread-safe-read-of-a-deep-copy contract.
func (r *Record) Clone() *Record {
	c := *r
	c.Logs = append([]string(nil), r.Logs...)
	if r.EndTime != nil {
		t := *r.EndTime
		c.EndTime = &t
	}
	return &c
}

// Summary is the reduced view returned by list().
type Summary struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Progress  float64   `json:"progress"`
	InputPath string    `json:"input_path"`
	StartTime time.Time `json:"start_time"`
}
