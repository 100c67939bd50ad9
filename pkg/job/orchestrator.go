package job

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vasic-labs/doctranslate/pkg/auth"
	"github.com/vasic-labs/doctranslate/pkg/chunker"
	"github.com/vasic-labs/doctranslate/pkg/engine"
	"github.com/vasic-labs/doctranslate/pkg/epub"
	"github.com/vasic-labs/doctranslate/pkg/events"
	"github.com/vasic-labs/doctranslate/pkg/job/store"
	"github.com/vasic-labs/doctranslate/pkg/language"
	"github.com/vasic-labs/doctranslate/pkg/llm"
	"github.com/vasic-labs/doctranslate/pkg/logger"
	"github.com/vasic-labs/doctranslate/pkg/script"
	"github.com/vasic-labs/doctranslate/pkg/srt"
)

// sourceLanguageSampleBytes bounds how much of an input file is read to
// auto-detect its source language when a job doesn't name one.
const sourceLanguageSampleBytes = 2000

// ProviderFactory builds an LLM provider for a job's requested provider and
// model. Credential resolution (API keys per provider) lives behind this
// factory, outside the orchestrator.
type ProviderFactory func(cfg Config) (*llm.Provider, error)

// Orchestrator runs the multi-worker, single-job-per-worker scheduling
// model described in spec.md §4.8. Shared state is a map from id to job,
// guarded by a mutex; every mutator acquires and releases within a single
// critical section, and blocking work (LLM calls, file I/O) never runs
// under the lock.
type Orchestrator struct {
	mu         sync.Mutex
	jobs       map[string]*Record
	interrupts map[string]*atomic.Bool

	store           store.Store
	bus             *events.Bus
	providerFactory ProviderFactory
	log             logger.Logger
	limiter         *auth.SubmissionLimiter
}

// New constructs an Orchestrator. bus and log may be nil (a nil bus drops
// events silently; a nil log uses logger.NewNoOpLogger()).
func New(s store.Store, bus *events.Bus, providerFactory ProviderFactory, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Orchestrator{
		jobs:            make(map[string]*Record),
		interrupts:      make(map[string]*atomic.Bool),
		store:           s,
		bus:             bus,
		providerFactory: providerFactory,
		log:             log,
	}
}

// WithSubmissionLimiter attaches a per-principal submission rate limiter.
// Without one, Submit never throttles.
func (o *Orchestrator) WithSubmissionLimiter(l *auth.SubmissionLimiter) *Orchestrator {
	o.limiter = l
	return o
}

// Submit atomically registers a new job in the queued state and dispatches
// a worker goroutine for it. Returns an error without registering the job
// if cfg.SubmittedBy has exceeded its submission rate.
func (o *Orchestrator) Submit(ctx context.Context, cfg Config) (string, error) {
	if o.limiter != nil && !o.limiter.Allow(cfg.SubmittedBy) {
		return "", fmt.Errorf("submission rate exceeded for %q", cfg.SubmittedBy)
	}

	id := uuid.NewString()
	now := time.Now()

	rec := &Record{
		ID:        id,
		Status:    StatusQueued,
		Config:    cfg,
		StartTime: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	o.mu.Lock()
	o.jobs[id] = rec
	o.interrupts[id] = &atomic.Bool{}
	o.mu.Unlock()

	if o.store != nil {
		if err := o.store.Create(ctx, rec.Clone()); err != nil {
			return "", fmt.Errorf("persist job: %w", err)
		}
	}
	o.publish(id, events.TypeJobQueued, "job queued", nil)

	go o.run(id)

	return id, nil
}

// Status returns a thread-safe deep copy of the job's current state.
func (o *Orchestrator) Status(id string) (*Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	return rec.Clone(), nil
}

// Interrupt sets the interrupt flag iff the job is queued or running.
// Returns false if the job doesn't exist or isn't in an interruptible
// state.
func (o *Orchestrator) Interrupt(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.jobs[id]
	if !ok {
		return false
	}
	if rec.Status != StatusQueued && rec.Status != StatusRunning {
		return false
	}
	flag, ok := o.interrupts[id]
	if !ok {
		return false
	}
	flag.Store(true)
	return true
}

// List returns job summaries sorted by start time descending.
func (o *Orchestrator) List() []Summary {
	o.mu.Lock()
	records := make([]*Record, 0, len(o.jobs))
	for _, rec := range o.jobs {
		records = append(records, rec.Clone())
	}
	o.mu.Unlock()

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if records[j].StartTime.After(records[i].StartTime) {
				records[i], records[j] = records[j], records[i]
			}
		}
	}

	summaries := make([]Summary, len(records))
	for i, r := range records {
		summaries[i] = Summary{ID: r.ID, Status: r.Status, Progress: r.Progress, InputPath: r.Config.InputPath, StartTime: r.StartTime}
	}
	return summaries
}

func (o *Orchestrator) cancelled(id string) func() bool {
	return func() bool {
		o.mu.Lock()
		flag, ok := o.interrupts[id]
		o.mu.Unlock()
		return ok && flag.Load()
	}
}

func (o *Orchestrator) publish(id string, t events.Type, message string, data map[string]interface{}) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(events.NewEvent(t, id, message, data))
}

func (o *Orchestrator) mutate(id string, fn func(r *Record)) {
	o.mu.Lock()
	rec, ok := o.jobs[id]
	var snapshot *Record
	if ok {
		fn(rec)
		rec.UpdatedAt = time.Now()
		snapshot = rec.Clone()
	}
	o.mu.Unlock()

	if ok && o.store != nil {
		_ = o.store.Update(context.Background(), snapshot)
	}
}

// run is the per-job worker. It never holds the orchestrator lock while
// performing blocking work.
func (o *Orchestrator) run(id string) {
	o.mutate(id, func(r *Record) { r.Status = StatusRunning })
	o.publish(id, events.TypeJobStarted, "job started", nil)
	o.log.Info("job started", map[string]interface{}{"job_id": id})

	rec, err := o.Status(id)
	if err != nil {
		return
	}

	provider, err := o.providerFactory(rec.Config)
	if err != nil {
		o.fail(id, fmt.Errorf("construct provider: %w", err))
		return
	}
	defer provider.Close()

	ctx := context.Background()

	cfg := rec.Config
	if cfg.SourceLanguage == "" && cfg.Format != FormatEPUB {
		if detected := o.detectSourceLanguage(ctx, provider, cfg.InputPath); detected != "" {
			cfg.SourceLanguage = detected
			o.mutate(id, func(r *Record) { r.Config.SourceLanguage = detected })
			o.appendLog(id, fmt.Sprintf("auto-detected source language: %s", detected))
		}
	}

	switch cfg.Format {
	case FormatEPUB:
		o.runEPUB(ctx, id, provider, cfg)
	case FormatSRT:
		o.runSRT(ctx, id, provider, cfg)
	default:
		o.runText(ctx, id, provider, cfg)
	}
}

// detectSourceLanguage samples an input file and asks language.Detector for
// its language; the detector consults the LLM provider first and falls back
// to its character-frequency heuristic. Returns "" (leaving the job's
// source language unset) on any read or detection failure rather than
// failing the job over a best-effort convenience feature.
func (o *Orchestrator) detectSourceLanguage(ctx context.Context, provider *llm.Provider, inputPath string) string {
	f, err := os.Open(inputPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, sourceLanguageSampleBytes)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return ""
	}

	detector := language.NewDetector(language.NewProviderDetector(provider))
	lang, err := detector.Detect(ctx, string(buf[:n]))
	if err != nil {
		return ""
	}
	return lang.Code
}

func (o *Orchestrator) fail(id string, err error) {
	o.mutate(id, func(r *Record) {
		r.Status = StatusError
		r.Error = err.Error()
		t := time.Now()
		r.EndTime = &t
	})
	o.publish(id, events.TypeJobError, err.Error(), nil)
	o.log.Error("job failed", map[string]interface{}{"job_id": id, "error": err.Error()})
}

func (o *Orchestrator) finishIfNotCancelled(id string) {
	o.mu.Lock()
	rec := o.jobs[id]
	alreadyTerminal := rec != nil && (rec.Status == StatusInterrupted || rec.Status == StatusError)
	o.mu.Unlock()
	if alreadyTerminal {
		return
	}

	if o.cancelled(id)() {
		o.mutate(id, func(r *Record) {
			r.Status = StatusInterrupted
			t := time.Now()
			r.EndTime = &t
		})
		o.publish(id, events.TypeJobInterrupted, "job interrupted", nil)
		return
	}

	o.mutate(id, func(r *Record) {
		r.Status = StatusCompleted
		r.Progress = 100
		t := time.Now()
		r.EndTime = &t
	})
	o.publish(id, events.TypeJobCompleted, "job completed", nil)
}

func (o *Orchestrator) runText(ctx context.Context, id string, provider *llm.Provider, cfg Config) {
	data, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		o.fail(id, err)
		return
	}

	chunks := chunker.Split(string(data), chunker.DefaultMainLinesPerChunk)
	o.mutate(id, func(r *Record) { r.Stats.TotalUnits = len(chunks) })

	results := engine.TranslateChunks(ctx, provider, chunks, engine.Options{
		SourceLanguage:          cfg.SourceLanguage,
		TargetLanguage:          cfg.TargetLanguage,
		CustomInstructions:      cfg.CustomInstructions,
		EnablePostProcess:       cfg.EnablePostProcess,
		PostProcessInstructions: cfg.PostProcessInstructions,
		TargetScript:            script.ScriptType(cfg.TargetScript),
		Callbacks: engine.Callbacks{
			Progress:  func(p float64) { o.mutate(id, func(r *Record) { r.Progress = p }) },
			Log:       func(event, message string) { o.appendLog(id, message); o.publish(id, events.TypeJobLog, message, nil) },
			Stats:     func(s engine.Stats) { o.mutate(id, func(r *Record) { r.Stats.CompletedUnits, r.Stats.FailedUnits = s.CompletedChunks, s.FailedChunks }) },
			Cancelled: o.cancelled(id),
		},
	})

	joined := ""
	for _, r := range results {
		joined += r
	}
	if err := os.WriteFile(cfg.OutputPath, []byte(joined), 0o644); err != nil {
		o.fail(id, err)
		return
	}

	o.finishIfNotCancelled(id)
}

func (o *Orchestrator) runEPUB(ctx context.Context, id string, provider *llm.Provider, cfg Config) {
	in, err := os.Open(cfg.InputPath)
	if err != nil {
		o.fail(id, err)
		return
	}
	defer in.Close()

	stat, err := in.Stat()
	if err != nil {
		o.fail(id, err)
		return
	}

	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		o.fail(id, err)
		return
	}
	defer out.Close()

	err = epub.Translate(ctx, provider, in, stat.Size(), out, epub.Options{
		SourceLanguage:          cfg.SourceLanguage,
		TargetLanguage:          cfg.TargetLanguage,
		CustomInstructions:      cfg.CustomInstructions,
		EnablePostProcess:       cfg.EnablePostProcess,
		PostProcessInstructions: cfg.PostProcessInstructions,
		TargetScript:            script.ScriptType(cfg.TargetScript),
		Progress:                func(p float64) { o.mutate(id, func(r *Record) { r.Progress = p }) },
		Log:                     func(event, message string) { o.appendLog(id, message); o.publish(id, events.TypeJobLog, message, nil) },
		Cancelled:               o.cancelled(id),
	})
	if err != nil {
		o.fail(id, err)
		return
	}

	o.finishIfNotCancelled(id)
}

func (o *Orchestrator) runSRT(ctx context.Context, id string, provider *llm.Provider, cfg Config) {
	data, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		o.fail(id, err)
		return
	}

	subs := srt.Parse(string(data))
	blocks := srt.Group(subs, srt.DefaultLinesPerBlock, srt.DefaultMaxCharsPerBlock)
	o.mutate(id, func(r *Record) { r.Stats.TotalUnits = len(blocks) })

	translations := srt.TranslateBlocks(ctx, provider, blocks, cfg.SourceLanguage, cfg.TargetLanguage, cfg.CustomInstructions, cfg.EnablePostProcess, cfg.PostProcessInstructions, srt.Callbacks{
		Progress:  func(p float64) { o.mutate(id, func(r *Record) { r.Progress = p }) },
		Log:       func(event, message string) { o.appendLog(id, message); o.publish(id, events.TypeJobLog, message, nil) },
		Cancelled: o.cancelled(id),
	})

	out := srt.Reconstruct(subs, translations)
	if err := os.WriteFile(cfg.OutputPath, []byte(out), 0o644); err != nil {
		o.fail(id, err)
		return
	}

	o.finishIfNotCancelled(id)
}

func (o *Orchestrator) appendLog(id, message string) {
	o.mutate(id, func(r *Record) { r.Logs = append(r.Logs, message) })
}
