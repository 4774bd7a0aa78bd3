// Package trace records agent runs. Without an Opik API key traces are only
// logged; with one they are queued in the job store and exported by Worker.
package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/coach/internal/storage"
)

const DefaultProject = "commit-coach"

// Trace is one agent run.
type Trace struct {
	Name      string    `json:"name"`
	Project   string    `json:"project"`
	Prompt    string    `json:"prompt"`
	Input     any       `json:"input"`
	Output    any       `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// Queue is the subset of the job store used to defer exports.
type Queue interface {
	EnqueueJob(ctx context.Context, job storage.Job) error
}

// Emitter hands traces to the export queue, or to the log when export is off.
type Emitter struct {
	queue   Queue
	project string
	logger  *slog.Logger
	now     func() time.Time
}

// NewEmitter returns an emitter that exports through queue when apiKey is set
// and queue is non-nil, and logs otherwise.
func NewEmitter(apiKey, project string, queue Queue) *Emitter {
	if project == "" {
		project = DefaultProject
	}
	e := &Emitter{
		project: project,
		logger:  slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	if apiKey != "" {
		e.queue = queue
	}
	return e
}

// Exporting reports whether traces leave the process.
func (e *Emitter) Exporting() bool {
	return e.queue != nil
}

// Emit records one agent run.
func (e *Emitter) Emit(ctx context.Context, name, prompt string, input, output any) error {
	t := Trace{
		Name:      name,
		Project:   e.project,
		Prompt:    prompt,
		Input:     input,
		Output:    output,
		Timestamp: e.now(),
	}

	if e.queue == nil {
		e.logger.Info("[opik:trace]", "name", t.Name, "project", t.Project, "timestamp", t.Timestamp, "input", t.Input, "output", t.Output)
		return nil
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding trace %s: %w", name, err)
	}
	job := storage.Job{
		ID:          uuid.NewString(),
		Type:        storage.JobTypeTraceExport,
		PayloadJSON: string(payload),
	}
	if err := e.queue.EnqueueJob(ctx, job); err != nil {
		return fmt.Errorf("queueing trace %s: %w", name, err)
	}
	return nil
}
