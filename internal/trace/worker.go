package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kalambet/coach/internal/metrics"
	"github.com/kalambet/coach/internal/storage"
)

const (
	DefaultBaseURL = "https://www.comet.com/opik/api"
	exportTimeout  = 15 * time.Second
)

// JobStore abstracts the job queue operations.
type JobStore interface {
	ClaimNextJob(ctx context.Context, types []string) (*storage.Job, error)
	CompleteJob(ctx context.Context, id string) error
	FailJob(ctx context.Context, id string, errMsg string) error
}

type ExporterConfig struct {
	BaseURL   string
	APIKey    string
	Workspace string
}

// Worker exports trace_export jobs to the Opik REST API.
type Worker struct {
	store      JobStore
	cfg        ExporterConfig
	httpClient *http.Client
	poll       time.Duration
	logger     *slog.Logger
}

// NewWorker creates a Worker. If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, cfg ExporterConfig, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Worker{
		store:      store,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: exportTimeout},
		poll:       pollInterval,
		logger:     slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("trace worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and exports a single trace.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob(ctx, []string{storage.JobTypeTraceExport})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.export(ctx, job); err != nil {
		metrics.TraceExports.WithLabelValues(metrics.ResultError).Inc()
		w.logger.Warn("trace export failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	metrics.TraceExports.WithLabelValues(metrics.ResultOK).Inc()
	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

// opikTrace is the body of POST /v1/private/traces.
type opikTrace struct {
	Name        string         `json:"name"`
	ProjectName string         `json:"project_name"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	Input       map[string]any `json:"input"`
	Output      map[string]any `json:"output"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (w *Worker) export(ctx context.Context, job *storage.Job) error {
	var t Trace
	if err := json.Unmarshal([]byte(job.PayloadJSON), &t); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	body, err := json.Marshal(opikTrace{
		Name:        t.Name,
		ProjectName: t.Project,
		StartTime:   t.Timestamp,
		EndTime:     t.Timestamp,
		Input:       map[string]any{"prompt": t.Prompt, "input": t.Input},
		Output:      map[string]any{"output": t.Output},
		Metadata:    map[string]any{"source": "coach"},
	})
	if err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+"/v1/private/traces", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", w.cfg.APIKey)
	if w.cfg.Workspace != "" {
		req.Header.Set("Comet-Workspace", w.cfg.Workspace)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending trace: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("opik returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
