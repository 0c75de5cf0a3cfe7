// Package operation drives a remote download job through submit, poll and
// download, one step per call, and runs batches of such jobs.
package operation

import (
	"context"
	"errors"
	"fmt"

	"bingads-extractor/shared/observability"
	"bingads-extractor/shared/retry"
	"bingads-extractor/workers/extractor/internal/domain"
)

// Job is a single remote job. Statuses are returned in the service's own
// vocabulary for the job's kind.
type Job interface {
	Kind() domain.Kind
	Submit(ctx context.Context) (string, error)
	Poll(ctx context.Context) (string, error)
	Download(ctx context.Context, dir, name string) (string, error)
}

const failedGuidance = "the remote job failed; resubmit with fewer entities or disable quality-score/bid-suggestion data, or retry later"

var statusVocabulary = map[domain.Kind]map[string]domain.JobStatus{
	domain.KindBulk: {
		"InProgress":             domain.StatusInProgress,
		"Completed":              domain.StatusCompleted,
		"Failed":                 domain.StatusFailed,
		"FailedFullSyncRequired": domain.StatusFailedFullSyncRequired,
	},
	domain.KindReport: {
		"Pending": domain.StatusInProgress,
		"Success": domain.StatusCompleted,
		"Error":   domain.StatusFailed,
	},
}

// MapStatus translates a raw status of a job of kind.
func MapStatus(kind domain.Kind, raw string) (domain.JobStatus, bool) {
	status, ok := statusVocabulary[kind][raw]
	return status, ok
}

// Operation tracks one job. It is not safe for concurrent use.
type Operation struct {
	job    Job
	dir    string
	name   string
	policy retry.Policy
	logger observability.Logger

	submitted  bool
	downloaded bool
	status     domain.JobStatus
	path       string
	err        error
}

// New returns an operation that downloads the result of job to dir/name.
func New(job Job, dir, name string, policy retry.Policy, logger observability.Logger) *Operation {
	return &Operation{
		job:    job,
		dir:    dir,
		name:   name,
		policy: policy,
		logger: logger,
	}
}

func (o *Operation) Name() string             { return o.name }
func (o *Operation) Status() domain.JobStatus { return o.status }
func (o *Operation) Err() error               { return o.err }

// Path is the downloaded file, or "" when the job produced no file.
func (o *Operation) Path() string { return o.path }

// Downloaded reports whether the download step has run.
func (o *Operation) Downloaded() bool { return o.downloaded }

// Done reports whether further Process calls have no effect.
func (o *Operation) Done() bool {
	return o.downloaded || o.err != nil
}

// Process advances the job by one step: submit, then poll until a terminal
// status, then download once. After success or failure it keeps returning
// the same result.
func (o *Operation) Process(ctx context.Context) error {
	if o.err != nil {
		return o.err
	}
	if o.downloaded {
		return nil
	}

	if !o.submitted {
		raw, err := o.attempt(ctx, "submit", o.job.Submit)
		if err != nil {
			return o.fail(err)
		}
		o.submitted = true
		o.logger.Info(ctx, "Remote job submitted", observability.Fields{
			"file":   o.name,
			"status": raw,
		})
		return o.record(raw)
	}

	switch o.status {
	case domain.StatusUnknown, domain.StatusInProgress:
		raw, err := o.attempt(ctx, "poll", o.job.Poll)
		if err != nil {
			return o.fail(err)
		}
		return o.record(raw)

	case domain.StatusCompleted:
		path, err := o.attempt(ctx, "download", func(ctx context.Context) (string, error) {
			return o.job.Download(ctx, o.dir, o.name)
		})
		if err != nil {
			return o.fail(err)
		}
		o.path = path
		o.downloaded = true
		o.logger.Info(ctx, "Remote job result downloaded", observability.Fields{
			"file": o.name,
			"path": path,
		})
		return nil
	}

	return o.fail(domain.UnexpectedStateError(string(o.status)))
}

func (o *Operation) record(raw string) error {
	status, ok := MapStatus(o.job.Kind(), raw)
	if !ok {
		return o.fail(domain.UnexpectedStateError(raw))
	}
	o.status = status

	switch status {
	case domain.StatusFailed:
		return o.fail(domain.RemoteJobError(failedGuidance, nil))
	case domain.StatusFailedFullSyncRequired:
		return o.fail(domain.RemoteJobError(
			"the service requires a full download; disable since_last_run or retry without a cutoff",
			domain.ErrFullSyncRequired))
	}
	return nil
}

func (o *Operation) fail(err error) error {
	o.err = err
	return err
}

// attempt retries transient failures of fn and escalates exhaustion to a
// remote job error.
func (o *Operation) attempt(ctx context.Context, phase string, fn func(ctx context.Context) (string, error)) (string, error) {
	var out string
	err := retry.Do(ctx, o.policy, isTransient, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			if isTransient(err) {
				o.logger.Warn(ctx, "Transient failure, retrying", observability.Fields{
					"phase": phase,
					"file":  o.name,
					"error": err.Error(),
				})
			}
			return err
		}
		out = v
		return nil
	})

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return "", domain.RemoteJobError(fmt.Sprintf("%s failed after %d attempts", phase, exhausted.Attempts), exhausted.Err)
	}
	return out, err
}

func isTransient(err error) bool {
	return domain.IsKind(err, domain.TransientNetwork)
}
