package model

import "time"

// Job is one tournament queued for normalization.
type Job struct {
	ID         string // run identifier handed back to clients
	Key        string // content hash used for idempotency
	Tournament Tournament
	Scraped    ScrapedData
	Submitted  time.Time
}

// RunStatus tracks a job through the pipeline.
type RunStatus string

// Run lifecycle.
const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Done reports a terminal status.
func (s RunStatus) Done() bool { return s == RunSucceeded || s == RunFailed }

// Run is the stored record of one normalization.
type Run struct {
	ID         string    `json:"id"`
	Key        string    `json:"key,omitempty"`
	Tournament string    `json:"tournament"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
}

// Summary drops the outcome body, keeping counts in Stats.
func (r Run) Summary() Run {
	if r.Outcome != nil {
		o := *r.Outcome
		o.Results = nil
		r.Outcome = &o
	}
	return r
}
