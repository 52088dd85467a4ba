// Package types contains request and response shapes shared by the service
// and its transports.
package types

import (
	"strings"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
)

// Job acknowledgement statuses.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// NormalizeRequest is the body of POST /v1/normalize and POST /v1/jobs.
type NormalizeRequest struct {
	Tournament *model.Tournament `json:"tournament"`
	Scraped    model.ScrapedData `json:"scraped"`
}

// JobAccepted acknowledges an asynchronous submission.
type JobAccepted struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// RunList is the body of GET /v1/runs.
type RunList struct {
	Runs  []model.Run `json:"runs"`
	Total int         `json:"total"`
}

// ShortName is the body of GET /v1/schools/short-name.
type ShortName struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// ResultFilter narrows the results of one run. Zero values match everything.
type ResultFilter struct {
	School        string
	ResultSet     string
	MinPercentile float64
}

// Match reports whether r passes the filter. School matches either the full
// or the short school name, case-insensitively.
func (f ResultFilter) Match(r *model.Result) bool {
	if f.School != "" && !strings.EqualFold(f.School, r.SchoolName) && !strings.EqualFold(f.School, r.SchoolShortName) {
		return false
	}
	if f.ResultSet != "" && f.ResultSet != r.ResultSet {
		return false
	}
	return r.Percentile >= f.MinPercentile
}

// Apply returns the matching results in order.
func (f ResultFilter) Apply(results []model.Result) []model.Result {
	out := make([]model.Result, 0, len(results))
	for i := range results {
		if f.Match(&results[i]) {
			out = append(out, results[i])
		}
	}
	return out
}
