package report

import "time"

// Options controls what a collection pass gathers and how. It is owned by
// the caller (typically the CLI) and recorded unchanged in the Document's
// generation metadata.
type Options struct {
	// IncludeMetrics enables the metrics enrichment pass.
	IncludeMetrics bool `json:"includeMetrics" yaml:"includeMetrics"`

	// IncludeLogSnips enables the per-container log snippet enrichment pass.
	IncludeLogSnips bool `json:"includeLogSnips" yaml:"includeLogSnips"`

	// LogTailLines is the maximum number of most-recent log lines fetched
	// per container when IncludeLogSnips is set.
	LogTailLines int64 `json:"logTailLines" yaml:"logTailLines"`

	// IncludeDefinitions controls whether full resource definitions are
	// carried into the exported document.
	IncludeDefinitions bool `json:"includeDefinitions" yaml:"includeDefinitions"`

	// FetchTimeout bounds each per-kind query against the cluster API.
	// A timed-out fetch is treated as unavailable, not fatal.
	FetchTimeout time.Duration `json:"fetchTimeout" yaml:"fetchTimeout"`

	// MaxConcurrentFetches bounds the fetch fan-out.
	MaxConcurrentFetches int `json:"maxConcurrentFetches" yaml:"maxConcurrentFetches"`
}

// DefaultOptions returns the defaults shared between the model and the CLI.
func DefaultOptions() Options {
	return Options{
		IncludeMetrics:       true,
		IncludeLogSnips:      false,
		LogTailLines:         10,
		IncludeDefinitions:   false,
		FetchTimeout:         30 * time.Second,
		MaxConcurrentFetches: 4,
	}
}
