package engine

import (
	"runtime"
	"time"
)

// Option is a functional option for customizing a single analysis run.
type Option func(*options)

// options holds per-run knobs. The zero-adjusted defaults are a serial run
// of the full catalog with no deadline.
type options struct {
	fast    bool
	workers int
	ruleIDs []string
	timeout time.Duration
}

func defaultOptions() *options {
	return &options{workers: 1}
}

// WithFast restricts the run to high and critical severity rules. Useful in
// editor integrations and pre-commit hooks where latency matters more than
// completeness.
func WithFast() Option {
	return func(o *options) {
		o.fast = true
	}
}

// WithParallel evaluates statements concurrently using one worker per CPU.
func WithParallel() Option {
	return func(o *options) {
		o.workers = runtime.NumCPU()
	}
}

// WithWorkers sets an explicit worker count. Values below one fall back to
// serial evaluation.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithRules restricts the run to the named rules. Analyze returns an error
// when an ID does not exist in the catalog, so typos surface immediately
// instead of silently running nothing.
func WithRules(ids ...string) Option {
	return func(o *options) {
		o.ruleIDs = append(o.ruleIDs, ids...)
	}
}

// WithTimeout bounds the whole analysis. On expiry the result carries the
// findings gathered so far with Incomplete set.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}
