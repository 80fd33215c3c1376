// Package engine ties segmentation, tokenization and the rule catalog into
// one analysis pipeline.
//
// # Quick Start
//
//	e := engine.New()
//	result, err := e.Analyze(context.Background(), "DELETE FROM users;")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range result.Findings {
//	    fmt.Printf("[%s] %s: %s\n", f.Severity, f.RuleID, f.Excerpt)
//	}
//
// # Using Custom Configuration
//
//	e := engine.New()
//	if err := e.WithConfig(".slowql.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	result, err := e.Analyze(ctx, sql, engine.WithParallel())
package engine

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/slowql/slowql/pkg/config"
	"github.com/slowql/slowql/pkg/rules"
	"github.com/slowql/slowql/pkg/segmenter"
	"github.com/slowql/slowql/pkg/tokenizer"
	"github.com/slowql/slowql/pkg/types"
)

// Engine runs the detection catalog over SQL text. The analysis is purely
// static: no database connection, schema metadata or statistics are
// consulted.
//
// Engine is safe for concurrent use by multiple goroutines.
type Engine struct {
	cfg *config.Config
}

// New creates an Engine with the default configuration: every registered
// rule enabled at its catalog severity, thresholds at their defaults.
func New() *Engine {
	return &Engine{cfg: config.Default()}
}

// WithConfig loads configuration from a YAML or JSON file, replacing the
// current configuration.
func (e *Engine) WithConfig(filename string) error {
	cfg, err := config.LoadFromFile(filename)
	if err != nil {
		return errors.Wrapf(err, "load config from %s", filename)
	}
	e.cfg = cfg
	return nil
}

// WithConfigObject sets the configuration directly and returns the Engine
// for chaining.
func (e *Engine) WithConfigObject(cfg *config.Config) *Engine {
	if cfg != nil {
		e.cfg = cfg
	}
	return e
}

// Config returns the active configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// activeRule pairs a catalog rule with its effective severity after config
// overrides.
type activeRule struct {
	rule     *rules.Rule
	severity types.Severity
}

// stmtOutcome is the raw evaluation output for one statement slot.
type stmtOutcome struct {
	findings    []types.Finding
	diagnostics []types.Diagnostic
	done        bool
}

// Analyze segments the SQL text, evaluates every active rule against every
// statement and returns the aggregated result.
//
// Each finding is independent: one rule failing, panicking or being disabled
// never affects another rule's output. Failures are reported as Diagnostics
// on the result rather than as an error.
//
// The context supports cancellation; on cancellation or timeout the result
// carries the findings gathered so far with Incomplete set, and the returned
// error is nil. Analyze returns an error only when the run cannot start at
// all, such as an unknown rule ID in WithRules.
func (e *Engine) Analyze(ctx context.Context, sql string, opts ...Option) (*types.AnalysisResult, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	active, err := e.activeRules(o)
	if err != nil {
		return nil, err
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	statements := segmenter.Segment(sql)
	if len(statements) == 0 {
		return aggregate(statements, nil, false), nil
	}

	rctx := &rules.Context{Thresholds: e.cfg.Thresholds}
	slots := make([]stmtOutcome, len(statements))

	if o.workers <= 1 || len(statements) == 1 {
		for i := range statements {
			if ctx.Err() != nil {
				break
			}
			slots[i] = evalStatement(rctx, active, statements[i])
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.workers)
		for i := range statements {
			i := i
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				slots[i] = evalStatement(rctx, active, statements[i])
				return nil
			})
		}
		// Workers never return errors; Wait only joins them.
		_ = g.Wait()
	}

	incomplete := ctx.Err() != nil
	return aggregate(statements, slots, incomplete), nil
}

// activeRules resolves the rule set for one run: the subset filter, config
// disables, severity overrides and fast mode, in that order.
func (e *Engine) activeRules(o *options) ([]activeRule, error) {
	catalog := rules.All()

	var selected []*rules.Rule
	if len(o.ruleIDs) > 0 {
		seen := make(map[string]bool, len(o.ruleIDs))
		for _, id := range o.ruleIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			r, ok := rules.Get(id)
			if !ok {
				return nil, errors.Errorf("unknown rule %q", id)
			}
			selected = append(selected, r)
		}
	} else {
		selected = catalog
	}

	out := make([]activeRule, 0, len(selected))
	for _, r := range selected {
		if e.cfg.Disabled(r.ID) {
			continue
		}
		sev := e.cfg.SeverityFor(r.ID, r.Severity)
		if o.fast && sev < types.SeverityHigh {
			continue
		}
		out = append(out, activeRule{rule: r, severity: sev})
	}
	return out, nil
}

// evalStatement tokenizes one statement and runs every applicable rule
// against it.
func evalStatement(rctx *rules.Context, active []activeRule, stmt types.Statement) stmtOutcome {
	tree := tokenizer.Tokenize(stmt)
	root := tree.Root()

	out := stmtOutcome{done: true}
	for _, ar := range active {
		if !ar.rule.AppliesTo(stmt.Kind) {
			continue
		}
		matches, err := evalRule(rctx, ar.rule, root)
		if err != nil {
			out.diagnostics = append(out.diagnostics, types.Diagnostic{
				RuleID:         ar.rule.ID,
				StatementIndex: stmt.Index,
				Err:            err.Error(),
			})
			continue
		}
		for _, m := range matches {
			sev := ar.severity
			if m.Override {
				sev = m.Severity
			}
			out.findings = append(out.findings, types.Finding{
				RuleID:         ar.rule.ID,
				Severity:       sev,
				StatementIndex: stmt.Index,
				Line:           stmt.Line,
				Excerpt:        m.Excerpt,
				Title:          ar.rule.Title,
				Fix:            ar.rule.Fix,
				Impact:         ar.rule.Impact,
			})
		}
	}
	return out
}

// evalRule runs one rule predicate with panic isolation. A panicking rule
// yields an error instead of taking down the whole analysis.
func evalRule(rctx *rules.Context, r *rules.Rule, root *tokenizer.Node) (matches []rules.Match, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("rule %s panicked: %v", r.ID, rec)
			slog.Warn("rule panicked", "rule", r.ID, "panic", rec)
			matches = nil
		}
	}()
	return r.Match(rctx, root), nil
}
