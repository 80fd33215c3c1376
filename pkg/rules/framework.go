// Package rules holds the detection rule catalog. Every rule is a pure
// predicate over a tokenized statement; rules share no mutable state and can
// be evaluated in any order. The catalog is populated at init time and is
// read-only afterwards.
package rules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/slowql/slowql/pkg/config"
	"github.com/slowql/slowql/pkg/tokenizer"
	"github.com/slowql/slowql/pkg/types"
)

// Context carries the per-analysis knobs rules may consult. It is built
// once per analysis and passed explicitly; there is no process-wide
// analysis state.
type Context struct {
	Thresholds config.Thresholds
}

// Match is one raw hit produced by a rule's predicate.
type Match struct {
	// Excerpt is the verbatim offending text.
	Excerpt string

	// Severity overrides the rule severity for this match when Override
	// is set. Most rules report at their catalog severity.
	Severity types.Severity
	Override bool
}

// NewMatch returns a match at the rule's default severity.
func NewMatch(excerpt string) Match {
	return Match{Excerpt: excerpt}
}

// WithSeverity returns a copy of the match reporting at sev.
func (m Match) WithSeverity(sev types.Severity) Match {
	m.Severity = sev
	m.Override = true
	return m
}

// MatchFunc is a rule predicate. It receives the analysis context and the
// root node of a tokenized statement and returns zero or more matches.
// Predicates must be stateless and side-effect-free.
type MatchFunc func(ctx *Context, stmt *tokenizer.Node) []Match

// Rule is one catalog entry.
type Rule struct {
	// ID uniquely identifies the rule, e.g. "statement.where.missing".
	ID string

	Severity types.Severity
	Title    string
	// Fix is the suggested rewrite shown to the user.
	Fix string
	// Impact describes the consequence of leaving the issue in place.
	Impact string

	// Kinds restricts the rule to specific statement kinds. Empty means
	// the rule applies to every statement.
	Kinds []types.StatementKind

	Match MatchFunc
}

// AppliesTo reports whether the rule should run against the statement kind.
func (r *Rule) AppliesTo(kind types.StatementKind) bool {
	if len(r.Kinds) == 0 {
		return true
	}
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Rule)
)

// Register adds a rule to the catalog. It panics on a nil rule, an empty
// ID, a missing predicate, or a duplicate ID: a catalog that silently
// shadows a rule would give misleading guarantees, so misconfiguration is
// fatal at startup.
func Register(r *Rule) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if r == nil {
		panic("rules: Register rule is nil")
	}
	if r.ID == "" {
		panic("rules: Register rule has empty ID")
	}
	if r.Match == nil {
		panic(fmt.Sprintf("rules: Register rule %s has nil predicate", r.ID))
	}
	if _, dup := registry[r.ID]; dup {
		panic(fmt.Sprintf("rules: Register called twice for rule %s", r.ID))
	}
	registry[r.ID] = r
}

// Get returns the rule with the given ID.
func Get(id string) (*Rule, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[id]
	return r, ok
}

// All returns the full catalog sorted by rule ID.
func All() []*Rule {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]*Rule, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns all registered rule IDs, sorted.
func IDs() []string {
	all := All()
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	return ids
}

// Count returns the catalog size.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
