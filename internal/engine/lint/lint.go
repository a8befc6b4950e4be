// Package lint runs lightweight pattern rules over documents. Rules see the
// code with comments and literals blanked out, so matches never come from
// prose or string contents.
package lint

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
	"doccheck/internal/lexer"
)

// Off disables a rule in Engine.Configure.
const Off = "off"

type Engine struct {
	SkipHost bool

	rules    []Rule
	severity map[string]diag.Severity
}

// New returns an engine running rules with their default severities.
func New(rules ...Rule) *Engine {
	e := &Engine{severity: make(map[string]diag.Severity, len(rules))}
	for _, r := range rules {
		e.rules = append(e.rules, r)
		e.severity[r.ID()] = r.DefaultSeverity()
	}
	return e
}

// Configure applies per-rule levels ("off", "info", "warning", "error").
// Unknown rule ids are an error.
func (e *Engine) Configure(levels map[string]string) error {
	ids := make([]string, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !e.hasRule(id) {
			return fmt.Errorf("lint: unknown rule %q", id)
		}
		level := strings.ToLower(strings.TrimSpace(levels[id]))
		if level == Off {
			delete(e.severity, id)
			continue
		}
		sev, err := diag.ParseSeverity(level)
		if err != nil {
			return fmt.Errorf("lint: rule %q: %w", id, err)
		}
		e.severity[id] = sev
	}
	return nil
}

func (e *Engine) hasRule(id string) bool {
	for _, r := range e.rules {
		if r.ID() == id {
			return true
		}
	}
	return false
}

// Rules returns the enabled rules in registration order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if _, ok := e.severity[r.ID()]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) Name() string {
	return "lint"
}

// Check runs every enabled rule over each document. Documents the lexer
// cannot split are left to the syntax engine and get no lint messages.
func (e *Engine) Check(ctx context.Context, docs []codeblock.Document) ([][]diag.Message, error) {
	out := make([][]diag.Message, len(docs))
	rules := e.Rules()
	if len(rules) == 0 {
		return out, nil
	}
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.SkipHost && !doc.IsVirtual() {
			continue
		}
		file := doc.File()
		res, err := lexer.Scan(file)
		if err != nil {
			continue
		}
		lc := &Context{Doc: doc, File: file, Code: mask(file, res)}
		for _, r := range rules {
			lc.rule = r
			lc.severity = e.severity[r.ID()]
			r.Check(lc)
		}
		out[i] = lc.out
	}
	return out, nil
}
