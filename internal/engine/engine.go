// Package engine defines the check engine boundary: an engine receives the
// ordered documents of one real file and answers with one message list per
// document, in the same order.
package engine

import (
	"context"
	"fmt"

	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
)

// Engine checks documents. Check must return exactly len(docs) lists;
// positions are relative to each document.
type Engine interface {
	Name() string
	Check(ctx context.Context, docs []codeblock.Document) ([][]diag.Message, error)
}

// Chain runs several engines and concatenates their lists per document.
type Chain []Engine

func (c Chain) Name() string {
	return "chain"
}

// Check runs engines in order and stops at the first error.
// An engine that answers with the wrong number of lists is an error.
func (c Chain) Check(ctx context.Context, docs []codeblock.Document) ([][]diag.Message, error) {
	out := make([][]diag.Message, len(docs))
	for _, e := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lists, err := e.Check(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if len(lists) != len(docs) {
			return nil, fmt.Errorf("%s: returned %d message lists for %d documents", e.Name(), len(lists), len(docs))
		}
		for i, msgs := range lists {
			out[i] = append(out[i], msgs...)
		}
	}
	return out, nil
}

// Func adapts a per-document function to Engine. Documents for which skip
// returns true get an empty list.
type Func struct {
	ID   string
	Skip func(codeblock.Document) bool
	Fn   func(ctx context.Context, doc codeblock.Document) ([]diag.Message, error)
}

func (f Func) Name() string {
	return f.ID
}

func (f Func) Check(ctx context.Context, docs []codeblock.Document) ([][]diag.Message, error) {
	out := make([][]diag.Message, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Skip != nil && f.Skip(doc) {
			continue
		}
		msgs, err := f.Fn(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Path(), err)
		}
		out[i] = msgs
	}
	return out, nil
}

// SkipHost skips the real file and checks only extracted documents.
func SkipHost(doc codeblock.Document) bool {
	return !doc.IsVirtual()
}
