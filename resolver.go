package weld

import (
	"github.com/xyproto/weld/internal/object"
)

// contextResolver adapts Context to frontend.Resolver, applying
// mergeRule on every collision and logging merge errors through the
// context's diagnostic sink. Merge errors are reported once here at
// driver level rather than inside each front end. The reported
// multiple-definition message names the symbol only; it does not name
// the files that define it.
type contextResolver struct {
	ctx *Context
}

func (r *contextResolver) Resolve(name string, incoming *object.Symbol) (*object.Symbol, error) {
	inserted, existing, already := r.ctx.Globals.Insert(name, incoming)
	if !already {
		return inserted, nil
	}

	// mergeRule mutates existing in place; it is the one Symbol
	// instance every local table entry and Relocation.Symbol for this
	// name will ever point at, so this is also what gets returned here
	// for the front end to store.
	if err := mergeRule(existing, incoming); err != nil {
		r.ctx.sink.Errorf("%v", err)
		return nil, err
	}
	return existing, nil
}
