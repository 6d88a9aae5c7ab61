// Package resolve implements the name resolver (spec §4.3): it looks up
// references, applies the "rekind" fallback to an adjacent kind, and
// tracks in-scope locals so parameter/variable shadowing suppresses false
// uses.
package resolve

import (
	"fmt"
	"strings"

	"github.com/viant/cxref/graph"
	"github.com/viant/cxref/symtab"
)

// falsePositiveTokens are vendor-specific tagging macros that look like
// identifiers but are never real references (spec §4.3 step 2).
var falsePositiveTokens = map[string]bool{
	"USED": true,
	"SET":  true,
}

// Resolver ties the graph store and the shared tables together for
// add_use_edge (spec §4.3).
type Resolver struct {
	g          *graph.Store
	tables     *symtab.Table
	hook       Hook
	isExternal func(path string) bool
}

// New creates a Resolver over g/tables. hook may be nil (no-op default,
// spec §4.7). isExternal may be nil, in which case the default predicate
// is "path contains the literal substring EXTERNAL" (spec §4.3 step 6).
func New(g *graph.Store, tables *symtab.Table, hook Hook, isExternal func(string) bool) *Resolver {
	if isExternal == nil {
		isExternal = DefaultIsExternal
	}
	return &Resolver{g: g, tables: tables, hook: hook, isExternal: isExternal}
}

// DefaultIsExternal is spec §4.3 step 6's literal marker check.
func DefaultIsExternal(path string) bool {
	return strings.Contains(path, "EXTERNAL")
}

// rekind tries an adjacent kind when the first lookup misses (spec §4.3
// step 5). Constant↔macro and tag↔typedef rekinding are reserved
// extension points per spec §9(iii) and are intentionally not implemented.
func rekind(kind graph.Kind) (graph.Kind, bool) {
	switch kind {
	case graph.Function:
		return graph.Prototype, true
	case graph.Global:
		return graph.GlobalExtern, true
	default:
		return 0, false
	}
}

// AddUseEdge implements spec §4.3's add_use_edge operation: current is the
// referring node, currentFile is the translation unit it came from (used
// for the EXTERNAL-stub suppression), name/kind identify the reference
// site's target, ctx/inAssign are passed straight to the hook.
func (r *Resolver) AddUseEdge(current graph.Key, currentFile, name string, kind graph.Kind, ctx Context, inAssign bool) error {
	// Step 1: a dupe source drops the edge; a dupe target is redirected to
	// the Dupe sink by emit.
	if r.tables.IsDupe(current) {
		r.tables.Logf("drop use edge: source %s %q is a duplicate", current.Kind, current.Name)
		return nil
	}

	// Step 2: known false-positive token.
	if falsePositiveTokens[name] {
		return nil
	}

	// Step 3: current missing from the graph is a programmer error, fatal
	// for this file.
	if !r.g.HasNode(current) {
		return fmt.Errorf("resolve: current node %s %q missing from graph (file %s)", current.Kind, current.Name, currentFile)
	}

	target := graph.Key{Name: name, Kind: kind}
	if r.g.HasNode(target) {
		return r.emit(current, target, ctx, inAssign)
	}

	// Step 5: rekind to an adjacent kind.
	if altKind, ok := rekind(kind); ok {
		alt := graph.Key{Name: name, Kind: altKind}
		if r.g.HasNode(alt) {
			return r.emit(current, alt, ctx, inAssign)
		}
	}

	// Step 6: stub files under EXTERNAL never produce lookup-failure noise.
	if r.isExternal(currentFile) {
		return nil
	}

	// Step 7: genuinely unresolved — log and redirect to the NotFound sink
	// (spec §3 invariant 2(b)).
	r.tables.Logf("Lookup failure on %s (kind %s) from %s %q in %s", name, kind, current.Kind, current.Name, currentFile)
	sink := graph.Key{Name: name, Kind: graph.NotFound}
	r.g.AddNode(sink)
	return r.g.AddEdge(current, sink, graph.Use)
}

// DirectUse emits a Use edge to a target the caller has already resolved by
// name (e.g. a typedef chain followed through the symbol table rather than
// through a graph lookup). It still honours the dupe-source/dupe-target
// rules and the hook, but performs no kind lookup or rekind fallback.
func (r *Resolver) DirectUse(current, target graph.Key, ctx Context, inAssign bool) error {
	if r.tables.IsDupe(current) {
		r.tables.Logf("drop use edge: source %s %q is a duplicate", current.Kind, current.Name)
		return nil
	}
	if !r.g.HasNode(current) {
		return fmt.Errorf("resolve: current node %s %q missing from graph", current.Kind, current.Name)
	}
	if !r.g.HasNode(target) {
		r.g.AddNode(target)
	}
	return r.emit(current, target, ctx, inAssign)
}

// emit adds the Use edge, redirecting to the Dupe sink instead of the real
// node when the resolved target turns out to be a duplicate (so the real
// duplicate node keeps accumulating zero edges, per spec §3 invariant 3,
// while the graph still records that a reference was attempted).
func (r *Resolver) emit(current, target graph.Key, ctx Context, inAssign bool) error {
	if r.tables.IsDupe(target) {
		r.tables.Logf("drop use edge: target %s %q is a duplicate", target.Kind, target.Name)
		sink := graph.Key{Name: target.Name, Kind: graph.Dupe}
		r.g.AddNode(sink)
		return r.g.AddEdge(current, sink, graph.Use)
	}
	if err := r.g.AddEdge(current, target, graph.Use); err != nil {
		return err
	}
	if r.hook != nil {
		r.hook(ctx, inAssign, current, target, r.g)
	}
	return nil
}
