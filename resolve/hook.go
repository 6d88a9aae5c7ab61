package resolve

import "github.com/viant/cxref/graph"

// Context describes *why* the use walker is emitting an edge (spec §4.7).
// The zero value, NoContext, is the default; the remaining values are the
// extension points spec.md calls out (call-arg, assignment-rhs, etc).
type Context int

const (
	NoContext Context = iota
	CallArgument
	AssignLHS
	AssignRHS
	ReturnValue
	InitializerValue
	TypeReference
)

// Hook is the single pluggable observer on use-edge emission (spec §4.7).
// It replaces the source tool's mutable global function reference: it is
// threaded through explicitly (as a Resolver field set via an option), not
// stashed in a package-level variable (spec §9).
type Hook func(ctx Context, inAssign bool, src, dst graph.Key, g *graph.Store)
