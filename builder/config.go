// Package builder is the core orchestrator (spec §4): it drives Pass 1
// (definitions), Pass 2 (uses), the optional Adjuster, and the final
// remove_empty sweep over a graph.Store/symtab.Table pair, in the style of
// the source tool's analyzer.Analyzer (functional-options config, single
// entry point, no process-global state).
package builder

// Config holds the tunable behaviours spec §4 calls out by name. All of
// them default the way the source tool's equivalents do: on, except the
// two that change edge semantics rather than just adding coverage.
type Config struct {
	// TypesDependencies gates every type-reference use edge Pass 2 would
	// otherwise emit (function/variable/field/typedef type references).
	// Default true.
	TypesDependencies bool

	// FieldsDependencies gates whether Pass 2 descends into named struct/
	// union field types looking for type references. Default true.
	FieldsDependencies bool

	// TypedefsDependencies controls whether a reference to a typedef name
	// targets the typedef node itself (true) or is rewritten to the
	// typedef's ultimate tag (false, the default) — spec §4.5/§9(iv).
	TypedefsDependencies bool

	// PropagateDepsDefToDecl enables the Adjuster's def→decl/caller
	// propagation pass (spec §4.6). Default false: most builds only want
	// the direct graph.
	PropagateDepsDefToDecl bool

	// IsExternal classifies a file path as an external stub, suppressing
	// lookup-failure diagnostics for it (spec §4.3 step 6). Defaults to
	// resolve.DefaultIsExternal when nil.
	IsExternal func(path string) bool
}

// DefaultConfig returns the spec's default tuning.
func DefaultConfig() Config {
	return Config{
		TypesDependencies:      true,
		FieldsDependencies:     true,
		TypedefsDependencies:   false,
		PropagateDepsDefToDecl: false,
	}
}
