package builder

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/viant/cxref/cast"
	"github.com/viant/cxref/graph"
	"github.com/viant/cxref/resolve"
	"github.com/viant/cxref/symtab"
)

// Builder is the build-wide record spec §9 asks for: the graph store, the
// shared tables, the resolver built over both, and the tuning that governs
// Pass 1/Pass 2/the Adjuster. One Builder serves exactly one build; create
// a fresh one for the next (the graph.Store's gensym counter and the
// symtab.Table are both build-scoped, never process-global).
type Builder struct {
	g      *graph.Store
	tables *symtab.Table
	r      *resolve.Resolver

	cfg  Config
	hook resolve.Hook

	log         *diagLog
	logOverride io.Writer
	verbose     bool
}

// New creates a Builder. logPath is where the diagnostic log is written
// (conventionally "pfff.log" next to the build's working directory);
// WithLogWriter overrides it, which every test does to avoid touching disk.
func New(logPath string, opts ...Option) (*Builder, error) {
	b := &Builder{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(b)
	}

	dl, err := newDiagLog(logPath, b.logOverride, b.verbose)
	if err != nil {
		return nil, err
	}
	b.log = dl

	b.g = graph.NewStore()
	b.tables = symtab.New(b.log.Logf)
	b.r = resolve.New(b.g, b.tables, b.hook, b.cfg.IsExternal)
	return b, nil
}

// Close flushes and closes the diagnostic log.
func (b *Builder) Close() error {
	return b.log.Close()
}

// Graph returns the store being built (read access only makes sense once
// Build has run).
func (b *Builder) Graph() *graph.Store { return b.g }

// Build runs the full pipeline over units in order: Pass 1 over every unit,
// then Pass 2 over every unit (so forward references across files resolve,
// spec §4 "two passes over the whole set, not per file"), then the
// Adjuster if configured, then the final remove_empty sweep (spec §4.6).
func (b *Builder) Build(units []cast.TranslationUnit) error {
	for _, tu := range units {
		if err := b.defineUnit(tu); err != nil {
			return err
		}
	}
	for _, tu := range units {
		if err := b.useUnit(tu); err != nil {
			return err
		}
	}
	if b.cfg.PropagateDepsDefToDecl {
		adjust(b.g)
	}
	b.pruneSinks()
	return nil
}

// pruneSinks calls RemoveEmpty for every synthetic sink node actually
// present, since sink identity is per-name (spec §3: NotFound/Dupe/Pb are
// kinds, not singleton nodes).
func (b *Builder) pruneSinks() {
	var sinks []graph.Key
	for _, n := range b.g.Nodes() {
		if n.Kind.IsSink() {
			sinks = append(sinks, n.Key)
		}
	}
	b.g.RemoveEmpty(sinks)
}

// ensureFileNode creates (idempotently) the Dir chain and File node for a
// translation unit and returns its key, the node Pass 1/Pass 2 hang every
// top-level definition off of (spec §4.1/§4.4). When the unit carries raw
// content (every unit tsc.Parse produced; hand-built test units may not),
// the File node's Info.Hash is populated from it — the supplemented
// content-hash feature (SPEC_FULL §4).
func (b *Builder) ensureFileNode(tu cast.TranslationUnit) (graph.Key, error) {
	path := filepath.ToSlash(tu.Path)
	key := graph.Key{Name: path, Kind: graph.File}
	if b.g.HasNode(key) {
		return key, nil
	}
	if err := b.g.CreateIntermediateDirs(path); err != nil {
		return key, err
	}
	parent := graph.RootKey
	if idx := lastSlash(path); idx >= 0 {
		parent = graph.Key{Name: path[:idx], Kind: graph.Dir}
	}
	b.g.AddNode(key)
	if err := b.g.AddEdge(parent, key, graph.Has); err != nil {
		return key, err
	}
	if tu.Content != nil {
		sum, err := graph.Hash(tu.Content)
		if err != nil {
			return key, fmt.Errorf("builder: hash %s: %w", path, err)
		}
		b.g.AttachInfo(key, &graph.Info{Hash: sum, HasHash: true})
	}
	return key, nil
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

// isMacroShaped is the "looks like a macro" heuristic of spec §4.5: all
// letters upper-case, digits and underscores otherwise, at least one
// letter. Renamed entities never hit this path: walkIdentUse consults the
// rename map first, and macros/constants are never rename-eligible.
func isMacroShaped(name string) bool {
	hasLetter := false
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9', r == '_':
			// allowed
		default:
			return false
		}
	}
	return hasLetter
}

// tagGraphName returns the prefixed Type-kind graph name for a tag
// reference (spec §3's naming namespace).
func tagGraphName(t cast.TagRef) string {
	switch t.Kind {
	case cast.TagUnion:
		return graph.UnionTypeName(t.Name)
	case cast.TagEnum:
		return graph.EnumTypeName(t.Name)
	default:
		return graph.StructTypeName(t.Name)
	}
}

// followTypedefTarget resolves what a reference to typedef `name` should
// point at when TypedefsDependencies is disabled: the ultimate tag the
// typedef chain bottoms out at, or the typedef node itself when the chain
// has nothing further to follow (a self-referential anonymous tag, an
// unknown name, a builtin, or a pointer/array whose element is not a
// typedef name) (spec §4.5/§9(iv), an Open Question this build
// resolves by consulting the symtab's typedef map directly rather than
// walking graph edges).
func followTypedefTarget(tables *symtab.Table, name string) graph.Key {
	self := graph.Key{Name: graph.TypedefTypeName(name), Kind: graph.Type}
	underlying, ok := tables.Typedef(name)
	if !ok {
		return self
	}
	switch u := underlying.(type) {
	case cast.TagRef:
		if u.Name == "" {
			return self // self-referential: anonymous inline tag
		}
		return graph.Key{Name: tagGraphName(u), Kind: graph.Type}
	case cast.TypedefRef:
		return followTypedefTarget(tables, u.Name)
	case cast.PointerRef:
		if next := typedefNameOf(u.Elem, name); next != name {
			return followTypedefTarget(tables, next)
		}
		return self
	case cast.ArrayRef:
		if next := typedefNameOf(u.Elem, name); next != name {
			return followTypedefTarget(tables, next)
		}
		return self
	default:
		return self
	}
}

// typedefNameOf extracts the typedef name to keep following when
// unwrapping a pointer/array whose element is itself a typedef reference;
// any other element shape has no further name to chase, so fall back to
// the original typedef (self).
func typedefNameOf(t cast.TypeRef, fallback string) string {
	if ref, ok := t.(cast.TypedefRef); ok {
		return ref.Name
	}
	return fallback
}
