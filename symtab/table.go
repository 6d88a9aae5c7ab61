// Package symtab holds the per-build side-tables Pass 1 populates and
// Pass 2 reads: per-file rename maps for statically-scoped names, the
// global typedef map, the struct/union field-name map, and the duplicate
// registry (spec §4.2).
package symtab

import (
	"reflect"

	"github.com/viant/cxref/cast"
	"github.com/viant/cxref/graph"
)

// Logger is the minimal line-oriented diagnostic sink every table write
// that can conflict reports through — spec §7's duplicate/typedef-conflict
// log lines.
type Logger func(format string, args ...interface{})

// rename is a recorded rename target: the graph name a statically-scoped
// entity was renamed to, plus the kind it was defined with. Carrying the
// kind lets Pass 2 resolve a bare reference to the exact node Pass 1 built
// without re-deriving its kind from surface syntax (a plain identifier
// heuristic would misclassify a renamed enum constructor as a global).
type rename struct {
	Name string
	Kind graph.Kind
}

// Table groups the rename, typedef, fields and dupe side-tables that live
// for the duration of one build (spec §9 "global side-tables... a clean
// realisation groups them in a single Builder record").
type Table struct {
	log Logger

	// renames is file -> original name -> renamed graph name + kind, for
	// statically-scoped entities (spec §4.2). The kind travels with the
	// mapping so Pass 2 can resolve a bare reference to the exact node
	// Pass 1 created, without re-guessing its kind from surface syntax.
	renames map[string]map[string]rename

	// typedefs is typedef name -> underlying type AST, written only in
	// Pass 1 (spec §4.2/§4.4).
	typedefs map[string]cast.TypeRef

	// fields is a prefixed tag name (e.g. "S__point") -> ordered field
	// names, populated when a struct/union definition is walked.
	fields map[string][]string

	// dupes marks nodes as duplicates so the resolver can suppress edges
	// touching them (spec §4.2/§4.3).
	dupes map[graph.Key]bool
}

// New creates an empty Table. log may be nil, in which case conflicts are
// silently dropped (tests that don't care about diagnostics).
func New(log Logger) *Table {
	if log == nil {
		log = func(string, ...interface{}) {}
	}
	return &Table{
		log:      log,
		renames:  map[string]map[string]rename{},
		typedefs: map[string]cast.TypeRef{},
		fields:   map[string][]string{},
		dupes:    map[graph.Key]bool{},
	}
}

// LookupRename returns the graph name/kind name was renamed to within file,
// if any (spec §4.2: "Pass 2 reuses the same mapping so intra-file
// references resolve").
func (t *Table) LookupRename(file, name string) (string, graph.Kind, bool) {
	m, ok := t.renames[file]
	if !ok {
		return "", 0, false
	}
	r, ok := m[name]
	return r.Name, r.Kind, ok
}

// SetRename records that name was renamed to renamed (of kind k) within
// file. Pass 1 calls this once per statically-scoped definition.
func (t *Table) SetRename(file, name, renamed string, k graph.Kind) {
	m, ok := t.renames[file]
	if !ok {
		m = map[string]rename{}
		t.renames[file] = m
	}
	m[name] = rename{Name: renamed, Kind: k}
}

// DefineTypedef records name -> underlying in the global typedef map. On a
// rewrite with a structurally different body, the first binding wins and
// the collision is logged (spec §4.2/§7); a rewrite with an identical body
// is silent (spec §4.4 "typedef-kind duplicates with matching body").
func (t *Table) DefineTypedef(name string, underlying cast.TypeRef) {
	existing, ok := t.typedefs[name]
	if !ok {
		t.typedefs[name] = underlying
		return
	}
	if reflect.DeepEqual(existing, underlying) {
		return
	}
	t.log("typedef conflict: %s redefined with a different body, keeping first binding", name)
}

// Typedef returns the underlying type AST for a typedef name, if known.
func (t *Table) Typedef(name string) (cast.TypeRef, bool) {
	underlying, ok := t.typedefs[name]
	return underlying, ok
}

// SetFields records the ordered field names for a prefixed tag name (e.g.
// "S__point").
func (t *Table) SetFields(taggedName string, fieldNames []string) {
	t.fields[taggedName] = fieldNames
}

// Fields returns the ordered field names for a prefixed tag name.
func (t *Table) Fields(taggedName string) ([]string, bool) {
	f, ok := t.fields[taggedName]
	return f, ok
}

// MarkDupe marks k as a duplicate. A child node created under a dupe
// parent inherits dupe status at creation time by the caller also calling
// MarkDupe for the child (spec §4.2).
func (t *Table) MarkDupe(k graph.Key) {
	t.dupes[k] = true
}

// IsDupe reports whether k has been marked a duplicate.
func (t *Table) IsDupe(k graph.Key) bool {
	return t.dupes[k]
}

// Logf reports a diagnostic through the table's logger.
func (t *Table) Logf(format string, args ...interface{}) {
	t.log(format, args...)
}
