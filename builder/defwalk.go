package builder

import (
	"strings"

	"github.com/viant/cxref/cast"
	"github.com/viant/cxref/graph"
)

// defineUnit is Pass 1 (spec §4.4): walk every top-level form of tu and
// turn it into a definition node plus a Has edge from the file (or the
// owning type, for fields/enum constructors). Pass 1 never emits a Use
// edge.
func (b *Builder) defineUnit(tu cast.TranslationUnit) error {
	fileKey, err := b.ensureFileNode(tu)
	if err != nil {
		return err
	}
	for _, decl := range tu.Decls {
		if err := b.defineToplevel(tu, fileKey, decl); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) defineToplevel(tu cast.TranslationUnit, parent graph.Key, decl cast.Toplevel) error {
	switch d := decl.(type) {
	case cast.FuncDef:
		return b.defineFuncDef(tu, parent, d)
	case cast.FuncDecl:
		return b.defineFuncDecl(tu, parent, d)
	case cast.VarDecl:
		return b.defineVarDecl(tu, parent, d)
	case cast.StructOrUnion:
		return b.defineStructOrUnion(tu, parent, d)
	case cast.EnumDef:
		return b.defineEnumDef(tu, parent, d)
	case cast.Typedef:
		return b.defineTypedef(tu, parent, d)
	case cast.ObjectMacro:
		return b.defineObjectMacro(tu, parent, d)
	case cast.FuncMacro:
		return b.defineFuncMacro(tu, parent, d)
	case cast.Include:
		return nil // spec §4.4: no node, no edge
	default:
		return nil
	}
}

// renameIfStatic records a gensym rename for a statically-scoped entity
// (spec §4.2: static functions/globals in a .c file, `main`, and enum
// constructors declared in a .c file) and returns the graph name to use.
// Header-file statics are deliberately left alone — renaming them would
// make cross-.c uses unresolvable even when they should resolve by textual
// match.
func (b *Builder) renameIfStatic(tu cast.TranslationUnit, name string, kind graph.Kind, shouldRename bool) string {
	if !shouldRename {
		return name
	}
	renamed := b.g.Gensym(name)
	b.tables.SetRename(tu.Path, name, renamed, kind)
	return renamed
}

// addDefinition creates key under parent with a Has edge, attaching info,
// unless key already exists — in which case it is a
// duplicate definition (spec §4.4): logged (unless the file is an external
// stub) and marked, with no second Has edge and no descent into children.
// It reports whether the node was newly created (false means: duplicate,
// caller should not recurse into children).
func (b *Builder) addDefinition(tu cast.TranslationUnit, parent graph.Key, key graph.Key, pos cast.Pos, typeSig string, logDupe bool) bool {
	if b.g.HasNode(key) {
		if logDupe && !b.isExternalFile(tu.Path) {
			b.tables.Logf("duplicate definition: %s %q (previously defined elsewhere)", key.Kind, key.Name)
		}
		b.tables.MarkDupe(key)
		return false
	}
	b.g.AddNode(key)
	// AddEdge only fails when an endpoint is missing; parent is always
	// already in the graph by construction here.
	_ = b.g.AddEdge(parent, key, graph.Has)
	b.g.AttachInfo(key, &graph.Info{Pos: pos, TypeSig: typeSig})
	if b.tables.IsDupe(parent) {
		b.tables.MarkDupe(key) // a child of a duplicate inherits dupe status
	}
	return true
}

func (b *Builder) isExternalFile(path string) bool {
	if b.cfg.IsExternal != nil {
		return b.cfg.IsExternal(path)
	}
	return defaultIsExternalPath(path)
}

func defaultIsExternalPath(path string) bool {
	return strings.Contains(path, "EXTERNAL")
}

func (b *Builder) defineFuncDef(tu cast.TranslationUnit, parent graph.Key, d cast.FuncDef) error {
	rename := tu.Kind == cast.Source && (d.Storage == cast.StorageStatic || d.Name == "main")
	name := b.renameIfStatic(tu, d.Name, graph.Function, rename)
	key := graph.Key{Name: name, Kind: graph.Function}
	b.addDefinition(tu, parent, key, d.Pos, d.Signature, true)
	return nil
}

func (b *Builder) defineFuncDecl(tu cast.TranslationUnit, parent graph.Key, d cast.FuncDecl) error {
	if d.Storage == cast.StorageStatic && tu.Kind == cast.Source {
		// A static prototype in a .c file: the matching definition's name
		// will be renamed, so emitting this node would be a phantom that
		// nothing ever resolves to.
		return nil
	}
	key := graph.Key{Name: d.Name, Kind: graph.Prototype}
	b.addDefinition(tu, parent, key, d.Pos, d.Signature, false)
	return nil
}

func (b *Builder) defineVarDecl(tu cast.TranslationUnit, parent graph.Key, d cast.VarDecl) error {
	var kind graph.Kind
	rename := false
	switch {
	case d.Storage == cast.StorageExtern:
		kind = graph.GlobalExtern
	case d.Storage == cast.StorageNone && tu.Kind == cast.Header:
		if d.HasInit {
			kind = graph.Global
			b.tables.Logf("global %q defined with an initializer in a header; consider moving the definition to a source file", d.Name)
		} else {
			kind = graph.GlobalExtern
		}
	default:
		kind = graph.Global
		rename = d.Storage == cast.StorageStatic && tu.Kind == cast.Source
	}
	name := b.renameIfStatic(tu, d.Name, kind, rename)
	key := graph.Key{Name: name, Kind: kind}
	// Prototype/GlobalExtern collisions are common and expected (repeated
	// extern declarations across headers); only a Global redefinition is
	// logged (spec §4.4).
	b.addDefinition(tu, parent, key, d.Pos, "", kind == graph.Global)
	return nil
}

func (b *Builder) defineStructOrUnion(tu cast.TranslationUnit, parent graph.Key, d cast.StructOrUnion) error {
	if d.Name == "" {
		return nil // anonymous top-level struct/union: nothing to name a node after
	}
	graphName := graph.StructTypeName(d.Name)
	if d.IsUnion {
		graphName = graph.UnionTypeName(d.Name)
	}
	key := graph.Key{Name: graphName, Kind: graph.Type}
	created := b.addDefinition(tu, parent, key, d.Pos, "", true)
	if !created {
		return nil // duplicate: do not re-walk fields under it
	}
	var fieldNames []string
	for _, f := range d.Fields {
		if f.Name == "" {
			// An unnamed member gets no Field node; Pass 2 walks its type
			// from the owning aggregate. Its own members are not hoisted
			// into the enclosing aggregate (spec §4.4/§9).
			continue
		}
		fieldNames = append(fieldNames, f.Name)
		fkey := graph.Key{Name: graph.FieldName(graphName, f.Name), Kind: graph.Field}
		b.addDefinition(tu, key, fkey, f.Pos, "", true)
	}
	b.tables.SetFields(graphName, fieldNames)
	return nil
}

func (b *Builder) defineEnumDef(tu cast.TranslationUnit, parent graph.Key, d cast.EnumDef) error {
	if d.Name == "" {
		return nil
	}
	graphName := graph.EnumTypeName(d.Name)
	key := graph.Key{Name: graphName, Kind: graph.Type}
	created := b.addDefinition(tu, parent, key, d.Pos, "", true)
	if !created {
		return nil
	}
	rename := tu.Kind == cast.Source
	for _, c := range d.Constructors {
		name := b.renameIfStatic(tu, c.Name, graph.Constructor, rename)
		ckey := graph.Key{Name: name, Kind: graph.Constructor}
		b.addDefinition(tu, key, ckey, c.Pos, "", true)
	}
	return nil
}

func (b *Builder) defineTypedef(tu cast.TranslationUnit, parent graph.Key, d cast.Typedef) error {
	// The typedef map records the body regardless of whether the graph
	// node already exists, so a matching redefinition across repeated
	// header inclusion is silent (spec §4.4) and a conflicting one is
	// logged with the first binding kept (spec §7) — without marking the
	// node itself a duplicate, unlike every other kind.
	b.tables.DefineTypedef(d.Name, d.Underlying)
	key := graph.Key{Name: graph.TypedefTypeName(d.Name), Kind: graph.Type}
	if b.g.HasNode(key) {
		return nil
	}
	b.g.AddNode(key)
	_ = b.g.AddEdge(parent, key, graph.Has)
	b.g.AttachInfo(key, &graph.Info{Pos: d.Pos})
	return nil
}

func (b *Builder) defineObjectMacro(tu cast.TranslationUnit, parent graph.Key, d cast.ObjectMacro) error {
	// #define is routinely repeated across header inclusion; redefinition
	// is not a duplicate-definition defect the way a second function body
	// is, so a second occurrence is silently skipped rather than logged.
	key := graph.Key{Name: d.Name, Kind: graph.Constant}
	if b.g.HasNode(key) {
		return nil
	}
	b.g.AddNode(key)
	_ = b.g.AddEdge(parent, key, graph.Has)
	b.g.AttachInfo(key, &graph.Info{Pos: d.Pos, TypeSig: d.Body})
	return nil
}

func (b *Builder) defineFuncMacro(tu cast.TranslationUnit, parent graph.Key, d cast.FuncMacro) error {
	key := graph.Key{Name: d.Name, Kind: graph.Macro}
	if b.g.HasNode(key) {
		return nil
	}
	b.g.AddNode(key)
	_ = b.g.AddEdge(parent, key, graph.Has)
	b.g.AttachInfo(key, &graph.Info{Pos: d.Pos})
	return nil
}
