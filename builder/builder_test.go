package builder

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cxref/cast"
	"github.com/viant/cxref/graph"
)

func newTestBuilder(t *testing.T, opts ...Option) (*Builder, *bytes.Buffer) {
	t.Helper()
	var logBuf bytes.Buffer
	allOpts := append([]Option{WithLogWriter(&logBuf)}, opts...)
	b, err := New("pfff.log", allOpts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, &logBuf
}

func intType() cast.TypeRef { return cast.BuiltinRef{Name: "int"} }

// S1: two .c files each declare a static global `x` and a function that
// reads it. Static-scope renaming must keep the two `x`s, and the two
// functions, distinct (spec §4.2/§8).
func TestBuilder_StaticShadowing(t *testing.T) {
	b, _ := newTestBuilder(t)

	unitA := cast.TranslationUnit{Path: "a.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.VarDecl{Name: "x", Storage: cast.StorageStatic, HasInit: true, Type: intType(), Init: cast.Literal{Text: "1"}},
		cast.FuncDef{Name: "f", Signature: "int f(void)", Body: &cast.Block{Stmts: []cast.Stmt{
			cast.ReturnStmt{X: cast.Ident{Name: "x"}},
		}}},
	}}
	unitB := cast.TranslationUnit{Path: "b.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.VarDecl{Name: "x", Storage: cast.StorageStatic, HasInit: true, Type: intType(), Init: cast.Literal{Text: "2"}},
		cast.FuncDef{Name: "g", Signature: "int g(void)", Body: &cast.Block{Stmts: []cast.Stmt{
			cast.ReturnStmt{X: cast.Ident{Name: "x"}},
		}}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{unitA, unitB}))

	g := b.Graph()
	fKey := graph.Key{Name: "f", Kind: graph.Function}
	gKey := graph.Key{Name: "g", Kind: graph.Function}
	fTargets := g.Successors(fKey, graph.Use)
	gTargets := g.Successors(gKey, graph.Use)
	require.Len(t, fTargets, 1)
	require.Len(t, gTargets, 1)

	assert.Equal(t, graph.Global, fTargets[0].Kind)
	assert.Equal(t, graph.Global, gTargets[0].Kind)
	assert.True(t, strings.HasPrefix(fTargets[0].Name, "x__"))
	assert.True(t, strings.HasPrefix(gTargets[0].Name, "x__"))
	assert.NotEqual(t, fTargets[0].Name, gTargets[0].Name, "each static x must be a distinct node")
}

// S2: a function only prototyped (never defined among the parsed units) is
// reached via the Function→Prototype rekind fallback (spec §4.3 step 5).
func TestBuilder_RekindToPrototype(t *testing.T) {
	b, _ := newTestBuilder(t)

	header := cast.TranslationUnit{Path: "lib.h", Kind: cast.Header, Decls: []cast.Toplevel{
		cast.FuncDecl{Name: "foo", Signature: "void foo(int)", Params: []cast.Param{{Name: "n", Type: intType()}}},
	}}
	caller := cast.TranslationUnit{Path: "caller.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "main", Signature: "int main(void)", Body: &cast.Block{Stmts: []cast.Stmt{
			cast.ExprStmt{X: cast.CallExpr{Fn: cast.Ident{Name: "foo"}, Args: []cast.Expr{cast.Literal{Text: "1"}}}},
		}}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{header, caller}))

	g := b.Graph()
	// main is renamed (it's always static-scoped in a .c file).
	var mainKey graph.Key
	for _, n := range g.Nodes() {
		if n.Kind == graph.Function && strings.HasPrefix(n.Name, "main__") {
			mainKey = n.Key
		}
	}
	require.NotEqual(t, graph.Key{}, mainKey)
	targets := g.Successors(mainKey, graph.Use)
	require.Len(t, targets, 1)
	assert.Equal(t, graph.Key{Name: "foo", Kind: graph.Prototype}, targets[0])
}

// S2 (flag true): with a later a.c defining `void f(void){}` alongside the
// header prototype, the Adjuster must add (f, Function) -Use-> (f,
// Prototype) and propagate every predecessor of (f, Function) — including
// caller, whose call resolved straight to the Function definition — onto
// the Prototype too (spec §4.6).
func TestBuilder_AdjusterPropagatesFunctionToPrototype(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PropagateDepsDefToDecl = true
	b, _ := newTestBuilder(t, WithConfig(cfg))

	header := cast.TranslationUnit{Path: "a.h", Kind: cast.Header, Decls: []cast.Toplevel{
		cast.FuncDecl{Name: "f", Signature: "void f(void)"},
	}}
	def := cast.TranslationUnit{Path: "a.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "f", Signature: "void f(void)", Body: &cast.Block{}},
	}}
	caller := cast.TranslationUnit{Path: "b.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "caller", Signature: "void caller(void)", Body: &cast.Block{Stmts: []cast.Stmt{
			cast.ExprStmt{X: cast.CallExpr{Fn: cast.Ident{Name: "f"}}},
		}}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{header, def, caller}))

	g := b.Graph()
	fFunc := graph.Key{Name: "f", Kind: graph.Function}
	fProto := graph.Key{Name: "f", Kind: graph.Prototype}
	callerKey := graph.Key{Name: "caller", Kind: graph.Function}

	assert.Contains(t, g.Successors(fFunc, graph.Use), fProto, "def -> decl edge required by spec §4.6")
	assert.Contains(t, g.Successors(callerKey, graph.Use), fProto, "predecessor of def must be propagated onto decl")
	assert.Contains(t, g.Successors(callerKey, graph.Use), fFunc, "direct resolution to the definition is unaffected by propagation")
}

// The extern-global/global decl/def pair propagates the same way as
// prototype/function (spec §4.6).
func TestBuilder_AdjusterPropagatesGlobalToGlobalExtern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PropagateDepsDefToDecl = true
	b, _ := newTestBuilder(t, WithConfig(cfg))

	header := cast.TranslationUnit{Path: "a.h", Kind: cast.Header, Decls: []cast.Toplevel{
		cast.VarDecl{Name: "counter", Storage: cast.StorageExtern, Type: intType()},
	}}
	def := cast.TranslationUnit{Path: "a.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.VarDecl{Name: "counter", HasInit: true, Type: intType(), Init: cast.Literal{Text: "0"}},
	}}
	caller := cast.TranslationUnit{Path: "b.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "reader", Signature: "int reader(void)", Body: &cast.Block{Stmts: []cast.Stmt{
			cast.ReturnStmt{X: cast.Ident{Name: "counter"}},
		}}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{header, def, caller}))

	g := b.Graph()
	global := graph.Key{Name: "counter", Kind: graph.Global}
	extern := graph.Key{Name: "counter", Kind: graph.GlobalExtern}
	readerKey := graph.Key{Name: "reader", Kind: graph.Function}

	assert.Contains(t, g.Successors(global, graph.Use), extern)
	assert.Contains(t, g.Successors(readerKey, graph.Use), extern)
}

// S3: a function parameter referencing a struct tag produces a Use edge to
// the struct's Type node (spec §4.5, types_dependencies default on).
func TestBuilder_StructFieldTypeReference(t *testing.T) {
	b, _ := newTestBuilder(t)

	header := cast.TranslationUnit{Path: "point.h", Kind: cast.Header, Decls: []cast.Toplevel{
		cast.StructOrUnion{Name: "Point", Fields: []cast.FieldDecl{
			{Name: "x", Type: intType()},
			{Name: "y", Type: intType()},
		}},
	}}
	source := cast.TranslationUnit{Path: "use.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "distance", Signature: "int distance(struct Point *)", Params: []cast.Param{
			{Name: "p", Type: cast.PointerRef{Elem: cast.TagRef{Kind: cast.TagStruct, Name: "Point"}}},
		}, Body: &cast.Block{}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{header, source}))

	g := b.Graph()
	distKey := graph.Key{Name: "distance", Kind: graph.Function}
	targets := g.Successors(distKey, graph.Use)
	assert.Contains(t, targets, graph.Key{Name: graph.StructTypeName("Point"), Kind: graph.Type})

	fields, ok := b.tables.Fields(graph.StructTypeName("Point"))
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, fields)
}

// S4: with typedefs_dependencies at its default (false), a reference to a
// typedef name is rewritten to the underlying tag (spec §4.5/§9(iv)).
func TestBuilder_TypedefCollapsesToTag(t *testing.T) {
	b, _ := newTestBuilder(t)

	header := cast.TranslationUnit{Path: "t.h", Kind: cast.Header, Decls: []cast.Toplevel{
		cast.StructOrUnion{Name: "P", Fields: []cast.FieldDecl{{Name: "v", Type: intType()}}},
		cast.Typedef{Name: "T", Underlying: cast.TagRef{Kind: cast.TagStruct, Name: "P"}},
	}}
	source := cast.TranslationUnit{Path: "use.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "f", Signature: "void f(T *)", Params: []cast.Param{
			{Name: "p", Type: cast.PointerRef{Elem: cast.TypedefRef{Name: "T"}}},
		}, Body: &cast.Block{}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{header, source}))

	g := b.Graph()
	fKey := graph.Key{Name: "f", Kind: graph.Function}
	targets := g.Successors(fKey, graph.Use)
	assert.Contains(t, targets, graph.Key{Name: graph.StructTypeName("P"), Kind: graph.Type})
	assert.NotContains(t, targets, graph.Key{Name: graph.TypedefTypeName("T"), Kind: graph.Type})

	// the typedef's own body always links to its tag, regardless of the flag.
	tKey := graph.Key{Name: graph.TypedefTypeName("T"), Kind: graph.Type}
	assert.Contains(t, g.Successors(tKey, graph.Use), graph.Key{Name: graph.StructTypeName("P"), Kind: graph.Type})
}

// With typedefs_dependencies enabled, the same reference targets the
// typedef node directly instead of collapsing to its tag.
func TestBuilder_TypedefDependenciesEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TypedefsDependencies = true
	b, _ := newTestBuilder(t, WithConfig(cfg))

	header := cast.TranslationUnit{Path: "t.h", Kind: cast.Header, Decls: []cast.Toplevel{
		cast.StructOrUnion{Name: "P", Fields: []cast.FieldDecl{{Name: "v", Type: intType()}}},
		cast.Typedef{Name: "T", Underlying: cast.TagRef{Kind: cast.TagStruct, Name: "P"}},
	}}
	source := cast.TranslationUnit{Path: "use.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "f", Signature: "void f(T *)", Params: []cast.Param{
			{Name: "p", Type: cast.PointerRef{Elem: cast.TypedefRef{Name: "T"}}},
		}, Body: &cast.Block{}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{header, source}))

	g := b.Graph()
	fKey := graph.Key{Name: "f", Kind: graph.Function}
	targets := g.Successors(fKey, graph.Use)
	assert.Contains(t, targets, graph.Key{Name: graph.TypedefTypeName("T"), Kind: graph.Type})
}

// S5: a call to an upper-case name targets the Macro kind, a call to a
// lower-case name targets Function (spec §4.5).
func TestBuilder_MacroVsFunctionDisambiguation(t *testing.T) {
	b, _ := newTestBuilder(t)

	header := cast.TranslationUnit{Path: "util.h", Kind: cast.Header, Decls: []cast.Toplevel{
		cast.FuncMacro{Name: "MAX", Params: []string{"a", "b"}, Body: cast.Ident{Name: "a"}},
	}}
	source := cast.TranslationUnit{Path: "use.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "compute", Signature: "int compute(void)"},
		cast.FuncDef{Name: "caller", Signature: "int caller(void)", Body: &cast.Block{Stmts: []cast.Stmt{
			cast.ExprStmt{X: cast.CallExpr{Fn: cast.Ident{Name: "MAX"}, Args: []cast.Expr{cast.Literal{Text: "1"}, cast.Literal{Text: "2"}}}},
			cast.ExprStmt{X: cast.CallExpr{Fn: cast.Ident{Name: "compute"}}},
		}}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{header, source}))

	g := b.Graph()
	callerKey := graph.Key{Name: "caller", Kind: graph.Function}
	targets := g.Successors(callerKey, graph.Use)
	assert.Contains(t, targets, graph.Key{Name: "MAX", Kind: graph.Macro})
	assert.Contains(t, targets, graph.Key{Name: "compute", Kind: graph.Function})
}

// S6: two non-static definitions of the same function name across files
// are both marked duplicate; a reference to the name redirects to the
// shared Dupe sink, and the real node keeps zero use edges.
func TestBuilder_DuplicateDefinitionRedirectsToSink(t *testing.T) {
	b, logBuf := newTestBuilder(t)

	unitA := cast.TranslationUnit{Path: "a.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "shared", Signature: "void shared(void)", Body: &cast.Block{}},
	}}
	unitB := cast.TranslationUnit{Path: "b.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "shared", Signature: "void shared(void)", Body: &cast.Block{}},
		cast.FuncDef{Name: "caller", Signature: "void caller(void)", Body: &cast.Block{Stmts: []cast.Stmt{
			cast.ExprStmt{X: cast.CallExpr{Fn: cast.Ident{Name: "shared"}}},
		}}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{unitA, unitB}))
	assert.Contains(t, logBuf.String(), "duplicate definition")

	g := b.Graph()
	sharedKey := graph.Key{Name: "shared", Kind: graph.Function}
	require.True(t, g.HasNode(sharedKey))
	assert.Empty(t, g.Successors(sharedKey, graph.Use))
	assert.Empty(t, g.Predecessors(sharedKey, graph.Use))

	callerKey := graph.Key{Name: "caller", Kind: graph.Function}
	targets := g.Successors(callerKey, graph.Use)
	assert.Equal(t, []graph.Key{{Name: "shared", Kind: graph.Dupe}}, targets)
}

// An unresolved reference from a non-external file logs a lookup failure
// and redirects to a populated NotFound sink (spec §4.3 step 7).
func TestBuilder_UnresolvedReferenceSinksAndLogs(t *testing.T) {
	b, logBuf := newTestBuilder(t)

	unit := cast.TranslationUnit{Path: "a.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "caller", Signature: "void caller(void)", Body: &cast.Block{Stmts: []cast.Stmt{
			cast.ExprStmt{X: cast.CallExpr{Fn: cast.Ident{Name: "ghost"}}},
		}}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{unit}))
	assert.Contains(t, logBuf.String(), "Lookup failure")

	g := b.Graph()
	callerKey := graph.Key{Name: "caller", Kind: graph.Function}
	targets := g.Successors(callerKey, graph.Use)
	assert.Equal(t, []graph.Key{{Name: "ghost", Kind: graph.NotFound}}, targets)
}

// Locals (parameters and block-locals) suppress use edges entirely, even
// when their name would otherwise resolve (spec §4.3).
func TestBuilder_LocalsSuppressUseEdges(t *testing.T) {
	b, _ := newTestBuilder(t)

	unit := cast.TranslationUnit{Path: "a.c", Kind: cast.Source, Decls: []cast.Toplevel{
		cast.VarDecl{Name: "count", Type: intType(), HasInit: true, Init: cast.Literal{Text: "0"}},
		cast.FuncDef{Name: "f", Signature: "int f(int)", Params: []cast.Param{{Name: "count", Type: intType()}},
			Body: &cast.Block{Stmts: []cast.Stmt{
				cast.ReturnStmt{X: cast.Ident{Name: "count"}},
			}}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{unit}))

	g := b.Graph()
	fKey := graph.Key{Name: "f", Kind: graph.Function}
	assert.Empty(t, g.Successors(fKey, graph.Use), "the parameter shadows the global, so no use edge is emitted")
}

// A unit carrying raw Content (as every unit tsc.Parse produces) gets its
// File node's Info.Hash populated via graph.Hash; a unit built by hand
// without Content (every other test in this file) does not. The resulting
// graph is also rendered through DebugYAML, and the dump is checked to name
// the file and function nodes.
func TestBuilder_FileNodeContentHash(t *testing.T) {
	b, _ := newTestBuilder(t)

	src := []byte("void f(void) {}\n")
	unit := cast.TranslationUnit{Path: "a.c", Kind: cast.Source, Content: src, Decls: []cast.Toplevel{
		cast.FuncDef{Name: "f", Signature: "void f(void)", Body: &cast.Block{}},
	}}

	require.NoError(t, b.Build([]cast.TranslationUnit{unit}))

	g := b.Graph()
	var fileNode *graph.Node
	for _, n := range g.Nodes() {
		if n.Kind == graph.File && n.Name == "a.c" {
			fileNode = n
			break
		}
	}
	require.NotNil(t, fileNode, "File node must exist")
	require.NotNil(t, fileNode.Info)
	assert.True(t, fileNode.Info.HasHash)

	wantHash, err := graph.Hash(src)
	require.NoError(t, err)
	assert.Equal(t, wantHash, fileNode.Info.Hash)

	out, err := g.DebugYAML()
	require.NoError(t, err)
	assert.Contains(t, out, "name: a.c")
	assert.Contains(t, out, "kind: File")
	assert.Contains(t, out, "name: f")
}
