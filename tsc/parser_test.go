package tsc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/viant/cxref/cast"
)

func TestParse_FunctionDefAndCall(t *testing.T) {
	src := []byte(`
static int helper(int x) {
    return x + 1;
}

int main(void) {
    return helper(2);
}
`)
	tu, errs, err := Parse("main.c", src, true)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, tu.Decls, 2)

	helper, ok := tu.Decls[0].(cast.FuncDef)
	require.True(t, ok)
	assert.Equal(t, "helper", helper.Name)
	assert.Equal(t, cast.StorageStatic, helper.Storage)
	require.NotNil(t, helper.Body)

	main, ok := tu.Decls[1].(cast.FuncDef)
	require.True(t, ok)
	assert.Equal(t, "main", main.Name)
	require.Len(t, main.Body.Stmts, 1)
	ret, ok := main.Body.Stmts[0].(cast.ReturnStmt)
	require.True(t, ok)
	call, ok := ret.X.(cast.CallExpr)
	require.True(t, ok)
	callee, ok := call.Fn.(cast.Ident)
	require.True(t, ok)
	assert.Equal(t, "helper", callee.Name)
}

func TestParse_StructAndFieldAccess(t *testing.T) {
	src := []byte(`
struct Point {
    int x;
    int y;
};

int sum(struct Point *p) {
    return p->x + p->y;
}
`)
	tu, _, err := Parse("point.c", src, false)
	require.NoError(t, err)
	require.Len(t, tu.Decls, 2)

	st, ok := tu.Decls[0].(cast.StructOrUnion)
	require.True(t, ok)
	assert.Equal(t, "Point", st.Name)
	require.Len(t, st.Fields, 2)
	assert.Equal(t, "x", st.Fields[0].Name)
	assert.Equal(t, "y", st.Fields[1].Name)

	fn, ok := tu.Decls[1].(cast.FuncDef)
	require.True(t, ok)
	require.Len(t, fn.Params, 1)
	ptr, ok := fn.Params[0].Type.(cast.PointerRef)
	require.True(t, ok)
	tag, ok := ptr.Elem.(cast.TagRef)
	require.True(t, ok)
	assert.Equal(t, "Point", tag.Name)

	ret := fn.Body.Stmts[0].(cast.ReturnStmt)
	bin, ok := ret.X.(cast.BinaryExpr)
	require.True(t, ok)
	left, ok := bin.X.(cast.FieldAccess)
	require.True(t, ok)
	assert.Equal(t, "x", left.Field)
	assert.True(t, left.Arrow)
}

func TestParse_TypedefAndEnum(t *testing.T) {
	src := []byte(`
typedef struct Point point_t;

enum Color { RED, GREEN, BLUE };
`)
	tu, _, err := Parse("shapes.h", src, false)
	require.NoError(t, err)
	require.Len(t, tu.Decls, 2)

	td, ok := tu.Decls[0].(cast.Typedef)
	require.True(t, ok)
	assert.Equal(t, "point_t", td.Name)
	tag, ok := td.Underlying.(cast.TagRef)
	require.True(t, ok)
	assert.Equal(t, "Point", tag.Name)

	en, ok := tu.Decls[1].(cast.EnumDef)
	require.True(t, ok)
	assert.Equal(t, "Color", en.Name)
	require.Len(t, en.Constructors, 3)
	assert.Equal(t, "RED", en.Constructors[0].Name)
}

func TestParse_ObjectAndFunctionMacro(t *testing.T) {
	src := []byte(`
#define MAX_SIZE 128
#define MAX(a, b) ((a) > (b) ? (a) : (b))
`)
	tu, _, err := Parse("macros.h", src, false)
	require.NoError(t, err)
	require.Len(t, tu.Decls, 2)

	om, ok := tu.Decls[0].(cast.ObjectMacro)
	require.True(t, ok)
	assert.Equal(t, "MAX_SIZE", om.Name)
	assert.Equal(t, "128", om.Body)

	fm, ok := tu.Decls[1].(cast.FuncMacro)
	require.True(t, ok)
	assert.Equal(t, "MAX", fm.Name)
	assert.Equal(t, []string{"a", "b"}, fm.Params)
}

// TestParse_MultiFileProject decodes a txtar archive bundling a header and
// two source files and parses each entry into its own translation unit.
func TestParse_MultiFileProject(t *testing.T) {
	archive := txtar.Parse([]byte(`
-- util.h --
extern int counter;
int increment(int n);
-- util.c --
#include "util.h"

int counter = 0;

int increment(int n) {
    counter = counter + n;
    return counter;
}
-- main.c --
#include "util.h"

int main(void) {
    return increment(1);
}
`))
	require.Len(t, archive.Files, 3)

	units := make(map[string]cast.TranslationUnit, len(archive.Files))
	for _, f := range archive.Files {
		tu, errs, err := Parse(f.Name, f.Data, true)
		require.NoErrorf(t, err, "parsing %s", f.Name)
		assert.Emptyf(t, errs, "parsing %s", f.Name)
		units[f.Name] = tu
	}

	header := units["util.h"]
	assert.Equal(t, cast.Header, header.Kind)
	require.Len(t, header.Decls, 2)
	extern, ok := header.Decls[0].(cast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, cast.StorageExtern, extern.Storage)

	impl := units["util.c"]
	assert.Equal(t, cast.Source, impl.Kind)
	require.Len(t, impl.Decls, 3)
	_, ok = impl.Decls[0].(cast.Include)
	assert.True(t, ok)
	def, ok := impl.Decls[2].(cast.FuncDef)
	require.True(t, ok)
	assert.Equal(t, "increment", def.Name)
}
