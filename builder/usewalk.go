package builder

import (
	"github.com/viant/cxref/cast"
	"github.com/viant/cxref/graph"
	"github.com/viant/cxref/resolve"
)

// useUnit is Pass 2 (spec §4.5): re-walk tu's forms looking for identifier
// and type references, classifying each and handing it to the resolver.
// It runs over every unit only after Pass 1 has finished over all of them,
// so a reference to a not-yet-seen file's definition still resolves.
func (b *Builder) useUnit(tu cast.TranslationUnit) error {
	for _, decl := range tu.Decls {
		if err := b.useToplevel(tu, decl); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) useToplevel(tu cast.TranslationUnit, decl cast.Toplevel) error {
	switch d := decl.(type) {
	case cast.FuncDef:
		return b.useFuncDef(tu, d)
	case cast.FuncDecl:
		return b.useFuncDecl(tu, d)
	case cast.VarDecl:
		return b.useVarDecl(tu, d)
	case cast.StructOrUnion:
		return b.useStructOrUnion(tu, d)
	case cast.Typedef:
		return b.useTypedef(tu, d)
	case cast.FuncMacro:
		return b.useFuncMacro(tu, d)
	case cast.EnumDef, cast.ObjectMacro, cast.Include:
		return nil
	default:
		return nil
	}
}

// funcDefKey/varDeclKey recompute the exact graph key Pass 1 gave this
// definition, reusing the rename map instead of minting a new gensym name
// (spec §4.2: "Pass 2 reuses the same mapping").
func (b *Builder) funcDefKey(tu cast.TranslationUnit, d cast.FuncDef) graph.Key {
	name := d.Name
	if renamed, _, ok := b.tables.LookupRename(tu.Path, d.Name); ok {
		name = renamed
	}
	return graph.Key{Name: name, Kind: graph.Function}
}

func (b *Builder) varDeclKey(tu cast.TranslationUnit, d cast.VarDecl) graph.Key {
	var kind graph.Kind
	switch {
	case d.Storage == cast.StorageExtern:
		kind = graph.GlobalExtern
	case d.Storage == cast.StorageNone && tu.Kind == cast.Header:
		if d.HasInit {
			kind = graph.Global
		} else {
			kind = graph.GlobalExtern
		}
	default:
		kind = graph.Global
	}
	name := d.Name
	if renamed, _, ok := b.tables.LookupRename(tu.Path, d.Name); ok {
		name = renamed
	}
	return graph.Key{Name: name, Kind: kind}
}

func (b *Builder) useFuncDef(tu cast.TranslationUnit, d cast.FuncDef) error {
	key := b.funcDefKey(tu, d)
	locals := resolve.NewLocals()
	for _, p := range d.Params {
		locals.Declare(p.Name)
		if err := b.walkTypeRef(key, tu.Path, p.Type, resolve.TypeReference); err != nil {
			return err
		}
	}
	if d.Body == nil {
		return nil
	}
	return b.walkStmt(key, tu.Path, locals, *d.Body)
}

func (b *Builder) useFuncDecl(tu cast.TranslationUnit, d cast.FuncDecl) error {
	if d.Storage == cast.StorageStatic && tu.Kind == cast.Source {
		return nil // Pass 1 never created a node for this one
	}
	key := graph.Key{Name: d.Name, Kind: graph.Prototype}
	for _, p := range d.Params {
		if err := b.walkTypeRef(key, tu.Path, p.Type, resolve.TypeReference); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) useVarDecl(tu cast.TranslationUnit, d cast.VarDecl) error {
	key := b.varDeclKey(tu, d)
	if err := b.walkTypeRef(key, tu.Path, d.Type, resolve.TypeReference); err != nil {
		return err
	}
	if d.Init == nil {
		return nil
	}
	return b.walkExpr(key, tu.Path, resolve.NewLocals(), d.Init, resolve.InitializerValue, false)
}

func (b *Builder) useStructOrUnion(tu cast.TranslationUnit, d cast.StructOrUnion) error {
	if d.Name == "" || !b.cfg.FieldsDependencies {
		return nil
	}
	owner := graph.StructTypeName(d.Name)
	if d.IsUnion {
		owner = graph.UnionTypeName(d.Name)
	}
	ownerKey := graph.Key{Name: owner, Kind: graph.Type}
	for _, f := range d.Fields {
		if f.Name == "" {
			// An unnamed member has no Field node; only its type is walked,
			// from the owning aggregate.
			if err := b.walkTypeRef(ownerKey, tu.Path, f.Type, resolve.TypeReference); err != nil {
				return err
			}
			continue
		}
		fkey := graph.Key{Name: graph.FieldName(owner, f.Name), Kind: graph.Field}
		if err := b.walkTypeRef(fkey, tu.Path, f.Type, resolve.TypeReference); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) useTypedef(tu cast.TranslationUnit, d cast.Typedef) error {
	key := graph.Key{Name: graph.TypedefTypeName(d.Name), Kind: graph.Type}
	return b.walkTypeRef(key, tu.Path, d.Underlying, resolve.TypeReference)
}

func (b *Builder) useFuncMacro(tu cast.TranslationUnit, d cast.FuncMacro) error {
	key := graph.Key{Name: d.Name, Kind: graph.Macro}
	locals := resolve.NewLocals()
	for _, p := range d.Params {
		locals.Declare(p)
	}
	if d.Body == nil {
		return nil
	}
	return b.walkExpr(key, tu.Path, locals, d.Body, resolve.NoContext, false)
}

// walkTypeRef emits a use edge for a named type reference, unwrapping
// pointer/array wrappers transparently and never producing an edge for a
// builtin (spec §4.5). A typedef reference is either targeted directly or
// rewritten to its ultimate tag, depending on TypedefsDependencies.
func (b *Builder) walkTypeRef(current graph.Key, file string, t cast.TypeRef, ctx resolve.Context) error {
	if !b.cfg.TypesDependencies || t == nil {
		return nil
	}
	switch u := t.(type) {
	case cast.PointerRef:
		return b.walkTypeRef(current, file, u.Elem, ctx)
	case cast.ArrayRef:
		return b.walkTypeRef(current, file, u.Elem, ctx)
	case cast.BuiltinRef:
		return nil
	case cast.TagRef:
		if u.Name == "" {
			return nil
		}
		return b.r.AddUseEdge(current, file, tagGraphName(u), graph.Type, ctx, false)
	case cast.TypedefRef:
		if b.cfg.TypedefsDependencies {
			return b.r.AddUseEdge(current, file, graph.TypedefTypeName(u.Name), graph.Type, ctx, false)
		}
		target := followTypedefTarget(b.tables, u.Name)
		return b.r.DirectUse(current, target, ctx, false)
	default:
		return nil
	}
}

// walkStmt recurses into a statement's children looking for expressions
// and nested declarations; statements themselves never emit edges.
func (b *Builder) walkStmt(current graph.Key, file string, locals *resolve.Locals, s cast.Stmt) error {
	if s == nil {
		return nil
	}
	switch st := s.(type) {
	case cast.Block:
		locals.Push()
		defer locals.Pop()
		for _, sub := range st.Stmts {
			if err := b.walkStmt(current, file, locals, sub); err != nil {
				return err
			}
		}
		return nil
	case cast.DeclStmt:
		if err := b.walkTypeRef(current, file, st.Decl.Type, resolve.TypeReference); err != nil {
			return err
		}
		if st.Decl.Init != nil {
			if err := b.walkExpr(current, file, locals, st.Decl.Init, resolve.InitializerValue, false); err != nil {
				return err
			}
		}
		if st.Decl.Storage != cast.StorageExtern {
			locals.Declare(st.Decl.Name)
		}
		return nil
	case cast.ExprStmt:
		return b.walkExpr(current, file, locals, st.X, resolve.NoContext, false)
	case cast.IfStmt:
		if err := b.walkExpr(current, file, locals, st.Cond, resolve.NoContext, false); err != nil {
			return err
		}
		if err := b.walkStmt(current, file, locals, st.Then); err != nil {
			return err
		}
		return b.walkStmt(current, file, locals, st.Else)
	case cast.ForStmt:
		locals.Push()
		defer locals.Pop()
		if err := b.walkStmt(current, file, locals, st.Init); err != nil {
			return err
		}
		if st.Cond != nil {
			if err := b.walkExpr(current, file, locals, st.Cond, resolve.NoContext, false); err != nil {
				return err
			}
		}
		if err := b.walkStmt(current, file, locals, st.Post); err != nil {
			return err
		}
		return b.walkStmt(current, file, locals, st.Body)
	case cast.WhileStmt:
		if err := b.walkExpr(current, file, locals, st.Cond, resolve.NoContext, false); err != nil {
			return err
		}
		return b.walkStmt(current, file, locals, st.Body)
	case cast.SwitchStmt:
		if err := b.walkExpr(current, file, locals, st.Tag, resolve.NoContext, false); err != nil {
			return err
		}
		for _, c := range st.Cases {
			if c.Expr != nil {
				if err := b.walkExpr(current, file, locals, c.Expr, resolve.NoContext, false); err != nil {
					return err
				}
			}
			for _, sub := range c.Body {
				if err := b.walkStmt(current, file, locals, sub); err != nil {
					return err
				}
			}
		}
		return nil
	case cast.ReturnStmt:
		if st.X == nil {
			return nil
		}
		return b.walkExpr(current, file, locals, st.X, resolve.ReturnValue, false)
	case cast.JumpStmt:
		return nil
	case cast.LabelStmt:
		return b.walkStmt(current, file, locals, st.Stmt)
	default:
		return nil
	}
}

// walkExpr recurses into an expression's children, classifying every bare
// identifier it finds and routing it to the resolver (spec §4.5).
func (b *Builder) walkExpr(current graph.Key, file string, locals *resolve.Locals, e cast.Expr, ctx resolve.Context, inAssign bool) error {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case cast.Ident:
		return b.walkIdentUse(current, file, locals, x, false, ctx, inAssign)
	case cast.CallExpr:
		if callee, ok := x.Fn.(cast.Ident); ok {
			if err := b.walkIdentUse(current, file, locals, callee, true, ctx, inAssign); err != nil {
				return err
			}
		} else if err := b.walkExpr(current, file, locals, x.Fn, ctx, inAssign); err != nil {
			return err
		}
		for _, a := range x.Args {
			if err := b.walkExpr(current, file, locals, a, resolve.CallArgument, inAssign); err != nil {
				return err
			}
		}
		return nil
	case cast.FieldAccess:
		// The field selector itself produces no edge — record-access
		// resolution is an open question the build leaves unresolved
		// (spec §4.5/§9(i)); only the qualifier is walked.
		return b.walkExpr(current, file, locals, x.X, ctx, inAssign)
	case cast.AssignExpr:
		if err := b.walkExpr(current, file, locals, x.LHS, resolve.AssignLHS, true); err != nil {
			return err
		}
		return b.walkExpr(current, file, locals, x.RHS, resolve.AssignRHS, true)
	case cast.BinaryExpr:
		if err := b.walkExpr(current, file, locals, x.X, ctx, inAssign); err != nil {
			return err
		}
		return b.walkExpr(current, file, locals, x.Y, ctx, inAssign)
	case cast.UnaryExpr:
		return b.walkExpr(current, file, locals, x.X, ctx, inAssign)
	case cast.IndexExpr:
		if err := b.walkExpr(current, file, locals, x.X, ctx, inAssign); err != nil {
			return err
		}
		return b.walkExpr(current, file, locals, x.Index, ctx, inAssign)
	case cast.CastExpr:
		if err := b.walkTypeRef(current, file, x.Type, resolve.TypeReference); err != nil {
			return err
		}
		return b.walkExpr(current, file, locals, x.X, ctx, inAssign)
	case cast.SizeofExpr:
		if x.Type != nil {
			return b.walkTypeRef(current, file, x.Type, resolve.TypeReference)
		}
		return b.walkExpr(current, file, locals, x.X, ctx, inAssign)
	case cast.CompositeInit:
		if x.Type != nil {
			if err := b.walkTypeRef(current, file, x.Type, resolve.TypeReference); err != nil {
				return err
			}
		}
		for _, el := range x.Elems {
			if err := b.walkExpr(current, file, locals, el, resolve.InitializerValue, inAssign); err != nil {
				return err
			}
		}
		return nil
	case cast.KeyedElem:
		return b.walkExpr(current, file, locals, x.Value, resolve.InitializerValue, inAssign)
	case cast.CommaExpr:
		for _, sub := range x.Exprs {
			if err := b.walkExpr(current, file, locals, sub, ctx, inAssign); err != nil {
				return err
			}
		}
		return nil
	case cast.Literal:
		return nil
	case cast.TypeUse:
		return b.walkTypeRef(current, file, x.Type, resolve.TypeReference)
	default:
		return nil
	}
}

// walkIdentUse classifies a bare identifier reference (spec §4.5): a
// statically-scoped rename is resolved directly to its recorded kind;
// otherwise a callee is Function-or-Macro and any other use is
// Global-or-Constant, decided by the all-caps "looks like a macro"
// heuristic. Locals always win, regardless of classification.
func (b *Builder) walkIdentUse(current graph.Key, file string, locals *resolve.Locals, id cast.Ident, isCallee bool, ctx resolve.Context, inAssign bool) error {
	if locals.Contains(id.Name) {
		return nil
	}
	if renamedName, renamedKind, ok := b.tables.LookupRename(file, id.Name); ok {
		return b.r.AddUseEdge(current, file, renamedName, renamedKind, ctx, inAssign)
	}
	macroShaped := isMacroShaped(id.Name)
	var kind graph.Kind
	switch {
	case isCallee && macroShaped:
		kind = graph.Macro
	case isCallee:
		kind = graph.Function
	case macroShaped:
		kind = graph.Constant
	default:
		kind = graph.Global
	}
	return b.r.AddUseEdge(current, file, id.Name, kind, ctx, inAssign)
}
