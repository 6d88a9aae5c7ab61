// Package tsc is the one real producer of the cast forest: a tree-sitter C
// grammar adapter satisfying the parse(file, show_errors) contract the cast
// package describes. It is grounded on the source tool's TreeSitterInspector
// (inspector/golang/inspector_tree_sitter.go) for the parser/query
// life-cycle, and on the C-specific node-type handling of a reference call
// graph extractor built the same way (CCallGraphExtractor, call_expression
// and field_expression walking).
package tsc

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsc "github.com/smacker/go-tree-sitter/c"

	"github.com/viant/cxref/cast"
)

// ParseError is one diagnostic collected while walking an ERROR/MISSING
// node. Parse never fails outright on a malformed file — it returns the
// best tree it can recover plus whatever diagnostics were collected,
// mirroring tree-sitter's own error-recovery philosophy.
type ParseError struct {
	Pos     cast.Pos
	Message string
}

// Parser wraps a tree-sitter C parser. It is not safe for concurrent use by
// multiple goroutines against the same file — callers parsing a source set
// concurrently should use one Parser per goroutine, the way the source
// tool's own inspector does (a fresh sitter.Parser per InspectFile call).
type Parser struct {
	p *sitter.Parser
}

// New creates a Parser with the C grammar loaded.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(tsc.GetLanguage())
	return &Parser{p: p}
}

// Parse turns file content into a cast.TranslationUnit. showErrors controls
// whether ERROR/MISSING nodes are collected as ParseErrors and logged by the
// caller; parsing itself always proceeds on tree-sitter's recovered tree.
func Parse(path string, content []byte, showErrors bool) (cast.TranslationUnit, []ParseError, error) {
	return New().Parse(path, content, showErrors)
}

// Parse is the instance form of the package-level Parse, reusing the
// Parser's loaded grammar across multiple files.
func (p *Parser) Parse(path string, content []byte, showErrors bool) (cast.TranslationUnit, []ParseError, error) {
	tree, err := p.p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return cast.TranslationUnit{}, nil, fmt.Errorf("tsc: parse %s: %w", path, err)
	}
	root := tree.RootNode()

	w := &walker{path: path, src: content, showErrors: showErrors}
	tu := cast.TranslationUnit{Path: path, Kind: cast.DetectFileKind(path), Content: content}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		w.collectErrors(child)
		if decl, ok := w.toplevel(child); ok {
			tu.Decls = append(tu.Decls, decl)
		}
	}
	return tu, w.errs, nil
}

type walker struct {
	path       string
	src        []byte
	showErrors bool
	errs       []ParseError
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if int(n.EndByte()) > len(w.src) {
		return ""
	}
	return n.Content(w.src)
}

func (w *walker) pos(n *sitter.Node) cast.Pos {
	if n == nil {
		return cast.Pos{File: w.path}
	}
	pt := n.StartPoint()
	return cast.Pos{File: w.path, Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
}

func (w *walker) collectErrors(n *sitter.Node) {
	if !w.showErrors || n == nil {
		return
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		w.errs = append(w.errs, ParseError{Pos: w.pos(n), Message: fmt.Sprintf("unexpected %q", w.text(n))})
	}
}

// toplevel dispatches one child of translation_unit into a cast.Toplevel.
// Unrecognized top-level node kinds (static_assert_declaration, empty
// statements from stray semicolons, linkage_specification) are skipped —
// they carry no definitions the graph cares about.
func (w *walker) toplevel(n *sitter.Node) (cast.Toplevel, bool) {
	switch n.Type() {
	case "preproc_include":
		return w.parseInclude(n), true
	case "preproc_def":
		return w.parseObjectMacro(n), true
	case "preproc_function_def":
		return w.parseFuncMacro(n), true
	case "function_definition":
		return w.parseFuncDef(n), true
	case "declaration":
		return w.parseToplevelDeclaration(n)
	case "type_definition":
		return w.parseTypedef(n), true
	case "struct_specifier", "union_specifier", "enum_specifier":
		return w.parseTagDefinition(n), true
	}
	// preproc_if/preproc_ifdef and anything else (static_assert_declaration,
	// stray semicolons, linkage_specification) carry no definition the
	// graph cares about and are skipped rather than evaluated.
	return nil, false
}

func (w *walker) parseInclude(n *sitter.Node) cast.Toplevel {
	var p string
	if path := n.ChildByFieldName("path"); path != nil {
		p = strings.Trim(w.text(path), "\"<>")
	}
	return cast.Include{Path: p, Pos: w.pos(n)}
}

func (w *walker) parseObjectMacro(n *sitter.Node) cast.Toplevel {
	name := w.text(n.ChildByFieldName("name"))
	var body string
	if v := n.ChildByFieldName("value"); v != nil {
		body = w.text(v)
	}
	return cast.ObjectMacro{Name: name, Pos: w.pos(n), Body: strings.TrimSpace(body)}
}

func (w *walker) parseFuncMacro(n *sitter.Node) cast.Toplevel {
	name := w.text(n.ChildByFieldName("name"))
	var params []string
	if pl := n.ChildByFieldName("parameters"); pl != nil {
		for i := 0; i < int(pl.NamedChildCount()); i++ {
			c := pl.NamedChild(i)
			if c.Type() == "identifier" {
				params = append(params, w.text(c))
			}
		}
	}
	var body cast.Expr
	if v := n.ChildByFieldName("value"); v != nil {
		body = w.expr(v)
	}
	return cast.FuncMacro{Name: name, Pos: w.pos(n), Params: params, Body: body}
}

// storageOf reports the storage class a declaration-ish node carries by
// scanning its direct children for a storage_class_specifier keyword.
func (w *walker) storageOf(n *sitter.Node) cast.Storage {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "storage_class_specifier" {
			switch w.text(c) {
			case "static":
				return cast.StorageStatic
			case "extern":
				return cast.StorageExtern
			}
		}
	}
	return cast.StorageNone
}

// declShape is what peelDeclarator extracts from a declarator tree: the
// bare name, the parameter list node (nil unless a function_declarator
// appears in the chain), and how many pointer and array wrappers it carries.
type declShape struct {
	name     string
	params   *sitter.Node
	pointers int
	arrays   int
}

func (w *walker) peelDeclarator(n *sitter.Node) declShape {
	var shape declShape
	cur := n
	for cur != nil {
		switch cur.Type() {
		case "pointer_declarator":
			shape.pointers++
			cur = cur.ChildByFieldName("declarator")
		case "array_declarator":
			shape.arrays++
			cur = cur.ChildByFieldName("declarator")
		case "function_declarator":
			shape.params = cur.ChildByFieldName("parameters")
			cur = cur.ChildByFieldName("declarator")
		case "parenthesized_declarator":
			cur = cur.NamedChild(0)
		case "identifier", "field_identifier", "type_identifier":
			shape.name = w.text(cur)
			return shape
		default:
			return shape
		}
	}
	return shape
}

func (w *walker) typeRefOf(typeNode *sitter.Node, shape declShape) cast.TypeRef {
	var ref cast.TypeRef
	if typeNode == nil {
		ref = cast.BuiltinRef{Name: "void"}
	} else {
		switch typeNode.Type() {
		case "struct_specifier":
			ref = cast.TagRef{Kind: cast.TagStruct, Name: w.text(typeNode.ChildByFieldName("name"))}
		case "union_specifier":
			ref = cast.TagRef{Kind: cast.TagUnion, Name: w.text(typeNode.ChildByFieldName("name"))}
		case "enum_specifier":
			ref = cast.TagRef{Kind: cast.TagEnum, Name: w.text(typeNode.ChildByFieldName("name"))}
		case "type_identifier":
			ref = cast.TypedefRef{Name: w.text(typeNode)}
		case "primitive_type", "sized_type_specifier":
			ref = cast.BuiltinRef{Name: w.text(typeNode)}
		default:
			ref = cast.BuiltinRef{Name: w.text(typeNode)}
		}
	}
	for i := 0; i < shape.pointers; i++ {
		ref = cast.PointerRef{Elem: ref}
	}
	for i := 0; i < shape.arrays; i++ {
		ref = cast.ArrayRef{Elem: ref}
	}
	return ref
}

func (w *walker) parseFuncDef(n *sitter.Node) cast.Toplevel {
	typeNode := n.ChildByFieldName("type")
	declNode := n.ChildByFieldName("declarator")
	shape := w.peelDeclarator(declNode)
	params := w.params(shape.params)

	retSig := "void"
	if typeNode != nil {
		retSig = w.text(typeNode)
	}
	sig := fmt.Sprintf("%s %s(%s)", retSig, shape.name, w.text(shape.params))

	var body *cast.Block
	if b := n.ChildByFieldName("body"); b != nil {
		blk := w.block(b)
		body = &blk
	}

	return cast.FuncDef{
		Name:      shape.name,
		Storage:   w.storageOf(n),
		Pos:       w.pos(n),
		Signature: sig,
		Params:    params,
		Body:      body,
	}
}

func (w *walker) params(paramList *sitter.Node) []cast.Param {
	if paramList == nil {
		return nil
	}
	var out []cast.Param
	for i := 0; i < int(paramList.NamedChildCount()); i++ {
		p := paramList.NamedChild(i)
		if p.Type() != "parameter_declaration" {
			continue
		}
		typeNode := p.ChildByFieldName("type")
		declNode := p.ChildByFieldName("declarator")
		shape := w.peelDeclarator(declNode)
		out = append(out, cast.Param{Name: shape.name, Type: w.typeRefOf(typeNode, shape)})
	}
	return out
}

// parseToplevelDeclaration handles a bare `declaration` node at file scope:
// either a function prototype (its declarator peels to a function_declarator
// with no body) or a global variable declaration/definition.
func (w *walker) parseToplevelDeclaration(n *sitter.Node) (cast.Toplevel, bool) {
	typeNode := n.ChildByFieldName("type")
	declNode := n.ChildByFieldName("declarator")
	if declNode == nil {
		return nil, false
	}

	initNode := declNode
	var initExpr cast.Expr
	if declNode.Type() == "init_declarator" {
		initNode = declNode.ChildByFieldName("declarator")
		if v := declNode.ChildByFieldName("value"); v != nil {
			initExpr = w.expr(v)
		}
	}
	shape := w.peelDeclarator(initNode)
	if shape.name == "" {
		return nil, false
	}

	storage := w.storageOf(n)

	if shape.params != nil {
		sig := fmt.Sprintf("%s %s(%s)", w.text(typeNode), shape.name, w.text(shape.params))
		return cast.FuncDecl{
			Name:      shape.name,
			Storage:   storage,
			Pos:       w.pos(n),
			Signature: sig,
			Params:    w.params(shape.params),
		}, true
	}

	return cast.VarDecl{
		Name:    shape.name,
		Storage: storage,
		HasInit: initExpr != nil,
		Pos:     w.pos(n),
		Type:    w.typeRefOf(typeNode, shape),
		Init:    initExpr,
	}, true
}

func (w *walker) parseTypedef(n *sitter.Node) cast.Toplevel {
	typeNode := n.ChildByFieldName("type")
	declNode := n.ChildByFieldName("declarator")
	shape := w.peelDeclarator(declNode)
	return cast.Typedef{
		Name:       shape.name,
		Pos:        w.pos(n),
		Underlying: w.typeRefOf(typeNode, shape),
	}
}

// parseTagDefinition handles a top-level `struct Foo { ... };` /
// `union`/`enum` with no accompanying declarator — a bare tag definition,
// as opposed to one embedded in a declaration's type field.
func (w *walker) parseTagDefinition(n *sitter.Node) cast.Toplevel {
	name := w.text(n.ChildByFieldName("name"))
	body := n.ChildByFieldName("body")

	if n.Type() == "enum_specifier" {
		var cs []cast.EnumConstant
		if body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				e := body.NamedChild(i)
				if e.Type() != "enumerator" {
					continue
				}
				cs = append(cs, cast.EnumConstant{Name: w.text(e.ChildByFieldName("name")), Pos: w.pos(e)})
			}
		}
		return cast.EnumDef{Name: name, Pos: w.pos(n), Constructors: cs}
	}

	var fields []cast.FieldDecl
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			f := body.NamedChild(i)
			if f.Type() != "field_declaration" {
				continue
			}
			fields = append(fields, w.fieldDecls(f)...)
		}
	}
	return cast.StructOrUnion{IsUnion: n.Type() == "union_specifier", Name: name, Pos: w.pos(n), Fields: fields}
}

// fieldDecls expands one field_declaration into one FieldDecl per declarator
// — C allows `int x, y, *z;` as a single field_declaration with multiple
// comma-separated declarators.
func (w *walker) fieldDecls(n *sitter.Node) []cast.FieldDecl {
	typeNode := n.ChildByFieldName("type")
	var out []cast.FieldDecl
	found := false
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == typeNode {
			continue
		}
		switch c.Type() {
		case "field_identifier", "pointer_declarator", "array_declarator":
			found = true
			shape := w.peelDeclarator(c)
			out = append(out, cast.FieldDecl{Name: shape.name, Pos: w.pos(c), Type: w.typeRefOf(typeNode, shape)})
		}
	}
	if !found {
		// Anonymous nested struct/union member: no declarator at all.
		// Pass 1 skips fields with an empty Name, so the zero value here
		// is intentional rather than a parse failure.
		if typeNode != nil && (typeNode.Type() == "struct_specifier" || typeNode.Type() == "union_specifier") {
			out = append(out, cast.FieldDecl{Name: "", Pos: w.pos(n), Type: w.typeRefOf(typeNode, declShape{})})
		}
	}
	return out
}

// block walks a compound_statement into a cast.Block.
func (w *walker) block(n *sitter.Node) cast.Block {
	blk := cast.Block{Pos: w.pos(n)}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		w.collectErrors(c)
		if s := w.stmt(c); s != nil {
			blk.Stmts = append(blk.Stmts, s)
		}
	}
	return blk
}

func (w *walker) stmt(n *sitter.Node) cast.Stmt {
	switch n.Type() {
	case "compound_statement":
		blk := w.block(n)
		return blk
	case "declaration":
		typeNode := n.ChildByFieldName("type")
		storage := w.storageOf(n)
		// A multi-declarator local declaration (`int a, b;`) is flattened
		// into the first declarator; Pass 2 only needs *a* declared name
		// to seed locals scoping, and multi-var locals are rare enough in
		// practice that the remaining declarators are not separately
		// tracked here.
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c == typeNode {
				continue
			}
			declNode := c
			var initExpr cast.Expr
			if c.Type() == "init_declarator" {
				declNode = c.ChildByFieldName("declarator")
				if v := c.ChildByFieldName("value"); v != nil {
					initExpr = w.expr(v)
				}
			}
			shape := w.peelDeclarator(declNode)
			if shape.name == "" {
				continue
			}
			return cast.DeclStmt{Pos: w.pos(n), Decl: cast.VarDecl{
				Name: shape.name, Storage: storage, HasInit: initExpr != nil,
				Pos: w.pos(n), Type: w.typeRefOf(typeNode, shape), Init: initExpr,
			}}
		}
		return nil
	case "expression_statement":
		if n.NamedChildCount() == 0 {
			return nil
		}
		return cast.ExprStmt{Pos: w.pos(n), X: w.expr(n.NamedChild(0))}
	case "if_statement":
		s := cast.IfStmt{Pos: w.pos(n), Cond: w.expr(n.ChildByFieldName("condition"))}
		if t := n.ChildByFieldName("consequence"); t != nil {
			s.Then = w.stmt(t)
		}
		if e := n.ChildByFieldName("alternative"); e != nil {
			s.Else = w.stmt(e)
		}
		return s
	case "for_statement":
		s := cast.ForStmt{Pos: w.pos(n)}
		if init := n.ChildByFieldName("initializer"); init != nil {
			s.Init = w.stmt(init)
		}
		if cond := n.ChildByFieldName("condition"); cond != nil {
			s.Cond = w.expr(cond)
		}
		if post := n.ChildByFieldName("update"); post != nil {
			s.Post = cast.ExprStmt{Pos: w.pos(post), X: w.expr(post)}
		}
		if body := n.ChildByFieldName("body"); body != nil {
			s.Body = w.stmt(body)
		}
		return s
	case "while_statement":
		s := cast.WhileStmt{Pos: w.pos(n), Cond: w.expr(n.ChildByFieldName("condition"))}
		if body := n.ChildByFieldName("body"); body != nil {
			s.Body = w.stmt(body)
		}
		return s
	case "do_statement":
		s := cast.WhileStmt{Pos: w.pos(n), DoWhile: true, Cond: w.expr(n.ChildByFieldName("condition"))}
		if body := n.ChildByFieldName("body"); body != nil {
			s.Body = w.stmt(body)
		}
		return s
	case "switch_statement":
		return w.switchStmt(n)
	case "return_statement":
		s := cast.ReturnStmt{Pos: w.pos(n)}
		if n.NamedChildCount() > 0 {
			s.X = w.expr(n.NamedChild(0))
		}
		return s
	case "break_statement", "continue_statement":
		return cast.JumpStmt{Pos: w.pos(n)}
	case "goto_statement":
		return cast.JumpStmt{Pos: w.pos(n), Label: w.text(n.ChildByFieldName("label"))}
	case "labeled_statement":
		s := cast.LabelStmt{Pos: w.pos(n), Name: w.text(n.ChildByFieldName("label"))}
		if body := n.NamedChild(int(n.NamedChildCount()) - 1); body != nil {
			s.Stmt = w.stmt(body)
		}
		return s
	}
	return nil
}

func (w *walker) switchStmt(n *sitter.Node) cast.Stmt {
	s := cast.SwitchStmt{Pos: w.pos(n), Tag: w.expr(n.ChildByFieldName("condition"))}
	body := n.ChildByFieldName("body")
	if body == nil {
		return s
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if c.Type() != "case_statement" {
			continue
		}
		var sc cast.SwitchCase
		if v := c.ChildByFieldName("value"); v != nil {
			sc.Expr = w.expr(v)
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			cc := c.NamedChild(j)
			if cc.Type() == "case_statement" {
				continue
			}
			if st := w.stmt(cc); st != nil {
				sc.Body = append(sc.Body, st)
			}
		}
		s.Cases = append(s.Cases, sc)
	}
	return s
}

// expr dispatches one expression node. Node kinds the grammar nests purely
// for precedence (parenthesized_expression) are transparently unwrapped.
func (w *walker) expr(n *sitter.Node) cast.Expr {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return w.expr(n.NamedChild(0))
		}
		return nil
	case "identifier":
		return cast.Ident{Pos: w.pos(n), Name: w.text(n)}
	case "call_expression":
		fn := w.expr(n.ChildByFieldName("function"))
		var args []cast.Expr
		if al := n.ChildByFieldName("arguments"); al != nil {
			for i := 0; i < int(al.NamedChildCount()); i++ {
				args = append(args, w.expr(al.NamedChild(i)))
			}
		}
		return cast.CallExpr{Pos: w.pos(n), Fn: fn, Args: args}
	case "field_expression":
		x := w.expr(n.ChildByFieldName("argument"))
		field := w.text(n.ChildByFieldName("field"))
		return cast.FieldAccess{Pos: w.pos(n), X: x, Field: field, Arrow: strings.Contains(w.text(n), "->")}
	case "assignment_expression":
		return cast.AssignExpr{
			Pos: w.pos(n), Op: w.text(n.ChildByFieldName("operator")),
			LHS: w.expr(n.ChildByFieldName("left")), RHS: w.expr(n.ChildByFieldName("right")),
		}
	case "binary_expression":
		return cast.BinaryExpr{
			Pos: w.pos(n), Op: w.text(n.ChildByFieldName("operator")),
			X: w.expr(n.ChildByFieldName("left")), Y: w.expr(n.ChildByFieldName("right")),
		}
	case "unary_expression":
		return cast.UnaryExpr{Pos: w.pos(n), Op: w.text(n.ChildByFieldName("operator")), X: w.expr(n.ChildByFieldName("argument"))}
	case "update_expression":
		return cast.UnaryExpr{Pos: w.pos(n), Op: w.text(n.ChildByFieldName("operator")), X: w.expr(n.ChildByFieldName("argument"))}
	case "pointer_expression":
		return cast.UnaryExpr{Pos: w.pos(n), Op: "*", X: w.expr(n.ChildByFieldName("argument"))}
	case "subscript_expression":
		return cast.IndexExpr{Pos: w.pos(n), X: w.expr(n.ChildByFieldName("argument")), Index: w.expr(n.ChildByFieldName("index"))}
	case "cast_expression":
		return cast.CastExpr{Pos: w.pos(n), Type: w.typeRefOf(n.ChildByFieldName("type"), declShape{}), X: w.expr(n.ChildByFieldName("value"))}
	case "sizeof_expression":
		se := cast.SizeofExpr{Pos: w.pos(n)}
		if t := n.ChildByFieldName("type"); t != nil {
			se.Type = w.typeRefOf(t, declShape{})
		} else if v := n.ChildByFieldName("value"); v != nil {
			se.X = w.expr(v)
		}
		return se
	case "initializer_list":
		ci := cast.CompositeInit{Pos: w.pos(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			ci.Elems = append(ci.Elems, w.expr(n.NamedChild(i)))
		}
		return ci
	case "initializer_pair":
		ke := cast.KeyedElem{Pos: w.pos(n)}
		if d := n.ChildByFieldName("designator"); d != nil {
			ke.Field = strings.TrimPrefix(w.text(d), ".")
		}
		ke.Value = w.expr(n.ChildByFieldName("value"))
		return ke
	case "comma_expression":
		ce := cast.CommaExpr{Pos: w.pos(n)}
		ce.Exprs = append(ce.Exprs, w.expr(n.ChildByFieldName("left")), w.expr(n.ChildByFieldName("right")))
		return ce
	case "number_literal", "string_literal", "char_literal", "concatenated_string", "true", "false", "null":
		return cast.Literal{Pos: w.pos(n), Text: w.text(n)}
	case "type_descriptor", "primitive_type", "sized_type_specifier", "type_identifier":
		return cast.TypeUse{Pos: w.pos(n), Type: w.typeRefOf(n, declShape{})}
	case "compound_literal_expression":
		ci := cast.CompositeInit{Pos: w.pos(n)}
		if t := n.ChildByFieldName("type"); t != nil {
			ci.Type = w.typeRefOf(t, declShape{})
		}
		if v := n.ChildByFieldName("value"); v != nil {
			for i := 0; i < int(v.NamedChildCount()); i++ {
				ci.Elems = append(ci.Elems, w.expr(v.NamedChild(i)))
			}
		}
		return ci
	}
	// Unknown/unhandled expression shape: fall back to a literal snapshot of
	// its source text rather than dropping the node silently.
	return cast.Literal{Pos: w.pos(n), Text: w.text(n)}
}
