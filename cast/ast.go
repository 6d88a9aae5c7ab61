package cast

// Storage is a C storage-class specifier, so far as the builder cares about
// one (spec §4.4).
type Storage int

const (
	StorageNone Storage = iota
	StorageStatic
	StorageExtern
)

// TranslationUnit is one parsed file — spec's "translation unit".
type TranslationUnit struct {
	Path string // repository-relative path (spec §3 invariant 4)
	Kind FileKind
	// Content is the raw bytes the parser read, carried alongside the
	// decoded forest so the builder can content-hash the File node
	// without re-reading the source. Empty for translation units built
	// directly by tests that never went through a parser.
	Content []byte
	Decls   []Toplevel
}

// Toplevel is a tagged union over every top-level form Pass 1 (§4.4) knows
// how to turn into a definition node.
type Toplevel interface {
	toplevel()
	Position() Pos
}

// FuncDef is a function definition with a body.
type FuncDef struct {
	Name      string
	Storage   Storage
	Pos       Pos
	Signature string // rendered "ret name(params)" for NodeInfo.TypeSig
	Params    []Param
	Body      *Block
}

// FuncDecl is a function prototype (no body).
type FuncDecl struct {
	Name      string
	Storage   Storage
	Pos       Pos
	Signature string
	Params    []Param
}

// VarDecl is a global variable declaration or definition.
type VarDecl struct {
	Name    string
	Storage Storage
	HasInit bool
	Pos     Pos
	Type    TypeRef
	Init    Expr // nil when HasInit is false
}

// StructOrUnion is a struct/union definition (spec §4.4, S__/U__ prefixes).
type StructOrUnion struct {
	IsUnion bool
	Name    string // empty for an anonymous struct/union
	Pos     Pos
	Fields  []FieldDecl
}

// FieldDecl is one member of a struct/union. Name is empty for an unnamed
// (anonymous-substruct) field — the builder then creates no Field node and
// only walks its type (spec §4.4).
type FieldDecl struct {
	Name string
	Pos  Pos
	Type TypeRef
}

// EnumDef is an enum definition (spec §4.4, E__ prefix).
type EnumDef struct {
	Name         string
	Pos          Pos
	Constructors []EnumConstant
}

// EnumConstant is one enumerator.
type EnumConstant struct {
	Name string
	Pos  Pos
}

// Typedef is a typedef declaration (spec §4.4, T__ prefix).
type Typedef struct {
	Name       string
	Pos        Pos
	Underlying TypeRef
}

// ObjectMacro is a `#define NAME value` constant macro.
type ObjectMacro struct {
	Name string
	Pos  Pos
	Body string
}

// FuncMacro is a function-like `#define NAME(params) body` macro. Params
// seed the locals list for Pass 2's body walk (spec §4.4).
type FuncMacro struct {
	Name   string
	Pos    Pos
	Params []string
	Body   Expr
}

// Include is an `#include` directive — ignored per spec §4.4 (no node, no
// edge), carried in the AST only so a parser has somewhere to put it.
type Include struct {
	Path string
	Pos  Pos
}

func (FuncDef) toplevel()       {}
func (FuncDecl) toplevel()      {}
func (VarDecl) toplevel()       {}
func (StructOrUnion) toplevel() {}
func (EnumDef) toplevel()       {}
func (Typedef) toplevel()       {}
func (ObjectMacro) toplevel()   {}
func (FuncMacro) toplevel()     {}
func (Include) toplevel()       {}

func (n FuncDef) Position() Pos       { return n.Pos }
func (n FuncDecl) Position() Pos      { return n.Pos }
func (n VarDecl) Position() Pos       { return n.Pos }
func (n StructOrUnion) Position() Pos { return n.Pos }
func (n EnumDef) Position() Pos       { return n.Pos }
func (n Typedef) Position() Pos       { return n.Pos }
func (n ObjectMacro) Position() Pos   { return n.Pos }
func (n FuncMacro) Position() Pos     { return n.Pos }
func (n Include) Position() Pos       { return n.Pos }

// Param is a function parameter (or named return in other grammars; C has
// none, kept uniform with the rest of the pack's Parameter shape).
type Param struct {
	Name string
	Type TypeRef
}
