package cast

// TagKind distinguishes the struct/union/enum tag namespaces C keeps
// separate from plain identifiers (spec §3 "type naming namespace").
type TagKind int

const (
	TagStruct TagKind = iota
	TagUnion
	TagEnum
)

// TypeRef is a tagged union over the type references Pass 2 (§4.5) walks.
type TypeRef interface {
	typeRef()
}

// TagRef is `struct Foo` / `union Foo` / `enum Foo`.
type TagRef struct {
	Kind TagKind
	Name string
}

// TypedefRef is a bare type name that resolves through the typedef table.
type TypedefRef struct {
	Name string
}

// BuiltinRef is a primitive C type (`int`, `char *`'s pointee, etc.) — never
// produces a use edge.
type BuiltinRef struct {
	Name string
}

// PointerRef is `T *`.
type PointerRef struct {
	Elem TypeRef
}

// ArrayRef is `T[n]` / `T[]`.
type ArrayRef struct {
	Elem TypeRef
}

func (TagRef) typeRef()     {}
func (TypedefRef) typeRef() {}
func (BuiltinRef) typeRef() {}
func (PointerRef) typeRef() {}
func (ArrayRef) typeRef()   {}
