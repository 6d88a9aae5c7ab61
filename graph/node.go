package graph

import "github.com/viant/cxref/cast"

// Info is the node info attached to each real node (spec §3): source
// position, an optional serialized type signature, optional property
// flags, and a content hash (§2 domain stack — a highwayhash fingerprint
// used only for change detection by callers, never for resolution).
type Info struct {
	Pos     cast.Pos
	TypeSig string
	Flags   map[string]bool
	Hash    uint64
	HasHash bool
}

// Node is a code-graph node: identity (Key) plus its one-shot Info.
type Node struct {
	Key
	Info *Info
}

// Type naming namespace (spec §3): structs, unions, enums and typedefs
// share the single Type kind, disambiguated by a textual prefix.

// StructTypeName returns the S__ prefixed graph name for struct tag name.
func StructTypeName(name string) string { return "S__" + name }

// UnionTypeName returns the U__ prefixed graph name for union tag name.
func UnionTypeName(name string) string { return "U__" + name }

// EnumTypeName returns the E__ prefixed graph name for enum tag name.
func EnumTypeName(name string) string { return "E__" + name }

// TypedefTypeName returns the T__ prefixed graph name for typedef name.
func TypedefTypeName(name string) string { return "T__" + name }

// FieldName returns the dotted field node name `<owner>.<field>` (spec §3).
func FieldName(owner, field string) string { return owner + "." + field }
