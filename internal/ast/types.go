package ast

// ---------------------------------------------------------------------------
// Static types
// ---------------------------------------------------------------------------

// TypeKind tags the variant held by a Type.
type TypeKind int

const (
	KindNum TypeKind = iota
	KindBool
	KindNone
	KindClass
)

// Type is a static type of the language. Values are compared with ==; the
// Name field is only populated for class types.
type Type struct {
	Kind TypeKind
	Name string
}

// Built-in type values.
var (
	TypeNum  = Type{Kind: KindNum}
	TypeBool = Type{Kind: KindBool}
	TypeNone = Type{Kind: KindNone}
)

// ClassType returns the class type with the given name.
func ClassType(name string) Type {
	return Type{Kind: KindClass, Name: name}
}

// IsClass reports whether t is a class type.
func (t Type) IsClass() bool { return t.Kind == KindClass }

func (t Type) String() string {
	switch t.Kind {
	case KindNum:
		return "int"
	case KindBool:
		return "bool"
	case KindNone:
		return "None"
	case KindClass:
		return t.Name
	default:
		return "<invalid type>"
	}
}

// TypeFromName maps a type annotation as written in source to a Type.
// Every name that is not a built-in denotes a class.
func TypeFromName(name string) Type {
	switch name {
	case "int":
		return TypeNum
	case "bool":
		return TypeBool
	case "None":
		return TypeNone
	}
	return ClassType(name)
}
