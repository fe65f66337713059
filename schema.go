package avrokit

import (
	"strings"
)

// Type identifies the kind of a schema node.
type Type string

const (
	TypeNull    Type = "null"
	TypeBoolean Type = "boolean"
	TypeInt     Type = "int"
	TypeLong    Type = "long"
	TypeFloat   Type = "float"
	TypeDouble  Type = "double"
	TypeBytes   Type = "bytes"
	TypeString  Type = "string"

	TypeFixed   Type = "fixed"
	TypeEnum    Type = "enum"
	TypeRecord  Type = "record"
	TypeError   Type = "error"
	TypeRequest Type = "request"

	TypeArray      Type = "array"
	TypeMap        Type = "map"
	TypeUnion      Type = "union"
	TypeErrorUnion Type = "error_union"
)

func (t Type) isPrimitive() bool {
	switch t {
	case TypeNull, TypeBoolean, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeBytes, TypeString:
		return true
	}
	return false
}

func (t Type) isNamed() bool {
	switch t {
	case TypeFixed, TypeEnum, TypeRecord, TypeError:
		return true
	}
	return false
}

// reservedTypeNames are names that cannot be bound in a Names registry.
var reservedTypeNames = map[string]bool{
	"null": true, "boolean": true, "int": true, "long": true,
	"float": true, "double": true, "bytes": true, "string": true,
	"fixed": true, "enum": true, "record": true, "error": true,
	"request": true, "array": true, "map": true, "union": true,
	"error_union": true,
}

// Schema is a node of a parsed schema tree. Nodes are constructed at parse
// time and immutable thereafter; a tree may be shared across concurrent codec
// operations.
type Schema interface {
	// Type reports the node kind.
	Type() Type
	// LogicalType reports the value of the node's logicalType property, or
	// the empty string.
	LogicalType() string
	// Prop looks up a non-reserved schema property preserved from the JSON
	// declaration.
	Prop(name string) (any, bool)
	// JSON renders the canonical JSON form of the schema.
	JSON() string
	// String is an alias for JSON.
	String() string
	// Equal reports whether both schemas have the same canonical JSON form.
	Equal(other Schema) bool

	emit(e *emitter)
}

// attrs carries the properties shared by every concrete schema node.
type attrs struct {
	logical string
	extra   map[string]any
}

func (a *attrs) LogicalType() string { return a.logical }

func (a *attrs) Prop(name string) (any, bool) {
	v, ok := a.extra[name]
	return v, ok
}

// ---- names ----

// Name is the resolved identifier of a named schema (record, error, enum,
// fixed).
type Name struct {
	full string
}

// NewName computes a full name from a declared name, its declared namespace
// and the enclosing default namespace. A dotted name ignores both namespace
// arguments.
func NewName(name, namespace, defaultNamespace string) (Name, error) {
	if name == "" {
		return Name{}, nameErrf("schema name must be non-empty")
	}
	switch {
	case strings.Contains(name, "."):
		return Name{full: name}, nil
	case namespace != "":
		return Name{full: namespace + "." + name}, nil
	case defaultNamespace != "":
		return Name{full: defaultNamespace + "." + name}, nil
	default:
		return Name{full: name}, nil
	}
}

// FullName returns the dotted namespace.name identifier.
func (n Name) FullName() string { return n.full }

// Simple returns the portion of the full name after the last dot.
func (n Name) Simple() string {
	if i := strings.LastIndex(n.full, "."); i >= 0 {
		return n.full[i+1:]
	}
	return n.full
}

// Space returns the prefix of the full name up to the last dot, or the empty
// string.
func (n Name) Space() string {
	if i := strings.LastIndex(n.full, "."); i >= 0 {
		return n.full[:i]
	}
	return ""
}

// Names is the registry of named schemas built during a parse. It is mutated
// only while parsing and is not safe to share across concurrent parses.
type Names struct {
	defs             map[string]Schema
	defaultNamespace string
}

// NewNames returns an empty registry.
func NewNames() *Names {
	return &Names{defs: map[string]Schema{}}
}

// Get returns the schema bound to the exact full name.
func (ns *Names) Get(fullName string) (Schema, bool) {
	s, ok := ns.defs[fullName]
	return s, ok
}

// resolve looks a reference up, qualifying bare names with the current
// default namespace first.
func (ns *Names) resolve(ref string) (Schema, bool) {
	if !strings.Contains(ref, ".") && ns.defaultNamespace != "" {
		if s, ok := ns.defs[ns.defaultNamespace+"."+ref]; ok {
			return s, true
		}
	}
	s, ok := ns.defs[ref]
	return s, ok
}

func (ns *Names) register(n Name, s Schema) error {
	full := n.FullName()
	if reservedTypeNames[full] {
		return nameErrf("%q is a reserved type name", full)
	}
	if _, ok := ns.defs[full]; ok {
		return nameErrf("name %q is already bound", full)
	}
	ns.defs[full] = s
	return nil
}

// pushSpace swaps the default namespace and returns the previous one.
func (ns *Names) pushSpace(space string) string {
	prev := ns.defaultNamespace
	ns.defaultNamespace = space
	return prev
}

func (ns *Names) popSpace(prev string) { ns.defaultNamespace = prev }

// ---- concrete nodes ----

// PrimitiveSchema is one of null, boolean, int, long, float, double, bytes,
// string.
type PrimitiveSchema struct {
	attrs
	typ Type
}

func (s *PrimitiveSchema) Type() Type          { return s.typ }
func (s *PrimitiveSchema) JSON() string        { return schemaJSON(s) }
func (s *PrimitiveSchema) String() string      { return s.JSON() }
func (s *PrimitiveSchema) Equal(o Schema) bool { return schemaEqual(s, o) }

// primitiveCache holds the bare (property-less) primitive singletons returned
// for string-form type names.
var primitiveCache = func() map[Type]*PrimitiveSchema {
	m := map[Type]*PrimitiveSchema{}
	for _, t := range []Type{TypeNull, TypeBoolean, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeBytes, TypeString} {
		m[t] = &PrimitiveSchema{typ: t}
	}
	return m
}()

// Primitive returns the shared schema node for a primitive type name, or
// false when t is not primitive.
func Primitive(t Type) (*PrimitiveSchema, bool) {
	s, ok := primitiveCache[t]
	return s, ok
}

// FixedSchema is a named type carrying exactly Size raw bytes.
type FixedSchema struct {
	attrs
	name Name
	size int
}

func (s *FixedSchema) Type() Type          { return TypeFixed }
func (s *FixedSchema) Name() Name          { return s.name }
func (s *FixedSchema) FullName() string    { return s.name.FullName() }
func (s *FixedSchema) Size() int           { return s.size }
func (s *FixedSchema) JSON() string        { return schemaJSON(s) }
func (s *FixedSchema) String() string      { return s.JSON() }
func (s *FixedSchema) Equal(o Schema) bool { return schemaEqual(s, o) }

// EnumSchema is a named type over an ordered list of unique symbols.
type EnumSchema struct {
	attrs
	name    Name
	symbols []string
	index   map[string]int
	doc     string
}

func (s *EnumSchema) Type() Type        { return TypeEnum }
func (s *EnumSchema) Name() Name        { return s.name }
func (s *EnumSchema) FullName() string  { return s.name.FullName() }
func (s *EnumSchema) Symbols() []string { return s.symbols }
func (s *EnumSchema) Doc() string       { return s.doc }

// SymbolIndex returns the zero-based position of a symbol, or -1.
func (s *EnumSchema) SymbolIndex(symbol string) int {
	if i, ok := s.index[symbol]; ok {
		return i
	}
	return -1
}

func (s *EnumSchema) JSON() string        { return schemaJSON(s) }
func (s *EnumSchema) String() string      { return s.JSON() }
func (s *EnumSchema) Equal(o Schema) bool { return schemaEqual(s, o) }

// Order is a record field's sort order.
type Order string

const (
	OrderAscending  Order = "ascending"
	OrderDescending Order = "descending"
	OrderIgnore     Order = "ignore"
)

// Field is a single record field.
type Field struct {
	name       string
	schema     Schema
	hasDefault bool
	def        any // raw JSON value of the default literal
	order      Order
	doc        string
	extra      map[string]any
}

func (f *Field) Name() string   { return f.name }
func (f *Field) Schema() Schema { return f.schema }
func (f *Field) Doc() string    { return f.doc }

// Default returns the raw JSON default literal and whether one was declared.
func (f *Field) Default() (any, bool) { return f.def, f.hasDefault }

// Order returns the declared sort order, defaulting to ascending.
func (f *Field) Order() Order {
	if f.order == "" {
		return OrderAscending
	}
	return f.order
}

// Prop looks up a non-reserved field property.
func (f *Field) Prop(name string) (any, bool) {
	v, ok := f.extra[name]
	return v, ok
}

// RecordSchema is a named type over an ordered field list. Its variant is one
// of record, error, request; a request carries no name.
type RecordSchema struct {
	attrs
	variant Type
	name    Name
	fields  []*Field
	byName  map[string]*Field
	doc     string
}

func (s *RecordSchema) Type() Type       { return s.variant }
func (s *RecordSchema) Name() Name       { return s.name }
func (s *RecordSchema) FullName() string { return s.name.FullName() }
func (s *RecordSchema) Fields() []*Field { return s.fields }
func (s *RecordSchema) Doc() string      { return s.doc }

// Field returns the field with the given name, or nil.
func (s *RecordSchema) Field(name string) *Field { return s.byName[name] }

func (s *RecordSchema) JSON() string        { return schemaJSON(s) }
func (s *RecordSchema) String() string      { return s.JSON() }
func (s *RecordSchema) Equal(o Schema) bool { return schemaEqual(s, o) }

// ArraySchema is an ordered sequence of items.
type ArraySchema struct {
	attrs
	items Schema
}

func (s *ArraySchema) Type() Type          { return TypeArray }
func (s *ArraySchema) Items() Schema       { return s.items }
func (s *ArraySchema) JSON() string        { return schemaJSON(s) }
func (s *ArraySchema) String() string      { return s.JSON() }
func (s *ArraySchema) Equal(o Schema) bool { return schemaEqual(s, o) }

// MapSchema is a string-keyed mapping of values.
type MapSchema struct {
	attrs
	values Schema
}

func (s *MapSchema) Type() Type          { return TypeMap }
func (s *MapSchema) Values() Schema      { return s.values }
func (s *MapSchema) JSON() string        { return schemaJSON(s) }
func (s *MapSchema) String() string      { return s.JSON() }
func (s *MapSchema) Equal(o Schema) bool { return schemaEqual(s, o) }

// UnionSchema is an ordered list of branches. Branches are never themselves
// unions, and non-named branches never repeat a type. An error union carries
// a synthetic leading string branch that JSON emission suppresses.
type UnionSchema struct {
	branches   []Schema
	errorUnion bool
}

func (s *UnionSchema) Type() Type {
	if s.errorUnion {
		return TypeErrorUnion
	}
	return TypeUnion
}

func (s *UnionSchema) Branches() []Schema      { return s.branches }
func (s *UnionSchema) LogicalType() string     { return "" }
func (s *UnionSchema) Prop(string) (any, bool) { return nil, false }
func (s *UnionSchema) JSON() string            { return schemaJSON(s) }
func (s *UnionSchema) String() string          { return s.JSON() }
func (s *UnionSchema) Equal(o Schema) bool     { return schemaEqual(s, o) }

func isUnion(s Schema) bool {
	t := s.Type()
	return t == TypeUnion || t == TypeErrorUnion
}

func schemaEqual(a, b Schema) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.JSON() == b.JSON()
}
