package avrokit

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// reservedSchemaKeys never land in a node's extra properties.
var reservedSchemaKeys = map[string]bool{
	"type": true, "name": true, "namespace": true, "fields": true,
	"items": true, "size": true, "symbols": true, "values": true,
	"doc": true,
}

// reservedFieldKeys never land in a field's extra properties.
var reservedFieldKeys = map[string]bool{
	"name": true, "type": true, "default": true, "order": true, "doc": true,
}

// Parse builds a schema tree from a JSON schema declaration. The input may be
// a JSON string, raw JSON bytes, or an already decoded any tree
// (map[string]any / []any / string). Named types are registered in a fresh
// Names registry; references by full name resolve to the same node.
func Parse(input any) (Schema, error) {
	node, err := decodeInput(input)
	if err != nil {
		return nil, err
	}
	names := NewNames()
	return makeAvscObject(node, names)
}

// ParseNames is Parse with a caller-supplied registry, letting several schema
// documents share one namespace of defined types.
func ParseNames(input any, names *Names) (Schema, error) {
	node, err := decodeInput(input)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = NewNames()
	}
	return makeAvscObject(node, names)
}

// MustParse is Parse that panics on error. Intended for schema literals in
// tests and package initialization.
func MustParse(input any) Schema {
	s, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseYAML decodes a YAML schema document and feeds it to the regular
// walker. Numbers arrive as int/float64 from the YAML decoder; the walker
// accepts both forms.
func ParseYAML(data []byte) (Schema, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, Issues{Issue{Code: CodeParseError, Message: "invalid YAML schema document", Cause: err}}
	}
	return Parse(yamlNormalize(node))
}

// yamlNormalize rewrites yaml.v3 map[any]any trees into the string-keyed
// shape the walker expects.
func yamlNormalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = yamlNormalize(e)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = yamlNormalize(e)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = yamlNormalize(e)
		}
		return out
	default:
		return v
	}
}

func decodeInput(input any) (any, error) {
	switch t := input.(type) {
	case string:
		return decodeJSON([]byte(t), t)
	case []byte:
		return decodeJSON(t, string(t))
	default:
		return input, nil
	}
}

func decodeJSON(data []byte, source string) (any, error) {
	// Bare type names ("int", "my.Record") are not valid JSON documents but
	// are valid schema declarations.
	trimmed := strings.TrimSpace(source)
	if trimmed != "" && trimmed[0] != '{' && trimmed[0] != '[' && trimmed[0] != '"' {
		return trimmed, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var node any
	if err := dec.Decode(&node); err != nil {
		return nil, Issues{Issue{
			Code:    CodeParseError,
			Message: fmt.Sprintf("error parsing JSON %s", clip(source)),
			Cause:   err,
		}}
	}
	return node, nil
}

func clip(s string) string {
	const max = 120
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// makeAvscObject is the recursive schema walker of the parse step.
func makeAvscObject(node any, names *Names) (Schema, error) {
	switch t := node.(type) {
	case string:
		return resolveTypeName(t, names)
	case []any:
		return makeUnion(t, names, false)
	case map[string]any:
		return makeObject(t, names)
	default:
		return nil, parseErrf("schema declaration must be a string, array or object, got %T", node)
	}
}

func resolveTypeName(name string, names *Names) (Schema, error) {
	if p, ok := Primitive(Type(name)); ok {
		return p, nil
	}
	if s, ok := names.resolve(name); ok {
		return s, nil
	}
	return nil, nameErrf("undefined type name %q", name)
}

func makeUnion(elems []any, names *Names, errorUnion bool) (Schema, error) {
	branches := make([]Schema, 0, len(elems)+1)
	if errorUnion {
		str, _ := Primitive(TypeString)
		branches = append(branches, str)
	}
	seen := map[Type]bool{}
	for _, e := range elems {
		b, err := makeAvscObject(e, names)
		if err != nil {
			return nil, err
		}
		if isUnion(b) {
			return nil, parseErrf("unions may not directly contain a union")
		}
		t := b.Type()
		if !t.isNamed() {
			if seen[t] {
				return nil, parseErrf("unions may not contain more than one %q branch", t)
			}
			seen[t] = true
		}
		branches = append(branches, b)
	}
	return &UnionSchema{branches: branches, errorUnion: errorUnion}, nil
}

func makeObject(obj map[string]any, names *Names) (Schema, error) {
	rawType, ok := obj["type"]
	if !ok {
		return nil, parseErrf("schema object has no type property: %s", renderJSON(obj))
	}
	typeName, ok := rawType.(string)
	if !ok {
		// {"type": {...}} and {"type": [...]} wrap another declaration.
		return makeAvscObject(rawType, names)
	}
	t := Type(typeName)
	switch {
	case t.isPrimitive():
		return makePrimitive(t, obj)
	case t == TypeFixed:
		return makeFixed(obj, names)
	case t == TypeEnum:
		return makeEnum(obj, names)
	case t == TypeRecord || t == TypeError:
		return makeRecord(t, obj, names)
	case t == TypeArray:
		items, ok := obj["items"]
		if !ok {
			return nil, parseErrf("array schema has no items property")
		}
		is, err := makeAvscObject(items, names)
		if err != nil {
			return nil, err
		}
		return &ArraySchema{attrs: extractAttrs(obj, reservedSchemaKeys), items: is}, nil
	case t == TypeMap:
		values, ok := obj["values"]
		if !ok {
			return nil, parseErrf("map schema has no values property")
		}
		vs, err := makeAvscObject(values, names)
		if err != nil {
			return nil, err
		}
		return &MapSchema{attrs: extractAttrs(obj, reservedSchemaKeys), values: vs}, nil
	case t == TypeErrorUnion:
		decls, ok := obj["declared_errors"].([]any)
		if !ok {
			return nil, parseErrf("error_union schema has no declared_errors array")
		}
		return makeUnion(decls, names, true)
	case t == TypeRequest:
		return nil, parseErrf("request is not a standalone schema type")
	default:
		// A known named type used in type position resolves as a reference.
		if s, ok := names.resolve(typeName); ok {
			return s, nil
		}
		return nil, parseErrf("unknown type %q", typeName)
	}
}

func makePrimitive(t Type, obj map[string]any) (Schema, error) {
	a := extractAttrs(obj, reservedSchemaKeys)
	if a.logical == "" && len(a.extra) == 0 {
		p, _ := Primitive(t)
		return p, nil
	}
	return &PrimitiveSchema{attrs: a, typ: t}, nil
}

func makeName(obj map[string]any, names *Names) (Name, error) {
	rawName, ok := obj["name"].(string)
	if !ok {
		return Name{}, parseErrf("named schema requires a string name property: %s", renderJSON(obj))
	}
	namespace, _ := obj["namespace"].(string)
	return NewName(rawName, namespace, names.defaultNamespace)
}

func makeFixed(obj map[string]any, names *Names) (Schema, error) {
	n, err := makeName(obj, names)
	if err != nil {
		return nil, err
	}
	size, ok := intProp(obj["size"])
	if !ok || size < 0 {
		return nil, parseErrf("fixed schema %q requires a non-negative integer size", n.FullName())
	}
	s := &FixedSchema{attrs: extractAttrs(obj, reservedSchemaKeys), name: n, size: size}
	if err := names.register(n, s); err != nil {
		return nil, err
	}
	return s, nil
}

func makeEnum(obj map[string]any, names *Names) (Schema, error) {
	n, err := makeName(obj, names)
	if err != nil {
		return nil, err
	}
	rawSymbols, ok := obj["symbols"].([]any)
	if !ok {
		return nil, parseErrf("enum schema %q requires a symbols array", n.FullName())
	}
	symbols := make([]string, 0, len(rawSymbols))
	index := make(map[string]int, len(rawSymbols))
	for _, rs := range rawSymbols {
		sym, ok := rs.(string)
		if !ok {
			return nil, parseErrf("enum %q symbol %v is not a string", n.FullName(), rs)
		}
		if _, dup := index[sym]; dup {
			return nil, parseErrf("enum %q repeats symbol %q", n.FullName(), sym)
		}
		index[sym] = len(symbols)
		symbols = append(symbols, sym)
	}
	doc, _ := obj["doc"].(string)
	s := &EnumSchema{
		attrs:   extractAttrs(obj, reservedSchemaKeys),
		name:    n,
		symbols: symbols,
		index:   index,
		doc:     doc,
	}
	if err := names.register(n, s); err != nil {
		return nil, err
	}
	return s, nil
}

func makeRecord(variant Type, obj map[string]any, names *Names) (Schema, error) {
	n, err := makeName(obj, names)
	if err != nil {
		return nil, err
	}
	doc, _ := obj["doc"].(string)
	s := &RecordSchema{
		attrs:   extractAttrs(obj, reservedSchemaKeys),
		variant: variant,
		name:    n,
		doc:     doc,
	}
	// Register before walking fields so the record can reference itself.
	if err := names.register(n, s); err != nil {
		return nil, err
	}
	prev := names.pushSpace(n.Space())
	defer names.popSpace(prev)

	rawFields, ok := obj["fields"]
	if !ok {
		return nil, parseErrf("record %q has no fields property", n.FullName())
	}
	list, ok := rawFields.([]any)
	if !ok {
		return nil, parseErrf("record %q fields property is not an array", n.FullName())
	}
	fields, byName, err := makeFields(n.FullName(), list, names)
	if err != nil {
		return nil, err
	}
	s.fields = fields
	s.byName = byName
	return s, nil
}

func makeFields(owner string, list []any, names *Names) ([]*Field, map[string]*Field, error) {
	fields := make([]*Field, 0, len(list))
	byName := make(map[string]*Field, len(list))
	for _, rf := range list {
		fobj, ok := rf.(map[string]any)
		if !ok {
			return nil, nil, parseErrf("record %q field declaration is not an object", owner)
		}
		f, err := makeField(owner, fobj, names)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := byName[f.name]; dup {
			return nil, nil, parseErrf("record %q repeats field name %q", owner, f.name)
		}
		byName[f.name] = f
		fields = append(fields, f)
	}
	return fields, byName, nil
}

func makeField(owner string, obj map[string]any, names *Names) (*Field, error) {
	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return nil, parseErrf("record %q has a field without a name", owner)
	}
	rawType, ok := obj["type"]
	if !ok {
		return nil, parseErrf("field %q of record %q has no type", name, owner)
	}
	ft, err := makeAvscObject(rawType, names)
	if err != nil {
		return nil, err
	}
	f := &Field{name: name, schema: ft}
	if def, has := obj["default"]; has {
		f.hasDefault = true
		f.def = def
	}
	if rawOrder, has := obj["order"]; has {
		orderStr, ok := rawOrder.(string)
		order := Order(orderStr)
		if !ok || (order != OrderAscending && order != OrderDescending && order != OrderIgnore) {
			return nil, parseErrf("field %q of record %q has invalid order %v", name, owner, rawOrder)
		}
		f.order = order
	}
	f.doc, _ = obj["doc"].(string)
	f.extra = extractExtra(obj, reservedFieldKeys)
	return f, nil
}

// extractAttrs pulls logicalType and the non-reserved properties off a schema
// object.
func extractAttrs(obj map[string]any, reserved map[string]bool) attrs {
	a := attrs{}
	a.logical, _ = obj["logicalType"].(string)
	for _, k := range sortedKeys(obj) {
		if reserved[k] || k == "logicalType" {
			continue
		}
		if a.extra == nil {
			a.extra = map[string]any{}
		}
		a.extra[k] = obj[k]
	}
	return a
}

func extractExtra(obj map[string]any, reserved map[string]bool) map[string]any {
	var extra map[string]any
	for _, k := range sortedKeys(obj) {
		if reserved[k] {
			continue
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[k] = obj[k]
	}
	return extra
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func intProp(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != float64(int64(t)) {
			return 0, false
		}
		return int(t), true
	}
	return 0, false
}

func renderJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
