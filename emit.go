package avrokit

import (
	"strings"

	json "github.com/goccy/go-json"
)

// emitter renders a schema tree as canonical JSON. Named types already
// written in the current pass emit as name references, which keeps cyclic
// schemas finite.
type emitter struct {
	b    strings.Builder
	seen map[string]bool
	ns   string // enclosing default namespace
}

func newEmitter() *emitter {
	return &emitter{seen: map[string]bool{}}
}

func schemaJSON(s Schema) string {
	e := newEmitter()
	s.emit(e)
	return e.b.String()
}

func (e *emitter) raw(s string) { e.b.WriteString(s) }

func (e *emitter) value(v any) {
	out, err := json.Marshal(v)
	if err != nil {
		out, _ = json.Marshal(err.Error())
	}
	e.b.Write(out)
}

// prop writes a comma, a quoted key and a colon.
func (e *emitter) prop(key string) {
	e.raw(",")
	e.value(key)
	e.raw(":")
}

// refName renders a named type as a reference, short when it lives in the
// enclosing default namespace.
func (e *emitter) refName(n Name) string {
	if n.Space() == e.ns {
		return n.Simple()
	}
	return n.FullName()
}

func (e *emitter) extras(a *attrs) {
	if a.logical != "" {
		e.prop("logicalType")
		e.value(a.logical)
	}
	for _, k := range sortedKeys(a.extra) {
		e.prop(k)
		e.value(a.extra[k])
	}
}

func (s *PrimitiveSchema) emit(e *emitter) {
	if s.logical == "" && len(s.extra) == 0 {
		e.value(string(s.typ))
		return
	}
	e.raw(`{"type":`)
	e.value(string(s.typ))
	e.extras(&s.attrs)
	e.raw("}")
}

func (s *FixedSchema) emit(e *emitter) {
	if e.seen[s.name.FullName()] {
		e.value(e.refName(s.name))
		return
	}
	e.seen[s.name.FullName()] = true
	e.raw(`{"type":"fixed","name":`)
	e.value(e.refName(s.name))
	e.prop("size")
	e.value(s.size)
	e.extras(&s.attrs)
	e.raw("}")
}

func (s *EnumSchema) emit(e *emitter) {
	if e.seen[s.name.FullName()] {
		e.value(e.refName(s.name))
		return
	}
	e.seen[s.name.FullName()] = true
	e.raw(`{"type":"enum","name":`)
	e.value(e.refName(s.name))
	e.prop("symbols")
	e.value(s.symbols)
	if s.doc != "" {
		e.prop("doc")
		e.value(s.doc)
	}
	e.extras(&s.attrs)
	e.raw("}")
}

func (s *RecordSchema) emit(e *emitter) {
	if s.variant == TypeRequest {
		e.emitFields(s.fields)
		return
	}
	if e.seen[s.name.FullName()] {
		e.value(e.refName(s.name))
		return
	}
	e.seen[s.name.FullName()] = true
	e.raw(`{"type":`)
	e.value(string(s.variant))
	e.raw(`,"name":`)
	e.value(e.refName(s.name))
	prev := e.ns
	e.ns = s.name.Space()
	e.prop("fields")
	e.emitFields(s.fields)
	e.ns = prev
	if s.doc != "" {
		e.prop("doc")
		e.value(s.doc)
	}
	e.extras(&s.attrs)
	e.raw("}")
}

func (e *emitter) emitFields(fields []*Field) {
	e.raw("[")
	for i, f := range fields {
		if i > 0 {
			e.raw(",")
		}
		e.raw(`{"name":`)
		e.value(f.name)
		e.raw(`,"type":`)
		f.schema.emit(e)
		if f.hasDefault {
			e.prop("default")
			e.value(f.def)
		}
		if f.order != "" {
			e.prop("order")
			e.value(string(f.order))
		}
		if f.doc != "" {
			e.prop("doc")
			e.value(f.doc)
		}
		for _, k := range sortedKeys(f.extra) {
			e.prop(k)
			e.value(f.extra[k])
		}
		e.raw("}")
	}
	e.raw("]")
}

func (s *ArraySchema) emit(e *emitter) {
	e.raw(`{"type":"array","items":`)
	s.items.emit(e)
	e.extras(&s.attrs)
	e.raw("}")
}

func (s *MapSchema) emit(e *emitter) {
	e.raw(`{"type":"map","values":`)
	s.values.emit(e)
	e.extras(&s.attrs)
	e.raw("}")
}

func (s *UnionSchema) emit(e *emitter) {
	branches := s.branches
	if s.errorUnion && len(branches) > 0 {
		// The synthetic system-error string branch stays implicit.
		branches = branches[1:]
	}
	e.raw("[")
	for i, b := range branches {
		if i > 0 {
			e.raw(",")
		}
		b.emit(e)
	}
	e.raw("]")
}
