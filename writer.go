package avrokit

import (
	"context"
	"fmt"
)

// DatumWriter encodes host values under a writer schema. A writer is immutable
// and may be shared; each Write call owns its cursor exclusively.
type DatumWriter struct {
	schema Schema
	opt    *Options
}

// NewDatumWriter returns a writer for the given schema. opt may be nil.
func NewDatumWriter(schema Schema, opt *Options) *DatumWriter {
	return &DatumWriter{schema: schema, opt: opt}
}

// Schema returns the writer schema.
func (w *DatumWriter) Schema() Schema { return w.schema }

// Write validates v against the writer schema and encodes it at the cursor.
// The caller checks c.Valid afterwards to detect a too-small buffer.
func (w *DatumWriter) Write(ctx context.Context, v any, c *Cursor) error {
	if !Validate(w.schema, v, w.opt) {
		return typeIssue("", w.schema, v)
	}
	return w.writeData(ctx, w.schema, v, c, "")
}

func (w *DatumWriter) writeData(ctx context.Context, s Schema, v any, c *Cursor, path string) error {
	if h := w.opt.handler(s); h != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		tv, err := h.ToValue(ctx, v, s)
		if err != nil {
			return hookIssue(path, s, err)
		}
		v = tv
	}
	switch s.Type() {
	case TypeNull:
		if v != nil {
			return typeIssue(path, s, v)
		}
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return typeIssue(path, s, v)
		}
		c.WriteBoolean(b)
	case TypeInt, TypeLong:
		n, ok := asInt64(v)
		if !ok {
			return typeIssue(path, s, v)
		}
		c.WriteLong(n)
	case TypeFloat:
		f, ok := asFloat64(v)
		if !ok {
			return typeIssue(path, s, v)
		}
		c.WriteFloat(float32(f))
	case TypeDouble:
		f, ok := asFloat64(v)
		if !ok {
			return typeIssue(path, s, v)
		}
		c.WriteDouble(f)
	case TypeBytes:
		b, ok := v.([]byte)
		if !ok {
			return typeIssue(path, s, v)
		}
		c.WriteBytes(b)
	case TypeString:
		str, ok := v.(string)
		if !ok {
			return typeIssue(path, s, v)
		}
		c.WriteString(str)
	case TypeFixed:
		fs := s.(*FixedSchema)
		b, ok := v.([]byte)
		if !ok || len(b) != fs.Size() {
			return typeIssue(path, s, v)
		}
		c.WriteFixed(b, fs.Size())
	case TypeEnum:
		es := s.(*EnumSchema)
		sym, ok := v.(string)
		if !ok {
			return typeIssue(path, s, v)
		}
		idx := es.SymbolIndex(sym)
		if idx < 0 {
			return typeIssue(path, s, v)
		}
		c.WriteLong(int64(idx))
	case TypeArray:
		items := s.(*ArraySchema).Items()
		elems, ok := v.([]any)
		if !ok {
			return typeIssue(path, s, v)
		}
		if len(elems) > 0 {
			c.WriteLong(int64(len(elems)))
			for i, e := range elems {
				if err := w.writeData(ctx, items, e, c, childPath(path, fmt.Sprint(i))); err != nil {
					return err
				}
			}
		}
		c.WriteLong(0)
	case TypeMap:
		values := s.(*MapSchema).Values()
		entries, ok := v.(map[string]any)
		if !ok {
			return typeIssue(path, s, v)
		}
		if len(entries) > 0 {
			c.WriteLong(int64(len(entries)))
			for _, k := range sortedKeys(entries) {
				c.WriteString(k)
				if err := w.writeData(ctx, values, entries[k], c, childPath(path, k)); err != nil {
					return err
				}
			}
		}
		c.WriteLong(0)
	case TypeUnion, TypeErrorUnion:
		branches := s.(*UnionSchema).Branches()
		for i, b := range branches {
			if Validate(b, v, w.opt) {
				c.WriteLong(int64(i))
				return w.writeData(ctx, b, v, c, path)
			}
		}
		return typeIssue(path, s, v)
	case TypeRecord, TypeError, TypeRequest:
		rec := s.(*RecordSchema)
		m, ok := v.(map[string]any)
		if !ok {
			return typeIssue(path, s, v)
		}
		for _, f := range rec.Fields() {
			if err := w.writeData(ctx, f.Schema(), m[f.Name()], c, childPath(path, f.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func childPath(parent, segment string) string {
	return parent + "/" + segment
}

// Marshal encodes v under schema s into a freshly sized buffer. It relies on
// the overflow-silent cursor contract: a first pass over an empty buffer
// measures the encoding, the second pass writes it. Logical type hooks run
// once per pass.
func Marshal(ctx context.Context, s Schema, v any, opt *Options) ([]byte, error) {
	w := NewDatumWriter(s, opt)
	probe := NewCursor(nil)
	if err := w.Write(ctx, v, probe); err != nil {
		return nil, err
	}
	c := NewCursor(make([]byte, probe.Pos))
	if err := w.Write(ctx, v, c); err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, encodingIssue("", "encoding size changed between measure and write passes")
	}
	return c.Buf[:c.Pos], nil
}
