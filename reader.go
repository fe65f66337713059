package avrokit

import (
	"context"
	"fmt"
)

// DatumReader decodes binary data written under a writer schema, resolving it
// against a reader schema that may differ. A reader is immutable and may be
// shared; each Read call owns its cursor exclusively.
type DatumReader struct {
	writer Schema
	reader Schema
	opt    *Options
}

// NewDatumReader returns a reader resolving writer-encoded data against
// reader. A nil reader schema reads with the writer schema unchanged. opt may
// be nil.
func NewDatumReader(writer, reader Schema, opt *Options) *DatumReader {
	if reader == nil {
		reader = writer
	}
	return &DatumReader{writer: writer, reader: reader, opt: opt}
}

// WriterSchema returns the schema the data was encoded under.
func (r *DatumReader) WriterSchema() Schema { return r.writer }

// ReaderSchema returns the schema decoded values conform to.
func (r *DatumReader) ReaderSchema() Schema { return r.reader }

// Read decodes a single datum at the cursor.
func (r *DatumReader) Read(ctx context.Context, c *Cursor) (any, error) {
	v, err := r.readData(ctx, r.writer, r.reader, c, "")
	if err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, encodingIssue("", "input buffer exhausted mid-datum")
	}
	return v, nil
}

// Unmarshal decodes one datum from data, resolving writer against reader. A
// nil reader schema reads with the writer schema unchanged.
func Unmarshal(ctx context.Context, writer, reader Schema, data []byte, opt *Options) (any, error) {
	return NewDatumReader(writer, reader, opt).Read(ctx, NewCursor(data))
}

func (r *DatumReader) readData(ctx context.Context, w, rd Schema, c *Cursor, path string) (any, error) {
	if !matchSchemas(w, rd) {
		return nil, resolutionIssue(path, w, rd, "schemas do not match")
	}
	if !isUnion(w) && isUnion(rd) {
		branch, ok := firstMatchingBranch(w, rd.(*UnionSchema))
		if !ok {
			return nil, resolutionIssue(path, w, rd, "no reader union branch matches writer schema")
		}
		rd = branch
	}
	v, err := r.readRaw(ctx, w, rd, c, path)
	if err != nil {
		return nil, err
	}
	if h := r.opt.handler(rd); h != nil && h.ValidateBeforeFromValue(v, rd, r.opt) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dv, err := h.FromValue(ctx, v, rd)
		if err != nil {
			return nil, hookIssue(path, rd, err)
		}
		v = dv
	}
	return v, nil
}

func firstMatchingBranch(w Schema, rd *UnionSchema) (Schema, bool) {
	for _, b := range rd.Branches() {
		if matchSchemas(w, b) {
			return b, true
		}
	}
	return nil, false
}

func (r *DatumReader) readRaw(ctx context.Context, w, rd Schema, c *Cursor, path string) (any, error) {
	switch w.Type() {
	case TypeNull:
		return nil, nil
	case TypeBoolean:
		return c.ReadBoolean(), nil
	case TypeInt, TypeLong:
		return widenLong(c.ReadLong(), rd.Type()), nil
	case TypeFloat:
		f := c.ReadFloat()
		if rd.Type() == TypeDouble {
			return float64(f), nil
		}
		return f, nil
	case TypeDouble:
		return c.ReadDouble(), nil
	case TypeBytes:
		return c.ReadBytes(), nil
	case TypeString:
		return c.ReadString(), nil
	case TypeFixed:
		return c.ReadFixed(w.(*FixedSchema).Size()), nil
	case TypeEnum:
		return r.readEnum(w.(*EnumSchema), rd, c, path)
	case TypeArray:
		return r.readArray(ctx, w.(*ArraySchema), rd, c, path)
	case TypeMap:
		return r.readMap(ctx, w.(*MapSchema), rd, c, path)
	case TypeUnion, TypeErrorUnion:
		branches := w.(*UnionSchema).Branches()
		idx := c.ReadLong()
		if idx < 0 || idx >= int64(len(branches)) {
			return nil, resolutionIssue(path, w, rd, "union branch index %d out of range", idx)
		}
		return r.readData(ctx, branches[idx], rd, c, path)
	case TypeRecord, TypeError, TypeRequest:
		return r.readRecord(ctx, w.(*RecordSchema), rd.(*RecordSchema), c, path)
	}
	return nil, resolutionIssue(path, w, rd, "cannot decode schema kind %q", w.Type())
}

// widenLong promotes a value read at the writer's integer width to the
// reader's kind.
func widenLong(n int64, reader Type) any {
	switch reader {
	case TypeInt:
		return int32(n)
	case TypeFloat:
		return float32(n)
	case TypeDouble:
		return float64(n)
	default:
		return n
	}
}

func (r *DatumReader) readEnum(w *EnumSchema, rd Schema, c *Cursor, path string) (any, error) {
	idx := c.ReadLong()
	symbols := w.Symbols()
	if idx < 0 || idx >= int64(len(symbols)) {
		return nil, resolutionIssue(path, w, rd, "enum index %d out of range", idx)
	}
	sym := symbols[idx]
	if rd.(*EnumSchema).SymbolIndex(sym) < 0 {
		return nil, resolutionIssue(path, w, rd, "symbol %q absent from reader enum", sym)
	}
	return sym, nil
}

// readArray consumes repeated blocks. A negative count carries the block byte
// size in a following long; the items are read normally and the size is
// ignored.
func (r *DatumReader) readArray(ctx context.Context, w *ArraySchema, rd Schema, c *Cursor, path string) (any, error) {
	rdItems := rd.(*ArraySchema).Items()
	out := []any{}
	for c.Valid() {
		n := c.ReadLong()
		if n == 0 {
			break
		}
		if n < 0 {
			n = -n
			c.ReadLong()
		}
		for i := int64(0); i < n && c.Valid(); i++ {
			v, err := r.readData(ctx, w.Items(), rdItems, c, childPath(path, fmt.Sprint(len(out))))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *DatumReader) readMap(ctx context.Context, w *MapSchema, rd Schema, c *Cursor, path string) (any, error) {
	rdValues := rd.(*MapSchema).Values()
	out := map[string]any{}
	for c.Valid() {
		n := c.ReadLong()
		if n == 0 {
			break
		}
		if n < 0 {
			n = -n
			c.ReadLong()
		}
		for i := int64(0); i < n && c.Valid(); i++ {
			k := c.ReadString()
			v, err := r.readData(ctx, w.Values(), rdValues, c, childPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
	}
	return out, nil
}

func (r *DatumReader) readRecord(ctx context.Context, w, rd *RecordSchema, c *Cursor, path string) (any, error) {
	out := make(map[string]any, len(rd.Fields()))
	for _, wf := range w.Fields() {
		rf := rd.Field(wf.Name())
		if rf == nil {
			skipData(wf.Schema(), c)
			continue
		}
		v, err := r.readData(ctx, wf.Schema(), rf.Schema(), c, childPath(path, wf.Name()))
		if err != nil {
			return nil, err
		}
		out[wf.Name()] = v
	}
	for _, rf := range rd.Fields() {
		if _, ok := out[rf.Name()]; ok {
			continue
		}
		def, has := rf.Default()
		if !has {
			return nil, resolutionIssue(childPath(path, rf.Name()), w, rd,
				"reader field %q has no default and is absent from writer", rf.Name())
		}
		v, err := r.readDefaultValue(ctx, rf.Schema(), def, childPath(path, rf.Name()))
		if err != nil {
			return nil, err
		}
		out[rf.Name()] = v
	}
	return out, nil
}

// readDefaultValue synthesizes a host value from a field's JSON default
// literal.
func (r *DatumReader) readDefaultValue(ctx context.Context, s Schema, def any, path string) (any, error) {
	switch s.Type() {
	case TypeNull:
		if def != nil {
			return nil, resolutionIssue(path, s, nil, "default %v is not null", def)
		}
		return nil, nil
	case TypeBoolean:
		b, ok := def.(bool)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not a boolean", def)
		}
		return b, nil
	case TypeInt:
		n, ok := asInt64(def)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not an int", def)
		}
		return int32(n), nil
	case TypeLong:
		n, ok := asInt64(def)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not a long", def)
		}
		return n, nil
	case TypeFloat:
		f, ok := asFloat64(def)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not a float", def)
		}
		return float32(f), nil
	case TypeDouble:
		f, ok := asFloat64(def)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not a double", def)
		}
		return f, nil
	case TypeString, TypeEnum:
		str, ok := def.(string)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not a string", def)
		}
		return str, nil
	case TypeBytes, TypeFixed:
		str, ok := def.(string)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not a byte string", def)
		}
		return latin1Bytes(str), nil
	case TypeArray:
		elems, ok := def.([]any)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not an array", def)
		}
		items := s.(*ArraySchema).Items()
		out := make([]any, 0, len(elems))
		for i, e := range elems {
			v, err := r.readDefaultValue(ctx, items, e, childPath(path, fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case TypeMap:
		entries, ok := def.(map[string]any)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not a map", def)
		}
		values := s.(*MapSchema).Values()
		out := make(map[string]any, len(entries))
		for _, k := range sortedKeys(entries) {
			v, err := r.readDefaultValue(ctx, values, entries[k], childPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case TypeUnion, TypeErrorUnion:
		branches := s.(*UnionSchema).Branches()
		if len(branches) == 0 {
			return nil, resolutionIssue(path, s, nil, "empty union has no default branch")
		}
		return r.readDefaultValue(ctx, branches[0], def, path)
	case TypeRecord, TypeError, TypeRequest:
		rec := s.(*RecordSchema)
		obj, ok := def.(map[string]any)
		if !ok {
			return nil, resolutionIssue(path, s, nil, "default %v is not a record", def)
		}
		out := make(map[string]any, len(rec.Fields()))
		for _, f := range rec.Fields() {
			fd, present := obj[f.Name()]
			if !present {
				var has bool
				fd, has = f.Default()
				if !has {
					return nil, resolutionIssue(childPath(path, f.Name()), s, nil,
						"record default omits field %q which has no default", f.Name())
				}
			}
			v, err := r.readDefaultValue(ctx, f.Schema(), fd, childPath(path, f.Name()))
			if err != nil {
				return nil, err
			}
			out[f.Name()] = v
		}
		return out, nil
	}
	return nil, resolutionIssue(path, s, nil, "cannot synthesize default for schema kind %q", s.Type())
}

// latin1Bytes maps a JSON default string to raw bytes, one byte per code
// point, per the Avro rules for bytes and fixed defaults.
func latin1Bytes(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r))
	}
	return out
}

// skipData advances the cursor past one datum without materializing it. For
// arrays and maps it jumps over whole blocks when the writer supplied the
// block byte size.
func skipData(s Schema, c *Cursor) {
	switch s.Type() {
	case TypeNull:
	case TypeBoolean:
		c.SkipBoolean()
	case TypeInt, TypeLong, TypeEnum:
		c.SkipLong()
	case TypeFloat:
		c.SkipFloat()
	case TypeDouble:
		c.SkipDouble()
	case TypeBytes, TypeString:
		c.SkipBytes()
	case TypeFixed:
		c.SkipFixed(s.(*FixedSchema).Size())
	case TypeArray:
		skipBlocks(c, func() { skipData(s.(*ArraySchema).Items(), c) })
	case TypeMap:
		skipBlocks(c, func() {
			c.SkipString()
			skipData(s.(*MapSchema).Values(), c)
		})
	case TypeUnion, TypeErrorUnion:
		branches := s.(*UnionSchema).Branches()
		idx := c.ReadLong()
		if idx < 0 || idx >= int64(len(branches)) {
			c.poison()
			return
		}
		skipData(branches[idx], c)
	case TypeRecord, TypeError, TypeRequest:
		for _, f := range s.(*RecordSchema).Fields() {
			skipData(f.Schema(), c)
		}
	}
}

func skipBlocks(c *Cursor, skipItem func()) {
	for c.Valid() {
		n := c.ReadLong()
		if n == 0 {
			return
		}
		if n < 0 {
			size := c.ReadLong()
			if size < 0 {
				c.poison()
				return
			}
			c.Pos += int(size)
			continue
		}
		for i := int64(0); i < n && c.Valid(); i++ {
			skipItem()
		}
	}
}

// matchSchemas reports whether data written under w can be read through r.
// Map and array element schemas are matched shallowly, by their top-level
// type; deeper mismatches surface recursively during the read itself.
func matchSchemas(w, r Schema) bool {
	if isUnion(w) || isUnion(r) {
		return true
	}
	wt, rt := w.Type(), r.Type()
	if wt == rt {
		switch wt {
		case TypeNull, TypeBoolean, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeBytes, TypeString:
			return true
		case TypeRecord, TypeError:
			return w.(*RecordSchema).FullName() == r.(*RecordSchema).FullName()
		case TypeRequest:
			return true
		case TypeFixed:
			wf, rf := w.(*FixedSchema), r.(*FixedSchema)
			return wf.FullName() == rf.FullName() && wf.Size() == rf.Size()
		case TypeEnum:
			return w.(*EnumSchema).FullName() == r.(*EnumSchema).FullName()
		case TypeMap:
			return w.(*MapSchema).Values().Type() == r.(*MapSchema).Values().Type()
		case TypeArray:
			return w.(*ArraySchema).Items().Type() == r.(*ArraySchema).Items().Type()
		}
	}
	switch wt {
	case TypeInt:
		return rt == TypeLong || rt == TypeFloat || rt == TypeDouble
	case TypeLong:
		return rt == TypeFloat || rt == TypeDouble
	case TypeFloat:
		return rt == TypeDouble
	}
	return false
}
