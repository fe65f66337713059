package avrokit

import (
	json "github.com/goccy/go-json"
)

// Validate reports whether a host value structurally conforms to a schema
// node. When the schema carries a logicalType registered in opt, validation
// is delegated to the handler's ValidateBeforeToValue.
func Validate(s Schema, v any, opt *Options) bool {
	if h := opt.handler(s); h != nil {
		return h.ValidateBeforeToValue(v, s, opt)
	}
	switch s.Type() {
	case TypeNull:
		return v == nil
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBytes:
		_, ok := v.([]byte)
		return ok
	case TypeInt:
		n, ok := asInt64(v)
		return ok && n >= -(1<<31) && n < 1<<31
	case TypeLong:
		_, ok := asInt64(v)
		return ok
	case TypeFloat, TypeDouble:
		_, ok := asFloat64(v)
		return ok
	case TypeFixed:
		b, ok := v.([]byte)
		return ok && len(b) == s.(*FixedSchema).Size()
	case TypeEnum:
		sym, ok := v.(string)
		return ok && s.(*EnumSchema).SymbolIndex(sym) >= 0
	case TypeArray:
		items := s.(*ArraySchema).Items()
		elems, ok := v.([]any)
		if !ok {
			return false
		}
		for _, e := range elems {
			if !Validate(items, e, opt) {
				return false
			}
		}
		return true
	case TypeMap:
		values := s.(*MapSchema).Values()
		entries, ok := v.(map[string]any)
		if !ok {
			return false
		}
		for _, e := range entries {
			if !Validate(values, e, opt) {
				return false
			}
		}
		return true
	case TypeUnion, TypeErrorUnion:
		for _, b := range s.(*UnionSchema).Branches() {
			if Validate(b, v, opt) {
				return true
			}
		}
		return false
	case TypeRecord, TypeError, TypeRequest:
		rec := s.(*RecordSchema)
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		for _, f := range rec.Fields() {
			// A missing key validates as null against the field type.
			if !Validate(f.Schema(), m[f.Name()], opt) {
				return false
			}
		}
		for k := range m {
			if rec.Field(k) == nil {
				return false
			}
		}
		return true
	}
	return false
}

// asInt64 reports v as an integer. Floating values qualify when they carry no
// fractional part and fit int64 exactly.
func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float32:
		return asInt64(float64(t))
	case float64:
		n := int64(t)
		if float64(n) == t {
			return n, true
		}
		return 0, false
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
