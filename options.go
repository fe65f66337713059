package avrokit

import "context"

// LogicalType transforms domain values to and from their underlying Avro
// representation. Handlers are registered in Options.LogicalTypes keyed by the
// value of a schema node's logicalType property. ToValue and FromValue may
// block; the codec checks context cancellation before invoking either.
type LogicalType interface {
	// ToValue converts a domain value to its Avro representation before
	// encoding.
	ToValue(ctx context.Context, v any, s Schema) (any, error)
	// FromValue converts a decoded Avro value back to the domain value.
	FromValue(ctx context.Context, v any, s Schema) (any, error)
	// ValidateBeforeToValue reports whether the domain value is acceptable
	// input for ToValue. The validator delegates to it when the schema
	// carries a registered logicalType.
	ValidateBeforeToValue(v any, s Schema, opt *Options) bool
	// ValidateBeforeFromValue reports whether the decoded raw value should
	// be handed to FromValue. When it returns false the raw value passes
	// through unchanged.
	ValidateBeforeFromValue(v any, s Schema, opt *Options) bool
}

// Options configures validation and codec behavior. The zero value (or nil)
// means no logical types are registered.
type Options struct {
	// LogicalTypes maps a logicalType property value to its handler.
	LogicalTypes map[string]LogicalType
}

// handler is a nil-safe lookup of the logical type registered for s.
func (o *Options) handler(s Schema) LogicalType {
	if o == nil || len(o.LogicalTypes) == 0 {
		return nil
	}
	lt := s.LogicalType()
	if lt == "" {
		return nil
	}
	return o.LogicalTypes[lt]
}
