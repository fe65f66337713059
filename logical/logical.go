// Package logical provides adapters for building avrokit logical-type
// handlers from closures. The library ships no standard logical types; this
// package only eases implementing the extension contract.
package logical

import (
	"context"

	"github.com/reoring/avrokit"
)

// Func assembles a LogicalType from optional closures. A nil To or From
// passes the value through unchanged; a nil ValidateTo or ValidateFrom
// accepts every value.
type Func struct {
	To           func(ctx context.Context, v any, s avrokit.Schema) (any, error)
	From         func(ctx context.Context, v any, s avrokit.Schema) (any, error)
	ValidateTo   func(v any, s avrokit.Schema, opt *avrokit.Options) bool
	ValidateFrom func(v any, s avrokit.Schema, opt *avrokit.Options) bool
}

var _ avrokit.LogicalType = Func{}

func (f Func) ToValue(ctx context.Context, v any, s avrokit.Schema) (any, error) {
	if f.To == nil {
		return v, nil
	}
	return f.To(ctx, v, s)
}

func (f Func) FromValue(ctx context.Context, v any, s avrokit.Schema) (any, error) {
	if f.From == nil {
		return v, nil
	}
	return f.From(ctx, v, s)
}

func (f Func) ValidateBeforeToValue(v any, s avrokit.Schema, opt *avrokit.Options) bool {
	if f.ValidateTo == nil {
		return true
	}
	return f.ValidateTo(v, s, opt)
}

func (f Func) ValidateBeforeFromValue(v any, s avrokit.Schema, opt *avrokit.Options) bool {
	if f.ValidateFrom == nil {
		return true
	}
	return f.ValidateFrom(v, s, opt)
}

// Identity returns a handler that leaves values untouched in both directions.
func Identity() avrokit.LogicalType { return Func{} }
