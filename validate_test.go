package avrokit_test

import (
	"math"
	"testing"

	"github.com/reoring/avrokit"
	"github.com/reoring/avrokit/logical"
)

func TestValidatePrimitives(t *testing.T) {
	cases := []struct {
		schema string
		value  any
		ok     bool
	}{
		{`"null"`, nil, true},
		{`"null"`, false, false},
		{`"boolean"`, true, true},
		{`"boolean"`, 0, false},
		{`"string"`, "s", true},
		{`"string"`, []byte("s"), false},
		{`"bytes"`, []byte{1}, true},
		{`"bytes"`, "s", false},
		{`"int"`, int32(5), true},
		{`"int"`, int64(math.MinInt32), true},
		{`"int"`, int64(math.MaxInt32), true},
		{`"int"`, int64(math.MaxInt32) + 1, false},
		{`"int"`, int64(math.MinInt32) - 1, false},
		{`"int"`, 1.5, false},
		{`"long"`, int64(math.MaxInt64), true},
		{`"long"`, "1", false},
		{`"float"`, 1.25, true},
		{`"float"`, int32(7), true},
		{`"double"`, float32(2), true},
		{`"double"`, nil, false},
	}
	for _, c := range cases {
		s := mustParse(t, c.schema)
		if got := avrokit.Validate(s, c.value, nil); got != c.ok {
			t.Fatalf("Validate(%s, %v) = %v, want %v", c.schema, c.value, got, c.ok)
		}
	}
}

func TestValidateFixedLength(t *testing.T) {
	s := mustParse(t, `{"type":"fixed","name":"F2","size":2}`)
	if !avrokit.Validate(s, []byte{1, 2}, nil) {
		t.Fatalf("exact-size fixed rejected")
	}
	if avrokit.Validate(s, []byte{1}, nil) || avrokit.Validate(s, []byte{1, 2, 3}, nil) {
		t.Fatalf("wrong-size fixed accepted")
	}
}

func TestValidateEnum(t *testing.T) {
	s := mustParse(t, `{"type":"enum","name":"E","symbols":["A","B"]}`)
	if !avrokit.Validate(s, "B", nil) {
		t.Fatalf("known symbol rejected")
	}
	if avrokit.Validate(s, "C", nil) || avrokit.Validate(s, 1, nil) {
		t.Fatalf("bad enum value accepted")
	}
}

func TestValidateContainers(t *testing.T) {
	arr := mustParse(t, `{"type":"array","items":"int"}`)
	if !avrokit.Validate(arr, []any{int32(1), int32(2)}, nil) {
		t.Fatalf("good array rejected")
	}
	if avrokit.Validate(arr, []any{int32(1), "x"}, nil) {
		t.Fatalf("bad element accepted")
	}

	m := mustParse(t, `{"type":"map","values":"string"}`)
	if !avrokit.Validate(m, map[string]any{"k": "v"}, nil) {
		t.Fatalf("good map rejected")
	}
	if avrokit.Validate(m, map[string]any{"k": 1}, nil) {
		t.Fatalf("bad map value accepted")
	}
}

func TestValidateUnion(t *testing.T) {
	s := mustParse(t, `["null","string"]`)
	if !avrokit.Validate(s, nil, nil) || !avrokit.Validate(s, "x", nil) {
		t.Fatalf("matching branch rejected")
	}
	if avrokit.Validate(s, 1, nil) {
		t.Fatalf("no-branch value accepted")
	}
}

func TestValidateRecord(t *testing.T) {
	s := mustParse(t, `{"type":"record","name":"R","fields":[
		{"name":"a","type":"int"},
		{"name":"b","type":["null","string"]}]}`)
	if !avrokit.Validate(s, map[string]any{"a": int32(1), "b": "x"}, nil) {
		t.Fatalf("good record rejected")
	}
	// A missing key is validated as null against the field type.
	if !avrokit.Validate(s, map[string]any{"a": int32(1)}, nil) {
		t.Fatalf("missing nullable field rejected")
	}
	if avrokit.Validate(s, map[string]any{"b": nil}, nil) {
		t.Fatalf("missing int field accepted")
	}
	if avrokit.Validate(s, map[string]any{"a": int32(1), "extra": true}, nil) {
		t.Fatalf("extra key accepted")
	}
	if avrokit.Validate(s, []any{}, nil) {
		t.Fatalf("non-mapping accepted")
	}
}

func TestValidateLogicalTypeDelegation(t *testing.T) {
	s := mustParse(t, `{"type":"string","logicalType":"even"}`)
	opt := &avrokit.Options{LogicalTypes: map[string]avrokit.LogicalType{
		"even": logical.Func{ValidateTo: func(v any, _ avrokit.Schema, _ *avrokit.Options) bool {
			str, ok := v.(string)
			return ok && len(str)%2 == 0
		}},
	}}
	if !avrokit.Validate(s, "ab", opt) {
		t.Fatalf("handler-accepted value rejected")
	}
	if avrokit.Validate(s, "abc", opt) {
		t.Fatalf("handler-rejected value accepted")
	}
	// Without the registration, plain string rules apply.
	if !avrokit.Validate(s, "abc", nil) {
		t.Fatalf("unregistered logical type changed structural rules")
	}
}
