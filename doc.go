package avrokit

// Package avrokit provides:
//
// - Avro schema parsing from JSON or YAML into an immutable typed tree (Parse/ParseYAML)
// - Structural validation of host values against a schema (Validate)
// - The Avro binary wire codec (DatumWriter/DatumReader, Marshal/Unmarshal, Cursor)
// - Schema resolution: reading data through a reader schema that differs from the writer's
// - A stable error model via Issues (JSON Pointer, code, message, offending schemas)
// - A logical-type extension contract for domain value transformation (Options.LogicalTypes)
//
// Design policy:
// - Keep public APIs in the root package; adapters live in small subpackages (logical/).
// - Schema trees are built once at parse time and never mutated; share them freely.
// - A Cursor is owned by one codec call; its primitives are overflow-silent and
//   callers check Valid after a batch of operations.
//
// Typical usage:
//
//  s := avrokit.MustParse(`{"type":"record","name":"Point","fields":[
//      {"name":"x","type":"int"},{"name":"y","type":"int"}]}`)
//  wire, err := avrokit.Marshal(ctx, s, map[string]any{"x": int32(1), "y": int32(2)}, nil)
//  v, err := avrokit.Unmarshal(ctx, s, nil, wire, nil)
//
