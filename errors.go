package avrokit

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// CodeParseError covers malformed JSON text and structurally invalid
	// schema declarations (missing required properties, bad field order,
	// duplicate symbols, unknown type names).
	CodeParseError = "parse_error"
	// CodeNameError covers name registration conflicts and references to
	// names that were never defined.
	CodeNameError = "name_error"
	// CodeTypeError signals that a host value does not conform to the
	// writer schema (validation failed, union has no matching branch).
	CodeTypeError = "type_error"
	// CodeSchemaResolution signals writer/reader schema mismatch during a
	// resolved read.
	CodeSchemaResolution = "schema_resolution"
	// CodeEncodingError signals an unrecoverable cursor condition, such as
	// a truncated or corrupted buffer detected mid-decode.
	CodeEncodingError = "encoding_error"
)

// Issue represents a single failure entry.
type Issue struct {
	Path    string // JSON Pointer into the datum (for example: /children/2).
	Code    string // One of the codes listed above.
	Message string
	Cause   error  // Optional: underlying error.
	Writer  string // Optional: the writer schema rendered as JSON.
	Reader  string // Optional: the reader schema rendered as JSON.
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. schema_resolution at /f: message
		fmt.Fprintf(b, "%s at %s", it.Code, orRoot(it.Path))
		if it.Message != "" {
			fmt.Fprintf(b, ": %s", it.Message)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ---- internal constructors ----

func issuef(code, path, format string, args ...any) Issues {
	return Issues{Issue{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}}
}

func parseErrf(format string, args ...any) Issues {
	return issuef(CodeParseError, "", format, args...)
}

func nameErrf(format string, args ...any) Issues {
	return issuef(CodeNameError, "", format, args...)
}

func typeIssue(path string, s Schema, v any) Issues {
	return Issues{Issue{
		Code:    CodeTypeError,
		Path:    path,
		Message: fmt.Sprintf("value %v does not conform to schema", v),
		Writer:  s.JSON(),
	}}
}

func resolutionIssue(path string, w, r Schema, format string, args ...any) Issues {
	it := Issue{Code: CodeSchemaResolution, Path: path, Message: fmt.Sprintf(format, args...)}
	if w != nil {
		it.Writer = w.JSON()
	}
	if r != nil {
		it.Reader = r.JSON()
	}
	return Issues{it}
}

func encodingIssue(path, msg string) Issues {
	return issuef(CodeEncodingError, path, "%s", msg)
}

func hookIssue(path string, s Schema, cause error) Issues {
	it := Issue{Code: CodeTypeError, Path: path, Message: "logical type hook failed", Cause: cause}
	if s != nil {
		it.Writer = s.JSON()
	}
	return Issues{it}
}
