// Package dereferrors provides structured error types for $ref dereferencing.
//
// Import path: github.com/jamesseanwright/json-schema-deref-sync/dereferrors
//
// The types support [errors.Is] and [errors.As], so callers can tell a
// circular reference apart from a missing one, or a fatal loader failure
// apart from bad input.
//
// # Error Types
//
//   - [ReferenceError]: circular or missing references
//   - [InputError]: the input document is not representable as JSON
//   - [LoaderError]: an external loader failed
//   - [ResourceLimitError]: depth or document count limits exceeded
//   - [ConfigError]: invalid options
//
// # Sentinel Errors
//
//   - [ErrReference]: matches any [ReferenceError]
//   - [ErrCircularReference]: matches [ReferenceError] with IsCircular=true
//   - [ErrMissingReference]: matches [ReferenceError] with IsMissing=true
//   - [ErrInput]: matches any [InputError]
//   - [ErrLoader]: matches any [LoaderError]
//   - [ErrPathTraversal]: matches [LoaderError] with IsPathTraversal=true
//   - [ErrResourceLimit]: matches any [ResourceLimitError]
//   - [ErrConfig]: matches any [ConfigError]
//
// # Usage
//
//	result, err := deref.DerefWithOptions(doc, deref.WithFailOnMissing(true))
//	if errors.Is(err, dereferrors.ErrCircularReference) {
//	    var refErr *dereferrors.ReferenceError
//	    errors.As(err, &refErr)
//	    fmt.Println(strings.Join(refErr.Chain, " -> "))
//	}
package dereferrors
