package deref

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
)

// fingerprintNamespace scopes document fingerprints.
var fingerprintNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://json-schema.org/deref/document"))

// fingerprint derives a stable identity from a document's content.
// Map keys are encoded in sorted order, so equal documents share an identity.
func fingerprint(doc any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", &dereferrors.InputError{Message: "cannot derive document identity", Cause: err}
	}
	return uuid.NewSHA1(fingerprintNamespace, data).String(), nil
}

// normalize returns a private copy of v in the JSON data model.
// Values outside it are round-tripped through JSON; values that cannot be
// encoded yield an InputError.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return t, nil

	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, &dereferrors.InputError{Message: fmt.Sprintf("unsupported number %v", t)}
		}
		return t, nil

	case float32:
		return normalize(float64(t))

	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil

	case map[any]any:
		// YAML mappings with non-string keys
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil

	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil

	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, &dereferrors.InputError{Message: fmt.Sprintf("value of type %T is not representable as JSON", v), Cause: err}
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, &dereferrors.InputError{Message: fmt.Sprintf("value of type %T is not representable as JSON", v), Cause: err}
		}
		return out, nil
	}
}

// deepCopy copies a normalized document. Scalars are immutable and shared.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

// removeIDs deletes string-valued $id keys in place.
func removeIDs(v any) {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t["$id"].(string); ok {
			delete(t, "$id")
		}
		for _, val := range t {
			removeIDs(val)
		}
	case []any:
		for _, val := range t {
			removeIDs(val)
		}
	}
}
