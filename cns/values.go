package cns

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// Values is a value tree supplied to [Writer.Render].
//
// Parameters are keyed by name with every enclosing placeholder replaced by
// its index. A non-repeatable section may group its contents in a nested
// object keyed by the section name; lookups that miss in a nested object
// fall back to the enclosing one, so flat trees work too. A repeatable
// component is keyed by its name with its own placeholder left in place,
// and holds a list (indices 1..n) or an object keyed by decimal indices.
type Values map[string]any

// ValuesFormat is the encoding of a value tree.
type ValuesFormat string

// Value tree formats.
const (
	FormatAuto ValuesFormat = "auto"
	FormatJSON ValuesFormat = "json"
	FormatYAML ValuesFormat = "yaml"
	FormatTOML ValuesFormat = "toml"
)

// ValuesFormats returns all supported format names.
func ValuesFormats() []string {
	return []string{string(FormatAuto), string(FormatJSON), string(FormatYAML), string(FormatTOML)}
}

// ParseValuesFormat converts a string to a [ValuesFormat].
func ParseValuesFormat(s string) (ValuesFormat, error) {
	f := ValuesFormat(strings.ToLower(s))
	if f == "" {
		return FormatAuto, nil
	}

	if !slices.Contains(ValuesFormats(), string(f)) {
		return "", fmt.Errorf("%w: unknown values format %q", ErrInvalidOption, s)
	}

	return f, nil
}

// FormatFromPath picks a format from a file extension. Unknown extensions
// yield [FormatAuto].
func FormatFromPath(path string) ValuesFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	}

	return FormatAuto
}

// DecodeValues decodes a value tree. JSON is decoded with the YAML decoder,
// of which it is a subset. [FormatAuto] tries YAML first and falls back to
// TOML when the input is not a YAML mapping.
func DecodeValues(data []byte, format ValuesFormat) (Values, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Values{}, nil
	}

	var (
		vals Values
		err  error
	)

	switch format {
	case FormatJSON, FormatYAML:
		vals, err = decodeYAML(data)

	case FormatTOML:
		vals, err = decodeTOML(data)

	case FormatAuto, "":
		vals, err = decodeYAML(data)
		if err != nil {
			var tomlErr error

			vals, tomlErr = decodeTOML(data)
			if tomlErr == nil {
				err = nil
			}
		}

	default:
		return nil, fmt.Errorf("%w: unknown values format %q", ErrInvalidOption, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValues, err)
	}

	return vals, nil
}

func decodeYAML(data []byte) (Values, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, err
	}

	switch obj := normalize(doc).(type) {
	case map[string]any:
		return Values(obj), nil
	case nil:
		return Values{}, nil
	default:
		return nil, fmt.Errorf("top level must be a mapping, got %T", obj)
	}
}

func decodeTOML(data []byte) (Values, error) {
	var doc map[string]any

	err := toml.Unmarshal(data, &doc)
	if err != nil {
		return nil, err
	}

	return Values(normalize(doc).(map[string]any)), nil
}

// normalize converts decoded maps to map[string]any and lists to []any.
func normalize(v any) any {
	switch v := v.(type) {
	case Values:
		return normalize(map[string]any(v))

	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalize(e)
		}

		return out

	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = normalize(e)
		}

		return out

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}

		return out

	case []map[string]any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}

		return out
	}

	return v
}

// asObject returns v as an object, accepting the map types a caller may
// build by hand.
func asObject(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case map[string]any:
		return v, true
	case Values:
		return v, true
	}

	return nil, false
}

// scalarString formats a scalar value for insertion into CNS text.
func scalarString(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case time.Time:
		return v.Format(time.RFC3339), true
	case map[string]any, Values, []any:
		return "", false
	case fmt.Stringer:
		return v.String(), true
	}

	return fmt.Sprint(v), true
}

// binding maps a placeholder token to a concrete index.
type binding struct {
	token string
	index int
}

// bindIndex returns a copy of bound with token bound to index.
func bindIndex(bound []binding, token string, index int) []binding {
	out := make([]binding, 0, len(bound)+1)
	out = append(out, bound...)
	out = append(out, binding{token: token, index: index})

	return out
}

// substitute replaces every bound token in s with its index. Longer tokens
// win where tokens overlap.
func substitute(s string, bound []binding) string {
	if len(bound) == 0 {
		return s
	}

	sorted := slices.Clone(bound)
	slices.SortStableFunc(sorted, func(a, b binding) int {
		return len(b.token) - len(a.token)
	})

	pairs := make([]string, 0, 2*len(sorted))
	for _, b := range sorted {
		pairs = append(pairs, b.token, strconv.Itoa(b.index))
	}

	return strings.NewReplacer(pairs...).Replace(s)
}
