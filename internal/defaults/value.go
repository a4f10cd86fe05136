package defaults

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownKind is returned when a kind name cannot be parsed.
var ErrUnknownKind = errors.New("unknown value kind")

// Kind identifies which of the four value kinds a stored value has.
type Kind int

const (
	KindLong Kind = iota + 1
	KindDouble
	KindString
	KindStringArray
)

var kindNames = map[Kind]string{
	KindLong:        "long",
	KindDouble:      "double",
	KindString:      "string",
	KindStringArray: "string-array",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the canonical kind names plus a few aliases
// (int, i64, float, f64, array).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "int", "integer", "i64":
		return KindLong, nil
	case "double", "float", "f64":
		return KindDouble, nil
	case "string", "str":
		return KindString, nil
	case "string-array", "string_array", "array", "strings":
		return KindStringArray, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(name), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value is a typed preference value. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind    Kind
	Long    int64
	Double  float64
	String  string
	Strings []string
}

func Long(v int64) Value     { return Value{Kind: KindLong, Long: v} }
func Double(v float64) Value { return Value{Kind: KindDouble, Double: v} }
func String(v string) Value  { return Value{Kind: KindString, String: v} }

// StringArray copies vs, so the caller keeps ownership of its slice.
// A nil or empty input yields an empty, non-nil array.
func StringArray(vs []string) Value {
	out := make([]string, len(vs))
	copy(out, vs)
	return Value{Kind: KindStringArray, Strings: out}
}

// Clone returns a value that shares no memory with v.
func (v Value) Clone() Value {
	if v.Kind == KindStringArray {
		return StringArray(v.Strings)
	}
	return v
}

// Equal reports whether two values have the same kind and content.
// NaN doubles compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindLong:
		return v.Long == o.Long
	case KindDouble:
		if math.IsNaN(v.Double) && math.IsNaN(o.Double) {
			return true
		}
		return v.Double == o.Double
	case KindString:
		return v.String == o.String
	case KindStringArray:
		if len(v.Strings) != len(o.Strings) {
			return false
		}
		for i := range v.Strings {
			if v.Strings[i] != o.Strings[i] {
				return false
			}
		}
		return true
	}
	return true
}

// Format renders the value for humans: arrays are joined with newlines.
func (v Value) Format() string {
	switch v.Kind {
	case KindLong:
		return strconv.FormatInt(v.Long, 10)
	case KindDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case KindString:
		return v.String
	case KindStringArray:
		return strings.Join(v.Strings, "\n")
	}
	return ""
}

// ParseValue builds a value of the given kind from command-line style
// arguments. Scalar kinds take exactly one argument; the array kind takes
// any number, each becoming one element.
func ParseValue(kind Kind, args ...string) (Value, error) {
	if kind == KindStringArray {
		return StringArray(args), nil
	}
	if len(args) != 1 {
		return Value{}, fmt.Errorf("%s value takes exactly one argument, got %d", kind, len(args))
	}
	raw := args[0]
	switch kind {
	case KindLong:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid long value %q: %w", raw, err)
		}
		return Long(i), nil
	case KindDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid double value %q: %w", raw, err)
		}
		return Double(f), nil
	case KindString:
		return String(raw), nil
	}
	return Value{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
}

type envelope struct {
	Kind  Kind            `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"kind": ..., "value": ...}. Doubles
// that JSON cannot represent are written as "NaN", "+Inf" or "-Inf".
func (v Value) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch v.Kind {
	case KindLong:
		raw, err = json.Marshal(v.Long)
	case KindDouble:
		switch {
		case math.IsNaN(v.Double):
			raw, err = json.Marshal("NaN")
		case math.IsInf(v.Double, 1):
			raw, err = json.Marshal("+Inf")
		case math.IsInf(v.Double, -1):
			raw, err = json.Marshal("-Inf")
		default:
			raw, err = json.Marshal(v.Double)
		}
	case KindString:
		raw, err = json.Marshal(v.String)
	case KindStringArray:
		strs := v.Strings
		if strs == nil {
			strs = []string{}
		}
		raw, err = json.Marshal(strs)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(v.Kind))
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: v.Kind, Value: raw})
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	if len(env.Value) == 0 {
		return fmt.Errorf("missing value for kind %s", env.Kind)
	}
	out := Value{Kind: env.Kind}
	switch env.Kind {
	case KindLong:
		if err := json.Unmarshal(env.Value, &out.Long); err != nil {
			return fmt.Errorf("decoding long value: %w", err)
		}
	case KindDouble:
		var s string
		if err := json.Unmarshal(env.Value, &s); err == nil {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("decoding double value %q: %w", s, err)
			}
			out.Double = f
		} else if err := json.Unmarshal(env.Value, &out.Double); err != nil {
			return fmt.Errorf("decoding double value: %w", err)
		}
	case KindString:
		if err := json.Unmarshal(env.Value, &out.String); err != nil {
			return fmt.Errorf("decoding string value: %w", err)
		}
	case KindStringArray:
		if err := json.Unmarshal(env.Value, &out.Strings); err != nil {
			return fmt.Errorf("decoding string array value: %w", err)
		}
		if out.Strings == nil {
			out.Strings = []string{}
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(env.Kind))
	}
	*v = out
	return nil
}
