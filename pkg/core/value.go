package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind identifies the type carried by a Value.
type ValueKind int

// Value kinds. KindNull is the zero kind so that the zero Value is the
// missing marker.
const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
)

// String returns a human-readable kind name.
func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a nullable scalar cell. The zero Value is null.
//
// Null is an explicit state distinct from zero or the empty string: cleaning
// substitutes it for unparseable input, and aggregation excludes it rather
// than treating it as zero.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
}

// Null returns the missing-value marker.
func Null() Value {
	return Value{kind: KindNull}
}

// BoolValue returns a bool Value.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// IntValue returns an int Value.
func IntValue(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// FloatValue returns a float Value.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

// TimeValue returns a time Value, normalized to UTC.
func TimeValue(t time.Time) Value {
	return Value{kind: KindTime, t: t.UTC()}
}

// Kind returns the value's kind.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull reports whether the value is the missing marker.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Bool returns the bool content. ok is false for any other kind.
func (v Value) Bool() (b, ok bool) {
	return v.b, v.kind == KindBool
}

// Int returns the int content. ok is false for any other kind.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Float returns the float content. ok is false for any other kind.
func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// Str returns the string content. ok is false for any other kind.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

// Time returns the time content. ok is false for any other kind.
func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// AsFloat converts numeric kinds (int, float) to float64.
// ok is false for null and non-numeric kinds.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// String renders the value for display and logging. Null renders as "NULL".
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("value(kind=%d)", int(v.kind))
	}
}

// Equal reports strict equality: same kind, same content. Int and float are
// compared numerically so that aggregation results round-trip.
func (v Value) Equal(other Value) bool {
	if v.kind == KindNull || other.kind == KindNull {
		return v.kind == other.kind
	}
	if vf, ok := v.AsFloat(); ok {
		if of, ok2 := other.AsFloat(); ok2 {
			return vf == of
		}
		return false
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindTime:
		return v.t.Equal(other.t)
	default:
		return false
	}
}

// Compare orders two values for sorting: negative when v sorts before
// other, zero when equal, positive otherwise. Nulls sort last; numeric
// kinds compare numerically; otherwise values order by kind then content.
func (v Value) Compare(other Value) int {
	// Nulls sort last so ascending output keeps real keys first.
	switch {
	case v.kind == KindNull && other.kind == KindNull:
		return 0
	case v.kind == KindNull:
		return 1
	case other.kind == KindNull:
		return -1
	}
	if vf, ok := v.AsFloat(); ok {
		if of, ok2 := other.AsFloat(); ok2 {
			switch {
			case vf < of:
				return -1
			case vf > of:
				return 1
			default:
				return 0
			}
		}
	}
	if v.kind != other.kind {
		return int(v.kind) - int(other.kind)
	}
	switch v.kind {
	case KindBool:
		if v.b == other.b {
			return 0
		}
		if !v.b {
			return -1
		}
		return 1
	case KindString:
		return strings.Compare(v.s, other.s)
	case KindTime:
		return v.t.Compare(other.t)
	default:
		return 0
	}
}

// FromDriver converts a database/sql scan result into a Value.
// nil maps to null; []byte is treated as a string.
func FromDriver(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return BoolValue(x)
	case int64:
		return IntValue(x)
	case int:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case float64:
		return FloatValue(x)
	case float32:
		return FloatValue(float64(x))
	case string:
		return StringValue(x)
	case []byte:
		return StringValue(string(x))
	case time.Time:
		return TimeValue(x)
	default:
		return StringValue(fmt.Sprintf("%v", x))
	}
}

// DriverArg converts a Value into an argument for database/sql.
// Null maps to nil so the driver writes SQL NULL.
func (v Value) DriverArg() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindTime:
		return v.t
	default:
		return nil
	}
}
