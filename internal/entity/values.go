package entity

import (
	"fmt"
	"sort"
)

// Values holds a set of named scalar columns and remembers which of them were
// explicitly set. A freshly constructed Values has nothing touched; every Set
// marks its column touched, even when the new value equals the old one.
type Values struct {
	vals    map[string]any
	touched map[string]struct{}
}

// NewValues returns an empty Values with no columns set.
func NewValues() *Values {
	return &Values{
		vals:    make(map[string]any),
		touched: make(map[string]struct{}),
	}
}

// FromRow wraps a loaded storage row. None of its columns count as touched.
func FromRow(row map[string]any) *Values {
	vals := make(map[string]any, len(row))
	for k, v := range row {
		vals[k] = v
	}
	return &Values{
		vals:    vals,
		touched: make(map[string]struct{}),
	}
}

// Set stores a value for a column and marks the column touched.
func (v *Values) Set(col string, val any) {
	v.vals[col] = val
	v.touched[col] = struct{}{}
}

// IsSet reports whether the column was explicitly set on this Values.
func (v *Values) IsSet(col string) bool {
	_, ok := v.touched[col]
	return ok
}

// Touched returns a copy of all touched columns and their values.
func (v *Values) Touched() map[string]any {
	out := make(map[string]any, len(v.touched))
	for col := range v.touched {
		out[col] = v.vals[col]
	}
	return out
}

// TouchedColumns returns the touched column names in sorted order.
func (v *Values) TouchedColumns() []string {
	cols := make([]string, 0, len(v.touched))
	for col := range v.touched {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Raw returns the stored value for a column and whether the column is present
// with a non-nil value.
func (v *Values) Raw(col string) (any, bool) {
	val, ok := v.vals[col]
	if !ok || val == nil {
		return nil, false
	}
	return val, true
}

// String returns the column as a string. ok is false when the column is
// absent or nil. A non-string value is a coercion error.
func (v *Values) String(col string) (s string, ok bool, err error) {
	val, present := v.Raw(col)
	if !present {
		return "", false, nil
	}
	switch t := val.(type) {
	case string:
		return t, true, nil
	case []byte:
		return string(t), true, nil
	default:
		return "", false, fmt.Errorf("column %s: cannot read %T as string", col, val)
	}
}

// Int64 returns the column as an int64. ok is false when the column is absent
// or nil. A non-integer value is a coercion error.
func (v *Values) Int64(col string) (n int64, ok bool, err error) {
	val, present := v.Raw(col)
	if !present {
		return 0, false, nil
	}
	switch t := val.(type) {
	case int64:
		return t, true, nil
	case int:
		return int64(t), true, nil
	case int32:
		return int64(t), true, nil
	case Status:
		return int64(t), true, nil
	case bool:
		if t {
			return 1, true, nil
		}
		return 0, true, nil
	default:
		return 0, false, fmt.Errorf("column %s: cannot read %T as int64", col, val)
	}
}

// Bool returns the column as a bool, accepting the integer encodings SQLite
// stores. ok is false when the column is absent or nil.
func (v *Values) Bool(col string) (b bool, ok bool, err error) {
	val, present := v.Raw(col)
	if !present {
		return false, false, nil
	}
	switch t := val.(type) {
	case bool:
		return t, true, nil
	case int64:
		return t != 0, true, nil
	case int:
		return t != 0, true, nil
	default:
		return false, false, fmt.Errorf("column %s: cannot read %T as bool", col, val)
	}
}
