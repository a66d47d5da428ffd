package gateway

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Accessors coerce driver values (int64, string, []byte, time.Time) into the Go types the
// repositories expect. A missing or NULL column yields the zero value or a nil pointer.

func (r Row) Int64(col string) int64 {
	return cast.ToInt64(r[col])
}

func (r Row) Int(col string) int {
	return cast.ToInt(r[col])
}

func (r Row) Int64Ptr(col string) *int64 {
	v, ok := r[col]
	if !ok || v == nil {
		return nil
	}
	n := cast.ToInt64(v)
	return &n
}

func (r Row) String(col string) string {
	return cast.ToString(r[col])
}

func (r Row) StringPtr(col string) *string {
	v, ok := r[col]
	if !ok || v == nil {
		return nil
	}
	s := cast.ToString(v)
	return &s
}

func (r Row) Time(col string) time.Time {
	return cast.ToTime(r[col])
}

// DatePtr renders DATE columns as YYYY-MM-DD. Strings pass through unchanged.
func (r Row) DatePtr(col string) *string {
	v, ok := r[col]
	if !ok || v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		s := t.Format("2006-01-02")
		return &s
	}
	s := cast.ToString(v)
	return &s
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// OptionalString trims s and maps blank input to NULL.
func OptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
