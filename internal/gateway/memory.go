package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
)

// Memory is an in-process Gateway. Every table gets an auto-incrementing integer "id" and a
// "created_at" timestamp when the inserted row does not carry them. Unique constraints are
// opt-in through WithUnique, mirroring the unique indexes of the SQL schema.
type Memory struct {
	mu     sync.Mutex
	tables map[string]*memTable
	unique map[string][][]string
}

type memTable struct {
	nextID int64
	rows   []Row
}

func NewMemory() *Memory {
	return &Memory{
		tables: make(map[string]*memTable),
		unique: make(map[string][][]string),
	}
}

// WithUnique declares a unique constraint over columns of table.
func (m *Memory) WithUnique(table string, columns ...string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unique[table] = append(m.unique[table], columns)
	return m
}

func (m *Memory) table(name string) *memTable {
	t, ok := m.tables[name]
	if !ok {
		t = &memTable{nextID: 1}
		m.tables[name] = t
	}
	return t
}

func (m *Memory) Select(_ context.Context, q Query) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(q.Table)
	var matched []Row
	for _, r := range t.rows {
		if matchAll(r, q.Filters) {
			matched = append(matched, r)
		}
	}
	if len(q.Order) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, o := range q.Order {
				c := compareValues(matched[i][o.Column], matched[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]Row, 0, len(matched))
	for _, r := range matched {
		out = append(out, project(r, q.Columns))
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, table string, rows ...Row) ([]Row, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	nextID := t.nextID
	staged := make([]Row, 0, len(rows))
	for _, r := range rows {
		nr := normalizeRow(r)
		if _, ok := nr["id"]; !ok {
			nr["id"] = nextID
			nextID++
		}
		if _, ok := nr["created_at"]; !ok {
			nr["created_at"] = time.Now().UTC()
		}
		if err := m.checkUnique(table, append(append([]Row{}, t.rows...), staged...), nr); err != nil {
			return nil, fmt.Errorf("insert %s: %w", table, err)
		}
		staged = append(staged, nr)
	}

	t.nextID = nextID
	t.rows = append(t.rows, staged...)
	out := make([]Row, len(staged))
	for i, r := range staged {
		out[i] = r.Clone()
	}
	return out, nil
}

func (m *Memory) Update(_ context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	if len(patch) == 0 {
		return nil, ErrEmptyPatch
	}
	if len(filters) == 0 {
		return nil, ErrUnfiltered
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	np := normalizeRow(patch)
	updated := make(map[int]Row)
	for i, r := range t.rows {
		if !matchAll(r, filters) {
			continue
		}
		nr := r.Clone()
		for k, v := range np {
			nr[k] = v
		}
		updated[i] = nr
	}
	for i, nr := range updated {
		others := make([]Row, 0, len(t.rows))
		for j, r := range t.rows {
			if j == i {
				continue
			}
			if u, ok := updated[j]; ok {
				r = u
			}
			others = append(others, r)
		}
		if err := m.checkUnique(table, others, nr); err != nil {
			return nil, fmt.Errorf("update %s: %w", table, err)
		}
	}

	var out []Row
	for i := range t.rows {
		if nr, ok := updated[i]; ok {
			t.rows[i] = nr
			out = append(out, nr.Clone())
		}
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, table string, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrUnfiltered
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(table, filters), nil
}

func (m *Memory) DeleteAll(_ context.Context, steps ...DeleteStep) ([]int64, error) {
	for _, st := range steps {
		if len(st.Filters) == 0 {
			return nil, fmt.Errorf("delete %s: %w", st.Table, ErrUnfiltered)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]int64, len(steps))
	for i, st := range steps {
		out[i] = m.deleteLocked(st.Table, st.Filters)
	}
	return out, nil
}

func (m *Memory) deleteLocked(table string, filters []Filter) int64 {
	t := m.table(table)
	kept := t.rows[:0]
	var n int64
	for _, r := range t.rows {
		if matchAll(r, filters) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept
	return n
}

func (m *Memory) Count(_ context.Context, table string, filters ...Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, r := range m.table(table).rows {
		if matchAll(r, filters) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) checkUnique(table string, existing []Row, candidate Row) error {
	for _, cols := range m.unique[table] {
		for _, r := range existing {
			if sameKey(r, candidate, cols) {
				return &ConstraintError{
					Kind:       ErrUniqueViolation,
					Table:      table,
					Constraint: table + "_" + strings.Join(cols, "_") + "_key",
				}
			}
		}
	}
	return nil
}

func sameKey(a, b Row, cols []string) bool {
	for _, c := range cols {
		av, bv := a[c], b[c]
		// NULLs never collide, as in SQL unique indexes.
		if av == nil || bv == nil {
			return false
		}
		if compareValues(av, bv) != 0 {
			return false
		}
	}
	return true
}

func matchAll(r Row, filters []Filter) bool {
	for _, f := range filters {
		if !match(r, f) {
			return false
		}
	}
	return true
}

func match(r Row, f Filter) bool {
	v := r[f.Column]
	switch f.Op {
	case OpIsNull:
		return v == nil
	case OpNotNull:
		return v != nil
	case OpIn:
		values, _ := f.Value.([]interface{})
		for _, want := range values {
			if v != nil && compareValues(v, normalizeValue(want)) == 0 {
				return true
			}
		}
		return false
	}

	want := normalizeValue(f.Value)
	if v == nil || want == nil {
		return false
	}
	c := compareValues(v, want)
	switch f.Op {
	case OpEq:
		return c == 0
	case OpNeq:
		return c != 0
	case OpLt:
		return c < 0
	case OpGt:
		return c > 0
	}
	return false
}

// compareValues orders nil first, then numbers, times and strings by their natural order.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if isNumber(a) && isNumber(b) {
		fa, fb := cast.ToFloat64(a), cast.ToFloat64(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func normalizeRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = normalizeValue(v)
	}
	return out
}

// normalizeValue dereferences the pointer types repositories use for nullable columns and
// widens integers, which is what database/sql does on the way to the driver.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *int64:
		if t == nil {
			return nil
		}
		return *t
	case *int:
		if t == nil {
			return nil
		}
		return int64(*t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	}
	return v
}

func project(r Row, cols []string) Row {
	if len(cols) == 0 {
		return r.Clone()
	}
	out := make(Row, len(cols))
	for _, c := range cols {
		out[c] = r[c]
	}
	return out
}
