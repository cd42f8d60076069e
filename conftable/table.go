package conftable

import (
	"fmt"
	"maps"
	"slices"
)

// Table is the immutable configuration table of one platform handle.
// It is safe for concurrent use.
type Table struct {
	values Layer
}

// Merge returns a new layer holding every key of base, then every key of
// override, with override winning on collision. Neither input is modified.
func Merge(base, override Layer) Layer {
	out := make(Layer, len(base)+len(override))
	maps.Copy(out, base)
	maps.Copy(out, override)
	return out
}

// Load loads both layers and merges them. If either layer fails to load,
// no table is returned.
func Load(defaults, override Source) (*Table, error) {
	if defaults == nil || override == nil {
		return nil, fmt.Errorf("%w: both layers are required", ErrLayerLoad)
	}
	base, err := defaults.Load()
	if err != nil {
		return nil, err
	}
	over, err := override.Load()
	if err != nil {
		return nil, err
	}
	return New(Merge(base, over)), nil
}

// New returns a Table holding a copy of layer.
func New(layer Layer) *Table {
	return &Table{values: maps.Clone(layer)}
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (any, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Int returns the integer stored under key. TOML integers decode as int64.
func (t *Table) Int(key string) (int64, bool) {
	switch v := t.values[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	default:
		return 0, false
	}
}

// String returns the string stored under key.
func (t *Table) String(key string) (string, bool) {
	v, ok := t.values[key].(string)
	return v, ok
}

// Bool returns the boolean stored under key.
func (t *Table) Bool(key string) (bool, bool) {
	v, ok := t.values[key].(bool)
	return v, ok
}

// Keys returns every key in sorted order.
func (t *Table) Keys() []string {
	return slices.Sorted(maps.Keys(t.values))
}

// Len returns the number of keys.
func (t *Table) Len() int { return len(t.values) }

// Layer returns a copy of the table contents.
func (t *Table) Layer() Layer { return maps.Clone(t.values) }
