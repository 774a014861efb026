package dataset

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/labelloop/labelloop/core"
)

// keyedFieldLabel is the synthetic label wrapping a mapping's values.
const keyedFieldLabel = "value"

// Keyed adapts any map. Keys become item ids, stringified and sorted
// lexically so IDs() is stable across calls (Go map iteration order is
// random). Fields returns a single synthetic field wrapping the value.
type Keyed struct {
	ids    []core.ItemID
	values map[core.ItemID]any
}

// NewKeyed creates a keyed dataset over the given map.
func NewKeyed(v any) (*Keyed, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("expected a map, got %T", v)
	}

	k := &Keyed{
		ids:    make([]core.ItemID, 0, rv.Len()),
		values: make(map[core.ItemID]any, rv.Len()),
	}

	iter := rv.MapRange()
	for iter.Next() {
		id := core.ItemID(fmt.Sprintf("%v", iter.Key().Interface()))
		if _, dup := k.values[id]; dup {
			return nil, fmt.Errorf("duplicate item id %q after key stringification", string(id))
		}
		k.ids = append(k.ids, id)
		k.values[id] = iter.Value().Interface()
	}

	sort.Slice(k.ids, func(i, j int) bool { return k.ids[i] < k.ids[j] })
	return k, nil
}

// IDs implements core.Dataset.
func (k *Keyed) IDs() []core.ItemID {
	return append([]core.ItemID{}, k.ids...)
}

// Fields implements core.Dataset.
func (k *Keyed) Fields(id core.ItemID) ([]core.Field, error) {
	value, ok := k.values[id]
	if !ok {
		return nil, &core.UnknownIDError{ID: id}
	}
	return []core.Field{{Label: keyedFieldLabel, Value: value}}, nil
}

// Len implements core.Dataset.
func (k *Keyed) Len() int { return len(k.ids) }
