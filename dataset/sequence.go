package dataset

import (
	"fmt"
	"reflect"

	"github.com/labelloop/labelloop/core"
)

// sequenceFieldLabel is the synthetic label wrapping a sequence's elements.
const sequenceFieldLabel = "item"

// Sequence adapts any slice or array. Positions 0..n-1 become item ids;
// Fields returns the element at that position as a single synthetic field.
type Sequence struct {
	items []any
}

// NewSequence creates a sequential dataset over the given slice or array.
func NewSequence(v any) (*Sequence, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a slice or array, got %T", v)
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return &Sequence{items: items}, nil
}

// IDs implements core.Dataset.
func (s *Sequence) IDs() []core.ItemID {
	ids := make([]core.ItemID, len(s.items))
	for i := range s.items {
		ids[i] = core.IndexID(i)
	}
	return ids
}

// Fields implements core.Dataset.
func (s *Sequence) Fields(id core.ItemID) ([]core.Field, error) {
	for i := range s.items {
		if core.IndexID(i) == id {
			return []core.Field{{Label: sequenceFieldLabel, Value: s.items[i]}}, nil
		}
	}
	return nil, &core.UnknownIDError{ID: id}
}

// Len implements core.Dataset.
func (s *Sequence) Len() int { return len(s.items) }
