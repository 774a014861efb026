package dataset

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/labelloop/labelloop/core"
)

// Options configures adapter construction. Only the tabular variant consumes
// them today; custom variants receive the same options from New.
type Options struct {
	// IDColumn selects the column whose values key the rows (tabular only).
	// Defaults to the table's intrinsic row key.
	IDColumn string
	// Columns selects the subset of columns to display (tabular only).
	// Defaults to all columns.
	Columns []string
}

// Predicate reports whether a variant can adapt the given value.
type Predicate func(v any) bool

// Builder adapts a value into a core.Dataset.
type Builder func(v any, opts Options) (core.Dataset, error)

type variant struct {
	pred  Predicate
	build Builder
}

var (
	registryMu sync.RWMutex
	registry   []variant
)

func init() {
	// Built-in variants in precedence order: a *core.Table is neither a map
	// nor a slice in Go, but custom tabular shapes may be, so the tabular
	// predicate stays first regardless.
	registry = []variant{
		{pred: isTable, build: buildFrame},
		{pred: isKeyed, build: buildKeyed},
		{pred: isSequence, build: buildSequence},
	}
}

// Register adds a variant ahead of all existing ones, so custom shapes win
// over the built-in structural matches.
func Register(pred Predicate, build Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append([]variant{{pred: pred, build: build}}, registry...)
}

// New adapts v by walking the registry in registration order; the first
// structural match wins. Values already implementing core.Dataset pass
// through unchanged.
func New(v any, optFns ...func(o *Options)) (core.Dataset, error) {
	if ds, ok := v.(core.Dataset); ok {
		return ds, nil
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	registryMu.RLock()
	variants := append([]variant{}, registry...)
	registryMu.RUnlock()

	for _, vr := range variants {
		if vr.pred(v) {
			return vr.build(v, opts)
		}
	}
	return nil, fmt.Errorf("no dataset variant matches input of type %T", v)
}

func isTable(v any) bool {
	_, ok := v.(*core.Table)
	return ok
}

func isKeyed(v any) bool {
	return reflect.ValueOf(v).Kind() == reflect.Map
}

func isSequence(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	// Raw bytes are not an item collection.
	return rv.Type().Elem().Kind() != reflect.Uint8
}

func buildFrame(v any, opts Options) (core.Dataset, error) {
	return NewFrame(v.(*core.Table), func(o *Options) { *o = opts })
}

func buildKeyed(v any, _ Options) (core.Dataset, error) {
	return NewKeyed(v)
}

func buildSequence(v any, _ Options) (core.Dataset, error) {
	return NewSequence(v)
}
