package core

import "strconv"

// ItemID identifies one item of a dataset. Identifiers are unique within a
// dataset instance, stable across calls and define ledger row keys.
type ItemID string

// IndexID renders a positional index as an ItemID. Sequential datasets use
// this for their intrinsic ids.
func IndexID(i int) ItemID { return ItemID(strconv.Itoa(i)) }

// Field is one displayable (label, value) pair of an item.
type Field struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Dataset presents a uniform addressable view over an arbitrary input
// collection. Implementations live in the dataset package; new shapes plug
// into its registry without modifying existing variants.
//
// Contract:
//   - IDs returns the same ordered identifiers on every call
//   - Fields fails with *UnknownIDError for absent ids
//   - Len equals len(IDs())
type Dataset interface {
	IDs() []ItemID
	Fields(id ItemID) ([]Field, error)
	Len() int
}
