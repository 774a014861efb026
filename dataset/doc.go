// Package dataset adapts arbitrary input collections to the core.Dataset
// contract. Three variants ship built in, selected by structural shape
// against an open registry:
//
//   - Frame wraps a *core.Table with optional id-column and display-column
//     selection
//   - Keyed wraps any map; keys become item ids (sorted for stability)
//   - Sequence wraps any slice; positions become item ids
//
// New input shapes plug in via Register without modifying existing variants.
// Registration order is significant: a tabular value is also sequence- and
// mapping-shaped, so the tabular predicate is checked first.
package dataset
