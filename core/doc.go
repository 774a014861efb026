// Package core provides the foundational domain types, interfaces and state
// containers used by labelloop. It defines the core abstractions for:
//
//   - Tasks (typed annotation questions with validation kinds)
//   - Datasets (read-only item collections behind a small contract)
//   - The Ledger (authoritative store of committed, validated answers)
//   - Sessions (the aggregate of tasks, ledger, data and reviewer metadata)
//   - Tables (flat tabular exports, merges and CSV rendering)
//   - Pluggable snapshot stores for session persistence
//
// The package intentionally keeps implementation concerns (adapters, the run
// loop, concrete annotators, serialization) out of scope, exposing small
// interfaces to enable custom backends and extensions. All exported
// identifiers include concise documentation to aid discoverability and
// external consumption.
package core
