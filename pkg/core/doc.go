// Package core implements the indexed message store and fuzzy retrieval
// engine: the record schema, the SQLite persistence layer with its access
// indices, and the two-phase query algorithm (structural pre-filter followed
// by similarity scoring and ranking).
package core
