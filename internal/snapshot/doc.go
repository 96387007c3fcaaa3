// Package snapshot persists a plot as a single YAML document.
//
// Documents are decoded strictly (unknown fields are rejected) and then
// validated against an embedded CUE schema before being restored into a
// plot.Plot. Saves replace the file atomically.
package snapshot
