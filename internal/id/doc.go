// Package id defines node identity for the plotline graph.
//
// Every value stored in a graph reports a stable identifier through the
// Identifiable interface. Identifiers must be comparable and orderable so
// that graphs can be walked deterministically.
//
// The concrete identifier used by the application is ID, a UUIDv7 rendered
// as a hyphenated string. UUIDv7 embeds a millisecond timestamp in its most
// significant bits, so IDs generated later sort after IDs generated earlier.
package id
