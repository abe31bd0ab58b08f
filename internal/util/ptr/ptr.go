// Package ptr provides helpers for creating pointers to values, mainly for
// optional config fields that distinguish "unset" from a zero value.
package ptr

// To returns a pointer to v.
func To[T any](v T) *T { return &v }

// Bool returns a pointer to the given bool value.
func Bool(b bool) *bool { return &b }
