// ptr.go provides a helper for optional (pointer) fields.

package types

// Ptr returns a pointer to a copy of v; handy for the optional fields of DecoderConfig.
func Ptr[T any](v T) *T {
	return &v
}
