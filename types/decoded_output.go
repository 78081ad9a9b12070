// decoded_output.go defines the decoded frame handle produced by a decoder.

package types

// DecodedOutput is an opaque decoded frame.
//
// At any moment it has exactly one owner; the owner must call Release
// exactly once when done with it. Implementations must tolerate repeated
// Release calls.
type DecodedOutput interface {
	// Timestamp returns the presentation timestamp in microseconds.
	Timestamp() int64
	Release()
}
