// errors.go defines the conditions a decode session reports.

package types

import (
	"fmt"
)

// ErrConfigurationRejected means the decoder refused a configuration.
type ErrConfigurationRejected struct {
	Config DecoderConfig
	Err    error
}

func (e ErrConfigurationRejected) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("the decoder does not support configuration %s: %v", e.Config, e.Err)
	}
	return fmt.Sprintf("the decoder does not support configuration %s", e.Config)
}

func (e ErrConfigurationRejected) Unwrap() error {
	return e.Err
}

// ErrSubmissionFailed means a chunk could not even be handed to the decoder.
type ErrSubmissionFailed struct {
	Size      int
	Timestamp int64
	Err       error
}

func (e ErrSubmissionFailed) Error() string {
	return fmt.Sprintf("failed to decode %d byte chunk at time %d: %v", e.Size, e.Timestamp, e.Err)
}

func (e ErrSubmissionFailed) Unwrap() error {
	return e.Err
}

// ErrDecodeTimedOut means no output arrived within the decode deadline.
type ErrDecodeTimedOut struct {
	Size      int
	Timestamp int64
}

func (e ErrDecodeTimedOut) Error() string {
	return fmt.Sprintf("timed out decoding %d byte chunk at time %d", e.Size, e.Timestamp)
}

// ErrNotReady means a chunk arrived before the decoder was configured.
type ErrNotReady struct{}

func (ErrNotReady) Error() string {
	return "waiting for initialization"
}

// ErrKeyframeGap means a delta chunk arrived before any key chunk was accepted.
type ErrKeyframeGap struct {
	Timestamp int64
}

func (e ErrKeyframeGap) Error() string {
	return fmt.Sprintf("waiting for keyframe (dropped a delta chunk at time %d)", e.Timestamp)
}

// ErrResourceClosed means a chunk arrived while the decoder was closed, so
// a new decoder is being created in its place.
type ErrResourceClosed struct {
	Resource string
}

func (e ErrResourceClosed) Error() string {
	return fmt.Sprintf("the decoder %s is closed, creating a new one", e.Resource)
}
