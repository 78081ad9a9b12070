// resource.go defines the contract of a decoding resource driven by a session.

// Package resource defines the contract a video decoding backend has to
// satisfy to be driven by a decode session.
package resource

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/decodesession/types"
)

// Callbacks are invoked by the resource out of band, possibly from
// another goroutine, and possibly after the call that caused them returned.
type Callbacks struct {
	// OnOutput transfers the ownership of output to the callee.
	OnOutput func(output types.DecodedOutput)
	OnError  func(err error)
}

// Resource is a stateful asynchronous video decoder.
//
// It does not tolerate overlapping calls of IsConfigSupported, Configure,
// Decode, Reset and Close; Status must be safe to call at any time.
type Resource interface {
	fmt.Stringer

	IsConfigSupported(ctx context.Context, cfg types.DecoderConfig) (bool, error)

	// Configure moves the resource to ResourceStatusConfigured.
	Configure(ctx context.Context, cfg types.DecoderConfig) error

	// Decode submits a chunk; the resulting output (if any) is delivered
	// through Callbacks.OnOutput.
	Decode(ctx context.Context, chunk types.EncodedChunk) error

	// Reset discards all buffered state and moves the resource to
	// ResourceStatusUnconfigured.
	Reset(ctx context.Context) error

	// Close releases everything permanently and moves the resource to
	// ResourceStatusClosed.
	Close(ctx context.Context) error

	Status() types.ResourceStatus
}

type Factory interface {
	fmt.Stringer

	NewResource(ctx context.Context, callbacks Callbacks) (Resource, error)
}
