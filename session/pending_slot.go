package session

import (
	"context"

	"github.com/xaionaro-go/decodesession/types"
	"github.com/xaionaro-go/xsync"
)

// pendingSlot holds at most one decoded output that nobody has claimed yet.
//
// Storing a new output releases the previous one; the output is
// released exactly once no matter how Put, Take and Discard interleave.
type pendingSlot struct {
	locker xsync.Mutex
	output types.DecodedOutput
	waiter chan struct{}
}

// Arm returns a channel closed by the next Put.
func (s *pendingSlot) Arm(ctx context.Context) <-chan struct{} {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.locker, func() <-chan struct{} {
		s.waiter = make(chan struct{})
		return s.waiter
	})
}

// Disarm forgets the channel returned by Arm (if Put has not fired it yet).
func (s *pendingSlot) Disarm(ctx context.Context) {
	s.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		s.waiter = nil
	})
}

// Put stores output and reports whether an older unclaimed output was released.
func (s *pendingSlot) Put(ctx context.Context, output types.DecodedOutput) bool {
	var prev types.DecodedOutput
	var waiter chan struct{}
	s.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		prev, s.output = s.output, output
		waiter, s.waiter = s.waiter, nil
	})
	if prev != nil {
		prev.Release()
	}
	if waiter != nil {
		close(waiter)
	}
	return prev != nil
}

// Take hands the stored output (nil if none) over to the caller.
func (s *pendingSlot) Take(ctx context.Context) types.DecodedOutput {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &s.locker, func() types.DecodedOutput {
		output := s.output
		s.output = nil
		return output
	})
}

// Discard releases the stored output and reports whether there was one.
func (s *pendingSlot) Discard(ctx context.Context) bool {
	output := s.Take(ctx)
	if output == nil {
		return false
	}
	output.Release()
	return true
}
