package libav

import (
	"context"

	"github.com/xaionaro-go/decodesession/internal"
	"github.com/xaionaro-go/decodesession/logger"
	"github.com/xaionaro-go/xsync"
)

// delivery is a single item queued for the callbacks.
type delivery struct {
	Epoch uint64
	Frame *Frame
	Err   error
}

// enqueue must be called with r.locker held.
func (r *Resource) enqueue(ctx context.Context, d delivery) {
	r.queueLocker.Do(xsync.WithNoLogging(ctx, true), func() {
		r.queue = append(r.queue, d)
	})
	select {
	case r.queueWakeup <- struct{}{}:
	default:
	}
}

// dropQueued releases everything not delivered yet.
func (r *Resource) dropQueued(ctx context.Context) int {
	var dropped []delivery
	r.queueLocker.Do(xsync.WithNoLogging(ctx, true), func() {
		dropped, r.queue = r.queue, nil
	})
	for _, d := range dropped {
		if d.Frame != nil {
			d.Frame.Release()
		}
	}
	return len(dropped)
}

// deliveryLoop invokes the callbacks outside of the calls that produced
// the outputs. It quits on a fatal error or when the resource is closed.
func (r *Resource) deliveryLoop(ctx context.Context) {
	logger.Debugf(ctx, "deliveryLoop")
	defer func() { logger.Debugf(ctx, "/deliveryLoop") }()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.queueWakeup:
		}

		var batch []delivery
		r.queueLocker.Do(xsync.WithNoLogging(ctx, true), func() {
			batch, r.queue = r.queue, nil
		})
		for idx, d := range batch {
			if !r.deliver(ctx, d) {
				for _, rest := range batch[idx+1:] {
					if rest.Frame != nil {
						rest.Frame.Release()
					}
				}
				return
			}
		}
	}
}

// deliver returns false if the loop should stop.
func (r *Resource) deliver(ctx context.Context, d delivery) bool {
	r.deliveryLocker.Lock()
	defer r.deliveryLocker.Unlock()

	if d.Epoch != r.epoch.Load() {
		logger.Tracef(ctx, "dropping an output of epoch %d", d.Epoch)
		if d.Frame != nil {
			d.Frame.Release()
		}
		return true
	}

	if d.Err != nil {
		if r.callbacks.OnError != nil {
			r.callbacks.OnError(d.Err)
		}
		return false
	}

	internal.Assert(ctx, d.Frame != nil, "nothing to deliver")
	if r.callbacks.OnOutput == nil {
		d.Frame.Release()
		return true
	}
	r.callbacks.OnOutput(d.Frame)
	return true
}
