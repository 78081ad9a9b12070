// channel.go implements the subscriber registry and synchronous delivery.

package event

import (
	"context"
	"runtime/debug"
	"slices"

	"github.com/facebookincubator/go-belt/pkg/field"
	"github.com/xaionaro-go/decodesession/logger"
	"github.com/xaionaro-go/xsync"
)

type Handler func(ctx context.Context, ev Event)

type subscription struct {
	id      uint64
	kinds   []Kind
	handler Handler
}

func (s *subscription) accepts(kind Kind) bool {
	return len(s.kinds) == 0 || slices.Contains(s.kinds, kind)
}

// Channel delivers every published event to the subscribers registered at
// the moment of publishing, in subscription order, on the publisher's
// goroutine. Nothing is buffered or replayed.
type Channel struct {
	locker        xsync.Mutex
	nextID        uint64
	subscriptions []*subscription
}

func NewChannel() *Channel {
	return &Channel{}
}

// Subscribe registers handler for the given kinds (all kinds if none are given).
// The returned function unsubscribes; it is safe to call more than once.
func (c *Channel) Subscribe(
	ctx context.Context,
	handler Handler,
	kinds ...Kind,
) (unsubscribe func()) {
	id := xsync.DoR1(xsync.WithNoLogging(ctx, true), &c.locker, func() uint64 {
		c.nextID++
		c.subscriptions = append(c.subscriptions, &subscription{
			id:      c.nextID,
			kinds:   slices.Clone(kinds),
			handler: handler,
		})
		return c.nextID
	})
	return func() {
		c.locker.Do(xsync.WithNoLogging(ctx, true), func() {
			c.subscriptions = slices.DeleteFunc(c.subscriptions, func(s *subscription) bool {
				return s.id == id
			})
		})
	}
}

// Publish logs ev at the matching level and hands it to the subscribers.
//
// A panicking subscriber is logged and skipped; the panic never reaches
// the publisher.
func (c *Channel) Publish(
	ctx context.Context,
	ev Event,
) {
	logEvent(ctx, ev)
	subscriptions := xsync.DoR1(xsync.WithNoLogging(ctx, true), &c.locker, func() []*subscription {
		return slices.Clone(c.subscriptions)
	})
	for _, s := range subscriptions {
		if !s.accepts(ev.Kind()) {
			continue
		}
		c.deliver(ctx, s, ev)
	}
}

func (c *Channel) deliver(
	ctx context.Context,
	s *subscription,
	ev Event,
) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		logger.Errorf(ctx, "event subscriber #%d panicked on %s event: %v\n%s", s.id, ev.Kind(), r, debug.Stack())
	}()
	s.handler(ctx, ev)
}

func (c *Channel) NumSubscribers(ctx context.Context) int {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &c.locker, func() int {
		return len(c.subscriptions)
	})
}

func logEvent(ctx context.Context, ev Event) {
	fields := field.Fields{{Key: "event_kind", Value: ev.Kind()}}
	switch ev.(type) {
	case Frame:
		logger.Tracef(ctx, "%s", ev)
	case Warning:
		logger.WarnFields(ctx, ev.String(), fields)
	case Error:
		logger.ErrorFields(ctx, ev.String(), fields)
	default:
		logger.DebugFields(ctx, ev.String(), fields)
	}
}
