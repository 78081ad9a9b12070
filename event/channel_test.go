package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/decodesession/types"
)

type dummyOutput struct {
	pts          int64
	releaseCount int
}

func (o *dummyOutput) Timestamp() int64 { return o.pts }
func (o *dummyOutput) Release()         { o.releaseCount++ }

func TestChannelOrdering(t *testing.T) {
	ctx := context.Background()
	c := NewChannel()

	var got []string
	c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		got = append(got, "a:"+ev.String())
	})
	c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		got = append(got, "b:"+ev.String())
	})

	c.Publish(ctx, Debug{Message: "one"})
	c.Publish(ctx, Warning{Err: errors.New("two")})

	require.Equal(t, []string{"a:one", "b:one", "a:two", "b:two"}, got)
}

func TestChannelKindFilter(t *testing.T) {
	ctx := context.Background()
	c := NewChannel()

	var frames []int64
	var errs []error
	c.OnFrame(ctx, func(ctx context.Context, output types.DecodedOutput) {
		frames = append(frames, output.Timestamp())
	})
	c.OnError(ctx, func(ctx context.Context, err error) {
		errs = append(errs, err)
	})

	out := &dummyOutput{pts: 42}
	c.Publish(ctx, Frame{Output: out})
	c.Publish(ctx, Debug{Message: "ignored"})
	c.Publish(ctx, Error{Err: errors.New("boom")})

	require.Equal(t, []int64{42}, frames)
	require.Len(t, errs, 1)
	require.EqualError(t, errs[0], "boom")
	require.Zero(t, out.releaseCount, "subscribers only borrow the output")
}

func TestChannelNoReplay(t *testing.T) {
	ctx := context.Background()
	c := NewChannel()
	c.Publish(ctx, Debug{Message: "before"})

	var got []Event
	c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		got = append(got, ev)
	})
	require.Empty(t, got)

	c.Publish(ctx, Debug{Message: "after"})
	require.Equal(t, []Event{Debug{Message: "after"}}, got)
}

func TestChannelUnsubscribe(t *testing.T) {
	ctx := context.Background()
	c := NewChannel()

	count := 0
	unsubscribe := c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		count++
	})
	c.Publish(ctx, Debug{Message: "x"})
	unsubscribe()
	unsubscribe()
	c.Publish(ctx, Debug{Message: "y"})

	require.Equal(t, 1, count)
	require.Zero(t, c.NumSubscribers(ctx))
}

func TestChannelPanickingSubscriber(t *testing.T) {
	ctx := context.Background()
	c := NewChannel()

	c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		panic("subscriber bug")
	})
	delivered := false
	c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		delivered = true
	})

	require.NotPanics(t, func() {
		c.Publish(ctx, Error{Err: errors.New("x")})
	})
	require.True(t, delivered)
}

func TestChannelSubscribeFromHandler(t *testing.T) {
	ctx := context.Background()
	c := NewChannel()

	lateCalls := 0
	c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		c.Subscribe(ctx, func(ctx context.Context, ev Event) {
			lateCalls++
		})
	})

	c.Publish(ctx, Debug{Message: "first"})
	require.Zero(t, lateCalls, "a subscriber added during delivery does not see the current event")
	c.Publish(ctx, Debug{Message: "second"})
	require.Equal(t, 1, lateCalls)
}
