package event

import (
	"context"

	"github.com/xaionaro-go/decodesession/types"
)

// OnFrame subscribes fn to frame events only.
func (c *Channel) OnFrame(
	ctx context.Context,
	fn func(ctx context.Context, output types.DecodedOutput),
) (unsubscribe func()) {
	return c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		fn(ctx, ev.(Frame).Output)
	}, KindFrame)
}

// OnError subscribes fn to error events only.
func (c *Channel) OnError(
	ctx context.Context,
	fn func(ctx context.Context, err error),
) (unsubscribe func()) {
	return c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		fn(ctx, ev.(Error).Err)
	}, KindError)
}

// OnWarning subscribes fn to warning events only.
func (c *Channel) OnWarning(
	ctx context.Context,
	fn func(ctx context.Context, err error),
) (unsubscribe func()) {
	return c.Subscribe(ctx, func(ctx context.Context, ev Event) {
		fn(ctx, ev.(Warning).Err)
	}, KindWarning)
}
