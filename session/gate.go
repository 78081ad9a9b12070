package session

import (
	"context"

	"github.com/xaionaro-go/decodesession/logger"
	"golang.org/x/sync/semaphore"
)

// gate serializes the operations that touch the decoder.
//
// Waiters are served in arrival order: semaphore.Weighted never lets
// a new caller overtake a queued one.
type gate struct {
	semaphore *semaphore.Weighted
}

func newGate() *gate {
	return &gate{
		semaphore: semaphore.NewWeighted(1),
	}
}

func (g *gate) Acquire(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "gate.Acquire")
	defer func() { logger.Tracef(ctx, "/gate.Acquire: %v", _err) }()
	return g.semaphore.Acquire(ctx, 1)
}

func (g *gate) Release(ctx context.Context) {
	logger.Tracef(ctx, "gate.Release")
	g.semaphore.Release(1)
}
