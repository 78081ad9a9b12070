// Package internal holds helpers shared by the decodesession packages.
package internal

import (
	"context"

	"github.com/xaionaro-go/decodesession/logger"
)

// Assert panics (through the logger, so the message is not lost) if mustBeTrue is false.
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}
	logger.Panic(ctx, append([]any{"assertion failed"}, extraArgs...)...)
}
