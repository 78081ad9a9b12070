package libav

import (
	"fmt"
	"sync"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/decodesession/pool"
	"github.com/xaionaro-go/decodesession/types"
)

var framePool = pool.NewPool(
	astiav.AllocFrame,
	func(f *astiav.Frame) { f.Unref() },
	func(f *astiav.Frame) { f.Free() },
)

// FramesAllocated is how many libav frames were allocated so far.
func FramesAllocated() uint64 {
	return framePool.Allocated()
}

// Frame is a decoded picture in system memory. The frame belongs to
// whoever holds it until Release.
type Frame struct {
	*astiav.Frame
	pts         int64
	releaseOnce sync.Once
}

var _ types.DecodedOutput = (*Frame)(nil)

func newFrame(f *astiav.Frame) *Frame {
	return &Frame{Frame: f, pts: f.Pts()}
}

func (f *Frame) Timestamp() int64 {
	return f.pts
}

// Release returns the underlying buffers to the pool; calls after the
// first one are no-ops.
func (f *Frame) Release() {
	f.releaseOnce.Do(func() {
		framePool.Put(f.Frame)
		f.Frame = nil
	})
}

func (f *Frame) String() string {
	if f.Frame == nil {
		return "Frame{<released>}"
	}
	return fmt.Sprintf("Frame{pts:%d, %dx%d, %s}", f.pts, f.Width(), f.Height(), f.PixelFormat())
}
