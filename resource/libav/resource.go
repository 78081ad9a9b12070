package libav

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/xaionaro-go/decodesession/extradata"
	"github.com/xaionaro-go/decodesession/logger"
	"github.com/xaionaro-go/decodesession/resource"
	"github.com/xaionaro-go/decodesession/types"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Resource is a libav decoder. Outputs and fatal errors are delivered
// from a dedicated goroutine.
type Resource struct {
	factory   *Factory
	callbacks resource.Callbacks

	locker              xsync.Mutex
	status              atomic.Int64
	closer              *astikit.Closer
	codec               *astiav.Codec
	codecContext        *astiav.CodecContext
	hardwarePixelFormat astiav.PixelFormat
	packet              *astiav.Packet

	// epoch is bumped on every Reset and Close; queued outputs of an older
	// epoch are never delivered.
	epoch          atomic.Uint64
	deliveryLocker sync.Mutex
	queueLocker    xsync.Mutex
	queue          []delivery
	queueWakeup    chan struct{}
	stopDelivery   context.CancelFunc
}

var _ resource.Resource = (*Resource)(nil)

func newResource(
	ctx context.Context,
	factory *Factory,
	callbacks resource.Callbacks,
) *Resource {
	r := &Resource{
		factory:             factory,
		callbacks:           callbacks,
		hardwarePixelFormat: astiav.PixelFormatNone,
		queueWakeup:         make(chan struct{}, 1),
	}
	r.status.Store(int64(types.ResourceStatusUnconfigured))

	ctx, r.stopDelivery = context.WithCancel(xcontext.DetachDone(ctx))
	observability.Go(ctx, func(ctx context.Context) {
		r.deliveryLoop(ctx)
	})
	return r
}

func (r *Resource) String() string {
	return fmt.Sprintf("%s[%s]", r.factory, r.Status())
}

func (r *Resource) Status() types.ResourceStatus {
	return types.ResourceStatus(r.status.Load())
}

func (r *Resource) setStatus(s types.ResourceStatus) {
	r.status.Store(int64(s))
}

// useHardware reports whether a hardware device should be tried for cfg.
// Hardware acceleration is only ever a preference: without a usable device
// the software decoder is used.
func (r *Resource) useHardware(cfg types.DecoderConfig) bool {
	if r.factory.HardwareDeviceType == types.HardwareDeviceTypeNone {
		return false
	}
	return cfg.HardwareAcceleration != types.HardwareAccelerationPreferSoftware
}

func (r *Resource) IsConfigSupported(
	ctx context.Context,
	cfg types.DecoderConfig,
) (_ret bool, _err error) {
	logger.Debugf(ctx, "IsConfigSupported(%s)", cfg)
	defer func() { logger.Debugf(ctx, "/IsConfigSupported(%s): %v %v", cfg, _ret, _err) }()

	if r.Status() == types.ResourceStatusClosed {
		return false, ErrClosed{}
	}
	if !IsCodecSupported(cfg.Codec) {
		return false, nil
	}
	if err := extradata.Validate(string(FamilyOf(cfg.Codec)), cfg.Description); err != nil {
		logger.Debugf(ctx, "%v", err)
		return false, nil
	}
	return true, nil
}

func (r *Resource) Configure(
	ctx context.Context,
	cfg types.DecoderConfig,
) (_err error) {
	logger.Debugf(ctx, "Configure(%s)", cfg)
	defer func() { logger.Debugf(ctx, "/Configure(%s): %v", cfg, _err) }()
	return xsync.DoR1(ctx, &r.locker, func() error {
		return r.configureLocked(ctx, cfg)
	})
}

func (r *Resource) configureLocked(
	ctx context.Context,
	cfg types.DecoderConfig,
) (_err error) {
	if r.Status() == types.ResourceStatusClosed {
		return ErrClosed{}
	}
	r.freeLocked(ctx)
	defer func() {
		if _err != nil {
			r.freeLocked(ctx)
		}
	}()

	codecID, ok := CodecID(cfg.Codec)
	if !ok {
		return fmt.Errorf("unknown codec '%s'", cfg.Codec)
	}
	r.codec = astiav.FindDecoder(codecID)
	if r.codec == nil {
		return fmt.Errorf("no decoder for %s", codecID)
	}

	r.closer = astikit.NewCloser()
	r.codecContext = astiav.AllocCodecContext(r.codec)
	if r.codecContext == nil {
		return fmt.Errorf("unable to allocate a codec context for %s", r.codec.Name())
	}
	r.closer.Add(r.codecContext.Free)

	if cfg.CodedWidth != nil {
		r.codecContext.SetWidth(int(*cfg.CodedWidth))
	}
	if cfg.CodedHeight != nil {
		r.codecContext.SetHeight(int(*cfg.CodedHeight))
	}
	if cfg.DisplayAspectWidth != nil && cfg.DisplayAspectHeight != nil {
		r.codecContext.SetSampleAspectRatio(astiav.NewRational(
			int(*cfg.DisplayAspectWidth), int(*cfg.DisplayAspectHeight),
		))
	}
	if len(cfg.Description) > 0 {
		r.codecContext.SetExtraData(cfg.Description)
	}
	if cfg.OptimizeForLatency {
		r.codecContext.SetFlags(r.codecContext.Flags() | astiav.CodecContextFlags(astiav.CodecContextFlagLowDelay))
	}

	if r.useHardware(cfg) {
		if err := r.initHardwareLocked(ctx); err != nil {
			logger.Warnf(ctx, "falling back to software decoding: %v", err)
		}
	}

	logger.Tracef(ctx, "codecContext.Open(%s)", r.codec.Name())
	if err := r.codecContext.Open(r.codec, nil); err != nil {
		return fmt.Errorf("unable to open the %s decoder: %w", r.codec.Name(), err)
	}

	r.packet = astiav.AllocPacket()
	r.closer.Add(r.packet.Free)

	r.setStatus(types.ResourceStatusConfigured)
	return nil
}

func (r *Resource) initHardwareLocked(ctx context.Context) (_err error) {
	hwDevType := r.factory.HardwareDeviceType
	logger.Debugf(ctx, "initHardwareLocked(%s)", hwDevType)
	defer func() { logger.Debugf(ctx, "/initHardwareLocked(%s): %v", hwDevType, _err) }()

	for _, hwCfg := range r.codec.HardwareConfigs() {
		if hwCfg.HardwareDeviceType() != astiav.HardwareDeviceType(hwDevType) {
			continue
		}
		if !hwCfg.MethodFlags().Has(astiav.CodecHardwareConfigMethodFlagHwDeviceCtx) {
			continue
		}
		r.hardwarePixelFormat = hwCfg.PixelFormat()
		break
	}
	if r.hardwarePixelFormat == astiav.PixelFormatNone {
		return fmt.Errorf("%s does not support hardware device type '%s'", r.codec.Name(), hwDevType)
	}

	hwDevCtx, err := astiav.CreateHardwareDeviceContext(
		astiav.HardwareDeviceType(hwDevType),
		string(r.factory.HardwareDeviceName),
		nil,
		0,
	)
	if err != nil {
		r.hardwarePixelFormat = astiav.PixelFormatNone
		return fmt.Errorf("unable to create a hardware (%s:%s) device context: %w", hwDevType, r.factory.HardwareDeviceName, err)
	}
	r.closer.Add(hwDevCtx.Free)
	r.codecContext.SetHardwareDeviceContext(hwDevCtx)

	hwPixFmt := r.hardwarePixelFormat
	r.codecContext.SetPixelFormatCallback(func(pfs []astiav.PixelFormat) astiav.PixelFormat {
		for _, pf := range pfs {
			if pf == hwPixFmt {
				return pf
			}
		}
		logger.Errorf(ctx, "the decoder does not offer pixel format %s", hwPixFmt)
		return astiav.PixelFormatNone
	})
	return nil
}

func (r *Resource) Decode(
	ctx context.Context,
	chunk types.EncodedChunk,
) (_err error) {
	logger.Tracef(ctx, "Decode(%s)", chunk)
	defer func() { logger.Tracef(ctx, "/Decode(%s): %v", chunk, _err) }()
	return xsync.DoR1(ctx, &r.locker, func() error {
		return r.decodeLocked(ctx, chunk)
	})
}

func (r *Resource) decodeLocked(
	ctx context.Context,
	chunk types.EncodedChunk,
) error {
	if r.Status() != types.ResourceStatusConfigured {
		return fmt.Errorf("the decoder is %s", r.Status())
	}
	if len(chunk.Data) == 0 {
		return fmt.Errorf("empty chunk")
	}

	r.packet.Unref()
	if err := r.packet.FromData(chunk.Data); err != nil {
		return fmt.Errorf("unable to fill the packet: %w", err)
	}
	r.packet.SetPts(chunk.Timestamp)
	r.packet.SetDts(chunk.Timestamp)
	if chunk.IsKey() {
		r.packet.SetFlags(r.packet.Flags().Add(astiav.PacketFlagKey))
	}

	err := r.codecContext.SendPacket(r.packet)
	if errors.Is(err, astiav.ErrEagain) {
		// the decoder wants its outputs to be taken first
		if err := r.drainLocked(ctx); err != nil {
			r.failLocked(ctx, err)
			return nil
		}
		err = r.codecContext.SendPacket(r.packet)
	}
	if err != nil {
		return fmt.Errorf("unable to send the packet: %w", err)
	}

	if err := r.drainLocked(ctx); err != nil {
		r.failLocked(ctx, err)
	}
	return nil
}

// drainLocked queues every frame the decoder has ready.
func (r *Resource) drainLocked(ctx context.Context) error {
	for {
		f := framePool.Get()
		err := r.codecContext.ReceiveFrame(f)
		if err != nil {
			framePool.Put(f)
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("unable to receive a frame: %w", err)
		}

		if r.hardwarePixelFormat != astiav.PixelFormatNone && f.PixelFormat() == r.hardwarePixelFormat {
			ramFrame := framePool.Get()
			if err := f.TransferHardwareData(ramFrame); err != nil {
				framePool.Put(f, ramFrame)
				return fmt.Errorf("unable to transfer a frame from the hardware decoder to RAM: %w", err)
			}
			ramFrame.SetPts(f.Pts())
			framePool.Put(f)
			f = ramFrame
		}

		logger.Tracef(ctx, "received a frame: pts:%d %dx%d", f.Pts(), f.Width(), f.Height())
		r.enqueue(ctx, delivery{Epoch: r.epoch.Load(), Frame: newFrame(f)})
	}
}

// failLocked closes the decoder after an unrecoverable error and reports
// the error through the callbacks.
func (r *Resource) failLocked(ctx context.Context, err error) {
	logger.Errorf(ctx, "the decoder failed: %v", err)
	r.freeLocked(ctx)
	r.setStatus(types.ResourceStatusClosed)
	r.enqueue(ctx, delivery{Epoch: r.epoch.Load(), Err: err})
}

func (r *Resource) Reset(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Reset")
	defer func() { logger.Debugf(ctx, "/Reset: %v", _err) }()
	return xsync.DoR1(ctx, &r.locker, func() error {
		if r.Status() == types.ResourceStatusClosed {
			return ErrClosed{}
		}
		r.bumpEpoch(ctx)
		r.freeLocked(ctx)
		r.setStatus(types.ResourceStatusUnconfigured)
		return nil
	})
}

func (r *Resource) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()
	return xsync.DoR1(ctx, &r.locker, func() error {
		r.bumpEpoch(ctx)
		r.freeLocked(ctx)
		r.setStatus(types.ResourceStatusClosed)
		r.stopDelivery()
		return nil
	})
}

// bumpEpoch makes every queued or in-flight output stale; it returns
// only after an ongoing delivery (if any) is finished.
func (r *Resource) bumpEpoch(ctx context.Context) {
	r.deliveryLocker.Lock()
	r.epoch.Inc()
	r.deliveryLocker.Unlock()
	if n := r.dropQueued(ctx); n > 0 {
		logger.Debugf(ctx, "dropped %d undelivered outputs", n)
	}
}

func (r *Resource) freeLocked(ctx context.Context) {
	if r.closer == nil {
		return
	}
	if err := r.closer.Close(); err != nil {
		logger.Errorf(ctx, "unable to free the decoder: %v", err)
	}
	r.closer = nil
	r.codec = nil
	r.codecContext = nil
	r.packet = nil
	r.hardwarePixelFormat = astiav.PixelFormatNone
}
