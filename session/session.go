// session.go implements the decode session: a safe front-end to a single
// stateful asynchronous decoder.

// Package session serializes access to a single asynchronous video decoder,
// gates decoding on keyframes and turns its callback-driven output into a
// bounded "decode one chunk, get at most one frame" call.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/decodesession/configparser"
	"github.com/xaionaro-go/decodesession/event"
	"github.com/xaionaro-go/decodesession/internal"
	"github.com/xaionaro-go/decodesession/logger"
	"github.com/xaionaro-go/decodesession/resource"
	"github.com/xaionaro-go/decodesession/types"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type resourceHandle struct {
	resource.Resource
	Generation uint64
}

type Session struct {
	Config  Config
	Events  *event.Channel
	Factory resource.Factory

	gate        *gate
	slot        pendingSlot
	handle      atomic.Pointer[resourceHandle]
	generation  atomic.Uint64
	stateLocker xsync.Mutex
	state       atomic.Pointer[State]
	config      atomic.Pointer[types.DecoderConfig]
	callbackCtx context.Context
	stats       statistics
}

// New creates a session together with its first (unconfigured) decoder.
func New(
	ctx context.Context,
	factory resource.Factory,
	cfg Config,
) (_ret *Session, _err error) {
	logger.Debugf(ctx, "New(ctx, %s, %#+v)", factory, cfg)
	defer func() { logger.Debugf(ctx, "/New(ctx, %s, %#+v): %v", factory, cfg, _err) }()
	s := &Session{
		Config:      cfg.withDefaults(),
		Events:      event.NewChannel(),
		Factory:     factory,
		gate:        newGate(),
		callbackCtx: xcontext.DetachDone(ctx),
	}
	s.state.Store(&State{Status: types.ResourceStatusUnconfigured})
	if _, err := s.replaceResource(ctx); err != nil {
		return nil, fmt.Errorf("unable to create the decoder: %w", err)
	}
	return s, nil
}

func (s *Session) String() string {
	h := s.handle.Load()
	if h == nil {
		return "Session(<no decoder>)"
	}
	return fmt.Sprintf("Session(%s)", h.Resource)
}

// ParseAndReport parses a decoder descriptor (see configparser.Parse); a
// failure is also published as a debug event.
func (s *Session) ParseAndReport(
	ctx context.Context,
	descriptor string,
) (*types.DecoderConfig, error) {
	cfg, err := configparser.Parse(descriptor)
	if err != nil {
		s.Events.Publish(ctx, event.Debug{Message: err.Error()})
		return nil, err
	}
	return cfg, nil
}

// Initialize configures the decoder with cfg, tuned for low latency and
// hardware decoding. A rejected configuration is published as an error
// event and returned; the decoder then stays unconfigured.
func (s *Session) Initialize(
	ctx context.Context,
	cfg types.DecoderConfig,
) (_err error) {
	ctx = logger.WithField(ctx, "codec", cfg.Codec)
	logger.Debugf(ctx, "Initialize(ctx, %s)", cfg)
	defer func() { logger.Debugf(ctx, "/Initialize(ctx, %s): %v", cfg, _err) }()

	if err := s.gate.Acquire(ctx); err != nil {
		return err
	}
	defer s.gate.Release(ctx)
	return s.initializeLocked(ctx, cfg)
}

func (s *Session) initializeLocked(
	ctx context.Context,
	cfg types.DecoderConfig,
) error {
	// low latency means no flush is needed after every chunk
	cfg = cfg.Clone()
	cfg.OptimizeForLatency = true
	cfg.HardwareAcceleration = types.HardwareAccelerationPreferHardware
	if logger.FromCtx(ctx).Level() >= logger.LevelTrace {
		logger.Tracef(ctx, "decoder config: %s", spew.Sdump(cfg))
	}

	h, err := s.liveResource(ctx)
	if err != nil {
		return s.reject(ctx, cfg, err)
	}

	if err := cfg.Validate(); err != nil {
		return s.reject(ctx, cfg, err)
	}
	supported, err := h.IsConfigSupported(ctx, cfg)
	if err != nil || !supported {
		return s.reject(ctx, cfg, err)
	}

	s.Events.Publish(ctx, event.Debug{Message: fmt.Sprintf("configuring %s with %s", h.Resource, cfg)})
	if err := h.Configure(ctx, cfg); err != nil {
		return s.reject(ctx, cfg, err)
	}
	s.config.Store(&cfg)
	s.syncStatus(ctx, h)
	return nil
}

func (s *Session) reject(
	ctx context.Context,
	cfg types.DecoderConfig,
	err error,
) error {
	s.stats.ConfigurationRejections.Inc()
	rejection := types.ErrConfigurationRejected{Config: cfg, Err: err}
	s.Events.Publish(ctx, event.Error{Err: rejection})
	return rejection
}

// IsInitialized reports whether the decoder is configured and ready to decode.
func (s *Session) IsInitialized() bool {
	return s.State().IsReady()
}

// HasKeyframe reports whether a keyframe was accepted since the last reset.
func (s *Session) HasKeyframe() bool {
	return s.State().KeyframeSeen
}

func (s *Session) State() State {
	return *s.state.Load()
}

// DecoderConfig returns the configuration the decoder was last set up with
// (nil if Initialize never succeeded). It survives ResetForSeek and Close.
func (s *Session) DecoderConfig() *types.DecoderConfig {
	cfg := s.config.Load()
	if cfg == nil {
		return nil
	}
	return ptr(cfg.Clone())
}

func (s *Session) Statistics() Statistics {
	return s.stats.Convert()
}

// Decode submits a chunk and waits (up to Config.DecodeTimeout) for the
// decoder to produce an output.
//
// It returns nil (and no error) if the decoder is not configured yet, if
// it is waiting for a keyframe, if the submission failed or if the decoder
// did not produce anything in time; these conditions are published on
// Events instead. The error is non-nil only if ctx got cancelled.
//
// The caller owns the returned output and must release it.
func (s *Session) Decode(
	ctx context.Context,
	chunk types.EncodedChunk,
) (_ret types.DecodedOutput, _err error) {
	ctx = logger.WithField(ctx, "chunk_type", chunk.Type)
	ctx = logger.WithField(ctx, "pts", chunk.Timestamp)
	logger.Tracef(ctx, "Decode(ctx, %s)", chunk)
	defer func() { logger.Tracef(ctx, "/Decode(ctx, %s): %v %v", chunk, _ret, _err) }()

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.gate.Release(ctx)
	return s.decodeLocked(ctx, chunk)
}

func (s *Session) decodeLocked(
	ctx context.Context,
	chunk types.EncodedChunk,
) (types.DecodedOutput, error) {
	h, err := s.liveResource(ctx)
	if err != nil {
		s.Events.Publish(ctx, event.Error{Err: err})
		return nil, nil
	}

	if h.Status() != types.ResourceStatusConfigured {
		s.syncStatus(ctx, h)
		s.stats.NotReadyDrops.Inc()
		s.Events.Publish(ctx, event.Debug{Message: types.ErrNotReady{}.Error()})
		return nil, nil
	}

	if !s.HasKeyframe() && !chunk.IsKey() {
		s.stats.KeyframeGapDrops.Inc()
		s.Events.Publish(ctx, event.Debug{Message: types.ErrKeyframeGap{Timestamp: chunk.Timestamp}.Error()})
		return nil, nil
	}

	outputArrived := s.slot.Arm(ctx)
	defer s.slot.Disarm(ctx)

	s.stats.ChunksSubmitted.Inc()
	s.stats.BytesSubmitted.Add(uint64(len(chunk.Data)))
	if err := h.Decode(ctx, chunk); err != nil {
		s.stats.SubmissionFailures.Inc()
		s.Events.Publish(ctx, event.Error{Err: types.ErrSubmissionFailed{
			Size:      len(chunk.Data),
			Timestamp: chunk.Timestamp,
			Err:       err,
		}})
		s.syncStatus(ctx, h)
		return s.takeOutput(ctx), nil
	}
	if chunk.IsKey() {
		s.setState(ctx, func(st State) State {
			st.KeyframeSeen = true
			return st
		})
	}

	timer := time.NewTimer(s.Config.DecodeTimeout)
	defer timer.Stop()
	select {
	case <-outputArrived:
	case <-timer.C:
		s.stats.Timeouts.Inc()
		s.Events.Publish(ctx, event.Warning{Err: types.ErrDecodeTimedOut{
			Size:      len(chunk.Data),
			Timestamp: chunk.Timestamp,
		}})
	case <-ctx.Done():
		// the output (if any) stays pending for the next Decode
		return nil, ctx.Err()
	}
	return s.takeOutput(ctx), nil
}

func (s *Session) takeOutput(ctx context.Context) types.DecodedOutput {
	output := s.slot.Take(ctx)
	if output != nil {
		s.stats.OutputsReturned.Inc()
	}
	return output
}

// ResetForSeek drops everything decoded or buffered so far and re-arms the
// keyframe gate, keeping the decoder configuration. Call it when seeking.
func (s *Session) ResetForSeek(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "ResetForSeek")
	defer func() { logger.Debugf(ctx, "/ResetForSeek: %v", _err) }()

	if err := s.gate.Acquire(ctx); err != nil {
		return err
	}
	defer s.gate.Release(ctx)

	var errs []error
	h := s.handle.Load()
	internal.Assert(ctx, h != nil, "no decoder")
	if h.Status() != types.ResourceStatusClosed {
		if err := h.Reset(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unable to reset %s: %w", h.Resource, err))
		}
		if cfg := s.config.Load(); cfg != nil {
			if err := h.Configure(ctx, *cfg); err != nil {
				errs = append(errs, fmt.Errorf("unable to re-configure %s: %w", h.Resource, err))
			}
		}
	}
	if s.slot.Discard(ctx) {
		s.stats.OutputsDiscarded.Inc()
	}
	s.setState(ctx, func(State) State {
		return State{Status: h.Status(), KeyframeSeen: false}
	})
	return errors.Join(errs...)
}

// Close releases the decoder and any pending output. The cached decoder
// configuration is kept for introspection. A later Decode transparently
// creates a new (unconfigured) decoder.
func (s *Session) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()

	if err := s.gate.Acquire(ctx); err != nil {
		return err
	}
	defer s.gate.Release(ctx)

	var err error
	h := s.handle.Load()
	internal.Assert(ctx, h != nil, "no decoder")
	if h.Status() != types.ResourceStatusClosed {
		err = h.Close(ctx)
	}
	if s.slot.Discard(ctx) {
		s.stats.OutputsDiscarded.Inc()
	}
	s.syncStatus(ctx, h)
	return err
}

// liveResource returns the current decoder, replacing it first if it got closed.
func (s *Session) liveResource(ctx context.Context) (*resourceHandle, error) {
	h := s.handle.Load()
	if h.Status() != types.ResourceStatusClosed {
		return h, nil
	}
	s.Events.Publish(ctx, event.Warning{Err: types.ErrResourceClosed{Resource: h.Resource.String()}})
	return s.replaceResource(ctx)
}

func (s *Session) replaceResource(ctx context.Context) (*resourceHandle, error) {
	generation := s.generation.Inc()
	res, err := s.Factory.NewResource(ctx, s.callbacks(generation))
	if err != nil {
		return nil, fmt.Errorf("unable to create a decoder using %s: %w", s.Factory, err)
	}
	h := &resourceHandle{Resource: res, Generation: generation}
	s.handle.Store(h)
	if generation > 1 {
		s.stats.ResourceRecreations.Inc()
	}
	s.setState(ctx, func(State) State {
		return State{Status: res.Status(), KeyframeSeen: false}
	})
	return h, nil
}

func (s *Session) callbacks(generation uint64) resource.Callbacks {
	return resource.Callbacks{
		OnOutput: func(output types.DecodedOutput) {
			s.onOutput(generation, output)
		},
		OnError: func(err error) {
			s.onError(generation, err)
		},
	}
}

func (s *Session) onOutput(
	generation uint64,
	output types.DecodedOutput,
) {
	ctx := s.callbackCtx
	if h := s.handle.Load(); h != nil && h.Generation != generation {
		logger.Debugf(ctx, "dropping an output of a replaced decoder (generation %d)", generation)
		output.Release()
		return
	}
	s.stats.OutputsProduced.Inc()
	s.Events.Publish(ctx, event.Frame{Output: output})
	if s.slot.Put(ctx, output) {
		s.stats.OutputsDiscarded.Inc()
	}
}

func (s *Session) onError(
	generation uint64,
	err error,
) {
	ctx := s.callbackCtx
	h := s.handle.Load()
	if h == nil || h.Generation != generation {
		logger.Debugf(ctx, "ignoring an error of a replaced decoder (generation %d): %v", generation, err)
		return
	}
	s.Events.Publish(ctx, event.Error{Err: err})
	s.syncStatus(ctx, h)
}

// syncStatus mirrors the decoder status into the session state.
func (s *Session) syncStatus(ctx context.Context, h *resourceHandle) {
	s.setState(ctx, func(st State) State {
		if s.handle.Load() == h {
			st.Status = h.Status()
		}
		return st
	})
}

func (s *Session) setState(ctx context.Context, fn func(State) State) {
	s.stateLocker.Do(xsync.WithNoLogging(ctx, true), func() {
		next := fn(*s.state.Load())
		logger.Tracef(ctx, "state: %s", next)
		s.state.Store(&next)
	})
}

func ptr[T any](v T) *T {
	return &v
}
