package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xaionaro-go/decodesession/resource"
	"github.com/xaionaro-go/decodesession/types"
	"go.uber.org/atomic"
)

type dummyOutput struct {
	pts          int64
	releaseCount atomic.Int32
}

var _ types.DecodedOutput = (*dummyOutput)(nil)

func (o *dummyOutput) Timestamp() int64 { return o.pts }
func (o *dummyOutput) Release()         { o.releaseCount.Add(1) }

func (o *dummyOutput) ReleaseCount() int { return int(o.releaseCount.Load()) }

type dummyResource struct {
	Callbacks resource.Callbacks

	// OutputDelay < 0 means the decoder never produces anything.
	OutputDelay time.Duration
	// OpDuration is how long every gated call stays "inside" the decoder.
	OpDuration time.Duration

	IsConfigSupportedFn func(cfg types.DecoderConfig) (bool, error)
	DecodeFn            func(ctx context.Context, chunk types.EncodedChunk) error

	locker      sync.Mutex
	status      types.ResourceStatus
	epoch       int
	Configured  []types.DecoderConfig
	Decoded     []types.EncodedChunk
	Outputs     []*dummyOutput
	ResetCount  int
	CloseCount  int
	active      atomic.Int32
	MaxActive   atomic.Int32
	outputsWG   sync.WaitGroup
	lastOutputs chan *dummyOutput
}

var _ resource.Resource = (*dummyResource)(nil)

func newDummyResource(callbacks resource.Callbacks) *dummyResource {
	return &dummyResource{
		Callbacks:   callbacks,
		status:      types.ResourceStatusUnconfigured,
		lastOutputs: make(chan *dummyOutput, 100),
	}
}

func (r *dummyResource) String() string {
	return "dummyResource"
}

func (r *dummyResource) enter() func() {
	n := r.active.Add(1)
	for {
		cur := r.MaxActive.Load()
		if n <= cur || r.MaxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	if r.OpDuration > 0 {
		time.Sleep(r.OpDuration)
	}
	return func() { r.active.Add(-1) }
}

func (r *dummyResource) IsConfigSupported(ctx context.Context, cfg types.DecoderConfig) (bool, error) {
	defer r.enter()()
	if r.IsConfigSupportedFn != nil {
		return r.IsConfigSupportedFn(cfg)
	}
	return true, nil
}

func (r *dummyResource) Configure(ctx context.Context, cfg types.DecoderConfig) error {
	defer r.enter()()
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.status == types.ResourceStatusClosed {
		return fmt.Errorf("closed")
	}
	r.Configured = append(r.Configured, cfg)
	r.status = types.ResourceStatusConfigured
	return nil
}

func (r *dummyResource) Decode(ctx context.Context, chunk types.EncodedChunk) error {
	defer r.enter()()
	if r.DecodeFn != nil {
		if err := r.DecodeFn(ctx, chunk); err != nil {
			return err
		}
	}
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.status != types.ResourceStatusConfigured {
		return fmt.Errorf("not configured")
	}
	r.Decoded = append(r.Decoded, chunk)
	if r.OutputDelay < 0 {
		return nil
	}
	out := &dummyOutput{pts: chunk.Timestamp}
	r.Outputs = append(r.Outputs, out)
	epoch := r.epoch
	r.outputsWG.Add(1)
	go func() {
		defer r.outputsWG.Done()
		time.Sleep(r.OutputDelay)
		r.locker.Lock()
		stale := r.epoch != epoch
		r.locker.Unlock()
		if stale {
			out.Release()
			return
		}
		r.Callbacks.OnOutput(out)
		select {
		case r.lastOutputs <- out:
		default:
		}
	}()
	return nil
}

func (r *dummyResource) Reset(ctx context.Context) error {
	defer r.enter()()
	r.locker.Lock()
	defer r.locker.Unlock()
	r.ResetCount++
	r.epoch++
	if r.status == types.ResourceStatusClosed {
		return fmt.Errorf("closed")
	}
	r.status = types.ResourceStatusUnconfigured
	return nil
}

func (r *dummyResource) Close(ctx context.Context) error {
	defer r.enter()()
	r.locker.Lock()
	defer r.locker.Unlock()
	r.CloseCount++
	r.epoch++
	r.status = types.ResourceStatusClosed
	return nil
}

func (r *dummyResource) Status() types.ResourceStatus {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.status
}

// closeFromInside emulates a decoder that hit a fatal error on its own.
func (r *dummyResource) closeFromInside(err error) {
	r.locker.Lock()
	r.status = types.ResourceStatusClosed
	r.locker.Unlock()
	r.Callbacks.OnError(err)
}

func (r *dummyResource) decodedCount() int {
	r.locker.Lock()
	defer r.locker.Unlock()
	return len(r.Decoded)
}

// waitOutputs waits for all scheduled output deliveries to finish.
func (r *dummyResource) waitOutputs() {
	r.outputsWG.Wait()
}

type dummyFactory struct {
	Setup     func(r *dummyResource)
	NewFn     func() error
	locker    sync.Mutex
	Resources []*dummyResource
}

var _ resource.Factory = (*dummyFactory)(nil)

func (f *dummyFactory) String() string {
	return "dummyFactory"
}

func (f *dummyFactory) NewResource(ctx context.Context, callbacks resource.Callbacks) (resource.Resource, error) {
	if f.NewFn != nil {
		if err := f.NewFn(); err != nil {
			return nil, err
		}
	}
	r := newDummyResource(callbacks)
	if f.Setup != nil {
		f.Setup(r)
	}
	f.locker.Lock()
	defer f.locker.Unlock()
	f.Resources = append(f.Resources, r)
	return r, nil
}

func (f *dummyFactory) Last() *dummyResource {
	f.locker.Lock()
	defer f.locker.Unlock()
	return f.Resources[len(f.Resources)-1]
}
