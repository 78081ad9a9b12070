package libav

import (
	"context"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/decodesession/resource"
	"github.com/xaionaro-go/decodesession/types"
)

func TestFamilyOf(t *testing.T) {
	for codec, expected := range map[string]Family{
		"avc1.64001f":     FamilyAVC,
		"avc3.42E01E":     FamilyAVC,
		"hvc1.1.6.L93.B0": FamilyHEVC,
		"hev1.1.6.L93.B0": FamilyHEVC,
		"vp8":             FamilyVP8,
		"vp09.00.10.08":   FamilyVP9,
		"av01.0.04M.08":   FamilyAV1,
		"mp4a.40.2":       FamilyUndefined,
		"":                FamilyUndefined,
	} {
		require.Equal(t, expected, FamilyOf(codec), codec)
	}

	id, ok := CodecID("avc1.64001f")
	require.True(t, ok)
	require.Equal(t, astiav.CodecIDH264, id)
	_, ok = CodecID("theora")
	require.False(t, ok)
}

func TestIsCodecSupported(t *testing.T) {
	require.True(t, IsCodecSupported("avc1.64001f"))
	require.False(t, IsCodecSupported("mp4a.40.2"))
}

func newTestResource(t *testing.T, callbacks resource.Callbacks) *Resource {
	ctx := context.Background()
	r, err := NewFactory(types.HardwareDeviceTypeNone, "").NewResource(ctx, callbacks)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(ctx) })
	return r.(*Resource)
}

func TestIsConfigSupported(t *testing.T) {
	ctx := context.Background()
	r := newTestResource(t, resource.Callbacks{})

	ok, err := r.IsConfigSupported(ctx, types.DecoderConfig{Codec: "avc1.64001f"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.IsConfigSupported(ctx, types.DecoderConfig{Codec: "avc1.64001f", Description: []byte{0xDE, 0xAD}})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = r.IsConfigSupported(ctx, types.DecoderConfig{
		Codec:                "avc1.64001f",
		HardwareAcceleration: types.HardwareAccelerationPreferHardware,
	})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.IsConfigSupported(ctx, types.DecoderConfig{Codec: "mp4a.40.2"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResourceLifecycle(t *testing.T) {
	ctx := context.Background()
	r := newTestResource(t, resource.Callbacks{})
	require.Equal(t, types.ResourceStatusUnconfigured, r.Status())

	cfg := types.DecoderConfig{
		Codec:                "avc1.64001f",
		CodedWidth:           types.Ptr[uint32](1280),
		CodedHeight:          types.Ptr[uint32](720),
		OptimizeForLatency:   true,
		HardwareAcceleration: types.HardwareAccelerationPreferHardware,
	}
	require.NoError(t, r.Configure(ctx, cfg))
	require.Equal(t, types.ResourceStatusConfigured, r.Status())

	// reconfiguring an already configured decoder is fine
	require.NoError(t, r.Configure(ctx, cfg))

	require.NoError(t, r.Reset(ctx))
	require.Equal(t, types.ResourceStatusUnconfigured, r.Status())
	require.Error(t, r.Decode(ctx, types.EncodedChunk{Type: types.ChunkTypeKey, Data: []byte{0}}))

	require.NoError(t, r.Close(ctx))
	require.Equal(t, types.ResourceStatusClosed, r.Status())
	require.ErrorAs(t, r.Configure(ctx, cfg), &ErrClosed{})
	require.ErrorAs(t, r.Reset(ctx), &ErrClosed{})
	require.NoError(t, r.Close(ctx))
}

func TestDecodeEmptyChunk(t *testing.T) {
	ctx := context.Background()
	r := newTestResource(t, resource.Callbacks{})
	require.NoError(t, r.Configure(ctx, types.DecoderConfig{Codec: "avc1.64001f"}))
	require.Error(t, r.Decode(ctx, types.EncodedChunk{Type: types.ChunkTypeKey}))
}

func TestFrameReleaseOnce(t *testing.T) {
	f := astiav.AllocFrame()
	f.SetPts(42)
	frame := newFrame(f)
	require.Equal(t, int64(42), frame.Timestamp())

	recycledBefore := framePool.Recycled()
	frame.Release()
	frame.Release()
	require.Equal(t, recycledBefore+1, framePool.Recycled())
	require.Equal(t, int64(42), frame.Timestamp())
	require.Equal(t, "Frame{<released>}", frame.String())
}
