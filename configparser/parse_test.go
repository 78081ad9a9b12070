package configparser

import (
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/decodesession/types"
)

func TestParse(t *testing.T) {
	cfg, err := Parse("video/avc;codec=avc1.64001f;coded_width=1280;coded_height=720;description=aabbcc")
	require.NoError(t, err)
	require.Equal(t, &types.DecoderConfig{
		Codec:       "avc1.64001f",
		CodedWidth:  types.Ptr(uint32(1280)),
		CodedHeight: types.Ptr(uint32(720)),
		Description: []byte{0xaa, 0xbb, 0xcc},
	}, cfg)
}

func TestParseUnparseable(t *testing.T) {
	for _, descriptor := range []string{
		"",
		"video/avc",
		"video/avc;coded_width=1280",
		"video/avc;codec=",
		"video/avc;=avc1",
		"audio/opus;codec=opus",
		"video/;codec=avc1",
		"avc1.64001f;codec=avc1.64001f",
	} {
		t.Run(descriptor, func(t *testing.T) {
			cfg, err := Parse(descriptor)
			require.Nil(t, cfg)
			require.Error(t, err)
			require.True(t, errors.As(err, &ErrUnparseable{}), "got: %v", err)
		})
	}
}

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected *uint32
	}{
		{name: "regular", value: "640", expected: types.Ptr(uint32(640))},
		{name: "zero", value: "0", expected: nil},
		{name: "not_a_number", value: "wide", expected: nil},
		{name: "trailing_garbage", value: "640px", expected: nil},
		{name: "negative", value: "-640", expected: nil},
		{name: "empty", value: "", expected: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse("video/avc;codec=avc1;coded_width=" + tt.value +
				";coded_height=" + tt.value +
				";display_aspect_width=" + tt.value +
				";display_aspect_height=" + tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.expected, cfg.CodedWidth)
			require.Equal(t, tt.expected, cfg.CodedHeight)
			require.Equal(t, tt.expected, cfg.DisplayAspectWidth)
			require.Equal(t, tt.expected, cfg.DisplayAspectHeight)
		})
	}
}

func TestParseParams(t *testing.T) {
	t.Run("later_overwrites_earlier", func(t *testing.T) {
		cfg, err := Parse("video/vp9;codec=vp8;codec=vp09.00.10.08")
		require.NoError(t, err)
		require.Equal(t, "vp09.00.10.08", cfg.Codec)
	})

	t.Run("malformed_segments_are_dropped", func(t *testing.T) {
		cfg, err := Parse("video/avc;junk;=1;coded_width=;codec=avc1;;coded_height=10")
		require.NoError(t, err)
		require.Equal(t, "avc1", cfg.Codec)
		require.Nil(t, cfg.CodedWidth)
		require.Equal(t, types.Ptr(uint32(10)), cfg.CodedHeight)
	})

	t.Run("extra_equal_signs", func(t *testing.T) {
		cfg, err := Parse("video/avc;codec=avc1=ignored")
		require.NoError(t, err)
		require.Equal(t, "avc1", cfg.Codec)
	})

	t.Run("unknown_keys_are_ignored", func(t *testing.T) {
		cfg, err := Parse("video/av1;codec=av01.0.04M.08;framerate=30")
		require.NoError(t, err)
		require.Equal(t, &types.DecoderConfig{Codec: "av01.0.04M.08"}, cfg)
	})

	t.Run("no_description", func(t *testing.T) {
		cfg, err := Parse("video/avc;codec=avc1")
		require.NoError(t, err)
		require.Nil(t, cfg.Description)
	})
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{name: "lowercase", input: "aabbcc", expected: []byte{0xaa, 0xbb, 0xcc}},
		{name: "uppercase", input: "AABBCC", expected: []byte{0xaa, 0xbb, 0xcc}},
		{name: "odd_length", input: "aabbc", expected: []byte{0xaa, 0xbb}},
		{name: "malformed_pair", input: "aazzcc", expected: []byte{0xaa}},
		{name: "malformed_first_pair", input: "g0", expected: []byte{}},
		{name: "empty", input: "", expected: []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, DecodeHex(tt.input))
		})
	}
}

func TestDecodeHexRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	for n := 0; n <= 256; n++ {
		b := make([]byte, n)
		rng.Read(b)
		require.Equal(t, b, DecodeHex(hex.EncodeToString(b)), "n=%d", n)
	}
}

func TestFormat(t *testing.T) {
	cfg := types.DecoderConfig{
		Codec:               "hvc1.1.6.L93.B0",
		CodedWidth:          types.Ptr(uint32(1920)),
		CodedHeight:         types.Ptr(uint32(1080)),
		DisplayAspectWidth:  types.Ptr(uint32(16)),
		DisplayAspectHeight: types.Ptr(uint32(9)),
		Description:         []byte{0x01, 0x02},
	}
	descriptor := Format("hevc", cfg)
	require.Equal(t, "video/hevc;codec=hvc1.1.6.L93.B0;coded_width=1920;coded_height=1080;display_aspect_width=16;display_aspect_height=9;description=0102", descriptor)

	parsed, err := Parse(descriptor)
	require.NoError(t, err)
	require.Equal(t, &cfg, parsed)
}
