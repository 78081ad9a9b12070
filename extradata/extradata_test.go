package extradata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testAVCC = []byte{
	0x01, 0x64, 0x00, 0x1F, 0xFF,
	0xE1, 0x00, 0x04, 0x67, 0x64, 0x00, 0x1F,
	0x01, 0x00, 0x03, 0x68, 0xEB, 0xE3,
}

func TestParseAVCC(t *testing.T) {
	rec, err := ParseAVCC(testAVCC)
	require.NoError(t, err)
	require.Equal(t, uint8(0x64), rec.Profile)
	require.Equal(t, uint8(0x1F), rec.Level)
	require.Equal(t, 4, rec.NALLengthSize)
	require.Equal(t, [][]byte{{0x67, 0x64, 0x00, 0x1F}}, rec.SPS)
	require.Equal(t, [][]byte{{0x68, 0xEB, 0xE3}}, rec.PPS)

	_, err = ParseAVCC(testAVCC[:len(testAVCC)-1])
	require.Error(t, err)
	_, err = ParseAVCC(append([]byte{0x02}, testAVCC[1:]...))
	require.Error(t, err)
}

func TestParseAV1C(t *testing.T) {
	rec, err := ParseAV1C([]byte{0x81, 0x04, 0x4C, 0x00, 0x0A, 0x0B})
	require.NoError(t, err)
	require.Equal(t, uint8(0), rec.SeqProfile)
	require.Equal(t, uint8(4), rec.SeqLevelIdx0)
	require.Equal(t, 10, rec.BitDepth())
	require.Equal(t, []byte{0x0A, 0x0B}, rec.ConfigOBUs)

	_, err = ParseAV1C([]byte{0x01, 0x04, 0x4C, 0x00})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("avc", nil))
	require.NoError(t, Validate("avc", testAVCC))
	require.NoError(t, Validate("avc", []byte{0, 0, 0, 1, 0x67, 0x64, 0, 0, 1, 0x68, 0xEB}))
	require.ErrorAs(t, Validate("avc", []byte{0xDE, 0xAD}), &ErrInvalidDescription{})
	require.Error(t, Validate("av1", []byte{0x01}))
	require.NoError(t, Validate("vp9", []byte{0xDE, 0xAD}))
}

func TestDescriptionParse(t *testing.T) {
	parsed, err := Description(testAVCC).Parse()
	require.NoError(t, err)
	require.IsType(t, &AVCC{}, parsed)

	_, err = Description{}.Parse()
	require.Error(t, err)
	require.Equal(t, "<empty>", Description{}.String())
}

func TestNALUs(t *testing.T) {
	stream := []byte{
		0, 0, 0, 1, 0x09, 0xF0,
		0, 0, 1, 0x67, 0x42,
		0, 0, 0, 1, 0x65, 0x88, 0x84, 0x00,
	}
	var got []H264NALUnitType
	var raws [][]byte
	for n := range NALUs(stream) {
		got = append(got, n.Type())
		raws = append(raws, n.Raw)
	}
	require.Equal(t, []H264NALUnitType{H264NALUnitTypeAUD, H264NALUnitTypeSPS, H264NALUnitTypeIDR}, got)
	require.Equal(t, []byte{0x09, 0xF0}, raws[0])
	require.Equal(t, []byte{0x65, 0x88, 0x84, 0x00}, raws[2])
}

func TestAccessUnits(t *testing.T) {
	sps := []byte{0, 0, 0, 1, 0x67, 0x42}
	pps := []byte{0, 0, 0, 1, 0x68, 0xCE}
	idr := []byte{0, 0, 0, 1, 0x65, 0x88, 0x80}
	p1 := []byte{0, 0, 0, 1, 0x41, 0x9A, 0x01}
	p1second := []byte{0, 0, 0, 1, 0x41, 0x40, 0x02}
	p2 := []byte{0, 0, 0, 1, 0x41, 0x9A, 0x03}

	var stream []byte
	for _, part := range [][]byte{sps, pps, idr, p1, p1second, p2} {
		stream = append(stream, part...)
	}

	var aus []AccessUnit
	for au := range AccessUnits(stream) {
		aus = append(aus, au)
	}
	require.Len(t, aus, 3)

	require.True(t, aus[0].Key)
	require.Equal(t, append(append(append([]byte{}, sps...), pps...), idr...), aus[0].Data)
	require.False(t, aus[1].Key)
	require.Equal(t, append(append([]byte{}, p1...), p1second...), aus[1].Data)
	require.False(t, aus[2].Key)
	require.Equal(t, p2, aus[2].Data)
}
