package extradata

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// AVCC is an H.264 AVCDecoderConfigurationRecord.
type AVCC struct {
	Profile       uint8
	Compatibility uint8
	Level         uint8
	NALLengthSize int
	SPS           [][]byte
	PPS           [][]byte
}

func ParseAVCC(b []byte) (*AVCC, error) {
	if len(b) < 7 {
		return nil, fmt.Errorf("too short: %d bytes", len(b))
	}
	if b[0] != 1 {
		return nil, fmt.Errorf("unsupported configurationVersion %d", b[0])
	}
	if b[4]&0xFC != 0xFC {
		return nil, fmt.Errorf("reserved bits are not set in 0x%02X", b[4])
	}

	rec := &AVCC{
		Profile:       b[1],
		Compatibility: b[2],
		Level:         b[3],
		NALLengthSize: int(b[4]&0x03) + 1,
	}

	offset := 5
	var err error
	rec.SPS, offset, err = readParameterSets(b, offset, int(b[offset]&0x1F))
	if err != nil {
		return nil, fmt.Errorf("SPS: %w", err)
	}
	if offset >= len(b) {
		return nil, fmt.Errorf("missing PPS count")
	}
	rec.PPS, _, err = readParameterSets(b, offset, int(b[offset]))
	if err != nil {
		return nil, fmt.Errorf("PPS: %w", err)
	}
	return rec, nil
}

// readParameterSets reads count length-prefixed NAL units starting right
// after the count byte at offset.
func readParameterSets(b []byte, offset, count int) ([][]byte, int, error) {
	offset++
	sets := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if offset+2 > len(b) {
			return nil, 0, fmt.Errorf("truncated length of #%d", i)
		}
		size := int(binary.BigEndian.Uint16(b[offset:]))
		offset += 2
		if size == 0 || offset+size > len(b) {
			return nil, 0, fmt.Errorf("#%d: invalid size %d", i, size)
		}
		sets = append(sets, append([]byte(nil), b[offset:offset+size]...))
		offset += size
	}
	return sets, offset, nil
}

func (c *AVCC) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "AVCC{profile:0x%02X, compat:0x%02X, level:0x%02X, nal_length_size:%d",
		c.Profile, c.Compatibility, c.Level, c.NALLengthSize)
	for i, sps := range c.SPS {
		fmt.Fprintf(&sb, ", SPS[%d]:%dB", i, len(sps))
	}
	for i, pps := range c.PPS {
		fmt.Fprintf(&sb, ", PPS[%d]:%dB", i, len(pps))
	}
	sb.WriteString("}")
	return sb.String()
}
