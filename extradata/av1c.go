package extradata

import (
	"fmt"
)

// AV1C is an AV1CodecConfigurationRecord.
type AV1C struct {
	Version      uint8
	SeqProfile   uint8
	SeqLevelIdx0 uint8
	SeqTier0     uint8
	HighBitDepth bool
	TwelveBit    bool
	Monochrome   bool

	ChromaSubsamplingX   uint8
	ChromaSubsamplingY   uint8
	ChromaSamplePosition uint8

	// InitialPresentationDelayMinus1 is meaningful only if
	// InitialPresentationDelayPresent is set.
	InitialPresentationDelayPresent bool
	InitialPresentationDelayMinus1  uint8

	ConfigOBUs []byte
}

func ParseAV1C(b []byte) (*AV1C, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("too short: %d bytes", len(b))
	}
	if b[0]>>7 != 1 {
		return nil, fmt.Errorf("marker bit is not set")
	}
	if b[0]&0x7F != 1 {
		return nil, fmt.Errorf("unsupported version %d", b[0]&0x7F)
	}

	rec := &AV1C{
		Version:      b[0] & 0x7F,
		SeqProfile:   b[1] >> 5,
		SeqLevelIdx0: b[1] & 0x1F,
		SeqTier0:     b[2] >> 7,
		HighBitDepth: b[2]&0x40 != 0,
		TwelveBit:    b[2]&0x20 != 0,
		Monochrome:   b[2]&0x10 != 0,

		ChromaSubsamplingX:   (b[2] >> 3) & 0x01,
		ChromaSubsamplingY:   (b[2] >> 2) & 0x01,
		ChromaSamplePosition: b[2] & 0x03,

		InitialPresentationDelayPresent: b[3]&0x10 != 0,
		ConfigOBUs:                      append([]byte(nil), b[4:]...),
	}
	if rec.InitialPresentationDelayPresent {
		rec.InitialPresentationDelayMinus1 = b[3] & 0x0F
	}
	return rec, nil
}

func (c *AV1C) BitDepth() int {
	switch {
	case !c.HighBitDepth:
		return 8
	case c.SeqProfile == 2 && c.TwelveBit:
		return 12
	default:
		return 10
	}
}

func (c *AV1C) String() string {
	return fmt.Sprintf(
		"AV1C{profile:%d, level:%d, tier:%d, bit_depth:%d, monochrome:%t, config_obus:%dB}",
		c.SeqProfile, c.SeqLevelIdx0, c.SeqTier0, c.BitDepth(), c.Monochrome, len(c.ConfigOBUs),
	)
}
