package extradata

import (
	"fmt"
	"iter"
	"strings"
)

type H264NALUnitType uint8

const (
	H264NALUnitTypeUnspecified   = H264NALUnitType(0)
	H264NALUnitTypeNonIDR        = H264NALUnitType(1)
	H264NALUnitTypeDataA         = H264NALUnitType(2)
	H264NALUnitTypeDataB         = H264NALUnitType(3)
	H264NALUnitTypeDataC         = H264NALUnitType(4)
	H264NALUnitTypeIDR           = H264NALUnitType(5)
	H264NALUnitTypeSEI           = H264NALUnitType(6)
	H264NALUnitTypeSPS           = H264NALUnitType(7)
	H264NALUnitTypePPS           = H264NALUnitType(8)
	H264NALUnitTypeAUD           = H264NALUnitType(9)
	H264NALUnitTypeEndOfSequence = H264NALUnitType(10)
	H264NALUnitTypeEndOfStream   = H264NALUnitType(11)
	H264NALUnitTypeFiller        = H264NALUnitType(12)
)

func (t H264NALUnitType) String() string {
	switch t {
	case H264NALUnitTypeNonIDR:
		return "non-IDR"
	case H264NALUnitTypeDataA, H264NALUnitTypeDataB, H264NALUnitTypeDataC:
		return fmt.Sprintf("data-partition-%c", 'A'+rune(t-H264NALUnitTypeDataA))
	case H264NALUnitTypeIDR:
		return "IDR"
	case H264NALUnitTypeSEI:
		return "SEI"
	case H264NALUnitTypeSPS:
		return "SPS"
	case H264NALUnitTypePPS:
		return "PPS"
	case H264NALUnitTypeAUD:
		return "AUD"
	case H264NALUnitTypeEndOfSequence:
		return "end-of-sequence"
	case H264NALUnitTypeEndOfStream:
		return "end-of-stream"
	case H264NALUnitTypeFiller:
		return "filler"
	default:
		return fmt.Sprintf("unknown_type_%d", uint8(t))
	}
}

// IsVCL reports whether the unit carries slice data.
func (t H264NALUnitType) IsVCL() bool {
	return t >= H264NALUnitTypeNonIDR && t <= H264NALUnitTypeIDR
}

// NALU is a single NAL unit without its start code. Raw aliases the
// buffer it was found in.
type NALU struct {
	Raw []byte
}

func (n NALU) Type() H264NALUnitType {
	return H264NALUnitType(n.Raw[0] & 0x1F)
}

// FirstSliceOfPicture reports whether a VCL unit starts a new picture
// (first_mb_in_slice == 0, which is the single bit "1" in Exp-Golomb).
func (n NALU) FirstSliceOfPicture() bool {
	return n.Type().IsVCL() && len(n.Raw) > 1 && n.Raw[1]&0x80 != 0
}

// FindStartCode returns the offset of the next 3- or 4-byte start code
// at or after start, or -1.
func FindStartCode(b []byte, start int) int {
	for i := start; i+3 <= len(b); i++ {
		if b[i] != 0 || b[i+1] != 0 {
			continue
		}
		if b[i+2] == 1 {
			return i
		}
		if i+4 <= len(b) && b[i+2] == 0 && b[i+3] == 1 {
			return i
		}
	}
	return -1
}

func startCodeLen(b []byte, at int) int {
	if b[at+2] == 1 {
		return 3
	}
	return 4
}

// NALUs iterates over the NAL units of an Annex-B stream.
func NALUs(b []byte) iter.Seq[NALU] {
	return func(yield func(NALU) bool) {
		start := FindStartCode(b, 0)
		for start >= 0 {
			payload := start + startCodeLen(b, start)
			next := FindStartCode(b, payload)
			end := next
			if next < 0 {
				end = len(b)
			}
			// trailing_zero_8bits belong to no unit
			for end > payload && b[end-1] == 0 && next >= 0 {
				end--
			}
			if end > payload {
				if !yield(NALU{Raw: b[payload:end]}) {
					return
				}
			}
			start = next
		}
	}
}

// AnnexB is a parsed Annex-B sequence.
type AnnexB struct {
	NALUs []NALU
}

func ParseAnnexB(b []byte) (*AnnexB, error) {
	seq := &AnnexB{}
	for nalu := range NALUs(b) {
		if nalu.Raw[0]&0x80 != 0 {
			return nil, fmt.Errorf("forbidden_zero_bit is set in a %s unit", nalu.Type())
		}
		seq.NALUs = append(seq.NALUs, nalu)
	}
	if len(seq.NALUs) == 0 {
		return nil, fmt.Errorf("no NAL units found")
	}
	return seq, nil
}

func (s *AnnexB) String() string {
	names := make([]string, 0, len(s.NALUs))
	for _, n := range s.NALUs {
		names = append(names, n.Type().String())
	}
	return fmt.Sprintf("AnnexB{%s}", strings.Join(names, ","))
}

// AccessUnit is the Annex-B data of one picture.
type AccessUnit struct {
	Data []byte
	Key  bool
}

// AccessUnits iterates over the H.264 access units of an Annex-B stream.
// An access unit is keyed when it contains an IDR slice. Data aliases b.
func AccessUnits(b []byte) iter.Seq[AccessUnit] {
	return func(yield func(AccessUnit) bool) {
		var (
			cur     AccessUnit
			begin   = -1
			haveVCL bool
		)
		flush := func(end int) bool {
			if begin < 0 || !haveVCL {
				return true
			}
			cur.Data = b[begin:end]
			ok := yield(cur)
			cur, begin, haveVCL = AccessUnit{}, -1, false
			return ok
		}

		start := FindStartCode(b, 0)
		for start >= 0 {
			payload := start + startCodeLen(b, start)
			next := FindStartCode(b, payload)
			if payload < len(b) {
				nalu := NALU{Raw: b[payload:]}
				t := nalu.Type()
				newAU := false
				switch {
				case t == H264NALUnitTypeAUD,
					t == H264NALUnitTypeSPS,
					t == H264NALUnitTypePPS,
					t == H264NALUnitTypeSEI:
					newAU = haveVCL
				case nalu.FirstSliceOfPicture():
					newAU = haveVCL
				}
				if newAU && !flush(start) {
					return
				}
				if begin < 0 {
					begin = start
				}
				if t.IsVCL() {
					haveVCL = true
				}
				if t == H264NALUnitTypeIDR {
					cur.Key = true
				}
			}
			start = next
		}
		flush(len(b))
	}
}
