package libav

import (
	"strings"

	"github.com/asticode/go-astiav"
)

// Family is the codec family a codec string belongs to ("avc", "hevc", ...).
type Family string

const (
	FamilyUndefined = Family("")
	FamilyAVC       = Family("avc")
	FamilyHEVC      = Family("hevc")
	FamilyVP8       = Family("vp8")
	FamilyVP9       = Family("vp9")
	FamilyAV1       = Family("av1")
)

var codecIDs = map[Family]astiav.CodecID{
	FamilyAVC:  astiav.CodecIDH264,
	FamilyHEVC: astiav.CodecIDHevc,
	FamilyVP8:  astiav.CodecIDVp8,
	FamilyVP9:  astiav.CodecIDVp9,
	FamilyAV1:  astiav.CodecIDAv1,
}

// FamilyOf maps an RFC 6381 style codec string ("avc1.64001f",
// "vp09.00.10.08", "vp8") to its family by the sample entry before
// the first dot.
func FamilyOf(codec string) Family {
	sampleEntry, _, _ := strings.Cut(codec, ".")
	switch strings.ToLower(sampleEntry) {
	case "avc1", "avc3":
		return FamilyAVC
	case "hvc1", "hev1":
		return FamilyHEVC
	case "vp8":
		return FamilyVP8
	case "vp09":
		return FamilyVP9
	case "av01":
		return FamilyAV1
	}
	return FamilyUndefined
}

// CodecID returns the libav codec ID of a codec string, if it is known.
func CodecID(codec string) (astiav.CodecID, bool) {
	id, ok := codecIDs[FamilyOf(codec)]
	return id, ok
}

// IsCodecSupported reports whether libav has a decoder for the codec string.
func IsCodecSupported(codec string) bool {
	id, ok := CodecID(codec)
	if !ok {
		return false
	}
	return astiav.FindDecoder(id) != nil
}
