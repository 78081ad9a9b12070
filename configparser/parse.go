// parse.go converts parameterized MIME-like descriptors into decoder configurations.

// Package configparser converts descriptor strings such as
// "video/avc;codec=avc1.64001f;coded_width=1280;coded_height=720"
// into types.DecoderConfig.
package configparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xaionaro-go/decodesession/types"
)

const (
	KeyCodec               = "codec"
	KeyCodedWidth          = "coded_width"
	KeyCodedHeight         = "coded_height"
	KeyDisplayAspectWidth  = "display_aspect_width"
	KeyDisplayAspectHeight = "display_aspect_height"
	KeyDescription         = "description"

	mediaTypeVideo = "video/"
)

type ErrUnparseable struct {
	Descriptor string
	Reason     string
}

func (e ErrUnparseable) Error() string {
	return fmt.Sprintf("unable to parse decoder descriptor '%s': %s", e.Descriptor, e.Reason)
}

// Parse returns the configuration described by descriptor, or ErrUnparseable.
//
// Malformed optional parameters never fail the parse: a dimension that is
// zero or not a number is left absent, and a malformed description is
// truncated to its longest valid prefix.
func Parse(descriptor string) (*types.DecoderConfig, error) {
	parts := strings.Split(descriptor, ";")
	if len(parts) < 2 {
		return nil, ErrUnparseable{Descriptor: descriptor, Reason: "no parameters"}
	}
	if !isVideoMediaType(parts[0]) {
		return nil, ErrUnparseable{Descriptor: descriptor, Reason: fmt.Sprintf("'%s' is not a video media type", parts[0])}
	}

	params := parseParams(parts[1:])
	codec := params[KeyCodec]
	if codec == "" {
		return nil, ErrUnparseable{Descriptor: descriptor, Reason: "the 'codec' parameter is missing"}
	}

	cfg := &types.DecoderConfig{
		Codec:               codec,
		CodedWidth:          parseDimension(params[KeyCodedWidth]),
		CodedHeight:         parseDimension(params[KeyCodedHeight]),
		DisplayAspectWidth:  parseDimension(params[KeyDisplayAspectWidth]),
		DisplayAspectHeight: parseDimension(params[KeyDisplayAspectHeight]),
	}
	if v, ok := params[KeyDescription]; ok {
		cfg.Description = DecodeHex(v)
	}
	return cfg, nil
}

func isVideoMediaType(s string) bool {
	subtype, ok := strings.CutPrefix(s, mediaTypeVideo)
	return ok && subtype != ""
}

func parseParams(segments []string) map[string]string {
	params := make(map[string]string, len(segments))
	for _, segment := range segments {
		words := strings.Split(segment, "=")
		if len(words) < 2 {
			continue
		}
		key, value := words[0], words[1]
		if key == "" || value == "" {
			continue
		}
		params[key] = value
	}
	return params
}

// parseDimension returns nil for an empty, zero, negative or non-numeric value.
func parseDimension(s string) *uint32 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return nil
	}
	return types.Ptr(uint32(v))
}
