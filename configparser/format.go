package configparser

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/xaionaro-go/decodesession/types"
)

// Format renders cfg as a descriptor that Parse maps back to an equal
// configuration (tuning fields are not part of the descriptor).
//
// subtype is the part after "video/"; "avc" is used if it is empty.
func Format(subtype string, cfg types.DecoderConfig) string {
	if subtype == "" {
		subtype = "avc"
	}
	var sb strings.Builder
	sb.WriteString(mediaTypeVideo + subtype)
	fmt.Fprintf(&sb, ";%s=%s", KeyCodec, cfg.Codec)
	for _, item := range []struct {
		Key   string
		Value *uint32
	}{
		{KeyCodedWidth, cfg.CodedWidth},
		{KeyCodedHeight, cfg.CodedHeight},
		{KeyDisplayAspectWidth, cfg.DisplayAspectWidth},
		{KeyDisplayAspectHeight, cfg.DisplayAspectHeight},
	} {
		if item.Value == nil {
			continue
		}
		fmt.Fprintf(&sb, ";%s=%d", item.Key, *item.Value)
	}
	if len(cfg.Description) > 0 {
		fmt.Fprintf(&sb, ";%s=%s", KeyDescription, hex.EncodeToString(cfg.Description))
	}
	return sb.String()
}
