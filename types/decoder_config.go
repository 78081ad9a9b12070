// decoder_config.go defines the configuration a decoder is set up with.

// Package types provides the data model shared by the decodesession packages.
package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

type HardwareAcceleration int

const (
	HardwareAccelerationNoPreference = HardwareAcceleration(iota)
	HardwareAccelerationPreferHardware
	HardwareAccelerationPreferSoftware
)

func (h HardwareAcceleration) String() string {
	switch h {
	case HardwareAccelerationNoPreference:
		return "no-preference"
	case HardwareAccelerationPreferHardware:
		return "prefer-hardware"
	case HardwareAccelerationPreferSoftware:
		return "prefer-software"
	}
	return fmt.Sprintf("unknown_hardware_acceleration_%d", int(h))
}

// DecoderConfig describes a video stream well enough to set up a decoder.
//
// Optional fields are nil when absent; a present dimension is always positive.
type DecoderConfig struct {
	Codec string

	CodedWidth          *uint32
	CodedHeight         *uint32
	DisplayAspectWidth  *uint32
	DisplayAspectHeight *uint32

	// Description is the out-of-band initialization data (for example
	// an AVCDecoderConfigurationRecord for "avc1" streams).
	Description []byte

	OptimizeForLatency   bool
	HardwareAcceleration HardwareAcceleration
}

// Clone returns a deep copy, so that the copy may be adjusted freely.
func (cfg DecoderConfig) Clone() DecoderConfig {
	cpy := cfg
	cpy.CodedWidth = clonePtr(cfg.CodedWidth)
	cpy.CodedHeight = clonePtr(cfg.CodedHeight)
	cpy.DisplayAspectWidth = clonePtr(cfg.DisplayAspectWidth)
	cpy.DisplayAspectHeight = clonePtr(cfg.DisplayAspectHeight)
	if cfg.Description != nil {
		cpy.Description = bytes.Clone(cfg.Description)
	}
	return cpy
}

func (cfg DecoderConfig) Validate() error {
	if cfg.Codec == "" {
		return fmt.Errorf("codec is not set")
	}
	for name, v := range map[string]*uint32{
		"coded_width":           cfg.CodedWidth,
		"coded_height":          cfg.CodedHeight,
		"display_aspect_width":  cfg.DisplayAspectWidth,
		"display_aspect_height": cfg.DisplayAspectHeight,
	} {
		if v != nil && *v == 0 {
			return fmt.Errorf("%s is present but zero", name)
		}
	}
	return nil
}

func (cfg DecoderConfig) String() string {
	var parts []string
	parts = append(parts, "codec:"+cfg.Codec)
	if cfg.CodedWidth != nil || cfg.CodedHeight != nil {
		parts = append(parts, fmt.Sprintf("coded:%sx%s", optString(cfg.CodedWidth), optString(cfg.CodedHeight)))
	}
	if cfg.DisplayAspectWidth != nil || cfg.DisplayAspectHeight != nil {
		parts = append(parts, fmt.Sprintf("aspect:%s:%s", optString(cfg.DisplayAspectWidth), optString(cfg.DisplayAspectHeight)))
	}
	if cfg.Description != nil {
		parts = append(parts, "description:"+hex.EncodeToString(cfg.Description))
	}
	parts = append(parts,
		fmt.Sprintf("low_latency:%t", cfg.OptimizeForLatency),
		"hw:"+cfg.HardwareAcceleration.String(),
	)
	return "DecoderConfig{" + strings.Join(parts, "; ") + "}"
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	return Ptr(*v)
}

func optString(v *uint32) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *v)
}
