// hardware_device_type.go defines the hardware device type a decoder may be bound to.

package types

import (
	"fmt"
	"strings"
)

type HardwareDeviceType int

const (
	// the values match libav's enum AVHWDeviceType:
	HardwareDeviceTypeNone         = HardwareDeviceType(0x0)
	HardwareDeviceTypeVDPAU        = HardwareDeviceType(0x1)
	HardwareDeviceTypeCUDA         = HardwareDeviceType(0x2)
	HardwareDeviceTypeVAAPI        = HardwareDeviceType(0x3)
	HardwareDeviceTypeDXVA2        = HardwareDeviceType(0x4)
	HardwareDeviceTypeQSV          = HardwareDeviceType(0x5)
	HardwareDeviceTypeVideoToolbox = HardwareDeviceType(0x6)
	HardwareDeviceTypeD3D11VA      = HardwareDeviceType(0x7)
	HardwareDeviceTypeDRM          = HardwareDeviceType(0x8)
	HardwareDeviceTypeOpenCL       = HardwareDeviceType(0x9)
	HardwareDeviceTypeMediaCodec   = HardwareDeviceType(0xa)
	HardwareDeviceTypeVulkan       = HardwareDeviceType(0xb)
	endOfHardwareDeviceType        = HardwareDeviceType(0xc)
)

func (t HardwareDeviceType) String() string {
	switch t {
	case HardwareDeviceTypeNone:
		return "none"
	case HardwareDeviceTypeVDPAU:
		return "vdpau"
	case HardwareDeviceTypeCUDA:
		return "cuda"
	case HardwareDeviceTypeVAAPI:
		return "vaapi"
	case HardwareDeviceTypeDXVA2:
		return "dxva2"
	case HardwareDeviceTypeQSV:
		return "qsv"
	case HardwareDeviceTypeVideoToolbox:
		return "videotoolbox"
	case HardwareDeviceTypeD3D11VA:
		return "d3d11va"
	case HardwareDeviceTypeDRM:
		return "drm"
	case HardwareDeviceTypeOpenCL:
		return "opencl"
	case HardwareDeviceTypeMediaCodec:
		return "mediacodec"
	case HardwareDeviceTypeVulkan:
		return "vulkan"
	}
	return fmt.Sprintf("unknown_%X", int64(t))
}

func HardwareDeviceTypeFromString(s string) (HardwareDeviceType, error) {
	s = strings.Trim(strings.ToLower(s), " \"\n\r\t")
	if s == "" {
		return HardwareDeviceTypeNone, nil
	}
	for candidate := HardwareDeviceTypeNone; candidate < endOfHardwareDeviceType; candidate++ {
		if candidate.String() == s {
			return candidate, nil
		}
	}
	return HardwareDeviceTypeNone, fmt.Errorf("unknown hardware device type: '%s'", s)
}

// UnmarshalText makes the type usable in YAML/JSON configs.
func (t *HardwareDeviceType) UnmarshalText(b []byte) error {
	v, err := HardwareDeviceTypeFromString(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t HardwareDeviceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Set implements pflag.Value.
func (t *HardwareDeviceType) Set(s string) error {
	return t.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (t *HardwareDeviceType) Type() string {
	return "hardware-device-type"
}
