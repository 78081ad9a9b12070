package main

import (
	"fmt"
	"os"

	"github.com/xaionaro-go/decodesession/session"
	"github.com/xaionaro-go/decodesession/types"
	"gopkg.in/yaml.v3"
)

type config struct {
	Descriptor         string                   `yaml:"descriptor"`
	FrameRate          float64                  `yaml:"frame_rate"`
	SeekResetAt        int                      `yaml:"seek_reset_at"`
	HardwareDeviceType types.HardwareDeviceType `yaml:"hardware_device_type"`
	HardwareDeviceName types.HardwareDeviceName `yaml:"hardware_device_name"`
	Session            session.Config           `yaml:"session"`
}

func defaultConfig() config {
	return config{
		Descriptor:  "video/avc;codec=avc1.64001f",
		FrameRate:   30,
		SeekResetAt: -1,
		Session:     session.DefaultConfig(),
	}
}

func readConfigFile(path string, cfg *config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("unable to parse '%s': %w", path, err)
	}
	return nil
}
