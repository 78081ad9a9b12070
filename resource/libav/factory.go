// Package libav implements a decoding resource on top of the libav
// (FFmpeg) decoders.
package libav

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/decodesession/logger"
	"github.com/xaionaro-go/decodesession/resource"
	"github.com/xaionaro-go/decodesession/types"
)

type Factory struct {
	// HardwareDeviceType is the device used unless the configuration
	// prefers software decoding; HardwareDeviceTypeNone disables it.
	HardwareDeviceType types.HardwareDeviceType
	HardwareDeviceName types.HardwareDeviceName
}

var _ resource.Factory = (*Factory)(nil)

func NewFactory(
	hwDevType types.HardwareDeviceType,
	hwDevName types.HardwareDeviceName,
) *Factory {
	return &Factory{
		HardwareDeviceType: hwDevType,
		HardwareDeviceName: hwDevName,
	}
}

func (f *Factory) String() string {
	if f.HardwareDeviceType == types.HardwareDeviceTypeNone {
		return "libav"
	}
	return fmt.Sprintf("libav(%s:%s)", f.HardwareDeviceType, f.HardwareDeviceName)
}

func (f *Factory) NewResource(
	ctx context.Context,
	callbacks resource.Callbacks,
) (_ret resource.Resource, _err error) {
	logger.Debugf(ctx, "NewResource")
	defer func() { logger.Debugf(ctx, "/NewResource: %v", _err) }()
	return newResource(ctx, f, callbacks), nil
}
