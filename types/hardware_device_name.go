// hardware_device_name.go defines the name of a concrete hardware device (e.g. "/dev/dri/renderD128").

package types

type HardwareDeviceName string
