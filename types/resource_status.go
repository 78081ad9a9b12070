// resource_status.go defines the lifecycle status reported by a decoding resource.

package types

import (
	"fmt"
)

type ResourceStatus int

const (
	UndefinedResourceStatus = ResourceStatus(iota)
	ResourceStatusUnconfigured
	ResourceStatusConfigured
	ResourceStatusClosed
	EndOfResourceStatus
)

func (s ResourceStatus) String() string {
	switch s {
	case UndefinedResourceStatus:
		return "<undefined>"
	case ResourceStatusUnconfigured:
		return "unconfigured"
	case ResourceStatusConfigured:
		return "configured"
	case ResourceStatusClosed:
		return "closed"
	}
	return fmt.Sprintf("unknown_resource_status_%d", int(s))
}
