package session

import (
	"fmt"

	"github.com/xaionaro-go/decodesession/types"
)

// State is the combined view of the decoder lifecycle and the keyframe gate.
//
// Both parts are always published together, so an observer never sees a
// configured decoder paired with a keyframe flag left over from another stream.
type State struct {
	Status       types.ResourceStatus
	KeyframeSeen bool
}

func (s State) IsReady() bool {
	return s.Status == types.ResourceStatusConfigured
}

func (s State) String() string {
	return fmt.Sprintf("%s(keyframe:%t)", s.Status, s.KeyframeSeen)
}
