// event.go defines the observations a decode session publishes.

// Package event provides a synchronous, ordered publish/subscribe channel
// for decode session observations (frames, debug traces, warnings, errors).
package event

import (
	"fmt"

	"github.com/xaionaro-go/decodesession/types"
)

type Kind int

const (
	UndefinedKind = Kind(iota)
	KindFrame
	KindDebug
	KindWarning
	KindError
	EndOfKind
)

func (k Kind) String() string {
	switch k {
	case UndefinedKind:
		return "<undefined>"
	case KindFrame:
		return "frame"
	case KindDebug:
		return "debug"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("unknown_event_kind_%d", int(k))
}

type Event interface {
	fmt.Stringer
	Kind() Kind
}

// Frame is published once per decoded output, before the output is
// stored for the pending Decode call.
//
// Subscribers only borrow Output: it is valid until its owner releases it.
type Frame struct {
	Output types.DecodedOutput
}

func (Frame) Kind() Kind { return KindFrame }

func (e Frame) String() string {
	return fmt.Sprintf("frame at time %d", e.Output.Timestamp())
}

type Debug struct {
	Message string
}

func (Debug) Kind() Kind { return KindDebug }

func (e Debug) String() string {
	return e.Message
}

type Warning struct {
	Err error
}

func (Warning) Kind() Kind { return KindWarning }

func (e Warning) String() string {
	return e.Err.Error()
}

type Error struct {
	Err error
}

func (Error) Kind() Kind { return KindError }

func (e Error) String() string {
	return e.Err.Error()
}

var (
	_ Event = Frame{}
	_ Event = Debug{}
	_ Event = Warning{}
	_ Event = Error{}
)
