package session

import (
	"go.uber.org/atomic"
)

// Statistics is a snapshot of the session counters.
type Statistics struct {
	ChunksSubmitted         uint64 `json:",omitempty"`
	BytesSubmitted          uint64 `json:",omitempty"`
	OutputsProduced         uint64 `json:",omitempty"`
	OutputsReturned         uint64 `json:",omitempty"`
	OutputsDiscarded        uint64 `json:",omitempty"`
	Timeouts                uint64 `json:",omitempty"`
	KeyframeGapDrops        uint64 `json:",omitempty"`
	NotReadyDrops           uint64 `json:",omitempty"`
	SubmissionFailures      uint64 `json:",omitempty"`
	ConfigurationRejections uint64 `json:",omitempty"`
	ResourceRecreations     uint64 `json:",omitempty"`
}

type statistics struct {
	ChunksSubmitted         atomic.Uint64
	BytesSubmitted          atomic.Uint64
	OutputsProduced         atomic.Uint64
	OutputsReturned         atomic.Uint64
	OutputsDiscarded        atomic.Uint64
	Timeouts                atomic.Uint64
	KeyframeGapDrops        atomic.Uint64
	NotReadyDrops           atomic.Uint64
	SubmissionFailures      atomic.Uint64
	ConfigurationRejections atomic.Uint64
	ResourceRecreations     atomic.Uint64
}

func (stats *statistics) Convert() Statistics {
	return Statistics{
		ChunksSubmitted:         stats.ChunksSubmitted.Load(),
		BytesSubmitted:          stats.BytesSubmitted.Load(),
		OutputsProduced:         stats.OutputsProduced.Load(),
		OutputsReturned:         stats.OutputsReturned.Load(),
		OutputsDiscarded:        stats.OutputsDiscarded.Load(),
		Timeouts:                stats.Timeouts.Load(),
		KeyframeGapDrops:        stats.KeyframeGapDrops.Load(),
		NotReadyDrops:           stats.NotReadyDrops.Load(),
		SubmissionFailures:      stats.SubmissionFailures.Load(),
		ConfigurationRejections: stats.ConfigurationRejections.Load(),
		ResourceRecreations:     stats.ResourceRecreations.Load(),
	}
}
