// chunk.go defines the encoded input unit submitted to a decoder.

package types

import (
	"fmt"
)

type ChunkType int

const (
	UndefinedChunkType = ChunkType(iota)
	ChunkTypeKey
	ChunkTypeDelta
	EndOfChunkType
)

func (t ChunkType) String() string {
	switch t {
	case UndefinedChunkType:
		return "<undefined>"
	case ChunkTypeKey:
		return "key"
	case ChunkTypeDelta:
		return "delta"
	}
	return fmt.Sprintf("unknown_chunk_type_%d", int(t))
}

// EncodedChunk is a piece of bitstream representing exactly one frame.
//
// The decoder does not retain Data after the Decode call returns.
type EncodedChunk struct {
	Type ChunkType
	Data []byte

	// Timestamp is the presentation timestamp in microseconds relative
	// to the start of the stream.
	Timestamp int64
}

func (c EncodedChunk) IsKey() bool {
	return c.Type == ChunkTypeKey
}

func (c EncodedChunk) String() string {
	return fmt.Sprintf("%s chunk (%d bytes, pts:%dus)", c.Type, len(c.Data), c.Timestamp)
}
