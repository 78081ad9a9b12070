package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/xaionaro-go/decodesession/configparser"
	"github.com/xaionaro-go/decodesession/extradata"
	"github.com/xaionaro-go/decodesession/types"
)

type input struct {
	// Descriptor is set if the container describes the stream itself.
	Descriptor string
	Chunks     []types.EncodedChunk
}

func readInput(path string, frameRate float64) (*input, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".mov":
		return readMP4(path)
	default:
		return readAnnexB(path, frameRate)
	}
}

// readAnnexB reads a raw H.264 elementary stream; timestamps are
// synthesized from the frame rate.
func readAnnexB(path string, frameRate float64) (*input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	interval := time.Duration(float64(time.Second) / frameRate)

	in := &input{}
	for au := range extradata.AccessUnits(data) {
		chunk := types.EncodedChunk{
			Type:      types.ChunkTypeDelta,
			Data:      au.Data,
			Timestamp: int64(len(in.Chunks)) * interval.Microseconds(),
		}
		if au.Key {
			chunk.Type = types.ChunkTypeKey
		}
		in.Chunks = append(in.Chunks, chunk)
	}
	if len(in.Chunks) == 0 {
		return nil, fmt.Errorf("no access units found in '%s'", path)
	}
	return in, nil
}

// readMP4 reads the first H.264 track of a progressive MP4 file. The
// samples stay length-prefixed and the avcC record becomes the description.
func readMP4(path string) (*input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	file, err := mp4.DecodeFile(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode '%s': %w", path, err)
	}
	if file.IsFragmented() || file.Moov == nil {
		return nil, fmt.Errorf("only progressive MP4 files are supported")
	}

	var (
		trak  *mp4.TrakBox
		entry *mp4.VisualSampleEntryBox
	)
	for _, candidate := range file.Moov.Traks {
		if candidate.Mdia == nil || candidate.Mdia.Hdlr == nil || candidate.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if candidate.Mdia.Minf == nil || candidate.Mdia.Minf.Stbl == nil || candidate.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		for _, child := range candidate.Mdia.Minf.Stbl.Stsd.Children {
			if visual, ok := child.(*mp4.VisualSampleEntryBox); ok && visual.AvcC != nil {
				trak, entry = candidate, visual
				break
			}
		}
		if trak != nil {
			break
		}
	}
	if trak == nil {
		return nil, fmt.Errorf("no H.264 video track found in '%s'", path)
	}

	var description bytes.Buffer
	if err := entry.AvcC.DecConfRec.Encode(&description); err != nil {
		return nil, fmt.Errorf("unable to encode the avcC record: %w", err)
	}
	rec := entry.AvcC.DecConfRec
	cfg := types.DecoderConfig{
		Codec: fmt.Sprintf("avc1.%02x%02x%02x",
			rec.AVCProfileIndication, rec.ProfileCompatibility, rec.AVCLevelIndication),
		CodedWidth:  types.Ptr(uint32(entry.Width)),
		CodedHeight: types.Ptr(uint32(entry.Height)),
		Description: description.Bytes(),
	}

	timescale := uint64(1000)
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
		timescale = uint64(trak.Mdia.Mdhd.Timescale)
	}

	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil {
		return nil, fmt.Errorf("no stsz box found")
	}
	syncSamples := map[uint32]struct{}{}
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = struct{}{}
		}
	}

	in := &input{
		Descriptor: configparser.Format("avc", cfg),
	}
	for nr := uint32(1); nr <= stbl.Stsz.SampleNumber; nr++ {
		data, err := readSample(stbl, f, nr)
		if err != nil {
			return nil, fmt.Errorf("unable to read sample #%d: %w", nr, err)
		}
		var decodeTime uint64
		if stbl.Stts != nil {
			decodeTime, _ = stbl.Stts.GetDecodeTime(nr)
		}
		chunk := types.EncodedChunk{
			Type:      types.ChunkTypeDelta,
			Data:      data,
			Timestamp: int64(decodeTime * uint64(time.Second/time.Microsecond) / timescale),
		}
		_, isSync := syncSamples[nr]
		if isSync || stbl.Stss == nil {
			chunk.Type = types.ChunkTypeKey
		}
		in.Chunks = append(in.Chunks, chunk)
	}
	return in, nil
}

func readSample(stbl *mp4.StblBox, r io.ReadSeeker, nr uint32) ([]byte, error) {
	if stbl.Stsc == nil {
		return nil, fmt.Errorf("no stsc box found")
	}
	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
	if err != nil {
		return nil, err
	}

	var offset uint64
	switch {
	case stbl.Stco != nil:
		offset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, err
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk #%d is out of range", chunkNr)
		}
		offset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box found")
	}
	for s := uint32(firstSampleInChunk); s < nr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}

	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}
	data := make([]byte, stbl.Stsz.GetSampleSize(int(nr)))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
