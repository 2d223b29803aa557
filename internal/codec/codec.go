// Package codec encodes telemetry records field by field into a fixed,
// headerless little-endian byte layout.
//
// Two layouts exist. Packed is the default: no padding, 52 bytes. Aligned
// reproduces the naturally aligned C struct the ESP32/ESP8266 firmware puts
// on air (72 bytes), so a Go receiver can listen to unmodified nodes.
//
//	Packed                     Aligned
//	off  size field            off  size field
//	0    4    device id int32  0    4    device id int32
//	4+12c 8   frequency f64    4    4    padding
//	12+12c 4  loudness f32     8+16c 8   frequency f64
//	                           16+16c 4  loudness f32
//	                           20+16c 4  padding
//
// There is no version tag or checksum: sender and receiver must be
// configured with the same layout.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"acoustic-telemetry/internal/models"
)

var (
	ErrPayloadSize   = errors.New("payload size does not match record layout")
	ErrUnknownLayout = errors.New("unknown wire layout")
)

// Layout describes where each record field lives in the byte sequence
type Layout struct {
	Name        string
	Size        int
	firstBlock  int // offset of channel 0's frequency
	blockStride int // bytes between consecutive channels
	loudnessOff int // loudness offset within a channel block
}

var (
	Packed = Layout{
		Name:        "packed",
		Size:        4 + models.Channels*12,
		firstBlock:  4,
		blockStride: 12,
		loudnessOff: 8,
	}

	Aligned = Layout{
		Name:        "aligned",
		Size:        8 + models.Channels*16,
		firstBlock:  8,
		blockStride: 16,
		loudnessOff: 8,
	}
)

// ByName returns the layout selected by configuration
func ByName(name string) (Layout, error) {
	switch name {
	case "", Packed.Name:
		return Packed, nil
	case Aligned.Name:
		return Aligned, nil
	default:
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
}

// Encode returns a new buffer holding rec
func (l Layout) Encode(rec models.TelemetryRecord) []byte {
	return l.AppendEncode(make([]byte, 0, l.Size), rec)
}

// AppendEncode appends the encoded record to dst. Padding bytes are zero.
func (l Layout) AppendEncode(dst []byte, rec models.TelemetryRecord) []byte {
	start := len(dst)
	for i := 0; i < l.Size; i++ {
		dst = append(dst, 0)
	}
	p := dst[start:]

	binary.LittleEndian.PutUint32(p[0:4], uint32(rec.DeviceID))
	for c, ch := range rec.Channels {
		off := l.firstBlock + c*l.blockStride
		binary.LittleEndian.PutUint64(p[off:off+8], math.Float64bits(ch.Frequency))
		binary.LittleEndian.PutUint32(p[off+l.loudnessOff:off+l.loudnessOff+4], math.Float32bits(ch.Loudness))
	}

	return dst
}

// Decode reproduces a record from exactly Size bytes. Any other length is
// rejected before a field is read.
func (l Layout) Decode(p []byte) (models.TelemetryRecord, error) {
	var rec models.TelemetryRecord
	if len(p) != l.Size {
		return rec, fmt.Errorf("%w: got %d bytes, %s layout needs %d", ErrPayloadSize, len(p), l.Name, l.Size)
	}

	rec.DeviceID = int32(binary.LittleEndian.Uint32(p[0:4]))
	for c := range rec.Channels {
		off := l.firstBlock + c*l.blockStride
		rec.Channels[c].Frequency = math.Float64frombits(binary.LittleEndian.Uint64(p[off : off+8]))
		rec.Channels[c].Loudness = math.Float32frombits(binary.LittleEndian.Uint32(p[off+l.loudnessOff : off+l.loudnessOff+4]))
	}

	return rec, nil
}
