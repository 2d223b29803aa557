package source

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("not a valid WAV file")

// WAV replays a decoded PCM file. Channel c reads successive frames of file
// channel c modulo the file's channel count and loops at the end, so a mono
// file feeds all four microphones. Not safe for concurrent use.
type WAV struct {
	data       []int
	numChans   int
	sampleRate int
	cursor     []int // next frame index per requested channel
}

// OpenWAV decodes the whole file into memory
func OpenWAV(path string) (*WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding wav: %w", err)
	}

	numChans := int(d.NumChans)
	if numChans == 0 || len(buf.Data) < numChans {
		return nil, fmt.Errorf("%w: no audio frames in %s", ErrInvalidWAV, path)
	}

	log.Printf("WAV source: loaded %s (%d channels, %d Hz, %d frames)",
		path, numChans, d.SampleRate, len(buf.Data)/numChans)

	return &WAV{
		data:       buf.Data,
		numChans:   numChans,
		sampleRate: int(d.SampleRate),
	}, nil
}

// SampleRate returns the file's native sampling frequency
func (w *WAV) SampleRate() int {
	return w.sampleRate
}

// NumChannels returns the file's channel count
func (w *WAV) NumChannels() int {
	return w.numChans
}

func (w *WAV) Read(channel int) float64 {
	if channel < 0 {
		channel = 0
	}
	for len(w.cursor) <= channel {
		w.cursor = append(w.cursor, 0)
	}

	frames := len(w.data) / w.numChans
	frame := w.cursor[channel]
	w.cursor[channel] = (frame + 1) % frames

	return float64(w.data[frame*w.numChans+channel%w.numChans])
}
