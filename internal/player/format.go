package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Format describes the PCM layout of an audio buffer: little-endian
// signed integer samples, interleaved by channel.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is the playback format used when a buffer carries no
// header of its own.
func DefaultFormat() Format {
	return Format{SampleRate: 44100, Channels: 2, BitDepth: 16}
}

// Validate checks the format against what the audio device supports.
func (f Format) Validate() error {
	if f.SampleRate != 44100 && f.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", f.Channels)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("bit depth must be 16, got %d", f.BitDepth)
	}
	return nil
}

// BytesPerFrame returns the byte size of one sample across all channels.
func (f Format) BytesPerFrame() int {
	return f.BitDepth / 8 * f.Channels
}

// Duration returns the playing time of n PCM bytes.
func (f Format) Duration(n int) time.Duration {
	frame := f.BytesPerFrame()
	if f.SampleRate == 0 || frame == 0 {
		return 0
	}
	frames := n / frame
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Silence returns d worth of silent PCM in this format.
func Silence(f Format, d time.Duration) []byte {
	frames := int(d * time.Duration(f.SampleRate) / time.Second)
	return make([]byte, frames*f.BytesPerFrame())
}

// ErrNotWAV reports that a buffer has no RIFF/WAVE header and should be
// treated as raw PCM.
var ErrNotWAV = errors.New("buffer is not a wav file")

const wavHeaderLen = 12

// DecodeWAV parses a WAV file, returning its format and the raw PCM
// payload. Only uncompressed PCM is supported.
func DecodeWAV(data []byte) (Format, []byte, error) {
	if len(data) < wavHeaderLen ||
		string(data[0:4]) != "RIFF" ||
		string(data[8:12]) != "WAVE" {
		return Format{}, nil, ErrNotWAV
	}

	var f Format
	var fmtSeen bool
	off := wavHeaderLen
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return Format{}, nil, fmt.Errorf("wav: chunk %q overruns file", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Format{}, nil, errors.New("wav: fmt chunk too short")
			}
			codec := binary.LittleEndian.Uint16(data[body:])
			if codec != 1 {
				return Format{}, nil, fmt.Errorf("wav: unsupported codec %d, want PCM", codec)
			}
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			f.BitDepth = int(binary.LittleEndian.Uint16(data[body+14:]))
			fmtSeen = true

		case "data":
			if !fmtSeen {
				return Format{}, nil, errors.New("wav: data chunk before fmt chunk")
			}
			return f, data[body : body+size], nil
		}

		// Chunks are word aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}
	return Format{}, nil, errors.New("wav: no data chunk")
}

// pcmPayload resolves a buffer against the player's format: WAV buffers
// must match it, raw buffers are assumed to already be in it.
func pcmPayload(data []byte, want Format) ([]byte, error) {
	format, pcm, err := DecodeWAV(data)
	if errors.Is(err, ErrNotWAV) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if format != want {
		return nil, fmt.Errorf("track format %+v does not match device format %+v", format, want)
	}
	return pcm, nil
}
