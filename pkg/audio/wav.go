// Package audio provides the WAV handling the pipeline needs: decoding
// 16-bit PCM recordings, cutting out the senior's speech segments, and
// re-encoding the concatenation for downstream engines.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotWAV is returned when the input is not a RIFF/WAVE container.
var ErrNotWAV = errors.New("audio: not a WAV file")

// ErrUnsupportedEncoding is returned for WAV files that are not 16-bit
// integer PCM.
var ErrUnsupportedEncoding = errors.New("audio: unsupported WAV encoding")

// PCM is decoded 16-bit PCM audio.
type PCM struct {
	// Samples are interleaved when Channels > 1.
	Samples []int16

	SampleRate int
	Channels   int
}

// Duration returns the playback length of the audio.
func (p *PCM) Duration() time.Duration {
	if p.SampleRate == 0 || p.Channels == 0 {
		return 0
	}
	frames := len(p.Samples) / p.Channels
	return time.Duration(frames) * time.Second / time.Duration(p.SampleRate)
}

// frameIndex converts a timestamp into a frame offset, clamped to the
// audio's bounds.
func (p *PCM) frameIndex(t time.Duration) int {
	frames := len(p.Samples) / p.Channels
	idx := int(t.Seconds() * float64(p.SampleRate))
	if idx < 0 {
		return 0
	}
	if idx > frames {
		return frames
	}
	return idx
}

// Slice returns the audio between start and end. Out-of-range bounds are
// clamped; an inverted range yields empty audio. The returned PCM shares the
// underlying sample slice.
func (p *PCM) Slice(start, end time.Duration) *PCM {
	lo := p.frameIndex(start) * p.Channels
	hi := p.frameIndex(end) * p.Channels
	if hi < lo {
		hi = lo
	}
	return &PCM{
		Samples:    p.Samples[lo:hi],
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
	}
}

// Concat appends all parts into a single PCM stream. Parts must share the
// first part's sample rate and channel count; mismatched parts are rejected.
func Concat(parts []*PCM) (*PCM, error) {
	if len(parts) == 0 {
		return nil, errors.New("audio: concat of zero parts")
	}

	first := parts[0]
	total := 0
	for i, part := range parts {
		if part.SampleRate != first.SampleRate || part.Channels != first.Channels {
			return nil, fmt.Errorf("audio: concat part %d: format mismatch (%dHz/%dch vs %dHz/%dch)",
				i, part.SampleRate, part.Channels, first.SampleRate, first.Channels)
		}
		total += len(part.Samples)
	}

	out := &PCM{
		Samples:    make([]int16, 0, total),
		SampleRate: first.SampleRate,
		Channels:   first.Channels,
	}
	for _, part := range parts {
		out.Samples = append(out.Samples, part.Samples...)
	}
	return out, nil
}

const (
	waveFormatPCM = 1
	bitsPerSample = 16
)

// DecodeWAV reads a RIFF/WAVE stream holding 16-bit integer PCM.
// Chunks other than "fmt " and "data" are skipped.
func DecodeWAV(r io.Reader) (*PCM, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrNotWAV)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		sampleRate int
		channels   int
		haveFmt    bool
	)

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: missing data chunk", ErrNotWAV)
			}
			return nil, fmt.Errorf("audio: read chunk header: %w", err)
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			fmtData := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, fmtData); err != nil {
				return nil, fmt.Errorf("audio: read fmt chunk: %w", err)
			}
			if len(fmtData) < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too small", ErrNotWAV)
			}
			format := binary.LittleEndian.Uint16(fmtData[0:2])
			bits := binary.LittleEndian.Uint16(fmtData[14:16])
			if format != waveFormatPCM || bits != bitsPerSample {
				return nil, fmt.Errorf("%w: format %d, %d bits", ErrUnsupportedEncoding, format, bits)
			}
			channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			if channels == 0 || sampleRate == 0 {
				return nil, fmt.Errorf("%w: zero rate or channels", ErrNotWAV)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt", ErrNotWAV)
			}
			raw := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, fmt.Errorf("audio: read data chunk: %w", err)
			}
			samples := make([]int16, len(raw)/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
			}
			return &PCM{Samples: samples, SampleRate: sampleRate, Channels: channels}, nil

		default:
			// Skip unknown chunks (LIST, fact, ...). Chunk data is padded
			// to even size.
			skip := int64(chunkSize)
			if chunkSize%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("audio: skip %q chunk: %w", chunkID, err)
			}
		}
	}
}

// EncodeWAV writes the PCM stream as a canonical RIFF/WAVE file.
func EncodeWAV(w io.Writer, p *PCM) error {
	if p == nil || p.SampleRate == 0 || p.Channels == 0 {
		return errors.New("audio: encode of empty or malformed PCM")
	}

	dataSize := len(p.Samples) * 2
	blockAlign := p.Channels * bitsPerSample / 8
	byteRate := p.SampleRate * blockAlign

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], waveFormatPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(p.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(p.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("audio: write WAV header: %w", err)
	}

	buf := make([]byte, dataSize)
	for i, s := range p.Samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("audio: write WAV data: %w", err)
	}
	return nil
}
