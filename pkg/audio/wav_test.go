package audio

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func sine(frames int) []int16 {
	samples := make([]int16, frames)
	for i := range samples {
		samples[i] = int16((i % 100) * 300)
	}
	return samples
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := &PCM{Samples: sine(16000), SampleRate: 16000, Channels: 1}

	var buf bytes.Buffer
	if err := EncodeWAV(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeWAV(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SampleRate != src.SampleRate || got.Channels != src.Channels {
		t.Errorf("format = %d Hz %d ch, want %d Hz %d ch",
			got.SampleRate, got.Channels, src.SampleRate, src.Channels)
	}
	if len(got.Samples) != len(src.Samples) {
		t.Fatalf("sample count = %d, want %d", len(got.Samples), len(src.Samples))
	}
	for i := range got.Samples {
		if got.Samples[i] != src.Samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got.Samples[i], src.Samples[i])
		}
	}
	if got.Duration() != time.Second {
		t.Errorf("duration = %v, want 1s", got.Duration())
	}
}

func TestDecodeWAV_SkipsUnknownChunks(t *testing.T) {
	src := &PCM{Samples: sine(100), SampleRate: 8000, Channels: 1}
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, src); err != nil {
		t.Fatal(err)
	}

	// Splice a LIST chunk between the fmt and data chunks.
	raw := buf.Bytes()
	list := append([]byte("LIST"), 0x04, 0, 0, 0, 'I', 'N', 'F', 'O')
	spliced := append(append(append([]byte{}, raw[:36]...), list...), raw[36:]...)
	// Fix the RIFF size for the added bytes.
	spliced[4] += byte(len(list))

	got, err := DecodeWAV(bytes.NewReader(spliced))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Samples) != 100 {
		t.Errorf("sample count = %d, want 100", len(got.Samples))
	}
}

func TestDecodeWAV_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "empty", data: nil, want: ErrNotWAV},
		{name: "not riff", data: []byte("ID3\x03 definitely not a wav file at all"), want: ErrNotWAV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeWAV(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeWAV_RejectsFloatPCM(t *testing.T) {
	src := &PCM{Samples: sine(10), SampleRate: 8000, Channels: 1}
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, src); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	raw[20] = 3 // IEEE float format tag

	_, err := DecodeWAV(bytes.NewReader(raw))
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("err = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestSlice(t *testing.T) {
	p := &PCM{Samples: sine(8000), SampleRate: 8000, Channels: 1}

	got := p.Slice(250*time.Millisecond, 750*time.Millisecond)
	if len(got.Samples) != 4000 {
		t.Errorf("sample count = %d, want 4000", len(got.Samples))
	}
	if got.Duration() != 500*time.Millisecond {
		t.Errorf("duration = %v, want 500ms", got.Duration())
	}

	// Bounds clamp instead of panicking.
	whole := p.Slice(-time.Second, time.Hour)
	if len(whole.Samples) != len(p.Samples) {
		t.Errorf("clamped slice = %d samples, want all %d", len(whole.Samples), len(p.Samples))
	}

	inverted := p.Slice(time.Second, 0)
	if len(inverted.Samples) != 0 {
		t.Errorf("inverted slice = %d samples, want 0", len(inverted.Samples))
	}
}

func TestConcat(t *testing.T) {
	a := &PCM{Samples: sine(100), SampleRate: 8000, Channels: 1}
	b := &PCM{Samples: sine(50), SampleRate: 8000, Channels: 1}

	got, err := Concat([]*PCM{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Samples) != 150 {
		t.Errorf("sample count = %d, want 150", len(got.Samples))
	}

	mismatched := &PCM{Samples: sine(10), SampleRate: 44100, Channels: 1}
	if _, err := Concat([]*PCM{a, mismatched}); err == nil {
		t.Error("expected error for mismatched sample rates")
	}

	if _, err := Concat(nil); err == nil {
		t.Error("expected error for zero parts")
	}
}
