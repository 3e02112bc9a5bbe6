package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maeumlabs/maeum/internal/speaker"
	"github.com/maeumlabs/maeum/pkg/audio"
)

// extractSeniorAudio cuts the senior's segments out of the original WAV file
// and writes them, concatenated, to a temporary file. The returned cleanup
// removes the temp file and is safe to call on every exit path.
//
// Non-WAV inputs cannot be sliced here; the caller falls back to the
// original file and records a limitation.
func extractSeniorAudio(srcPath string, sel speaker.Selection) (path string, cleanup func(), err error) {
	if strings.ToLower(filepath.Ext(srcPath)) != ".wav" {
		return "", nil, fmt.Errorf("senior-only extraction supports wav input, got %s", filepath.Ext(srcPath))
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", nil, fmt.Errorf("open audio: %w", err)
	}
	defer src.Close()

	pcm, err := audio.DecodeWAV(src)
	if err != nil {
		return "", nil, fmt.Errorf("decode audio: %w", err)
	}

	parts := make([]*audio.PCM, 0, len(sel.Segments))
	for _, seg := range sel.Segments {
		if part := pcm.Slice(seg.Start, seg.End); len(part.Samples) > 0 {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("no senior audio inside segment bounds")
	}
	senior, err := audio.Concat(parts)
	if err != nil {
		return "", nil, fmt.Errorf("concat senior segments: %w", err)
	}

	tmp, err := os.CreateTemp("", "maeum-senior-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("create temp audio: %w", err)
	}
	cleanup = func() { os.Remove(tmp.Name()) }

	if err := audio.EncodeWAV(tmp, senior); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("encode senior audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp audio: %w", err)
	}
	return tmp.Name(), cleanup, nil
}
