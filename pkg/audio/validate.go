package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest recording accepted for analysis.
const MaxFileSize = 100 << 20 // 100 MiB

// ErrInvalidFile is returned when a recording fails upfront validation.
var ErrInvalidFile = errors.New("audio: invalid file")

// supportedExtensions are the container formats the STT and acoustic
// backends accept.
var supportedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// ValidateFile checks that path points to an existing, non-empty recording
// in a supported container that is within the size cap. It returns the file
// size on success.
func ValidateFile(path string) (int64, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return 0, fmt.Errorf("%w: unsupported format %q", ErrInvalidFile, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ErrInvalidFile, path)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: empty file", ErrInvalidFile)
	}
	if info.Size() > MaxFileSize {
		return 0, fmt.Errorf("%w: %d bytes exceeds %d byte limit", ErrInvalidFile, info.Size(), int64(MaxFileSize))
	}
	return info.Size(), nil
}
