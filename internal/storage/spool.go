package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var audioTypes = map[string]string{
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"mp4":  "audio/mp4",
	"m4a":  "audio/mp4",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"webm": "audio/webm",
	"amr":  "audio/amr",
}

// SavedAudio describes one spooled upload. ID is unique per request.
type SavedAudio struct {
	ID          string
	Filename    string
	Path        string
	Format      string
	ContentType string
	Size        int64
}

// AudioSpool writes uploads to a local directory before they go remote.
type AudioSpool struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewAudioSpool(dir string, maxBytes int64) (*AudioSpool, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &AudioSpool{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// FormatFromName returns the normalized extension of an uploaded filename,
// defaulting to wav like the recorder does.
func FormatFromName(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "wav"
	}
	return ext
}

// Save copies r into audio_<unix>_<uuid>.<format>.
func (s *AudioSpool) Save(r io.Reader, format string) (SavedAudio, error) {
	format = strings.ToLower(format)
	contentType, ok := audioTypes[format]
	if !ok {
		return SavedAudio{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidAudio, format)
	}

	id := uuid.New().String()
	name := fmt.Sprintf("audio_%d_%s.%s", s.now().Unix(), id, format)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return SavedAudio{}, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	switch {
	case err != nil:
		err = fmt.Errorf("write %s: %w", path, err)
	case n == 0:
		err = fmt.Errorf("%w: empty payload", ErrInvalidAudio)
	case n > s.maxBytes:
		err = fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		return SavedAudio{}, err
	}

	return SavedAudio{
		ID:          id,
		Filename:    name,
		Path:        path,
		Format:      format,
		ContentType: contentType,
		Size:        n,
	}, nil
}

// Remove deletes a spooled file; a missing file is not an error.
func (s *AudioSpool) Remove(a SavedAudio) error {
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
