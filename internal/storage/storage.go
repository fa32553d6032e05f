// Package storage persists uploaded interview audio locally and forwards it
// to the object store the transcription service reads from.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	ErrInvalidAudio = errors.New("invalid audio upload")
	ErrTooLarge     = errors.New("audio upload exceeds size limit")
)

// ObjectStore is the remote side of an upload.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	// URI returns the location handed to the transcription service.
	URI(key string) string
}

// DeriveJobName maps a stored filename to its transcription job name.
// Transcribe only accepts [0-9a-zA-Z._-] in job names.
func DeriveJobName(filename string) string {
	var b strings.Builder
	for _, r := range filename + ".txt" {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
