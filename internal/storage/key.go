package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	// ImageDir holds album covers and album images.
	ImageDir = "images"
	// ProfileDir holds profile pictures.
	ProfileDir = "profile_pics"
)

// NewObjectKey builds a unique object key under dir that keeps a readable
// version of the uploaded filename.
func NewObjectKey(dir, filename string) string {
	name := sanitizeFilename(filename)
	if name == "" {
		name = "upload"
	}
	return path.Join(dir, uuid.NewString()+"-"+name)
}

func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), ".")
}
