// Package attachment loads reference files for generation requests and
// watches them for changes.
package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashtra-audio/ashtra/internal/session"
	"github.com/gabriel-vasile/mimetype"
	"github.com/mitchellh/go-homedir"
)

// MaxSize is the largest file that will be attached.
const MaxSize = 20 << 20

var (
	// ErrTooLarge is returned for files above MaxSize.
	ErrTooLarge = errors.New("attachment too large")
	// ErrNotRegular is returned for directories and other non-regular files.
	ErrNotRegular = errors.New("attachment is not a regular file")
)

// Resolve expands ~ and makes path absolute.
func Resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("empty attachment path")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return abs, nil
}

// Load reads the file at path and encodes it as a data URL.
func Load(path string) (*session.Attachment, error) {
	abs, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotRegular)
	}
	if info.Size() > MaxSize {
		return nil, fmt.Errorf("%s is %d bytes: %w", abs, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return Encode(filepath.Base(abs), abs, data), nil
}

// Encode builds an attachment from raw bytes.
func Encode(name, path string, data []byte) *session.Attachment {
	mime := MediaType(data)
	return &session.Attachment{
		Name:    name,
		Path:    path,
		MIME:    mime,
		DataURL: DataURL(mime, data),
		Size:    int64(len(data)),
	}
}

// MediaType sniffs the media type of data without parameters.
func MediaType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}

// DataURL returns data:<mime>;base64,<payload>.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
