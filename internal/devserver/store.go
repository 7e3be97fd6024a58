package devserver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

const (
	sessionPrefix = "conversation"
	metadataFile  = "metadata.json"
	titleLimit    = 50
)

// ErrSessionNotFound is returned for unknown or empty sessions.
var ErrSessionNotFound = errors.New("session not found")

// Segment is a generated segment as stored in metadata.json and returned to
// clients.
type Segment struct {
	ID       int    `json:"id"`
	Voice    string `json:"voice"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
	URL      string `json:"url"`
}

// Metadata is the contents of metadata.json.
type Metadata struct {
	Title    string    `json:"title"`
	Segments []Segment `json:"segments"`
}

// Entry is a history listing entry.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Library is the directory holding all sessions.
type Library struct {
	root string
}

// OpenLibrary creates root if needed.
func OpenLibrary(root string) (*Library, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create library: %w", err)
	}
	return &Library{root: root}, nil
}

// Root returns the library directory.
func (l *Library) Root() string { return l.root }

// NextSession creates the first unused conversationN folder and returns its
// name.
func (l *Library) NextSession() (string, error) {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", sessionPrefix, i)
		err := os.Mkdir(filepath.Join(l.root, name), 0o755)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create session dir: %w", err)
		}
	}
}

// Dir returns the folder of session id, refusing ids that escape the root.
func (l *Library) Dir(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return filepath.Join(l.root, id), nil
}

// Load reads the metadata of session id.
func (l *Library) Load(id string) (Metadata, error) {
	dir, err := l.Dir(id)
	if err != nil {
		return Metadata{}, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return Metadata{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var md Metadata
	if err := sonic.Unmarshal(data, &md); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata %s: %w", id, err)
	}
	return md, nil
}

// Append adds segments to session id, creating its metadata with a title
// taken from firstMessage.
func (l *Library) Append(id, firstMessage string, segs []Segment) error {
	md, err := l.Load(id)
	if errors.Is(err, ErrSessionNotFound) {
		md = Metadata{Title: truncate(firstMessage, titleLimit), Segments: []Segment{}}
	} else if err != nil {
		return err
	}
	md.Segments = append(md.Segments, segs...)

	data, err := sonic.ConfigStd.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	dir, _ := l.Dir(id)
	return os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644)
}

// List returns every session, most recently modified first. Sessions
// without readable metadata are titled by their id.
func (l *Library) List() ([]Entry, error) {
	dirs, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("read library: %w", err)
	}

	type item struct {
		Entry
		mtime int64
	}
	var items []item
	for _, d := range dirs {
		if !d.IsDir() || !strings.HasPrefix(d.Name(), sessionPrefix) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		e := Entry{ID: d.Name(), Title: d.Name()}
		if md, err := l.Load(d.Name()); err == nil && md.Title != "" {
			e.Title = md.Title
		}
		items = append(items, item{Entry: e, mtime: info.ModTime().UnixNano()})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].mtime != items[j].mtime {
			return items[i].mtime > items[j].mtime
		}
		return items[i].ID > items[j].ID
	})

	out := make([]Entry, len(items))
	for i, it := range items {
		out[i] = it.Entry
	}
	return out, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
