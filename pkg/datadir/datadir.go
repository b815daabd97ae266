// Package datadir confines profile access to a configured data directory.
//
// Every filename that reaches the loader from outside (query parameters,
// picker selections) goes through [Resolve] before any file is opened. The
// check is lexical: the candidate path is made absolute and must stay under
// the absolute root followed by a path separator.
package datadir

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/stackgraph/pkg/errors"
)

// Resolve returns the absolute path of filename inside root, or a
// PATH_ESCAPE error if it would escape root.
//
// The rule is: root' = Abs(root) + separator; candidate = Abs(Join(root',
// filename)); accept only if candidate + separator starts with root'. The
// trailing separator on the candidate lets filename "" or "." resolve to the
// root itself while rejecting siblings such as "/profiles-other".
func Resolve(root, filename string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "resolve data directory %s", root)
	}
	prefix := absRoot + string(filepath.Separator)

	candidate, err := filepath.Abs(filepath.Join(prefix, filename))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "resolve %s", filename)
	}
	if !strings.HasPrefix(candidate+string(filepath.Separator), prefix) {
		return "", errors.New(errors.ErrCodePathEscape, "%q escapes the data directory", filename)
	}
	return candidate, nil
}

// Dir is a data directory holding profile files.
type Dir struct {
	Root string
}

// New returns a Dir rooted at root.
func New(root string) Dir { return Dir{Root: root} }

// Path resolves name inside the directory. See [Resolve].
func (d Dir) Path(name string) (string, error) {
	return Resolve(d.Root, name)
}

// ReadFile resolves name and reads the file. Escapes fail before anything is
// opened; a missing file yields FILE_NOT_FOUND and other failures IO_ERROR,
// both wrapping the original os error.
func (d Dir) ReadFile(name string) ([]byte, error) {
	path, err := d.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FromFS(err, name)
	}
	return data, nil
}

// Entry describes one profile file in the data directory.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// List returns the regular files directly inside the directory, most
// recently modified first and by ascending name for equal times.
func (d Dir) List() ([]Entry, error) {
	des, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, errors.FromFS(err, d.Root)
	}

	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	SortEntries(entries)
	return entries, nil
}

// SortEntries orders entries by descending modification time, then by
// ascending name.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := b.ModTime.Compare(a.ModTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
