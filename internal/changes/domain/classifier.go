package domain

import (
	"sort"
	"strings"
)

// Classifier maps changed file paths to the first-level subdirectories of a
// base directory that contain them.
type Classifier struct {
	root          string
	base          string // normalised, no trailing slash, "" for the repository root
	exclude       map[string]struct{}
	caseSensitive bool
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithRoot sets the invocation root used to relativise absolute paths.
func WithRoot(root string) ClassifierOption {
	return func(c *Classifier) {
		c.root = root
	}
}

// WithCaseSensitive disables case folding of the base directory prefix.
func WithCaseSensitive() ClassifierOption {
	return func(c *Classifier) {
		c.caseSensitive = true
	}
}

// NewClassifier creates a classifier for baseDir. A trailing separator on
// baseDir makes no difference.
func NewClassifier(baseDir string, exclude []string, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		exclude: make(map[string]struct{}, len(exclude)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.base = NormalizePath(c.root, baseDir)
	for _, dir := range exclude {
		c.exclude[dir] = struct{}{}
	}
	return c
}

// BaseDir returns the normalised base directory ("" for the repository root).
func (c *Classifier) BaseDir() string {
	return c.base
}

// Classify returns the set of first-level directories under the base
// directory that contain at least one of files. Files outside the base
// directory, files directly inside it, and excluded directories are omitted.
func (c *Classifier) Classify(files []string) DirSet {
	set := NewDirSet()
	for _, f := range files {
		if dir, ok := c.FirstDir(f); ok {
			set.Add(dir)
		}
	}
	return set
}

// FirstDir returns the first-level directory that file belongs to, or false
// if the file does not contribute to the result.
func (c *Classifier) FirstDir(file string) (string, bool) {
	rel, ok := c.relative(NormalizePath(c.root, file))
	if !ok {
		return "", false
	}

	segments := nonEmpty(strings.Split(rel, "/"))
	// A single segment is a file directly inside the base directory.
	if len(segments) < 2 {
		return "", false
	}

	first := segments[0]
	if first == "." || first == ".." {
		return "", false
	}
	if _, excluded := c.exclude[first]; excluded {
		return "", false
	}
	return first, true
}

// relative strips the base directory from a normalised path.
func (c *Classifier) relative(p string) (string, bool) {
	if p == "" || isAbs(p) {
		return "", false
	}
	if c.base == "" {
		return p, true
	}

	prefix := c.base + "/"
	if len(p) <= len(prefix) {
		return "", false
	}
	head := p[:len(prefix)]
	if c.caseSensitive {
		if head != prefix {
			return "", false
		}
	} else if !strings.EqualFold(head, prefix) {
		return "", false
	}
	return p[len(prefix):], true
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DirSet is a set of directory names.
type DirSet struct {
	seen  map[string]struct{}
	order []string
}

// NewDirSet returns an empty set.
func NewDirSet() DirSet {
	return DirSet{seen: make(map[string]struct{})}
}

// Add inserts name, ignoring duplicates.
func (s *DirSet) Add(name string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if s.Contains(name) {
		return
	}
	s.seen[name] = struct{}{}
	s.order = append(s.order, name)
}

// Contains reports whether name is in the set.
func (s DirSet) Contains(name string) bool {
	_, ok := s.seen[name]
	return ok
}

// Len returns the number of directories.
func (s DirSet) Len() int {
	return len(s.order)
}

// Names returns the directories sorted ascending. The result is never nil so
// it encodes as [] rather than null.
func (s DirSet) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	sort.Strings(names)
	return names
}
