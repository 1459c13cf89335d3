package zypprepo

import (
	"fmt"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
)

// entry is a single line of a section. Comment and blank lines have an empty key
// and are only ever emitted verbatim.
type entry struct {
	key     string
	value   *string
	raw     string // original line including its line terminator, empty for new keys
	eol     string // terminator for new keys
	touched bool   // set through the Section API, must be re-rendered
}

func (e *entry) render() string {
	if e.key == "" || !e.touched {
		return e.raw
	}

	if e.value == nil {
		return ""
	}

	eol := e.eol
	if e.raw != "" {
		eol = lineEnding(e.raw)
	}

	return formatKeyValue(e.key, *e.value, eol)
}

// Entry is a key/value pair as seen by callers of Section.Entries.
type Entry struct {
	Key   string
	Value string
}

// Section is one [name] block of a repo file.
//
// A Section records every change made through Set and Unset in memory only. Nothing
// is written until the owning Store commits. Lines that were never touched keep their
// original text, including spacing and inline formatting.
//
// Note: Section is not thread-safe.
type Section struct {
	name     string
	path     string
	header   string // original header line, "[name]\n" for new sections
	implicit bool   // keys before the first header of zypp.conf, rendered without header
	entries  []*entry
	dirty    bool
	destroy  bool
}

func newSection(name, path string) *Section {
	return &Section{
		name:   name,
		path:   path,
		header: "[" + name + "]\n",
	}
}

// Name returns the section name, i.e. the repository alias.
func (s *Section) Name() string {
	return s.name
}

// Path returns the file this section is persisted to.
func (s *Section) Path() string {
	return s.path
}

// Get returns the value of the first entry for key. Keys that were never set or
// that were unset report false.
func (s *Section) Get(key string) (string, bool) {
	e := s.find(key)
	if e == nil || e.value == nil {
		return "", false
	}

	return *e.value, true
}

// Set updates the first entry for key in place or appends a new entry at the end
// of the section.
//
// Setting a key to the value it already has is a no-op and does not mark the
// section dirty.
func (s *Section) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: value for %q contains a line break", ErrInvalidKey, key)
	}

	if e := s.find(key); e != nil {
		if e.value != nil && *e.value == value {
			debug.V(1).Log("[%s] key %q with value %q already present. Not re-writing.", s.name, key, value)

			return nil
		}

		debug.V(3).Log("[%s] updating %q to %q", s.name, key, value)
		e.value = &value
		e.touched = true
		s.dirty = true

		return nil
	}

	debug.V(3).Log("[%s] inserting %q = %q", s.name, key, value)
	s.entries = append(s.entries, &entry{key: key, value: &value, eol: s.lineEnding(), touched: true})
	s.dirty = true

	return nil
}

// Unset removes key from the section. The entry keeps its position so a later Set
// puts the key back where it was. Unsetting a missing key is a no-op.
func (s *Section) Unset(key string) {
	e := s.find(key)
	if e == nil || e.value == nil {
		return
	}

	debug.V(3).Log("[%s] removing %q", s.name, key)
	e.value = nil
	e.touched = true
	s.dirty = true
}

// Keys returns all keys that currently have a value, in file order.
func (s *Section) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		if e.key == "" || e.value == nil {
			continue
		}
		keys = append(keys, e.key)
	}

	return keys
}

// Entries returns all key/value pairs that currently have a value, in file order.
func (s *Section) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.key == "" || e.value == nil {
			continue
		}
		out = append(out, Entry{Key: e.key, Value: *e.value})
	}

	return out
}

// Destroy flags the whole section for removal on the next commit.
func (s *Section) Destroy() {
	debug.V(1).Log("[%s] marked for removal from %s", s.name, s.path)
	s.destroy = true
}

// Destroyed returns true if the section will be dropped on the next commit.
func (s *Section) Destroyed() bool {
	return s.destroy
}

// Dirty returns true if the section has changes that were not committed yet.
func (s *Section) Dirty() bool {
	return s.dirty
}

func (s *Section) find(key string) *entry {
	for _, e := range s.entries {
		if e.key != "" && e.key == key {
			return e
		}
	}

	return nil
}

// lineEnding returns the terminator new keys get. It follows the header, or the
// first line of a section without one.
func (s *Section) lineEnding() string {
	if !s.implicit {
		return lineEnding(s.header)
	}
	for _, e := range s.entries {
		if e.raw != "" {
			return lineEnding(e.raw)
		}
	}

	return "\n"
}

func (s *Section) format(w *lineWriter) {
	if s.destroy {
		return
	}
	if !s.implicit {
		w.WriteLine(s.header)
	}
	for _, e := range s.entries {
		w.WriteLine(e.render())
	}
}

// markClean folds all touched entries into their raw text after a successful write.
func (s *Section) markClean() {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.touched {
			if e.value == nil {
				continue
			}
			e.raw = e.render()
			e.touched = false
		}
		kept = append(kept, e)
	}
	s.entries = kept
	s.dirty = false
}
