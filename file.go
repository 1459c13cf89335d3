package zypprepo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const mainSection = "main"

// PhysicalFile is a single INI file on disk and the sections it holds.
//
// Lines before the first section header are kept verbatim in the preamble.
// Sections keep the order of the original file, new sections are appended.
type PhysicalFile struct {
	path     string
	preamble []string
	sections []*Section
	loaded   bool // read from disk, as opposed to created by the store
}

// Path returns the location of the file.
func (f *PhysicalFile) Path() string {
	return f.path
}

// Sections returns all sections of this file, including destroyed ones that were
// not committed yet.
func (f *PhysicalFile) Sections() []*Section {
	return f.sections
}

// Section returns the section with the given name, if any.
func (f *PhysicalFile) Section(name string) *Section {
	for _, s := range f.sections {
		if s.name == name {
			return s
		}
	}

	return nil
}

// Dirty returns true if any section of this file changed or is to be removed.
func (f *PhysicalFile) Dirty() bool {
	for _, s := range f.sections {
		if s.dirty || s.destroy {
			return true
		}
	}

	return false
}

// Format renders the file. A file without changes renders to its original bytes.
func (f *PhysicalFile) Format() string {
	var w lineWriter
	for _, line := range f.preamble {
		w.WriteLine(line)
	}
	for _, s := range f.sections {
		s.format(&w)
	}

	return w.String()
}

func (f *PhysicalFile) addSection(name string) *Section {
	s := newSection(name, f.path)
	s.dirty = true
	f.sections = append(f.sections, s)

	return s
}

// prune drops destroyed sections and marks the rest clean. It returns the names of
// the sections that were dropped.
func (f *PhysicalFile) prune() []string {
	var dropped []string
	kept := f.sections[:0]
	for _, s := range f.sections {
		if s.destroy {
			dropped = append(dropped, s.name)

			continue
		}
		s.markClean()
		kept = append(kept, s)
	}
	f.sections = kept

	return dropped
}

// write persists the file and forces its permissions to mode.
func (f *PhysicalFile) write(fs afero.Fs, mode os.FileMode, log *zap.Logger) error {
	// only files we created ourselves get their directory created. A repo file
	// whose directory vanished since it was read is an error.
	if !f.loaded {
		dir := filepath.Dir(f.path)
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: failed to create directory %q for %q: %w", ErrWrite, dir, f.path, err)
		}
	}

	content := f.Format()
	debug.V(3).Log("writing repo file to %s: \n--------------\n%s\n--------------", f.path, content)

	if err := afero.WriteFile(fs, f.path, []byte(content), mode); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, f.path, err)
	}
	f.loaded = true

	debug.V(1).Log("wrote repo file to %s", f.path)

	return enforceMode(fs, f.path, mode, log)
}

func enforceMode(fs afero.Fs, path string, mode os.FileMode, log *zap.Logger) error {
	fi, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	current := fi.Mode().Perm()
	if current == mode.Perm() {
		return nil
	}

	log.Info("changing mode of repo file",
		zap.String("file", path),
		zap.String("from", formatMode(current)),
		zap.String("to", formatMode(mode)),
	)

	if err := fs.Chmod(path, mode.Perm()); err != nil {
		return fmt.Errorf("%w: failed to change mode of %s: %w", ErrWrite, path, err)
	}

	return nil
}

// LoadFile reads and parses the repo file at path. Errors from opening the file are
// returned unwrapped so callers can check for os.ErrNotExist.
func LoadFile(fs afero.Fs, path string) (*PhysicalFile, error) {
	fh, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close() //nolint:errcheck

	f, err := parseFile(fh, path, false)
	if err != nil {
		return nil, err
	}
	f.loaded = true

	return f, nil
}

// ParseFile parses a repo file from the given reader. The path is only recorded,
// it is not accessed.
func ParseFile(r io.Reader, path string) (*PhysicalFile, error) {
	return parseFile(r, path, false)
}

// parseFile implements the small INI subset used by zypper. Every line is kept
// unaltered so untouched content can be reproduced exactly. With implicitMain
// key lines before the first header belong to a headerless main section, which
// is how the shared zypp.conf may be written. A [main] header directly following
// them continues that section. Repo files have no such section.
func parseFile(in io.Reader, path string, implicitMain bool) (*PhysicalFile, error) {
	f := &PhysicalFile{path: path}

	r := bufio.NewReader(in)

	var cur *Section
	mainHeader := false
	lineNo := 0
	for {
		fullLine, err := r.ReadString('\n')
		if fullLine == "" && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
		}
		lineNo++

		line := strings.TrimSpace(fullLine)

		// comments and blank lines
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			if cur == nil {
				f.preamble = append(f.preamble, fullLine)

				continue
			}
			cur.entries = append(cur.entries, &entry{raw: fullLine})

			continue
		}

		// section headers
		if strings.HasPrefix(line, "[") {
			name, ok := parseSectionHeader(line)
			if !ok {
				return nil, fmt.Errorf("%w: %s:%d: malformed section header %q", ErrParse, path, lineNo, line)
			}
			if prev := f.Section(name); prev != nil {
				// zypp.conf may carry main keys both before and after its [main] header
				if prev.implicit && prev == cur && !mainHeader {
					mainHeader = true
					cur.entries = append(cur.entries, &entry{raw: fullLine})

					continue
				}

				return nil, fmt.Errorf("%w: %s:%d: section %q is already defined, cannot redefine", ErrParse, path, lineNo, name)
			}
			cur = &Section{name: name, path: path, header: fullLine}
			f.sections = append(f.sections, cur)

			continue
		}

		k, v, found := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if !found || k == "" {
			return nil, fmt.Errorf("%w: %s:%d: can not understand line %q", ErrParse, path, lineNo, line)
		}

		if cur == nil {
			if !implicitMain {
				return nil, fmt.Errorf("%w: %s:%d: property %q outside of a section", ErrParse, path, lineNo, k)
			}
			cur = &Section{name: mainSection, path: path, implicit: true}
			f.sections = append(f.sections, cur)
		}

		v = strings.TrimSpace(v)
		cur.entries = append(cur.entries, &entry{key: k, value: &v, raw: fullLine})
	}

	debug.V(3).Log("parsed %s: %d sections", path, len(f.sections))

	return f, nil
}

// parseSectionHeader takes the name between the opening bracket and the first
// closing bracket. Anything after that, like a trailing comment, is ignored.
func parseSectionHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, "[") {
		return "", false
	}

	name, _, found := strings.Cut(line[1:], "]")
	if !found {
		return "", false
	}

	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "[") {
		return "", false
	}

	return name, true
}
