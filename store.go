package zypprepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/gopasspw/gopass/pkg/set"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Store is a virtual INI file made up of every repo file in every repo directory.
//
// All sections of all files share one namespace keyed by section name. Changes made
// to sections are kept in memory until Commit writes every file that has pending
// changes. The first access loads all files, later accesses reuse what was loaded
// until Reset is called. This gives every repository handled in one run the same
// view of the files and limits the I/O to one read pass and one write pass.
//
// Fields:
// - ConfigFile: Shared zypper config that may set reposdir in its main section
// - DefaultDirs: Repo directories used when the config does not set reposdir
// - FallbackDir: Directory for new repo files when no repo directory exists
// - FilePattern: Pattern for repo file names inside a repo directory
// - Mode: Permission bits every written repo file is forced to
// - NoWrites: If true, Commit does not persist anything (e.g. for tests or noop runs)
// - Fs: Filesystem to operate on, defaults to the OS filesystem
// - Logger: Receives operator facing events like mode changes, defaults to a no-op logger
//
// Note: Store is not thread-safe. Separate Stores share no state.
//
// Usage:
//
//	s := New()
//	s.LoadAll()
//	sect, _ := s.Lookup("repo-oss")
//	_ = sect.Set("enabled", "0")
//	err := s.Commit()
type Store struct {
	ConfigFile  string
	DefaultDirs []string
	FallbackDir string
	FilePattern string
	Mode        os.FileMode
	NoWrites    bool
	Fs          afero.Fs
	Logger      *zap.Logger

	loaded   bool
	files    map[string]*PhysicalFile
	order    []string
	sections map[string]*Section
	dirs     []string
}

// New creates a Store with the standard zypper locations. Nothing is read until the
// Store is first used. The exported fields may be changed before that.
func New() *Store {
	return &Store{
		ConfigFile:  DefaultConfigFile,
		DefaultDirs: []string{DefaultReposDir},
		FallbackDir: DefaultReposDir,
		FilePattern: DefaultFilePattern,
		Mode:        DefaultMode,
		Fs:          afero.NewOsFs(),
		Logger:      zap.NewNop(),
	}
}

// String implements fmt.Stringer for debugging.
func (s *Store) String() string {
	return fmt.Sprintf("Store{Config: %s - Dirs: %v - Fallback: %s - Pattern: %s - Files: %d - Sections: %d}", s.ConfigFile, s.DefaultDirs, s.FallbackDir, s.FilePattern, len(s.files), len(s.sections))
}

func (s *Store) fs() afero.Fs {
	if s.Fs == nil {
		s.Fs = afero.NewOsFs()
	}

	return s.Fs
}

func (s *Store) log() *zap.Logger {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}

	return s.Logger
}

func (s *Store) mode() os.FileMode {
	if s.Mode == 0 {
		return DefaultMode
	}

	return s.Mode
}

func (s *Store) init() {
	if s.files != nil {
		return
	}
	s.files = make(map[string]*PhysicalFile, 16)
	s.sections = make(map[string]*Section, 64)
}

// Reset drops everything that was loaded or staged. The next access reads all
// repo files again.
func (s *Store) Reset() {
	debug.V(1).Log("resetting repo store")

	s.loaded = false
	s.files = nil
	s.order = nil
	s.sections = nil
	s.dirs = nil
}

// Dirs returns the existing repo directories in precedence order. They are
// resolved once and reused until Reset.
func (s *Store) Dirs() []string {
	if s.dirs == nil {
		s.dirs = reposDirs(s.fs(), s.ConfigFile, s.DefaultDirs, s.log())
	}

	return s.dirs
}

// RepoPath returns the file a new section with the given name is created in.
func (s *Store) RepoPath(name string) string {
	return Placement(name, s.Dirs(), s.FallbackDir)
}

// DiscoverFiles lists all repo files in all repo directories. Directories are not
// searched recursively.
func (s *Store) DiscoverFiles() []string {
	g, err := fileMatcher(s.FilePattern)
	if err != nil {
		s.log().Warn("invalid repo file pattern", zap.String("pattern", s.FilePattern), zap.Error(err))

		return nil
	}

	files := make([]string, 0, 16)
	for _, dir := range s.Dirs() {
		entries, err := afero.ReadDir(s.fs(), dir)
		if err != nil {
			debug.V(1).Log("failed to list repo directory %s: %s", dir, err)

			continue
		}
		for _, fi := range entries {
			if fi.IsDir() || !g.Match(fi.Name()) {
				continue
			}
			files = append(files, filepath.Join(dir, fi.Name()))
		}
	}

	debug.V(2).Log("discovered repo files: %v", files)

	return files
}

// LoadAll reads every discovered repo file into the store.
//
// Behavior:
// - Only the first call reads anything, later calls are no-ops until Reset
// - Files that vanished since discovery contribute no sections
// - Files that fail to parse or redefine a section from another file are skipped
// - Never fails, always returns the Store for chaining
func (s *Store) LoadAll() *Store {
	if s.loaded {
		debug.V(3).Log("repo files already loaded")

		return s
	}

	s.init()
	s.loaded = true

	for _, fn := range s.DiscoverFiles() {
		if err := s.read(fn); err != nil {
			s.log().Warn("skipping repo file", zap.String("file", fn), zap.Error(err))
		}
	}

	debug.Log("loaded %d repo sections from %d files", len(s.sections), len(s.files))

	return s
}

// Read adds a single file to the store. Files already known to the store are not
// read again and a missing file is not an error.
func (s *Store) Read(path string) error {
	s.LoadAll()

	return s.read(path)
}

func (s *Store) read(path string) error {
	s.init()

	if _, found := s.files[path]; found {
		debug.V(3).Log("skipping already loaded repo file %s", path)

		return nil
	}

	f, err := LoadFile(s.fs(), path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			debug.V(1).Log("repo file %s vanished, ignoring it", path)

			return nil
		}
		if errors.Is(err, ErrParse) {
			return err
		}

		return fmt.Errorf("failed to read repo file %s: %w", path, err)
	}

	return s.register(f)
}

// register adds all sections of f to the namespace, or none of them if any name is
// already taken by another file.
func (s *Store) register(f *PhysicalFile) error {
	for _, sect := range f.sections {
		if other, found := s.sections[sect.name]; found {
			return fmt.Errorf("%w: %s: section %q is already defined in %s", ErrParse, f.path, sect.name, other.path)
		}
	}

	s.files[f.path] = f
	s.order = append(s.order, f.path)
	for _, sect := range f.sections {
		s.sections[sect.name] = sect
	}
	debug.V(2).Log("loaded repo file %s with %d sections", f.path, len(f.sections))

	return nil
}

// Lookup returns the section with the given name, if any.
func (s *Store) Lookup(name string) (*Section, bool) {
	s.LoadAll()

	sect, found := s.sections[name]

	return sect, found
}

// GetOrCreate returns the section with the given name. If there is none a new, empty
// section is appended to the file returned by pathFn. A nil pathFn uses RepoPath.
func (s *Store) GetOrCreate(name string, pathFn func(string) string) (*Section, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	if sect, found := s.Lookup(name); found {
		return sect, nil
	}

	if pathFn == nil {
		pathFn = s.RepoPath
	}
	path := pathFn(name)

	f, found := s.files[path]
	if !found {
		debug.V(1).Log("creating new repo file %s", path)
		f = &PhysicalFile{path: path}
		s.files[path] = f
		s.order = append(s.order, path)
	}

	sect := f.addSection(name)
	s.sections[name] = sect
	debug.V(1).Log("added section %q to %s", name, path)

	return sect, nil
}

// Sections returns all sections in file order, including the ones flagged for removal.
func (s *Store) Sections() []*Section {
	s.LoadAll()

	out := make([]*Section, 0, len(s.sections))
	for _, path := range s.order {
		out = append(out, s.files[path].sections...)
	}

	return out
}

// Names returns the sorted names of all sections.
func (s *Store) Names() []string {
	s.LoadAll()

	return set.SortedKeys(s.sections)
}

// Files returns all files known to the store in the order they were added.
func (s *Store) Files() []*PhysicalFile {
	s.LoadAll()

	out := make([]*PhysicalFile, 0, len(s.order))
	for _, path := range s.order {
		out = append(out, s.files[path])
	}

	return out
}

// Dirty returns true if any file has changes that were not committed yet.
func (s *Store) Dirty() bool {
	for _, f := range s.files {
		if f.Dirty() {
			return true
		}
	}

	return false
}

// Commit writes every file with pending changes and forces its mode.
//
// Files without changes are not touched at all. The first failure is returned
// immediately. Files written before the failure stay written. After a file was
// written its destroyed sections are gone from the store.
func (s *Store) Commit() error {
	for _, path := range s.order {
		f := s.files[path]
		if !f.Dirty() {
			debug.V(3).Log("no changes for %s", path)

			continue
		}

		if s.NoWrites {
			debug.V(1).Log("not writing changes to %s (NoWrites)", path)

			continue
		}

		if err := f.write(s.fs(), s.mode(), s.log()); err != nil {
			return err
		}

		for _, name := range f.prune() {
			debug.V(1).Log("removed section %q from %s", name, path)
			delete(s.sections, name)
		}
	}

	return nil
}
