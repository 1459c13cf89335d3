package zypprepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// DefaultConfigFile is the shared zypper config that may define reposdir.
	DefaultConfigFile = "/etc/zypp/zypp.conf"
	// DefaultReposDir is the standard location of zypper repo files.
	DefaultReposDir = "/etc/zypp/repos.d"
	// DefaultFilePattern matches the repo files inside a repo directory.
	DefaultFilePattern = "*.repo"
	// DefaultMode is the permission every written repo file ends up with.
	DefaultMode os.FileMode = 0o644

	reposdirKey = "reposdir"
	repoFileExt = ".repo"
)

// FindConfValue looks up key in the main section of the zypper config conf.
//
// A missing config, a config that can not be read or parsed, a missing main
// section and a missing key are all reported as not found. Read problems are
// logged since they silently disable any reposdir override.
func FindConfValue(fs afero.Fs, conf, key string) (string, bool) {
	return findConfValue(fs, conf, key, zap.NewNop())
}

func findConfValue(fs afero.Fs, conf, key string, log *zap.Logger) (string, bool) {
	fh, err := fs.Open(conf)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("ignoring zypper config", zap.String("file", conf), zap.Error(fmt.Errorf("%w: %w", ErrConfigRead, err)))
		}
		debug.V(1).Log("failed to open zypper config %s: %s", conf, err)

		return "", false
	}
	defer fh.Close() //nolint:errcheck

	f, err := parseFile(fh, conf, true)
	if err != nil {
		log.Warn("ignoring zypper config", zap.String("file", conf), zap.Error(fmt.Errorf("%w: %w", ErrConfigRead, err)))

		return "", false
	}

	sect := f.Section(mainSection)
	if sect == nil {
		debug.V(1).Log("no [%s] section in %s", mainSection, conf)

		return "", false
	}

	return sect.Get(key)
}

// ReposDirs returns the directories that may contain repo files, in precedence order.
//
// If the main section of conf sets reposdir, its whitespace or comma separated
// entries replace defaults entirely. Only directories that exist are returned.
// An empty result is not an error.
func ReposDirs(fs afero.Fs, conf string, defaults []string) []string {
	return reposDirs(fs, conf, defaults, zap.NewNop())
}

func reposDirs(fs afero.Fs, conf string, defaults []string, log *zap.Logger) []string {
	candidates := defaults
	if v, found := findConfValue(fs, conf, reposdirKey, log); found {
		debug.V(1).Log("using reposdir %q from %s", v, conf)
		candidates = splitDirs(v)
	}

	dirs := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		fi, err := fs.Stat(dir)
		if err != nil || !fi.IsDir() {
			debug.V(2).Log("ignoring missing repo directory %s", dir)

			continue
		}
		dirs = append(dirs, dir)
	}

	if len(dirs) == 0 {
		log.Debug("no zypper directories were found on the local filesystem", zap.Strings("candidates", candidates))
	}

	return dirs
}

// Placement decides where a new repo section goes. The last directory wins since
// directories are ordered from the defaults to the most specific one. Without
// any directory the fallback is used even though it may not exist yet.
func Placement(name string, dirs []string, fallback string) string {
	dir := fallback
	if len(dirs) > 0 {
		dir = dirs[len(dirs)-1]
	}

	return filepath.Join(dir, name+repoFileExt)
}
