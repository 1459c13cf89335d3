package zypprepo

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
)

// fileMatcher compiles a shell style pattern for matching base names of files.
func fileMatcher(pattern string) (glob.Glob, error) {
	if pattern == "" {
		pattern = DefaultFilePattern
	}

	return glob.Compile(pattern, '/')
}

func formatKeyValue(key, value, eol string) string {
	return key + "=" + value + eol
}

// lineEnding returns "\r\n" for lines ending that way and "\n" for all others.
func lineEnding(line string) string {
	if strings.HasSuffix(line, "\r\n") {
		return "\r\n"
	}

	return "\n"
}

// validKey rejects keys that would not parse back as the same key.
func validKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	case key != strings.TrimSpace(key):
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidKey, key)
	case strings.ContainsAny(key, "=\r\n"):
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.HasPrefix(key, "[") || strings.HasPrefix(key, "#") || strings.HasPrefix(key, ";"):
		return fmt.Errorf("%w: %q looks like a header or comment", ErrInvalidKey, key)
	}

	return nil
}

// validName rejects section names that can not be written as a header.
func validName(name string) error {
	if strings.TrimSpace(name) == "" || name != strings.TrimSpace(name) || strings.ContainsAny(name, "[]\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if name == mainSection {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}

	return nil
}

// splitDirs splits a reposdir value on any run of whitespace or commas.
func splitDirs(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

func formatMode(m os.FileMode) string {
	return fmt.Sprintf("%03o", uint32(m.Perm()))
}

// lineWriter concatenates lines and only inserts a line break where a line without
// one is followed by more output. Untouched input is reproduced byte for byte.
type lineWriter struct {
	b        strings.Builder
	needsEOL bool
}

func (w *lineWriter) WriteLine(line string) {
	if line == "" {
		return
	}
	if w.needsEOL {
		w.b.WriteString("\n")
	}
	w.b.WriteString(line)
	w.needsEOL = !strings.HasSuffix(line, "\n")
}

func (w *lineWriter) String() string {
	return w.b.String()
}
