package zypprepo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileMatcher(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		pattern string
		input   string
		want    bool
	}{
		{
			name:  "default pattern matches repo files",
			input: "repo-oss.repo",
			want:  true,
		},
		{
			name:  "default pattern ignores backups",
			input: "repo-oss.repo.rpmsave",
			want:  false,
		},
		{
			name:  "default pattern ignores other extensions",
			input: "repo-oss.conf",
			want:  false,
		},
		{
			name:    "custom pattern",
			pattern: "sles-*.repo",
			input:   "sles-updates.repo",
			want:    true,
		},
		{
			name:    "custom pattern mismatch",
			pattern: "sles-*.repo",
			input:   "opensuse.repo",
			want:    false,
		},
		{
			name:    "star does not cross path separators",
			pattern: "*.repo",
			input:   "nested/x.repo",
			want:    false,
		},
		{
			name:    "alternatives",
			pattern: "*.{repo,list}",
			input:   "extra.list",
			want:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g, err := fileMatcher(tc.pattern)
			require.NoError(t, err)
			assert.Equal(t, tc.want, g.Match(tc.input))
		})
	}

	_, err := fileMatcher("[unterminated")
	require.Error(t, err)
}

func TestSplitDirs(t *testing.T) {
	t.Parallel()

	for in, want := range map[string][]string{
		"":                    {},
		"/a":                  {"/a"},
		"/a /b":               {"/a", "/b"},
		"/a,/b":               {"/a", "/b"},
		" /a ,\t/b,, /c \n":   {"/a", "/b", "/c"},
		"/with-dash,/x_y\r\n": {"/with-dash", "/x_y"},
	} {
		assert.Equal(t, want, splitDirs(in), in)
	}
}

func TestValidKey(t *testing.T) {
	t.Parallel()

	for _, k := range []string{"enabled", "repo_gpgcheck", "x.y", "key with space"} {
		require.NoError(t, validKey(k), k)
	}

	for _, k := range []string{"", " ", " enabled", "enabled ", "a=b", "a\nb", "[a", "#a", ";a"} {
		require.ErrorIs(t, validKey(k), ErrInvalidKey, k)
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()

	for _, n := range []string{"repo-oss", "puppetlabs-products", "SLE Module Basesystem", "main-extra"} {
		require.NoError(t, validName(n), n)
	}

	require.ErrorIs(t, validName("main"), ErrReservedName)
	for _, n := range []string{"", "  ", " a", "a ", "a]", "[a", "a\r"} {
		require.ErrorIs(t, validName(n), ErrInvalidName, n)
	}
}

func TestLineWriter(t *testing.T) {
	t.Parallel()

	var w lineWriter
	w.WriteLine("[a]\n")
	w.WriteLine("")
	w.WriteLine("x=1")
	w.WriteLine("y=2\n")
	w.WriteLine("z=3")
	assert.Equal(t, "[a]\nx=1\ny=2\nz=3", w.String())
}

func TestFormatKeyValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "baseurl=http://example.com/repo\n", formatKeyValue("baseurl", "http://example.com/repo", "\n"))
	assert.Equal(t, "name=\r\n", formatKeyValue("name", "", "\r\n"))
}

func TestLineEnding(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"":        "\n",
		"x=1":     "\n",
		"x=1\n":   "\n",
		"x=1\r\n": "\r\n",
		"x=1\r":   "\n",
	} {
		assert.Equal(t, want, lineEnding(in), in)
	}
}

func TestFormatMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "644", formatMode(0o644))
	assert.Equal(t, "600", formatMode(0o600))
	assert.Equal(t, "755", formatMode(os.ModeDir|0o755))
	assert.Equal(t, "000", formatMode(0))
}
