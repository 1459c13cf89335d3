package zypprepo

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConf = "/etc/zypp/zypp.conf"

func memFs(t *testing.T, dirs []string, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, d := range dirs {
		require.NoError(t, fs.MkdirAll(d, 0o755))
	}
	for fn, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(fn), 0o755))
		require.NoError(t, afero.WriteFile(fs, fn, []byte(content), 0o644))
	}

	return fs
}

func TestFindConfValue(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		files map[string]string
		value string
		found bool
	}{
		{
			name: "missing config",
		},
		{
			name:  "no main section",
			files: map[string]string{testConf: "[other]\nreposdir=/x\n"},
		},
		{
			name:  "main without the key",
			files: map[string]string{testConf: "[main]\narch=x86_64\n"},
		},
		{
			name:  "key in main",
			files: map[string]string{testConf: "## zypp.conf\n[main]\narch = x86_64\nreposdir = /etc/alternate.repos.d\n"},
			value: "/etc/alternate.repos.d",
			found: true,
		},
		{
			name:  "key before any header",
			files: map[string]string{testConf: "reposdir=/srv/repos\n"},
			value: "/srv/repos",
			found: true,
		},
		{
			name:  "keys before and after the main header",
			files: map[string]string{testConf: "arch=x86_64\n[main]\nreposdir=/srv/r\n"},
			value: "/srv/r",
			found: true,
		},
		{
			name:  "main header with a comment",
			files: map[string]string{testConf: "[main] # zypper\nreposdir=/srv/r\n"},
			value: "/srv/r",
			found: true,
		},
		{
			name:  "unparseable config",
			files: map[string]string{testConf: "[main]\nreposdir=/x\nwhat is this\n"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fs := memFs(t, nil, tc.files)
			v, found := FindConfValue(fs, testConf, "reposdir")
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.value, v)
		})
	}
}

func TestReposDirs(t *testing.T) {
	t.Parallel()

	defaults := []string{"/etc/zypp/repos.d"}

	for _, tc := range []struct {
		name     string
		dirs     []string
		reposdir string
		want     []string
	}{
		{
			name: "defaults without reposdir",
			dirs: []string{"/etc/zypp/repos.d"},
			want: []string{"/etc/zypp/repos.d"},
		},
		{
			name:     "reposdir replaces the defaults",
			dirs:     []string{"/etc/zypp/repos.d", "/etc/zypp/extra.repos.d"},
			reposdir: "/etc/zypp/extra.repos.d",
			want:     []string{"/etc/zypp/extra.repos.d"},
		},
		{
			name:     "split by whitespace",
			dirs:     []string{"/etc/zypp/repos.d", "/etc/zypp/extra.repos.d", "/etc/zypp/misc.repos.d"},
			reposdir: "/etc/zypp/repos.d  /etc/zypp/extra.repos.d\t/etc/zypp/misc.repos.d",
			want:     []string{"/etc/zypp/repos.d", "/etc/zypp/extra.repos.d", "/etc/zypp/misc.repos.d"},
		},
		{
			name:     "split by commas",
			dirs:     []string{"/etc/zypp/extra.repos.d", "/etc/zypp/misc.repos.d"},
			reposdir: "/etc/zypp/extra.repos.d,/etc/zypp/misc.repos.d, ",
			want:     []string{"/etc/zypp/extra.repos.d", "/etc/zypp/misc.repos.d"},
		},
		{
			name:     "missing directories are dropped",
			dirs:     []string{"/etc/zypp/repos.d", "/etc/zypp/misc.repos.d"},
			reposdir: "/etc/zypp/extra.repos.d /etc/zypp/misc.repos.d",
			want:     []string{"/etc/zypp/misc.repos.d"},
		},
		{
			name: "nothing exists",
			want: []string{},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			files := map[string]string{}
			if tc.reposdir != "" {
				files[testConf] = "[main]\nreposdir=" + tc.reposdir + "\n"
			}
			fs := memFs(t, tc.dirs, files)
			assert.Equal(t, tc.want, ReposDirs(fs, testConf, defaults))
		})
	}
}

func TestReposDirsImplicitMain(t *testing.T) {
	t.Parallel()

	fs := memFs(t, []string{"/etc/zypp/repos.d", "/srv/r"}, map[string]string{
		testConf: "arch=x86_64\n[main]\nreposdir=/srv/r\n",
	})
	assert.Equal(t, []string{"/srv/r"}, ReposDirs(fs, testConf, []string{"/etc/zypp/repos.d"}))
}

func TestReposDirsIgnoresFiles(t *testing.T) {
	t.Parallel()

	fs := memFs(t, nil, map[string]string{"/etc/zypp/repos.d": "not a directory"})
	assert.Empty(t, ReposDirs(fs, testConf, []string{"/etc/zypp/repos.d"}))
}

func TestPlacement(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/etc/alternate.repos.d/updates.repo",
		Placement("updates", []string{"/etc/zypp/repos.d", "/etc/alternate.repos.d"}, DefaultReposDir))
	assert.Equal(t, "/etc/zypp/repos.d/updates.repo",
		Placement("updates", []string{"/etc/zypp/repos.d"}, "/fallback"))
	assert.Equal(t, "/etc/zypp/repos.d/updates.repo",
		Placement("updates", nil, DefaultReposDir))
	assert.Equal(t, "/fallback/updates.repo",
		Placement("updates", []string{}, "/fallback"))
}
