package zypprepo

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIndependentStores checks that separate Stores on separate directories can be
// used from different goroutines at the same time.
func TestIndependentStores(t *testing.T) {
	t.Parallel()

	goroutines := 8
	dirs := make([]string, goroutines)
	for g := range goroutines {
		dirs[g] = t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dirs[g], "base.repo"), []byte("[base]\nname=Base\nenabled=1\n"), 0o644))
	}

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			s := New()
			s.ConfigFile = filepath.Join(dirs[id], "zypp.conf")
			s.DefaultDirs = []string{dirs[id]}
			s.FallbackDir = dirs[id]

			name := fmt.Sprintf("repo-%d", id)
			_, err := Apply(s, []Repo{
				{Name: name, Ensure: EnsurePresent, Properties: map[Property]string{Enabled: "1"}},
				{Name: "base", Properties: map[Property]string{Enabled: "0"}},
			}, ApplyOptions{})
			assert.NoError(t, err)
		}(g)
	}
	wg.Wait()

	for g, td := range dirs {
		buf, err := os.ReadFile(filepath.Join(td, fmt.Sprintf("repo-%d.repo", g)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("[repo-%d]\nenabled=1\n", g), string(buf))

		buf, err = os.ReadFile(filepath.Join(td, "base.repo"))
		require.NoError(t, err)
		assert.Equal(t, "[base]\nname=Base\nenabled=0\n", string(buf))
	}
}

// TestSharedReadOnlyFiles checks that Stores reading the same directory concurrently
// all see the same repositories.
func TestSharedReadOnlyFiles(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	for i := range 5 {
		require.NoError(t, os.WriteFile(filepath.Join(td, fmt.Sprintf("r%d.repo", i)), fmt.Appendf(nil, "[r%d]\nenabled=1\n", i), 0o644))
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			s := New()
			s.ConfigFile = filepath.Join(td, "zypp.conf")
			s.DefaultDirs = []string{td}
			assert.Equal(t, []string{"r0", "r1", "r2", "r3", "r4"}, s.Names())
			assert.Len(t, List(s), 5)
		}()
	}
	wg.Wait()
}
