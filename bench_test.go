package zypprepo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func benchReposDir(b *testing.B, files, sections int) string {
	b.Helper()

	td := b.TempDir()
	for i := range files {
		var sb strings.Builder
		for j := range sections {
			fmt.Fprintf(&sb, "[repo-%d-%d]\nname=Repository %d/%d\nenabled=1\nautorefresh=1\nbaseurl=http://download.example.com/repo/%d/%d\ntype=rpm-md\n\n", i, j, i, j, i, j)
		}
		if err := os.WriteFile(filepath.Join(td, fmt.Sprintf("repo-%d.repo", i)), []byte(sb.String()), 0o644); err != nil {
			b.Fatal(err)
		}
	}

	return td
}

func benchStore(td string) *Store {
	s := New()
	s.ConfigFile = filepath.Join(td, "zypp.conf")
	s.DefaultDirs = []string{td}
	s.FallbackDir = td

	return s
}

func BenchmarkLoadAll(b *testing.B) {
	td := benchReposDir(b, 20, 5)

	for b.Loop() {
		s := benchStore(td).LoadAll()
		if len(s.Names()) != 100 {
			b.Fatal("missing sections")
		}
	}
}

func BenchmarkParseFile(b *testing.B) {
	td := benchReposDir(b, 1, 50)
	buf, err := os.ReadFile(filepath.Join(td, "repo-0.repo"))
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := ParseFile(strings.NewReader(string(buf)), "/bench.repo"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFormat(b *testing.B) {
	td := benchReposDir(b, 1, 50)
	f, err := LoadFile(afero.NewOsFs(), filepath.Join(td, "repo-0.repo"))
	if err != nil {
		b.Fatal(err)
	}
	if err := f.Section("repo-0-25").Set("enabled", "0"); err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if f.Format() == "" {
			b.Fatal("empty output")
		}
	}
}

func BenchmarkApply(b *testing.B) {
	td := benchReposDir(b, 20, 5)
	desired := []Repo{
		{Name: "repo-3-2", Properties: map[Property]string{Enabled: "0"}},
		{Name: "repo-7-1", Ensure: EnsureAbsent},
		{Name: "bench-new", Ensure: EnsurePresent, Properties: map[Property]string{Baseurl: "http://download.example.com/new"}},
	}

	for b.Loop() {
		s := benchStore(td)
		s.NoWrites = true
		if _, err := Apply(s, desired, ApplyOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}
