// Package zypprepo manages zypper repository definitions stored in INI style repo
// files. All repo files of all repo directories are combined into one virtual file
// in which every repository is one section, addressed by its name regardless of the
// file it lives in.
//
// The format reference is the zypper(8) man page. Continuation lines, variable
// expansion (e.g. $basearch) and include checks are not supported. Values are
// plain strings.
//
// # Locations
//
// Repo files are looked up in these directories:
//
//   - `reposdir` - the whitespace or comma separated list from the main section
//     of `/etc/zypp/zypp.conf`, if set
//   - `/etc/zypp/repos.d` - otherwise
//
// Directories that do not exist are ignored. Files matching `*.repo` are read,
// sub directories are not searched. A new repository is written to
// `<last directory>/<name>.repo`, or to `/etc/zypp/repos.d/<name>.repo` if no
// directory exists.
//
// # Customization
//
// The exported fields of Store change the locations and behavior:
//
//   - ConfigFile - Path to the shared zypper config
//   - DefaultDirs - Repo directories used without a reposdir setting
//   - FallbackDir - Directory for new repositories if no repo directory exists
//   - FilePattern - Pattern for repo file names
//   - Mode - Permission bits of every written repo file (0644)
//   - NoWrites - Stage changes without ever writing them
//   - Fs - Filesystem to use, e.g. afero.NewMemMapFs() in tests
//
// # Examples
//
// ## Listing Repositories
//
//	s := zypprepo.New()
//	for _, r := range zypprepo.List(s) {
//		fmt.Println(r.Name, r.Properties[zypprepo.Baseurl])
//	}
//
// ## Modifying a Repository
//
//	s := zypprepo.New()
//	p := zypprepo.Prefetch(s, []string{"repo-oss"})["repo-oss"]
//	_ = p.Set(zypprepo.Enabled, "0")
//	_ = p.Set(zypprepo.Descr, "Main Repository")  // stored as name=
//	err := p.Flush()                                // writes every pending change
//
// ## Reconciling a Desired State
//
//	plan, err := zypprepo.Apply(s, []zypprepo.Repo{{
//		Name:   "updates",
//		Ensure: zypprepo.EnsurePresent,
//		Properties: map[zypprepo.Property]string{
//			zypprepo.Baseurl: "http://download.example.com/update/",
//			zypprepo.Enabled: "1",
//		},
//	}}, zypprepo.ApplyOptions{})
//
// ## Error Handling
//
// Use errors.Is to detect common error categories:
//
//	if errors.Is(err, zypprepo.ErrValidation) {
//		// a desired value was rejected, nothing was staged
//	}
//	if errors.Is(err, zypprepo.ErrWrite) {
//		// a repo file could not be written, earlier files were written
//	}
//
// # Preservation
//
// Only files with changes are written. Inside a written file every line that was
// not changed keeps its exact bytes. New keys are appended to the end of their
// section. Removed sections vanish with all their lines.
//
// # Known limitations
//
// * No locking, concurrent modifications by other processes are lost
// * Key lines are written as `key=value`, without the spacing of other lines
package zypprepo
