package zypprepo

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Property is a managed attribute of a zypper repository.
type Property string

// Absent is the value of a property whose key is missing from the repo file.
// Setting a property to Absent removes its key.
const Absent = "absent"

// The properties of a zypper repository, see zypper(8).
const (
	Descr        Property = "descr"
	Mirrorlist   Property = "mirrorlist"
	Baseurl      Property = "baseurl"
	Path         Property = "path"
	Enabled      Property = "enabled"
	Gpgcheck     Property = "gpgcheck"
	RepoGpgcheck Property = "repo_gpgcheck"
	PkgGpgcheck  Property = "pkg_gpgcheck"
	Gpgkey       Property = "gpgkey"
	Priority     Property = "priority"
	Autorefresh  Property = "autorefresh"
	Keeppackages Property = "keeppackages"
	Type         Property = "type"
)

var (
	rePriority = regexp.MustCompile(`^[0-9]+$`)
	reRepoType = regexp.MustCompile(`^(yast2|rpm-md|plaindir|yum|NONE)$`)
	urlSchemes = []string{"http", "https", "ftp", "file"}
	boolValues = []string{"true", "false", "0", "1", "no", "yes"}
)

type propertySpec struct {
	name      Property
	key       string // INI key the property is stored under
	doc       string
	validate  func(string) error
	normalize func(string) string
}

// properties is the repo schema, in the order properties are applied.
var properties = []propertySpec{
	{name: Descr, key: "name", doc: "A human-readable description of the repository."},
	{name: Mirrorlist, key: "mirrorlist", doc: "The URL that holds the list of mirrors for this repository.", validate: validateURL},
	{name: Baseurl, key: "baseurl", doc: "The URL(s) for this repository, separated by whitespace.", validate: validateURLs},
	{name: Path, key: "path", doc: "The path relative to the baseurl."},
	{name: Enabled, key: "enabled", doc: "Whether this repository is enabled.", validate: validateBool, normalize: normalizeBool},
	{name: Gpgcheck, key: "gpgcheck", doc: "Whether to check GPG signatures of packages and metadata.", validate: validateBool, normalize: normalizeBool},
	{name: RepoGpgcheck, key: "repo_gpgcheck", doc: "Whether to check the GPG signature of the repository metadata.", validate: validateBool, normalize: normalizeBool},
	{name: PkgGpgcheck, key: "pkg_gpgcheck", doc: "Whether to check the GPG signature of packages.", validate: validateBool, normalize: normalizeBool},
	{name: Gpgkey, key: "gpgkey", doc: "The URL(s) of the GPG key(s) the repository is signed with.", validate: validateURLs},
	{name: Priority, key: "priority", doc: "Priority of this repository.", validate: validatePriority},
	{name: Autorefresh, key: "autorefresh", doc: "Whether to refresh the repository automatically.", validate: validateBool, normalize: normalizeBool},
	{name: Keeppackages, key: "keeppackages", doc: "Whether to keep downloaded RPM files.", validate: validateBool, normalize: normalizeBool},
	{name: Type, key: "type", doc: "The type of the repository: yast2, rpm-md, plaindir, yum or NONE.", validate: validateRepoType},
}

// Properties returns all repository properties in the order they are applied.
func Properties() []Property {
	out := make([]Property, 0, len(properties))
	for _, p := range properties {
		out = append(out, p.name)
	}

	return out
}

// ParseProperty maps a property name to a Property.
func ParseProperty(name string) (Property, error) {
	if _, found := lookupProperty(Property(name)); !found {
		return "", fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}

	return Property(name), nil
}

// Key returns the INI key the property is stored under. Only descr differs from
// the property name, it is stored as name.
func (p Property) Key() string {
	if ps, found := lookupProperty(p); found {
		return ps.key
	}

	return string(p)
}

// Doc returns a short description of the property.
func (p Property) Doc() string {
	if ps, found := lookupProperty(p); found {
		return ps.doc
	}

	return ""
}

// propertyForKey maps an INI key back to its property.
func propertyForKey(key string) (Property, bool) {
	for _, ps := range properties {
		if ps.key == key {
			return ps.name, true
		}
	}

	return "", false
}

func lookupProperty(p Property) (propertySpec, bool) {
	for _, ps := range properties {
		if ps.name == p {
			return ps, true
		}
	}

	return propertySpec{}, false
}

// Normalize validates value for p and returns its canonical form. Absent, in any
// case, is valid for every property.
func Normalize(p Property, value string) (string, error) {
	ps, found := lookupProperty(p)
	if !found {
		return "", fmt.Errorf("%w: %q", ErrUnknownProperty, p)
	}

	if strings.EqualFold(value, Absent) {
		return Absent, nil
	}

	if strings.ContainsAny(value, "\r\n") {
		return "", fmt.Errorf("%w: %s: multi-line values are not supported", ErrValidation, p)
	}

	if ps.validate != nil {
		if err := ps.validate(value); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrValidation, p, err)
		}
	}

	if ps.normalize != nil {
		value = ps.normalize(value)
	}

	return value, nil
}

func validateURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%q is not a URL: %w", value, err)
	}

	valid := false
	for _, scheme := range urlSchemes {
		if u.Scheme == scheme {
			valid = true

			break
		}
	}
	if !valid {
		return fmt.Errorf("%q must use one of the schemes %v", value, urlSchemes)
	}

	if u.Host == "" && u.Path == "" {
		return fmt.Errorf("%q has neither host nor path", value)
	}

	return nil
}

func validateURLs(value string) error {
	urls := strings.Fields(value)
	if len(urls) == 0 {
		return fmt.Errorf("no URL given")
	}

	for _, u := range urls {
		if err := validateURL(u); err != nil {
			return err
		}
	}

	return nil
}

func validateBool(value string) error {
	v := strings.ToLower(value)
	for _, b := range boolValues {
		if v == b {
			return nil
		}
	}

	return fmt.Errorf("%q is not one of %v", value, boolValues)
}

// normalizeBool mirrors how the values are usually spelled in repo files,
// e.g. TRUE becomes True and 1 stays 1.
func normalizeBool(value string) string {
	v := strings.ToLower(value)

	return strings.ToUpper(v[:1]) + v[1:]
}

func validatePriority(value string) error {
	if !rePriority.MatchString(value) {
		return fmt.Errorf("%q is not a non-negative integer", value)
	}

	return nil
}

func validateRepoType(value string) error {
	if !reRepoType.MatchString(value) {
		return fmt.Errorf("%q is not a known repository type", value)
	}

	return nil
}
