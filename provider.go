package zypprepo

import (
	"fmt"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
)

// Ensure is the lifecycle state of a repository.
type Ensure int

const (
	// EnsureUnknown means the state was not determined or not requested.
	EnsureUnknown Ensure = iota
	// EnsurePresent means the repository has a section in some repo file.
	EnsurePresent
	// EnsureAbsent means the repository has no section.
	EnsureAbsent
)

// String implements fmt.Stringer.
func (e Ensure) String() string {
	switch e {
	case EnsurePresent:
		return "present"
	case EnsureAbsent:
		return "absent"
	default:
		return ""
	}
}

// ParseEnsure parses present, absent or an empty string.
func ParseEnsure(s string) (Ensure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return EnsureUnknown, nil
	case "present":
		return EnsurePresent, nil
	case "absent":
		return EnsureAbsent, nil
	default:
		return EnsureUnknown, fmt.Errorf("%w: ensure must be present or absent, got %q", ErrValidation, s)
	}
}

// Repo is a zypper repository as declared by a user or as found on disk.
// Properties without an entry are not managed.
type Repo struct {
	Name       string
	Ensure     Ensure
	Properties map[Property]string
}

// Provider binds one repository to its section in a Store.
//
// Property values are read lazily from the section and cached. Every change goes to
// the section right away but only reaches the disk on Flush, which commits all
// pending changes of the Store and not just the ones of this repository.
type Provider struct {
	store  *Store
	name   string
	ensure Ensure
	hash   map[Property]*string // nil value: key is missing
}

// NewProvider returns a provider for the named repository in an unknown state.
func NewProvider(store *Store, name string) *Provider {
	return &Provider{
		store: store,
		name:  name,
		hash:  make(map[Property]*string, len(properties)),
	}
}

// Instances returns a provider for every repository found in the store. The
// main section is not a repository and sections flagged for removal are skipped.
func Instances(store *Store) []*Provider {
	out := make([]*Provider, 0, 16)
	for _, sect := range store.Sections() {
		if sect.Name() == mainSection || sect.Destroyed() {
			continue
		}

		p := NewProvider(store, sect.Name())
		p.ensure = EnsurePresent
		for _, e := range sect.Entries() {
			prop, found := propertyForKey(e.Key)
			if !found {
				continue
			}
			if _, seen := p.hash[prop]; seen {
				continue
			}
			v := e.Value
			p.hash[prop] = &v
		}
		out = append(out, p)
	}

	debug.V(1).Log("found %d repositories", len(out))

	return out
}

// List returns all repositories found in the store.
func List(store *Store) []Repo {
	instances := Instances(store)
	out := make([]Repo, 0, len(instances))
	for _, p := range instances {
		out = append(out, p.Repo())
	}

	return out
}

// Prefetch matches the given names against the repositories in the store. Names
// without a repository are left out of the result.
func Prefetch(store *Store, names []string) map[string]*Provider {
	byName := make(map[string]*Provider, len(names))
	for _, p := range Instances(store) {
		byName[p.name] = p
	}

	out := make(map[string]*Provider, len(names))
	for _, name := range names {
		if p, found := byName[name]; found {
			out[name] = p
		}
	}

	return out
}

// Name returns the repository alias.
func (p *Provider) Name() string {
	return p.name
}

// Ensure returns the last known state.
func (p *Provider) Ensure() Ensure {
	return p.ensure
}

// Exists returns true if the repository is known to be present.
func (p *Provider) Exists() bool {
	return p.ensure == EnsurePresent
}

// Repo returns the cached state of the repository.
func (p *Provider) Repo() Repo {
	r := Repo{
		Name:       p.name,
		Ensure:     p.ensure,
		Properties: make(map[Property]string, len(p.hash)),
	}
	for k, v := range p.hash {
		if v == nil {
			continue
		}
		r.Properties[k] = *v
	}

	return r
}

// Create adds the repository with every property of desired that has a value.
//
// If the file the repository would be created in already exists but is not part
// of the store yet, it is read first so its other sections and keys survive.
func (p *Provider) Create(desired Repo) error {
	p.ensure = EnsurePresent

	path := p.store.RepoPath(p.name)
	if fi, err := p.store.fs().Stat(path); err == nil && fi.Mode().IsRegular() {
		debug.V(1).Log("[%s] reading existing repo file %s before creating the section", p.name, path)
		if err := p.store.Read(path); err != nil {
			return err
		}
	}

	if _, err := p.store.GetOrCreate(p.name, p.store.RepoPath); err != nil {
		return err
	}

	for _, prop := range Properties() {
		v, found := desired.Properties[prop]
		if !found || v == "" {
			continue
		}
		if err := p.Set(prop, v); err != nil {
			return err
		}
	}

	return nil
}

// Destroy flags the section of the repository for removal on the next flush.
func (p *Provider) Destroy() error {
	if sect, found := p.store.Lookup(p.name); found {
		sect.Destroy()
	}

	p.hash = make(map[Property]*string, len(properties))
	p.ensure = EnsureAbsent

	return nil
}

// Get returns the value of the property, or Absent if its key is missing.
func (p *Provider) Get(prop Property) (string, error) {
	ps, found := lookupProperty(prop)
	if !found {
		return "", fmt.Errorf("%w: %q", ErrUnknownProperty, prop)
	}

	v, cached := p.hash[prop]
	if !cached {
		if sect, found := p.store.Lookup(p.name); found {
			if sv, ok := sect.Get(ps.key); ok {
				v = &sv
			}
		}
		p.hash[prop] = v
	}

	if v == nil {
		return Absent, nil
	}

	return *v, nil
}

// Set validates value and stages it in the section. Absent removes the key.
func (p *Provider) Set(prop Property, value string) error {
	v, err := Normalize(prop, value)
	if err != nil {
		return err
	}

	sect, err := p.store.GetOrCreate(p.name, p.store.RepoPath)
	if err != nil {
		return err
	}

	key := prop.Key()
	if v == Absent {
		sect.Unset(key)
		p.hash[prop] = nil

		return nil
	}

	if err := sect.Set(key, v); err != nil {
		return err
	}
	p.hash[prop] = &v

	return nil
}

// Flush commits all pending changes of the store.
func (p *Provider) Flush() error {
	debug.V(1).Log("[%s] flushing repo store", p.name)

	return p.store.Commit()
}
