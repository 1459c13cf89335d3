package zypprepo

import (
	"fmt"

	"github.com/gopasspw/gopass/pkg/debug"
	"go.uber.org/zap"
)

// ChangeKind describes what happens to a repository or one of its properties.
type ChangeKind string

const (
	// ChangeCreate adds a new repository section.
	ChangeCreate ChangeKind = "create"
	// ChangeDestroy removes a repository section.
	ChangeDestroy ChangeKind = "destroy"
	// ChangeSet adds or updates a property.
	ChangeSet ChangeKind = "set"
	// ChangeUnset removes a property.
	ChangeUnset ChangeKind = "unset"
)

// Change is a single planned modification.
type Change struct {
	Repo     string     `json:"repo" yaml:"repo"`
	Kind     ChangeKind `json:"kind" yaml:"kind"`
	Property Property   `json:"property,omitempty" yaml:"property,omitempty"`
	From     string     `json:"from,omitempty" yaml:"from,omitempty"`
	To       string     `json:"to,omitempty" yaml:"to,omitempty"`
}

// String implements fmt.Stringer.
func (c Change) String() string {
	switch c.Kind {
	case ChangeCreate, ChangeDestroy:
		return fmt.Sprintf("%s: %s", c.Repo, c.Kind)
	default:
		return fmt.Sprintf("%s: %s %s (%q -> %q)", c.Repo, c.Kind, c.Property, c.From, c.To)
	}
}

// Plan lists the changes Apply made or, in noop mode, would make.
type Plan struct {
	Changes []Change    `json:"changes" yaml:"changes"`
	Summary PlanSummary `json:"summary" yaml:"summary"`
}

// PlanSummary counts repositories by outcome.
type PlanSummary struct {
	Created   int `json:"created" yaml:"created"`
	Destroyed int `json:"destroyed" yaml:"destroyed"`
	Modified  int `json:"modified" yaml:"modified"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

// ApplyOptions controls Apply.
type ApplyOptions struct {
	// Noop only computes the plan, nothing is staged or written.
	Noop bool
}

// Apply reconciles the desired repositories against the store.
//
// Behavior:
// - All desired values are validated first, nothing is staged if any is invalid
// - Repositories are matched by name, repositories not mentioned are not touched
// - EnsurePresent creates missing repositories, EnsureAbsent removes existing ones
// - Properties are only managed when they have a desired value
// - With EnsureUnknown only the properties of an existing repository are managed
// - All changes are written by a single commit at the end
func Apply(store *Store, desired []Repo, opts ApplyOptions) (*Plan, error) {
	normalized, err := normalizeRepos(desired)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(normalized))
	for _, r := range normalized {
		names = append(names, r.Name)
	}
	providers := Prefetch(store, names)

	plan := &Plan{}
	for _, want := range normalized {
		p, found := providers[want.Name]
		if !found {
			p = NewProvider(store, want.Name)
		}

		changes, err := reconcileRepo(p, want, opts)
		if err != nil {
			return plan, err
		}
		plan.add(want.Name, changes)
	}

	if opts.Noop {
		debug.Log("noop: %d changes planned", len(plan.Changes))

		return plan, nil
	}

	if !store.Dirty() {
		return plan, nil
	}

	if err := store.Commit(); err != nil {
		return plan, err
	}

	store.log().Info("applied repository changes",
		zap.Int("created", plan.Summary.Created),
		zap.Int("destroyed", plan.Summary.Destroyed),
		zap.Int("modified", plan.Summary.Modified),
	)

	return plan, nil
}

func (pl *Plan) add(name string, changes []Change) {
	pl.Changes = append(pl.Changes, changes...)

	if len(changes) == 0 {
		pl.Summary.Unchanged++

		return
	}

	switch changes[0].Kind {
	case ChangeCreate:
		pl.Summary.Created++
	case ChangeDestroy:
		pl.Summary.Destroyed++
	default:
		pl.Summary.Modified++
	}
	debug.V(1).Log("[%s] %d changes", name, len(changes))
}

func reconcileRepo(p *Provider, want Repo, opts ApplyOptions) ([]Change, error) {
	var changes []Change

	switch {
	case want.Ensure == EnsureAbsent:
		if !p.Exists() {
			return nil, nil
		}
		changes = append(changes, Change{Repo: want.Name, Kind: ChangeDestroy})
		if opts.Noop {
			return changes, nil
		}

		return changes, p.Destroy()
	case want.Ensure == EnsurePresent && !p.Exists():
		changes = append(changes, Change{Repo: want.Name, Kind: ChangeCreate})
		for _, prop := range Properties() {
			if v := want.Properties[prop]; v != "" && v != Absent {
				changes = append(changes, Change{Repo: want.Name, Kind: ChangeSet, Property: prop, From: Absent, To: v})
			}
		}
		if opts.Noop {
			return changes, nil
		}

		return changes, p.Create(want)
	case !p.Exists():
		// nothing to manage for a repository that should neither exist nor vanish
		return nil, nil
	}

	for _, prop := range Properties() {
		v, found := want.Properties[prop]
		if !found || v == "" {
			continue
		}

		cur, err := p.Get(prop)
		if err != nil {
			return changes, err
		}
		if cur == v {
			continue
		}

		kind := ChangeSet
		if v == Absent {
			kind = ChangeUnset
		}
		changes = append(changes, Change{Repo: want.Name, Kind: kind, Property: prop, From: cur, To: v})

		if opts.Noop {
			continue
		}
		if err := p.Set(prop, v); err != nil {
			return changes, err
		}
	}

	return changes, nil
}

func normalizeRepos(desired []Repo) ([]Repo, error) {
	seen := make(map[string]struct{}, len(desired))
	out := make([]Repo, 0, len(desired))

	for _, r := range desired {
		if err := validName(r.Name); err != nil {
			return nil, err
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("%w: repository %q is declared more than once", ErrValidation, r.Name)
		}
		seen[r.Name] = struct{}{}

		n := Repo{
			Name:       r.Name,
			Ensure:     r.Ensure,
			Properties: make(map[Property]string, len(r.Properties)),
		}
		for prop, v := range r.Properties {
			if v == "" {
				continue
			}
			nv, err := Normalize(prop, v)
			if err != nil {
				return nil, fmt.Errorf("repository %q: %w", r.Name, err)
			}
			n.Properties[prop] = nv
		}
		out = append(out, n)
	}

	return out, nil
}
