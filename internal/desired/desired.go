// Package desired reads and writes repository lists in YAML.
//
// A document holds a single repos list. Every item needs a name, may set ensure to
// present or absent and may set any repository property:
//
//	repos:
//	  - name: updates
//	    ensure: present
//	    descr: SLES updates
//	    baseurl:
//	      - http://mirror-a.example.com/updates
//	      - http://mirror-b.example.com/updates
//	    enabled: 1
//
// A list of scalars is joined with single spaces, which is how zypper separates
// multiple URLs.
package desired

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gopasspw/zypprepo"
	"gopkg.in/yaml.v3"
)

const (
	nameKey   = "name"
	ensureKey = "ensure"
)

type document struct {
	Repos []map[string]yaml.Node `yaml:"repos"`
}

// Parse reads a desired-state document.
func Parse(r io.Reader) ([]zypprepo.Repo, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []zypprepo.Repo{}, nil
		}

		return nil, fmt.Errorf("%w: failed to decode desired state: %w", zypprepo.ErrValidation, err)
	}

	repos := make([]zypprepo.Repo, 0, len(doc.Repos))
	for i, item := range doc.Repos {
		r, err := parseRepo(item)
		if err != nil {
			return nil, fmt.Errorf("repos[%d]: %w", i, err)
		}
		repos = append(repos, r)
	}

	return repos, nil
}

func parseRepo(item map[string]yaml.Node) (zypprepo.Repo, error) {
	r := zypprepo.Repo{Properties: make(map[zypprepo.Property]string, len(item))}

	for key, node := range item {
		v, err := scalarValue(&node)
		if err != nil {
			return r, fmt.Errorf("%s: %w", key, err)
		}

		switch key {
		case nameKey:
			r.Name = v
		case ensureKey:
			e, err := zypprepo.ParseEnsure(v)
			if err != nil {
				return r, fmt.Errorf("line %d: %w", node.Line, err)
			}
			r.Ensure = e
		default:
			p, err := zypprepo.ParseProperty(key)
			if err != nil {
				return r, fmt.Errorf("line %d: %w", node.Line, err)
			}
			r.Properties[p] = v
		}
	}

	if r.Name == "" {
		return r, fmt.Errorf("%w: missing %s", zypprepo.ErrValidation, nameKey)
	}

	return r, nil
}

func scalarValue(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.SequenceNode:
		vals := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return "", fmt.Errorf("%w: line %d: nested lists are not supported", zypprepo.ErrValidation, c.Line)
			}
			vals = append(vals, c.Value)
		}

		return strings.Join(vals, " "), nil
	default:
		return "", fmt.Errorf("%w: line %d: expected a value or a list of values", zypprepo.ErrValidation, n.Line)
	}
}

// Write renders repos as a desired-state document. Keys appear in a fixed order:
// name, ensure, then the properties in the order they are applied.
func Write(w io.Writer, repos []zypprepo.Repo) error {
	list := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range repos {
		m := &yaml.Node{Kind: yaml.MappingNode}
		addPair(m, nameKey, r.Name)
		if e := r.Ensure.String(); e != "" {
			addPair(m, ensureKey, e)
		}
		for _, p := range zypprepo.Properties() {
			if v, found := r.Properties[p]; found {
				addPair(m, string(p), v)
			}
		}
		list.Content = append(list.Content, m)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "repos"},
		list,
	)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to encode repositories: %w", err)
	}

	return enc.Close()
}

func addPair(m *yaml.Node, key, value string) {
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: "!!str"},
	)
}
