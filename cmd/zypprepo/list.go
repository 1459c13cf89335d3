package main

import (
	"fmt"
	"io"

	"github.com/gopasspw/gopass/pkg/set"
	"github.com/gopasspw/zypprepo"
	"github.com/gopasspw/zypprepo/internal/desired"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all repositories",
		Long: `List every repository found in the repo directories, sorted by name.

The yaml format can be fed back into apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repos := sortRepos(zypprepo.List(a.store()))

			switch format {
			case "ini":
				return writeINI(cmd.OutOrStdout(), repos)
			case "yaml":
				return desired.Write(cmd.OutOrStdout(), repos)
			default:
				return fmt.Errorf("unknown format %q, use ini or yaml", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "ini", "Output format (ini, yaml)")

	return cmd
}

func sortRepos(repos []zypprepo.Repo) []zypprepo.Repo {
	byName := make(map[string]zypprepo.Repo, len(repos))
	for _, r := range repos {
		byName[r.Name] = r
	}

	out := make([]zypprepo.Repo, 0, len(repos))
	for _, name := range set.SortedKeys(byName) {
		out = append(out, byName[name])
	}

	return out
}

// writeINI prints the managed properties of every repository in repo file syntax.
func writeINI(w io.Writer, repos []zypprepo.Repo) error {
	for i, r := range repos {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "[%s]\n", r.Name); err != nil {
			return err
		}
		for _, p := range zypprepo.Properties() {
			v, found := r.Properties[p]
			if !found {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s=%s\n", p.Key(), v); err != nil {
				return err
			}
		}
	}

	return nil
}
