package main

import (
	"fmt"
	"io"

	"github.com/gopasspw/zypprepo"
	"github.com/gopasspw/zypprepo/internal/desired"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		noop   bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Reconcile repositories with a desired state",
		Long: `Read the desired repositories from FILE ("-" for stdin) and change the repo
files to match.

Repositories not mentioned in FILE are not touched. Properties not mentioned for a
repository are not touched either. All changes are written at the end.

Examples:
  # Show what would change
  zypprepo apply --noop repos.yaml

  # Apply the changes and print the plan as YAML
  zypprepo apply --format yaml repos.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := a.readDesired(cmd, args[0])
			if err != nil {
				return err
			}

			plan, err := zypprepo.Apply(a.store(), repos, zypprepo.ApplyOptions{Noop: noop})
			if err != nil {
				return fmt.Errorf("failed to apply %s: %w", args[0], err)
			}

			if noop {
				a.log.Info("noop mode, no changes were made")
			}

			return writePlan(cmd.OutOrStdout(), plan, format)
		},
	}

	cmd.Flags().BoolVar(&noop, "noop", false, "Only show the changes, do not write anything")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, yaml)")

	return cmd
}

func (a *app) readDesired(cmd *cobra.Command, fn string) ([]zypprepo.Repo, error) {
	if fn == "-" {
		return desired.Parse(cmd.InOrStdin())
	}

	fh, err := a.fs.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fn, err)
	}
	defer func() {
		_ = fh.Close()
	}()

	repos, err := desired.Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fn, err)
	}
	a.log.Debug("read desired state", zap.String("file", fn), zap.Int("repos", len(repos)))

	return repos, nil
}

func writePlan(w io.Writer, plan *zypprepo.Plan, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return err
		}

		return enc.Close()
	case "text":
		for _, c := range plan.Changes {
			if _, err := fmt.Fprintln(w, c.String()); err != nil {
				return err
			}
		}
		s := plan.Summary
		_, err := fmt.Fprintf(w, "%d created, %d destroyed, %d modified, %d unchanged\n", s.Created, s.Destroyed, s.Modified, s.Unchanged)

		return err
	default:
		return fmt.Errorf("unknown format %q, use text or yaml", format)
	}
}
