package main

import (
	"fmt"

	"github.com/gopasspw/zypprepo"
	"github.com/gopasspw/zypprepo/internal/config"
	"github.com/gopasspw/zypprepo/internal/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app is the state shared by all subcommands. It is filled in by the persistent
// pre-run hook of the root command.
type app struct {
	fs       afero.Fs
	v        *viper.Viper
	settings string
	cfg      *config.Config
	log      *zap.Logger
}

func (a *app) store() *zypprepo.Store {
	return a.cfg.Store(a.fs, a.log)
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs, v: config.New()}

	root := &cobra.Command{
		Use:   "zypprepo",
		Short: "Manage zypper repository definitions",
		Long: `zypprepo reads and edits the *.repo files zypper keeps its repositories in.

Every repository is one section in one repo file. Changes only touch the lines
that changed, all other sections, comments and files are left as they are.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.settings, "settings", "", "Settings file (default "+config.DefaultFile()+")")
	flags.String("config", zypprepo.DefaultConfigFile, "zypper config that may set reposdir")
	flags.StringSlice("reposdir", []string{zypprepo.DefaultReposDir}, "Repo directories used when the zypper config does not set reposdir")
	flags.String("fallback-dir", zypprepo.DefaultReposDir, "Directory for new repo files when no repo directory exists")
	flags.String("file-pattern", zypprepo.DefaultFilePattern, "Pattern for repo file names")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")

	for key, flag := range map[string]string{
		"zypp_conf":    "config",
		"reposdir":     "reposdir",
		"fallback_dir": "fallback-dir",
		"file_pattern": "file-pattern",
		"log.level":    "log-level",
		"log.format":   "log-format",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(newListCmd(a), newApplyCmd(a))

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.fs, a.settings)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	a.cfg = cfg

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = l.With(zap.String("command", cmd.Name()))

	return nil
}
