// Command zypprepo lists and reconciles zypper repository definitions.
package main

import (
	"fmt"
	"os"

	"github.com/gopasspw/zypprepo/internal/logger"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		l, logErr := logger.New(&logger.Config{Level: "info", Format: "console"})
		if logErr != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		l.Error("command failed", zap.Error(err))
		_ = l.Sync()
		os.Exit(1)
	}
}
