package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		cfg     Config
		enabled zapcore.Level
		hidden  zapcore.Level
	}{
		{name: "debug console", cfg: Config{Level: "debug", Format: "console"}, enabled: zapcore.DebugLevel},
		{name: "info json", cfg: Config{Level: "info", Format: "json"}, enabled: zapcore.InfoLevel, hidden: zapcore.DebugLevel},
		{name: "warn", cfg: Config{Level: "warn"}, enabled: zapcore.WarnLevel, hidden: zapcore.InfoLevel},
		{name: "defaults", cfg: Config{}, enabled: zapcore.InfoLevel, hidden: zapcore.DebugLevel},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l, err := New(&tc.cfg)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.True(t, l.Core().Enabled(tc.enabled))
			if tc.enabled != zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tc.hidden))
			}
		})
	}
}

func TestNewInvalid(t *testing.T) {
	t.Parallel()

	_, err := New(&Config{Level: "chatty"})
	require.Error(t, err)

	_, err = New(&Config{Level: "info", Format: "xml"})
	require.Error(t, err)
}
