package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvr-ai/go-motion/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MOTION_DEVICE", "MOTION_VIDEO", "MOTION_IMAGES", "MOTION_DISPLAY_WIDTH",
		"MOTION_FRAMES_TO_PERSIST", "MOTION_MIN_SIZE", "MOTION_PERSISTENCE",
		"MOTION_SHOW_WINDOW", "MOTION_QUIT_KEY", "MOTION_LOG_LEVEL", "MOTION_REPORT_INTERVAL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, motion.DefaultParameters(), cfg.Motion)
	assert.Equal(t, 750, cfg.DisplayWidth)
	assert.Equal(t, 'q', cfg.QuitKey)
	assert.Equal(t, "device:0", cfg.Source())
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOTION_FRAMES_TO_PERSIST", "4")
	t.Setenv("MOTION_MIN_SIZE", "1500.5")
	t.Setenv("MOTION_PERSISTENCE", "30")
	t.Setenv("MOTION_SHOW_WINDOW", "false")
	t.Setenv("MOTION_QUIT_KEY", "x")
	t.Setenv("MOTION_LOG_LEVEL", "debug")
	t.Setenv("MOTION_REPORT_INTERVAL", "1m")
	t.Setenv("MOTION_VIDEO", "clip.mp4")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, motion.Parameters{FramesToPersist: 4, MinSizeForMovement: 1500.5, MovementDetectedPersistence: 30}, cfg.Motion)
	assert.False(t, cfg.ShowWindow)
	assert.Equal(t, 'x', cfg.QuitKey)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.ReportInterval)
	assert.Equal(t, "video:clip.mp4", cfg.Source())
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOTION_PERSISTENCE", "30")

	cfg, err := Load([]string{"-persistence", "5", "-min-size", "100", "-images", "frames", "-log-level", "warn"})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Motion.MovementDetectedPersistence)
	assert.Equal(t, 100.0, cfg.Motion.MinSizeForMovement)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "images:frames", cfg.Source())
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MOTION_FRAMES_TO_PERSIST=7\nMOTION_DEVICE=2\n"), 0o644))

	cfg, err := Load(nil, path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Motion.FramesToPersist)
	assert.Equal(t, 2, cfg.DeviceID)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "negative lag", args: []string{"-frames-to-persist", "-1"}},
		{name: "negative persistence", args: []string{"-persistence", "-3"}},
		{name: "zero width", args: []string{"-width", "0"}},
		{name: "negative device", args: []string{"-device", "-1"}},
		{name: "two sources", args: []string{"-video", "a.mp4", "-images", "dir"}},
		{name: "long quit key", args: []string{"-quit-key", "esc"}},
		{name: "bad log level", args: []string{"-log-level", "loud"}},
		{name: "bad env int", env: map[string]string{"MOTION_DEVICE": "zero"}},
		{name: "bad env bool", env: map[string]string{"MOTION_SHOW_WINDOW": "maybe"}},
		{name: "bad env duration", env: map[string]string{"MOTION_REPORT_INTERVAL": "often"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.args)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadUnknownFlag(t *testing.T) {
	clearEnv(t)
	_, err := Load([]string{"-nope"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}
