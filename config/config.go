// Package config - Startup configuration for the motion detector.
//
// Every setting has a flag and an environment variable. Environment variables,
// optionally loaded from a .env file, provide the defaults that flags override.
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/motion"
	"github.com/pkg/errors"
)

// ErrInvalid is returned when a configuration value is out of range or inconsistent.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every runtime setting of the detector.
type Config struct {
	// DeviceID is the camera index used when neither VideoPath nor ImageDir is set.
	DeviceID int
	// VideoPath replays a video file instead of a camera.
	VideoPath string
	// ImageDir replays a directory of still images instead of a camera.
	ImageDir string
	// DisplayWidth is the width frames are resized to.
	DisplayWidth int
	// Motion holds the detector parameters.
	Motion motion.Parameters
	// ShowWindow displays the live view in a window.
	ShowWindow bool
	// QuitKey stops the detector when pressed in the window.
	QuitKey rune
	// LogLevel is the minimum level logged.
	LogLevel slog.Level
	// ReportInterval is how often pipeline statistics are logged. Zero disables them.
	ReportInterval time.Duration
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DeviceID:       0,
		DisplayWidth:   images.DefaultDisplayWidth,
		Motion:         motion.DefaultParameters(),
		ShowWindow:     true,
		QuitKey:        'q',
		LogLevel:       slog.LevelInfo,
		ReportInterval: 10 * time.Second,
	}
}

// Load builds the configuration from the environment and command line.
//
// Arguments:
//   - args: Command line arguments without the program name.
//   - envFiles: Optional .env files; missing files are ignored.
//
// Returns:
//   - Config: The validated configuration.
//   - error: A flag parse error or ErrInvalid.
//
// @example
// cfg, err := config.Load(os.Args[1:])
// if err != nil {
//     log.Fatal(err)
// }
func Load(args []string, envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return Config{}, errors.Wrapf(err, "load %s", f)
		}
	}

	cfg, err := fromEnv(Default())
	if err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("motion-detector", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&cfg.DeviceID, "device", cfg.DeviceID, "Capture device index")
	fs.StringVar(&cfg.VideoPath, "video", cfg.VideoPath, "Path to a video file to process instead of a camera")
	fs.StringVar(&cfg.ImageDir, "images", cfg.ImageDir, "Directory of image frames to process instead of a camera")
	fs.IntVar(&cfg.DisplayWidth, "width", cfg.DisplayWidth, "Width frames are resized to")
	fs.IntVar(&cfg.Motion.FramesToPersist, "frames-to-persist", cfg.Motion.FramesToPersist, "Cycles between reference frame updates")
	fs.Float64Var(&cfg.Motion.MinSizeForMovement, "min-size", cfg.Motion.MinSizeForMovement, "Minimum region area counted as motion")
	fs.IntVar(&cfg.Motion.MovementDetectedPersistence, "persistence", cfg.Motion.MovementDetectedPersistence, "Cycles motion stays active after the last detection")
	fs.BoolVar(&cfg.ShowWindow, "show-window", cfg.ShowWindow, "Show the live view window")
	quitKey := string(cfg.QuitKey)
	fs.StringVar(&quitKey, "quit-key", quitKey, "Key that stops the detector")
	logLevel := strings.ToLower(cfg.LogLevel.String())
	fs.StringVar(&logLevel, "log-level", logLevel, "Log level: debug, info, warn, error")
	fs.DurationVar(&cfg.ReportInterval, "report-interval", cfg.ReportInterval, "Interval between statistics reports, 0 to disable")

	if err := fs.Parse(args); err != nil {
		return Config{}, errors.Wrap(err, "parse flags")
	}

	if cfg.QuitKey, err = parseKey(quitKey); err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return Config{}, errors.Wrapf(ErrInvalid, "log level %q", logLevel)
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges and mutually exclusive sources.
func (c Config) Validate() error {
	if err := c.Motion.Validate(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if c.DisplayWidth <= 0 {
		return errors.Wrapf(ErrInvalid, "width must be > 0, got %d", c.DisplayWidth)
	}
	if c.DeviceID < 0 {
		return errors.Wrapf(ErrInvalid, "device must be >= 0, got %d", c.DeviceID)
	}
	if c.VideoPath != "" && c.ImageDir != "" {
		return errors.Wrap(ErrInvalid, "video and images are mutually exclusive")
	}
	if c.ReportInterval < 0 {
		return errors.Wrapf(ErrInvalid, "report interval must be >= 0, got %v", c.ReportInterval)
	}
	return nil
}

// Source describes the configured input for logging.
func (c Config) Source() string {
	switch {
	case c.VideoPath != "":
		return "video:" + c.VideoPath
	case c.ImageDir != "":
		return "images:" + c.ImageDir
	default:
		return fmt.Sprintf("device:%d", c.DeviceID)
	}
}

func fromEnv(cfg Config) (Config, error) {
	var err error
	if cfg.DeviceID, err = getEnvInt("MOTION_DEVICE", cfg.DeviceID); err != nil {
		return cfg, err
	}
	cfg.VideoPath = getEnv("MOTION_VIDEO", cfg.VideoPath)
	cfg.ImageDir = getEnv("MOTION_IMAGES", cfg.ImageDir)
	if cfg.DisplayWidth, err = getEnvInt("MOTION_DISPLAY_WIDTH", cfg.DisplayWidth); err != nil {
		return cfg, err
	}
	if cfg.Motion.FramesToPersist, err = getEnvInt("MOTION_FRAMES_TO_PERSIST", cfg.Motion.FramesToPersist); err != nil {
		return cfg, err
	}
	if cfg.Motion.MinSizeForMovement, err = getEnvFloat("MOTION_MIN_SIZE", cfg.Motion.MinSizeForMovement); err != nil {
		return cfg, err
	}
	if cfg.Motion.MovementDetectedPersistence, err = getEnvInt("MOTION_PERSISTENCE", cfg.Motion.MovementDetectedPersistence); err != nil {
		return cfg, err
	}
	if cfg.ShowWindow, err = getEnvBool("MOTION_SHOW_WINDOW", cfg.ShowWindow); err != nil {
		return cfg, err
	}
	if v, ok := os.LookupEnv("MOTION_QUIT_KEY"); ok {
		if cfg.QuitKey, err = parseKey(v); err != nil {
			return cfg, err
		}
	}
	if v, ok := os.LookupEnv("MOTION_LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return cfg, errors.Wrapf(ErrInvalid, "MOTION_LOG_LEVEL=%q", v)
		}
	}
	if v, ok := os.LookupEnv("MOTION_REPORT_INTERVAL"); ok {
		d, parseErr := time.ParseDuration(v)
		if parseErr != nil {
			return cfg, errors.Wrapf(ErrInvalid, "MOTION_REPORT_INTERVAL=%q", v)
		}
		cfg.ReportInterval = d
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, errors.Wrapf(ErrInvalid, "%s=%q", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, errors.Wrapf(ErrInvalid, "%s=%q", key, v)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, errors.Wrapf(ErrInvalid, "%s=%q", key, v)
	}
	return b, nil
}

func parseKey(s string) (rune, error) {
	r := []rune(s)
	if len(r) != 1 {
		return 0, errors.Wrapf(ErrInvalid, "quit key must be a single character, got %q", s)
	}
	return r[0], nil
}
