// Package config loads gesturefall settings from a YAML file, a .env file and
// GESTUREFALL_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// UI selects the front-end started by the binary.
type UI string

const (
	UIWeb    UI = "web"
	UIWindow UI = "window"
	UITray   UI = "tray"
)

// Classifier kinds.
const (
	ClassifierCentroid = "centroid"
	ClassifierExec     = "exec"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DataDir    string           `yaml:"data_dir"`
	Camera     CameraConfig     `yaml:"camera"`
	Detector   DetectorConfig   `yaml:"detector"`
	Game       GameConfig       `yaml:"game"`
	Training   TrainingConfig   `yaml:"training"`
	Classifier ClassifierConfig `yaml:"classifier"`
	UI         UI               `yaml:"ui"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type CameraConfig struct {
	Device int `yaml:"device"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type DetectorConfig struct {
	MaxHands int `yaml:"max_hands"`
}

// GameConfig sizes the play field and the loop timings.
type GameConfig struct {
	Width           int  `yaml:"width"`
	Height          int  `yaml:"height"`
	SpawnIntervalMs int  `yaml:"spawn_interval_ms"`
	DebounceMs      int  `yaml:"debounce_ms"`
	ClearOnRestart  bool `yaml:"clear_on_restart"`
}

type TrainingConfig struct {
	Dataset          string `yaml:"dataset"`
	SampleIntervalMs int    `yaml:"sample_interval_ms"`
	AppName          string `yaml:"app_name"`
}

type ClassifierConfig struct {
	Kind      string `yaml:"kind"`
	Command   string `yaml:"command"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		DataDir:  filepath.Join(home, ".gesturefall"),
		Camera:   CameraConfig{Device: 0, Width: 640, Height: 480, FPS: 30},
		Detector: DetectorConfig{MaxHands: 1},
		Game: GameConfig{
			Width:           640,
			Height:          480,
			SpawnIntervalMs: 1000,
			DebounceMs:      250,
		},
		Training: TrainingConfig{
			Dataset: "nnData.json",
			AppName: "gesturefall",
		},
		Classifier: ClassifierConfig{Kind: ClassifierCentroid, TimeoutMs: 2000},
		UI:         UIWeb,
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults, .env and the environment apply. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"GESTUREFALL_ADDR":               &cfg.Server.Addr,
		"GESTUREFALL_STATIC_DIR":         &cfg.Server.StaticDir,
		"GESTUREFALL_DATA_DIR":           &cfg.DataDir,
		"GESTUREFALL_DATASET":            &cfg.Training.Dataset,
		"GESTUREFALL_CLASSIFIER":         &cfg.Classifier.Kind,
		"GESTUREFALL_CLASSIFIER_COMMAND": &cfg.Classifier.Command,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GESTUREFALL_CAMERA":     &cfg.Camera.Device,
		"GESTUREFALL_FPS":        &cfg.Camera.FPS,
		"GESTUREFALL_MAX_HANDS":  &cfg.Detector.MaxHands,
		"GESTUREFALL_SAMPLE_MS":  &cfg.Training.SampleIntervalMs,
		"GESTUREFALL_DEBOUNCE":   &cfg.Game.DebounceMs,
		"GESTUREFALL_TIMEOUT_MS": &cfg.Classifier.TimeoutMs,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("GESTUREFALL_UI"); ok {
		cfg.UI = UI(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := os.LookupEnv("GESTUREFALL_CLEAR_ON_RESTART"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GESTUREFALL_CLEAR_ON_RESTART: %w", err)
		}
		cfg.Game.ClearOnRestart = b
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS)
	}
	// a disc of the largest radius must fit horizontally
	if c.Game.Width < 90 || c.Game.Height <= 0 {
		return fmt.Errorf("game field %dx%d is too small", c.Game.Width, c.Game.Height)
	}
	if c.Game.SpawnIntervalMs <= 0 || c.Game.DebounceMs <= 0 {
		return fmt.Errorf("invalid game timings: spawn=%dms debounce=%dms", c.Game.SpawnIntervalMs, c.Game.DebounceMs)
	}
	if c.Training.SampleIntervalMs < 0 {
		return fmt.Errorf("training.sample_interval_ms must not be negative")
	}
	switch c.Classifier.Kind {
	case ClassifierCentroid:
	case ClassifierExec:
		if strings.TrimSpace(c.Classifier.Command) == "" {
			return fmt.Errorf("classifier.kind exec requires classifier.command")
		}
	default:
		return fmt.Errorf("unknown classifier kind %q", c.Classifier.Kind)
	}
	switch c.UI {
	case UIWeb, UIWindow, UITray:
	default:
		return fmt.Errorf("unknown ui %q", c.UI)
	}
	return nil
}

// DatabasePath is the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "gesturefall.db")
}
