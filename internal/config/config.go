// Package config loads detector settings from an optional YAML file, an
// optional .env file and PLANAR_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Estimator names accepted in Config.Estimator.
const (
	EstimatorRANSAC = "ransac"
	EstimatorOpenCV = "opencv"
)

// Extractor names accepted in Config.Extractor.
const (
	ExtractorShiTomasi = "shi-tomasi"
	ExtractorOpenCV    = "opencv"
)

// Config holds the settings shared by the CLI commands.
type Config struct {
	// ModelPath is the detector file used when a command is given none.
	ModelPath string `yaml:"model_path"`

	// MaxPointsToDetect bounds the candidate points extracted per image.
	MaxPointsToDetect int `yaml:"max_points_to_detect"`

	// TestSamples is the number of warped views used by the test command.
	TestSamples int `yaml:"test_samples"`

	// LogLevel is one of error, warning, info, debug, verbose.
	LogLevel string `yaml:"log_level"`

	// Estimator selects the robust homography fit: "ransac" or "opencv".
	Estimator string `yaml:"estimator"`

	// Extractor selects the corner detector: "shi-tomasi" or "opencv".
	Extractor string `yaml:"extractor"`

	// MatchesOutput, when set, receives a rendering of every detection.
	MatchesOutput string `yaml:"matches_output"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		MaxPointsToDetect: 500,
		TestSamples:       100,
		LogLevel:          "info",
		Estimator:         EstimatorRANSAC,
		Extractor:         ExtractorShiTomasi,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), a .env file in the working directory if present, and
// finally the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.ModelPath = getEnv("PLANAR_MODEL", cfg.ModelPath)
	cfg.MaxPointsToDetect = getEnvAsInt("PLANAR_MAX_POINTS", cfg.MaxPointsToDetect)
	cfg.TestSamples = getEnvAsInt("PLANAR_TEST_SAMPLES", cfg.TestSamples)
	cfg.LogLevel = getEnv("PLANAR_LOG_LEVEL", cfg.LogLevel)
	cfg.Estimator = getEnv("PLANAR_ESTIMATOR", cfg.Estimator)
	cfg.Extractor = getEnv("PLANAR_EXTRACTOR", cfg.Extractor)
	cfg.MatchesOutput = getEnv("PLANAR_MATCHES_OUTPUT", cfg.MatchesOutput)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	if c.MaxPointsToDetect <= 0 {
		return fmt.Errorf("max_points_to_detect must be positive, got %d", c.MaxPointsToDetect)
	}
	if c.TestSamples < 0 {
		return fmt.Errorf("test_samples must not be negative, got %d", c.TestSamples)
	}
	switch c.Estimator {
	case EstimatorRANSAC, EstimatorOpenCV:
	default:
		return fmt.Errorf("unknown estimator %q", c.Estimator)
	}
	switch c.Extractor {
	case ExtractorShiTomasi, ExtractorOpenCV:
	default:
		return fmt.Errorf("unknown extractor %q", c.Extractor)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
