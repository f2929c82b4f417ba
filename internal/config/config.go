// Package config loads the batch tool configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/ayusman/signprep/internal/detector"
)

type Config struct {
	ManifestPath string `env:"SIGNPREP_MANIFEST"   envDefault:"data/WSASL_100/WLASL_100.csv"`
	VideoDir     string `env:"SIGNPREP_VIDEO_DIR"  envDefault:"data/WSASL_100/videos"`
	OutputDir    string `env:"SIGNPREP_OUTPUT_DIR" envDefault:"data/WSASL_100/landmarks"`
	VideoExt     string `env:"SIGNPREP_VIDEO_EXT"  envDefault:".mp4"`

	AugmentCount int    `env:"SIGNPREP_AUGMENT_COUNT" envDefault:"0"`
	TempVideo    string `env:"SIGNPREP_TEMP_VIDEO"`

	PythonPath       string  `env:"SIGNPREP_PYTHON"`
	HolisticScript   string  `env:"SIGNPREP_HOLISTIC_SCRIPT"`
	MinDetectionConf float64 `env:"SIGNPREP_MIN_DETECTION_CONFIDENCE" envDefault:"0.5"`
	MinTrackingConf  float64 `env:"SIGNPREP_MIN_TRACKING_CONFIDENCE"  envDefault:"0.8"`
	ModelComplexity  int     `env:"SIGNPREP_MODEL_COMPLEXITY"         envDefault:"1"`

	CatalogDB   string `env:"SIGNPREP_CATALOG_DB"`
	MetricsFile string `env:"SIGNPREP_METRICS_FILE"`
	Progress    bool   `env:"SIGNPREP_PROGRESS" envDefault:"true"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.TempVideo == "" {
		cfg.TempVideo = filepath.Join(os.TempDir(), "signprep_augmented"+cfg.VideoExt)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the batch runner cannot honor.
func (c *Config) Validate() error {
	if c.AugmentCount < 0 {
		return fmt.Errorf("SIGNPREP_AUGMENT_COUNT must be >= 0, got %d", c.AugmentCount)
	}
	if c.ManifestPath == "" {
		return fmt.Errorf("SIGNPREP_MANIFEST is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("SIGNPREP_OUTPUT_DIR is required")
	}
	for _, v := range []float64{c.MinDetectionConf, c.MinTrackingConf} {
		if v < 0 || v > 1 {
			return fmt.Errorf("confidence thresholds must be within [0, 1], got %v", v)
		}
	}
	return nil
}

// Detector returns the holistic detector settings.
func (c *Config) Detector() detector.Config {
	return detector.Config{
		MinDetectionConf: c.MinDetectionConf,
		MinTrackingConf:  c.MinTrackingConf,
		ModelComplexity:  c.ModelComplexity,
		PythonPath:       c.PythonPath,
		ScriptPath:       c.HolisticScript,
	}
}
