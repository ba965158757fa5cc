package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelPath string `json:"model_path" yaml:"model_path" toml:"model_path"`
	ModelURL  string `json:"model_url" yaml:"model_url" toml:"model_url"`
	// Detector backend: "dnn" (OpenCV DNN) or "ort" (onnxruntime).
	Backend string `json:"backend" yaml:"backend" toml:"backend"`
	// Shared library path for the ort backend; ignored by dnn.
	OrtLibrary string  `json:"ort_library" yaml:"ort_library" toml:"ort_library"`
	Confidence float64 `json:"confidence" yaml:"confidence" toml:"confidence"`
	DBPath     string  `json:"db_path" yaml:"db_path" toml:"db_path"`
	// Numbered capture devices tried by the direct adapter.
	CaptureDevices []int `json:"capture_devices" yaml:"capture_devices" toml:"capture_devices"`
	// Device paths tried by the fswebcam adapter, in order.
	WebcamDevices []string `json:"webcam_devices" yaml:"webcam_devices" toml:"webcam_devices"`
	LogLevel      string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	MaxBodyMB     int      `json:"max_body_mb" yaml:"max_body_mb" toml:"max_body_mb"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
