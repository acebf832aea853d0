// Copyright OCR Backend Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	OCR     OCRConfig     `yaml:"ocr"`
	PDF     PDFConfig     `yaml:"pdf"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxConnections int           `yaml:"max_connections"` // 0 means unlimited
	CORSOrigins    []string      `yaml:"cors_origins"`
}

// StorageConfig locates the upload directory and the record store
type StorageConfig struct {
	UploadDir   string            `yaml:"upload_dir"`
	RecordStore RecordStoreConfig `yaml:"record_store"`
}

// RecordStoreConfig selects the record store backend
type RecordStoreConfig struct {
	Type string `yaml:"type"` // "jsonfile" (default), "sqlite" or "memory"
	Path string `yaml:"path"` // store file for jsonfile/sqlite
}

// OCRConfig contains OCR engine configuration
type OCRConfig struct {
	Engine                string           `yaml:"engine"` // "tesseract" (default) or "vision"
	Languages             []string         `yaml:"languages"`
	TessdataPrefix        string           `yaml:"tessdata_prefix"`
	VisionCredentialsFile string           `yaml:"vision_credentials_file"`
	Timeout               time.Duration    `yaml:"timeout"` // 0 disables the per-file deadline
	PageWorkers           int              `yaml:"page_workers"`
	Preprocess            PreprocessConfig `yaml:"preprocess"`
}

// PreprocessConfig tunes the image preparation applied before recognition
type PreprocessConfig struct {
	Grayscale bool    `yaml:"grayscale"`
	Contrast  float64 `yaml:"contrast"`  // -1..1, 0 leaves the image untouched
	Threshold int     `yaml:"threshold"` // 1..255, 0 disables binarisation
}

// PDFConfig locates the rasterization toolchain
type PDFConfig struct {
	PopplerPath string `yaml:"poppler_path"` // directory holding pdftoppm; empty uses $PATH
	DPI         int    `yaml:"dpi"`
	// PreferTextLayer uses embedded PDF text instead of OCR when every page has some
	PreferTextLayer bool `yaml:"prefer_text_layer"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

// Default returns default configuration with environment overrides applied.
// Invalid numeric environment values are ignored here; Load reports them.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			Timeout:     5 * time.Minute,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			UploadDir: "uploads",
			RecordStore: RecordStoreConfig{
				Type: "jsonfile",
				Path: "extracted.json",
			},
		},
		OCR: OCRConfig{
			Engine:      "tesseract",
			Languages:   []string{"eng"},
			PageWorkers: 1,
		},
		PDF: PDFConfig{
			DPI: 200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
	}
	_ = applyEnv(cfg)
	return cfg
}

// Validate checks the configuration for values the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("server.max_connections must not be negative"))
	}
	if c.Storage.UploadDir == "" {
		errs = append(errs, fmt.Errorf("storage.upload_dir is required"))
	}
	switch c.Storage.RecordStore.Type {
	case "jsonfile", "sqlite":
		if c.Storage.RecordStore.Path == "" {
			errs = append(errs, fmt.Errorf("storage.record_store.path is required for %s", c.Storage.RecordStore.Type))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.record_store.type %q", c.Storage.RecordStore.Type))
	}
	switch c.OCR.Engine {
	case "tesseract", "vision":
	default:
		errs = append(errs, fmt.Errorf("unknown ocr.engine %q", c.OCR.Engine))
	}
	if c.OCR.Timeout < 0 {
		errs = append(errs, fmt.Errorf("ocr.timeout must not be negative"))
	}
	if c.OCR.PageWorkers < 1 {
		errs = append(errs, fmt.Errorf("ocr.page_workers must be at least 1"))
	}
	if c.OCR.Preprocess.Contrast < -1 || c.OCR.Preprocess.Contrast > 1 {
		errs = append(errs, fmt.Errorf("ocr.preprocess.contrast must be within [-1, 1]"))
	}
	if c.OCR.Preprocess.Threshold < 0 || c.OCR.Preprocess.Threshold > 255 {
		errs = append(errs, fmt.Errorf("ocr.preprocess.threshold must be within [0, 255]"))
	}
	if c.PDF.DPI <= 0 {
		errs = append(errs, fmt.Errorf("pdf.dpi must be positive"))
	}

	return errors.Join(errs...)
}

// RecordStoreParams returns the provider parameters for the configured record store.
func (c *Config) RecordStoreParams() map[string]string {
	return map[string]string{"path": c.Storage.RecordStore.Path}
}

// WriteTimeout returns the HTTP write deadline. An upload answers only after
// OCR finishes, so the deadline is server.timeout plus ocr.timeout, and none
// at all when OCR itself is unbounded.
func (c *Config) WriteTimeout() time.Duration {
	if c.OCR.Timeout <= 0 || c.Server.Timeout <= 0 {
		return 0
	}
	return c.Server.Timeout + c.OCR.Timeout
}

// OCRParams returns the provider parameters for the configured OCR engine.
func (c *Config) OCRParams() map[string]string {
	return map[string]string{
		"languages":        strings.Join(c.OCR.Languages, ","),
		"tessdata_prefix":  c.OCR.TessdataPrefix,
		"credentials_file": c.OCR.VisionCredentialsFile,
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("OCR_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("OCR_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid OCR_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("OCR_UPLOAD_DIR"); v != "" {
		cfg.Storage.UploadDir = v
	}
	if v := os.Getenv("OCR_RECORD_STORE_TYPE"); v != "" {
		cfg.Storage.RecordStore.Type = v
	}
	if v := os.Getenv("OCR_RECORD_STORE_PATH"); v != "" {
		cfg.Storage.RecordStore.Path = v
	}

	if v := os.Getenv("OCR_ENGINE"); v != "" {
		cfg.OCR.Engine = v
	}
	if v := os.Getenv("OCR_LANGUAGES"); v != "" {
		cfg.OCR.Languages = splitList(v)
	}
	if v := os.Getenv("TESSDATA_PREFIX"); v != "" {
		cfg.OCR.TessdataPrefix = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		cfg.OCR.VisionCredentialsFile = v
	}
	if v := os.Getenv("POPPLER_PATH"); v != "" {
		cfg.PDF.PopplerPath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.OCR.Languages) == 0 {
		cfg.OCR.Languages = []string{"eng"}
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
