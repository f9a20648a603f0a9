package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/analysis-suite/objsel/internal/systematics"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig is the run configuration. Every field is optional; the
// Get* accessors fall back to defaults for anything the JSON omits.
type AnalysisConfig struct {
	// Data-taking period: "2016", "2017" or "2018".
	Year *string `json:"year,omitempty"`
	IsMC *bool   `json:"is_mc,omitempty"`

	// Systematic names to sweep in addition to Nominal.
	Systematics []string `json:"systematics,omitempty"`

	// b-tag working point for the Bottom tier scale factor: loose, medium, tight.
	BTagWorkingPoint *string `json:"btag_working_point,omitempty"`

	// Scale-factor tables (JSON). Built-in tables are used when unset.
	WeightsFile *string `json:"weights_file,omitempty"`

	OutputDB      *string `json:"output_db,omitempty"`
	ProgressEvery *int    `json:"progress_every,omitempty"`
	MaxEvents     *int    `json:"max_events,omitempty"` // 0 = no limit
}

func ptrString(v string) *string { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyAnalysisConfig returns a config with every field unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field set to its default.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Year:             ptrString("2017"),
		IsMC:             ptrBool(true),
		BTagWorkingPoint: ptrString("medium"),
		OutputDB:         ptrString("objsel.db"),
		ProgressEvery:    ptrInt(1000),
		MaxEvents:        ptrInt(0),
	}
}

// LoadAnalysisConfig loads and validates a config from a JSON file.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching parent
// directories so it works from any package's tests. Panics on failure.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/objsel/ and deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that set fields hold usable values.
func (c *AnalysisConfig) Validate() error {
	if c.Year != nil {
		if _, err := ParseYear(*c.Year); err != nil {
			return err
		}
	}

	if _, err := systematics.NewRegistry(c.Systematics); err != nil {
		return err
	}

	if c.BTagWorkingPoint != nil {
		switch *c.BTagWorkingPoint {
		case "loose", "medium", "tight":
		default:
			return fmt.Errorf("btag_working_point must be loose, medium or tight, got %q", *c.BTagWorkingPoint)
		}
	}

	if c.ProgressEvery != nil && *c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must be non-negative, got %d", *c.ProgressEvery)
	}

	if c.MaxEvents != nil && *c.MaxEvents < 0 {
		return fmt.Errorf("max_events must be non-negative, got %d", *c.MaxEvents)
	}

	return nil
}

// GetYear returns the configured period, defaulting to 2017.
func (c *AnalysisConfig) GetYear() (Year, error) {
	if c.Year == nil {
		return Year2017, nil
	}
	return ParseYear(*c.Year)
}

// GetIsMC returns is_mc or the default (true).
func (c *AnalysisConfig) GetIsMC() bool {
	if c.IsMC == nil {
		return true
	}
	return *c.IsMC
}

// GetRegistry builds the systematic registry for the run.
func (c *AnalysisConfig) GetRegistry() (*systematics.Registry, error) {
	return systematics.NewRegistry(c.Systematics)
}

// GetBTagWorkingPoint returns btag_working_point or "medium".
func (c *AnalysisConfig) GetBTagWorkingPoint() string {
	if c.BTagWorkingPoint == nil {
		return "medium"
	}
	return *c.BTagWorkingPoint
}

// GetWeightsFile returns weights_file or "" for built-in tables.
func (c *AnalysisConfig) GetWeightsFile() string {
	if c.WeightsFile == nil {
		return ""
	}
	return *c.WeightsFile
}

// GetOutputDB returns output_db or the default.
func (c *AnalysisConfig) GetOutputDB() string {
	if c.OutputDB == nil || *c.OutputDB == "" {
		return "objsel.db"
	}
	return *c.OutputDB
}

// GetProgressEvery returns progress_every or the default (1000).
func (c *AnalysisConfig) GetProgressEvery() int {
	if c.ProgressEvery == nil {
		return 1000
	}
	return *c.ProgressEvery
}

// GetMaxEvents returns max_events or 0 (no limit).
func (c *AnalysisConfig) GetMaxEvents() int {
	if c.MaxEvents == nil {
		return 0
	}
	return *c.MaxEvents
}
