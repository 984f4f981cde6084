package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"attritionboard/internal/errors"
)

// Profile holds the dashboard settings that the charts depend on. Column
// names live here rather than in code so another schema can be plugged in.
type Profile struct {
	ResponseColumn   string   `mapstructure:"response_column" yaml:"response_column"`
	ResponseLevels   []string `mapstructure:"response_levels" yaml:"response_levels"`
	ResponseColors   []string `mapstructure:"response_colors" yaml:"response_colors"`
	HeatmapColumn    string   `mapstructure:"heatmap_column" yaml:"heatmap_column"`
	PreviewRows      int      `mapstructure:"preview_rows" yaml:"preview_rows"`
	HistogramBins    int      `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	FenceMultiplier  float64  `mapstructure:"fence_multiplier" yaml:"fence_multiplier"`
	DonutInnerRadius int      `mapstructure:"donut_inner_radius" yaml:"donut_inner_radius"`
	Title            string   `mapstructure:"title" yaml:"title"`
}

// DefaultProfile returns the settings of the employee attrition dashboard.
func DefaultProfile() *Profile {
	return &Profile{
		ResponseColumn:   "Attrition",
		ResponseLevels:   []string{"Left", "Stayed"},
		ResponseColors:   []string{"#FF6347", "#4682B4"},
		HeatmapColumn:    "Department",
		PreviewRows:      6,
		HistogramBins:    0,
		FenceMultiplier:  1.5,
		DonutInnerRadius: 50,
		Title:            "Employee Attrition Dashboard",
	}
}

// LoadProfile loads the profile from file, env (ATTRITION_ prefix) and defaults.
// Precedence: env > config file > defaults. An empty path skips the file.
func LoadProfile(path string) (*Profile, error) {
	def := DefaultProfile()
	v := viper.New()
	v.SetEnvPrefix("ATTRITION")
	v.AutomaticEnv()

	v.SetDefault("response_column", def.ResponseColumn)
	v.SetDefault("response_levels", def.ResponseLevels)
	v.SetDefault("response_colors", def.ResponseColors)
	v.SetDefault("heatmap_column", def.HeatmapColumn)
	v.SetDefault("preview_rows", def.PreviewRows)
	v.SetDefault("histogram_bins", def.HistogramBins)
	v.SetDefault("fence_multiplier", def.FenceMultiplier)
	v.SetDefault("donut_inner_radius", def.DonutInnerRadius)
	v.SetDefault("title", def.Title)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "read profile %s", path)
		}
	}

	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "unmarshal profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the profile for settings the charts cannot work with.
func (p *Profile) Validate() error {
	if p.ResponseColumn == "" {
		return errors.ConfigInvalid("response_column is required")
	}
	if len(p.ResponseColors) != 0 && len(p.ResponseColors) != len(p.ResponseLevels) {
		return errors.ConfigInvalid(fmt.Sprintf("response_colors has %d entries, response_levels has %d",
			len(p.ResponseColors), len(p.ResponseLevels)))
	}
	if p.PreviewRows < 0 {
		return errors.ConfigInvalid("preview_rows cannot be negative")
	}
	if p.FenceMultiplier <= 0 {
		return errors.ConfigInvalid("fence_multiplier must be positive")
	}
	return nil
}

// ColorFor returns the configured colour of a response level, or "" if the
// level has none.
func (p *Profile) ColorFor(level string) string {
	for i, l := range p.ResponseLevels {
		if l == level && i < len(p.ResponseColors) {
			return p.ResponseColors[i]
		}
	}
	return ""
}

// SaveProfile writes the profile as YAML, creating the parent directory.
func SaveProfile(p *Profile, path string) error {
	if path == "" {
		return errors.InvalidInput("profile path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir profile dir: %w", err)
		}
	}
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}
