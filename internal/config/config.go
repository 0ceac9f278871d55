package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	SourcePath  string  `mapstructure:"source_path" yaml:"source_path"`
	ModelsDir   string  `mapstructure:"models_dir" yaml:"models_dir"`
	TestSize    float64 `mapstructure:"test_size" yaml:"test_size"`
	Seed        int64   `mapstructure:"seed" yaml:"seed"`
	NEstimators int     `mapstructure:"n_estimators" yaml:"n_estimators"`
	// Source parsing; empty means first sheet and delimiter by extension.
	SheetName string `mapstructure:"sheet_name" yaml:"sheet_name"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`

	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
}

// Dir returns ~/.milexcast.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".milexcast"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.milexcast/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("MILEXCAST")
	v.AutomaticEnv()

	v.SetDefault("source_path", filepath.Join("data", "military_expenditure.csv"))
	v.SetDefault("models_dir", "models")
	v.SetDefault("test_size", 0.2)
	v.SetDefault("seed", 42)
	v.SetDefault("n_estimators", 100)
	v.SetDefault("sheet_name", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("log_level", "warn")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports settings the pipeline cannot run with.
func (c *Global) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0, 1), got %v", c.TestSize)
	}
	if c.NEstimators < 1 {
		return fmt.Errorf("n_estimators must be positive, got %d", c.NEstimators)
	}
	if c.Delimiter != `\t` && c.Delimiter != "tab" && len([]rune(c.Delimiter)) > 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	return nil
}

// DelimiterRune returns the configured delimiter, or 0 to sniff by extension.
func (c *Global) DelimiterRune() rune {
	switch c.Delimiter {
	case "":
		return 0
	case `\t`, "tab":
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}
