// Package config loads wacli-regen settings from defaults, an optional
// wacli-regen.{yaml,toml,json} file, WACLI_* environment variables and
// command-line flags, in increasing precedence.
package config

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/RAKUDEJI/wacli/gen"
)

const (
	// FileName is the config file name without extension.
	FileName = "wacli-regen"
	// EnvPrefix prefixes environment overrides, e.g. WACLI_OUTPUT.
	EnvPrefix = "WACLI"
)

// Keys
const (
	KeyDescriptors   = "descriptors"
	KeyOutput        = "output"
	KeyWAT           = "wat"
	KeyWIT           = "wit"
	KeyWAC           = "wac"
	KeyPackage       = "package"
	KeyModuleName    = "module_name"
	KeyExportHelpers = "export_helpers"
	KeyVerbose       = "verbose"
)

// Config is the resolved wacli-regen configuration.
type Config struct {
	Descriptors   string `mapstructure:"descriptors"`
	Output        string `mapstructure:"output"`
	WAT           string `mapstructure:"wat"`
	WIT           string `mapstructure:"wit"`
	WAC           string `mapstructure:"wac"`
	Package       string `mapstructure:"package"`
	ModuleName    string `mapstructure:"module_name"`
	ExportHelpers bool   `mapstructure:"export_helpers"`
	Verbose       bool   `mapstructure:"verbose"`
}

// New returns a viper instance with defaults and search paths set. Callers
// bind flags to it before Load.
func New(dirs ...string) *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyDescriptors, "wacli.yaml")
	v.SetDefault(KeyOutput, "registry.wasm")
	v.SetDefault(KeyWAT, "")
	v.SetDefault(KeyWIT, "")
	v.SetDefault(KeyWAC, "")
	v.SetDefault(KeyPackage, gen.DefaultPackage)
	v.SetDefault(KeyModuleName, gen.DefaultModuleName)
	v.SetDefault(KeyExportHelpers, false)
	v.SetDefault(KeyVerbose, false)

	v.SetConfigName(FileName)
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file if one exists and resolves every key.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GenOptions converts the generator settings.
func (c *Config) GenOptions() gen.Options {
	return gen.Options{
		ModuleName:    c.ModuleName,
		Package:       c.Package,
		ExportHelpers: c.ExportHelpers,
	}
}

func validate(cfg *Config) error {
	if cfg.Descriptors == "" {
		return fmt.Errorf("%s must not be empty", KeyDescriptors)
	}
	if cfg.Package != "" && !strings.Contains(cfg.Package, ":") {
		return fmt.Errorf("%s must look like namespace:name, got: %s", KeyPackage, cfg.Package)
	}
	return nil
}
