package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/RAKUDEJI/wacli/gen"
	"github.com/RAKUDEJI/wacli/internal/config"
	"github.com/RAKUDEJI/wacli/registry"
	"github.com/RAKUDEJI/wacli/runtime"
)

// app carries the state resolved before a subcommand runs.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	configDir string
}

// flagKeys maps flag names to config keys. Flags not registered on the
// running command are skipped.
var flagKeys = map[string]string{
	"descriptors":    config.KeyDescriptors,
	"output":         config.KeyOutput,
	"wat":            config.KeyWAT,
	"wit":            config.KeyWIT,
	"wac":            config.KeyWAC,
	"package":        config.KeyPackage,
	"module-name":    config.KeyModuleName,
	"export-helpers": config.KeyExportHelpers,
	"verbose":        config.KeyVerbose,
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "wacli-regen",
		Short: "Generate the wacli command registry module",
		Long: `wacli-regen turns a command descriptor file into the core wasm module
that implements the wacli registry and registry-schema interfaces.

Settings come from flags, WACLI_* environment variables, an optional
wacli-regen.{yaml,toml,json} file and built-in defaults, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", ".", "directory searched for "+config.FileName+".{yaml,toml,json}")
	pf.StringP("descriptors", "d", "", "command descriptor file (.yaml, .yml, .json or .toml)")
	pf.String("package", "", "package name of the generated WAC composition")
	pf.String("module-name", "", "module name written to the name section")
	pf.BoolP("verbose", "v", false, "log generator and runtime activity")

	root.AddCommand(newBuildCommand(a))
	root.AddCommand(newInspectCommand(a))
	root.AddCommand(newBrowseCommand(a))
	root.AddCommand(newWITCommand(a))
	root.AddCommand(newWACCommand(a))
	return root
}

// setup resolves configuration for cmd and installs the package loggers.
func (a *app) setup(cmd *cobra.Command) error {
	v := config.New(a.configDir)
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.log = log
	gen.SetLogger(log.Named("gen"))
	runtime.SetLogger(log.Named("runtime"))
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// generate loads the configured descriptors and runs the generator.
func (a *app) generate() (*registry.Registry, *gen.Output, error) {
	reg, err := registry.Load(a.cfg.Descriptors)
	if err != nil {
		return nil, nil, err
	}
	out, err := gen.Generate(reg, a.cfg.GenOptions())
	if err != nil {
		return nil, nil, err
	}
	return reg, out, nil
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}
