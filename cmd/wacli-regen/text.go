package main

import (
	"github.com/spf13/cobra"

	"github.com/RAKUDEJI/wacli/gen"
	"github.com/RAKUDEJI/wacli/registry"
)

func newWITCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wit",
		Short: "Print the dynamic-registry WIT world for the descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			return writeString(cmd.OutOrStdout(), gen.DynamicWIT(reg))
		},
	}
}

func newWACCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wac",
		Short: "Print the WAC composition that links plugins to the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			pkg := a.cfg.Package
			if pkg == "" {
				pkg = gen.DefaultPackage
			}
			return writeString(cmd.OutOrStdout(), gen.WAC(pkg, reg))
		},
	}
}

// loadRegistry loads and validates the descriptors without generating.
func (a *app) loadRegistry() (*registry.Registry, error) {
	return registry.Load(a.cfg.Descriptors)
}
