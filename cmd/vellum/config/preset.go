package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scriptoriumco/vellum/pkg/cliui"
	"github.com/scriptoriumco/vellum/pkg/config"
)

const presetLongDesc string = `Apply a named configuration preset.

Overwrites config.toml in the .vellum/ directory with the preset's values.

Available presets:
  agent    Marker protocol, in-memory citations, no event publishing
  chat     SSE protocol, in-memory citations, no event publishing
  kafka    Marker protocol, sqlite citations, Kafka command publishing

Examples:
  vellum config preset agent
  vellum config preset kafka`

const presetShortDesc string = "Apply a named configuration preset"

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset <name>",
		Short: presetShortDesc,
		Long:  presetLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runPreset(args[0], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runPreset(name, configDir string) error {
	cfg, err := config.PresetConfig(name)
	if err != nil {
		return fmt.Errorf("%w\n\nValid presets: %s", err, strings.Join(config.ValidPresetNames(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("\n  %s Applied preset %s\n  %s %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(strings.ToLower(name)),
		cliui.KeyStyle.Render("Config file:"),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
	return nil
}
