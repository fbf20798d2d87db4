// Package vellumcmder
package vellumcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/scriptoriumco/vellum/cmd/vellum/config"
	decodecmder "github.com/scriptoriumco/vellum/cmd/vellum/decode"
	librarycmder "github.com/scriptoriumco/vellum/cmd/vellum/library"
	versioncmder "github.com/scriptoriumco/vellum/cmd/version"
)

const vellumLongDesc string = `Vellum decodes agent response streams into structured message parts.

Decode streams using:
  vellum decode            Decode a stream from stdin or a file
  vellum decode --follow   Live-tail a growing stream file

Manage state using:
  vellum config            Manage persistent configuration
  vellum library           Manage the active citation library`

const vellumShortDesc string = "Vellum - Agent Stream Decoder"

func NewVellumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vellum",
		Short: vellumShortDesc,
		Long:  vellumLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .vellum/ directory location")

	// Add subcommands
	cmd.AddCommand(decodecmder.NewDecodeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(librarycmder.NewLibraryCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
