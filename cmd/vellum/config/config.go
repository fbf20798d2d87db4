// Package configcmder provides the config command for managing persistent
// vellum configuration stored in the .vellum/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent vellum configuration.

Configuration is stored as config.toml in the .vellum/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  decoder.protocol, decoder.debounce_ms,
  citations.driver, citations.sqlite_path, citations.reload_workers,
  events.publisher, events.kafka_brokers, events.kafka_topic

Use subcommands to get, set, list, or preset configuration values:
  vellum config set <key> <value>    Set a configuration value
  vellum config get <key>            Get a configuration value
  vellum config list                 List all configuration values
  vellum config preset <name>        Apply a named preset

Examples:
  vellum config set decoder.protocol sse
  vellum config set events.publisher kafka
  vellum config get citations.driver
  vellum config preset agent
  vellum config list`

const configShortDesc string = "Manage persistent vellum configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPresetCmd())

	return cmd
}
