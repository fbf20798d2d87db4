// Package librarycmder provides the library command for managing the active
// citation library selection persisted in the .vellum/ directory.
package librarycmder

import (
	"github.com/spf13/cobra"
)

const libraryLongDesc string = `Manage the active citation library.

The active library is stored as library.json in the .vellum/ directory.
Decode sessions mark it in the citation store so addCitation lookups search
it before any other library.

Use subcommands to select, inspect, or clear the active library:
  vellum library use <id>    Select the active library
  vellum library show        Show the current library state
  vellum library clear       Forget the library selection

Examples:
  vellum library use lib-42 --name "Thesis Sources" --project proj-7
  vellum library show
  vellum library clear`

const libraryShortDesc string = "Manage the active citation library"

func NewLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: libraryShortDesc,
		Long:  libraryLongDesc,
	}

	cmd.AddCommand(newUseCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}
