package librarycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoriumco/vellum/pkg/cliui"
	"github.com/scriptoriumco/vellum/pkg/dotdir"
)

const clearLongDesc string = `Forget the library selection.

Removes .vellum/library.json. Decode sessions fall back to searching all
libraries in store order.

Examples:
  vellum library clear`

const clearShortDesc string = "Forget the library selection"

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: clearShortDesc,
		Long:  clearLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runClear(configDir)
		},
	}

	return cmd
}

func runClear(configDir string) error {
	ddm := dotdir.NewManager()

	if err := ddm.ClearLibraryState(configDir); err != nil {
		return fmt.Errorf("clearing library state: %w", err)
	}

	fmt.Printf("\n  %s Library selection cleared\n\n", cliui.SuccessMark)
	return nil
}
