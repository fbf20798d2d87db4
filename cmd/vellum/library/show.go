package librarycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoriumco/vellum/pkg/cliui"
	"github.com/scriptoriumco/vellum/pkg/dotdir"
)

const showLongDesc string = `Show the current library state.

Displays the active library, its project, and all remembered libraries
from .vellum/library.json.

Examples:
  vellum library show`

const showShortDesc string = "Show the current library state"

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runShow(configDir)
		},
	}

	return cmd
}

func runShow(configDir string) error {
	ddm := dotdir.NewManager()

	state, err := ddm.LoadLibraryState(configDir)
	if err != nil {
		return fmt.Errorf("loading library state: %w", err)
	}

	if state == nil || state.ActiveLibraryID == "" {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No active library."))
		return nil
	}

	fmt.Printf("\n  %s  %s\n",
		cliui.KeyStyle.Render("Active library:"),
		cliui.ValueStyle.Render(state.ActiveLibraryID),
	)
	if state.ProjectID != "" {
		fmt.Printf("  %s  %s\n",
			cliui.KeyStyle.Render("Project:"),
			cliui.ValueStyle.Render(state.ProjectID),
		)
	}

	if len(state.Libraries) > 0 {
		fmt.Printf("\n  %s\n", cliui.KeyStyle.Render("Known libraries:"))
		for _, ref := range state.Libraries {
			marker := " "
			if ref.ID == state.ActiveLibraryID {
				marker = cliui.SuccessMark
			}
			if ref.Name != "" {
				fmt.Printf("  %s %s  %s\n", marker, cliui.ValueStyle.Render(ref.ID), cliui.DimStyle.Render(ref.Name))
			} else {
				fmt.Printf("  %s %s\n", marker, cliui.ValueStyle.Render(ref.ID))
			}
		}
	}
	fmt.Println()

	return nil
}
