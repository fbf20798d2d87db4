package librarycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptoriumco/vellum/pkg/cliui"
	"github.com/scriptoriumco/vellum/pkg/dotdir"
)

const useLongDesc string = `Select the active citation library.

Sets the library that decode sessions mark active in the citation store.
The selection persists in .vellum/library.json. Libraries are remembered
across invocations, newest first.

Examples:
  vellum library use lib-42
  vellum library use lib-42 --name "Thesis Sources" --project proj-7`

const useShortDesc string = "Select the active citation library"

func newUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <library-id>",
		Short: useShortDesc,
		Long:  useLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			name, _ := cmd.Flags().GetString("name")
			project, _ := cmd.Flags().GetString("project")
			return runUse(args[0], name, project, configDir)
		},
	}

	cmd.Flags().String("name", "", "Human-readable library name")
	cmd.Flags().String("project", "", "Project the library belongs to")

	return cmd
}

func runUse(libraryID, name, projectID, configDir string) error {
	ddm := dotdir.NewManager()

	state, err := ddm.LoadLibraryState(configDir)
	if err != nil {
		return fmt.Errorf("loading library state: %w", err)
	}
	if state == nil {
		state = &dotdir.LibraryState{}
	}

	state.ActiveLibraryID = libraryID
	if projectID != "" {
		state.ProjectID = projectID
	}

	// Move the selected library to the front of the known list.
	refs := []dotdir.LibraryRef{{ID: libraryID, Name: name}}
	for _, ref := range state.Libraries {
		if ref.ID == libraryID {
			if name == "" {
				refs[0].Name = ref.Name
			}
			continue
		}
		refs = append(refs, ref)
	}
	state.Libraries = refs

	if err := ddm.SaveLibraryState(state, configDir); err != nil {
		return fmt.Errorf("saving library state: %w", err)
	}

	fmt.Printf("\n  %s Active library set to %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(libraryID),
	)
	return nil
}
