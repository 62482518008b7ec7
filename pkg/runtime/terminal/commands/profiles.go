package commands

import (
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/services/config"
	"github.com/ct-tools/cloudscope/pkg/services/registry"
	"github.com/spf13/cobra"
)

type ProfilesCmd struct {
	profilesPath string
}

func NewProfilesCmd() *cobra.Command {
	pc := &ProfilesCmd{}
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List stored account profiles",
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.profilesPath, "profiles", config.DefaultProfilesPath(), "Path to the profiles file")

	return cmd
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, _ []string) error {
	profiles, err := registry.NewFileRegistry(pc.profilesPath)
	if err != nil {
		return err
	}
	stored, err := profiles.GetProfiles(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(stored) == 0 {
		fmt.Fprintln(out, "No profiles configured")
		return nil
	}

	fmt.Fprintf(out, "%-24s %s\n", "NAME", "PROVIDER")
	for _, p := range stored {
		fmt.Fprintf(out, "%-24s %s\n", p.Name, p.Provider)
	}

	return nil
}
