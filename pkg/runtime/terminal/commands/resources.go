package commands

import (
	"fmt"

	"github.com/ct-tools/cloudscope/pkg/services/config"
	"github.com/ct-tools/cloudscope/pkg/services/registry"
	"github.com/spf13/cobra"
)

type ResourcesCmd struct {
	deps Dependencies

	profilesPath string
	profile      string
}

func NewResourcesCmd(deps Dependencies) *cobra.Command {
	rc := &ResourcesCmd{deps: deps}
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List the resources an account exposes",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.profilesPath, "profiles", config.DefaultProfilesPath(), "Path to the profiles file")
	cmd.Flags().StringVar(&rc.profile, "profile", "", "Profile holding the account credentials")

	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func (rc *ResourcesCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	profiles, err := registry.NewFileRegistry(rc.profilesPath)
	if err != nil {
		return err
	}
	profile, err := profiles.GetProfile(ctx, rc.profile)
	if err != nil {
		return err
	}
	creds, err := profiles.GetCredentials(ctx, rc.profile)
	if err != nil {
		return err
	}

	explorer, err := rc.deps.Accounts.Get(profile.Provider)
	if err != nil {
		return err
	}
	resources, err := explorer.ListResources(ctx, creds)
	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(resources) == 0 {
		fmt.Fprintf(out, "No resources found for account %s\n", creds.AccountName)
		return nil
	}

	fmt.Fprintf(out, "%-24s %-28s %-10s %-16s %s\n", "ID", "NAME", "SERVICE", "REGION", "STATUS")
	for _, r := range resources {
		fmt.Fprintf(out, "%-24s %-28s %-10s %-16s %s\n", r.ID, r.Name, r.Service, r.Region, r.Status)
	}

	return nil
}
