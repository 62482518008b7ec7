package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/runtime/terminal/export"
	"github.com/ct-tools/cloudscope/pkg/services/account"
	"github.com/ct-tools/cloudscope/pkg/services/config"
	"github.com/ct-tools/cloudscope/pkg/services/registry"
	"github.com/ct-tools/cloudscope/pkg/services/report"
	"github.com/ct-tools/cloudscope/pkg/services/report/render"
	"github.com/spf13/cobra"
)

// Dependencies are the shared services every command draws from.
type Dependencies struct {
	Accounts  *account.Registry
	Generator report.Generator
	Renderers map[domain.ReportFormat]render.Renderer
	Reporter  *export.Reporter
}

type GenerateCmd struct {
	deps Dependencies

	profilesPath string
	profile      string
	reportType   string
	resources    []string
	year         int
	month        int
	format       string
	outputDir    string
}

func NewGenerateCmd(deps Dependencies) *cobra.Command {
	gc := &GenerateCmd{deps: deps}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a utilization or billing report",
		RunE:  gc.run,
	}

	cmd.Flags().StringVar(&gc.profilesPath, "profiles", config.DefaultProfilesPath(), "Path to the profiles file")
	cmd.Flags().StringVar(&gc.profile, "profile", "", "Profile holding the account credentials")
	cmd.Flags().StringVar(&gc.reportType, "type", "utilization", "Report type (utilization or billing)")
	cmd.Flags().StringSliceVar(&gc.resources, "resource", nil, "Resource id to include, repeatable")
	cmd.Flags().IntVar(&gc.year, "year", 0, "Billing year (defaults to the current year)")
	cmd.Flags().IntVar(&gc.month, "month", 0, "Billing month (defaults to the current month)")
	cmd.Flags().StringVar(&gc.format, "format", "pdf", "File format (pdf, csv or json)")
	cmd.Flags().StringVar(&gc.outputDir, "output", "", "Directory for the rendered report file")

	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func (gc *GenerateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	req, err := gc.buildRequest(ctx)
	if err != nil {
		return err
	}

	result, err := gc.deps.Generator.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if err := gc.deps.Reporter.Handle(result); err != nil {
		return err
	}

	if gc.outputDir == "" {
		return nil
	}

	renderer, ok := gc.deps.Renderers[req.Format]
	if !ok {
		return fmt.Errorf("no renderer for format %q", req.Format)
	}
	data, err := renderer.Render(result)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	name := render.FileName(req.Account, time.Now(), req.Format)
	path := filepath.Join(gc.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
	return nil
}

func (gc *GenerateCmd) buildRequest(ctx context.Context) (domain.ReportRequest, error) {
	profiles, err := registry.NewFileRegistry(gc.profilesPath)
	if err != nil {
		return domain.ReportRequest{}, err
	}
	profile, err := profiles.GetProfile(ctx, gc.profile)
	if err != nil {
		return domain.ReportRequest{}, err
	}
	creds, err := profiles.GetCredentials(ctx, gc.profile)
	if err != nil {
		return domain.ReportRequest{}, err
	}

	req := domain.ReportRequest{
		Account:     creds.AccountName,
		Provider:    profile.Provider,
		ReportType:  domain.ReportType(gc.reportType),
		Frequency:   domain.FrequencyOnce,
		Format:      domain.ReportFormat(gc.format),
		Credentials: creds,
	}

	switch req.ReportType {
	case domain.ReportTypeBilling:
		now := time.Now()
		tf := domain.Timeframe{Year: gc.year, Month: gc.month}
		if tf.Year == 0 {
			tf.Year = now.Year()
		}
		if tf.Month == 0 {
			tf.Month = int(now.Month())
		}
		req.Timeframe = &tf
	case domain.ReportTypeUtilization:
		refs, err := gc.resolveResources(ctx, profile.Provider, creds)
		if err != nil {
			return domain.ReportRequest{}, err
		}
		req.ResourceIDs = refs
	default:
		return domain.ReportRequest{}, fmt.Errorf("unknown report type %q", gc.reportType)
	}

	return req, nil
}

// resolveResources expands bare resource ids to full references by
// matching them against what the account actually exposes.
func (gc *GenerateCmd) resolveResources(
	ctx context.Context,
	provider domain.Provider,
	creds domain.Credentials,
) ([]string, error) {
	if len(gc.resources) == 0 {
		return nil, fmt.Errorf("a utilization report needs at least one --resource")
	}

	explorer, err := gc.deps.Accounts.Get(provider)
	if err != nil {
		return nil, err
	}
	available, err := explorer.ListResources(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	byID := make(map[string]domain.Resource, len(available))
	for _, r := range available {
		byID[r.ID] = r
	}

	refs := make([]string, 0, len(gc.resources))
	for _, id := range gc.resources {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("resource %q not found in account %s", id, creds.AccountName)
		}
		refs = append(refs, r.Ref())
	}
	return refs, nil
}
