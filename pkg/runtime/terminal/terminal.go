package terminal

import (
	"io"
	"os"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/runtime/terminal/commands"
	"github.com/ct-tools/cloudscope/pkg/runtime/terminal/export"
	"github.com/ct-tools/cloudscope/pkg/services/account"
	"github.com/ct-tools/cloudscope/pkg/services/report"
	"github.com/ct-tools/cloudscope/pkg/services/report/render"
	"github.com/spf13/cobra"
)

// CLI generates reports straight from the terminal, without going
// through the web server.
type CLI struct {
	deps    commands.Dependencies
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Accounts  *account.Registry
	Generator report.Generator
	Renderers map[domain.ReportFormat]render.Renderer
	Output    io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		deps: commands.Dependencies{
			Accounts:  opts.Accounts,
			Generator: opts.Generator,
			Renderers: opts.Renderers,
			Reporter:  export.NewReporter(opts.Output),
		},
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cloudscope",
		Short: "Cloud utilization and billing reports",
	}

	cmd.AddCommand(commands.NewGenerateCmd(cli.deps))
	cmd.AddCommand(commands.NewResourcesCmd(cli.deps))
	cmd.AddCommand(commands.NewProfilesCmd())

	return cmd
}
