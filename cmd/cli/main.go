package main

import (
	"fmt"
	"os"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/ct-tools/cloudscope/pkg/runtime/terminal"
	"github.com/ct-tools/cloudscope/pkg/services/account"
	awsaccount "github.com/ct-tools/cloudscope/pkg/services/account/aws"
	azureaccount "github.com/ct-tools/cloudscope/pkg/services/account/azure"
	"github.com/ct-tools/cloudscope/pkg/services/billing"
	awsbilling "github.com/ct-tools/cloudscope/pkg/services/billing/aws"
	azurebilling "github.com/ct-tools/cloudscope/pkg/services/billing/azure"
	"github.com/ct-tools/cloudscope/pkg/services/report"
	"github.com/ct-tools/cloudscope/pkg/services/report/render"
	"github.com/ct-tools/cloudscope/pkg/services/usage"
	awsusage "github.com/ct-tools/cloudscope/pkg/services/usage/aws"
	azureusage "github.com/ct-tools/cloudscope/pkg/services/usage/azure"
	"github.com/ct-tools/cloudscope/pkg/store/specs"
)

func main() {
	accounts := account.NewRegistry()
	if err := accounts.Register(domain.ProviderAWS, awsaccount.NewExplorer()); err != nil {
		fail(err)
	}
	if err := accounts.Register(domain.ProviderAzure, azureaccount.NewExplorer()); err != nil {
		fail(err)
	}

	specsStore := specs.NewStore()
	generator := report.NewGenerator(
		map[domain.Provider]usage.Factory{
			domain.ProviderAWS:   awsusage.Factory(specsStore),
			domain.ProviderAzure: azureusage.Factory(),
		},
		map[domain.Provider]billing.Factory{
			domain.ProviderAWS:   awsbilling.Factory(),
			domain.ProviderAzure: azurebilling.Factory(),
		},
	)

	cli := terminal.NewCLI(terminal.Options{
		Accounts:  accounts,
		Generator: generator,
		Renderers: render.Registry(),
		Output:    os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
