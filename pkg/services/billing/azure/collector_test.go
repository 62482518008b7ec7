package azure

import (
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/ct-tools/cloudscope/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryColumns(names ...string) []*armcostmanagement.QueryColumn {
	columns := make([]*armcostmanagement.QueryColumn, 0, len(names))
	for _, name := range names {
		columns = append(columns, &armcostmanagement.QueryColumn{
			Name: to.Ptr(name),
			Type: to.Ptr("String"),
		})
	}
	return columns
}

func julyPeriod() domain.TimePeriod {
	return domain.TimePeriod{
		Start:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Duration: 31,
	}
}

func TestTransformQueryResult(t *testing.T) {
	props := &armcostmanagement.QueryProperties{
		Columns: queryColumns("Cost", "ServiceName", "ResourceLocation", "Currency"),
		Rows: [][]any{
			{412.07, "Virtual Machines", "westeurope", "EUR"},
			{9.13, "Storage", "westeurope", "EUR"},
		},
	}

	costs := transformQueryResult(props, julyPeriod(), "staging")
	require.Len(t, costs, 2)

	vm := costs[0]
	assert.Equal(t, domain.ProviderAzure, vm.Resource.Provider)
	assert.Equal(t, "Virtual Machines", vm.Resource.Service)
	assert.Equal(t, "westeurope", vm.Resource.Region)
	assert.Equal(t, "staging", vm.Resource.Account)
	assert.Equal(t, julyPeriod().Start, vm.StartTime)
	assert.Equal(t, julyPeriod().End, vm.EndTime)

	require.Len(t, vm.Costs, 1)
	assert.Equal(t, "compute", vm.Costs[0].Type)
	assert.Equal(t, 412.07, vm.Costs[0].TotalAmount)
	assert.Equal(t, "EUR", vm.Costs[0].Currency)

	assert.Equal(t, "storage", costs[1].Costs[0].Type)
}

func TestTransformQueryResult_ColumnOrderDoesNotMatter(t *testing.T) {
	props := &armcostmanagement.QueryProperties{
		Columns: queryColumns("ServiceName", "Currency", "Cost"),
		Rows: [][]any{
			{"Azure SQL Database", "USD", 55.0},
		},
	}

	costs := transformQueryResult(props, julyPeriod(), "prod")
	require.Len(t, costs, 1)
	assert.Equal(t, "database", costs[0].Costs[0].Type)
	assert.Equal(t, 55.0, costs[0].Costs[0].TotalAmount)
	assert.Empty(t, costs[0].Resource.Region)
}

func TestTransformQueryResult_SkipsMalformedRows(t *testing.T) {
	props := &armcostmanagement.QueryProperties{
		Columns: queryColumns("Cost", "ServiceName"),
		Rows: [][]any{
			{"not a number", "Broken"},
			{12.5, ""},
		},
	}

	costs := transformQueryResult(props, julyPeriod(), "prod")
	require.Len(t, costs, 1)
	assert.Equal(t, "Other", costs[0].Resource.Service)
}

func TestTransformQueryResult_MissingColumns(t *testing.T) {
	assert.Nil(t, transformQueryResult(nil, julyPeriod(), "prod"))
	assert.Nil(t, transformQueryResult(&armcostmanagement.QueryProperties{
		Columns: queryColumns("Currency"),
		Rows:    [][]any{{"EUR"}},
	}, julyPeriod(), "prod"))
}
