// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/shopify-admin/tools/dashgen/panels"
)

// BuildOverview constructs the shop gateway overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Shop Gateway Overview").
		Uid("shop-gateway-overview").
		Tags([]string{"shopify", "shop-gateway"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.TokenExchangesStat()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	b.WithRow(dashboard.NewRowBuilder("Admin API").
		WithPanel(panels.AdminCallsByStatus()).
		WithPanel(panels.AdminLatency()).
		WithPanel(panels.AdminErrorRate()).
		WithPanel(panels.CallBucketFill()).
		WithPanel(panels.TokenExchanges()))

	b.WithRow(dashboard.NewRowBuilder("Signatures & Webhooks").
		WithPanel(panels.SignatureChecks()).
		WithPanel(panels.WebhooksByTopic()).
		WithPanel(panels.WebhooksRejected()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
