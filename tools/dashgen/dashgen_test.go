package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/shopify-admin/tools/dashgen/dashboards"
	"github.com/donaldgifford/shopify-admin/tools/dashgen/rules"
	"github.com/donaldgifford/shopify-admin/tools/dashgen/validate"
)

func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate_EmptyOutputDir(t *testing.T) {
	t.Parallel()
	cfg := Config{OutputDir: "", DashboardEnabled: true}
	assert.Error(t, cfg.Validate())
}

func TestConfigValidate_NothingEnabled(t *testing.T) {
	t.Parallel()
	cfg := Config{OutputDir: "/tmp", DashboardEnabled: false, RulesEnabled: false}
	assert.Error(t, cfg.Validate())
}

func TestBuildOverviewDashboard(t *testing.T) {
	t.Parallel()

	dash, err := dashboards.BuildOverview().Build()
	require.NoError(t, err)

	require.NotNil(t, dash.Uid)
	assert.Equal(t, "shop-gateway-overview", *dash.Uid)

	require.NotNil(t, dash.Title)
	assert.Equal(t, "Shop Gateway Overview", *dash.Title)

	require.NotNil(t, dash.Templating)
	assert.Len(t, dash.Templating.List, 1)
	assert.Equal(t, "datasource", dash.Templating.List[0].Name)

	assert.Len(t, dash.Panels, 4)

	totalPanels := 0
	for _, p := range dash.Panels {
		if p.RowPanel != nil {
			totalPanels += len(p.RowPanel.Panels)
		}
	}
	assert.Equal(t, 15, totalPanels)

	result := validate.Dashboard(dash, KnownMetrics)
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
	assert.Empty(t, result.Warnings, "unexpected warnings: %v", result.Warnings)
}

func TestValidateExpr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "known counter", expr: `rate(shopify_http_requests_total[5m])`},
		{name: "histogram bucket", expr: `histogram_quantile(0.9, sum(rate(shopify_admin_api_request_duration_seconds_bucket[5m])) by (le))`},
		{name: "recording rule", expr: `shopify:http_errors:rate5m / shopify:http_requests:rate5m`},
		{name: "unknown metric", expr: `rate(legacy_ingestion_errors_total[5m])`, wantErr: true},
		{name: "syntax error", expr: `sum(rate(shopify_http_requests_total[5m])`, wantErr: true},
		{name: "empty", expr: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := validate.Expr("test", tt.expr, KnownMetrics)
			assert.Equal(t, tt.wantErr, !res.Ok(), "errors: %v", res.Errors)
		})
	}
}

func TestRecordingRules(t *testing.T) {
	t.Parallel()

	cr := rules.RecordingRules()
	assert.Equal(t, "monitoring.coreos.com/v1", cr.APIVersion)
	assert.Equal(t, "PrometheusRule", cr.Kind)
	assert.Equal(t, "shop-gateway-recording-rules", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	group := cr.Spec.Groups[0]
	assert.Equal(t, "shop-gateway-recording", group.Name)
	require.Len(t, group.Rules, 6)

	expectedRecords := []string{
		"shopify:http_requests:rate5m",
		"shopify:http_errors:rate5m",
		"shopify:admin_api_requests:rate5m",
		"shopify:admin_api_errors:rate5m",
		"shopify:signature_mismatches:rate5m",
		"shopify:webhooks_rejected:rate5m",
	}
	for i, rule := range group.Rules {
		assert.Equal(t, expectedRecords[i], rule.Record)
		assert.True(t, KnownMetrics[rule.Record], "recording rule %s not in KnownMetrics", rule.Record)
		assert.True(t, validate.Expr(rule.Record, rule.Expr, KnownMetrics).Ok())
	}

	assert.Equal(t, `sum(rate(shopify_http_requests_total{status=~"5.."}[5m]))`, group.Rules[1].Expr)
	assert.Equal(t,
		`sum by (kind) (rate(shopify_signature_checks_total{result="mismatch"}[5m]))`,
		group.Rules[4].Expr)

	data, err := yaml.Marshal(cr)
	require.NoError(t, err)
	assert.Contains(t, string(data), "apiVersion: monitoring.coreos.com/v1")
	assert.Contains(t, string(data), "prometheus: system-rules-prometheus")
}

func TestAlertRules(t *testing.T) {
	t.Parallel()

	cr := rules.AlertRules()
	assert.Equal(t, "monitoring.coreos.com/v1", cr.APIVersion)
	assert.Equal(t, "PrometheusRule", cr.Kind)
	assert.Equal(t, "shop-gateway-alerts", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	group := cr.Spec.Groups[0]
	assert.Equal(t, "shop-gateway-alerts", group.Name)
	require.Len(t, group.Rules, 7)

	expectedAlerts := []string{
		"ShopGatewayDown",
		"ShopGatewayNotInstalled",
		"ShopGatewayHighErrorRate",
		"ShopifyAdminAPIErrors",
		"ShopifyTokenExchangeFailures",
		"ShopifySignatureMismatches",
		"ShopifyWebhooksRejected",
	}
	assert.Equal(t, string(rules.SeverityCritical), group.Rules[0].Labels["severity"])
	assert.Equal(t,
		"shopify:http_errors:rate5m / shopify:http_requests:rate5m > 0.05",
		group.Rules[2].Expr)
	for i, rule := range group.Rules {
		assert.Equal(t, expectedAlerts[i], rule.Alert)
		assert.True(t, validate.Expr(rule.Alert, rule.Expr, KnownMetrics).Ok(), "alert %s expr invalid", rule.Alert)
		assert.Contains(t, []string{string(rules.SeverityCritical), string(rules.SeverityWarning)},
			rule.Labels["severity"], "alert %s has unknown severity", rule.Alert)
		assert.Equal(t, "shop-gateway", rule.Labels["service"], "alert %s missing service label", rule.Alert)
		assert.NotEmpty(t, rule.Annotations["summary"], "alert %s missing summary", rule.Alert)
		assert.NotEmpty(t, rule.Annotations["description"], "alert %s missing description", rule.Alert)
	}
}

func TestRun_WritesArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := Config{OutputDir: dir, DashboardEnabled: true, RulesEnabled: true}

	var out bytes.Buffer
	require.NoError(t, run(&out, cfg, false))

	dash, err := os.ReadFile(filepath.Join(dir, "grafana", "data", "shop-gateway-overview.json"))
	require.NoError(t, err)
	assert.Contains(t, string(dash), `"uid": "shop-gateway-overview"`)

	for _, name := range []string{"shop-gateway-recording-rules.yaml", "shop-gateway-alerts.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, "prometheus", name))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte(generatedHeader)), "%s missing header", name)
	}
	assert.Contains(t, out.String(), "dashgen: wrote")
}

func TestRun_ValidateOnly(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	cfg := Config{OutputDir: dir, DashboardEnabled: true, RulesEnabled: true}

	var out bytes.Buffer
	require.NoError(t, run(&out, cfg, true))
	assert.Contains(t, out.String(), "validation passed")

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
