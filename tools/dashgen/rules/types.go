// Package rules generates the shop gateway's Prometheus recording and alert
// rules as Prometheus Operator PrometheusRule resources.
package rules

import "fmt"

const (
	apiVersion = "monitoring.coreos.com/v1"
	kind       = "PrometheusRule"

	// job is the scrape job every gateway series carries.
	job = "shop-gateway"

	// ruleSelector is the label the cluster Prometheus selects rules by.
	ruleSelector = "system-rules-prometheus"
)

// Severity is the alert routing label understood by Alertmanager.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// PrometheusRule is a Kubernetes custom resource for Prometheus Operator.
type PrometheusRule struct {
	APIVersion string                 `yaml:"apiVersion"`
	Kind       string                 `yaml:"kind"`
	Metadata   PrometheusRuleMetadata `yaml:"metadata"`
	Spec       PrometheusRuleSpec     `yaml:"spec"`
}

type PrometheusRuleMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

type PrometheusRuleSpec struct {
	Groups []RuleGroup `yaml:"groups"`
}

// RuleGroup is a named collection of recording or alerting rules.
type RuleGroup struct {
	Name     string `yaml:"name"`
	Interval string `yaml:"interval,omitempty"`
	Rules    []Rule `yaml:"rules"`
}

// Rule is either a recording rule (Record set) or an alert (Alert set).
type Rule struct {
	Record      string            `yaml:"record,omitempty"`
	Alert       string            `yaml:"alert,omitempty"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// gatewayRule wraps one group of gateway rules in a PrometheusRule named
// after it.
func gatewayRule(name, group string, rules ...Rule) PrometheusRule {
	return PrometheusRule{
		APIVersion: apiVersion,
		Kind:       kind,
		Metadata: PrometheusRuleMetadata{
			Name:   name,
			Labels: map[string]string{"prometheus": ruleSelector},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{{Name: group, Rules: rules}},
		},
	}
}

// record builds a shopify:<name>:rate5m recording rule.
func record(name, expr string) Rule {
	return Rule{Record: "shopify:" + name + ":rate5m", Expr: expr}
}

// alert builds an alert labelled with the gateway job so Alertmanager can
// route it to the shop integration's receiver.
func alert(name, expr, forDur string, sev Severity, summary, description string) Rule {
	return Rule{
		Alert: name,
		Expr:  expr,
		For:   forDur,
		Labels: map[string]string{
			"severity": string(sev),
			"service":  job,
		},
		Annotations: map[string]string{
			"summary":     summary,
			"description": description,
		},
	}
}

// ratioAbove alerts when one recorded rate exceeds frac of another.
func ratioAbove(num, den string, frac float64) string {
	return fmt.Sprintf("shopify:%s:rate5m / shopify:%s:rate5m > %g", num, den, frac)
}

// counterRate is sum(rate(...)) over a gateway counter with optional label
// matchers, optionally grouped by one label.
func counterRate(metric, by, matchers string) string {
	sel := metric
	if matchers != "" {
		sel += "{" + matchers + "}"
	}
	if by == "" {
		return fmt.Sprintf("sum(rate(%s[5m]))", sel)
	}
	return fmt.Sprintf("sum by (%s) (rate(%s[5m]))", by, sel)
}
