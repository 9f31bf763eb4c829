// Package validate checks generated dashboards for PromQL syntax errors and
// references to metrics the gateway does not export.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/cog/variants"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects validation findings. Errors fail generation; warnings are
// reported but do not.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// Dashboard parses every Prometheus target expression in dash and checks
// the selected metric names against known.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result

	for _, p := range dash.Panels {
		if p.Panel != nil {
			checkPanel(&res, *p.Panel, known)
		}
		if p.RowPanel != nil {
			for _, inner := range p.RowPanel.Panels {
				checkPanel(&res, inner, known)
			}
		}
	}

	return res
}

// Expr validates a single PromQL expression, such as a rule expression.
func Expr(where, expr string, known map[string]bool) Result {
	var res Result
	checkExpr(&res, where, expr, known)
	return res
}

func checkPanel(res *Result, p dashboard.Panel, known map[string]bool) {
	title := "untitled"
	if p.Title != nil {
		title = *p.Title
	}

	if len(p.Targets) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has no targets", title))
		return
	}

	for _, t := range p.Targets {
		expr, ok := promExpr(t)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has a non-prometheus target", title))
			continue
		}
		checkExpr(res, fmt.Sprintf("panel %q", title), expr, known)
	}
}

func promExpr(t variants.Dataquery) (string, bool) {
	switch q := t.(type) {
	case *prometheus.Dataquery:
		return q.Expr, true
	case prometheus.Dataquery:
		return q.Expr, true
	default:
		return "", false
	}
}

func checkExpr(res *Result, where, expr string, known map[string]bool) {
	if expr == "" {
		res.Errors = append(res.Errors, where+": empty expression")
		return
	}

	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: parsing %q: %v", where, expr, err))
		return
	}

	unknown := map[string]bool{}
	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		if !known[metricName(vs.Name)] {
			unknown[vs.Name] = true
		}
		return nil
	})

	names := make([]string, 0, len(unknown))
	for name := range unknown {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: unknown metric %q", where, name))
	}
}

// metricName strips the histogram series suffixes so buckets resolve to the
// exported histogram name.
func metricName(name string) string {
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if base, ok := strings.CutSuffix(name, suffix); ok && base != "" {
			return base
		}
	}
	return name
}
