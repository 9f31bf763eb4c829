package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/shopify-admin/tools/dashgen/dashboards"
	"github.com/donaldgifford/shopify-admin/tools/dashgen/rules"
	"github.com/donaldgifford/shopify-admin/tools/dashgen/validate"
)

const generatedHeader = "# Code generated by dashgen. DO NOT EDIT.\n"

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(os.Stdout, cfg, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type artifact struct {
	path string
	data []byte
}

func run(w io.Writer, cfg Config, validateOnly bool) error {
	var files []artifact

	if cfg.DashboardEnabled {
		f, err := dashboardArtifact(w, cfg.OutputDir)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	if cfg.RulesEnabled {
		fs, err := ruleArtifacts(cfg.OutputDir)
		if err != nil {
			return err
		}
		files = append(files, fs...)
	}

	if validateOnly {
		fmt.Fprintln(w, "validation passed")
		return nil
	}

	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(f.path), err)
		}
		if err := os.WriteFile(f.path, f.data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		fmt.Fprintf(w, "dashgen: wrote %s\n", f.path)
	}
	return nil
}

func dashboardArtifact(w io.Writer, dir string) (artifact, error) {
	dash, err := dashboards.BuildOverview().Build()
	if err != nil {
		return artifact{}, fmt.Errorf("building overview dashboard: %w", err)
	}

	result := validate.Dashboard(dash, KnownMetrics)
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if !result.Ok() {
		return artifact{}, fmt.Errorf("overview dashboard: %w", joinErrors(result.Errors))
	}

	data, err := json.MarshalIndent(dash, "", "  ")
	if err != nil {
		return artifact{}, fmt.Errorf("marshaling dashboard: %w", err)
	}

	return artifact{
		path: filepath.Join(dir, "grafana", "data", "shop-gateway-overview.json"),
		data: append(data, '\n'),
	}, nil
}

func ruleArtifacts(dir string) ([]artifact, error) {
	crs := []rules.PrometheusRule{rules.RecordingRules(), rules.AlertRules()}

	files := make([]artifact, 0, len(crs))
	for _, cr := range crs {
		var msgs []string
		for _, g := range cr.Spec.Groups {
			for _, r := range g.Rules {
				res := validate.Expr(fmt.Sprintf("rule %s%s", r.Record, r.Alert), r.Expr, KnownMetrics)
				msgs = append(msgs, res.Errors...)
			}
		}
		if len(msgs) > 0 {
			return nil, fmt.Errorf("%s: %w", cr.Metadata.Name, joinErrors(msgs))
		}

		data, err := yaml.Marshal(cr)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", cr.Metadata.Name, err)
		}
		files = append(files, artifact{
			path: filepath.Join(dir, "prometheus", cr.Metadata.Name+".yaml"),
			data: append([]byte(generatedHeader), data...),
		})
	}
	return files, nil
}

func joinErrors(msgs []string) error {
	errs := make([]error, 0, len(msgs))
	for _, m := range msgs {
		errs = append(errs, errors.New(m))
	}
	return errors.Join(errs...)
}
