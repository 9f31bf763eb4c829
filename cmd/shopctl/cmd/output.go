package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/donaldgifford/shopify-admin/pkg/shopify"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

// verifyResult is the outcome of a signature check.
type verifyResult struct {
	Kind   string `json:"kind"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func printVerifyResult(w io.Writer, r verifyResult) error {
	tw := newTabWriter(w)
	tw.writef("Kind:\t%s\n", r.Kind)
	tw.writef("Valid:\t%v\n", r.Valid)
	if r.Reason != "" {
		tw.writef("Reason:\t%s\n", r.Reason)
	}
	return tw.finish()
}

// responseSummary is the printable form of a normalized admin response.
type responseSummary struct {
	Status    int             `json:"status"`
	Envelope  string          `json:"envelope,omitempty"`
	Unwrapped bool            `json:"unwrapped"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func summarize(resp *shopify.Response) responseSummary {
	return responseSummary{
		Status:    resp.Raw.StatusCode,
		Envelope:  resp.Envelope,
		Unwrapped: resp.Unwrapped,
		Payload:   resp.Payload,
	}
}

func printResponse(w io.Writer, resp *shopify.Response) error {
	tw := newTabWriter(w)
	tw.writef("Status:\t%d\n", resp.Raw.StatusCode)
	if resp.Unwrapped {
		tw.writef("Envelope:\t%s\n", resp.Envelope)
	}
	if err := tw.finish(); err != nil {
		return err
	}
	if !resp.HasPayload() {
		_, err := fmt.Fprintln(w, "(no payload)")
		return err
	}
	return outputJSON(w, resp.Payload)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
