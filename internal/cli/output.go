package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"avencia-pm/internal/domain"
)

func validateOutputFormat(output string) error {
	switch output {
	case "", "table", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unsupported output format %q: use 'table', 'json' or 'yaml'", output)
}

// listOutput is the json and yaml shape of a listed page.
type listOutput[R any] struct {
	Items      []R   `json:"items" yaml:"items"`
	Page       int   `json:"page" yaml:"page"`
	Limit      int   `json:"limit" yaml:"limit"`
	Total      int64 `json:"total" yaml:"total"`
	TotalPages int   `json:"total_pages" yaml:"total_pages"`
}

// table describes how a row type renders as columns.
type table[R any] struct {
	headers []string
	cells   func(R) []string
}

func printPage[T, R any](w io.Writer, format string, p domain.Page[T], conv func(T) R, tbl table[R]) error {
	rows := make([]R, len(p.Items))
	for i, item := range p.Items {
		rows[i] = conv(item)
	}
	out := listOutput[R]{Items: rows, Page: p.Page, Limit: p.Limit, Total: p.Total, TotalPages: p.TotalPages()}

	switch format {
	case "json":
		return printJSON(w, out)
	case "yaml":
		return printYAML(w, out)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tbl.headers, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(tbl.cells(r), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d total)\n", out.Page, max(out.TotalPages, 1), out.Total)
	return err
}

// printValue writes a single value; table output falls back to key: value
// lines.
func printValue(w io.Writer, format string, v any, lines [][2]string) error {
	switch format {
	case "json":
		return printJSON(w, v)
	case "yaml":
		return printYAML(w, v)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range lines {
		fmt.Fprintf(tw, "%s:\t%s\n", l[0], l[1])
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
