package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	statik "github.com/jward/statik"
)

// Output formatting: text is tabwriter-aligned columns, grounded on
// canopy's cmd/canopy/format.go; json is a stable, typed object per
// command (spec §6).

var validFormats = map[string]bool{"text": true, "json": true}

func validateFormat(format string) error {
	if !validFormats[format] {
		return fmt.Errorf("invalid --format %q: must be text or json", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatIndexStats(w io.Writer, format string, stats *statik.IndexStats) error {
	if format == "json" {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "files indexed:    %d\n", stats.FilesIndexed)
	fmt.Fprintf(w, "files unchanged:  %d\n", stats.FilesUnchanged)
	fmt.Fprintf(w, "files removed:    %d\n", stats.FilesRemoved)
	fmt.Fprintf(w, "symbols:          %d\n", stats.SymbolsExtracted)
	fmt.Fprintf(w, "references:       %d\n", stats.ReferencesFound)
	fmt.Fprintf(w, "parse errors:     %d\n", len(stats.ParseErrors))
	for _, pe := range stats.ParseErrors {
		fmt.Fprintf(w, "  %s: %s\n", pe.Path, pe.Message)
	}
	fmt.Fprintf(w, "duration:         %s\n", stats.Duration.Round(1e6))
	return nil
}

func formatGraphNodes(w io.Writer, format string, nodes []statik.GraphNode) error {
	if format == "json" {
		return writeJSON(w, nodes)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPTH\tPATH")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%d\t%s\n", n.Depth, n.Path)
	}
	return tw.Flush()
}

func formatExports(w io.Writer, format string, exports []statik.ExportedSymbol) error {
	if format == "json" {
		return writeJSON(w, exports)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tQUALIFIED NAME\tFILE\tLINE")
	for _, e := range exports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.Kind, e.QualifiedName, e.File, e.StartLine)
	}
	return tw.Flush()
}

func formatDeadSymbols(w io.Writer, format string, dead []statik.DeadSymbol) error {
	if format == "json" {
		return writeJSON(w, dead)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tQUALIFIED NAME\tFILE\tLINE")
	for _, d := range dead {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.Kind, d.QualifiedName, d.File, d.StartLine)
	}
	return tw.Flush()
}

func formatCycles(w io.Writer, format string, cycles []statik.Cycle) error {
	if format == "json" {
		return writeJSON(w, cycles)
	}
	if len(cycles) == 0 {
		fmt.Fprintln(w, "no cycles found")
		return nil
	}
	for i, c := range cycles {
		fmt.Fprintf(w, "cycle %d: %s\n", i+1, joinArrow(c))
	}
	return nil
}

func joinArrow(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += " -> "
		}
		out += p
	}
	return out
}

func formatImpact(w io.Writer, format string, files []string) error {
	if format == "json" {
		return writeJSON(w, files)
	}
	for _, f := range files {
		fmt.Fprintln(w, f)
	}
	return nil
}

func formatSummary(w io.Writer, format string, summary []statik.LanguageSummary) error {
	if format == "json" {
		return writeJSON(w, summary)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tFILES\tSYMBOLS\tEXPORTED\tREFERENCES")
	for _, s := range summary {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", s.Language, s.Files, s.Symbols, s.ExportedSymbols, s.References)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, s := range summary {
		if len(s.Hotspots) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s hotspots:\n", s.Language)
		htw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(htw, "  FILE\tFAN-IN\tFAN-OUT")
		for _, h := range s.Hotspots {
			fmt.Fprintf(htw, "  %s\t%d\t%d\n", h.File, h.FanIn, h.FanOut)
		}
		htw.Flush()
	}
	return nil
}

func formatDiagnostics(w io.Writer, format string, result *statik.EvalResult) error {
	if format == "json" {
		return writeJSON(w, result)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tRULE\tFILE\tMESSAGE")
	for _, d := range result.Diagnostics {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Severity, d.RuleID, d.File, d.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d diagnostic(s)\n", len(result.Diagnostics))
	return nil
}
