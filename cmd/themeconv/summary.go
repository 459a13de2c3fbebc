package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/foduucom/themeconv"
	"github.com/foduucom/themeconv/core"
	"github.com/foduucom/themeconv/orchestrator"
	"github.com/foduucom/themeconv/pipeline"
	"github.com/foduucom/themeconv/storage/file"
	"github.com/urfave/cli/v2"
)

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:   "summary",
		Usage:  "Show token usage and cost recorded in a workspace",
		Action: summaryAction,
		Flags: []cli.Flag{
			workspaceFlag(),
			&cli.BoolFlag{
				Name:  "entries",
				Usage: "List every ledger entry",
			},
		},
	}
}

func summaryAction(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("workspace") {
		cfg.Storage.Workspace = c.String("workspace")
	}

	ledger, err := file.NewUsageLedger(filepath.Join(cfg.Storage.Workspace, themeconv.LedgerFile))
	if err != nil {
		return err
	}
	usage, err := ledger.Summarize(c.Context, cfg.CorePricing())
	if err != nil {
		return err
	}
	if c.Bool("entries") {
		printEntries(c.App.Writer, usage.Entries)
	}
	printUsage(c.App.Writer, usage)
	return nil
}

func printRun(w io.Writer, summary *orchestrator.Summary) {
	if summary == nil {
		return
	}
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\n%s %s\n", cyan("=== Conversion run"), gray(summary.RunID))
	for _, d := range summary.Documents {
		if d.Err != nil {
			fmt.Fprintf(w, "  %s %-30s %v\n", red("✗"), d.Document, d.Err)
			continue
		}
		r := d.Report
		if r == nil {
			r = &pipeline.Report{}
		}
		fmt.Fprintf(w, "  %s %-30s %d converted, %d resumed, %d cached, %d duplicate %s\n",
			green("✓"), d.Document, len(r.Succeeded), len(r.Resumed), len(r.CacheHits), len(r.Duplicates),
			gray(d.Elapsed.Round(time.Millisecond)))
	}
	fmt.Fprintf(w, "  %d page(s), %d failed, %s\n", len(summary.Documents), len(summary.Failed()), summary.Elapsed.Round(time.Millisecond))
}

func printEntries(w io.Writer, entries map[string]core.Usage) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		u := entries[k]
		fmt.Fprintf(w, "  %-40s in %8d  out %8d  total %8d\n", k, u.InputTokens, u.OutputTokens, u.TotalTokens)
	}
}

func printUsage(w io.Writer, usage core.UsageSummary) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(w, "\n%s\n", yellow("Token usage:"))
	fmt.Fprintf(w, "  Input:   %d\n", usage.Totals.InputTokens)
	fmt.Fprintf(w, "  Output:  %d\n", usage.Totals.OutputTokens)
	fmt.Fprintf(w, "  Total:   %d\n", usage.Totals.TotalTokens)
	fmt.Fprintf(w, "%s\n", yellow("Cost:"))
	fmt.Fprintf(w, "  Input:   %.4f\n", usage.InputCost)
	fmt.Fprintf(w, "  Output:  %.4f\n", usage.OutputCost)
	fmt.Fprintf(w, "  Total:   %.4f\n", usage.TotalCost)
}
