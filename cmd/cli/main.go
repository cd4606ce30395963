package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"epifig/adapters/stats/label"
	"epifig/adapters/stats/temporal"
	"epifig/internal/config"
	"epifig/internal/container"
	"epifig/internal/report"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "epifig",
		Short: "Summaries of epidemic forecast posteriors, aligned to calendar dates",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("EPIFIG_CONFIG"), "YAML config file (optional)")

	load := func(ctx context.Context) (*container.Container, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		c, err := container.New(cfg)
		if err != nil {
			return nil, err
		}
		if err := c.Load(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}

	rootCmd.AddCommand(
		newSeriesCmd(load),
		newDistributionsCmd(load),
		newLabelCmd(),
		newReportCmd(load),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type loader func(ctx context.Context) (*container.Container, error)

func newSeriesCmd(load loader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "series [scenario]",
		Short: "Print the fitted and forecast case series of a scenario",
		Long: `Print the posterior medians and credible intervals of new and total cases,
dated on the calendar, next to the observed counts.

Example: epifig series three_changes --config epifig.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load(cmd.Context())
			if err != nil {
				return err
			}
			tr, err := c.Trace(args[0])
			if err != nil {
				return err
			}
			ts, err := c.Builder.Timeseries(args[0], tr, c.Observations.Cumulative)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ts)
			}

			precision := c.Config.Summary.Precision
			fmt.Fprintf(out, "Scenario %s, data as of %s\n", ts.Scenario, ts.AsOf)
			for _, q := range []struct {
				title string
				seg   temporal.Segment
			}{
				{"New cases (fit)", ts.Alignment.New.Past},
				{"New cases (forecast)", ts.Alignment.New.Future},
				{"Total cases (fit)", ts.Alignment.Cumulative.Past},
				{"Total cases (forecast)", ts.Alignment.Cumulative.Future},
			} {
				if err := printSegment(out, q.title, q.seg, precision); err != nil {
					return err
				}
			}
			if ts.GrowthRate != nil {
				if err := printSegment(out, "Effective growth rate", *ts.GrowthRate, 3); err != nil {
					return err
				}
			}
			if ts.DelayMarker != nil {
				fmt.Fprintf(out, "\nGrowth rates after %s are not yet constrained by data\n", ts.DelayMarker.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full timeseries as JSON")
	return cmd
}

func printSegment(out io.Writer, title string, seg temporal.Segment, precision int) error {
	if seg.Len() == 0 {
		return nil
	}
	band := seg.Primary()
	fmt.Fprintf(out, "\n%s, %.0f%% CI\n", title, band.Coverage*100)
	for i, iv := range band.Intervals {
		var cells [3]string
		for j, v := range []float64{iv.Median, iv.Lower, iv.Upper} {
			text, err := label.FormatNumber(v, precision)
			if err != nil {
				return fmt.Errorf("%s on %s: %w", title, seg.Dates[i], err)
			}
			cells[j] = text
		}
		fmt.Fprintf(out, "  %s  %12s  [%s, %s]\n", seg.Dates[i], cells[0], cells[1], cells[2])
	}
	return nil
}

func newDistributionsCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "distributions [scenario]",
		Short: "Print median and credible interval of every model parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load(cmd.Context())
			if err != nil {
				return err
			}
			tr, err := c.Trace(args[0])
			if err != nil {
				return err
			}
			panels, err := c.Builder.Distributions(tr, c.Builder.DefaultSpecs(tr))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range panels {
				fmt.Fprintf(out, "%s (mean %.3f, sd %.3f, n=%d)\n%s\n\n",
					p.Name, p.Stats.Mean, p.Stats.StdDev, p.Stats.Samples, p.Label)
			}
			return nil
		},
	}
}

func newLabelCmd() *cobra.Command {
	var precision int

	cmd := &cobra.Command{
		Use:   "label [values...]",
		Short: "Format samples as a median and 95% credible interval",
		Long: `Format samples as a median and 95% credible interval.

Example: epifig label 0.21 0.25 0.19 0.30 --precision 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]float64, len(args))
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid value %q: %w", a, err)
				}
				values[i] = v
			}
			text, err := label.FormatMedianCI(values, precision)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().IntVar(&precision, "precision", 2, "Decimal places")
	return cmd
}

func newReportCmd(load loader) *cobra.Command {
	var asHTML bool
	var save bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a summary report of every scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load(cmd.Context())
			if err != nil {
				return err
			}

			entries := make([]report.Entry, 0, len(c.Traces))
			all, err := c.Builder.Scenarios(c.Traces, c.Observations.Cumulative)
			if err != nil {
				return err
			}
			for _, ts := range all {
				tr := c.Traces[ts.Scenario]
				panels, err := c.Builder.Distributions(tr, c.Builder.DefaultSpecs(tr))
				if err != nil {
					return err
				}
				entries = append(entries, report.Entry{Timeseries: ts, Panels: panels, TraceHash: tr.Hash})
			}

			rep, err := report.Build(report.Input{
				Country:   c.Observations.Country,
				Precision: c.Config.Summary.Precision,
				Entries:   entries,
			})
			if err != nil {
				return err
			}

			body, ext := []byte(rep.Markdown()), ".md"
			if asHTML {
				body, ext = rep.HTML(), ".html"
			}
			if !save {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}

			dir := c.Config.Paths.OutputDir
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dir, "summary_"+rep.AsOf+ext)
			if err := os.WriteFile(path, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report %s saved to %s\n", rep.ID, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of Markdown")
	cmd.Flags().BoolVar(&save, "save", false, "Write the report to paths.output_dir")
	return cmd
}
