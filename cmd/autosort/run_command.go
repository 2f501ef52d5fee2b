package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"autosort/internal/classify"
	"autosort/internal/config"
	"autosort/internal/describe"
	"autosort/internal/journal"
	"autosort/internal/logging"
	"autosort/internal/metrics"
	"autosort/internal/pipeline"
	"autosort/internal/runlock"
	"autosort/internal/services/llm"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		workers int
		jsonOut bool
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "run [source]",
		Short: "Describe, rename and file every image and PDF in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := ctx.sourceDir(cfg, args)
			if err != nil {
				return err
			}
			// Fail before the lock, journal or log files are created.
			if err := classify.CheckSource(source); err != nil {
				return err
			}
			rules := classify.RulesFromConfig(cfg, source)

			if dryRun {
				return runDryRun(cmd, source, rules, jsonOut)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = cfg.Pipeline.MaxWorkersPerCategory
			}

			summary, err := organize(cmd, cfg, logger, source, rules, workers)
			if err != nil {
				return err
			}

			if jsonOut {
				if err := writeJSON(cmd, newSummaryJSON(summary)); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), summary)
			}
			if summary.HasFailures() {
				totals := summary.Totals()
				return fmt.Errorf("run %s finished with %d failed file(s) and %d skipped", summary.RunID, totals.Failed, totals.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent files per category (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would be processed")
	return cmd
}

// organize takes the source lock, wires describers, journal and metrics, and
// runs the pipeline.
func organize(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, source string, rules []classify.Rule, workers int) (pipeline.Summary, error) {
	lock, err := runlock.Acquire(cfg.LockDir(), source)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release run lock failed", logging.String("lock", lock.Path()), logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	opts := []pipeline.Option{
		pipeline.WithRunID(runID),
		pipeline.WithLogger(logger),
		pipeline.WithDescribeTimeout(cfg.DescribeTimeout()),
		pipeline.WithMaxNameLength(cfg.Pipeline.MaxNameLength),
	}
	opts = append(opts, describerOptions(cfg, &describe.Counter{})...)

	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal disabled for this run", logging.String("path", cfg.Journal.Path), logging.Error(err))
		} else {
			defer store.Close()
			opts = append(opts, pipeline.WithRecorder(store))
		}
	}

	var collector *metrics.Collector
	if cfg.Metrics.TextfilePath != "" {
		collector = metrics.New()
		opts = append(opts, pipeline.WithObserver(collector))
	}

	summary, err := pipeline.Run(cmd.Context(), source, rules, workers, opts...)
	if err != nil {
		return summary, err
	}

	if collector != nil {
		collector.ObserveSummary(summary)
		if err := collector.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("metrics export failed", logging.String("path", cfg.Metrics.TextfilePath), logging.Error(err))
		}
	}
	return summary, nil
}

// describerOptions binds each enabled category to its describer. Both
// describers share counter so fallback names are unique across the run.
func describerOptions(cfg *config.Config, counter *describe.Counter) []pipeline.Option {
	var opts []pipeline.Option
	if cfg.Categories.Image.Enabled {
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			Prompt:         cfg.LLM.Prompt,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
		opts = append(opts, pipeline.WithDescriber(classify.TagImage,
			describe.NewImageDescriber(client, counter, cfg.LLM.MaxImageDimension)))
	}
	if cfg.Categories.Document.Enabled {
		opts = append(opts, pipeline.WithDescriber(classify.TagDocument,
			describe.NewDocumentDescriber(counter, cfg.Pipeline.PDFTextChars)))
	}
	return opts
}

func runDryRun(cmd *cobra.Command, source string, rules []classify.Rule, jsonOut bool) error {
	cls, err := classify.Scan(cmd.Context(), source, rules)
	if err != nil {
		return err
	}
	type plan struct {
		Category    string   `json:"category"`
		Destination string   `json:"destination"`
		Files       []string `json:"files"`
	}
	plans := make([]plan, 0, len(cls.Batches))
	for _, b := range cls.Batches {
		p := plan{Category: string(b.Rule.Tag), Destination: b.Rule.Destination}
		for _, e := range b.Entries {
			p.Files = append(p.Files, e.Name)
		}
		plans = append(plans, p)
	}
	if jsonOut {
		return writeJSON(cmd, plans)
	}

	out := cmd.OutOrStdout()
	if len(plans) == 0 {
		fmt.Fprintf(out, "Nothing to organize in %s\n", source)
		return nil
	}
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, []string{p.Category, strconv.Itoa(len(p.Files)), p.Destination})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Category", "Files", "Destination"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft}))
	return nil
}

func printSummary(out io.Writer, s pipeline.Summary) {
	if len(s.Categories) == 0 {
		fmt.Fprintf(out, "Nothing to organize in %s\n", s.SourceDir)
		return
	}

	headers := []string{"Category", "Attempted", "Moved", "Failed", "Fallback", "Skipped", "Destination"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(s.Categories)+1)
	for _, c := range s.Categories {
		rows = append(rows, summaryRow(string(c.Category), c, c.Destination))
	}
	if len(s.Categories) > 1 {
		rows = append(rows, summaryRow("total", s.Totals(), ""))
	}
	fmt.Fprintln(out, renderTable(out, headers, rows, aligns))

	for _, c := range s.Categories {
		if c.SetupErr != nil {
			fmt.Fprintf(out, "%s skipped: %v\n", c.Category, c.SetupErr)
		}
		for _, f := range c.Failures {
			fmt.Fprintf(out, "failed: %s: %v\n", filepath.Base(f.Path), f.Err)
		}
	}
	fmt.Fprintf(out, "Run %s finished in %s\n", s.RunID, s.Duration().Round(time.Millisecond))
}

func summaryRow(name string, c pipeline.CategorySummary, dest string) []string {
	return []string{
		name,
		strconv.Itoa(c.Attempted),
		strconv.Itoa(c.Succeeded),
		strconv.Itoa(c.Failed),
		strconv.Itoa(c.Fallbacks),
		strconv.Itoa(c.Skipped),
		dest,
	}
}
