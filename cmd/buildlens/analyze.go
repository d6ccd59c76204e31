package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"buildlens/internal/config"
	"buildlens/internal/diagfmt"
	"buildlens/internal/driver"
	"buildlens/internal/parser"
	"buildlens/internal/report"
	"buildlens/internal/trace"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <log>...",
	Short: "Analyze build logs and report the issues they contain",
	Long: `Analyze parses one or more build logs ("-" reads stdin), classifies and
groups the diagnostics and writes a report. With --fix the source tree under
--root is searched for simple automatic fixes; --write applies them.

Exit status: 0 when no issues were found, 1 when issues were found,
2 when no log could be read or the run failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

// init registers the analyze flags. Flags that are set override buildlens.toml.
func init() {
	analyzeCmd.Flags().String("config", "", "configuration file (default: nearest "+config.FileName+")")
	analyzeCmd.Flags().String("root", "", "source tree used for automatic fixes (default \".\" with --fix)")
	analyzeCmd.Flags().Bool("fix", false, "compute automatic fixes against --root")
	analyzeCmd.Flags().Bool("write", false, "write automatic fixes back to the source tree (implies --fix)")
	analyzeCmd.Flags().String("out", "", "directory to write report files to (default: text report on stdout)")
	analyzeCmd.Flags().StringSlice("format", nil, "report formats written to --out (text|html|json|msgpack)")
	analyzeCmd.Flags().String("title", "", "report title")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	analyzeCmd.Flags().Bool("timings", false, "include stage timings in the report")
	analyzeCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

type analyzeFlags struct {
	root    string
	fix     bool
	write   bool
	out     string
	formats []diagfmt.Format
	ui      uiMode
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, flags, err := readAnalyzeFlags(cmd)
	if err != nil {
		return err
	}

	sources := make([]parser.Source, 0, len(args))
	for _, a := range args {
		if a == "-" {
			sources = append(sources, stdinSource(cmd.InOrStdin()))
			continue
		}
		sources = append(sources, parser.FileSource(a))
	}

	opts := driver.Options{Config: cfg, Write: flags.write}
	if flags.fix {
		opts.Root = flags.root
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var res *driver.Result
	if shouldUseTUI(flags.ui) {
		res, err = runAnalyzeWithUI(ctx, "buildlens analyze", sources, opts)
	} else {
		res, err = driver.Analyze(ctx, sources, opts)
	}
	if err != nil {
		dumpTrace(trace.FromContext(ctx), cmd.ErrOrStderr())
		return err
	}

	for _, werr := range res.WriteErrs {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), werr)
	}

	if flags.out == "" {
		if err := diagfmt.Text(cmd.OutOrStdout(), res.Report, diagfmt.TextOpts{Color: !color.NoColor}); err != nil {
			return err
		}
	} else {
		if err := diagfmt.Render(res.Report, diagfmt.DirSink{Dir: flags.out}, flags.formats); err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), res.Report, flags)
	}

	if code := exitCode(res.Report.Status); code != 0 {
		return exitError{code: code}
	}
	return nil
}

// readAnalyzeFlags resolves the configuration and lays the flags that were
// set on top of it.
func readAnalyzeFlags(cmd *cobra.Command) (config.Config, analyzeFlags, error) {
	var flags analyzeFlags
	fs := cmd.Flags()

	cfgPath, err := fs.GetString("config")
	if err != nil {
		return config.Config{}, flags, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Resolve(cfgPath, ".")
	if err != nil {
		return config.Config{}, flags, err
	}

	if flags.root, err = fs.GetString("root"); err != nil {
		return cfg, flags, fmt.Errorf("failed to get root flag: %w", err)
	}
	if flags.fix, err = fs.GetBool("fix"); err != nil {
		return cfg, flags, fmt.Errorf("failed to get fix flag: %w", err)
	}
	if flags.write, err = fs.GetBool("write"); err != nil {
		return cfg, flags, fmt.Errorf("failed to get write flag: %w", err)
	}
	if flags.out, err = fs.GetString("out"); err != nil {
		return cfg, flags, fmt.Errorf("failed to get out flag: %w", err)
	}
	uiValue, err := fs.GetString("ui")
	if err != nil {
		return cfg, flags, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if flags.ui, err = readUIMode(uiValue); err != nil {
		return cfg, flags, err
	}

	if flags.root != "" && !fs.Changed("fix") {
		// --root on its own enables fixes unless the configuration disables them
		flags.fix = cfg.Remediation.Enabled
	}
	if flags.write {
		flags.fix = true
	}
	if flags.fix {
		cfg.Remediation.Enabled = true
		if flags.root == "" {
			flags.root = "."
		}
	}

	if fs.Changed("format") {
		names, err := fs.GetStringSlice("format")
		if err != nil {
			return cfg, flags, fmt.Errorf("failed to get format flag: %w", err)
		}
		cfg.Report.Formats = names
	}
	if fs.Changed("title") {
		if cfg.Report.Title, err = fs.GetString("title"); err != nil {
			return cfg, flags, fmt.Errorf("failed to get title flag: %w", err)
		}
	}
	if fs.Changed("jobs") {
		if cfg.Run.Jobs, err = fs.GetInt("jobs"); err != nil {
			return cfg, flags, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if fs.Changed("timings") {
		if cfg.Report.Timings, err = fs.GetBool("timings"); err != nil {
			return cfg, flags, fmt.Errorf("failed to get timings flag: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, flags, err
	}
	if flags.formats, err = cfg.Formats(); err != nil {
		return cfg, flags, err
	}
	return cfg, flags, nil
}

func stdinSource(r io.Reader) parser.Source {
	return parser.Source{Name: "<stdin>", Open: func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	}}
}

func exitCode(s report.Status) int {
	switch s {
	case report.StatusNoIssues:
		return 0
	case report.StatusIssuesFound:
		return 1
	}
	return 2
}

func printSummary(out io.Writer, r *report.AnalysisReport, flags analyzeFlags) {
	bold := color.New(color.Bold)
	status := color.New(color.FgGreen, color.Bold)
	switch r.Status {
	case report.StatusIssuesFound:
		status = color.New(color.FgYellow, color.Bold)
	case report.StatusUnreadable:
		status = color.New(color.FgRed, color.Bold)
	}
	fmt.Fprintf(out, "%s %s\n", bold.Sprint("Status:"), status.Sprint(r.Status))
	fmt.Fprintf(out, "%d issues (%d errors, %d warnings, %d notes) in %d files, %d unlocated\n",
		r.Totals.Issues, r.Totals.Errors, r.Totals.Warnings, r.Totals.Notes, r.Totals.Files, r.Totals.Unlocated)
	if r.Remediation.Ran {
		state := "proposed"
		if r.Remediation.Written {
			state = "applied"
		}
		fmt.Fprintf(out, "%d edits %s in %d files\n", r.Totals.Edits, state, len(r.Batches))
	}
	for _, f := range flags.formats {
		fmt.Fprintf(out, "wrote %s\n", filepath.Join(flags.out, f.FileName()))
	}
}
