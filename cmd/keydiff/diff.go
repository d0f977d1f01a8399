package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TFMV/keydiff/config"
	"github.com/TFMV/keydiff/logger"
	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/diff"
	"github.com/TFMV/keydiff/pkg/readers"
	"github.com/TFMV/keydiff/pkg/writers"
	"github.com/TFMV/keydiff/report"
	"github.com/TFMV/keydiff/version"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// newDiffCommand creates a new diff command.
func newDiffCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [flags] ORIG DIFF",
		Short: "Compare two files by key column",
		Long: `The diff command matches the rows of ORIG and DIFF on a key column and
reports every row as added (+), removed (-), changed (~) or unchanged.

Key columns are zero-based. --diff-index defaults to --orig-index. With
--with-prefix only rows whose key field starts with the prefix are compared;
other rows are ignored on both sides.

Examples:
  keydiff diff --orig-index 0 old.csv new.csv
  keydiff diff --orig-index 2 --diff-index 0 --with-prefix img/ a.csv b.tsv
  keydiff diff --format parquet --output changes.parquet old.parquet new.parquet`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.opts.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runDiff(ctx, cmd, a.opts, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.Int("orig-index", 0, "Zero-based key column in ORIG")
	flags.Int("diff-index", -1, "Zero-based key column in DIFF (defaults to --orig-index)")
	flags.String("with-prefix", "", "Only compare rows whose key field starts with this prefix")
	flags.Bool("with-headers", false, "Treat the first row of each file as a header")
	flags.String("orig-type", "auto", "ORIG input type (auto, csv, tsv, arrow, parquet)")
	flags.String("diff-type", "auto", "DIFF input type (auto, csv, tsv, arrow, parquet)")
	flags.String("delimiter", ",", "Field delimiter for CSV inputs")
	flags.String("comment", "", "Skip CSV lines starting with this character")
	flags.Bool("lazy-quotes", false, "Allow bare quotes in CSV fields")
	flags.String("key-delimiter", "", "Match on the key text after the first occurrence of this delimiter")
	flags.StringP("format", "f", "text", "Output format (text, json, arrow, parquet)")
	flags.StringP("output", "o", "", "Output path (defaults to stdout for text and json)")
	flags.String("report", "", "Write a run report (.json or .html)")
	flags.Bool("show-unchanged", false, "Include unchanged rows in the output")
	flags.String("color", "auto", "Color text output (auto, always, never)")
	flags.Bool("confirm", false, "Show row counts and ask for confirmation before comparing")
	flags.Bool("fail-on-diff", false, "Exit with status 2 when the inputs differ")

	bindFlags(a.v, flags, map[string]string{
		"orig_index":     "orig-index",
		"diff_index":     "diff-index",
		"with_prefix":    "with-prefix",
		"with_headers":   "with-headers",
		"orig_type":      "orig-type",
		"diff_type":      "diff-type",
		"delimiter":      "delimiter",
		"comment":        "comment",
		"lazy_quotes":    "lazy-quotes",
		"key_delimiter":  "key-delimiter",
		"format":         "format",
		"output":         "output",
		"report":         "report",
		"show_unchanged": "show-unchanged",
		"color":          "color",
		"confirm":        "confirm",
		"fail_on_diff":   "fail-on-diff",
	})

	return cmd
}

// runDiff executes the diff command with the given options.
func runDiff(ctx context.Context, cmd *cobra.Command, opts *config.Options, origPath, diffPath string) error {
	log := logger.GetLogger()
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	start := time.Now()

	log.Debug("Starting comparison",
		zap.String("orig", origPath),
		zap.String("diff", diffPath),
		zap.Int("orig_index", opts.OrigIndex),
		zap.Int("diff_index", opts.DiffIndexOrDefault()),
	)

	sp := startSpinner(stderr, " Loading inputs...")
	origTable, diffTable, err := readers.LoadPair(ctx,
		opts.ReaderConfig(core.Orig, origPath),
		opts.ReaderConfig(core.Diff, diffPath),
	)
	sp.stop()
	if err != nil {
		return err
	}

	options := opts.CoreOptions()
	differ := diff.NewKeyedDiffer(log)

	origIdx, diffIdx, err := differ.Index(ctx, origTable, diffTable, options)
	if err != nil {
		return err
	}

	if opts.Confirm {
		if err := confirm(cmd.InOrStdin(), stderr, origIdx, diffIdx); err != nil {
			return err
		}
	}

	result, err := differ.CompareIndexes(ctx, origIdx, diffIdx)
	if err != nil {
		return err
	}

	if err := writeResult(ctx, opts, stdout, result); err != nil {
		return err
	}

	if opts.Report != "" {
		run := report.NewRunReport(origPath, diffPath, options, opts.WithHeaders, result, start, time.Now())
		run.Version = version.GetVersion()
		if err := report.SaveReport(run, opts.Report); err != nil {
			return err
		}
		log.Info("Report written", zap.String("path", opts.Report))
	}

	if opts.FailOnDiff && result.Summary.HasDifferences() {
		return errDifferences
	}
	return nil
}

func writeResult(ctx context.Context, opts *config.Options, stdout io.Writer, result *core.Result) error {
	writer, err := writers.DefaultFactory.Create(core.WriterConfig{
		Type:          opts.Format,
		Path:          opts.Output,
		Out:           stdout,
		Color:         useColor(opts.Color, opts.Output, stdout),
		ShowUnchanged: opts.ShowUnchanged,
	})
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}

	if err := writer.Write(ctx, result); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	return writer.Close()
}

// useColor resolves the color mode. "auto" colors only a terminal stdout and
// honors NO_COLOR through fatih/color's detection.
func useColor(mode, outputPath string, stdout io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if outputPath != "" || color.NoColor {
		return false
	}
	return isTerminal(stdout)
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// confirm shows the filtered row count and first key of each input and asks
// to continue. Anything other than "y" or "yes" aborts.
func confirm(in io.Reader, out io.Writer, indexes ...*diff.Index) error {
	for _, idx := range indexes {
		first, ok := idx.FirstKey()
		if !ok {
			first = "(none)"
		}
		fmt.Fprintf(out, "%s has %d records, first key: %s\n", idx.Side(), idx.Len(), first)
	}
	fmt.Fprint(out, "Is this correct? [y/N] ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return core.ErrAborted
	}
}

// progress wraps a spinner that only runs on an interactive stderr.
type progress struct {
	s *spinner.Spinner
}

func startSpinner(w io.Writer, suffix string) progress {
	if !isTerminal(w) {
		return progress{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = suffix
	s.Start()
	return progress{s: s}
}

func (p progress) stop() {
	if p.s != nil {
		p.s.Stop()
	}
}
