// Package cmd - extract command.
// This is the main command that orchestrates the pipeline:
// acquire → sample → assemble → render → write.
//
// It handles flag validation, renderer selection, the interactive prompt and
// run history.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gaurav-prasanna/framedoc/acquire"
	"github.com/gaurav-prasanna/framedoc/config"
	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/gaurav-prasanna/framedoc/core/assemble"
	"github.com/gaurav-prasanna/framedoc/core/layout"
	"github.com/gaurav-prasanna/framedoc/core/output"
	"github.com/gaurav-prasanna/framedoc/core/pipeline"
	"github.com/gaurav-prasanna/framedoc/core/render"
	"github.com/gaurav-prasanna/framedoc/core/sample"
	"github.com/gaurav-prasanna/framedoc/history"
	"github.com/gaurav-prasanna/framedoc/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Flag variables.
var (
	flagInterval  float64
	flagMaxFrames int
	flagQuality   string
	flagPDF       bool
	flagJSON      bool
	flagOutputDir string
	flagTitle     string
	flagNoUpscale bool
	flagSpool     bool
	flagNoHistory bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [url|path]",
	Short: "Sample frames from a video into a captioned document",
	Long: `Extract acquires a video (local file, direct video URL, or a page hosting one),
samples one frame every --interval seconds up to --max-frames, and writes one
captioned landscape page per frame.

Without an argument on an interactive terminal, extract prompts for its inputs.

Examples:
  framedoc extract lecture.mp4
  framedoc extract https://example.com/talk --interval 60 --max-frames 30
  framedoc extract https://cdn.example.com/clip.webm --json --output_dir ./out
  framedoc extract https://video.example/watch?v=abc --quality 720p`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	// Sampling flags.
	extractCmd.Flags().Float64Var(&flagInterval, "interval", 30, "Seconds between sampled frames")
	extractCmd.Flags().IntVar(&flagMaxFrames, "max-frames", 20, "Maximum number of frames (pages)")
	extractCmd.Flags().StringVar(&flagQuality, "quality", acquire.QualityBest,
		"Download quality: "+strings.Join(acquire.Qualities, ", "))

	// Output format flags (mutually exclusive).
	extractCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF (default)")
	extractCmd.Flags().BoolVar(&flagJSON, "json", false, "Output a JSON page manifest")

	// Layout flags.
	extractCmd.Flags().BoolVar(&flagNoUpscale, "no-upscale", false, "Never enlarge frames beyond their native size")
	extractCmd.Flags().BoolVar(&flagSpool, "spool", false, "Encode frames through the run's temp directory")

	// Output flags.
	extractCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
	extractCmd.Flags().StringVar(&flagTitle, "title", "", "Document title (default: the video's title)")
	extractCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record this run in the history database")
}

func runExtract(cmd *cobra.Command, args []string) error {
	// --- Validate flags ---
	if err := validateFlags(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyExtractFlags(cmd, cfg)

	var ref string
	if len(args) == 1 {
		ref = strings.TrimSpace(args[0])
	} else {
		if !logging.IsTerminal(os.Stdin) {
			return errors.New("a video URL or path is required")
		}
		answers, err := promptInputs(cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
		if err != nil {
			return err
		}
		ref = answers.Ref
		cfg.Sampling.IntervalSeconds = answers.Interval
		cfg.Sampling.MaxFrames = answers.MaxFrames
		cfg.Acquire.Quality = answers.Quality
	}
	if ref == "" {
		return errors.New("a video URL or path is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctrl, err := buildController(cfg, logger)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Interval:  cfg.Sampling.IntervalSeconds,
		MaxFrames: cfg.Sampling.MaxFrames,
		Quality:   cfg.Acquire.Quality,
		Title:     strings.TrimSpace(flagTitle),
	}
	res, runErr := ctrl.Run(cmd.Context(), ref, opts)

	if !flagNoHistory {
		recordHistory(cmd.Context(), cfg, res, opts, logger)
	}
	if runErr != nil {
		return describeFailure(runErr)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, framesTable(res.Sample))
	if res.Sample.Reason != sample.StopLimit {
		fmt.Fprintf(out, "Source ended after %d of %d requested frames\n", len(res.Sample.Frames), res.Sample.Requested)
	}
	size := ""
	if info, err := os.Stat(res.OutputPath); err == nil {
		size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
	}
	fmt.Fprintf(out, "✓ Written: %s%s\n", res.OutputPath, size)
	return nil
}

// validateFlags checks that at most one output format is chosen.
func validateFlags() error {
	if flagPDF && flagJSON {
		return fmt.Errorf("only one output format allowed per run: --pdf or --json")
	}
	return nil
}

// applyExtractFlags overrides config values with explicitly set flags.
func applyExtractFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("interval") {
		cfg.Sampling.IntervalSeconds = flagInterval
	}
	if flags.Changed("max-frames") {
		cfg.Sampling.MaxFrames = flagMaxFrames
	}
	if flags.Changed("quality") {
		cfg.Acquire.Quality = strings.ToLower(strings.TrimSpace(flagQuality))
	}
	if flags.Changed("output_dir") {
		cfg.Output.Dir = flagOutputDir
	}
	switch {
	case flagPDF:
		cfg.Output.Format = config.FormatPDF
	case flagJSON:
		cfg.Output.Format = config.FormatJSON
	}
	if flagNoUpscale {
		cfg.Page.AllowUpscale = false
	}
	if flagSpool {
		cfg.Page.SpoolToDisk = true
	}
}

// selectRenderer creates the Renderer for the configured format.
func selectRenderer(cfg *config.Config) (core.Renderer, error) {
	switch cfg.Output.Format {
	case config.FormatPDF:
		r := render.NewPDFRenderer(cfg.Page.JPEGQuality)
		r.SpoolToDisk = cfg.Page.SpoolToDisk
		return r, nil
	case config.FormatJSON:
		return render.NewJSONRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", cfg.Output.Format)
	}
}

func buildController(cfg *config.Config, logger *zap.Logger) (*pipeline.Controller, error) {
	renderer, err := selectRenderer(cfg)
	if err != nil {
		return nil, err
	}
	asm, err := assemble.New(cfg.Page.Geometry, layout.Engine{AllowUpscale: cfg.Page.AllowUpscale})
	if err != nil {
		return nil, err
	}
	writer, err := output.New(cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("initializing output writer: %w", err)
	}
	resolver := acquire.NewResolver(acquire.Options{
		YTDLPBinary:  cfg.Acquire.YTDLPBinary,
		DisableYTDLP: cfg.Acquire.DisableYTDLP,
		HTTPTimeout:  time.Duration(cfg.Acquire.HTTPTimeoutSeconds) * time.Second,
		UserAgent:    cfg.Acquire.UserAgent,
	}, logger)

	return pipeline.New(pipeline.Deps{
		Acquirer:  resolver,
		Assembler: asm,
		Renderer:  renderer,
		Writer:    writer,
		TempRoot:  cfg.Paths.TempDir,
		Logger:    logger,
	})
}

func recordHistory(ctx context.Context, cfg *config.Config, res *pipeline.Result, opts pipeline.Options, logger *zap.Logger) {
	if res == nil || cfg.Paths.HistoryPath == "" {
		return
	}
	store, err := history.Open(cfg.Paths.HistoryPath)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	run := history.Run{
		ID:         res.RunID,
		Source:     res.Source,
		Title:      res.Title,
		Status:     history.StatusDone,
		Pages:      res.Pages,
		Interval:   opts.Interval,
		OutputPath: res.OutputPath,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if res.Sample != nil {
		run.Frames = len(res.Sample.Frames)
	}
	if res.Err != nil {
		run.Status = history.StatusFailed
		run.Error = res.Err.Error()
	}
	// A cancelled run still gets recorded.
	if err := store.Record(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("recording run failed", zap.Error(err))
	}
}

// describeFailure maps pipeline errors to user-facing messages.
func describeFailure(err error) error {
	switch {
	case errors.Is(err, core.ErrEmptyInput):
		return fmt.Errorf("no frames could be sampled from the video: %w", err)
	case errors.Is(err, core.ErrSourceUnreadable):
		return fmt.Errorf("the video could not be opened: %w", err)
	case errors.Is(err, core.ErrAcquire):
		return fmt.Errorf("the video could not be retrieved: %w", err)
	case errors.Is(err, core.ErrWriteFailure):
		return fmt.Errorf("the document could not be saved: %w", err)
	case errors.Is(err, context.Canceled):
		return errors.New("cancelled")
	default:
		return err
	}
}

// framesTable lists the sampled frames with their page captions.
func framesTable(res *sample.Result) string {
	if res == nil {
		return ""
	}
	rows := make([][]string, 0, len(res.Frames))
	for _, f := range res.Frames {
		rows = append(rows, []string{
			strconv.Itoa(f.Sequence),
			strconv.Itoa(f.Index),
			fmt.Sprintf("%.2f", f.Timestamp),
			fmt.Sprintf("%dx%d", f.Width(), f.Height()),
		})
	}
	return renderTable(
		[]string{"Page", "Frame", "Time (s)", "Size"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	)
}

// promptAnswers are the values collected interactively.
type promptAnswers struct {
	Ref       string
	Interval  float64
	MaxFrames int
	Quality   string
}

// promptInputs asks for the video and sampling parameters, offering the
// configured values as defaults.
func promptInputs(in io.Reader, out io.Writer, cfg *config.Config) (promptAnswers, error) {
	sc := bufio.NewScanner(in)
	ask := func(label string) (string, error) {
		fmt.Fprint(out, label)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	ans := promptAnswers{
		Interval:  cfg.Sampling.IntervalSeconds,
		MaxFrames: cfg.Sampling.MaxFrames,
		Quality:   cfg.Acquire.Quality,
	}

	var err error
	if ans.Ref, err = ask("Video URL or path: "); err != nil {
		return ans, err
	}
	if ans.Ref == "" {
		return ans, errors.New("a video URL or path is required")
	}

	raw, err := ask(fmt.Sprintf("Interval between frames in seconds (default: %g): ", ans.Interval))
	if err != nil {
		return ans, err
	}
	if raw != "" {
		v, perr := strconv.ParseFloat(raw, 64)
		if perr != nil || !(v > 0) {
			return ans, fmt.Errorf("invalid interval %q", raw)
		}
		ans.Interval = v
	}

	raw, err = ask(fmt.Sprintf("Maximum number of frames (default: %d): ", ans.MaxFrames))
	if err != nil {
		return ans, err
	}
	if raw != "" {
		v, perr := strconv.Atoi(raw)
		if perr != nil || v <= 0 {
			return ans, fmt.Errorf("invalid frame count %q", raw)
		}
		ans.MaxFrames = v
	}

	defaultChoice := 1
	for i, q := range acquire.Qualities {
		if q == ans.Quality {
			defaultChoice = i + 1
		}
	}
	ans.Quality = acquire.Qualities[defaultChoice-1]

	fmt.Fprintln(out, "Select video quality:")
	for i, q := range acquire.Qualities {
		fmt.Fprintf(out, "  %d. %s\n", i+1, q)
	}
	raw, err = ask(fmt.Sprintf("Enter choice (1-%d, default: %d): ", len(acquire.Qualities), defaultChoice))
	if err != nil {
		return ans, err
	}
	if raw != "" {
		n, perr := strconv.Atoi(raw)
		if perr != nil || n < 1 || n > len(acquire.Qualities) {
			return ans, fmt.Errorf("invalid quality choice %q", raw)
		}
		ans.Quality = acquire.Qualities[n-1]
	}
	return ans, nil
}
