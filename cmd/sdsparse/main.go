package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/toricodesthings/sds-risk-service/internal/batch"
	"github.com/toricodesthings/sds-risk-service/internal/config"
	"github.com/toricodesthings/sds-risk-service/internal/document"
	"github.com/toricodesthings/sds-risk-service/internal/extractor"
	"github.com/toricodesthings/sds-risk-service/internal/ocr"
	"github.com/toricodesthings/sds-risk-service/internal/render"
	"github.com/toricodesthings/sds-risk-service/internal/sds"
	"gopkg.in/yaml.v3"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sdsparse",
		Short: "Turn Japanese SDS PDFs into risk assessment records",
		Long: `sdsparse reads Safety Data Sheets (安全データシート) in PDF form and
produces a fixed-shape chemical risk assessment record for each one.

Scanned or outlined PDFs are OCR'd with tesseract (jpn). Configuration is
read from the environment; see internal/config for the variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(probeCmd())
	rootCmd.AddCommand(rulesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is everything a command needs, built once from the environment.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	poppler *extractor.Poppler
	ocr     *ocr.Tesseract
	parser  *sds.Parser
}

func newApp() (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg, os.Stderr)

	rules, err := sds.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	runner := extractor.ExecRunner{Logger: logger}
	poppler := extractor.NewPoppler(extractor.ExtractorConfig{
		PDFInfoBinary:    cfg.PDFInfoBinary,
		PDFToTextBinary:  cfg.PDFToTextBinary,
		PDFToPPMBinary:   cfg.PDFToPPMBinary,
		PDFInfoTimeout:   cfg.PDFInfoTimeout,
		PDFToTextTimeout: cfg.PDFToTextTimeout,
		PDFToPPMTimeout:  cfg.PDFToPPMTimeout,
	}, runner, logger)

	var textLayer sds.TextLayer = poppler
	if cfg.TextBackend == "native" {
		textLayer = extractor.NewNative(logger)
	}

	ocr.SetConcurrencyLimit(cfg.MaxOCRConcurrent)
	engine := ocr.NewTesseract(ocr.Config{
		Binary:      cfg.TesseractBinary,
		Language:    cfg.OCRLanguage,
		TessdataDir: cfg.TessdataDir,
		Timeout:     cfg.TesseractTimeout,
	}, runner, logger)

	acquirer := sds.NewTextAcquirer(sds.AcquirerConfig{
		TextLayer:  textLayer,
		Rasterizer: poppler,
		Recognizer: engine,
		MinChars:   cfg.OCRMinChars,
		DPI:        cfg.OCRDPI,
		Logger:     logger,
	})
	profile := sds.Profile{Preparer: cfg.Preparer, Company: cfg.Company}

	return &app{
		cfg:     cfg,
		logger:  logger,
		poppler: poppler,
		ocr:     engine,
		parser:  sds.NewParser(acquirer, rules, profile, logger),
	}, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// entry is one document in the parse output.
type entry struct {
	File   string         `json:"file" yaml:"file"`
	Source sds.Provenance `json:"source,omitempty" yaml:"source,omitempty"`
	Pages  int            `json:"pages,omitempty" yaml:"pages,omitempty"`
	Record *sds.Record    `json:"record,omitempty" yaml:"record,omitempty"`
	XLSX   string         `json:"xlsx,omitempty" yaml:"xlsx,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
	Kind   string         `json:"errorKind,omitempty" yaml:"errorKind,omitempty"`
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Parse SDS PDFs into risk assessment records",
		Long: `Parse one or more SDS PDFs and print one record per file.

A file that cannot be parsed is reported in the output and does not stop the
others. The exit status is non-zero if any file failed.

Examples:
  sdsparse parse thinner.pdf
  sdsparse parse --format yaml sds/*.pdf
  sdsparse parse --xlsx out/ sds/*.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			xlsxDir, _ := cmd.Flags().GetString("xlsx")
			if format != "json" && format != "yaml" {
				return fmt.Errorf("--format must be json or yaml, got %q", format)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			if xlsxDir != "" {
				if err := os.MkdirAll(xlsxDir, 0o755); err != nil {
					return fmt.Errorf("create xlsx dir: %w", err)
				}
			}

			load := func(path string) (sds.RawDocument, error) {
				f, err := document.Load(path, a.cfg.MaxPDFBytes)
				if err != nil {
					return sds.RawDocument{}, err
				}
				return sds.RawDocument{Data: f.Data, Filename: f.Name}, nil
			}
			pool := batch.New(a.parser, load, batch.Config{
				Workers: int(a.cfg.MaxConcurrentDocs),
				Timeout: a.cfg.DocumentTimeout,
			}, a.logger)

			outcomes := pool.Run(cmd.Context(), args)
			entries, failed := collect(outcomes, xlsxDir, render.NewXLSX())

			if err := writeEntries(cmd.OutOrStdout(), format, entries); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "json", "Output format (json, yaml)")
	cmd.Flags().String("xlsx", "", "Also write one spreadsheet per record into this directory")
	return cmd
}

func collect(outcomes []batch.Outcome, xlsxDir string, xlsx *render.XLSX) ([]entry, int) {
	entries := make([]entry, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		e := entry{File: o.Path}
		if o.Err != nil {
			e.Error = o.Err.Error()
			e.Kind = errorKind(o.Err)
			entries = append(entries, e)
			failed++
			continue
		}

		rec := o.Result.Record
		e.Record = &rec
		e.Source = o.Result.Text.Source
		e.Pages = o.Result.Text.Pages
		if xlsxDir != "" {
			path, err := xlsx.WriteFile(xlsxDir, rec)
			if err != nil {
				e.Error = err.Error()
				e.Kind = "render"
				failed++
			} else {
				e.XLSX = path
			}
		}
		entries = append(entries, e)
	}
	return entries, failed
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, sds.ErrDocument), errors.Is(err, document.ErrNotPDF), errors.Is(err, document.ErrTooLarge):
		return "document"
	case errors.Is(err, sds.ErrOCR):
		return "ocr"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

func writeEntries(w io.Writer, format string, entries []entry) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the PDF tools and OCR language data are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if err := a.ocr.Probe(cmd.Context()); err != nil {
				fmt.Fprintf(out, "ocr (%s): FAIL %v\n", a.ocr.Language(), err)
				return err
			}
			fmt.Fprintf(out, "ocr (%s): ok\n", a.ocr.Language())

			// pdfinfo on a nonexistent file separates "tool missing" from
			// everything else without needing a sample PDF.
			_, err = a.poppler.Info(cmd.Context(), filepath.Join(os.TempDir(), "sdsparse-probe-missing.pdf"))
			if errors.Is(err, extractor.ErrToolMissing) {
				fmt.Fprintf(out, "poppler: FAIL %v\n", err)
				return err
			}
			fmt.Fprintln(out, "poppler: ok")
			fmt.Fprintf(out, "text backend: %s\n", a.cfg.TextBackend)
			return nil
		},
	}
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective extraction rule table as YAML",
		Long: `Print the rule table after merging SDS_RULES_FILE (if set) over the
built-in defaults. The output is a valid override file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := sds.LoadRules(config.Load().RulesFile)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(rules.Table()); err != nil {
				return fmt.Errorf("encode rules: %w", err)
			}
			return enc.Close()
		},
	}
}
