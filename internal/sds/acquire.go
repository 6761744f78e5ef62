package sds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/toricodesthings/sds-risk-service/internal/document"
	"github.com/toricodesthings/sds-risk-service/internal/extractor"
)

// TextLayer returns the embedded text of every page, in page order.
type TextLayer interface {
	PageTexts(ctx context.Context, pdfPath string) ([]string, error)
}

// Rasterizer renders pages to images for OCR.
type Rasterizer interface {
	PageCount(ctx context.Context, pdfPath string) (int, error)
	RenderPage(ctx context.Context, pdfPath string, page, dpi int, outDir string) (string, error)
}

// Recognizer is an OCR engine.
type Recognizer interface {
	Probe(ctx context.Context) error
	Recognize(ctx context.Context, imagePath string) (string, error)
}

const (
	DefaultMinChars = 80
	DefaultDPI      = 300
)

// TextAcquirer chooses between the direct text layer and OCR.
type TextAcquirer struct {
	text     TextLayer
	raster   Rasterizer
	ocr      Recognizer
	minChars int
	dpi      int
	logger   *slog.Logger
}

type AcquirerConfig struct {
	TextLayer  TextLayer
	Rasterizer Rasterizer // nil disables OCR
	Recognizer Recognizer // nil disables OCR
	MinChars   int        // non-space runes below which OCR takes over
	DPI        int
	Logger     *slog.Logger
}

func NewTextAcquirer(cfg AcquirerConfig) *TextAcquirer {
	if cfg.MinChars <= 0 {
		cfg.MinChars = DefaultMinChars
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &TextAcquirer{
		text:     cfg.TextLayer,
		raster:   cfg.Rasterizer,
		ocr:      cfg.Recognizer,
		minChars: cfg.MinChars,
		dpi:      cfg.DPI,
		logger:   cfg.Logger,
	}
}

// Acquire returns the document text. When the text layer has fewer than
// minChars non-space characters it is thrown away and every page is OCR'd
// instead; the two sources are never mixed.
func (a *TextAcquirer) Acquire(ctx context.Context, pdf []byte) (ExtractedText, error) {
	if len(pdf) == 0 {
		return ExtractedText{}, &DocumentError{Err: errors.New("empty input")}
	}

	staged, err := document.Stage(pdf, "input.pdf")
	if err != nil {
		return ExtractedText{}, fmt.Errorf("stage document: %w", err)
	}
	defer staged.Cleanup()

	pages, err := a.text.PageTexts(ctx, staged.Path)
	if err != nil {
		return ExtractedText{}, documentErr(ctx, err)
	}

	// Count before NFC so decomposed kana from some producers are not
	// undercounted.
	raw := strings.TrimSpace(strings.Join(pages, "\n"))
	chars := nonSpaceRunes(raw)
	if chars >= a.minChars {
		a.logger.Info("text acquired", "source", SourceDirect, "pages", len(pages), "non_space_chars", chars)
		return ExtractedText{Text: normalizeText(raw), Source: SourceDirect, Pages: len(pages)}, nil
	}

	a.logger.Info("text layer too sparse, falling back to OCR", "non_space_chars", chars, "threshold", a.minChars)
	return a.ocrAll(ctx, staged)
}

func (a *TextAcquirer) ocrAll(ctx context.Context, staged document.Staged) (ExtractedText, error) {
	if a.ocr == nil || a.raster == nil {
		return ExtractedText{}, &OCRError{Stage: "probe", Err: ErrOCRUnavailable}
	}
	if err := a.ocr.Probe(ctx); err != nil {
		if err := contextErr(ctx, err); err != nil {
			return ExtractedText{}, err
		}
		return ExtractedText{}, &OCRError{Stage: "probe", Err: err}
	}

	total, err := a.raster.PageCount(ctx, staged.Path)
	if err != nil {
		if isInvalidPDF(err) {
			return ExtractedText{}, documentErr(ctx, err)
		}
		if err := contextErr(ctx, err); err != nil {
			return ExtractedText{}, err
		}
		return ExtractedText{}, &OCRError{Stage: "render", Err: err}
	}

	chunks := make([]string, 0, total)
	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return ExtractedText{}, err
		}

		img, err := a.raster.RenderPage(ctx, staged.Path, page, a.dpi, staged.TempDir)
		if err != nil {
			if err := contextErr(ctx, err); err != nil {
				return ExtractedText{}, err
			}
			return ExtractedText{}, &OCRError{Stage: "render", Page: page, Err: err}
		}

		txt, err := a.ocr.Recognize(ctx, img)
		_ = os.Remove(img)
		if err != nil {
			if err := contextErr(ctx, err); err != nil {
				return ExtractedText{}, err
			}
			return ExtractedText{}, &OCRError{Stage: "recognize", Page: page, Err: err}
		}
		chunks = append(chunks, txt)
		a.logger.Debug("page recognized", "page", page, "of", total, "chars", len([]rune(txt)))
	}

	text := normalizeText(strings.Join(chunks, "\n"))
	a.logger.Info("text acquired", "source", SourceOCR, "pages", total, "non_space_chars", nonSpaceRunes(text))
	return ExtractedText{Text: text, Source: SourceOCR, Pages: total}, nil
}

// documentErr labels a text-layer failure. Cancellation, tool timeouts and
// missing tools are not the document's fault and pass through unlabelled.
func documentErr(ctx context.Context, err error) error {
	if cerr := contextErr(ctx, err); cerr != nil {
		return cerr
	}
	if errors.Is(err, extractor.ErrToolMissing) {
		return fmt.Errorf("text extraction unavailable: %w", err)
	}
	return &DocumentError{Err: err}
}

// contextErr returns non-nil when err comes from cancellation or a deadline,
// either the caller's or a per-tool timeout.
func contextErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func isInvalidPDF(err error) bool {
	return errors.Is(err, extractor.ErrDamaged) || errors.Is(err, extractor.ErrPasswordProtected)
}
