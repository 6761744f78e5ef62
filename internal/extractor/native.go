package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"
)

// Native reads the text layer in-process. It is used where poppler is not
// installed; it cannot rasterize, so OCR still needs pdftoppm.
type Native struct {
	logger *slog.Logger
}

func NewNative(logger *slog.Logger) *Native {
	if logger == nil {
		logger = slog.Default()
	}
	return &Native{logger: logger}
}

func (n *Native) PageTexts(ctx context.Context, pdfPath string) (pages []string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("native: %v: %w", r, ErrDamaged)
		}
	}()

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, fmt.Errorf("native: %w", ErrPasswordProtected)
		}
		return nil, fmt.Errorf("native: %v: %w", err, ErrDamaged)
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			n.logger.Debug("native page text failed", "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
