package ocr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/toricodesthings/sds-risk-service/internal/extractor"
)

var (
	ErrEngineUnavailable = errors.New("OCR engine unavailable")
	ErrLanguageMissing   = errors.New("OCR language data missing")
)

type Config struct {
	Binary      string // default "tesseract"
	Language    string // default "jpn"
	TessdataDir string
	Timeout     time.Duration
	PSM         int // page segmentation mode; 0 leaves tesseract's default
}

// Tesseract recognizes page images through the tesseract CLI.
type Tesseract struct {
	cfg    Config
	runner extractor.Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, runner extractor.Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = extractor.ExecRunner{Logger: logger}
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "jpn"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

func (t *Tesseract) Language() string { return t.cfg.Language }

// Probe checks that the engine runs and has data for the configured
// language. Every "+"-joined language must be installed.
func (t *Tesseract) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	args := []string{"--list-langs"}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	out, stderr, err := t.runner.Run(ctx, t.cfg.Binary, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%s: %w", t.cfg.Binary, ErrEngineUnavailable)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	// Older builds print the list on stderr.
	installed := parseLanguages(append(append([]byte{}, out...), stderr...))
	for _, want := range strings.Split(t.cfg.Language, "+") {
		if !installed[want] {
			return fmt.Errorf("%w: %q", ErrLanguageMissing, want)
		}
	}
	return nil
}

// Recognize returns the text tesseract reads from one image.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	return withConcurrencyLimit(ctx, func() (string, error) {
		ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()

		// tesseract <file> stdout -l <lang>
		args := []string{imagePath, "stdout", "-l", t.cfg.Language}
		if t.cfg.PSM > 0 {
			args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
		}
		if t.cfg.TessdataDir != "" {
			args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
		}

		out, stderr, err := t.runner.Run(ctx, t.cfg.Binary, args...)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return "", fmt.Errorf("tesseract timeout: %w", ctx.Err())
			}
			if errors.Is(err, exec.ErrNotFound) {
				return "", fmt.Errorf("%s: %w", t.cfg.Binary, ErrEngineUnavailable)
			}
			msg := strings.TrimSpace(string(stderr))
			if strings.Contains(msg, "Failed loading language") || strings.Contains(msg, "Error opening data file") {
				return "", fmt.Errorf("%w: %s", ErrLanguageMissing, firstLine(msg))
			}
			return "", fmt.Errorf("tesseract: %w", err)
		}
		return cleanText(string(out)), nil
	})
}

func parseLanguages(out []byte) map[string]bool {
	langs := map[string]bool{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of available languages") || strings.Contains(line, " ") {
			continue
		}
		langs[line] = true
	}
	return langs
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
