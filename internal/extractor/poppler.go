package extractor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrPasswordProtected = errors.New("PDF is password protected")
	ErrDamaged           = errors.New("PDF appears to be damaged or invalid")
	ErrToolMissing       = errors.New("PDF tool not installed")
)

type ExtractorConfig struct {
	PDFInfoBinary   string
	PDFToTextBinary string
	PDFToPPMBinary  string

	PDFInfoTimeout   time.Duration
	PDFToTextTimeout time.Duration
	PDFToPPMTimeout  time.Duration
}

// Sensible defaults if you pass zeros.
func (c ExtractorConfig) withDefaults() ExtractorConfig {
	out := c
	if out.PDFInfoBinary == "" {
		out.PDFInfoBinary = "pdfinfo"
	}
	if out.PDFToTextBinary == "" {
		out.PDFToTextBinary = "pdftotext"
	}
	if out.PDFToPPMBinary == "" {
		out.PDFToPPMBinary = "pdftoppm"
	}
	if out.PDFInfoTimeout <= 0 {
		out.PDFInfoTimeout = 5 * time.Second
	}
	if out.PDFToTextTimeout <= 0 {
		out.PDFToTextTimeout = 30 * time.Second
	}
	if out.PDFToPPMTimeout <= 0 {
		out.PDFToPPMTimeout = 30 * time.Second
	}
	return out
}

type PDFInfo struct {
	Pages     int
	Encrypted bool
}

var (
	pageCountRegex = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)
	encryptedRegex = regexp.MustCompile(`(?mi)^Encrypted:\s+yes`)
)

// Poppler drives pdfinfo, pdftotext and pdftoppm. It serves both as the
// direct text layer and as the page rasterizer for OCR.
type Poppler struct {
	cfg    ExtractorConfig
	runner Runner
	logger *slog.Logger
}

func NewPoppler(cfg ExtractorConfig, runner Runner, logger *slog.Logger) *Poppler {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Poppler{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

// Info runs pdfinfo once and extracts page count + encryption flag.
func (p *Poppler) Info(ctx context.Context, pdfPath string) (PDFInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PDFInfoTimeout)
	defer cancel()

	out, stderr, err := p.runner.Run(ctx, p.cfg.PDFInfoBinary, pdfPath)
	if err != nil {
		return PDFInfo{}, p.classify("pdfinfo", ctx, err, string(stderr))
	}

	pages, err := parsePages(string(out))
	if err != nil {
		return PDFInfo{}, err
	}
	return PDFInfo{
		Pages:     pages,
		Encrypted: encryptedRegex.Match(out),
	}, nil
}

// PageCount satisfies the rasterizer contract.
func (p *Poppler) PageCount(ctx context.Context, pdfPath string) (int, error) {
	info, err := p.Info(ctx, pdfPath)
	if err != nil {
		return 0, err
	}
	return info.Pages, nil
}

// PageTexts extracts the text layer of every page in reading order. pdftotext
// terminates each page with a form feed, which is where we split.
func (p *Poppler) PageTexts(ctx context.Context, pdfPath string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PDFToTextTimeout)
	defer cancel()

	out, stderr, err := p.runner.Run(ctx, p.cfg.PDFToTextBinary, "-enc", "UTF-8", "-eol", "unix", pdfPath, "-")
	if err != nil {
		return nil, p.classify("pdftotext", ctx, err, string(stderr))
	}

	text := strings.TrimSuffix(string(out), "\f")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\f"), nil
}

// RenderPage rasterizes a single 1-based page to PNG inside outDir and returns
// the image path.
func (p *Poppler) RenderPage(ctx context.Context, pdfPath string, page, dpi int, outDir string) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("invalid page number: %d (must be >= 1)", page)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PDFToPPMTimeout)
	defer cancel()

	prefix := filepath.Join(outDir, fmt.Sprintf("page-%04d", page))
	_, stderr, err := p.runner.Run(ctx, p.cfg.PDFToPPMBinary,
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-png",
		"-singlefile",
		pdfPath,
		prefix,
	)
	if err != nil {
		return "", p.classify("pdftoppm", ctx, err, string(stderr))
	}

	out := prefix + ".png"
	if _, statErr := os.Stat(out); statErr != nil {
		return "", fmt.Errorf("pdftoppm produced no image for page %d: %w", page, statErr)
	}
	return out, nil
}

// --- internals ---

func parsePages(pdfinfoOut string) (int, error) {
	matches := pageCountRegex.FindStringSubmatch(pdfinfoOut)
	if len(matches) == 2 {
		n, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: invalid page count: %w", err)
		}
		return validatePages(n)
	}

	// Fallback: scan lines to handle formatting variations
	sc := bufio.NewScanner(strings.NewReader(pdfinfoOut))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(strings.ToLower(line), "pages:") {
			continue
		}
		fields := strings.Fields(line[len("pages:"):])
		if len(fields) == 0 {
			break
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: invalid page count: %w", err)
		}
		return validatePages(n)
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("pdfinfo: scan failed: %w", err)
	}

	return 0, fmt.Errorf("pdfinfo: pages field not found in output")
}

func validatePages(count int) (int, error) {
	if count <= 0 || count > 50000 {
		return 0, fmt.Errorf("pdfinfo: unreasonable page count %d: %w", count, ErrDamaged)
	}
	return count, nil
}

// isHelpOrUsageOutput returns true when stderr looks like a poppler
// usage / help dump rather than an actual processing error.
func isHelpOrUsageOutput(stderr string) bool {
	return strings.Contains(stderr, "version ") && strings.Contains(stderr, "Usage:")
}

func (p *Poppler) classify(tool string, ctx context.Context, err error, stderr string) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s timeout: %w", tool, ctx.Err())
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s canceled: %w", tool, err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s: %w", tool, ErrToolMissing)
	}
	if errors.Is(err, ErrOutputLimit) {
		return fmt.Errorf("%s: extracted output too large", tool)
	}

	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%s failed: %w", tool, err)
	}

	// Poppler's usage text mentions "password" and "damaged" too, so don't
	// keyword-match on it.
	if isHelpOrUsageOutput(stderr) {
		p.logger.Warn("poppler bad invocation", "tool", tool, "stderr", truncate(stderr, 500))
		return fmt.Errorf("%s failed (bad invocation)", tool)
	}
	if containsAny(stderr, "Incorrect password", "Command Line Error: Incorrect password") {
		return fmt.Errorf("%s: %w", tool, ErrPasswordProtected)
	}
	if containsAny(stderr,
		"PDF file is damaged",
		"Syntax Error",
		"Couldn't find trailer dictionary",
		"May not be a PDF file",
		"Couldn't open file",
	) {
		p.logger.Warn("poppler rejected document", "tool", tool, "stderr", truncate(stderr, 500))
		return fmt.Errorf("%s: %w", tool, ErrDamaged)
	}
	return fmt.Errorf("%s failed: %s", tool, truncate(stderr, 300))
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
