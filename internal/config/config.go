package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Tool binaries
	PDFInfoBinary   string
	PDFToTextBinary string
	PDFToPPMBinary  string
	TesseractBinary string
	TessdataDir     string

	// Text acquisition
	TextBackend string // "poppler" | "native"
	OCRLanguage string
	OCRDPI      int
	OCRMinChars int
	MaxPDFBytes int64
	RulesFile   string

	// Tool timeouts
	PDFInfoTimeout   time.Duration
	PDFToTextTimeout time.Duration
	PDFToPPMTimeout  time.Duration
	TesseractTimeout time.Duration

	// Concurrency
	MaxConcurrentDocs int64
	MaxOCRConcurrent  int64
	DocumentTimeout   time.Duration

	// Record constants filled into every assessment
	Preparer string
	Company  string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() Config {
	return Config{
		PDFInfoBinary:   envStr("PDFINFO_BINARY", "pdfinfo"),
		PDFToTextBinary: envStr("PDFTOTEXT_BINARY", "pdftotext"),
		PDFToPPMBinary:  envStr("PDFTOPPM_BINARY", "pdftoppm"),
		TesseractBinary: envStr("TESSERACT_BINARY", "tesseract"),
		TessdataDir:     envStr("TESSDATA_DIR", ""),

		TextBackend: strings.ToLower(envStr("TEXT_BACKEND", "poppler")),
		OCRLanguage: envStr("OCR_LANGUAGE", "jpn"),
		OCRDPI:      envInt("OCR_DPI", 300),
		OCRMinChars: envInt("OCR_MIN_CHARS", 80),
		MaxPDFBytes: int64(envInt("MAX_PDF_BYTES", int(50<<20))),
		RulesFile:   envStr("SDS_RULES_FILE", ""),

		PDFInfoTimeout:   envDur("PDFINFO_TIMEOUT", 5*time.Second),
		PDFToTextTimeout: envDur("PDFTOTEXT_TIMEOUT", 30*time.Second),
		PDFToPPMTimeout:  envDur("PDFTOPPM_TIMEOUT", 30*time.Second),
		TesseractTimeout: envDur("TESSERACT_TIMEOUT", 120*time.Second),

		MaxConcurrentDocs: int64(envInt("MAX_CONCURRENT_DOCS", runtime.NumCPU())),
		MaxOCRConcurrent:  int64(envNonNegInt("MAX_OCR_CONCURRENT", runtime.NumCPU())),
		DocumentTimeout:   envDur("DOCUMENT_TIMEOUT", 10*time.Minute),

		Preparer: envStr("SDS_PREPARER", "若宮良裕"),
		Company:  envStr("SDS_COMPANY", "株式会社若宮塗装工業所"),

		LogLevel:  strings.ToLower(envStr("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(envStr("LOG_FORMAT", "text")),
	}
}

func (c Config) Validate() error {
	switch c.TextBackend {
	case "poppler", "native":
	default:
		return fmt.Errorf("TEXT_BACKEND must be poppler or native, got %q", c.TextBackend)
	}
	if c.OCRDPI < 72 || c.OCRDPI > 1200 {
		return fmt.Errorf("OCR_DPI must be between 72 and 1200, got %d", c.OCRDPI)
	}
	if strings.TrimSpace(c.OCRLanguage) == "" {
		return fmt.Errorf("OCR_LANGUAGE must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// envNonNegInt is envInt that also accepts 0, for limits where 0 means off.
func envNonNegInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
