package config

import (
	"runtime"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OCR_MIN_CHARS", "")
	t.Setenv("SDS_PREPARER", "")

	cfg := Load()
	if cfg.OCRMinChars != 80 {
		t.Fatalf("expected OCR threshold 80, got %d", cfg.OCRMinChars)
	}
	if cfg.OCRDPI != 300 {
		t.Fatalf("expected 300 DPI, got %d", cfg.OCRDPI)
	}
	if cfg.OCRLanguage != "jpn" {
		t.Fatalf("expected jpn, got %q", cfg.OCRLanguage)
	}
	if cfg.Preparer != "若宮良裕" {
		t.Fatalf("unexpected default preparer %q", cfg.Preparer)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OCR_DPI", "200")
	t.Setenv("DOCUMENT_TIMEOUT", "45s")
	t.Setenv("TEXT_BACKEND", "NATIVE")
	t.Setenv("SDS_COMPANY", "Example KK")

	cfg := Load()
	if cfg.OCRDPI != 200 {
		t.Fatalf("expected 200 DPI, got %d", cfg.OCRDPI)
	}
	if cfg.DocumentTimeout != 45*time.Second {
		t.Fatalf("expected 45s, got %s", cfg.DocumentTimeout)
	}
	if cfg.TextBackend != "native" {
		t.Fatalf("expected native backend, got %q", cfg.TextBackend)
	}
	if cfg.Company != "Example KK" {
		t.Fatalf("expected company override, got %q", cfg.Company)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("OCR_DPI", "-5")
	t.Setenv("PDFINFO_TIMEOUT", "soon")

	cfg := Load()
	if cfg.OCRDPI != 300 {
		t.Fatalf("expected fallback DPI, got %d", cfg.OCRDPI)
	}
	if cfg.PDFInfoTimeout != 5*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.PDFInfoTimeout)
	}
}

func TestValidateRejects(t *testing.T) {
	base := Load()

	cases := map[string]func(*Config){
		"backend":  func(c *Config) { c.TextBackend = "mupdf" },
		"dpi":      func(c *Config) { c.OCRDPI = 2000 },
		"language": func(c *Config) { c.OCRLanguage = " " },
		"log":      func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		c := base
		c.TextBackend = "poppler"
		c.LogFormat = "text"
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadOCRConcurrencyZeroDisablesLimit(t *testing.T) {
	t.Setenv("MAX_OCR_CONCURRENT", "0")
	if cfg := Load(); cfg.MaxOCRConcurrent != 0 {
		t.Fatalf("expected 0 to be kept, got %d", cfg.MaxOCRConcurrent)
	}

	t.Setenv("MAX_OCR_CONCURRENT", "-1")
	if cfg := Load(); cfg.MaxOCRConcurrent != int64(runtime.NumCPU()) {
		t.Fatalf("expected negative to fall back, got %d", cfg.MaxOCRConcurrent)
	}
}
