package document

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const tinyPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

func TestReadAcceptsPDF(t *testing.T) {
	f, err := Read(strings.NewReader(tinyPDF), "sds.pdf", 1<<20)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.MIMEType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", f.MIMEType)
	}
	if f.Name != "sds.pdf" || !bytes.Equal(f.Data, []byte(tinyPDF)) {
		t.Fatalf("unexpected file %+v", f)
	}
}

func TestReadRejectsNonPDF(t *testing.T) {
	_, err := Read(strings.NewReader("just some notes"), "notes.pdf", 1<<20)
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestReadRejectsOversize(t *testing.T) {
	_, err := Read(strings.NewReader(tinyPDF), "sds.pdf", 8)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestLoadUsesBaseName(t *testing.T) {
	p := filepath.Join(t.TempDir(), "塗料A.pdf")
	if err := os.WriteFile(p, []byte(tinyPDF), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := Load(p, 1<<20)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Name != "塗料A.pdf" {
		t.Fatalf("expected base name, got %q", f.Name)
	}
}

func TestStageAndCleanup(t *testing.T) {
	s, err := Stage([]byte(tinyPDF), "../../etc/evil.pdf")
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if filepath.Dir(s.Path) != s.TempDir {
		t.Fatalf("staged file escaped temp dir: %s", s.Path)
	}
	if filepath.Base(s.Path) != "evil.pdf" {
		t.Fatalf("unexpected staged name %q", s.Path)
	}
	b, err := os.ReadFile(s.Path)
	if err != nil || string(b) != tinyPDF {
		t.Fatalf("staged content mismatch: %v", err)
	}

	s.Cleanup()
	if _, err := os.Stat(s.TempDir); !os.IsNotExist(err) {
		t.Fatalf("expected temp dir removed, got %v", err)
	}
}

func TestStageEmptyName(t *testing.T) {
	s, err := Stage([]byte(tinyPDF), "")
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	defer s.Cleanup()
	if filepath.Base(s.Path) != "input.pdf" {
		t.Fatalf("expected input.pdf, got %q", s.Path)
	}
}
