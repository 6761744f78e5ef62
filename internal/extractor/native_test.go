package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNativeRejectsNonPDF(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(p, []byte("this is not a pdf at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := NewNative(nil).PageTexts(context.Background(), p)
	if !errors.Is(err, ErrDamaged) {
		t.Fatalf("expected ErrDamaged, got %v", err)
	}
}
