package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const pdfMIME = "application/pdf"

var (
	ErrNotPDF   = errors.New("input is not a PDF")
	ErrTooLarge = errors.New("input exceeds size limit")
)

// File is an input read into memory with its sniffed MIME type.
type File struct {
	Name     string
	Data     []byte
	MIMEType string
}

// Load reads path, enforcing maxBytes, and rejects anything that doesn't
// sniff as a PDF.
func Load(path string, maxBytes int64) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path), maxBytes)
}

// Read is Load for an already open stream (e.g. an upload body).
func Read(body io.Reader, fileName string, maxBytes int64) (File, error) {
	lr := &io.LimitedReader{R: body, N: maxBytes + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return File{}, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return File{}, fmt.Errorf("%w: %dMB", ErrTooLarge, maxBytes/(1<<20))
	}

	mt := sniffMIMEType(data)
	if mt != pdfMIME {
		return File{}, fmt.Errorf("%w: detected %s", ErrNotPDF, mt)
	}
	return File{Name: fileName, Data: data, MIMEType: mt}, nil
}

// Staged is a temp copy of a document for tools that need a path.
type Staged struct {
	TempDir string
	Path    string
}

func (s Staged) Cleanup() {
	if s.TempDir != "" {
		_ = os.RemoveAll(s.TempDir)
	}
}

// Stage writes data into a fresh temp dir. The caller must Cleanup.
func Stage(data []byte, fileName string) (Staged, error) {
	tmpDir, err := os.MkdirTemp("", "sdsparse-*")
	if err != nil {
		return Staged{}, fmt.Errorf("temp dir: %w", err)
	}

	safeName := filepath.Base(strings.TrimSpace(fileName))
	if safeName == "" || safeName == "." || safeName == string(filepath.Separator) {
		safeName = "input.pdf"
	}
	outPath := filepath.Join(tmpDir, safeName)

	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		_ = os.RemoveAll(tmpDir)
		return Staged{}, fmt.Errorf("write: %w", err)
	}
	return Staged{TempDir: tmpDir, Path: outPath}, nil
}

func sniffMIMEType(data []byte) string {
	if m := mimetype.Detect(data); m != nil {
		mt := strings.ToLower(strings.TrimSpace(m.String()))
		if i := strings.Index(mt, ";"); i > 0 {
			mt = strings.TrimSpace(mt[:i])
		}
		if mt != "" && mt != "application/octet-stream" {
			return mt
		}
	}

	n := len(data)
	if n > 512 {
		n = 512
	}
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return pdfMIME
	}
	return strings.ToLower(strings.TrimSpace(http.DetectContentType(data[:n])))
}
