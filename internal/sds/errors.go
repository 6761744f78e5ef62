package sds

import (
	"errors"
	"fmt"
)

var (
	// ErrDocument matches any *DocumentError via errors.Is.
	ErrDocument = errors.New("document error")
	// ErrOCR matches any *OCRError via errors.Is.
	ErrOCR = errors.New("ocr error")
	// ErrOCRUnavailable is wrapped when no OCR engine was configured.
	ErrOCRUnavailable = errors.New("no OCR engine configured")
)

// DocumentError means the input bytes are not an openable PDF. It is bad
// input, not a retryable condition.
type DocumentError struct {
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document: %v", e.Err)
}

func (e *DocumentError) Unwrap() error        { return e.Err }
func (e *DocumentError) Is(target error) bool { return target == ErrDocument }

// OCRError means OCR was required but could not run: the engine or its
// language data is missing, or a page failed to render or recognize.
type OCRError struct {
	Stage string // "probe", "render" or "recognize"
	Page  int    // 1-based; 0 when not page specific
	Err   error
}

func (e *OCRError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("ocr %s page %d: %v", e.Stage, e.Page, e.Err)
	}
	return fmt.Sprintf("ocr %s: %v", e.Stage, e.Err)
}

func (e *OCRError) Unwrap() error        { return e.Err }
func (e *OCRError) Is(target error) bool { return target == ErrOCR }
