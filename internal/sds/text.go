package sds

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Provenance records where ExtractedText came from.
type Provenance string

const (
	SourceDirect Provenance = "direct"
	SourceOCR    Provenance = "ocr"
)

// ExtractedText is the plain-text form of a document.
type ExtractedText struct {
	Text   string     `json:"text"`
	Source Provenance `json:"source"`
	Pages  int        `json:"pages"`
}

// RawDocument is the parse input: PDF bytes plus the name the user gave it.
type RawDocument struct {
	Data     []byte
	Filename string
}

var inlineSpace = regexp.MustCompile("[　\t ]+")

// clean collapses runs of ASCII and ideographic spaces and tabs, then trims.
func clean(s string) string {
	return strings.TrimSpace(inlineSpace.ReplaceAllString(s, " "))
}

// normalizeText unifies line endings and composes split kana voicing marks
// that some PDF producers emit.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(norm.NFC.String(s))
}

func nonSpaceRunes(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// nonEmptyLines returns the trimmed, non-blank lines of s.
func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
