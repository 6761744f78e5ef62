package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	zeroWidthChars    = regexp.MustCompile("[\u200B-\u200D\uFEFF\u00AD\u2060]")
	trailingSpaces    = regexp.MustCompile(`(?m)[ \t]+$`)
	excessiveNewlines = regexp.MustCompile(`\n{4,}`)
)

// cleanText tidies raw tesseract output:
//   - drops the form feed tesseract appends after each page
//   - strips zero-width and soft-hyphen characters
//   - removes the spaces jpn models put between adjacent CJK characters
//   - trims trailing blanks and collapses long runs of empty lines
func cleanText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\f", "\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = zeroWidthChars.ReplaceAllString(text, "")
	text = joinCJK(text)
	text = trailingSpaces.ReplaceAllString(text, "")
	text = excessiveNewlines.ReplaceAllString(text, "\n\n\n")

	return strings.TrimSpace(text)
}

// joinCJK deletes runs of ASCII spaces whose neighbours on both sides are
// CJK characters. Spaces next to Latin text or digits are kept.
func joinCJK(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(rs); i++ {
		if rs[i] != ' ' {
			b.WriteRune(rs[i])
			continue
		}
		j := i
		for j < len(rs) && rs[j] == ' ' {
			j++
		}
		if i > 0 && j < len(rs) && isCJK(rs[i-1]) && isCJK(rs[j]) {
			i = j - 1
			continue
		}
		b.WriteString(string(rs[i:j]))
		i = j - 1
	}
	return b.String()
}

func isCJK(r rune) bool {
	switch {
	case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana):
		return true
	case r == 'ー' || r == '々':
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK punctuation
		return r != '　'
	case r >= 0xFF01 && r <= 0xFF60: // fullwidth forms
		return true
	}
	return false
}
