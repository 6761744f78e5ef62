package sds

import "regexp"

// Boundary is a compiled start/end heading pair.
type Boundary struct {
	Start *regexp.Regexp
	End   *regexp.Regexp
}

// Between returns the text after the first match of start up to (not
// including) the first following match of end. A missing start yields "";
// a missing end runs to the end of text.
func Between(text string, start, end *regexp.Regexp) string {
	loc := start.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if e := end.FindStringIndex(rest); e != nil {
		return rest[:e[0]]
	}
	return rest
}

// firstSection tries each boundary in order and returns the first non-empty
// slice.
func firstSection(text string, bounds []Boundary) string {
	for _, b := range bounds {
		if seg := Between(text, b.Start, b.End); seg != "" {
			return seg
		}
	}
	return ""
}
