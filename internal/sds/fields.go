package sds

import "strings"

// ProductName returns the first labeled product name in text, falling back
// to the original file name and then to the placeholder.
func (r *Rules) ProductName(text, originalFilename string) string {
	for _, re := range r.productLabels {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if i := strings.IndexByte(name, '\n'); i >= 0 {
			name = name[:i]
		}
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return r.nameFromFilename(originalFilename)
}

func (r *Rules) nameFromFilename(originalFilename string) string {
	base := originalFilename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	if base == "" {
		return r.table.ProductName.Placeholder
	}
	return base
}

// Components locates the composition section and parses it.
func (r *Rules) Components(text string) []string {
	return r.ParseComponents(firstSection(text, r.componentSections))
}

// ParseComponents turns composition lines into "name concentration%"
// entries. Lines without a percentage are kept verbatim when they name a
// common substance. Output is deduplicated in first-seen order.
func (r *Rules) ParseComponents(segment string) []string {
	var items []string
	for _, l := range nonEmptyLines(segment) {
		if m := r.componentLine.FindStringSubmatch(l); m != nil {
			items = append(items, clean(m[1]+" "+m[2]+"%"))
			continue
		}
		if matchesVocab(r.componentVocab, l) {
			items = append(items, clean(l))
		}
	}
	return limit(dedupe(items), r.table.Components.Limit)
}

// GHS returns classification lines from the GHS/label-elements section, or
// from the hazard summary when that section is absent.
func (r *Rules) GHS(text string) []string {
	return r.ParseGHS(firstSection(text, r.ghsSections))
}

func (r *Rules) ParseGHS(segment string) []string {
	marker := r.table.GHS.Marker
	var out []string
	for _, l := range nonEmptyLines(segment) {
		if (marker != "" && strings.Contains(l, marker)) || matchesVocab(r.ghsVocab, l) {
			out = append(out, clean(l))
		}
	}
	return limit(out, r.table.GHS.Limit)
}

// Hazards returns hazard statements from the hazard summary section.
func (r *Rules) Hazards(text string) []string {
	return r.ParseHazards(firstSection(text, r.hazardSections))
}

// ParseHazards never returns an empty list: with no keyword hits it yields
// the default hazard set.
func (r *Rules) ParseHazards(segment string) []string {
	var out []string
	for _, l := range nonEmptyLines(segment) {
		l = strings.Trim(l, r.table.Hazards.Trim)
		if matchesVocab(r.hazardVocab, l) {
			out = append(out, clean(l))
		}
	}
	if len(out) == 0 {
		out = append([]string(nil), r.table.Hazards.Defaults...)
	}
	return limit(out, r.table.Hazards.Limit)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
