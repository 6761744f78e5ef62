package sds

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

const rulesVersion = 1

// RuleTable is the on-disk shape of the extraction rules.
type RuleTable struct {
	Version  int `yaml:"version"`
	Sections struct {
		Components []BoundaryRule `yaml:"components"`
		GHS        []BoundaryRule `yaml:"ghs"`
		Hazards    []BoundaryRule `yaml:"hazards"`
	} `yaml:"sections"`
	ProductName struct {
		Labels      []string `yaml:"labels"`
		Placeholder string   `yaml:"placeholder"`
	} `yaml:"productName"`
	Components struct {
		Line        string   `yaml:"line"`
		Vocabulary  []string `yaml:"vocabulary"`
		Limit       int      `yaml:"limit"`
		Placeholder string   `yaml:"placeholder"`
	} `yaml:"components"`
	GHS struct {
		Marker      string   `yaml:"marker"`
		Vocabulary  []string `yaml:"vocabulary"`
		Limit       int      `yaml:"limit"`
		Placeholder string   `yaml:"placeholder"`
	} `yaml:"ghs"`
	Hazards struct {
		Trim       string   `yaml:"trim"`
		Vocabulary []string `yaml:"vocabulary"`
		Defaults   []string `yaml:"defaults"`
		Limit      int      `yaml:"limit"`
	} `yaml:"hazards"`
	Risk struct {
		High   []string `yaml:"high"`
		Medium []string `yaml:"medium"`
	} `yaml:"risk"`
	Record struct {
		SDSPresent     string   `yaml:"sdsPresent"`
		Mitigations    []string `yaml:"mitigations"`
		DisplaySuffix  string   `yaml:"displaySuffix"`
		FallbackSuffix string   `yaml:"fallbackSuffix"`
		FallbackSlug   string   `yaml:"fallbackSlug"`
	} `yaml:"record"`
}

// BoundaryRule is one start/end heading pair for a section.
type BoundaryRule struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Rules is a compiled RuleTable. It is read-only after construction and
// safe to share between goroutines.
type Rules struct {
	table RuleTable

	componentSections []Boundary
	ghsSections       []Boundary
	hazardSections    []Boundary

	productLabels  []*regexp.Regexp
	componentLine  *regexp.Regexp
	componentVocab *regexp.Regexp
	ghsVocab       *regexp.Regexp
	hazardVocab    *regexp.Regexp
	riskHigh       []*regexp.Regexp
	riskMedium     []*regexp.Regexp
}

// DefaultRules compiles the embedded table. The embedded file is part of
// the build, so a failure here is a programming error.
func DefaultRules() *Rules {
	r, err := ParseRules(nil)
	if err != nil {
		panic(fmt.Sprintf("sds: embedded rules: %v", err))
	}
	return r
}

// LoadRules reads an override file and merges it over the embedded table.
// An empty path yields the defaults.
func LoadRules(path string) (*Rules, error) {
	if strings.TrimSpace(path) == "" {
		return ParseRules(nil)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(b)
}

// ParseRules merges override (may be nil) over the embedded table and
// compiles the result.
func ParseRules(override []byte) (*Rules, error) {
	var t RuleTable
	if err := yaml.Unmarshal(defaultRulesYAML, &t); err != nil {
		return nil, fmt.Errorf("decode default rules: %w", err)
	}
	if len(override) > 0 {
		if err := yaml.Unmarshal(override, &t); err != nil {
			return nil, fmt.Errorf("decode rules: %w", err)
		}
	}
	return compileRules(t)
}

// Table returns a copy of the source table the rules were compiled from.
func (r *Rules) Table() RuleTable { return r.table }

func compileRules(t RuleTable) (*Rules, error) {
	if t.Version != rulesVersion {
		return nil, fmt.Errorf("unsupported rules version %d (want %d)", t.Version, rulesVersion)
	}
	if t.Components.Limit <= 0 || t.GHS.Limit <= 0 || t.Hazards.Limit <= 0 {
		return nil, fmt.Errorf("list limits must be positive")
	}
	if len(t.Hazards.Defaults) == 0 {
		return nil, fmt.Errorf("hazards.defaults must not be empty")
	}

	r := &Rules{table: t}
	var err error

	if r.componentSections, err = compileBoundaries("components", t.Sections.Components); err != nil {
		return nil, err
	}
	if r.ghsSections, err = compileBoundaries("ghs", t.Sections.GHS); err != nil {
		return nil, err
	}
	if r.hazardSections, err = compileBoundaries("hazards", t.Sections.Hazards); err != nil {
		return nil, err
	}

	if len(t.ProductName.Labels) == 0 {
		return nil, fmt.Errorf("productName.labels must not be empty")
	}
	for i, pat := range t.ProductName.Labels {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("productName.labels[%d]: %w", i, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("productName.labels[%d]: needs a capture group", i)
		}
		r.productLabels = append(r.productLabels, re)
	}

	if r.componentLine, err = regexp.Compile(t.Components.Line); err != nil {
		return nil, fmt.Errorf("components.line: %w", err)
	}
	if r.componentLine.NumSubexp() < 2 {
		return nil, fmt.Errorf("components.line: needs name and concentration groups")
	}

	r.componentVocab = vocabulary(t.Components.Vocabulary)
	r.ghsVocab = vocabulary(t.GHS.Vocabulary)
	r.hazardVocab = vocabulary(t.Hazards.Vocabulary)

	if r.riskHigh, err = compileAll("risk.high", t.Risk.High); err != nil {
		return nil, err
	}
	if r.riskMedium, err = compileAll("risk.medium", t.Risk.Medium); err != nil {
		return nil, err
	}
	return r, nil
}

func compileBoundaries(name string, rules []BoundaryRule) ([]Boundary, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("sections.%s must not be empty", name)
	}
	out := make([]Boundary, 0, len(rules))
	for i, br := range rules {
		// Headings and the text after them may wrap lines.
		start, err := regexp.Compile("(?s)" + br.Start)
		if err != nil {
			return nil, fmt.Errorf("sections.%s[%d].start: %w", name, i, err)
		}
		end, err := regexp.Compile("(?s)" + br.End)
		if err != nil {
			return nil, fmt.Errorf("sections.%s[%d].end: %w", name, i, err)
		}
		out = append(out, Boundary{Start: start, End: end})
	}
	return out, nil
}

func compileAll(name string, pats []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(pats))
	for i, pat := range pats {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// vocabulary builds a literal alternation; nil means "matches nothing".
func vocabulary(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}

func matchesVocab(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}
