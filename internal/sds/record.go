package sds

import (
	"strings"

	"github.com/gosimple/slug"
)

// Record is the fixed-shape risk assessment handed to renderers. Every
// field is always populated; lists are never nil.
type Record struct {
	Workplace         string    `json:"workplace" yaml:"workplace"`
	WorkDate          string    `json:"workDate" yaml:"workDate"`
	ProductName       string    `json:"productName" yaml:"productName"`
	MainComponents    []string  `json:"mainComponents" yaml:"mainComponents"`
	SDSPresent        string    `json:"sdsPresent" yaml:"sdsPresent"`
	GHSClassification []string  `json:"ghsClassification" yaml:"ghsClassification"`
	RiskLevel         RiskLevel `json:"riskLevel" yaml:"riskLevel"`
	MainHazards       []string  `json:"mainHazards" yaml:"mainHazards"`
	Mitigations       []string  `json:"mitigations" yaml:"mitigations"`
	Preparer          string    `json:"preparer" yaml:"preparer"`
	Company           string    `json:"company" yaml:"company"`

	FilenameXLSX string `json:"filenameXlsx" yaml:"filenameXlsx"`
	FilenamePDF  string `json:"filenamePdf" yaml:"filenamePdf"`
	FallbackXLSX string `json:"fallbackXlsx" yaml:"fallbackXlsx"`
	FallbackPDF  string `json:"fallbackPdf" yaml:"fallbackPdf"`
}

// Row is one labeled line of the rendered assessment.
type Row struct {
	Label string
	Value string
}

// Rows lists the display rows in report order. Lists are newline joined.
func (rec Record) Rows() []Row {
	return []Row{
		{"作業場所", rec.Workplace},
		{"作業日", rec.WorkDate},
		{"使用製品名", rec.ProductName},
		{"主な成分", strings.Join(rec.MainComponents, "\n")},
		{"SDSの有無", rec.SDSPresent},
		{"GHSの分類（区分付き）", strings.Join(rec.GHSClassification, "\n")},
		{"リスクレベルの判定", rec.RiskLevel.Label()},
		{"主なリスクの内容", strings.Join(rec.MainHazards, "\n")},
		{"リスク低減措置の検討", strings.Join(rec.Mitigations, "\n")},
		{"作成者", rec.Preparer},
		{"所属会社", rec.Company},
	}
}

// Profile holds the values that identify who prepares assessments.
type Profile struct {
	Preparer string
	Company  string
}

// Fields are the raw extractor outputs for one document.
type Fields struct {
	ProductName string
	Components  []string
	GHS         []string
	Hazards     []string
	Risk        RiskLevel
}

// Assembler turns extractor output into a Record.
type Assembler struct {
	rules   *Rules
	profile Profile
}

// Profile values used when the caller leaves a field empty.
const (
	DefaultPreparer = "若宮良裕"
	DefaultCompany  = "株式会社若宮塗装工業所"
)

func NewAssembler(rules *Rules, profile Profile) *Assembler {
	if rules == nil {
		rules = DefaultRules()
	}
	if profile.Preparer == "" {
		profile.Preparer = DefaultPreparer
	}
	if profile.Company == "" {
		profile.Company = DefaultCompany
	}
	return &Assembler{rules: rules, profile: profile}
}

func (a *Assembler) Assemble(f Fields) Record {
	t := a.rules.table

	name := f.ProductName
	if name == "" {
		name = t.ProductName.Placeholder
	}
	risk := f.Risk
	if risk == "" {
		risk = RiskMedium
	}
	hazards := f.Hazards
	if len(hazards) == 0 {
		hazards = t.Hazards.Defaults
	}

	rec := Record{
		Workplace:         "",
		WorkDate:          "",
		ProductName:       name,
		MainComponents:    orPlaceholder(f.Components, t.Components.Placeholder),
		SDSPresent:        t.Record.SDSPresent,
		GHSClassification: orPlaceholder(f.GHS, t.GHS.Placeholder),
		RiskLevel:         risk,
		MainHazards:       append([]string(nil), hazards...),
		Mitigations:       append([]string{}, t.Record.Mitigations...),
		Preparer:          a.profile.Preparer,
		Company:           a.profile.Company,
	}

	s := a.Slug(name)
	rec.FilenameXLSX = name + t.Record.DisplaySuffix + ".xlsx"
	rec.FilenamePDF = name + t.Record.DisplaySuffix + ".pdf"
	rec.FallbackXLSX = s + t.Record.FallbackSuffix + ".xlsx"
	rec.FallbackPDF = s + t.Record.FallbackSuffix + ".pdf"
	return rec
}

// Slug is the lowercase, ASCII-only, hyphen-joined form of name, with
// non-Latin scripts transliterated. It is never empty.
func (a *Assembler) Slug(name string) string {
	if s := slug.Make(name); s != "" {
		return s
	}
	return a.rules.table.Record.FallbackSlug
}

func orPlaceholder(items []string, placeholder string) []string {
	if len(items) == 0 {
		return []string{placeholder}
	}
	return append([]string(nil), items...)
}
