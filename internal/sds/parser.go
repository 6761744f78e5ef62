package sds

import (
	"context"
	"log/slog"
)

// Acquirer produces ExtractedText from PDF bytes. *TextAcquirer is the
// production implementation.
type Acquirer interface {
	Acquire(ctx context.Context, pdf []byte) (ExtractedText, error)
}

// Result is a parsed document: the record plus the text it was built from.
type Result struct {
	Record Record
	Text   ExtractedText
}

// Parser runs the whole pipeline for one document at a time. It holds no
// per-call state, so one Parser may serve concurrent callers.
type Parser struct {
	acquirer  Acquirer
	rules     *Rules
	assembler *Assembler
	logger    *slog.Logger
}

func NewParser(acquirer Acquirer, rules *Rules, profile Profile, logger *slog.Logger) *Parser {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		acquirer:  acquirer,
		rules:     rules,
		assembler: NewAssembler(rules, profile),
		logger:    logger,
	}
}

// Parse fails only on DocumentError, OCRError or context errors. Sparse
// content still yields a fully populated record.
func (p *Parser) Parse(ctx context.Context, doc RawDocument) (Result, error) {
	text, err := p.acquirer.Acquire(ctx, doc.Data)
	if err != nil {
		return Result{}, err
	}
	rec := p.Build(text.Text, doc.Filename)
	p.logger.Info("sds parsed",
		"file", doc.Filename,
		"source", text.Source,
		"product", rec.ProductName,
		"components", len(rec.MainComponents),
		"ghs", len(rec.GHSClassification),
		"risk", rec.RiskLevel,
	)
	return Result{Record: rec, Text: text}, nil
}

// Build extracts every field from already acquired text.
func (p *Parser) Build(text, originalFilename string) Record {
	ghs := p.rules.GHS(text)
	return p.assembler.Assemble(Fields{
		ProductName: p.rules.ProductName(text, originalFilename),
		Components:  p.rules.Components(text),
		GHS:         ghs,
		Hazards:     p.rules.Hazards(text),
		Risk:        p.rules.Classify(ghs),
	})
}
