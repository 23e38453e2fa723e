package filing

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"FinSight/internal/domain/models"
	domsvc "FinSight/internal/domain/service"
)

// Option configures Parser.
type Option func(*Parser)

// WithSectionPatterns replaces the default section markers.
func WithSectionPatterns(ps []SectionPattern) Option {
	return func(p *Parser) {
		if len(ps) > 0 {
			p.patterns = ps
		}
	}
}

// WithNamespaces sets the XBRL namespace mapping (per taxonomy version).
func WithNamespaces(ns Namespaces) Option {
	return func(p *Parser) {
		if ns.Instance != "" {
			p.ns = ns
		}
	}
}

// WithWorkers bounds ParseBatch concurrency.
func WithWorkers(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Parser dispatches filings to the markup, XML or plain-text path. It holds only
// read-only configuration and is safe for concurrent use.
type Parser struct {
	patterns []SectionPattern
	ns       Namespaces
	workers  int
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		patterns: DefaultSectionPatterns(),
		ns:       DefaultNamespaces(),
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses one document. Failures are returned as *ParseError.
func (p *Parser) Parse(doc models.FilingDocument) (*models.ParsedFiling, error) {
	format := doc.Format
	if format == models.FormatUnknown {
		format = DetectFormat(doc.FileID, doc.Content)
	}

	pf := &models.ParsedFiling{
		FileID:        doc.FileID,
		Format:        format,
		Sections:      map[string]models.Section{},
		Tables:        []models.Table{},
		Facts:         map[string]models.XBRLFact{},
		Contexts:      map[string]models.XBRLContext{},
		ContentLength: len(doc.Content),
	}

	switch format {
	case models.FormatMarkup:
		text, err := DecodeText(doc.Content)
		if err != nil {
			return nil, newParseError(doc.FileID, KindUndecodable, err)
		}
		mr, err := parseMarkup(text)
		if err != nil {
			return nil, newParseError(doc.FileID, KindMalformedMarkup, err)
		}
		pf.Sections = ExtractSections(mr.text, p.patterns)
		pf.Tables = mr.tables
		pf.Metadata = mr.metadata

	case models.FormatXML:
		facts, contexts, err := ExtractXBRL(doc.Content, p.ns)
		if err != nil {
			return nil, newParseError(doc.FileID, KindMalformedXML, err)
		}
		pf.Facts = facts
		pf.Contexts = contexts
		pf.Metadata = metadataFromFacts(facts)

	default:
		pf.Format = models.FormatPlain
		text, err := DecodeText(doc.Content)
		if err != nil {
			return nil, newParseError(doc.FileID, KindUndecodable, err)
		}
		pf.Sections = ExtractSections(text, p.patterns)
		fillFromSECHeader(&pf.Metadata, text)
	}
	return pf, nil
}

// ParseBatch parses docs concurrently and returns one outcome per document, in input order.
// A failing or panicking document only affects its own outcome.
func (p *Parser) ParseBatch(docs []models.FilingDocument) []models.ParseOutcome {
	out := make([]models.ParseOutcome, len(docs))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, d := range docs {
		g.Go(func() error {
			out[i] = p.safeParse(d)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Parser) safeParse(doc models.FilingDocument) (res models.ParseOutcome) {
	res.FileID = doc.FileID
	defer func() {
		if r := recover(); r != nil {
			res.Filing = nil
			res.Err = newParseError(doc.FileID, KindInternal, fmt.Errorf("panic: %v", r))
		}
	}()
	res.Filing, res.Err = p.Parse(doc)
	return res
}

var _ domsvc.FilingParser = (*Parser)(nil)
