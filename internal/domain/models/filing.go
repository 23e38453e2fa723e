package models

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Format is the declared or detected encoding of a filing document.
type Format string

const (
	FormatUnknown Format = ""
	FormatMarkup  Format = "markup"
	FormatXML     Format = "xml"
	FormatPlain   Format = "plain"
)

// ParseFormat maps a loose format tag ("html", "htm", "xbrl", "txt", ...) to a Format.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markup", "html", "htm", "xhtml":
		return FormatMarkup
	case "xml", "xbrl":
		return FormatXML
	case "plain", "text", "txt":
		return FormatPlain
	default:
		return FormatUnknown
	}
}

// FilingDocument is one raw filing handed to the parser.
type FilingDocument struct {
	FileID  string
	Format  Format
	Content []byte
}

// Section is a named region of filing text.
type Section struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	Text  string `json:"text"`
}

// Table is a markup table flattened to trimmed cell text.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// XBRLFact is a single tagged value. Value is kept raw.
type XBRLFact struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	ContextRef string `json:"context_ref"`
	UnitRef    string `json:"unit_ref,omitempty"`
}

// Decimal parses the raw value as a decimal number.
func (f XBRLFact) Decimal() (decimal.Decimal, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(f.Value), ",", "")
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Period is either a duration (Start and End) or an Instant, never both.
type Period struct {
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
	Instant string `json:"instant,omitempty"`
}

func (p Period) IsInstant() bool { return p.Instant != "" }

// XBRLContext describes the reporting period facts refer to.
type XBRLContext struct {
	ID     string `json:"id"`
	Period Period `json:"period"`
}

// FilingMetadata fields are all optional.
type FilingMetadata struct {
	CompanyName string `json:"company_name,omitempty"`
	CIK         string `json:"cik,omitempty"`
	FilingDate  string `json:"filing_date,omitempty"`
}

// ParsedFiling is the unified result of one parse call.
type ParsedFiling struct {
	FileID        string                 `json:"file_id"`
	Format        Format                 `json:"format"`
	Sections      map[string]Section     `json:"sections"`
	Tables        []Table                `json:"tables"`
	Facts         map[string]XBRLFact    `json:"facts"`
	Contexts      map[string]XBRLContext `json:"contexts"`
	Metadata      FilingMetadata         `json:"metadata"`
	ContentLength int                    `json:"content_length"`
}

// SectionNames returns the extracted section names, sorted.
func (p *ParsedFiling) SectionNames() []string {
	out := make([]string, 0, len(p.Sections))
	for name := range p.Sections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ParseOutcome is the per-file result of a batch run: exactly one of Filing and Err is set.
type ParseOutcome struct {
	FileID string
	Filing *ParsedFiling
	Err    error
}

func (o ParseOutcome) OK() bool { return o.Err == nil && o.Filing != nil }
