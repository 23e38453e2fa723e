package filing

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"FinSight/internal/domain/models"
)

// Section names used by the default patterns.
const (
	SectionBusiness             = "business"
	SectionRiskFactors          = "risk_factors"
	SectionManagementDiscussion = "management_discussion"
	SectionFinancialStatements  = "financial_statements"
)

// markerSkip keeps a marker's own item number from being taken as the next item heading.
const markerSkip = 10

// itemHeading is case-sensitive so mixed-case cross-references ("see Item 7.")
// do not end a section.
var itemHeading = regexp.MustCompile(`\bITEM\s*\d+[A-Z]?\.`)

// SectionPattern maps a section name to its case-insensitive marker.
type SectionPattern struct {
	Name string
	Re   *regexp.Regexp
}

// PatternSpec is the uncompiled, configurable form of SectionPattern.
type PatternSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// DefaultPatternSpecs lists the standard annual-report sections in document order.
func DefaultPatternSpecs() []PatternSpec {
	return []PatternSpec{
		{Name: SectionBusiness, Pattern: `ITEM\s*1\.?\s*BUSINESS`},
		{Name: SectionRiskFactors, Pattern: `ITEM\s*1A\.?\s*RISK\s*FACTORS`},
		{Name: SectionManagementDiscussion, Pattern: `ITEM\s*7\.?\s*MANAGEMENT[’']?S\s*DISCUSSION\s*AND\s*ANALYSIS`},
		{Name: SectionFinancialStatements, Pattern: `ITEM\s*8\.?\s*FINANCIAL\s*STATEMENTS`},
	}
}

// DefaultSectionPatterns compiles DefaultPatternSpecs.
func DefaultSectionPatterns() []SectionPattern {
	ps, err := CompileSectionPatterns(DefaultPatternSpecs())
	if err != nil {
		panic(err)
	}
	return ps
}

// CompileSectionPatterns compiles specs case-insensitively, keeping their order.
func CompileSectionPatterns(specs []PatternSpec) ([]SectionPattern, error) {
	out := make([]SectionPattern, 0, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("section pattern %q: name is required", s.Pattern)
		}
		expr := s.Pattern
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", s.Name, err)
		}
		out = append(out, SectionPattern{Name: s.Name, Re: re})
	}
	return out, nil
}

type marker struct {
	name  string
	start int
}

// ExtractSections finds the first marker of every pattern and slices the text up to the next
// boundary: the next ITEM heading after the marker, or the next detected section, whichever is
// first. Sections whose marker is absent are left out of the result.
func ExtractSections(text string, patterns []SectionPattern) map[string]models.Section {
	out := make(map[string]models.Section)
	if text == "" {
		return out
	}

	markers := make([]marker, 0, len(patterns))
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		if loc := p.Re.FindStringIndex(text); loc != nil {
			markers = append(markers, marker{name: p.Name, start: loc[0]})
		}
	}
	if len(markers) == 0 {
		return out
	}
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].start < markers[j].start })

	headings := itemHeading.FindAllStringIndex(text, -1)

	for i, m := range markers {
		end := len(text)

		from := min(m.start+markerSkip, len(text))
		j := sort.Search(len(headings), func(k int) bool { return headings[k][0] >= from })
		if j < len(headings) {
			end = headings[j][0]
		}
		for _, next := range markers[i+1:] {
			if next.start > m.start {
				end = min(end, next.start)
				break
			}
		}

		out[m.name] = models.Section{
			Name:  m.name,
			Start: m.start,
			Text:  strings.TrimSpace(text[m.start:end]),
		}
	}
	return out
}
