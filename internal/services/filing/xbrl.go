package filing

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"FinSight/internal/domain/models"
)

const (
	InstanceNamespace = "http://www.xbrl.org/2003/instance"
	USGAAPNamespace   = "http://fasb.org/us-gaap/2021-01-01"
)

var (
	errEmptyXML     = errors.New("no root element")
	errMultipleRoot = errors.New("content after root element")
	errStrayText    = errors.New("text outside root element")
)

// Namespaces resolves XBRL prefixes. Instance holds contexts; every Taxonomies URI holds facts.
type Namespaces struct {
	Instance   string            `yaml:"instance"`
	Taxonomies map[string]string `yaml:"taxonomies"`
}

// DefaultNamespaces maps xbrli and us-gaap (2021 taxonomy).
func DefaultNamespaces() Namespaces {
	return Namespaces{
		Instance:   InstanceNamespace,
		Taxonomies: map[string]string{"us-gaap": USGAAPNamespace},
	}
}

func (ns Namespaces) taxonomySet() map[string]bool {
	set := make(map[string]bool, len(ns.Taxonomies))
	for _, uri := range ns.Taxonomies {
		set[uri] = true
	}
	return set
}

type xmlText struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlPeriod struct {
	XMLName   xml.Name
	StartDate *xmlText `xml:"startDate"`
	EndDate   *xmlText `xml:"endDate"`
	Instant   *xmlText `xml:"instant"`
}

type xmlContext struct {
	ID     string     `xml:"id,attr"`
	Period *xmlPeriod `xml:"period"`
}

// ExtractXBRL streams content once, collecting facts (taxonomy elements carrying a contextRef,
// keyed by local name, last one wins) and contexts with a recognizable period.
// Any syntax error fails the whole call, and so does a second root element or text outside the root.
func ExtractXBRL(content []byte, ns Namespaces) (map[string]models.XBRLFact, map[string]models.XBRLContext, error) {
	taxonomies := ns.taxonomySet()
	facts := make(map[string]models.XBRLFact)
	contexts := make(map[string]models.XBRLContext)

	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = charset.NewReaderLabel

	sawRoot, rootClosed := false, false
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		switch t := tok.(type) {
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, nil, syntaxError(dec, errStrayText)
			}
			continue
		case xml.EndElement:
			depth--
			if depth == 0 {
				rootClosed = true
			}
			continue
		case xml.StartElement:
			if rootClosed {
				return nil, nil, syntaxError(dec, errMultipleRoot)
			}
		default:
			continue
		}

		se := tok.(xml.StartElement)
		sawRoot = true
		consumed := false

		switch {
		case se.Name.Space == ns.Instance && se.Name.Local == "context":
			var c xmlContext
			if err := dec.DecodeElement(&c, &se); err != nil {
				return nil, nil, err
			}
			consumed = true
			if ctx, ok := c.toModel(ns.Instance); ok {
				contexts[ctx.ID] = ctx
			}
		case taxonomies[se.Name.Space]:
			ref := attrValue(se, "contextRef")
			if ref == "" {
				break
			}
			var v xmlText
			if err := dec.DecodeElement(&v, &se); err != nil {
				return nil, nil, err
			}
			consumed = true
			facts[se.Name.Local] = models.XBRLFact{
				Name:       se.Name.Local,
				Value:      strings.TrimSpace(v.Value),
				ContextRef: ref,
				UnitRef:    attrValue(se, "unitRef"),
			}
		}

		// DecodeElement reads through the matching end tag.
		switch {
		case consumed && depth == 0:
			rootClosed = true
		case !consumed:
			depth++
		}
	}
	if !sawRoot {
		return nil, nil, errEmptyXML
	}
	return facts, contexts, nil
}

func syntaxError(dec *xml.Decoder, err error) error {
	line, _ := dec.InputPos()
	return &xml.SyntaxError{Msg: err.Error(), Line: line}
}

func (c xmlContext) toModel(instance string) (models.XBRLContext, bool) {
	if c.ID == "" || c.Period == nil || c.Period.XMLName.Space != instance {
		return models.XBRLContext{}, false
	}
	start := periodValue(c.Period.StartDate, instance)
	end := periodValue(c.Period.EndDate, instance)
	instant := periodValue(c.Period.Instant, instance)
	switch {
	case start != "" && end != "":
		return models.XBRLContext{ID: c.ID, Period: models.Period{Start: start, End: end}}, true
	case instant != "":
		return models.XBRLContext{ID: c.ID, Period: models.Period{Instant: instant}}, true
	default:
		return models.XBRLContext{}, false
	}
}

func periodValue(t *xmlText, instance string) string {
	if t == nil || t.XMLName.Space != instance {
		return ""
	}
	return strings.TrimSpace(t.Value)
}

func attrValue(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// metadataFromFacts reads registrant details reported under the dei taxonomy.
func metadataFromFacts(facts map[string]models.XBRLFact) models.FilingMetadata {
	var md models.FilingMetadata
	if f, ok := facts["EntityRegistrantName"]; ok {
		md.CompanyName = f.Value
	}
	if f, ok := facts["EntityCentralIndexKey"]; ok {
		md.CIK = f.Value
	}
	return md
}
