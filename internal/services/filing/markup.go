package filing

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"FinSight/internal/domain/models"
)

// noiseSelector lists elements dropped before text and table extraction.
const noiseSelector = "script, style, nav, header, footer"

var (
	headerCompanyName = regexp.MustCompile(`(?m)COMPANY CONFORMED NAME:[ \t]*(\S[^\r\n]*)`)
	headerCIK         = regexp.MustCompile(`(?m)CENTRAL INDEX KEY:[ \t]*(\d+)`)
	headerFiledAsOf   = regexp.MustCompile(`(?m)FILED AS OF DATE:[ \t]*(\d{8})`)
)

// markupResult is what the markup path contributes to a ParsedFiling.
type markupResult struct {
	text     string
	tables   []models.Table
	metadata models.FilingMetadata
}

func parseMarkup(src string) (*markupResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	md := extractMetadata(doc)
	doc.Find(noiseSelector).Remove()

	res := &markupResult{
		text:     documentText(doc),
		tables:   ExtractTables(doc),
		metadata: md,
	}
	fillFromSECHeader(&res.metadata, res.text)
	return res, nil
}

// ExtractTables returns every table that has at least one header or one non-empty row.
func ExtractTables(doc *goquery.Document) []models.Table {
	tables := []models.Table{}
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		headers := []string{}
		tbl.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, cellText(th))
		})

		rows := [][]string{}
		tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, cellText(td))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})

		if len(headers) == 0 && len(rows) == 0 {
			return
		}
		tables = append(tables, models.Table{Headers: headers, Rows: rows})
	})
	return tables
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(normalizeSpace(s.Text()))
}

func normalizeSpace(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}

// documentText joins every non-blank text node, trimmed, with newlines.
func documentText(doc *goquery.Document) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(normalizeSpace(n.Data)); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

func extractMetadata(doc *goquery.Document) models.FilingMetadata {
	var md models.FilingMetadata
	if ci := doc.Find("company-info").First(); ci.Length() > 0 {
		md.CompanyName = strings.TrimSpace(ci.AttrOr("name", ""))
		md.CIK = strings.TrimSpace(ci.AttrOr("cik", ""))
	}
	if ad := doc.Find("acceptance-datetime").First(); ad.Length() > 0 {
		md.FilingDate = normalizeFilingDate(ad.Text())
	}
	return md
}

// normalizeFilingDate keeps the first 10 characters of the first token, turning compact
// YYYYMMDD[hhmmss] timestamps into YYYY-MM-DD.
func normalizeFilingDate(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	tok := fields[0]
	if (len(tok) == 8 || len(tok) == 14) && isDigits(tok) {
		return tok[:4] + "-" + tok[4:6] + "-" + tok[6:8]
	}
	if len(tok) > 10 {
		tok = tok[:10]
	}
	return tok
}

// fillFromSECHeader completes missing metadata from an EDGAR submission header.
func fillFromSECHeader(md *models.FilingMetadata, text string) {
	if md.CompanyName == "" {
		if m := headerCompanyName.FindStringSubmatch(text); m != nil {
			md.CompanyName = strings.TrimSpace(m[1])
		}
	}
	if md.CIK == "" {
		if m := headerCIK.FindStringSubmatch(text); m != nil {
			md.CIK = m[1]
		}
	}
	if md.FilingDate == "" {
		if m := headerFiledAsOf.FindStringSubmatch(text); m != nil {
			md.FilingDate = normalizeFilingDate(m[1])
		}
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
