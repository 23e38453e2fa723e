package filing

import (
	"bytes"
	"errors"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"FinSight/internal/domain/models"
)

var errNotText = errors.New("content is not valid UTF-8 text")

// DecodeText returns content as a string. A UTF-8 or UTF-16 byte order mark selects the
// encoding; otherwise the bytes must already be valid UTF-8 without NUL bytes.
func DecodeText(content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}
	if hasBOM(content) {
		out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), content)
		if err != nil {
			return "", err
		}
		content = out
	}
	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		return "", errNotText
	}
	return string(content), nil
}

func hasBOM(b []byte) bool {
	return bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) ||
		bytes.HasPrefix(b, []byte{0xFE, 0xFF}) ||
		bytes.HasPrefix(b, []byte{0xFF, 0xFE})
}

const sniffLen = 1024

// DetectFormat picks a format from the file extension, falling back to the first bytes.
func DetectFormat(fileID string, content []byte) models.Format {
	switch strings.ToLower(path.Ext(fileID)) {
	case ".htm", ".html", ".xhtml":
		return models.FormatMarkup
	case ".xml", ".xbrl":
		return models.FormatXML
	case ".txt":
		return models.FormatPlain
	}

	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	h := strings.ToLower(strings.TrimSpace(string(head)))
	switch {
	case strings.Contains(h, "<html") || strings.HasPrefix(h, "<!doctype html"):
		return models.FormatMarkup
	case strings.HasPrefix(h, "<?xml") || strings.Contains(h, "<xbrl"):
		return models.FormatXML
	default:
		return models.FormatPlain
	}
}
