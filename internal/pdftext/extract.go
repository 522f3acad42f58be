package pdftext

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	logger "clarita-backend/pkg/logging"
)

// Extraction is the per-page text of one PDF plus simple size stats.
type Extraction struct {
	PageCount  int
	Pages      []string
	TotalChars int
}

var whitespaceRe = regexp.MustCompile(`[ \t\r\f\v]+`)

// IsPDF sniffs the %PDF magic header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// Extract pulls plain text out of a PDF, page by page, in page order.
// Pages whose text cannot be decoded are kept as empty strings so page
// numbering stays aligned with the document.
func Extract(data []byte) (*Extraction, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("missing %%PDF header")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}

	total := r.NumPage()
	pages := make([]string, 0, total)
	chars := 0
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf page %d text extraction failed: %v", i, err)
			pages = append(pages, "")
			continue
		}
		text = collapseWhitespace(text)
		chars += len(text)
		pages = append(pages, text)
	}

	return &Extraction{
		PageCount:  total,
		Pages:      pages,
		TotalChars: chars,
	}, nil
}

func collapseWhitespace(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
