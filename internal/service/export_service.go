package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"clarita-backend/internal/model"
	"clarita-backend/internal/quizgen"
)

// ExportService renders a quiz as a printable PDF sheet with an answer
// key on the last page.
type ExportService interface {
	ExportQuizPDF(quiz *model.Quiz) ([]byte, error)
}

type exportService struct{}

func NewExportService() ExportService {
	return &exportService{}
}

func (s *exportService) ExportQuizPDF(quiz *model.Quiz) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 16)
	pdf.AddPage()

	pdf.Cell(40, 10, quiz.Name)
	pdf.Ln(14)

	type keyEntry struct {
		number int
		text   string
	}
	var key []keyEntry

	for i, row := range quiz.Questions {
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(0, 7, fmt.Sprintf("%d. %s", i+1, row.Prompt), "", "L", false)
		pdf.SetFont("Arial", "", 11)

		var answer quizgen.Answer
		if err := json.Unmarshal(row.Answer, &answer); err != nil {
			return nil, fmt.Errorf("question %s: %w", row.PublicID, err)
		}

		switch row.Type {
		case string(quizgen.TypeMCQ):
			var options []string
			if err := json.Unmarshal(row.Options, &options); err != nil {
				return nil, fmt.Errorf("question %s options: %w", row.PublicID, err)
			}
			for j, opt := range options {
				pdf.MultiCell(0, 6, fmt.Sprintf("   %c) %s", 'A'+j, opt), "", "L", false)
			}
			if answer.Index >= 0 && answer.Index < len(options) {
				key = append(key, keyEntry{i + 1, fmt.Sprintf("%c", 'A'+answer.Index)})
			}
		case string(quizgen.TypeTF):
			pdf.MultiCell(0, 6, "   True / False", "", "L", false)
			tf := "False"
			if answer.Bool {
				tf = "True"
			}
			key = append(key, keyEntry{i + 1, tf})
		default:
			pdf.MultiCell(0, 6, "   Answer: ______________________", "", "L", false)
			key = append(key, keyEntry{i + 1, answer.Text})
		}
		pdf.Ln(4)
	}

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Answer Key")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 11)
	for _, e := range key {
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", e.number, e.text), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
