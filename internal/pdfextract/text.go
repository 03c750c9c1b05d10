package pdfextract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// wordGap is the horizontal distance, in text space units, above which two
// text runs on the same row are separated by a space.
const wordGap = 1.5

// TextFromPDF extracts the text of a PDF document, one line per text row.
func TextFromPDF(data []byte) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("TextFromPDF: malformed document: %v", p)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("TextFromPDF: open document: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("TextFromPDF: page %d: %w", i, err)
		}
		for _, row := range rows {
			b.WriteString(joinRow(row.Content))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func joinRow(texts []pdf.Text) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			if t.X-(prev.X+prev.W) > wordGap {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return b.String()
}

// TextExtractor adapts TextFromPDF to the pipeline's text extraction
// collaborator.
type TextExtractor struct{}

// ExtractText implements pipeline.TextExtractor.
func (TextExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return TextFromPDF(data)
}
