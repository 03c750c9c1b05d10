package statement

import (
	"strings"

	"github.com/dvloznov/statement-importer/internal/domain"
)

// DescriptionSeparator joins the values of multiple description columns.
const DescriptionSeparator = " - "

// Result is the outcome of mapping a statement file to raw rows.
type Result struct {
	Headers   []string
	Delimiter rune
	Columns   ColumnMap
	Rows      []domain.RawRow
}

// DetectDelimiter returns ';' when the line contains a semicolon, ',' otherwise.
func DetectDelimiter(firstLine string) rune {
	if strings.ContainsRune(firstLine, ';') {
		return ';'
	}
	return ','
}

// SplitLine tokenizes line on delim, ignoring delimiters inside double
// quotes. A doubled quote inside a quoted field yields a literal quote.
// Tokens are trimmed.
func SplitLine(line string, delim rune) []string {
	var (
		tokens   []string
		field    strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			tokens = append(tokens, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	tokens = append(tokens, strings.TrimSpace(field.String()))
	return tokens
}

// ParseDelimited maps a delimited-text export to raw rows. The first
// non-empty line is the header. Data lines with fewer than two tokens are
// skipped.
func ParseDelimited(data []byte, syn Synonyms) (Result, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	lines := strings.Split(text, "\n")

	headerAt := -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return Result{}, &FormatUnrecognizedError{
			Missing: []domain.ColumnRole{domain.RoleDate, domain.RoleAmount},
		}
	}

	headerLine := strings.TrimRight(lines[headerAt], "\r")
	delim := DetectDelimiter(headerLine)
	headers := SplitLine(headerLine, delim)

	cols, err := MapColumns(headers, syn)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Headers:   cols.Headers,
		Delimiter: delim,
		Columns:   cols,
	}
	for i := headerAt + 1; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens := SplitLine(line, delim)
		if len(tokens) < 2 {
			continue
		}
		res.Rows = append(res.Rows, cols.Row(i+1, tokens))
	}
	return res, nil
}

// Row builds the RawRow for one tokenized data line.
func (m ColumnMap) Row(line int, tokens []string) domain.RawRow {
	row := domain.RawRow{
		Line:   line,
		Values: make(map[domain.ColumnRole]string, len(m.Columns)+1),
	}
	for role, idx := range m.Columns {
		if idx < len(tokens) {
			row.Values[role] = tokens[idx]
		} else {
			row.Values[role] = ""
		}
	}
	if len(m.Description) > 0 {
		var parts []string
		for _, idx := range m.Description {
			if idx < len(tokens) && tokens[idx] != "" {
				parts = append(parts, tokens[idx])
			}
		}
		row.Values[domain.RoleDescription] = strings.Join(parts, DescriptionSeparator)
	}
	return row
}
