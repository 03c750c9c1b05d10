package statement

import (
	"errors"
	"testing"

	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', DetectDelimiter("Datum;Bedrag"))
	assert.Equal(t, ',', DetectDelimiter("Date,Amount"))
	assert.Equal(t, ',', DetectDelimiter("Date"))
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim rune
		want  []string
	}{
		{name: "plain", line: "a;b;c", delim: ';', want: []string{"a", "b", "c"}},
		{name: "quoted delimiter", line: `"01-03-2024","Jansen, J.","12,50"`, delim: ',', want: []string{"01-03-2024", "Jansen, J.", "12,50"}},
		{name: "escaped quote", line: `"say ""hi""";x`, delim: ';', want: []string{`say "hi"`, "x"}},
		{name: "trims", line: " a ; b ", delim: ';', want: []string{"a", "b"}},
		{name: "empty fields", line: "a;;c", delim: ';', want: []string{"a", "", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLine(tt.line, tt.delim))
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "bedrag (eur)", NormalizeHeader(`  "Bedrag (EUR)" `))
	assert.Equal(t, "datum", NormalizeHeader("\ufeffDatum"))
}

func TestParseDelimitedDutchExport(t *testing.T) {
	data := []byte("Datum;Naam / Omschrijving;Bedrag (EUR);Af Bij\r\n01-03-2024;Albert Heijn;25,47;Af\r\n\r\n")

	res, err := ParseDelimited(data, DefaultSynonyms())
	require.NoError(t, err)

	assert.Equal(t, ';', res.Delimiter)
	assert.Equal(t, []string{"datum", "naam / omschrijving", "bedrag (eur)", "af bij"}, res.Headers)
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Equal(t, 2, row.Line)
	assert.Equal(t, "01-03-2024", row.Get(domain.RoleDate))
	assert.Equal(t, "Albert Heijn", row.Get(domain.RoleDescription))
	assert.Equal(t, "25,47", row.Get(domain.RoleAmount))
	assert.Equal(t, "Af", row.Get(domain.RoleDirection))
	assert.False(t, row.Has(domain.RoleDebit), "af bij must not also bind as a debit column")
}

func TestParseDelimitedConcatenatesDescriptions(t *testing.T) {
	data := []byte("Datum,Naam,Rekening,Bedrag,Mededelingen\n" +
		"2024-03-01,Albert Heijn,NL01BANK0123456789,-25.47,Pinbetaling 12:04\n" +
		"2024-03-02,,NL01BANK0123456789,-3.00,Parkeren\n" +
		"lonely\n")

	res, err := ParseDelimited(data, DefaultSynonyms())
	require.NoError(t, err)
	require.Len(t, res.Rows, 2, "lines with fewer than two tokens are skipped")

	assert.Equal(t, "Albert Heijn - Pinbetaling 12:04", res.Rows[0].Get(domain.RoleDescription))
	assert.Equal(t, "Parkeren", res.Rows[1].Get(domain.RoleDescription))
	assert.Equal(t, []int{1, 4}, res.Columns.Description)
}

func TestParseDelimitedDebitCreditColumns(t *testing.T) {
	data := []byte("Boekingsdatum;Omschrijving;Af;Bij\n01-03-2024;Huur;950,00;\n25-03-2024;Salaris;;3.100,00\n")

	res, err := ParseDelimited(data, DefaultSynonyms())
	require.NoError(t, err)

	debit, ok := res.Columns.Index(domain.RoleDebit)
	require.True(t, ok)
	assert.Equal(t, 2, debit)
	credit, ok := res.Columns.Index(domain.RoleCredit)
	require.True(t, ok)
	assert.Equal(t, 3, credit)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "950,00", res.Rows[0].Get(domain.RoleDebit))
	assert.Equal(t, "3.100,00", res.Rows[1].Get(domain.RoleCredit))
}

func TestParseDelimitedUnrecognized(t *testing.T) {
	data := []byte("Datum;Omschrijving;Bedrg\n01-03-2024;x;1,00\n")

	_, err := ParseDelimited(data, DefaultSynonyms())
	require.Error(t, err)

	var fe *FormatUnrecognizedError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"datum", "omschrijving", "bedrg"}, fe.Headers)
	assert.Equal(t, []domain.ColumnRole{domain.RoleAmount}, fe.Missing)
	assert.Equal(t, "bedrag", fe.Suggestions["bedrg"])
	assert.Contains(t, err.Error(), "bedrg")
}

func TestMapColumnsCustomSynonyms(t *testing.T) {
	syn := Synonyms{
		domain.RoleDate:   {"wann"},
		domain.RoleAmount: {"wie viel"},
	}

	m, err := MapColumns([]string{"Wie viel", "Wann"}, syn)
	require.NoError(t, err)
	idx, _ := m.Index(domain.RoleDate)
	assert.Equal(t, 1, idx)

	_, err = MapColumns([]string{"Datum", "Bedrag"}, syn)
	require.Error(t, err)
}

func TestPrefixMatch(t *testing.T) {
	assert.True(t, prefixMatch("bedrag (eur)", "bedrag"))
	assert.True(t, prefixMatch("af bij", "af"))
	assert.False(t, prefixMatch("afschrijving", "af"))
	assert.False(t, prefixMatch("bedrag", "bedrag"))
}

func TestParseSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Datum", "Omschrijving", "Bedrag"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"01-03-2024", "Albert Heijn", -25.47}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{45352, "Jumbo", -12.5}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := ParseSpreadsheet(buf.Bytes(), DefaultSynonyms())
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, "01-03-2024", res.Rows[0].Get(domain.RoleDate))
	assert.Equal(t, "Albert Heijn", res.Rows[0].Get(domain.RoleDescription))
	assert.Equal(t, "-25.47", res.Rows[0].Get(domain.RoleAmount))
	assert.Equal(t, "2024-03-01", res.Rows[1].Get(domain.RoleDate))
	assert.Equal(t, 3, res.Rows[1].Line)
}

func TestParseSpreadsheetRejectsGarbage(t *testing.T) {
	_, err := ParseSpreadsheet([]byte("not a workbook"), DefaultSynonyms())
	require.Error(t, err)
}
