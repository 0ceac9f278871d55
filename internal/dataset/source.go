package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column names as they appear in the World Bank export (after trimming).
const (
	ColCountry     = "country"
	ColYear        = "year"
	ColExpenditure = "Military expenditure (current USD)"
	ColGDPPct      = "Military expenditure (% of GDP)"
	ColGovExpPct   = "Military expenditure (% of general government expenditure)"
)

// Record is one (country, year) observation. Nil pointers mean the cell was missing.
type Record struct {
	Country     string
	Year        string
	Expenditure *float64
	GDPPct      *float64
	GovExpPct   *float64
}

// Table is the raw source after column mapping.
type Table struct {
	Records []Record
	// HasGDPPct and HasGovExpPct report whether the optional columns exist in the header.
	HasGDPPct    bool
	HasGovExpPct bool
}

// SourceOptions controls how the source file is read.
type SourceOptions struct {
	// Delimiter for CSV. If 0, '\t' is used for .tsv and ',' otherwise.
	Delimiter rune
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
}

// ReadSource reads a CSV/TSV or XLSX file into a Table.
func ReadSource(path string, opt SourceOptions) (*Table, error) {
	rows, err := readRows(path, opt)
	if err != nil {
		return nil, err
	}
	return buildTable(path, rows, decimalCommaFor(path, opt))
}

// decimalCommaFor reports whether ',' is the decimal mark. Semicolon-delimited
// files are the European export layout, where it is.
func decimalCommaFor(path string, opt SourceOptions) bool {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return false
	}
	return opt.Delimiter == ';'
}

func readRows(path string, opt SourceOptions) ([][]string, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		rows, err := readXLSXRows(path, opt.SheetName)
		if err != nil {
			return nil, &SourceError{Path: path, Err: err}
		}
		return rows, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	rows, err := readCSVRows(f, delim)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}
	return rows, nil
}

// ParseCSV reads delimited content from r into a Table.
func ParseCSV(r io.Reader, delim rune) (*Table, error) {
	rows, err := readCSVRows(r, delim)
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	return buildTable("", rows, delim == ';')
}

func readCSVRows(r io.Reader, delim rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSXRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("xlsx has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func buildTable(path string, rows [][]string, decimalComma bool) (*Table, error) {
	t := &Table{}
	if len(rows) == 0 {
		return t, nil
	}
	index := map[string]int{}
	for i, h := range rows[0] {
		index[trimHeader(h)] = i
	}
	for _, col := range []string{ColCountry, ColYear, ColExpenditure} {
		if _, ok := index[col]; !ok {
			return nil, &SourceError{Path: path, Err: fmt.Errorf("missing required column %q", col)}
		}
	}
	gdpIdx, hasGDP := index[ColGDPPct]
	govIdx, hasGov := index[ColGovExpPct]
	t.HasGDPPct = hasGDP
	t.HasGovExpPct = hasGov

	cell := func(rec []string, i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	for _, rec := range rows[1:] {
		r := Record{
			Country:     cell(rec, index[ColCountry]),
			Year:        cell(rec, index[ColYear]),
			Expenditure: parseNumber(cell(rec, index[ColExpenditure]), decimalComma),
		}
		if hasGDP {
			r.GDPPct = parseNumber(cell(rec, gdpIdx), decimalComma)
		}
		if hasGov {
			r.GovExpPct = parseNumber(cell(rec, govIdx), decimalComma)
		}
		t.Records = append(t.Records, r)
	}
	return t, nil
}

// trimHeader strips incidental whitespace and a UTF-8 byte order mark.
func trimHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// parseNumber returns nil for missing markers and unparsable values. With
// decimalComma, "1.234,5" and "1,5" parse as 1234.5 and 1.5; otherwise ','
// is a thousands separator.
func parseNumber(s string, decimalComma bool) *float64 {
	switch strings.ToLower(s) {
	case "", "na", "nan", "n/a", "null", "..":
		return nil
	}
	raw := strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	if decimalComma && strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	} else {
		raw = strings.ReplaceAll(raw, ",", "")
	}
	raw = strings.TrimPrefix(raw, "$")
	x, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}
