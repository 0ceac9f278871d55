package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Feature column names.
const (
	FeatYear        = "year"
	FeatYearSquared = "year_squared"
	FeatGDPPct      = "gdp_pct"
	FeatGovExpPct   = "gov_exp_pct"
	// FeatYearOriginal names the unscaled reference year. It is kept in
	// FeatureTable.Years and never appears in Columns.
	FeatYearOriginal = "year_original"
)

// FeatureTable holds model inputs for one country. Rows[i] is aligned with Years[i].
type FeatureTable struct {
	Columns []string
	Rows    [][]float64
	Years   []int
}

// Len returns the number of rows.
func (t FeatureTable) Len() int { return len(t.Rows) }

// Column returns a copy of column j.
func (t FeatureTable) Column(j int) []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[j]
	}
	return out
}

// Subset returns a deep copy of the rows at idx, in idx order.
func (t FeatureTable) Subset(idx []int) FeatureTable {
	out := FeatureTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]float64, len(idx)),
		Years:   make([]int, len(idx)),
	}
	for k, i := range idx {
		out.Rows[k] = append([]float64(nil), t.Rows[i]...)
		out.Years[k] = t.Years[i]
	}
	return out
}

// cleanRow is a record that survived filtering and cleaning.
type cleanRow struct {
	year   int
	target float64
	gdp    *float64
	gov    *float64
}

// BuildFeatures filters the table to country (all rows when country is empty),
// cleans it and derives the feature columns. It returns the unscaled table, the
// targets aligned with its rows, and warnings about omitted features.
func BuildFeatures(t *Table, country string) (FeatureTable, []float64, []string, error) {
	var filtered []Record
	for _, r := range t.Records {
		if country == "" || r.Country == country {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return FeatureTable{}, nil, nil, &CountryNotFoundError{Country: country}
	}

	rows := make([]cleanRow, 0, len(filtered))
	for _, r := range filtered {
		if r.Expenditure == nil {
			continue
		}
		year, ok := coerceYear(r.Year)
		if !ok {
			continue
		}
		rows = append(rows, cleanRow{year: year, target: *r.Expenditure, gdp: r.GDPPct, gov: r.GovExpPct})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].year < rows[j].year })
	if len(rows) < 2 {
		return FeatureTable{}, nil, nil, &InsufficientDataError{Country: country, Rows: len(rows)}
	}

	var warnings []string
	cols := []string{FeatYear, FeatYearSquared}
	gdpMean, useGDP := imputeMean(rows, func(r cleanRow) *float64 { return r.gdp })
	if t.HasGDPPct {
		if useGDP {
			cols = append(cols, FeatGDPPct)
		} else {
			warnings = append(warnings, fmt.Sprintf("%s has no values for this country; feature omitted", ColGDPPct))
		}
	}
	useGDP = useGDP && t.HasGDPPct
	govMean, useGov := imputeMean(rows, func(r cleanRow) *float64 { return r.gov })
	if t.HasGovExpPct {
		if useGov {
			cols = append(cols, FeatGovExpPct)
		} else {
			warnings = append(warnings, fmt.Sprintf("%s has no values for this country; feature omitted", ColGovExpPct))
		}
	}
	useGov = useGov && t.HasGovExpPct

	ft := FeatureTable{
		Columns: cols,
		Rows:    make([][]float64, len(rows)),
		Years:   make([]int, len(rows)),
	}
	targets := make([]float64, len(rows))
	for i, r := range rows {
		y := float64(r.year)
		row := []float64{y, y * y}
		if useGDP {
			row = append(row, valueOr(r.gdp, gdpMean))
		}
		if useGov {
			row = append(row, valueOr(r.gov, govMean))
		}
		ft.Rows[i] = row
		ft.Years[i] = r.year
		targets[i] = r.target
	}
	return ft, targets, warnings, nil
}

// imputeMean returns the mean of the present values, and false when none are present.
func imputeMean(rows []cleanRow, get func(cleanRow) *float64) (float64, bool) {
	var vals []float64
	for _, r := range rows {
		if v := get(r); v != nil {
			vals = append(vals, *v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}

func valueOr(v *float64, dflt float64) float64 {
	if v == nil {
		return dflt
	}
	return *v
}

// coerceYear accepts integers and numeric strings such as "2019.0"; fractional
// years are truncated.
func coerceYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
