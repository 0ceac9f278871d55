package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

const header = " country ,year, Military expenditure (current USD) ,Military expenditure (% of GDP),Military expenditure (% of general government expenditure)\n"

func writeSource(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return p
}

func alphaSource(t *testing.T) string {
	t.Helper()
	return writeSource(t, "milex.csv", header+
		"Alpha,2018,100,1.0,5.0\n"+
		"Alpha,2019,110,1.1,5.1\n"+
		"Alpha,2020,120,1.2,5.2\n"+
		"Alpha,2021,130,1.3,5.3\n"+
		"Alpha,2022,140,1.4,5.4\n"+
		"Beta,2020,50,2.0,8.0\n")
}

func TestReadSourceTrimsHeaders(t *testing.T) {
	tab, err := ReadSource(alphaSource(t), SourceOptions{})
	assert.NilError(t, err)
	assert.Assert(t, tab.HasGDPPct)
	assert.Assert(t, tab.HasGovExpPct)
	assert.Check(t, is.Len(tab.Records, 6))
	assert.Equal(t, tab.Records[0].Country, "Alpha")
	assert.Equal(t, *tab.Records[0].Expenditure, 100.0)
}

func TestReadSourceMissingRequiredColumn(t *testing.T) {
	p := writeSource(t, "bad.csv", "country,year\nAlpha,2020\n")
	_, err := ReadSource(p, SourceOptions{})
	var se *SourceError
	assert.Assert(t, errors.As(err, &se))
	assert.ErrorContains(t, err, ColExpenditure)
}

func TestReadSourceMissingFile(t *testing.T) {
	_, err := ReadSource(filepath.Join(t.TempDir(), "nope.csv"), SourceOptions{})
	var se *SourceError
	assert.Assert(t, errors.As(err, &se))
	assert.Assert(t, errors.Is(err, os.ErrNotExist))
}

func TestBuildFeaturesCleansAndImputes(t *testing.T) {
	p := writeSource(t, "milex.csv", header+
		"Alpha,2021,130,,5.0\n"+
		"Alpha,2019,110,2.0,\n"+
		"Alpha,abc,999,9.0,9.0\n"+
		"Alpha,2020,,3.0,3.0\n"+
		"Alpha,2018.0,100,4.0,7.0\n")
	tab, err := ReadSource(p, SourceOptions{})
	assert.NilError(t, err)
	ft, targets, warnings, err := BuildFeatures(tab, "Alpha")
	assert.NilError(t, err)
	assert.Check(t, is.Len(warnings, 0))
	assert.DeepEqual(t, ft.Columns, []string{FeatYear, FeatYearSquared, FeatGDPPct, FeatGovExpPct})
	assert.DeepEqual(t, ft.Years, []int{2018, 2019, 2021})
	assert.DeepEqual(t, targets, []float64{100, 110, 130})
	// gdp mean over cleaned rows = (4+2)/2, gov mean = (7+5)/2
	assert.DeepEqual(t, ft.Rows[2], []float64{2021, 2021 * 2021, 3, 5})
	assert.DeepEqual(t, ft.Rows[1], []float64{2019, 2019 * 2019, 2, 6})
}

func TestBuildFeaturesOmitsAbsentAndEmptyColumns(t *testing.T) {
	p := writeSource(t, "milex.csv", "country,year,Military expenditure (current USD),Military expenditure (% of GDP)\n"+
		"Alpha,2018,100,\n"+
		"Alpha,2019,110,\n"+
		"Beta,2019,10,1.5\n")
	tab, err := ReadSource(p, SourceOptions{})
	assert.NilError(t, err)
	ft, _, warnings, err := BuildFeatures(tab, "Alpha")
	assert.NilError(t, err)
	assert.DeepEqual(t, ft.Columns, []string{FeatYear, FeatYearSquared})
	assert.Check(t, is.Len(warnings, 1))
	for _, r := range ft.Rows {
		for _, v := range r {
			assert.Assert(t, !math.IsNaN(v))
		}
	}
}

func TestPrepareUnknownCountry(t *testing.T) {
	_, err := Prepare(alphaSource(t), "Atlantis", DefaultOptions())
	var nf *CountryNotFoundError
	assert.Assert(t, errors.As(err, &nf))
	assert.Equal(t, nf.Country, "Atlantis")
	assert.ErrorContains(t, err, "Atlantis")
}

func TestPrepareInsufficientRows(t *testing.T) {
	_, err := Prepare(alphaSource(t), "Beta", DefaultOptions())
	var ie *InsufficientDataError
	assert.Assert(t, errors.As(err, &ie))
	assert.Equal(t, ie.Rows, 1)
}

func TestPrepareAlphaHoldsOutOneRow(t *testing.T) {
	p, err := Prepare(alphaSource(t), "Alpha", DefaultOptions())
	assert.NilError(t, err)
	assert.Equal(t, p.Test.Len(), 1)
	assert.Equal(t, p.Train.Len(), 4)
	assert.Check(t, is.Len(p.TestTargets, 1))
	assert.Check(t, is.Len(p.TrainTargets, 4))
	// the reference year is unscaled and matches the target
	assert.Equal(t, float64(p.Test.Years[0]-2018)*10+100, p.TestTargets[0])
	for _, c := range p.Test.Columns {
		assert.Assert(t, c != FeatYearOriginal)
	}
}

func TestSplitCoversAllRowsOnce(t *testing.T) {
	for _, n := range []int{2, 3, 5, 10, 37} {
		for _, size := range []float64{0.1, 0.2, 0.5, 0.9} {
			for _, seed := range []int64{0, 1, 42} {
				train, test, err := SplitIndices(n, size, seed)
				assert.NilError(t, err)
				assert.Equal(t, len(train)+len(test), n)
				assert.Assert(t, len(test) >= 1 && len(train) >= 1)
				seen := map[int]bool{}
				for _, i := range append(append([]int{}, train...), test...) {
					assert.Assert(t, !seen[i], "index %d assigned twice", i)
					seen[i] = true
				}
			}
		}
	}
}

func TestSplitRejectsBadInput(t *testing.T) {
	_, _, err := SplitIndices(1, 0.2, 42)
	assert.ErrorContains(t, err, "at least 2 rows")
	_, _, err = SplitIndices(10, 1.5, 42)
	assert.ErrorContains(t, err, "test size")
}

func TestPrepareIsDeterministic(t *testing.T) {
	src := alphaSource(t)
	a, err := Prepare(src, "Alpha", DefaultOptions())
	assert.NilError(t, err)
	b, err := Prepare(src, "Alpha", DefaultOptions())
	assert.NilError(t, err)
	assert.DeepEqual(t, a.Train.Years, b.Train.Years)
	assert.DeepEqual(t, a.Test.Years, b.Test.Years)
	assert.DeepEqual(t, a.Train.Rows, b.Train.Rows)
	assert.DeepEqual(t, a.Scaler, b.Scaler)
}

func TestScalerFitOnTrainingRowsOnly(t *testing.T) {
	src := alphaSource(t)
	p, err := Prepare(src, "Alpha", DefaultOptions())
	assert.NilError(t, err)

	tab, err := ReadSource(src, SourceOptions{})
	assert.NilError(t, err)
	ft, _, _, err := BuildFeatures(tab, "Alpha")
	assert.NilError(t, err)
	trainIdx, _, err := SplitIndices(ft.Len(), 0.2, 42)
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Scaler, FitScaler(ft.Subset(trainIdx)))

	// changing the held-out row's inputs must not move the scaler
	held := p.Test.Years[0]
	for i := range tab.Records {
		if tab.Records[i].Country == "Alpha" && tab.Records[i].Year == strconv.Itoa(held) {
			v := 99.0
			tab.Records[i].GDPPct = &v
			tab.Records[i].GovExpPct = &v
		}
	}
	q, err := PrepareTable(tab, "Alpha", DefaultOptions())
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Scaler, q.Scaler)
	assert.Assert(t, p.Test.Rows[0][2] != q.Test.Rows[0][2])
}

func TestScaledTrainingColumnsAreStandardized(t *testing.T) {
	p, err := Prepare(alphaSource(t), "Alpha", DefaultOptions())
	assert.NilError(t, err)
	for j := range p.Train.Columns {
		col := p.Train.Column(j)
		var sum float64
		for _, v := range col {
			sum += v
		}
		assert.Assert(t, math.Abs(sum/float64(len(col))) < 1e-9)
	}
}

func TestScalerRejectsMismatchedColumns(t *testing.T) {
	s := FitScaler(FeatureTable{Columns: []string{"a"}, Rows: [][]float64{{1}, {3}}, Years: []int{1, 2}})
	_, err := s.Transform(FeatureTable{Columns: []string{"b"}, Rows: [][]float64{{1}}, Years: []int{1}})
	assert.ErrorContains(t, err, "scaler")
	assert.DeepEqual(t, s.Scale, []float64{1})
}

func TestCountries(t *testing.T) {
	got, err := Countries(writeSource(t, "c.csv", header+"Gamma,2020,1,,\nAlpha,2020,1,,\n,2020,1,,\nGamma,2021,1,,\n"), SourceOptions{})
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []string{"Alpha", "Gamma"})
}

func TestCountriesUnreadableSourceIsEmpty(t *testing.T) {
	got, err := Countries(filepath.Join(t.TempDir(), "missing.csv"), SourceOptions{})
	assert.Assert(t, err != nil)
	assert.Assert(t, got != nil)
	assert.Check(t, is.Len(got, 0))

	got, err = Countries(writeSource(t, "empty.csv", ""), SourceOptions{})
	assert.NilError(t, err)
	assert.Check(t, is.Len(got, 0))

	got, err = Countries(writeSource(t, "nation.csv", "nation,year,Military expenditure (current USD)\nAlpha,2020,1\n"), SourceOptions{})
	var se *SourceError
	assert.Assert(t, errors.As(err, &se))
	assert.ErrorContains(t, err, `"country"`)
	assert.Assert(t, got != nil)
	assert.Check(t, is.Len(got, 0))
}

func TestReadSourceXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "milex.xlsx")
	f := excelize.NewFile()
	rows := [][]any{
		{"country", "year", "Military expenditure (current USD)"},
		{"Alpha", 2019, 110},
		{"Alpha", 2018, 100},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		assert.NilError(t, err)
		assert.NilError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	assert.NilError(t, f.SaveAs(path))
	assert.NilError(t, f.Close())

	tab, err := ReadSource(path, SourceOptions{})
	assert.NilError(t, err)
	assert.Assert(t, !tab.HasGDPPct)
	ft, targets, _, err := BuildFeatures(tab, "Alpha")
	assert.NilError(t, err)
	assert.DeepEqual(t, ft.Years, []int{2018, 2019})
	assert.DeepEqual(t, targets, []float64{100, 110})
	assert.DeepEqual(t, ft.Columns, []string{FeatYear, FeatYearSquared})
}

func TestParseCSVTab(t *testing.T) {
	body := strings.ReplaceAll(header, ",", "\t") + "Alpha\t2020\t1,000\t\t\n"
	tab, err := ParseCSV(strings.NewReader(body), '\t')
	assert.NilError(t, err)
	assert.Equal(t, *tab.Records[0].Expenditure, 1000.0)
	assert.Assert(t, tab.Records[0].GDPPct == nil)
}

func TestSemicolonSourceUsesDecimalComma(t *testing.T) {
	p := writeSource(t, "milex.csv", "country;year;Military expenditure (current USD);Military expenditure (% of GDP)\n"+
		"Alpha;2019;1.234.000,5;1,5\n"+
		"Alpha;2020;1250000;2.5\n")
	tab, err := ReadSource(p, SourceOptions{Delimiter: ';'})
	assert.NilError(t, err)
	assert.Equal(t, *tab.Records[0].Expenditure, 1234000.5)
	assert.Equal(t, *tab.Records[0].GDPPct, 1.5)
	assert.Equal(t, *tab.Records[1].Expenditure, 1250000.0)
	assert.Equal(t, *tab.Records[1].GDPPct, 2.5)
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in           string
		decimalComma bool
		want         *float64
	}{
		{"1,000", false, ptr(1000)},
		{"1,5", true, ptr(1.5)},
		{"1.5", true, ptr(1.5)},
		{"$2,500.25", false, ptr(2500.25)},
		{"..", false, nil},
		{"NaN", true, nil},
		{"abc", false, nil},
	}
	for _, c := range cases {
		got := parseNumber(c.in, c.decimalComma)
		if c.want == nil {
			assert.Assert(t, got == nil, "%q parsed as %v", c.in, got)
			continue
		}
		assert.Assert(t, got != nil, "%q not parsed", c.in)
		assert.Equal(t, *got, *c.want, "input %q", c.in)
	}
}

func ptr(v float64) *float64 { return &v }
