package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/milexcast/internal/model"
	"github.com/KaramelBytes/milexcast/internal/pipeline"
)

// Row is one held-out year with the actual value and each model's prediction.
type Row struct {
	Year        int
	Actual      float64
	Predictions map[model.ID]float64
}

// Rows flattens a result into rows sorted by year.
func Rows(res *pipeline.Result) []Row {
	out := make([]Row, len(res.Years))
	for i, y := range res.Years {
		r := Row{Year: y, Actual: res.Actual[i], Predictions: make(map[model.ID]float64, len(res.Models))}
		for id, e := range res.Models {
			if e != nil && e.Metrics != nil && i < len(e.Metrics.Predictions) {
				r.Predictions[id] = e.Metrics.Predictions[i]
			}
		}
		out[i] = r
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Year < out[b].Year })
	return out
}

func modelIDs(res *pipeline.Result) []model.ID {
	var ids []model.ID
	for _, id := range model.IDs {
		if _, ok := res.Models[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Text renders aligned prediction and metric tables for a terminal.
func Text(res *pipeline.Result) string {
	ids := modelIDs(res)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Country: %s\n\n", res.Country))

	b.WriteString(fmt.Sprintf("%-6s %16s", "Year", "Actual"))
	for _, id := range ids {
		b.WriteString(fmt.Sprintf(" %22s", id.DisplayName()))
	}
	b.WriteString("\n")
	for _, r := range Rows(res) {
		b.WriteString(fmt.Sprintf("%-6d %16s", r.Year, FormatCurrency(r.Actual)))
		for _, id := range ids {
			b.WriteString(fmt.Sprintf(" %22s", FormatCurrency(r.Predictions[id])))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n%-22s %10s %16s %12s %10s\n", "Model", "R²", "RMSE", "MSE", "MAPE"))
	for _, id := range ids {
		m := res.Models[id].Metrics
		b.WriteString(fmt.Sprintf("%-22s %10s %16s %12s %10s\n",
			id.DisplayName(), FormatScore(m.R2), FormatCurrency(m.RMSE), FormatScore(m.MSE), FormatPercent(m.MAPE)))
	}
	for _, w := range res.Warnings {
		b.WriteString("⚠ " + w + "\n")
	}
	return b.String()
}

// Markdown renders the same tables as GitHub-flavored Markdown.
func Markdown(res *pipeline.Result) string {
	ids := modelIDs(res)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Military expenditure forecast: %s\n\n", res.Country))
	if res.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: `%s`\n\n", res.RunID))
	}

	b.WriteString("## Held-out predictions\n\n| Year | Actual |")
	for _, id := range ids {
		b.WriteString(" " + id.DisplayName() + " |")
	}
	b.WriteString("\n|---|---|")
	for range ids {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, r := range Rows(res) {
		b.WriteString(fmt.Sprintf("| %d | %s |", r.Year, FormatCurrency(r.Actual)))
		for _, id := range ids {
			b.WriteString(" " + FormatCurrency(r.Predictions[id]) + " |")
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Metrics\n\n| Model | R² | RMSE | MSE | MAPE |\n|---|---|---|---|---|\n")
	for _, id := range ids {
		m := res.Models[id].Metrics
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			id.DisplayName(), FormatScore(m.R2), FormatCurrency(m.RMSE), FormatScore(m.MSE), FormatPercent(m.MAPE)))
	}
	if len(res.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range res.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}
