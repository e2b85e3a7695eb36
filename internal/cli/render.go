package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return BoldStyle.Foreground(PrimaryColor).PaddingRight(1).PaddingLeft(1)
			}
			return TableCellStyle
		})
}

// FormatFloat renders a metric with four decimals, keeping infinity readable.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsNaN(v):
		return "-"
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

// FormatItems joins items, adding catalog descriptions when catalog is non-empty.
func FormatItems(items []string, catalog model.Catalog) string {
	parts := make([]string, len(items))
	for i, item := range items {
		if desc, ok := catalog[item]; ok && desc != "" && desc != item {
			parts[i] = fmt.Sprintf("%s (%s)", item, desc)
		} else {
			parts[i] = item
		}
	}
	return strings.Join(parts, ", ")
}

// RenderItemsets draws at most limit itemsets. limit <= 0 draws all.
func RenderItemsets(itemsets []model.Itemset, catalog model.Catalog, limit int) string {
	t := newTable("#", "Itemset", "Size", "Support")
	for i, set := range truncate(itemsets, limit) {
		t.Row(strconv.Itoa(i+1), FormatItems(set.Items, catalog), strconv.Itoa(set.Size()), FormatFloat(set.Support))
	}
	return t.String()
}

// RenderRules draws at most limit rules. limit <= 0 draws all.
func RenderRules(rules []model.Rule, catalog model.Catalog, limit int) string {
	t := newTable("#", "Antecedents", "Consequents", "Support", "Confidence", "Lift", "Leverage", "Conviction", "Zhang")
	for i, r := range truncate(rules, limit) {
		t.Row(
			strconv.Itoa(i+1),
			FormatItems(r.Antecedents, catalog),
			FormatItems(r.Consequents, catalog),
			FormatFloat(r.Support),
			FormatFloat(r.Confidence),
			FormatLift(r.Lift),
			FormatFloat(r.Leverage),
			FormatFloat(r.Conviction),
			FormatFloat(r.ZhangsMetric),
		)
	}
	return t.String()
}

// RenderScoredTitles draws a ranked list of titles.
func RenderScoredTitles(titles []model.ScoredTitle, scoreHeader string) string {
	t := newTable("#", "Title", scoreHeader)
	for i, s := range titles {
		t.Row(strconv.Itoa(i+1), s.Title, FormatFloat(s.Score))
	}
	return t.String()
}

// RenderRuns draws stored mining runs.
func RenderRuns(runs []model.MiningRun) string {
	t := newTable("ID", "Created", "Source", "Country", "Key", "Min support", "Metric", "Itemsets", "Rules")
	for _, r := range runs {
		country := r.Country
		if country == "" {
			country = "All"
		}
		t.Row(
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			country,
			r.KeyColumn,
			FormatFloat(r.MinSupport),
			fmt.Sprintf("%s ≥ %s", r.Metric, FormatFloat(r.MinThreshold)),
			strconv.Itoa(r.ItemsetCount),
			strconv.Itoa(r.RuleCount),
		)
	}
	return t.String()
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
