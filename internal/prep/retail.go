package prep

import (
	"log/slog"
	"math"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// Options configures RetailDataPrep.
type Options struct {
	LowQuantile  float64
	HighQuantile float64
	IQRFactor    float64
}

// DefaultOptions returns the clipping settings of the retail pipeline.
func DefaultOptions() Options {
	return Options{
		LowQuantile:  DefaultLowQuantile,
		HighQuantile: DefaultHighQuantile,
		IQRFactor:    DefaultIQRFactor,
	}
}

// Limits are the clipping fences applied to one column.
type Limits struct {
	Low     float64
	High    float64
	Clipped int
}

// Report counts the rows removed at each cleaning step.
type Report struct {
	Quantity            Limits
	Price               Limits
	Input               int
	Missing             int
	Cancelled           int
	NonPositiveQuantity int
	NonPositivePrice    int
	Output              int
}

// RetailDataPrep drops incomplete rows, cancellations and non-positive quantities or
// prices, then clips quantity and price to their outlier fences. The input is not modified.
func RetailDataPrep(records []model.InvoiceLine, opts Options) ([]model.InvoiceLine, Report) {
	report := Report{Input: len(records)}

	out := make([]model.InvoiceLine, 0, len(records))
	for _, rec := range records {
		switch {
		case rec.Missing || rec.Description == "" || rec.CustomerID == "" ||
			nonFinite(rec.Quantity) || nonFinite(rec.Price):
			report.Missing++
		case rec.IsCancellation():
			report.Cancelled++
		case rec.Quantity <= 0:
			report.NonPositiveQuantity++
		case rec.Price <= 0:
			report.NonPositivePrice++
		default:
			out = append(out, rec)
		}
	}

	report.Quantity = clipColumn(out, opts,
		func(r *model.InvoiceLine) *float64 { return &r.Quantity })
	report.Price = clipColumn(out, opts,
		func(r *model.InvoiceLine) *float64 { return &r.Price })
	report.Output = len(out)

	slog.Debug("Prepared retail data",
		"input", report.Input,
		"output", report.Output,
		"missing", report.Missing,
		"cancelled", report.Cancelled,
		"quantity_clipped", report.Quantity.Clipped,
		"price_clipped", report.Price.Clipped)

	return out, report
}

func clipColumn(records []model.InvoiceLine, opts Options, field func(*model.InvoiceLine) *float64) Limits {
	values := make([]float64, len(records))
	for i := range records {
		values[i] = *field(&records[i])
	}

	low, high := OutlierThresholds(values, opts.LowQuantile, opts.HighQuantile, opts.IQRFactor)
	clipped := ReplaceWithThresholds(values, low, high)
	for i := range records {
		*field(&records[i]) = values[i]
	}

	return Limits{Low: low, High: high, Clipped: clipped}
}

// FilterCountry keeps the rows of one country. An empty country keeps everything.
func FilterCountry(records []model.InvoiceLine, country string) []model.InvoiceLine {
	if country == "" {
		return records
	}
	out := make([]model.InvoiceLine, 0)
	for _, rec := range records {
		if rec.Country == country {
			out = append(out, rec)
		}
	}
	return out
}

// ToLineItems converts invoice rows into miner input keyed by stock code or description.
func ToLineItems(records []model.InvoiceLine, useStockCode bool) []model.LineItem {
	lines := make([]model.LineItem, len(records))
	for i, rec := range records {
		item := rec.Description
		if useStockCode {
			item = rec.StockCode
		}
		lines[i] = model.LineItem{
			TransactionID: rec.Invoice,
			ItemID:        item,
			Quantity:      rec.Quantity,
		}
	}
	return lines
}

// BuildCatalog maps every stock code to the first description seen for it.
func BuildCatalog(records []model.InvoiceLine) model.Catalog {
	catalog := make(model.Catalog)
	for _, rec := range records {
		if rec.StockCode == "" || rec.Description == "" {
			continue
		}
		if _, ok := catalog[rec.StockCode]; !ok {
			catalog[rec.StockCode] = rec.Description
		}
	}
	return catalog
}

func nonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
