package ingest

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

var invoiceDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04",
	"01/02/2006 15:04",
	time.RFC3339,
}

// ReadInvoices parses an Online Retail II export.
//
// Rows with an empty description or customer id, or with a quantity or price that
// does not parse, are returned with Missing set so that cleaning can count them.
func ReadInvoices(r io.Reader) ([]model.InvoiceLine, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}

	cols, err := t.require("Invoice", "StockCode", "Description", "Quantity", "Price", "Customer ID", "Country")
	if err != nil {
		return nil, err
	}
	invoiceCol, codeCol, descCol, qtyCol, priceCol, customerCol, countryCol :=
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6]
	dateCol := t.optional("InvoiceDate")

	var lines []model.InvoiceLine
	badDates := 0
	for {
		record, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line := model.InvoiceLine{
			Invoice:     field(record, invoiceCol),
			StockCode:   field(record, codeCol),
			Description: field(record, descCol),
			CustomerID:  normalizeID(field(record, customerCol)),
			Country:     field(record, countryCol),
		}

		var qtyErr, priceErr error
		line.Quantity, qtyErr = strconv.ParseFloat(field(record, qtyCol), 64)
		line.Price, priceErr = strconv.ParseFloat(field(record, priceCol), 64)
		line.Missing = qtyErr != nil || priceErr != nil ||
			!finite(line.Quantity) || !finite(line.Price) ||
			line.Invoice == "" || line.StockCode == "" ||
			line.Description == "" || line.CustomerID == ""

		if raw := field(record, dateCol); raw != "" {
			if date, ok := parseDate(raw); ok {
				line.InvoiceDate = date
			} else {
				badDates++
			}
		}

		lines = append(lines, line)
	}

	if badDates > 0 {
		slog.Debug("Ignored unparseable invoice dates", "count", badDates)
	}
	return lines, nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range invoiceDateLayouts {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

// normalizeID turns spreadsheet floats such as "17850.0" back into "17850".
// finite rejects the NaN and Inf spellings strconv.ParseFloat accepts.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func normalizeID(id string) string {
	if trimmed, ok := strings.CutSuffix(id, ".0"); ok {
		if _, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return trimmed
		}
	}
	return id
}
