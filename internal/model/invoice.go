package model

import "time"

// InvoiceLine is a single row of a retail invoice export.
type InvoiceLine struct {
	InvoiceDate time.Time
	Invoice     string
	StockCode   string
	Description string
	CustomerID  string
	Country     string
	Quantity    float64
	Price       float64
	// Missing marks rows with an empty or unparseable cell.
	Missing bool
}

// IsCancellation reports whether the invoice number marks a cancelled order.
func (l *InvoiceLine) IsCancellation() bool {
	for _, r := range l.Invoice {
		if r == 'C' {
			return true
		}
	}
	return false
}

// LineItem is one (transaction, item, quantity) observation fed to the rule miner.
type LineItem struct {
	TransactionID string
	ItemID        string
	Quantity      float64
}

// Catalog maps a stock code to its product description.
type Catalog map[string]string

// Describe returns the description for a stock code, or the code itself when unknown.
func (c Catalog) Describe(code string) string {
	if desc, ok := c[code]; ok && desc != "" {
		return desc
	}
	return code
}
