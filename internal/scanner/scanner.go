// Package scanner turns receipt images into structured expense drafts using
// an external OCR entity-extraction service.
package scanner

import (
	"context"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
)

// Extraction carries the raw entity mentions returned by the OCR service.
// Empty strings mean the entity was not detected.
type Extraction struct {
	TotalAmount  string
	SupplierName string
	ReceiptDate  string
}

// Extractor is the external OCR collaborator.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (Extraction, error)
}

// Draft is the expense draft shaped from an extraction. Fields the service
// could not extract or parse come back as null rather than failing the scan.
type Draft struct {
	Amount      *int64  `json:"amount"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Message     string  `json:"message"`
}

// BuildDraft shapes an extraction into a draft: the amount loses its
// thousands separators and rounds to the nearest whole unit, the date is
// normalized to an ISO calendar date, and the supplier name passes through.
func BuildDraft(ex Extraction) Draft {
	var d Draft
	if ex.TotalAmount != "" {
		if amount, err := ParseAmount(ex.TotalAmount); err == nil {
			d.Amount = &amount
		} else {
			log.Printf("Error parsing amount %q: %v", ex.TotalAmount, err)
		}
	}
	if ex.SupplierName != "" {
		supplier := ex.SupplierName
		d.Description = &supplier
	}
	if ex.ReceiptDate != "" {
		if iso, err := NormalizeDate(ex.ReceiptDate); err == nil {
			d.Date = &iso
		} else {
			log.Printf("Error parsing date %q: %v", ex.ReceiptDate, err)
		}
	}
	return d
}

// ParseAmount parses a total like "1,234.56", treating commas as thousands
// separators, and rounds to the nearest whole unit.
func ParseAmount(s string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}

// Receipt dates arrive free-form; month-first is assumed for the ambiguous
// slash and dash forms.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01/02/06",
	"01-02-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"02.01.2006",
}

// NormalizeDate parses a free-form receipt date and returns it as an ISO
// calendar date (yyyy-mm-dd).
func NormalizeDate(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return t.Format("2006-01-02"), nil
		}
		lastErr = err
	}
	return "", lastErr
}
