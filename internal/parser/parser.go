// Package parser turns pasted invoice-style text into structured order
// line items and shortage records. Each line is matched independently
// against an anchored pattern; lines that do not match are returned to
// the caller for error reporting.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"pedidos-service/internal/models"

	"github.com/shopspring/decimal"
)

// Order lines look like:
//
//	4x12 PETACA LICOR PIÑA COLADA AMERICANN CLUB $1708.20/1256.24
//
// quantity x units-per-case, free-text name, then the mandatory
// price1/price2 pair. The leading $ is optional and prices may carry
// thousands-separating commas.
var orderLineRe = regexp.MustCompile(`^(\d+)[xX](\d+)\s+(.+?)\s+\$?([\d,]+\.?\d*)/([\d,]+\.?\d*)$`)

// Shortage lines use the same shape but the whole price suffix is
// optional, and a lone price may appear without the pair.
var shortageLineRe = regexp.MustCompile(`^(\d+)[xX](\d+)\s+(.+?)(?:\s+\$?([\d,]+\.?\d*)(?:/([\d,]+\.?\d*))?)?$`)

// ParseOrderText parses raw multi-line order text. It returns the
// successfully parsed items and the trimmed lines that did not match the
// grammar. Empty lines are dropped, not reported. A zero quantity or
// case size rejects the line, so every parsed item carries at least one
// unit.
func ParseOrderText(text string) ([]models.LineItem, []string) {
	var items []models.LineItem
	var unparsed []string

	for _, line := range splitLines(text) {
		m := orderLineRe.FindStringSubmatch(line)
		if m == nil {
			unparsed = append(unparsed, line)
			continue
		}

		quantity, _ := strconv.Atoi(m[1])
		unitsPerCase, _ := strconv.Atoi(m[2])
		if quantity < 1 || unitsPerCase < 1 {
			unparsed = append(unparsed, line)
			continue
		}
		priceA, errA := parsePrice(m[4])
		priceB, errB := parsePrice(m[5])
		if errA != nil || errB != nil {
			unparsed = append(unparsed, line)
			continue
		}

		items = append(items, models.LineItem{
			Quantity:     quantity,
			UnitsPerCase: unitsPerCase,
			Name:         strings.TrimSpace(m[3]),
			PriceA:       priceA,
			PriceB:       priceB,
			RawLine:      line,
		})
	}

	return items, unparsed
}

// ParseShortageText parses raw multi-line shortage text, attributing
// every record to the given supplier. The price suffix is optional; when
// both prices are present only the second is kept, otherwise the lone
// price is kept.
func ParseShortageText(text, supplier string) ([]models.ShortageRecord, []string) {
	var records []models.ShortageRecord
	var unparsed []string

	for _, line := range splitLines(text) {
		m := shortageLineRe.FindStringSubmatch(line)
		if m == nil {
			unparsed = append(unparsed, line)
			continue
		}

		quantity, _ := strconv.Atoi(m[1])
		unitsPerCase, _ := strconv.Atoi(m[2])
		if quantity < 1 || unitsPerCase < 1 {
			unparsed = append(unparsed, line)
			continue
		}

		record := models.ShortageRecord{
			Name:         strings.TrimSpace(m[3]),
			Quantity:     quantity,
			UnitsPerCase: unitsPerCase,
			Supplier:     supplier,
		}

		raw := m[5]
		if raw == "" {
			raw = m[4]
		}
		if raw != "" {
			price, err := parsePrice(raw)
			if err != nil {
				unparsed = append(unparsed, line)
				continue
			}
			record.Price = decimal.NullDecimal{Decimal: price, Valid: true}
		}

		records = append(records, record)
	}

	return records, unparsed
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(raw, ",", "")
	// The grammar admits a trailing dot with no decimals ("1708.").
	raw = strings.TrimSuffix(raw, ".")
	return decimal.NewFromString(raw)
}
