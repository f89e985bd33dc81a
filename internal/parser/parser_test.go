package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderText(t *testing.T) {
	items, unparsed := ParseOrderText("3x6 WIDGET $10.00/12.50")

	require.Len(t, items, 1)
	assert.Empty(t, unparsed)

	item := items[0]
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 6, item.UnitsPerCase)
	assert.Equal(t, "WIDGET", item.Name)
	assert.True(t, item.PriceA.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, item.PriceB.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, 18, item.TotalUnits())
	assert.Equal(t, "3x6 WIDGET $10.00/12.50", item.RawLine)
}

func TestParseOrderTextRealInvoiceLines(t *testing.T) {
	text := `
4x12 PETACA LICOR PIÑA COLADA AMERICANN CLUB $1708.20/1256.24
5x6 LAS PERDICES CABERNET SUAV 750CC $4771.99/5160.91
`

	items, unparsed := ParseOrderText(text)

	require.Len(t, items, 2)
	assert.Empty(t, unparsed)
	assert.Equal(t, "PETACA LICOR PIÑA COLADA AMERICANN CLUB", items[0].Name)
	assert.Equal(t, 48, items[0].TotalUnits())
	assert.Equal(t, "LAS PERDICES CABERNET SUAV 750CC", items[1].Name)
	assert.True(t, items[1].PriceB.Equal(decimal.RequireFromString("5160.91")))
}

func TestParseOrderTextThousandsSeparators(t *testing.T) {
	items, _ := ParseOrderText("2x12 VINO RESERVA $1,708.20/1,256.24")

	require.Len(t, items, 1)
	assert.True(t, items[0].PriceA.Equal(decimal.RequireFromString("1708.20")))
	assert.True(t, items[0].PriceB.Equal(decimal.RequireFromString("1256.24")))
}

func TestParseOrderTextSeparatorCaseInsensitive(t *testing.T) {
	items, _ := ParseOrderText("2X6 GIN TONICO $100/120")

	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 6, items[0].UnitsPerCase)
}

func TestParseOrderTextDollarSignOptional(t *testing.T) {
	items, _ := ParseOrderText("1x6 FERNET 750 900.50/1100.00")

	require.Len(t, items, 1)
	assert.True(t, items[0].PriceA.Equal(decimal.RequireFromString("900.50")))
}

func TestParseOrderTextMissingPriceRejected(t *testing.T) {
	items, unparsed := ParseOrderText("3x6 WIDGET SIN PRECIO")

	assert.Empty(t, items)
	require.Len(t, unparsed, 1)
	assert.Equal(t, "3x6 WIDGET SIN PRECIO", unparsed[0])
}

func TestParseOrderTextMixedLines(t *testing.T) {
	text := `3x6 WIDGET $10.00/12.50

esto no es un producto
2x12 MALBEC $100/120`

	items, unparsed := ParseOrderText(text)

	// Count of parsed items, not input lines; blank lines are dropped
	// silently and bad lines are reported.
	assert.Len(t, items, 2)
	require.Len(t, unparsed, 1)
	assert.Equal(t, "esto no es un producto", unparsed[0])
}

func TestParseOrderTextZeroCountsRejected(t *testing.T) {
	text := `0x6 WIDGET $10.00/12.50
3x0 MALBEC $100/120`

	items, unparsed := ParseOrderText(text)

	// A line that would total zero units never becomes an item.
	assert.Empty(t, items)
	assert.Len(t, unparsed, 2)
}

func TestParseShortageTextZeroCountsRejected(t *testing.T) {
	records, unparsed := ParseShortageText("0x12 TORRONTES", "Norton (Europa)")

	assert.Empty(t, records)
	require.Len(t, unparsed, 1)
	assert.Equal(t, "0x12 TORRONTES", unparsed[0])
}

func TestParseOrderTextEmpty(t *testing.T) {
	items, unparsed := ParseOrderText("   \n  \n")

	assert.Empty(t, items)
	assert.Empty(t, unparsed)
}

func TestParseShortageTextNoPrice(t *testing.T) {
	records, unparsed := ParseShortageText("3x6 WIDGET SIN PRECIO", "Norton (Europa)")

	require.Len(t, records, 1)
	assert.Empty(t, unparsed)

	record := records[0]
	assert.Equal(t, 3, record.Quantity)
	assert.Equal(t, 6, record.UnitsPerCase)
	assert.Equal(t, "WIDGET SIN PRECIO", record.Name)
	assert.Equal(t, "Norton (Europa)", record.Supplier)
	assert.False(t, record.Price.Valid)
}

func TestParseShortageTextPricePairKeepsSecond(t *testing.T) {
	records, _ := ParseShortageText("2x6 MALBEC $100.00/150.00", "Berlin")

	require.Len(t, records, 1)
	require.True(t, records[0].Price.Valid)
	assert.True(t, records[0].Price.Decimal.Equal(decimal.RequireFromString("150.00")))
}

func TestParseShortageTextSinglePriceKept(t *testing.T) {
	records, _ := ParseShortageText("4x12 PETACA LICOR $1256.24", "Coffico")

	require.Len(t, records, 1)
	assert.Equal(t, "PETACA LICOR", records[0].Name)
	require.True(t, records[0].Price.Valid)
	assert.True(t, records[0].Price.Decimal.Equal(decimal.RequireFromString("1256.24")))
}

func TestParseShortageTextBadLineReported(t *testing.T) {
	records, unparsed := ParseShortageText("sin formato valido", "Berlin")

	assert.Empty(t, records)
	assert.Len(t, unparsed, 1)
}
