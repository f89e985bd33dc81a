package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatedArrival(t *testing.T) {
	orderDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	order := Order{OrderDate: orderDate}
	assert.Nil(t, order.EstimatedArrival())

	days := 7
	order.EstimatedDays = &days
	arrival := order.EstimatedArrival()
	require.NotNil(t, arrival)
	assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), *arrival)
}

func TestValidStatusTransition(t *testing.T) {
	// Both states are mutually reachable.
	assert.NoError(t, ValidStatusTransition(OrderStatusInTransit, OrderStatusCompleted))
	assert.NoError(t, ValidStatusTransition(OrderStatusCompleted, OrderStatusInTransit))
	assert.NoError(t, ValidStatusTransition(OrderStatusInTransit, OrderStatusInTransit))

	assert.Error(t, ValidStatusTransition(OrderStatusInTransit, "entregado"))
	assert.Error(t, ValidStatusTransition("", OrderStatusCompleted))
}

func TestOrderTotal(t *testing.T) {
	order := Order{
		Items: []LineItem{
			{
				Quantity:     3,
				UnitsPerCase: 6,
				PriceA:       decimal.RequireFromString("10.00"),
				PriceB:       decimal.RequireFromString("12.50"),
			},
			{
				Quantity:     2,
				UnitsPerCase: 12,
				PriceA:       decimal.RequireFromString("90.00"),
				PriceB:       decimal.RequireFromString("100.00"),
			},
		},
	}

	// price_b times real units: 18*12.50 + 24*100.00
	assert.True(t, order.Total().Equal(decimal.RequireFromString("2625.00")))
}

func TestLineItemTotalUnits(t *testing.T) {
	item := LineItem{Quantity: 4, UnitsPerCase: 12}
	assert.Equal(t, 48, item.TotalUnits())
}

func TestSupplierCatalogDisplayNames(t *testing.T) {
	catalog := DefaultSuppliers()

	assert.Equal(t, "Norton (Europa)", catalog.EuropaDisplayName("Norton"))

	names := catalog.DisplayNames()
	require.Len(t, names, len(catalog.Europa)+len(catalog.Independents))
	assert.Contains(t, names, "Las Perdices (Europa)")
	assert.Contains(t, names, "Speed VM")
}
