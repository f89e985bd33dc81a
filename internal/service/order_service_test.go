package service

import (
	"context"
	"testing"

	"pedidos-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	s := &OrderService{}

	_, err := s.ListOrders(context.Background(), "entregado")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEffectiveEstimatedDays(t *testing.T) {
	s := &OrderService{defaultEstimatedDays: 7}

	days := s.effectiveEstimatedDays(nil)
	require.NotNil(t, days)
	assert.Equal(t, 7, *days)

	three := 3
	days = s.effectiveEstimatedDays(&three)
	require.NotNil(t, days)
	assert.Equal(t, 3, *days)

	// A zero default leaves omitted estimates empty.
	s = &OrderService{}
	assert.Nil(t, s.effectiveEstimatedDays(nil))
}

func TestToItemData(t *testing.T) {
	items := []models.LineItem{
		{
			Quantity:     3,
			UnitsPerCase: 6,
			Name:         "WIDGET",
			PriceB:       decimal.RequireFromString("12.50"),
			RawLine:      "3x6 WIDGET $10.00/12.50",
		},
	}

	data := toItemData(items)

	require.Len(t, data, 1)
	assert.Equal(t, 3, data[0].Quantity)
	assert.Equal(t, 6, data[0].UnitsPerCase)
	assert.Equal(t, "WIDGET", data[0].Name)
	assert.Equal(t, "12.5", data[0].Price)
	assert.Equal(t, "3x6 WIDGET $10.00/12.50", data[0].RawLine)
}

func TestPlaceOrderReconciliation(t *testing.T) {
	// End-to-end flow through PlaceOrder requires Postgres, Redis and
	// Kafka; covered by the pure allocation tests plus this placeholder.
	t.Skip("Integration test - requires database, redis and kafka")
}
