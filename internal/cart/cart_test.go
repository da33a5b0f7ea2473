package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func waffle() Item {
	return Item{ID: "1", Name: "Chicken Waffle", UnitPrice: dec("12.99")}
}

func TestNewDraft_Defaults(t *testing.T) {
	d := NewDraft(dec("0.05"))

	assert.Equal(t, 0, d.Len())
	assert.Equal(t, WalkIn, d.Customer)
	assert.True(t, d.Customer.IsWalkIn())
	assert.Equal(t, TakeAway, d.OrderType)
	assert.True(t, d.ExtraDiscount.IsZero())
	assert.True(t, d.DeliveryCharge.IsZero())
	assert.Equal(t, "0.05", d.TaxRate.String())
}

func TestAddItem_SameIdentityAccumulates(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		d := NewDraft(decimal.Zero)
		for i := 0; i < n; i++ {
			require.NoError(t, d.AddItem(waffle()))
		}
		assert.Equal(t, 1, d.Len())
		assert.Equal(t, n, d.Quantity("1"), "quantity after %d adds", n)
	}
}

func TestAddItem_PriceCapturedAtAddTime(t *testing.T) {
	d := NewDraft(decimal.Zero)
	require.NoError(t, d.AddItem(waffle()))

	repriced := waffle()
	repriced.UnitPrice = dec("99.00")
	require.NoError(t, d.AddItem(repriced))

	require.Equal(t, 1, d.Len())
	assert.Equal(t, "12.99", d.Lines[0].UnitPrice.String())
	assert.Equal(t, 2, d.Lines[0].Quantity)
}

func TestAddItem_KeepsInsertionOrder(t *testing.T) {
	d := NewDraft(decimal.Zero)
	require.NoError(t, d.AddItem(Item{ID: "b", UnitPrice: dec("1")}))
	require.NoError(t, d.AddItem(Item{ID: "a", UnitPrice: dec("1")}))
	require.NoError(t, d.AddItem(Item{ID: "b", UnitPrice: dec("1")}))

	require.Equal(t, 2, d.Len())
	assert.Equal(t, "b", d.Lines[0].ItemID)
	assert.Equal(t, "a", d.Lines[1].ItemID)
}

func TestAddItem_Invalid(t *testing.T) {
	d := NewDraft(decimal.Zero)

	assert.ErrorIs(t, d.AddItem(Item{ID: "", UnitPrice: dec("1")}), ErrInvalidItem)
	assert.ErrorIs(t, d.AddItem(Item{ID: "x", UnitPrice: dec("-1")}), ErrInvalidItem)
	assert.NoError(t, d.AddItem(Item{ID: "free", UnitPrice: decimal.Zero}))
	assert.Equal(t, 1, d.Len())
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		delta     int
		wantQty   int
		wantLines int
	}{
		{"increment", 1, 1, 2, 1},
		{"decrement", 3, -1, 2, 1},
		{"zero delta", 2, 0, 2, 1},
		{"down to zero removes", 1, -1, 0, 0},
		{"below zero removes", 2, -5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft(decimal.Zero)
			for i := 0; i < tt.start; i++ {
				require.NoError(t, d.AddItem(waffle()))
			}

			d.UpdateQuantity("1", tt.delta)

			assert.Equal(t, tt.wantQty, d.Quantity("1"))
			assert.Equal(t, tt.wantLines, d.Len())
		})
	}
}

func TestUpdateQuantity_DecrementQuantityTimesRemovesLine(t *testing.T) {
	d := NewDraft(decimal.Zero)
	for i := 0; i < 4; i++ {
		require.NoError(t, d.AddItem(waffle()))
	}

	for i := 0; i < 4; i++ {
		require.Equal(t, 4-i, d.Quantity("1"))
		d.UpdateQuantity("1", -1)
	}

	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0, d.Quantity("1"))
}

func TestUpdateQuantity_UnknownItemIsNoop(t *testing.T) {
	d := NewDraft(decimal.Zero)
	require.NoError(t, d.AddItem(waffle()))

	d.UpdateQuantity("missing", 3)
	d.UpdateQuantity("missing", -3)

	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 1, d.Quantity("1"))
}

func TestRemoveItem(t *testing.T) {
	d := NewDraft(decimal.Zero)
	require.NoError(t, d.AddItem(waffle()))
	require.NoError(t, d.AddItem(Item{ID: "2", UnitPrice: dec("3")}))

	d.RemoveItem("missing")
	assert.Equal(t, 2, d.Len())

	d.RemoveItem("1")
	require.Equal(t, 1, d.Len())
	assert.Equal(t, "2", d.Lines[0].ItemID)
}

func TestReset(t *testing.T) {
	d := NewDraft(dec("0.05"))
	require.NoError(t, d.AddItem(waffle()))
	d.SetCustomer(Customer{ID: "c-1", Name: "Ada"})
	require.NoError(t, d.SetOrderType(HomeDelivery))
	require.NoError(t, d.SetExtraDiscount(dec("5")))
	require.NoError(t, d.SetDeliveryCharge(dec("20")))

	d.Reset()

	assert.Equal(t, 0, d.Len())
	assert.Equal(t, WalkIn, d.Customer)
	assert.Equal(t, TakeAway, d.OrderType)
	assert.True(t, d.ExtraDiscount.IsZero())
	assert.True(t, d.DeliveryCharge.IsZero())
	assert.Equal(t, "0.05", d.TaxRate.String())

	totals := ComputeTotals(*d)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestSetters_Validation(t *testing.T) {
	d := NewDraft(decimal.Zero)

	assert.ErrorIs(t, d.SetOrderType("dine_in"), ErrInvalidOrderType)
	assert.Equal(t, TakeAway, d.OrderType)

	assert.ErrorIs(t, d.SetExtraDiscount(dec("-1")), ErrNegativeAmount)
	assert.ErrorIs(t, d.SetDeliveryCharge(dec("-0.01")), ErrNegativeAmount)

	d.SetCustomer(Customer{})
	assert.True(t, d.Customer.IsWalkIn())
}

func TestClone_IsIndependent(t *testing.T) {
	d := NewDraft(decimal.Zero)
	require.NoError(t, d.AddItem(waffle()))

	c := d.Clone()
	d.UpdateQuantity("1", 4)
	d.RemoveItem("1")

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Quantity("1"))
}
