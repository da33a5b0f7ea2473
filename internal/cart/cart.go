// Package cart implements the point-of-sale draft order: its line items,
// customer, order type and the pricing arithmetic over them.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidItem      = errors.New("item must have an id and a non-negative price")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrInvalidOrderType = errors.New("unknown order type")
)

// OrderType selects how the order leaves the shop.
type OrderType string

const (
	TakeAway     OrderType = "take_away"
	HomeDelivery OrderType = "home_delivery"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == TakeAway || t == HomeDelivery
}

// Customer references the buyer of a draft.
type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WalkIn is the placeholder customer for an unidentified in-person buyer.
var WalkIn = Customer{ID: "walk-in", Name: "Walk-in Customer"}

// IsWalkIn reports whether c is the walk-in sentinel.
func (c Customer) IsWalkIn() bool {
	return c.ID == WalkIn.ID
}

// Item is something that can be put in the cart.
type Item struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
}

// Line is one row of the cart. UnitPrice is fixed when the line is created.
type Line struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Amount returns UnitPrice × Quantity.
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Draft is the in-progress order assembled at a terminal.
// A Draft is not safe for concurrent use.
type Draft struct {
	Lines          []Line          `json:"lines"`
	Customer       Customer        `json:"customer"`
	OrderType      OrderType       `json:"orderType"`
	ExtraDiscount  decimal.Decimal `json:"extraDiscount"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
}

// NewDraft returns an empty take-away draft for the walk-in customer.
func NewDraft(taxRate decimal.Decimal) *Draft {
	d := &Draft{TaxRate: taxRate}
	d.Reset()
	return d
}

// AddItem appends item with quantity 1, or increments the quantity of the
// existing line for the same item ID. The price of an existing line is kept.
func (d *Draft) AddItem(item Item) error {
	if item.ID == "" || item.UnitPrice.IsNegative() {
		return ErrInvalidItem
	}

	if i := d.index(item.ID); i >= 0 {
		d.Lines[i].Quantity++
		return nil
	}

	d.Lines = append(d.Lines, Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Quantity:  1,
	})
	return nil
}

// UpdateQuantity adds delta to the line's quantity. A result of zero or
// less removes the line. Unknown item IDs are ignored.
func (d *Draft) UpdateQuantity(itemID string, delta int) {
	i := d.index(itemID)
	if i < 0 {
		return
	}

	q := d.Lines[i].Quantity + delta
	if q <= 0 {
		d.removeAt(i)
		return
	}
	d.Lines[i].Quantity = q
}

// RemoveItem deletes the line for itemID if present.
func (d *Draft) RemoveItem(itemID string) {
	if i := d.index(itemID); i >= 0 {
		d.removeAt(i)
	}
}

// Reset clears the lines and restores discount, delivery charge, order type
// and customer to their defaults. The tax rate is terminal configuration
// and survives a reset.
func (d *Draft) Reset() {
	d.Lines = nil
	d.Customer = WalkIn
	d.OrderType = TakeAway
	d.ExtraDiscount = decimal.Zero
	d.DeliveryCharge = decimal.Zero
}

// SetCustomer selects the buyer. An empty ID selects the walk-in customer.
func (d *Draft) SetCustomer(c Customer) {
	if c.ID == "" {
		c = WalkIn
	}
	d.Customer = c
}

// SetOrderType switches between take-away and home delivery.
func (d *Draft) SetOrderType(t OrderType) error {
	if !t.Valid() {
		return ErrInvalidOrderType
	}
	d.OrderType = t
	return nil
}

// SetExtraDiscount sets the flat discount taken off the subtotal.
func (d *Draft) SetExtraDiscount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	d.ExtraDiscount = amount
	return nil
}

// SetDeliveryCharge sets the charge applied to home-delivery orders.
func (d *Draft) SetDeliveryCharge(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	d.DeliveryCharge = amount
	return nil
}

// Len returns the number of lines.
func (d *Draft) Len() int {
	return len(d.Lines)
}

// Quantity returns the quantity of itemID, or 0 if it is not in the cart.
func (d *Draft) Quantity(itemID string) int {
	if i := d.index(itemID); i >= 0 {
		return d.Lines[i].Quantity
	}
	return 0
}

// Clone returns a copy that shares no line storage with d.
func (d *Draft) Clone() Draft {
	c := *d
	c.Lines = append([]Line(nil), d.Lines...)
	return c
}

func (d *Draft) index(itemID string) int {
	for i := range d.Lines {
		if d.Lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (d *Draft) removeAt(i int) {
	d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
	if len(d.Lines) == 0 {
		d.Lines = nil
	}
}
