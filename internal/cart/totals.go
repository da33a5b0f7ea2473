package cart

import "github.com/shopspring/decimal"

// Totals is the price breakdown of a draft.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Taxable        decimal.Decimal `json:"taxable"`
	Tax            decimal.Decimal `json:"tax"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeTotals prices d. It does not modify d.
//
// Taxable is subtotal minus the extra discount and is not clamped at zero:
// a discount larger than the subtotal yields a negative taxable amount and
// a negative tax. Tax is rounded to cents; total is the exact sum of
// taxable, tax and delivery charge.
func ComputeTotals(d Draft) Totals {
	subtotal := decimal.Zero
	for _, l := range d.Lines {
		subtotal = subtotal.Add(l.Amount())
	}

	discount := d.ExtraDiscount
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(d.TaxRate).Round(2)

	delivery := decimal.Zero
	if d.OrderType == HomeDelivery {
		delivery = d.DeliveryCharge
	}

	return Totals{
		Subtotal:       subtotal,
		Discount:       discount,
		Taxable:        taxable,
		Tax:            tax,
		DeliveryCharge: delivery,
		Total:          taxable.Add(tax).Add(delivery),
	}
}
