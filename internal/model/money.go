package model

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineTotal is unit price times quantity.
func LineTotal(unitPrice decimal.Decimal, qty int32) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt32(qty))
}

// CartTotals holds the derived aggregate of a cart.
type CartTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Fees     decimal.Decimal
	Tip      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeCartTotals sums line totals and applies the flat tax rate, rounded
// to cents. Fees and tip stay zero.
func ComputeCartTotals(items []*CartItem, taxRate decimal.Decimal) CartTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}

	tax := subtotal.Mul(taxRate).Round(2)
	return CartTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Fees:     decimal.Zero,
		Tip:      decimal.Zero,
		Total:    subtotal.Add(tax),
	}
}

// CheckoutAmount is a charge broken down in minor units.
type CheckoutAmount struct {
	Subtotal int64
	VAT      int64
	Total    int64
}

// ComputeCheckoutAmount converts a major-unit amount into cents and adds VAT:
// total = round(amount*100) + round(round(amount*100)*rate).
func ComputeCheckoutAmount(amount, vatRate decimal.Decimal) CheckoutAmount {
	subtotal := amount.Mul(hundred).Round(0)
	vat := subtotal.Mul(vatRate).Round(0)

	return CheckoutAmount{
		Subtotal: subtotal.IntPart(),
		VAT:      vat.IntPart(),
		Total:    subtotal.Add(vat).IntPart(),
	}
}
