package invoice

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItemInput is a product as submitted, before its total is derived
type LineItemInput struct {
	Name     string
	Price    decimal.Decimal
	Quantity int64
}

type Totals struct {
	Products  Products
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// CalculateTotals derives per-product totals, the subtotal, the tax at
// taxRatePercent and the grand total. Values are not rounded; presentation
// decides the precision.
func CalculateTotals(items []LineItemInput, taxRatePercent decimal.Decimal) Totals {
	products := make(Products, 0, len(items))
	subtotal := decimal.Zero

	for _, item := range items {
		total := item.Price.Mul(decimal.NewFromInt(item.Quantity))
		products = append(products, Product{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Total:    total,
		})
		subtotal = subtotal.Add(total)
	}

	tax := subtotal.Mul(taxRatePercent).Div(hundred)

	return Totals{
		Products:  products,
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}
