package orderflow

import "storefront/internal/models"

// Totals is the priced breakdown of an order.
type Totals struct {
	Subtotal float64
	Shipping float64
	Tax      float64
	Discount float64
	Total    float64
	// NegativeTotal is set when the discount exceeded everything else and
	// Total was clamped to zero.
	NegativeTotal bool
}

// Subtotal sums unit price times quantity over the line items.
func Subtotal(items []models.OrderItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Price * float64(item.Quantity)
	}
	return sum
}

// ComputeTotal returns subtotal + shipping + tax - discount, never below zero.
func ComputeTotal(items []models.OrderItem, shipping, tax, discount float64) Totals {
	t := Totals{
		Subtotal: Subtotal(items),
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
	}
	t.Total = t.Subtotal + shipping + tax - discount
	if t.Total < 0 {
		t.Total = 0
		t.NegativeTotal = true
	}
	return t
}
