// Package stats computes revenue and best-seller figures from order snapshots.
// Nothing here mutates an order.
package stats

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/orderflow"
)

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Today runs from local midnight of now to now.
func Today(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: now}
}

// ThisMonth runs from midnight on the first of the month to now.
func ThisMonth(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return Window{Start: start, End: now}
}

// DateField picks the timestamp an order is bucketed by.
type DateField func(models.Order) time.Time

func ByCreatedAt(o models.Order) time.Time {
	return o.CreatedAt
}

func ByDeliveredAt(o models.Order) time.Time {
	if o.DeliveredAt == nil {
		return time.Time{}
	}
	return *o.DeliveredAt
}

func ByOrderDate(o models.Order) time.Time {
	if o.OrderDate == nil {
		return o.CreatedAt
	}
	return *o.OrderDate
}

// RevenueInWindow sums TotalAmount over orders with the given status whose
// date (by field, nil meaning createdAt) falls inside w.
func RevenueInWindow(orders []models.Order, w Window, status orderflow.Status, field DateField) float64 {
	if field == nil {
		field = ByCreatedAt
	}
	var sum float64
	for _, o := range orders {
		if orderflow.Status(o.Status) != status {
			continue
		}
		if !w.Contains(field(o)) {
			continue
		}
		sum += o.TotalAmount
	}
	return sum
}

// CountAll counts orders regardless of status.
func CountAll(orders []models.Order) int {
	return len(orders)
}

type ProductSales struct {
	ProductID primitive.ObjectID `json:"productId"`
	Name      string             `json:"name"`
	UnitsSold int                `json:"unitsSold"`
}

// BestSellers sums line item quantities per product over the given (delivered)
// orders and ranks them by units sold. Ties keep first-encountered order.
// A topN of zero or less returns every product.
func BestSellers(delivered []models.Order, topN int) []ProductSales {
	index := make(map[primitive.ObjectID]int)
	ranked := make([]ProductSales, 0)

	for _, o := range delivered {
		for _, item := range o.Items {
			if item.ProductID.IsZero() || item.Quantity <= 0 {
				continue
			}
			i, ok := index[item.ProductID]
			if !ok {
				i = len(ranked)
				index[item.ProductID] = i
				ranked = append(ranked, ProductSales{ProductID: item.ProductID, Name: item.Name})
			}
			ranked[i].UnitsSold += item.Quantity
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].UnitsSold > ranked[j].UnitsSold
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
