package stats

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/orderflow"
)

// OrderReader is the slice of the order store the collector needs.
type OrderReader interface {
	FindByStatusSince(ctx context.Context, status string, since time.Time) ([]models.Order, error)
	FindByStatus(ctx context.Context, status string) ([]models.Order, error)
	CountAll(ctx context.Context) (int64, error)
}

// Snapshot is the admin dashboard view. Degraded names the figures whose
// query failed and were reported as zero.
type Snapshot struct {
	DailyRevenue   float64        `json:"dailyRevenue"`
	MonthlyRevenue float64        `json:"monthlyRevenue"`
	TotalOrders    int64          `json:"totalOrders"`
	BestSellers    []ProductSales `json:"bestSellers"`
	Today          Window         `json:"today"`
	Month          Window         `json:"month"`
	Degraded       []string       `json:"degraded,omitempty"`
	ComputedAt     time.Time      `json:"computedAt"`
}

type Collector struct {
	orders OrderReader
	loc    *time.Location
	topN   int
	now    func() time.Time
}

func NewCollector(orders OrderReader, loc *time.Location, topN int, clock func() time.Time) *Collector {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = time.Now
	}
	return &Collector{orders: orders, loc: loc, topN: topN, now: clock}
}

// Collect runs the independent dashboard queries concurrently. A failed query
// is logged and its figure degrades to zero; Collect itself only fails when
// ctx is done.
func (c *Collector) Collect(ctx context.Context) (Snapshot, error) {
	now := c.now()
	snap := Snapshot{
		Today:       Today(now, c.loc),
		Month:       ThisMonth(now, c.loc),
		BestSellers: []ProductSales{},
		ComputedAt:  now,
	}
	delivered := string(orderflow.StatusDelivered)

	var mu sync.Mutex
	degrade := func(part string, err error) {
		logger.For("STATS").WithError(err).WithField("part", part).Warn("stats query failed, reporting zero")
		mu.Lock()
		snap.Degraded = append(snap.Degraded, part)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := c.orders.FindByStatusSince(gctx, delivered, snap.Today.Start)
		if err != nil {
			degrade("dailyRevenue", err)
			return nil
		}
		snap.DailyRevenue = RevenueInWindow(orders, snap.Today, orderflow.StatusDelivered, ByCreatedAt)
		return nil
	})
	g.Go(func() error {
		orders, err := c.orders.FindByStatusSince(gctx, delivered, snap.Month.Start)
		if err != nil {
			degrade("monthlyRevenue", err)
			return nil
		}
		snap.MonthlyRevenue = RevenueInWindow(orders, snap.Month, orderflow.StatusDelivered, ByCreatedAt)
		return nil
	})
	g.Go(func() error {
		n, err := c.orders.CountAll(gctx)
		if err != nil {
			degrade("totalOrders", err)
			return nil
		}
		snap.TotalOrders = n
		return nil
	})
	g.Go(func() error {
		orders, err := c.orders.FindByStatus(gctx, delivered)
		if err != nil {
			degrade("bestSellers", err)
			return nil
		}
		snap.BestSellers = BestSellers(orders, c.topN)
		return nil
	})

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// BestSellers ranks products over every delivered order, degrading to an
// empty ranking when the query fails.
func (c *Collector) BestSellers(ctx context.Context) []ProductSales {
	orders, err := c.orders.FindByStatus(ctx, string(orderflow.StatusDelivered))
	if err != nil {
		logger.For("STATS").WithError(err).Warn("best sellers query failed")
		return []ProductSales{}
	}
	return BestSellers(orders, c.topN)
}
