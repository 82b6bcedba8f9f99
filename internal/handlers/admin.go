package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/logger"
	"storefront/internal/orderflow"
	"storefront/internal/stats"
)

type statsResponse struct {
	stats.Snapshot
	DailyRevenueText   string `json:"dailyRevenueText"`
	MonthlyRevenueText string `json:"monthlyRevenueText"`
}

// GetStats returns the dashboard figures. Figures whose query failed are
// zero and listed under "degraded".
func GetStats(source StatsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/stats"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		snap, err := source.Collect(ctx)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, statsResponse{
			Snapshot:           snap,
			DailyRevenueText:   orderflow.FormatVND(snap.DailyRevenue),
			MonthlyRevenueText: orderflow.FormatVND(snap.MonthlyRevenue),
		})
	}
}

// BlockCustomer stops a customer from using the shop until unblocked.
func BlockCustomer(users UserStore) gin.HandlerFunc {
	return setBlocked("POST /admin/api/customers/:id/block", users, true)
}

func UnblockCustomer(users UserStore) gin.HandlerFunc {
	return setBlocked("POST /admin/api/customers/:id/unblock", users, false)
}

func setBlocked(route string, users UserStore, blocked bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := users.SetBlocked(ctx, id, blocked); err != nil {
			respondDomainError(c, route, err)
			return
		}

		logger.For("USER").WithField("userId", id).WithField("isBlocked", blocked).Info("customer block changed")
		c.JSON(http.StatusOK, gin.H{"id": id, "isBlocked": blocked})
	}
}
