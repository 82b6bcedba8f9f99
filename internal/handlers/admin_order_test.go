package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"

	"storefront/internal/database"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orderflow"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func orderRouter(t *testing.T, who *middleware.Identity) (*MockOrderStore, http.Handler) {
	t.Helper()
	ctrl := gomock.NewController(t)
	orders := NewMockOrderStore(ctrl)
	machine := orderflow.NewMachine(func() time.Time { return fixedNow })

	r := newRouter(who)
	r.GET("/admin/api/orders", ListOrders(orders))
	r.POST("/admin/api/orders/:id/status", UpdateOrderStatus(orders, machine))
	r.POST("/admin/api/orders/:id/cancel", CancelOrder(orders, machine))
	r.POST("/admin/api/orders/:id/processed", MarkOrderProcessed(orders, machine))
	return orders, r
}

type orderResponse struct {
	Order struct {
		Status       string                 `json:"status"`
		IsProcessed  bool                   `json:"isProcessed"`
		ConfirmedAt  *time.Time             `json:"confirmedAt"`
		Presentation orderflow.Presentation `json:"presentation"`
	} `json:"order"`
}

func TestUpdateOrderStatusConfirms(t *testing.T) {
	orders, r := orderRouter(t, &admin)
	id := primitive.NewObjectID()

	orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "pending"}, nil)
	orders.EXPECT().ApplyUpdate(gomock.Any(), id, "pending", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ primitive.ObjectID, _ string, fields bson.M) error {
			assert.Equal(t, "confirmed", fields["status"])
			assert.Equal(t, fixedNow, fields["confirmedAt"])
			assert.Equal(t, false, fields["isProcessed"])
			return nil
		})

	w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/status", gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decode[orderResponse](t, w)
	assert.Equal(t, "confirmed", resp.Order.Status)
	assert.Equal(t, "Đã xác nhận", resp.Order.Presentation.Label)
	if assert.NotNil(t, resp.Order.ConfirmedAt) {
		assert.True(t, fixedNow.Equal(*resp.Order.ConfirmedAt))
	}
}

func TestUpdateOrderStatusRejections(t *testing.T) {
	id := primitive.NewObjectID()

	t.Run("invalid transition", func(t *testing.T) {
		orders, r := orderRouter(t, &admin)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "delivered"}, nil)

		w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/status", gin.H{"status": "confirmed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, r := orderRouter(t, &admin)
		w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/status", gin.H{"status": "lost"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not admin", func(t *testing.T) {
		orders, r := orderRouter(t, &customer)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "pending"}, nil)

		w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/status", gin.H{"status": "confirmed"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing order", func(t *testing.T) {
		orders, r := orderRouter(t, &admin)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{}, database.ErrNotFound)

		w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/status", gin.H{"status": "confirmed"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("lost race", func(t *testing.T) {
		orders, r := orderRouter(t, &admin)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "pending"}, nil)
		orders.EXPECT().ApplyUpdate(gomock.Any(), id, "pending", gomock.Any()).Return(database.ErrStaleWrite)

		w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/status", gin.H{"status": "confirmed"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		_, r := orderRouter(t, &admin)
		w := doJSON(t, r, http.MethodPost, "/admin/api/orders/xyz/status", gin.H{"status": "confirmed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateOrderStatusToCancelledNeedsReason(t *testing.T) {
	id := primitive.NewObjectID()
	path := "/admin/api/orders/" + id.Hex() + "/status"

	t.Run("without reason", func(t *testing.T) {
		orders, r := orderRouter(t, &admin)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "shipped"}, nil)
		orders.EXPECT().ApplyUpdate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := doJSON(t, r, http.MethodPost, path, gin.H{"status": "cancelled"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("with reason", func(t *testing.T) {
		orders, r := orderRouter(t, &admin)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "shipped"}, nil)
		orders.EXPECT().ApplyUpdate(gomock.Any(), id, "shipped", bson.M{
			"status":             "cancelled",
			"cancelledAt":        fixedNow,
			"cancellationReason": "hết hàng",
		}).Return(nil)

		w := doJSON(t, r, http.MethodPost, path, gin.H{"status": "cancelled", "reason": "hết hàng"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not admin", func(t *testing.T) {
		orders, r := orderRouter(t, &customer)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "pending"}, nil)

		w := doJSON(t, r, http.MethodPost, path, gin.H{"status": "cancelled", "reason": "x"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCancelOrder(t *testing.T) {
	id := primitive.NewObjectID()

	t.Run("with reason", func(t *testing.T) {
		orders, r := orderRouter(t, &admin)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "shipped"}, nil)
		orders.EXPECT().ApplyUpdate(gomock.Any(), id, "shipped", bson.M{
			"status":             "cancelled",
			"cancelledAt":        fixedNow,
			"cancellationReason": "khách đổi ý",
		}).Return(nil)

		w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/cancel", gin.H{"reason": " khách đổi ý "})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "cancelled", decode[orderResponse](t, w).Order.Status)
	})

	t.Run("blank reason", func(t *testing.T) {
		orders, r := orderRouter(t, &admin)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "pending"}, nil)

		w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/cancel", gin.H{"reason": "  "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("already cancelled", func(t *testing.T) {
		orders, r := orderRouter(t, &admin)
		orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "cancelled"}, nil)

		w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/cancel", gin.H{"reason": "again"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMarkOrderProcessed(t *testing.T) {
	orders, r := orderRouter(t, &admin)
	id := primitive.NewObjectID()

	orders.EXPECT().FindByID(gomock.Any(), id).Return(models.Order{ID: id, Status: "confirmed"}, nil)
	orders.EXPECT().ApplyUpdate(gomock.Any(), id, "confirmed", bson.M{"status": "confirmed", "isProcessed": true}).Return(nil)

	w := doJSON(t, r, http.MethodPost, "/admin/api/orders/"+id.Hex()+"/processed", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[orderResponse](t, w).Order.IsProcessed)
}

func TestListOrdersByStatus(t *testing.T) {
	orders, r := orderRouter(t, &admin)

	orders.EXPECT().List(gomock.Any(), database.OrderFilter{Status: "shipped"}).
		Return([]models.Order{{ID: primitive.NewObjectID(), Status: "shipped", TotalAmount: 1250000}}, nil)

	w := doJSON(t, r, http.MethodGet, "/admin/api/orders?status=shipped", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Data []struct {
			TotalText    string   `json:"totalText"`
			NextStatuses []string `json:"nextStatuses"`
		} `json:"data"`
	}](t, w)
	if assert.Len(t, resp.Data, 1) {
		assert.Equal(t, "1.250.000 VND", resp.Data[0].TotalText)
		assert.Equal(t, []string{"delivered", "cancelled"}, resp.Data[0].NextStatuses)
	}

	w = doJSON(t, r, http.MethodGet, "/admin/api/orders?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrdersByCustomer(t *testing.T) {
	orders, r := orderRouter(t, &admin)

	orders.EXPECT().List(gomock.Any(), database.OrderFilter{UserID: "cust-9", Status: "delivered"}).
		Return([]models.Order{{ID: primitive.NewObjectID(), UserID: "cust-9", Status: "delivered"}}, nil)

	w := doJSON(t, r, http.MethodGet, "/admin/api/orders?userId=%20cust-9%20&status=delivered", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
