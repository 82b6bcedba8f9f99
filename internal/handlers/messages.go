package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/logger"
	"storefront/internal/messaging"
	"storefront/internal/models"
)

// Chat wires the message endpoints of both sides of a thread.
type Chat struct {
	Messages     MessageStore
	Admin        messaging.AdminIdentity
	PollInterval time.Duration
	Now          func() time.Time
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	OrderID string `json:"orderId"`
}

func (h Chat) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Chat) thread(ctx context.Context, customerID string) ([]models.Message, error) {
	snapshot, err := h.Messages.ThreadSnapshot(ctx, customerID, h.Admin.ReceiverIDs())
	if err != nil {
		return nil, err
	}
	return messaging.ResolveThread(snapshot, customerID, h.Admin), nil
}

func (h Chat) getThread(c *gin.Context, route, customerID string, unreadFor func(string) bool) {
	ctx, cancel := requestContext(c)
	defer cancel()

	thread, err := h.thread(ctx, customerID)
	if err != nil {
		respondDomainError(c, route, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":   thread,
		"unread": len(messaging.MarkThreadRead(thread, unreadFor)),
	})
}

func (h Chat) send(c *gin.Context, route string, draft messaging.Draft) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	draft.Content = req.Content
	draft.OrderID = req.OrderID

	msg, err := messaging.ComposeOutgoing(draft, h.now())
	if err != nil {
		respondDomainError(c, route, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	stored, err := h.Messages.Insert(ctx, msg)
	if err != nil {
		respondDomainError(c, route, err)
		return
	}

	logger.For("MESSAGE").WithField("senderId", stored.SenderID).
		WithField("receiverId", stored.ReceiverID).
		Info("message sent")
	c.JSON(http.StatusCreated, gin.H{"message": stored})
}

func (h Chat) markRead(c *gin.Context, route, customerID string, recipient func(string) bool) {
	ctx, cancel := requestContext(c)
	defer cancel()

	thread, err := h.thread(ctx, customerID)
	if err != nil {
		respondDomainError(c, route, err)
		return
	}

	ids := messaging.MarkThreadRead(thread, recipient)
	updated, err := h.Messages.MarkRead(ctx, ids)
	if err != nil {
		respondDomainError(c, route, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// stream pushes the resolved thread as a server-sent event on connect and
// again after every change to the messages collection.
func (h Chat) stream(c *gin.Context, route, customerID string) {
	ctx := c.Request.Context()
	log := logger.For("MESSAGE").WithField("route", route).WithField("customerId", customerID)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	push := func() {
		qctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		thread, err := h.thread(qctx, customerID)
		if err != nil {
			log.WithError(err).Warn("thread refresh failed")
			c.SSEvent("error", gin.H{"error": "database unavailable"})
		} else {
			c.SSEvent("thread", gin.H{"data": thread})
		}
		c.Writer.Flush()
	}

	changes := h.Messages.Changes(ctx, h.PollInterval)
	push()
	for {
		select {
		case <-ctx.Done():
			log.Debug("stream closed by client")
			return
		case _, open := <-changes:
			if !open {
				return
			}
			push()
		}
	}
}

// Customer side. The customer is always the caller.

func GetMyThread(h Chat) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /messages"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		h.getThread(c, route, identity.UserID, messaging.Recipient(identity.UserID))
	}
}

func SendToAdmin(h Chat) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /messages"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		h.send(c, route, messaging.Draft{
			SenderID:   identity.UserID,
			SenderRole: models.RoleUser,
			SenderName: identity.Name,
			ReceiverID: h.Admin.ID,
		})
	}
}

func MarkMyThreadRead(h Chat) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /messages/read"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		h.markRead(c, route, identity.UserID, messaging.Recipient(identity.UserID))
	}
}

func StreamMyThread(h Chat) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /messages/stream"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		h.stream(c, route, identity.UserID)
	}
}

// Admin side. The customer comes from the path.

func customerParam(c *gin.Context, route string) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondWithError(c, http.StatusBadRequest, route, "invalid customer id")
		return "", false
	}
	return id, true
}

func GetCustomerThread(h Chat) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/customers/:id/messages"
		defer handlePanic(c, route)

		customerID, ok := customerParam(c, route)
		if !ok {
			return
		}
		h.getThread(c, route, customerID, h.Admin.Matches)
	}
}

func SendToCustomer(h Chat) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/customers/:id/messages"
		defer handlePanic(c, route)

		identity, ok := requireIdentity(c, route)
		if !ok {
			return
		}
		customerID, ok := customerParam(c, route)
		if !ok {
			return
		}
		name := identity.Name
		if name == "" {
			name = "Admin"
		}
		h.send(c, route, messaging.Draft{
			SenderID:   identity.UserID,
			SenderRole: models.RoleAdmin,
			SenderName: name,
			ReceiverID: customerID,
		})
	}
}

func MarkCustomerThreadRead(h Chat) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/customers/:id/messages/read"
		defer handlePanic(c, route)

		customerID, ok := customerParam(c, route)
		if !ok {
			return
		}
		h.markRead(c, route, customerID, h.Admin.Matches)
	}
}

func StreamCustomerThread(h Chat) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/customers/:id/messages/stream"
		defer handlePanic(c, route)

		customerID, ok := customerParam(c, route)
		if !ok {
			return
		}
		h.stream(c, route, customerID)
	}
}

// GetCustomers lists customer profiles merged with everyone who has unread
// messages for the admin. A failed unread query shows zero unread.
func GetCustomers(users UserStore, h Chat) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/customers"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		known, err := users.ListCustomers(ctx)
		if err != nil {
			respondDomainError(c, route, err)
			return
		}

		unreadMsgs, err := h.Messages.Unread(ctx, h.Admin.ReceiverIDs())
		if err != nil {
			logger.For("MESSAGE").WithError(err).Warn("unread query failed, showing zero unread")
		}
		unread := messaging.AggregateUnreadOrEmpty(unreadMsgs, err)

		c.JSON(http.StatusOK, gin.H{
			"data":        messaging.MergeCustomerList(known, unread),
			"totalUnread": unread.Total(),
		})
	}
}
