// Package messaging derives customer/admin chat threads and unread counts from
// the shared messages collection.
package messaging

import (
	"errors"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var ErrEmptyContent = errors.New("message content is empty")

// AdminIdentity is the single logical admin party. ID is where customers
// address their messages; Aliases are other receiver ids that also count as
// the admin (legacy literal "admin", extra admin accounts).
type AdminIdentity struct {
	ID      string
	Aliases []string
}

// Matches reports whether id addresses the admin party.
func (a AdminIdentity) Matches(id string) bool {
	if id == "" {
		return false
	}
	if id == a.ID {
		return true
	}
	for _, alias := range a.Aliases {
		if id == alias {
			return true
		}
	}
	return false
}

// ReceiverIDs lists every id that addresses the admin, for store queries.
func (a AdminIdentity) ReceiverIDs() []string {
	ids := make([]string, 0, len(a.Aliases)+1)
	ids = append(ids, a.ID)
	for _, alias := range a.Aliases {
		if alias != "" && alias != a.ID {
			ids = append(ids, alias)
		}
	}
	return ids
}

// InThread reports whether msg belongs to the thread of customerID.
// Any admin-authored message counts, whichever admin account wrote it.
func InThread(msg models.Message, customerID string, admin AdminIdentity) bool {
	if customerID == "" {
		return false
	}
	if msg.SenderID == customerID && admin.Matches(msg.ReceiverID) {
		return true
	}
	return msg.SenderRole == models.RoleAdmin && msg.ReceiverID == customerID
}

// ResolveThread filters the full message snapshot down to one customer's
// thread, oldest first. Messages with equal timestamps keep snapshot order.
// The input is not modified and every call recomputes from scratch.
func ResolveThread(all []models.Message, customerID string, admin AdminIdentity) []models.Message {
	thread := make([]models.Message, 0)
	for _, msg := range all {
		if InThread(msg, customerID, admin) {
			thread = append(thread, msg)
		}
	}
	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].CreatedAt.Before(thread[j].CreatedAt)
	})
	return thread
}

// Draft is an outgoing message before it is stored.
type Draft struct {
	SenderID   string
	SenderRole string
	SenderName string
	ReceiverID string
	Content    string
	OrderID    string
}

// ComposeOutgoing validates a draft and builds the unread message to insert.
func ComposeOutgoing(d Draft, now time.Time) (models.Message, error) {
	content := strings.TrimSpace(d.Content)
	if content == "" {
		return models.Message{}, ErrEmptyContent
	}
	return models.Message{
		Content:    content,
		CreatedAt:  now,
		Read:       false,
		SenderID:   d.SenderID,
		SenderName: strings.TrimSpace(d.SenderName),
		SenderRole: d.SenderRole,
		ReceiverID: d.ReceiverID,
		OrderID:    strings.TrimSpace(d.OrderID),
	}, nil
}

// MarkThreadRead returns the ids of unread messages in thread that are
// addressed to the recipient. Already read messages are skipped, so calling it
// again after the writes land yields nothing.
func MarkThreadRead(thread []models.Message, recipient func(receiverID string) bool) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0)
	for _, msg := range thread {
		if msg.Read || msg.ID.IsZero() {
			continue
		}
		if recipient(msg.ReceiverID) {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

// Recipient matches a single receiver id.
func Recipient(id string) func(string) bool {
	return func(receiverID string) bool { return receiverID == id }
}
