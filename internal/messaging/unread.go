package messaging

import (
	"sort"

	"storefront/internal/models"
)

// ShadowCustomerName labels customers known only from their messages.
const ShadowCustomerName = "Khách mới"

// UnreadCounts maps sender id to unread message count and remembers the order
// in which senders were first seen.
type UnreadCounts struct {
	counts map[string]int
	order  []string
}

// AggregateUnread groups unread admin-bound messages by sender. The input is
// expected to already be filtered to read == false and an admin receiver.
func AggregateUnread(unread []models.Message) UnreadCounts {
	u := UnreadCounts{counts: make(map[string]int)}
	for _, msg := range unread {
		if _, seen := u.counts[msg.SenderID]; !seen {
			u.order = append(u.order, msg.SenderID)
		}
		u.counts[msg.SenderID]++
	}
	return u
}

// AggregateUnreadOrEmpty collapses a failed unread query to no counts. The
// admin view then shows zero unread instead of failing.
func AggregateUnreadOrEmpty(unread []models.Message, queryErr error) UnreadCounts {
	if queryErr != nil {
		return AggregateUnread(nil)
	}
	return AggregateUnread(unread)
}

func (u UnreadCounts) Get(senderID string) int {
	return u.counts[senderID]
}

// Len is the number of distinct senders.
func (u UnreadCounts) Len() int {
	return len(u.order)
}

// Total is the number of unread messages over all senders.
func (u UnreadCounts) Total() int {
	total := 0
	for _, n := range u.counts {
		total += n
	}
	return total
}

// SenderIDs lists senders in first-seen order.
func (u UnreadCounts) SenderIDs() []string {
	out := make([]string, len(u.order))
	copy(out, u.order)
	return out
}

// Map returns a copy of the counts.
func (u UnreadCounts) Map() map[string]int {
	out := make(map[string]int, len(u.counts))
	for k, v := range u.counts {
		out[k] = v
	}
	return out
}

// CustomerSummary is one row of the admin customer list.
type CustomerSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	IsBlocked   bool   `json:"isBlocked"`
	UnreadCount int    `json:"unreadCount"`
	Shadow      bool   `json:"shadow"`
}

// MergeCustomerList joins profile customers with senders that have no profile
// yet. Ids are unique in the result (the first profile wins), every unread
// sender is present, and rows are ordered by unread count descending with
// ties kept in input order.
func MergeCustomerList(known []models.User, unread UnreadCounts) []CustomerSummary {
	seen := make(map[string]struct{}, len(known)+unread.Len())
	merged := make([]CustomerSummary, 0, len(known)+unread.Len())

	for _, user := range known {
		if _, dup := seen[user.ID]; dup {
			continue
		}
		seen[user.ID] = struct{}{}
		merged = append(merged, CustomerSummary{
			ID:          user.ID,
			Name:        user.Name,
			Email:       user.Email,
			Phone:       user.Phone,
			IsBlocked:   user.IsBlocked,
			UnreadCount: unread.Get(user.ID),
		})
	}

	for _, id := range unread.order {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, CustomerSummary{
			ID:          id,
			Name:        ShadowCustomerName,
			UnreadCount: unread.Get(id),
			Shadow:      true,
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].UnreadCount > merged[j].UnreadCount
	})
	return merged
}
