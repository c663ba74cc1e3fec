package dto

import (
	"time"

	"github.com/broce-labs/partsline/internal/entity"
	notifservice "github.com/broce-labs/partsline/internal/service/notification"
)

// NotificationResponse represents the unseen-status flag for one order.
type NotificationResponse struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	New       bool      `json:"new"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromNotification maps a notification entity.
func FromNotification(n *entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		OrderID:   n.OrderID,
		Status:    n.Status().String(),
		New:       n.New,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// NotificationRowResponse is one entry of the role-filtered notification feed.
type NotificationRowResponse struct {
	ID      int64  `json:"id"`
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
	New     bool   `json:"new"`
}

// FromNotificationRows maps the feed produced by the notification service.
func FromNotificationRows(rows []notifservice.Row) []NotificationRowResponse {
	out := make([]NotificationRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, NotificationRowResponse{
			ID:      row.ID,
			OrderID: row.OrderID,
			Status:  row.Status,
			New:     row.New,
		})
	}
	return out
}
