package dto

import (
	"time"

	"github.com/broce-labs/partsline/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID              int64                  `json:"id"`
	UserID          int64                  `json:"user_id"`
	ShippingAddress string                 `json:"shipping_address,omitempty"`
	ShippingCity    string                 `json:"shipping_city,omitempty"`
	ShippingState   string                 `json:"shipping_state,omitempty"`
	ShippingZip     int64                  `json:"shipping_zip,omitempty"`
	PONumber        string                 `json:"po_number,omitempty"`
	Status          string                 `json:"status,omitempty"`
	Details         []OrderDetailResponse  `json:"order_details,omitempty"`
	Statuses        []OrderStatusResponse  `json:"order_statuses,omitempty"`
	Notification    *NotificationResponse  `json:"notification,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// OrderDetailResponse is one line item inside an order payload.
type OrderDetailResponse struct {
	ID               int64         `json:"id"`
	OrderID          int64         `json:"order_id"`
	PartID           int64         `json:"part_id"`
	MachineSerialNum int64         `json:"machine_serial_num,omitempty"`
	Quantity         int64         `json:"quantity"`
	Price            float64       `json:"price,omitempty"`
	Discount         float64       `json:"discount,omitempty"`
	Part             *PartResponse `json:"part,omitempty"`
}

// OrderStatusResponse is one row of an order's status history.
type OrderStatusResponse struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	Current   bool      `json:"current"`
	CreatedAt time.Time `json:"created_at"`
}

// FromOrder maps an order aggregate onto its response shape.
func FromOrder(order *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:              order.ID,
		UserID:          order.UserID,
		ShippingAddress: order.ShippingAddress,
		ShippingCity:    order.ShippingCity,
		ShippingState:   order.ShippingState,
		ShippingZip:     order.ShippingZip,
		PONumber:        order.PONumber,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, detail := range order.Details {
		resp.Details = append(resp.Details, FromOrderDetail(detail))
	}
	for _, status := range order.Statuses {
		resp.Statuses = append(resp.Statuses, OrderStatusResponse{
			ID:        status.ID,
			Status:    status.Status().String(),
			Current:   status.Current,
			CreatedAt: status.CreatedAt,
		})
		if status.Current {
			resp.Status = status.Status().String()
		}
	}
	if order.Notification != nil {
		n := FromNotification(order.Notification)
		resp.Notification = &n
	}
	return resp
}

// FromOrders maps a slice of orders.
func FromOrders(orders []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromOrder(order))
	}
	return out
}

// FromOrderDetail maps an order line item.
func FromOrderDetail(detail *entity.OrderDetail) OrderDetailResponse {
	resp := OrderDetailResponse{
		ID:               detail.ID,
		OrderID:          detail.OrderID,
		PartID:           detail.PartID,
		MachineSerialNum: detail.MachineSerialNum,
		Quantity:         detail.Quantity,
		Price:            detail.Price,
		Discount:         detail.Discount,
	}
	if detail.Part != nil {
		p := FromPart(detail.Part)
		resp.Part = &p
	}
	return resp
}
