package model

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	OrderStatusFlagged        OrderStatus = "flagged"

	// Terminal statuses. Completed and declined orders are deleted from the
	// store, so these values only ever appear as transition targets.
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusDeclined  OrderStatus = "declined"
)

// legalTransitions is the full status lattice. Everything is one-way except
// flagged -> pending, the explicit admin unflag.
var legalTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusPaymentPending, OrderStatusFlagged, OrderStatusDeclined},
	OrderStatusPaymentPending: {OrderStatusCompleted, OrderStatusFlagged, OrderStatusDeclined},
	OrderStatusFlagged:        {OrderStatusPending, OrderStatusDeclined},
}

type IllegalTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal order transition %s -> %s", e.From, e.To)
}

// ValidateTransition reports whether from -> to is a legal edge of the
// status lattice, returning a typed error otherwise.
func ValidateTransition(from, to OrderStatus) error {
	for _, next := range legalTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &IllegalTransitionError{From: from, To: to}
}

// Live reports whether an order in this status is still matchable against an
// uploaded payment screenshot.
func (s OrderStatus) Live() bool {
	return s == OrderStatusPending || s == OrderStatusPaymentPending
}

type Order struct {
	ID         uint64      `gorm:"primaryKey;autoIncrement"`
	Reference  string      `gorm:"column:reference;size:36;uniqueIndex;not null"`
	ProductID  uint64      `gorm:"column:product_id;index;not null"`
	BuyerEmail string      `gorm:"column:buyer_email;size:255;not null"`
	BuyerToken string      `gorm:"column:buyer_token;size:8;index;not null"`
	Status     OrderStatus `gorm:"column:status;size:32;index;not null"`
	CreatedAt  time.Time   `gorm:"autoCreateTime"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
