package model

import (
	"errors"
	"testing"
)

func TestValidateTransition(t *testing.T) {
	legal := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusPaymentPending},
		{OrderStatusPending, OrderStatusFlagged},
		{OrderStatusPending, OrderStatusDeclined},
		{OrderStatusPaymentPending, OrderStatusCompleted},
		{OrderStatusPaymentPending, OrderStatusFlagged},
		{OrderStatusPaymentPending, OrderStatusDeclined},
		{OrderStatusFlagged, OrderStatusPending},
		{OrderStatusFlagged, OrderStatusDeclined},
	}
	for _, tc := range legal {
		if err := ValidateTransition(tc.from, tc.to); err != nil {
			t.Errorf("ValidateTransition(%s, %s) = %v, want nil", tc.from, tc.to, err)
		}
	}

	illegal := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusCompleted},
		{OrderStatusPaymentPending, OrderStatusPending},
		{OrderStatusFlagged, OrderStatusCompleted},
		{OrderStatusFlagged, OrderStatusPaymentPending},
		{OrderStatusCompleted, OrderStatusPending},
		{OrderStatusDeclined, OrderStatusPending},
		{OrderStatusPending, OrderStatusPending},
	}
	for _, tc := range illegal {
		err := ValidateTransition(tc.from, tc.to)
		if err == nil {
			t.Errorf("ValidateTransition(%s, %s) = nil, want error", tc.from, tc.to)
			continue
		}
		var ite *IllegalTransitionError
		if !errors.As(err, &ite) {
			t.Errorf("ValidateTransition(%s, %s) returned %T, want *IllegalTransitionError", tc.from, tc.to, err)
		}
	}
}

func TestStatusLive(t *testing.T) {
	if !OrderStatusPending.Live() || !OrderStatusPaymentPending.Live() {
		t.Error("pending and payment_pending must be live")
	}
	if OrderStatusFlagged.Live() || OrderStatusCompleted.Live() || OrderStatusDeclined.Live() {
		t.Error("flagged/terminal statuses must not be live")
	}
}
