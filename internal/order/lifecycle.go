package order

import (
	"peelojuice/internal/apperrors"
	"peelojuice/internal/models"
)

// The order/payment pair is reconciled through one authoritative transition
// function instead of status checks scattered across handlers. A Transition
// describes what a requested status change does to the pair.
type Transition struct {
	NewStatus models.OrderStatus
	// CascadePayment, when non-nil, is the payment status that must be
	// written in the same transaction as the order status.
	CascadePayment *models.PaymentStatus
}

// branchStaffStatuses are the only targets a restricted branch-staff actor
// may set. Delivery and cancellation stay with superusers.
var branchStaffStatuses = map[models.OrderStatus]bool{
	models.OrderPending:        true,
	models.OrderConfirmed:      true,
	models.OrderPreparing:      true,
	models.OrderOutForDelivery: true,
}

// PlanTransition validates a requested status change against the current
// order and payment state and returns the transition to apply, including any
// payment cascade. It is the single gatekeeper for every status mutation
// path.
func PlanTransition(current models.OrderStatus, requested models.OrderStatus, payment *models.Payment) (*Transition, error) {
	if !models.IsValidOrderStatus(requested) {
		return nil, apperrors.Validation("Invalid status. Valid options: pending, confirmed, preparing, out_for_delivery, delivered, cancelled")
	}

	if current == models.OrderDelivered {
		return nil, apperrors.Conflict("Order has already been delivered")
	}
	if current == models.OrderCancelled {
		return nil, apperrors.Conflict("Cannot update status of a cancelled order")
	}

	transition := &Transition{NewStatus: requested}

	switch requested {
	case models.OrderDelivered:
		// Payment completion gates delivery.
		if payment == nil || payment.Status != models.PaymentCompleted {
			return nil, apperrors.Conflict("Payment must be completed first")
		}
	case models.OrderCancelled:
		// Refund cascades from cancellation of a paid order.
		if payment != nil && payment.Status == models.PaymentCompleted {
			refunded := models.PaymentRefunded
			transition.CascadePayment = &refunded
		}
	}

	return transition, nil
}

// AuthorizeStaffTarget enforces the restricted branch-staff status set.
// Superusers may set any status.
func AuthorizeStaffTarget(requested models.OrderStatus, isSuperuser bool) error {
	if isSuperuser {
		return nil
	}
	if !branchStaffStatuses[requested] {
		return apperrors.Forbidden("Branch staff cannot set this status")
	}
	return nil
}
