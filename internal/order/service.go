package order

import (
	"context"
	"fmt"

	"peelojuice/internal/apperrors"
	"peelojuice/internal/auth"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
)

type DBLayer interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, statuses []models.OrderStatus) ([]models.Order, error)
	ListOrdersByBranch(ctx context.Context, branchID string, statuses []models.OrderStatus) ([]models.Order, error)
	ApplyTransition(ctx context.Context, orderID string, newStatus models.OrderStatus, paymentStatus *models.PaymentStatus) error
}

type PaymentLayer interface {
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
}

type EventPublisher interface {
	PublishOrderStatusChanged(order models.Order) error
}

// OrderService enforces the order status state machine and its coupling to
// the payment record.
type OrderService struct {
	DB       DBLayer
	Payments PaymentLayer
	Events   EventPublisher
	Logger   *logger.Logger
}

func NewOrderService(db DBLayer, payments PaymentLayer, events EventPublisher, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Payments: payments, Events: events, Logger: log}
}

// GetOrderForUser returns the order only when it belongs to the requesting
// user.
func (s *OrderService) GetOrderForUser(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}
	if order == nil || order.UserID != userID {
		return nil, apperrors.NotFound("Order not found")
	}
	return order, nil
}

// GetOrderForStaff returns the order scoped to the staff actor's branch.
// Superusers see every branch.
func (s *OrderService) GetOrderForStaff(ctx context.Context, claims *auth.Claims, orderID string) (*models.Order, error) {
	if err := requireStaff(claims); err != nil {
		return nil, err
	}

	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}
	if order == nil {
		return nil, apperrors.NotFound("Order not found")
	}
	if !claims.IsSuperuser && order.BranchID != claims.BranchID {
		return nil, apperrors.NotFound("Order not found or not assigned to your branch")
	}
	return order, nil
}

// ListMine returns the user's orders, optionally filtered by the
// ongoing|delivered|cancelled shorthand or a specific status.
func (s *OrderService) ListMine(ctx context.Context, userID, statusFilter string) ([]models.Order, error) {
	orders, err := s.DB.ListOrdersByUser(ctx, userID, statusesForFilter(statusFilter))
	if err != nil {
		return nil, apperrors.Internal("Failed to list orders", err)
	}
	return orders, nil
}

// ListForBranch returns a branch's orders with the same status filters as
// ListMine. The branch is an explicit parameter; restricted staff may only
// name their own, superusers any. An empty branchID defaults to the actor's
// assignment.
func (s *OrderService) ListForBranch(ctx context.Context, claims *auth.Claims, branchID, statusFilter string) ([]models.Order, error) {
	if err := requireStaff(claims); err != nil {
		return nil, err
	}
	if branchID == "" {
		branchID = claims.BranchID
	}
	if branchID == "" {
		return nil, apperrors.Validation("No branch assigned. Please contact administrator")
	}
	if !claims.IsSuperuser && branchID != claims.BranchID {
		return nil, apperrors.Forbidden("You can only view orders for your assigned branch")
	}

	orders, err := s.DB.ListOrdersByBranch(ctx, branchID, statusesForFilter(statusFilter))
	if err != nil {
		return nil, apperrors.Internal("Failed to list orders", err)
	}
	return orders, nil
}

// SetStatus is the staff-facing status mutation. The transition plan carries
// any refund cascade, and both writes land in one transaction.
func (s *OrderService) SetStatus(ctx context.Context, claims *auth.Claims, orderID string, newStatus models.OrderStatus) (*models.Order, error) {
	if err := requireStaff(claims); err != nil {
		return nil, err
	}
	if !models.IsValidOrderStatus(newStatus) {
		return nil, apperrors.Validation("Invalid status. Valid options: pending, confirmed, preparing, out_for_delivery, delivered, cancelled")
	}
	if err := AuthorizeStaffTarget(newStatus, claims.IsSuperuser); err != nil {
		return nil, err
	}

	order, err := s.GetOrderForStaff(ctx, claims, orderID)
	if err != nil {
		return nil, err
	}

	payment, err := s.Payments.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load payment", err)
	}

	transition, err := PlanTransition(order.Status, newStatus, payment)
	if err != nil {
		return nil, err
	}

	if err := s.DB.ApplyTransition(ctx, orderID, transition.NewStatus, transition.CascadePayment); err != nil {
		return nil, apperrors.Internal("Failed to update order status", err)
	}

	order.Status = transition.NewStatus
	s.Logger.LogOrder("STATUS", orderID, fmt.Sprintf("set to %s by %s", newStatus, claims.UserID))
	if transition.CascadePayment != nil {
		s.Logger.LogPayment("CASCADE", orderID, fmt.Sprintf("payment set to %s on cancellation", *transition.CascadePayment))
	}

	if err := s.Events.PublishOrderStatusChanged(*order); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("order status event publish failed: %v", err))
	}

	return order, nil
}

// Cancel is the single self-service transition customers may perform on
// their own orders.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.GetOrderForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderDelivered {
		return nil, apperrors.Conflict("Cannot cancel a delivered order")
	}
	if order.Status == models.OrderCancelled {
		return nil, apperrors.Conflict("Order is already cancelled")
	}

	payment, err := s.Payments.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load payment", err)
	}

	transition, err := PlanTransition(order.Status, models.OrderCancelled, payment)
	if err != nil {
		return nil, err
	}

	if err := s.DB.ApplyTransition(ctx, orderID, transition.NewStatus, transition.CascadePayment); err != nil {
		return nil, apperrors.Internal("Failed to cancel order", err)
	}

	order.Status = models.OrderCancelled
	s.Logger.LogOrder("CANCEL", orderID, fmt.Sprintf("cancelled by owner %s", userID))

	if err := s.Events.PublishOrderStatusChanged(*order); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("order status event publish failed: %v", err))
	}

	return order, nil
}

func requireStaff(claims *auth.Claims) error {
	if claims == nil || (!claims.IsStaff && !claims.IsSuperuser) {
		return apperrors.Forbidden("Only staff members can access this endpoint")
	}
	return nil
}

// statusesForFilter maps an API status filter to the status set it covers.
// Unknown filters fall through to an exact status match; empty means no
// filter.
func statusesForFilter(filter string) []models.OrderStatus {
	switch filter {
	case "":
		return nil
	case "ongoing":
		return models.OngoingOrderStatuses
	case "delivered":
		return []models.OrderStatus{models.OrderDelivered}
	case "cancelled":
		return []models.OrderStatus{models.OrderCancelled}
	default:
		return []models.OrderStatus{models.OrderStatus(filter)}
	}
}
