package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"peelojuice/internal/apperrors"
	"peelojuice/internal/auth"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
	"peelojuice/internal/utils"
)

type DBLayer interface {
	GetPaymentByID(ctx context.Context, id string) (*models.Payment, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	GetPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	SetGatewayOrderID(ctx context.Context, paymentID, gatewayOrderID string) error
	MarkFailed(ctx context.Context, paymentID string) error
	CompletePayment(ctx context.Context, paymentID, transactionID string, toOnline bool, confirmOrderID, clearCartUserID string) error
}

type OrderLayer interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (string, error)
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

type EventPublisher interface {
	PublishPaymentCompleted(payment models.Payment) error
}

type Notifier interface {
	AlertBranchStaff(ctx context.Context, order *models.Order)
}

// PaymentService owns every payment state change: cash confirmation,
// gateway order creation, client-side verification, and webhook
// reconciliation.
type PaymentService struct {
	DB      DBLayer
	Orders  OrderLayer
	Gateway Gateway
	Events  EventPublisher
	Notify  Notifier
	Logger  *logger.Logger
}

func NewPaymentService(db DBLayer, orders OrderLayer, gw Gateway, events EventPublisher, notify Notifier, log *logger.Logger) *PaymentService {
	return &PaymentService{DB: db, Orders: orders, Gateway: gw, Events: events, Notify: notify, Logger: log}
}

// GetForOrder returns the payment of the caller's own order. Staff can also
// read payments of their branch's orders, superusers any.
func (s *PaymentService) GetForOrder(ctx context.Context, claims *auth.Claims, orderID string) (*models.Payment, error) {
	if claims == nil {
		return nil, apperrors.NotFound("Order not found")
	}
	order, err := s.Orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}
	if order == nil || !canReadOrder(claims, order) {
		return nil, apperrors.NotFound("Order not found")
	}

	payment, err := s.DB.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load payment", err)
	}
	if payment == nil {
		return nil, apperrors.NotFound("Payment not found")
	}
	return payment, nil
}

// canReadOrder mirrors the staff order endpoints: owners always, branch
// staff for their branch, superusers everywhere.
func canReadOrder(claims *auth.Claims, order *models.Order) bool {
	if order.UserID == claims.UserID || claims.IsSuperuser {
		return true
	}
	return claims.IsStaff && order.BranchID == claims.BranchID
}

// ConfirmCOD is the staff acknowledgement that cash changed hands. Only
// pending cash payments qualify, and only before the order is delivered
// since delivery itself is gated on a completed payment.
func (s *PaymentService) ConfirmCOD(ctx context.Context, claims *auth.Claims, paymentID string) (*models.Payment, error) {
	if claims == nil || (!claims.IsStaff && !claims.IsSuperuser) {
		return nil, apperrors.Forbidden("Only staff members can access this endpoint")
	}

	payment, err := s.DB.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load payment", err)
	}
	if payment == nil {
		return nil, apperrors.NotFound("Payment not found")
	}

	order, err := s.Orders.GetOrderByID(ctx, payment.OrderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}
	if order == nil {
		return nil, apperrors.NotFound("Order not found")
	}
	if !claims.IsSuperuser && order.BranchID != claims.BranchID {
		return nil, apperrors.NotFound("Order not found or not assigned to your branch")
	}

	if err := guardMutable(order, payment); err != nil {
		return nil, err
	}
	if payment.Method != models.MethodCOD {
		return nil, apperrors.Validation("Only cash payments can be confirmed manually")
	}

	transactionID := utils.GenerateTransactionID()
	if err := s.DB.CompletePayment(ctx, payment.ID, transactionID, false, "", ""); err != nil {
		return nil, apperrors.Internal("Failed to confirm payment", err)
	}

	now := time.Now()
	payment.Status = models.PaymentCompleted
	payment.TransactionID = transactionID
	payment.PaidAt = &now

	s.Logger.LogPayment("COD_CONFIRMED", payment.ID, fmt.Sprintf("order %s by staff %s", payment.OrderID, claims.UserID))
	s.publishCompleted(*payment)

	return payment, nil
}

type GatewayOrder struct {
	GatewayOrderID string          `json:"gateway_order_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}

// CreateGatewayOrder registers the order with the gateway so the client SDK
// can collect the payment. Repeat calls return the already registered id,
// which makes the retry after a dropped response safe.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, userID, orderID string) (*GatewayOrder, error) {
	order, err := s.Orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}
	if order == nil || order.UserID != userID {
		return nil, apperrors.NotFound("Order not found")
	}
	if order.Status == models.OrderCancelled {
		return nil, apperrors.Conflict("Cannot pay for a cancelled order")
	}

	payment, err := s.DB.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load payment", err)
	}
	if payment == nil {
		return nil, apperrors.NotFound("Payment not found")
	}
	if err := guardMutable(order, payment); err != nil {
		return nil, err
	}

	if payment.GatewayOrderID != "" {
		return &GatewayOrder{GatewayOrderID: payment.GatewayOrderID, Amount: payment.Amount, Currency: "INR"}, nil
	}

	gatewayOrderID, err := s.Gateway.CreateOrder(ctx, payment.Amount, utils.GenerateReceiptID(order.OrderNumber))
	if err != nil {
		return nil, apperrors.Internal("Failed to create payment order", err)
	}
	if err := s.DB.SetGatewayOrderID(ctx, payment.ID, gatewayOrderID); err != nil {
		return nil, apperrors.Internal("Failed to save payment order", err)
	}

	s.Logger.LogPayment("GATEWAY_ORDER", payment.ID, fmt.Sprintf("gateway order %s for order %s", gatewayOrderID, orderID))
	return &GatewayOrder{GatewayOrderID: gatewayOrderID, Amount: payment.Amount, Currency: "INR"}, nil
}

type VerifyRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// VerifyGatewayPayment settles a payment the client SDK reports as done.
// A cash order paid this way converts to online. Re-verifying a settled
// payment is a no-op success.
func (s *PaymentService) VerifyGatewayPayment(ctx context.Context, userID string, req VerifyRequest) (*models.Payment, error) {
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, apperrors.Validation("Missing required payment parameters")
	}

	payment, err := s.DB.GetPaymentByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load payment", err)
	}
	if payment == nil {
		return nil, apperrors.NotFound("Payment not found")
	}

	order, err := s.Orders.GetOrderByID(ctx, payment.OrderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}
	if order == nil || order.UserID != userID {
		return nil, apperrors.NotFound("Payment not found")
	}

	if payment.Status == models.PaymentCompleted {
		return payment, nil
	}
	if order.Status == models.OrderDelivered {
		return nil, apperrors.Conflict("Cannot modify payment of a delivered order")
	}
	if order.Status == models.OrderCancelled {
		return nil, apperrors.Conflict("Cannot pay for a cancelled order")
	}

	if !s.Gateway.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		if err := s.DB.MarkFailed(ctx, payment.ID); err != nil {
			s.Logger.Error("PAYMENT", fmt.Sprintf("mark failed errored for %s: %v", payment.ID, err))
		}
		s.Logger.LogPayment("VERIFY_FAILED", payment.ID, "signature mismatch")
		return nil, apperrors.Validation("Payment verification failed")
	}

	return s.settle(ctx, payment, order, req.GatewayPaymentID, true)
}

// webhookEvent mirrors the gateway's envelope for the events we consume.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook reconciles gateway-side captures that the client never
// reported, typically after a dropped connection during verification.
// Unknown events and unknown gateway orders are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.Gateway.VerifyWebhookSignature(body, signature) {
		return apperrors.Validation("Invalid webhook signature")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperrors.Validation("Invalid webhook payload")
	}
	if event.Event != "payment.captured" {
		s.Logger.Info("PAYMENT", fmt.Sprintf("ignoring webhook event %q", event.Event))
		return nil
	}

	payment, err := s.DB.GetPaymentByGatewayOrderID(ctx, event.Payload.Payment.Entity.OrderID)
	if err != nil {
		return apperrors.Internal("Failed to load payment", err)
	}
	if payment == nil {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("webhook for unknown gateway order %s", event.Payload.Payment.Entity.OrderID))
		return nil
	}
	if payment.Status == models.PaymentCompleted {
		return nil
	}

	order, err := s.Orders.GetOrderByID(ctx, payment.OrderID)
	if err != nil {
		return apperrors.Internal("Failed to load order", err)
	}
	if order == nil {
		return apperrors.Internal("Order missing for payment", nil)
	}
	if order.Status == models.OrderDelivered || order.Status == models.OrderCancelled {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("webhook capture for terminal order %s ignored", order.ID))
		return nil
	}

	_, err = s.settle(ctx, payment, order, event.Payload.Payment.Entity.ID, false)
	return err
}

// settle performs the shared completed-update. Staff get alerted only when
// a brand-new online payment lands on a still pending order, which is the
// online twin of the cash-checkout staff push. The buyer already got the
// confirmation email at checkout.
func (s *PaymentService) settle(ctx context.Context, payment *models.Payment, order *models.Order, gatewayPaymentID string, notify bool) (*models.Payment, error) {
	wasOnline := payment.Method == models.MethodOnline
	wasPending := order.Status == models.OrderPending

	confirmOrderID := ""
	if wasPending {
		confirmOrderID = order.ID
	}
	// Cash checkouts cleared the cart at order time; clearing here would
	// wipe whatever the buyer added since.
	clearCartUserID := ""
	if wasOnline {
		clearCartUserID = order.UserID
	}

	if err := s.DB.CompletePayment(ctx, payment.ID, gatewayPaymentID, !wasOnline, confirmOrderID, clearCartUserID); err != nil {
		return nil, apperrors.Internal("Failed to complete payment", err)
	}

	now := time.Now()
	payment.Status = models.PaymentCompleted
	payment.TransactionID = gatewayPaymentID
	payment.PaidAt = &now
	payment.Method = models.MethodOnline
	if wasPending {
		order.Status = models.OrderConfirmed
	}

	s.Logger.LogPayment("COMPLETED", payment.ID, fmt.Sprintf("order %s via gateway payment %s", order.ID, gatewayPaymentID))
	s.publishCompleted(*payment)

	if notify && wasOnline && wasPending && s.Notify != nil {
		s.Notify.AlertBranchStaff(ctx, order)
	}

	return payment, nil
}

func (s *PaymentService) publishCompleted(payment models.Payment) {
	if err := s.Events.PublishPaymentCompleted(payment); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("payment completed event publish failed: %v", err))
	}
}

// guardMutable rejects payment changes that the order state forbids.
func guardMutable(order *models.Order, payment *models.Payment) error {
	if order.Status == models.OrderDelivered {
		return apperrors.Conflict("Cannot modify payment of a delivered order")
	}
	switch payment.Status {
	case models.PaymentCompleted:
		return apperrors.Conflict("Payment is already completed")
	case models.PaymentRefunded:
		return apperrors.Conflict("Payment has been refunded")
	}
	return nil
}
