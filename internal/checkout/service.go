package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"peelojuice/internal/apperrors"
	checkoutdb "peelojuice/internal/checkout/db"
	"peelojuice/internal/coupon"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
	"peelojuice/internal/pricing"
	"peelojuice/internal/utils"
)

type DBLayer interface {
	FinalizeCheckout(ctx context.Context, order *models.Order, items []models.OrderItem, payment *models.Payment, couponID, clearCartID string) error
}

type CartLayer interface {
	GetCartByUserID(ctx context.Context, userID string) (*models.Cart, error)
}

type CatalogLayer interface {
	GetActiveBranch(ctx context.Context, branchID string) (*models.Branch, error)
}

type CouponLayer interface {
	GetCouponByID(ctx context.Context, id string) (*models.Coupon, error)
}

type AddressLayer interface {
	GetAddressForUser(ctx context.Context, userID, addressID string) (*models.Address, error)
}

type Locker interface {
	LockCheckout(ctx context.Context, userID, token string) (bool, error)
	UnlockCheckout(ctx context.Context, userID, token string) error
}

type EventPublisher interface {
	PublishOrderCreated(order models.Order) error
}

type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	AlertBranchStaff(ctx context.Context, order *models.Order)
}

// CheckoutService turns a cart into an order, a payment record, and a
// sequential order number in one atomic step.
type CheckoutService struct {
	DB        DBLayer
	Carts     CartLayer
	Catalog   CatalogLayer
	Coupons   CouponLayer
	Addresses AddressLayer
	Lock      Locker
	Events    EventPublisher
	Notify    Notifier
	Logger    *logger.Logger
}

func NewCheckoutService(db DBLayer, carts CartLayer, catalog CatalogLayer, coupons CouponLayer, addresses AddressLayer, lock Locker, events EventPublisher, notify Notifier, log *logger.Logger) *CheckoutService {
	return &CheckoutService{
		DB:        db,
		Carts:     carts,
		Catalog:   catalog,
		Coupons:   coupons,
		Addresses: addresses,
		Lock:      lock,
		Events:    events,
		Notify:    notify,
		Logger:    log,
	}
}

type Request struct {
	BranchID      string               `json:"branch_id"`
	AddressID     string               `json:"address_id"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

type Result struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment"`
}

// Checkout validates the cart against live data, prices it, and finalizes
// the order. Cash orders clear the cart immediately; online orders keep the
// cart until the gateway confirms payment.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, req Request) (*Result, error) {
	if req.PaymentMethod != models.MethodCOD && req.PaymentMethod != models.MethodOnline {
		return nil, apperrors.Validation("Invalid payment method. Valid options: cod, online")
	}
	if req.BranchID == "" {
		return nil, apperrors.Validation("Branch is required")
	}

	// One checkout per user at a time. A doubled submit either waits for
	// the TTL or sees its order already placed.
	token := utils.NewID()
	locked, err := s.Lock.LockCheckout(ctx, userID, token)
	if err != nil {
		return nil, apperrors.Internal("Failed to start checkout", err)
	}
	if !locked {
		return nil, apperrors.Conflict("A checkout is already in progress")
	}
	defer func() {
		if err := s.Lock.UnlockCheckout(ctx, userID, token); err != nil {
			s.Logger.Warn("CHECKOUT", fmt.Sprintf("unlock failed for %s: %v", userID, err))
		}
	}()

	branch, err := s.Catalog.GetActiveBranch(ctx, req.BranchID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load branch", err)
	}
	if branch == nil {
		return nil, apperrors.Validation("Selected branch is not available")
	}

	if req.AddressID != "" {
		address, err := s.Addresses.GetAddressForUser(ctx, userID, req.AddressID)
		if err != nil {
			return nil, apperrors.Internal("Failed to load address", err)
		}
		if address == nil {
			return nil, apperrors.Validation("Address not found")
		}
	}

	cart, err := s.Carts.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperrors.Validation("Your cart is empty")
	}

	subtotal := cart.TotalAmount()
	discount, couponID := s.resolveDiscount(ctx, cart, subtotal)
	quote := pricing.Calculate(subtotal, discount)

	now := time.Now()
	order := &models.Order{
		ID:              utils.NewID(),
		UserID:          userID,
		BranchID:        req.BranchID,
		AddressID:       req.AddressID,
		FoodSubtotal:    quote.FoodSubtotal,
		FoodGST:         quote.FoodGST,
		DeliveryFeeBase: quote.DeliveryFeeBase,
		DeliveryGST:     quote.DeliveryGST,
		PlatformFee:     quote.PlatformFee,
		Discount:        quote.Discount,
		TotalAmount:     quote.TotalAmount,
		Status:          models.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		name := ""
		if ci.Juice != nil {
			name = ci.Juice.Name
		}
		items = append(items, models.OrderItem{
			ID:                  utils.NewID(),
			OrderID:             order.ID,
			JuiceID:             ci.JuiceID,
			JuiceName:           name,
			Quantity:            ci.Quantity,
			PricePerItem:        ci.PriceAtAdded,
			CookingInstructions: ci.CookingInstructions,
		})
	}

	payment := &models.Payment{
		ID:        utils.NewID(),
		OrderID:   order.ID,
		Method:    req.PaymentMethod,
		Status:    models.PaymentPending,
		Amount:    quote.TotalAmount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Online orders keep the cart so a failed or abandoned payment leaves
	// the user where they started.
	clearCartID := ""
	if req.PaymentMethod == models.MethodCOD {
		clearCartID = cart.ID
	}

	if err := s.DB.FinalizeCheckout(ctx, order, items, payment, couponID, clearCartID); err != nil {
		if errors.Is(err, checkoutdb.ErrCouponExhausted) {
			return nil, apperrors.Conflict("Coupon usage limit reached")
		}
		return nil, apperrors.Internal("Failed to place order", err)
	}
	order.Items = items

	s.Logger.LogOrder("PLACED", order.ID, fmt.Sprintf("number %d, %s, total %s", order.OrderNumber, payment.Method, order.TotalAmount))

	if err := s.Events.PublishOrderCreated(*order); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("order created event publish failed: %v", err))
	}
	if s.Notify != nil {
		s.Notify.OrderPlaced(ctx, order)
		// Gateway-paid orders alert staff after the payment verifies.
		if req.PaymentMethod == models.MethodCOD {
			s.Notify.AlertBranchStaff(ctx, order)
		}
	}

	return &Result{Order: order, Payment: payment}, nil
}

// resolveDiscount re-validates the cart's coupon at checkout time. A coupon
// that turned invalid since it was applied silently contributes zero rather
// than blocking the purchase.
func (s *CheckoutService) resolveDiscount(ctx context.Context, cart *models.Cart, subtotal decimal.Decimal) (decimal.Decimal, string) {
	if cart.AppliedCouponID == "" {
		return decimal.Zero, ""
	}

	c, err := s.Coupons.GetCouponByID(ctx, cart.AppliedCouponID)
	if err != nil || c == nil {
		s.Logger.Warn("CHECKOUT", fmt.Sprintf("coupon %s unavailable at checkout, skipping", cart.AppliedCouponID))
		return decimal.Zero, ""
	}
	if ok, reason := coupon.IsValid(c, time.Now()); !ok {
		s.Logger.Warn("CHECKOUT", fmt.Sprintf("coupon %s invalid at checkout (%s), skipping", c.Code, reason))
		return decimal.Zero, ""
	}
	if subtotal.LessThan(c.MinOrderValue) {
		s.Logger.Warn("CHECKOUT", fmt.Sprintf("coupon %s below minimum at checkout, skipping", c.Code))
		return decimal.Zero, ""
	}

	return coupon.CalculateDiscount(c, subtotal), c.ID
}
