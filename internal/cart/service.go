package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"peelojuice/internal/apperrors"
	"peelojuice/internal/coupon"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
	"peelojuice/internal/pricing"
	"peelojuice/internal/utils"
)

type DBLayer interface {
	GetCartByUserID(ctx context.Context, userID string) (*models.Cart, error)
	CreateCart(ctx context.Context, cart *models.Cart) error
	GetItem(ctx context.Context, cartID, juiceID string) (*models.CartItem, error)
	UpsertItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, juiceID string) (bool, error)
	ClearItems(ctx context.Context, cartID string) error
	SetCoupon(ctx context.Context, cartID, couponID string) error
}

type CatalogLayer interface {
	GetActiveJuice(ctx context.Context, juiceID string) (*models.Juice, error)
}

type CouponLayer interface {
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetCouponByID(ctx context.Context, id string) (*models.Coupon, error)
}

// CartService owns the mutable pre-order basket. Every operation is scoped to
// the requesting user's own cart.
type CartService struct {
	DB      DBLayer
	Catalog CatalogLayer
	Coupons CouponLayer
	Logger  *logger.Logger
}

func NewCartService(db DBLayer, catalog CatalogLayer, coupons CouponLayer, log *logger.Logger) *CartService {
	return &CartService{DB: db, Catalog: catalog, Coupons: coupons, Logger: log}
}

// View is the cart plus its live-computed money breakdown. The discount is
// recomputed against the current total on every read; it is only frozen at
// checkout.
type View struct {
	Cart        *models.Cart    `json:"cart"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CouponCode  string          `json:"coupon_code,omitempty"`
	Discount    decimal.Decimal `json:"discount"`
	Quote       pricing.Quote   `json:"quote"`
}

// GetOrCreateCart returns the user's single active cart, creating it lazily
// on first access.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.DB.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	if cart != nil {
		return cart, nil
	}

	cart = &models.Cart{
		ID:        utils.NewID(),
		UserID:    userID,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.DB.CreateCart(ctx, cart); err != nil {
		// Another request may have created the cart concurrently; re-read.
		if existing, readErr := s.DB.GetCartByUserID(ctx, userID); readErr == nil && existing != nil {
			return existing, nil
		}
		return nil, apperrors.Internal("Failed to create cart", err)
	}
	s.Logger.LogCart("CREATE", userID, "cart created lazily on first access")
	return cart, nil
}

// GetView loads the cart and computes the live totals, including the
// recomputed coupon discount and the checkout price preview.
func (s *CartService) GetView(ctx context.Context, userID string) (*View, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := cart.TotalAmount()
	view := &View{
		Cart:        cart,
		TotalAmount: total,
		Discount:    decimal.Zero,
	}

	if cart.AppliedCouponID != "" {
		c, err := s.Coupons.GetCouponByID(ctx, cart.AppliedCouponID)
		if err == nil && c != nil {
			view.CouponCode = c.Code
			view.Discount = coupon.CalculateDiscount(c, total)
		}
	}

	view.Quote = pricing.Calculate(total, view.Discount)
	return view, nil
}

// AddItem puts quantity units of a juice into the cart, locking in the
// current catalog price. Re-adding an existing juice increments its quantity.
func (s *CartService) AddItem(ctx context.Context, userID, juiceID string, quantity int) error {
	if quantity < 1 {
		return apperrors.Validation("Quantity must be at least 1")
	}

	juice, err := s.Catalog.GetActiveJuice(ctx, juiceID)
	if err != nil {
		return apperrors.Internal("Failed to look up juice", err)
	}
	if juice == nil {
		return apperrors.NotFound("Juice not found")
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}

	item := &models.CartItem{
		ID:           utils.NewID(),
		CartID:       cart.ID,
		JuiceID:      juice.ID,
		Quantity:     quantity,
		PriceAtAdded: juice.Price,
	}
	if err := s.DB.UpsertItem(ctx, item); err != nil {
		return apperrors.Internal("Failed to add item to cart", err)
	}

	s.Logger.LogCart("ADD", userID, fmt.Sprintf("%s x%d at %s", juice.Name, quantity, juice.Price))
	return nil
}

// UpdateItem increments or decrements a cart line. Decrementing below 1
// removes the line; that is a signal, not an error.
func (s *CartService) UpdateItem(ctx context.Context, userID, juiceID, action string) (removed bool, quantity int, err error) {
	if action != "increment" && action != "decrement" {
		return false, 0, apperrors.Validation("Invalid action. Provide 'increment' or 'decrement'")
	}

	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return false, 0, err
	}

	item, err := s.DB.GetItem(ctx, cart.ID, juiceID)
	if err != nil {
		return false, 0, apperrors.Internal("Failed to load cart item", err)
	}
	if item == nil {
		return false, 0, apperrors.NotFound("Item not in cart")
	}

	if action == "increment" {
		item.Quantity++
		if err := s.DB.UpdateItem(ctx, item); err != nil {
			return false, 0, apperrors.Internal("Failed to update cart item", err)
		}
		return false, item.Quantity, nil
	}

	if item.Quantity > 1 {
		item.Quantity--
		if err := s.DB.UpdateItem(ctx, item); err != nil {
			return false, 0, apperrors.Internal("Failed to update cart item", err)
		}
		return false, item.Quantity, nil
	}

	if _, err := s.DB.DeleteItem(ctx, cart.ID, juiceID); err != nil {
		return false, 0, apperrors.Internal("Failed to remove cart item", err)
	}
	s.Logger.LogCart("REMOVE", userID, "item removed by decrement below 1")
	return true, 0, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, juiceID string) error {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return err
	}

	deleted, err := s.DB.DeleteItem(ctx, cart.ID, juiceID)
	if err != nil {
		return apperrors.Internal("Failed to remove cart item", err)
	}
	if !deleted {
		return apperrors.NotFound("Item not found in cart")
	}
	return nil
}

// SetItemInstructions attaches free-text cooking instructions to a cart line,
// silently truncated to the 200-character limit.
func (s *CartService) SetItemInstructions(ctx context.Context, userID, juiceID, instructions string) (string, error) {
	cart, err := s.requireCart(ctx, userID)
	if err != nil {
		return "", err
	}

	item, err := s.DB.GetItem(ctx, cart.ID, juiceID)
	if err != nil {
		return "", apperrors.Internal("Failed to load cart item", err)
	}
	if item == nil {
		return "", apperrors.NotFound("Item not in cart")
	}

	// Truncate on runes so a multibyte character at the boundary is dropped
	// whole instead of leaving a broken byte sequence.
	if runes := []rune(instructions); len(runes) > models.MaxInstructionsLength {
		instructions = string(runes[:models.MaxInstructionsLength])
	}

	item.CookingInstructions = instructions
	if err := s.DB.UpdateItem(ctx, item); err != nil {
		return "", apperrors.Internal("Failed to update instructions", err)
	}
	return instructions, nil
}

// ApplyCoupon validates the code against the current cart total and stores
// the coupon reference. The discount stays live until checkout freezes it.
func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (decimal.Decimal, error) {
	if code == "" {
		return decimal.Zero, apperrors.Validation("Coupon code is required")
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	c, err := s.Coupons.GetCouponByCode(ctx, code)
	if err != nil {
		return decimal.Zero, apperrors.Internal("Failed to look up coupon", err)
	}
	if c == nil {
		return decimal.Zero, apperrors.NotFound("Invalid coupon code")
	}

	valid, reason := coupon.IsValid(c, time.Now())
	if !valid {
		return decimal.Zero, apperrors.Conflict(reason)
	}

	total := cart.TotalAmount()
	if total.LessThan(c.MinOrderValue) {
		return decimal.Zero, apperrors.Conflict(
			fmt.Sprintf("Minimum order value of %s required", c.MinOrderValue))
	}

	if err := s.DB.SetCoupon(ctx, cart.ID, c.ID); err != nil {
		return decimal.Zero, apperrors.Internal("Failed to apply coupon", err)
	}

	discount := coupon.CalculateDiscount(c, total)
	s.Logger.LogCart("COUPON", userID, fmt.Sprintf("applied %s, discount %s", c.Code, discount))
	return discount, nil
}

func (s *CartService) RemoveCoupon(ctx context.Context, userID string) error {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	if cart.AppliedCouponID == "" {
		return apperrors.Conflict("No coupon applied")
	}
	if err := s.DB.SetCoupon(ctx, cart.ID, ""); err != nil {
		return apperrors.Internal("Failed to remove coupon", err)
	}
	return nil
}

// requireCart loads the user's existing cart; unlike GetOrCreateCart it does
// not create one, because mutating a line in a cart that never existed is a
// not-found condition.
func (s *CartService) requireCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.DB.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	if cart == nil {
		return nil, apperrors.NotFound("Cart not found")
	}
	return cart, nil
}
