package cart_test

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"peelojuice/internal/apperrors"
	"peelojuice/internal/cart"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
)

// Mock implementations

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetCartByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockDBLayer) CreateCart(ctx context.Context, c *models.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockDBLayer) GetItem(ctx context.Context, cartID, juiceID string) (*models.CartItem, error) {
	args := m.Called(ctx, cartID, juiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CartItem), args.Error(1)
}

func (m *MockDBLayer) UpsertItem(ctx context.Context, item *models.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateItem(ctx context.Context, item *models.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteItem(ctx context.Context, cartID, juiceID string) (bool, error) {
	args := m.Called(ctx, cartID, juiceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) ClearItems(ctx context.Context, cartID string) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

func (m *MockDBLayer) SetCoupon(ctx context.Context, cartID, couponID string) error {
	args := m.Called(ctx, cartID, couponID)
	return args.Error(0)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetActiveJuice(ctx context.Context, juiceID string) (*models.Juice, error) {
	args := m.Called(ctx, juiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Juice), args.Error(1)
}

type MockCoupons struct {
	mock.Mock
}

func (m *MockCoupons) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCoupons) GetCouponByID(ctx context.Context, id string) (*models.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(db *MockDBLayer, catalog *MockCatalog, coupons *MockCoupons) *cart.CartService {
	return cart.NewCartService(db, catalog, coupons, logger.NewLogger())
}

func testCart(items ...models.CartItem) *models.Cart {
	return &models.Cart{
		ID:       "cart-1",
		UserID:   "user-1",
		IsActive: true,
		Items:    items,
	}
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	svc := newService(new(MockDBLayer), new(MockCatalog), new(MockCoupons))

	err := svc.AddItem(context.Background(), "user-1", "juice-1", 0)

	assert.Error(t, err)
	assert.Equal(t, 400, apperrors.StatusOf(err))
	assert.Contains(t, err.Error(), "Quantity must be at least 1")
}

func TestAddItemUnknownJuice(t *testing.T) {
	db := new(MockDBLayer)
	catalog := new(MockCatalog)
	catalog.On("GetActiveJuice", mock.Anything, "missing").Return(nil, nil)

	svc := newService(db, catalog, new(MockCoupons))
	err := svc.AddItem(context.Background(), "user-1", "missing", 1)

	assert.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusOf(err))
}

func TestAddItemSnapshotsPrice(t *testing.T) {
	db := new(MockDBLayer)
	catalog := new(MockCatalog)

	juice := &models.Juice{ID: "juice-1", Name: "Orange Crush", Price: dec("55.00"), IsActive: true}
	catalog.On("GetActiveJuice", mock.Anything, "juice-1").Return(juice, nil)
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(testCart(), nil)
	db.On("UpsertItem", mock.Anything, mock.MatchedBy(func(item *models.CartItem) bool {
		return item.JuiceID == "juice-1" &&
			item.Quantity == 2 &&
			item.PriceAtAdded.Equal(dec("55.00"))
	})).Return(nil)

	svc := newService(db, catalog, new(MockCoupons))
	err := svc.AddItem(context.Background(), "user-1", "juice-1", 2)

	assert.NoError(t, err)
	db.AssertExpectations(t)
}

func TestGetOrCreateCartIsLazy(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(nil, nil)
	db.On("CreateCart", mock.Anything, mock.MatchedBy(func(c *models.Cart) bool {
		return c.UserID == "user-1" && c.IsActive
	})).Return(nil)

	svc := newService(db, new(MockCatalog), new(MockCoupons))
	c, err := svc.GetOrCreateCart(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.NotNil(t, c)
	db.AssertExpectations(t)
}

func TestUpdateItemDecrementRemovesAtOne(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(testCart(), nil)
	db.On("GetItem", mock.Anything, "cart-1", "juice-1").Return(&models.CartItem{
		ID: "item-1", CartID: "cart-1", JuiceID: "juice-1", Quantity: 1,
	}, nil)
	db.On("DeleteItem", mock.Anything, "cart-1", "juice-1").Return(true, nil)

	svc := newService(db, new(MockCatalog), new(MockCoupons))
	removed, _, err := svc.UpdateItem(context.Background(), "user-1", "juice-1", "decrement")

	assert.NoError(t, err)
	assert.True(t, removed)
	db.AssertExpectations(t)
}

func TestUpdateItemIncrement(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(testCart(), nil)
	db.On("GetItem", mock.Anything, "cart-1", "juice-1").Return(&models.CartItem{
		ID: "item-1", CartID: "cart-1", JuiceID: "juice-1", Quantity: 2,
	}, nil)
	db.On("UpdateItem", mock.Anything, mock.MatchedBy(func(item *models.CartItem) bool {
		return item.Quantity == 3
	})).Return(nil)

	svc := newService(db, new(MockCatalog), new(MockCoupons))
	removed, quantity, err := svc.UpdateItem(context.Background(), "user-1", "juice-1", "increment")

	assert.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 3, quantity)
}

func TestRemoveItemNotFound(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(testCart(), nil)
	db.On("DeleteItem", mock.Anything, "cart-1", "juice-9").Return(false, nil)

	svc := newService(db, new(MockCatalog), new(MockCoupons))
	err := svc.RemoveItem(context.Background(), "user-1", "juice-9")

	assert.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusOf(err))
}

func TestSetItemInstructionsTruncates(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(testCart(), nil)
	db.On("GetItem", mock.Anything, "cart-1", "juice-1").Return(&models.CartItem{
		ID: "item-1", CartID: "cart-1", JuiceID: "juice-1", Quantity: 1,
	}, nil)
	db.On("UpdateItem", mock.Anything, mock.Anything).Return(nil)

	long := strings.Repeat("x", 300)

	svc := newService(db, new(MockCatalog), new(MockCoupons))
	stored, err := svc.SetItemInstructions(context.Background(), "user-1", "juice-1", long)

	assert.NoError(t, err)
	assert.Len(t, []rune(stored), models.MaxInstructionsLength)
}

func TestSetItemInstructionsTruncatesOnRunes(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(testCart(), nil)
	db.On("GetItem", mock.Anything, "cart-1", "juice-1").Return(&models.CartItem{
		ID: "item-1", CartID: "cart-1", JuiceID: "juice-1", Quantity: 1,
	}, nil)
	db.On("UpdateItem", mock.Anything, mock.Anything).Return(nil)

	svc := newService(db, new(MockCatalog), new(MockCoupons))

	// Exactly at the limit: multibyte input must survive untouched even
	// though its byte length exceeds the cap.
	exact := strings.Repeat("x", models.MaxInstructionsLength-1) + "₹"
	stored, err := svc.SetItemInstructions(context.Background(), "user-1", "juice-1", exact)
	assert.NoError(t, err)
	assert.Equal(t, exact, stored)
	assert.True(t, utf8.ValidString(stored))

	// Over the limit: the boundary rune is dropped whole, never split.
	over := strings.Repeat("₹", models.MaxInstructionsLength+5)
	stored, err = svc.SetItemInstructions(context.Background(), "user-1", "juice-1", over)
	assert.NoError(t, err)
	assert.Len(t, []rune(stored), models.MaxInstructionsLength)
	assert.True(t, utf8.ValidString(stored))
}

func TestApplyCouponBelowMinimum(t *testing.T) {
	db := new(MockDBLayer)
	coupons := new(MockCoupons)

	c := testCart(models.CartItem{Quantity: 1, PriceAtAdded: dec("40.00")})
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(c, nil)
	coupons.On("GetCouponByCode", mock.Anything, "SAVE10").Return(&models.Coupon{
		ID:            "coupon-1",
		Code:          "SAVE10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: dec("10"),
		MinOrderValue: dec("50.00"),
		ValidFrom:     time.Now().Add(-time.Hour),
		IsActive:      true,
	}, nil)

	svc := newService(db, new(MockCatalog), coupons)
	_, err := svc.ApplyCoupon(context.Background(), "user-1", "SAVE10")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Minimum order value")
}

func TestApplyCouponSuccess(t *testing.T) {
	db := new(MockDBLayer)
	coupons := new(MockCoupons)

	c := testCart(models.CartItem{Quantity: 2, PriceAtAdded: dec("50.00")})
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(c, nil)
	db.On("SetCoupon", mock.Anything, "cart-1", "coupon-1").Return(nil)
	coupons.On("GetCouponByCode", mock.Anything, "SAVE10").Return(&models.Coupon{
		ID:            "coupon-1",
		Code:          "SAVE10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: dec("10"),
		MinOrderValue: dec("50.00"),
		ValidFrom:     time.Now().Add(-time.Hour),
		IsActive:      true,
	}, nil)

	svc := newService(db, new(MockCatalog), coupons)
	discount, err := svc.ApplyCoupon(context.Background(), "user-1", "SAVE10")

	assert.NoError(t, err)
	assert.True(t, discount.Equal(dec("10")), "discount was %s", discount)
	db.AssertExpectations(t)
}

func TestRemoveCouponWhenNoneApplied(t *testing.T) {
	db := new(MockDBLayer)
	db.On("GetCartByUserID", mock.Anything, "user-1").Return(testCart(), nil)

	svc := newService(db, new(MockCatalog), new(MockCoupons))
	err := svc.RemoveCoupon(context.Background(), "user-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "No coupon applied")
}

func TestCartTotalAmount(t *testing.T) {
	c := testCart(
		models.CartItem{Quantity: 2, PriceAtAdded: dec("50.00")},
		models.CartItem{Quantity: 1, PriceAtAdded: dec("35.50")},
	)
	assert.True(t, c.TotalAmount().Equal(dec("135.50")))

	empty := testCart()
	assert.True(t, empty.TotalAmount().Equal(decimal.Zero))
}
