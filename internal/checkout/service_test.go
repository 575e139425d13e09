package checkout_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"peelojuice/internal/apperrors"
	"peelojuice/internal/checkout"
	checkoutdb "peelojuice/internal/checkout/db"
	"peelojuice/internal/logger"
	"peelojuice/internal/models"
)

// Mock implementations

type MockCheckoutDB struct {
	mock.Mock
}

func (m *MockCheckoutDB) FinalizeCheckout(ctx context.Context, order *models.Order, items []models.OrderItem, payment *models.Payment, couponID, clearCartID string) error {
	args := m.Called(ctx, order, items, payment, couponID, clearCartID)
	order.OrderNumber = 1042
	return args.Error(0)
}

type MockCarts struct {
	mock.Mock
}

func (m *MockCarts) GetCartByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetActiveBranch(ctx context.Context, branchID string) (*models.Branch, error) {
	args := m.Called(ctx, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Branch), args.Error(1)
}

type MockCoupons struct {
	mock.Mock
}

func (m *MockCoupons) GetCouponByID(ctx context.Context, id string) (*models.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

type MockAddresses struct {
	mock.Mock
}

func (m *MockAddresses) GetAddressForUser(ctx context.Context, userID, addressID string) (*models.Address, error) {
	args := m.Called(ctx, userID, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) LockCheckout(ctx context.Context, userID, token string) (bool, error) {
	args := m.Called(ctx, userID, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) UnlockCheckout(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishOrderCreated(o models.Order) error {
	args := m.Called(o)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderPlaced(ctx context.Context, order *models.Order) {
	m.Called(ctx, order)
}

func (m *MockNotifier) AlertBranchStaff(ctx context.Context, order *models.Order) {
	m.Called(ctx, order)
}

type fixture struct {
	db        *MockCheckoutDB
	carts     *MockCarts
	catalog   *MockCatalog
	coupons   *MockCoupons
	addresses *MockAddresses
	lock      *MockLocker
	events    *MockEvents
	notify    *MockNotifier
	svc       *checkout.CheckoutService
}

func newFixture() *fixture {
	f := &fixture{
		db:        new(MockCheckoutDB),
		carts:     new(MockCarts),
		catalog:   new(MockCatalog),
		coupons:   new(MockCoupons),
		addresses: new(MockAddresses),
		lock:      new(MockLocker),
		events:    new(MockEvents),
		notify:    new(MockNotifier),
	}
	f.svc = checkout.NewCheckoutService(f.db, f.carts, f.catalog, f.coupons, f.addresses, f.lock, f.events, f.notify, logger.NewLogger())
	return f
}

func (f *fixture) allowLock() {
	f.lock.On("LockCheckout", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.lock.On("UnlockCheckout", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func (f *fixture) allowNotify() {
	f.notify.On("OrderPlaced", mock.Anything, mock.Anything).Return()
	f.notify.On("AlertBranchStaff", mock.Anything, mock.Anything).Return()
}

func activeBranch() *models.Branch {
	return &models.Branch{ID: "branch-1", Name: "Koramangala", IsActive: true}
}

func cartWith(items ...models.CartItem) *models.Cart {
	return &models.Cart{ID: "cart-1", UserID: "user-1", IsActive: true, Items: items}
}

func lineItem(juiceID string, price string, qty int) models.CartItem {
	return models.CartItem{
		ID:           "item-" + juiceID,
		CartID:       "cart-1",
		JuiceID:      juiceID,
		Quantity:     qty,
		PriceAtAdded: decimal.RequireFromString(price),
		Juice:        &models.Juice{ID: juiceID, Name: "Juice " + juiceID},
	}
}

func codRequest() checkout.Request {
	return checkout.Request{BranchID: "branch-1", PaymentMethod: models.MethodCOD}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Checkout(context.Background(), "user-1", checkout.Request{
		BranchID: "branch-1", PaymentMethod: "upi",
	})

	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
	f.lock.AssertNotCalled(t, "LockCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutRejectsConcurrentAttempt(t *testing.T) {
	f := newFixture()
	f.lock.On("LockCheckout", mock.Anything, "user-1", mock.Anything).Return(false, nil)

	_, err := f.svc.Checkout(context.Background(), "user-1", codRequest())

	assert.Error(t, err)
	assert.Equal(t, "A checkout is already in progress", apperrors.PublicMessage(err))
}

func TestCheckoutRejectsInactiveBranch(t *testing.T) {
	f := newFixture()
	f.allowLock()
	f.catalog.On("GetActiveBranch", mock.Anything, "branch-1").Return(nil, nil)

	_, err := f.svc.Checkout(context.Background(), "user-1", codRequest())

	assert.Error(t, err)
	assert.Equal(t, "Selected branch is not available", apperrors.PublicMessage(err))
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	f := newFixture()
	f.allowLock()
	f.catalog.On("GetActiveBranch", mock.Anything, "branch-1").Return(activeBranch(), nil)
	f.carts.On("GetCartByUserID", mock.Anything, "user-1").Return(cartWith(), nil)

	_, err := f.svc.Checkout(context.Background(), "user-1", codRequest())

	assert.Error(t, err)
	assert.Equal(t, "Your cart is empty", apperrors.PublicMessage(err))
}

func TestCheckoutCODClearsCartAndPricesOrder(t *testing.T) {
	f := newFixture()
	f.allowLock()
	f.catalog.On("GetActiveBranch", mock.Anything, "branch-1").Return(activeBranch(), nil)
	f.carts.On("GetCartByUserID", mock.Anything, "user-1").
		Return(cartWith(lineItem("j1", "60.00", 1), lineItem("j2", "20.00", 2)), nil)
	f.db.On("FinalizeCheckout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "", "cart-1").Return(nil)
	f.events.On("PublishOrderCreated", mock.Anything).Return(nil)
	f.allowNotify()

	result, err := f.svc.Checkout(context.Background(), "user-1", codRequest())

	assert.NoError(t, err)
	// Subtotal 100: free delivery, 5% food GST, 10 platform fee.
	assert.True(t, result.Order.FoodSubtotal.Equal(decimal.RequireFromString("100")))
	assert.True(t, result.Order.FoodGST.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, result.Order.DeliveryFeeBase.Equal(decimal.Zero))
	assert.True(t, result.Order.TotalAmount.Equal(decimal.RequireFromString("115.00")))
	assert.Equal(t, int64(1042), result.Order.OrderNumber)
	assert.Equal(t, models.OrderPending, result.Order.Status)
	assert.Equal(t, models.MethodCOD, result.Payment.Method)
	assert.Equal(t, models.PaymentPending, result.Payment.Status)
	assert.Len(t, result.Order.Items, 2)
	assert.Equal(t, "Juice j1", result.Order.Items[0].JuiceName)
	f.db.AssertExpectations(t)
	f.notify.AssertCalled(t, "OrderPlaced", mock.Anything, mock.Anything)
	f.notify.AssertCalled(t, "AlertBranchStaff", mock.Anything, mock.Anything)
}

func TestCheckoutOnlineKeepsCartAndDefersStaffAlert(t *testing.T) {
	f := newFixture()
	f.allowLock()
	f.catalog.On("GetActiveBranch", mock.Anything, "branch-1").Return(activeBranch(), nil)
	f.carts.On("GetCartByUserID", mock.Anything, "user-1").
		Return(cartWith(lineItem("j1", "50.00", 1)), nil)
	// Empty clearCartID means the cart survives until payment verifies.
	f.db.On("FinalizeCheckout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "", "").Return(nil)
	f.events.On("PublishOrderCreated", mock.Anything).Return(nil)
	f.notify.On("OrderPlaced", mock.Anything, mock.Anything).Return()

	result, err := f.svc.Checkout(context.Background(), "user-1", checkout.Request{
		BranchID: "branch-1", PaymentMethod: models.MethodOnline,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.MethodOnline, result.Payment.Method)
	// Subtotal 50: 20 delivery fee + 18% GST on it.
	assert.True(t, result.Order.DeliveryFeeBase.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, result.Order.DeliveryGST.Equal(decimal.RequireFromString("3.60")))
	assert.True(t, result.Order.TotalAmount.Equal(decimal.RequireFromString("86.10")))
	f.db.AssertExpectations(t)
	// The buyer email still goes out; only the staff push waits for payment.
	f.notify.AssertCalled(t, "OrderPlaced", mock.Anything, mock.Anything)
	f.notify.AssertNotCalled(t, "AlertBranchStaff", mock.Anything, mock.Anything)
}

func TestCheckoutAppliesValidCoupon(t *testing.T) {
	f := newFixture()
	f.allowLock()
	f.catalog.On("GetActiveBranch", mock.Anything, "branch-1").Return(activeBranch(), nil)

	c := cartWith(lineItem("j1", "100.00", 1))
	c.AppliedCouponID = "coupon-1"
	f.carts.On("GetCartByUserID", mock.Anything, "user-1").Return(c, nil)
	f.coupons.On("GetCouponByID", mock.Anything, "coupon-1").Return(&models.Coupon{
		ID:            "coupon-1",
		Code:          "SAVE10",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.RequireFromString("10.00"),
		MinOrderValue: decimal.RequireFromString("50.00"),
		ValidFrom:     time.Now().Add(-time.Hour),
		IsActive:      true,
	}, nil)
	f.db.On("FinalizeCheckout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "coupon-1", "cart-1").Return(nil)
	f.events.On("PublishOrderCreated", mock.Anything).Return(nil)
	f.allowNotify()

	result, err := f.svc.Checkout(context.Background(), "user-1", codRequest())

	assert.NoError(t, err)
	// 100 - 10 discount: GST 4.50 on 90, platform fee 10, free delivery.
	assert.True(t, result.Order.Discount.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, result.Order.FoodGST.Equal(decimal.RequireFromString("4.50")))
	assert.True(t, result.Order.TotalAmount.Equal(decimal.RequireFromString("104.50")))
	f.db.AssertExpectations(t)
}

func TestCheckoutSwallowsBrokenCoupon(t *testing.T) {
	f := newFixture()
	f.allowLock()
	f.catalog.On("GetActiveBranch", mock.Anything, "branch-1").Return(activeBranch(), nil)

	c := cartWith(lineItem("j1", "100.00", 1))
	c.AppliedCouponID = "coupon-gone"
	f.carts.On("GetCartByUserID", mock.Anything, "user-1").Return(c, nil)
	f.coupons.On("GetCouponByID", mock.Anything, "coupon-gone").Return(nil, nil)
	// No coupon ID reaches the finalizer; the order still goes through.
	f.db.On("FinalizeCheckout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "", "cart-1").Return(nil)
	f.events.On("PublishOrderCreated", mock.Anything).Return(nil)
	f.allowNotify()

	result, err := f.svc.Checkout(context.Background(), "user-1", codRequest())

	assert.NoError(t, err)
	assert.True(t, result.Order.Discount.IsZero())
	assert.True(t, result.Order.TotalAmount.Equal(decimal.RequireFromString("115.00")))
	f.db.AssertExpectations(t)
}

func TestCheckoutCouponExhaustedAtFinalize(t *testing.T) {
	f := newFixture()
	f.allowLock()
	f.catalog.On("GetActiveBranch", mock.Anything, "branch-1").Return(activeBranch(), nil)

	c := cartWith(lineItem("j1", "100.00", 1))
	c.AppliedCouponID = "coupon-1"
	f.carts.On("GetCartByUserID", mock.Anything, "user-1").Return(c, nil)
	f.coupons.On("GetCouponByID", mock.Anything, "coupon-1").Return(&models.Coupon{
		ID:            "coupon-1",
		Code:          "SAVE10",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.RequireFromString("10.00"),
		ValidFrom:     time.Now().Add(-time.Hour),
		IsActive:      true,
	}, nil)
	f.db.On("FinalizeCheckout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "coupon-1", "cart-1").
		Return(checkoutdb.ErrCouponExhausted)

	_, err := f.svc.Checkout(context.Background(), "user-1", codRequest())

	assert.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))
	assert.Equal(t, "Coupon usage limit reached", apperrors.PublicMessage(err))
}

func TestCheckoutValidatesAddressOwnership(t *testing.T) {
	f := newFixture()
	f.allowLock()
	f.catalog.On("GetActiveBranch", mock.Anything, "branch-1").Return(activeBranch(), nil)
	f.addresses.On("GetAddressForUser", mock.Anything, "user-1", "addr-1").Return(nil, nil)

	req := codRequest()
	req.AddressID = "addr-1"
	_, err := f.svc.Checkout(context.Background(), "user-1", req)

	assert.Error(t, err)
	assert.Equal(t, "Address not found", apperrors.PublicMessage(err))
}

func TestCheckoutEventFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.allowLock()
	f.catalog.On("GetActiveBranch", mock.Anything, "branch-1").Return(activeBranch(), nil)
	f.carts.On("GetCartByUserID", mock.Anything, "user-1").
		Return(cartWith(lineItem("j1", "100.00", 1)), nil)
	f.db.On("FinalizeCheckout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "", "cart-1").Return(nil)
	f.events.On("PublishOrderCreated", mock.Anything).Return(assert.AnError)
	f.allowNotify()

	result, err := f.svc.Checkout(context.Background(), "user-1", codRequest())

	assert.NoError(t, err)
	assert.NotNil(t, result.Order)
}
