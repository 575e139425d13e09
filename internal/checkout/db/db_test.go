package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	checkoutdb "peelojuice/internal/checkout/db"
	"peelojuice/internal/models"
)

func setupTestDB(t *testing.T) *checkoutdb.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.Payment)(nil),
		(*models.Coupon)(nil),
		(*models.Cart)(nil),
		(*models.CartItem)(nil),
		(*models.OrderCounter)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	_, err = bunDB.NewInsert().
		Model(&models.OrderCounter{ID: 1, LastValue: 0}).
		Exec(ctx)
	require.NoError(t, err)

	t.Cleanup(func() { bunDB.Close() })
	return &checkoutdb.DB{Bun: bunDB}
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleOrder(id string) *models.Order {
	return &models.Order{
		ID:              id,
		UserID:          "user-1",
		BranchID:        "branch-1",
		FoodSubtotal:    money("100.00"),
		FoodGST:         money("5.00"),
		DeliveryFeeBase: money("0.00"),
		DeliveryGST:     money("0.00"),
		PlatformFee:     money("10.00"),
		Discount:        money("0.00"),
		TotalAmount:     money("115.00"),
		Status:          models.OrderPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

func samplePayment(id, orderID string) *models.Payment {
	return &models.Payment{
		ID:        id,
		OrderID:   orderID,
		Method:    models.MethodCOD,
		Status:    models.PaymentPending,
		Amount:    money("115.00"),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestFinalizeCheckoutAssignsSequentialOrderNumbers(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	first := sampleOrder("ord-1")
	require.NoError(t, d.FinalizeCheckout(ctx, first, nil, samplePayment("pay-1", "ord-1"), "", ""))

	second := sampleOrder("ord-2")
	require.NoError(t, d.FinalizeCheckout(ctx, second, nil, samplePayment("pay-2", "ord-2"), "", ""))

	assert.Equal(t, int64(1), first.OrderNumber)
	assert.Equal(t, int64(2), second.OrderNumber)
}

func TestFinalizeCheckoutConcurrentOrderNumbersAreUniqueAndGapless(t *testing.T) {
	d := setupTestDB(t)
	// sqlite rejects concurrent write transactions, so funnel everything
	// through one connection; the goroutines still race for the counter row.
	d.Bun.SetMaxOpenConns(1)
	ctx := context.Background()

	const n = 10
	orders := make([]*models.Order, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("ord-%d", i)
			orders[i] = sampleOrder(id)
			errs[i] = d.FinalizeCheckout(ctx, orders[i], nil, samplePayment(fmt.Sprintf("pay-%d", i), id), "", "")
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		seen[orders[i].OrderNumber] = true
	}
	require.Len(t, seen, n)
	for num := int64(1); num <= n; num++ {
		assert.True(t, seen[num], "order number %d was never assigned", num)
	}
}

func TestFinalizeCheckoutWritesOrderItemsAndPayment(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	order := sampleOrder("ord-1")
	items := []models.OrderItem{
		{ID: "item-1", OrderID: "ord-1", JuiceID: "j1", JuiceName: "Mosambi", Quantity: 2, PricePerItem: money("50.00")},
	}
	require.NoError(t, d.FinalizeCheckout(ctx, order, items, samplePayment("pay-1", "ord-1"), "", ""))

	var storedItems []models.OrderItem
	require.NoError(t, d.Bun.NewSelect().Model(&storedItems).Where("order_id = ?", "ord-1").Scan(ctx))
	assert.Len(t, storedItems, 1)
	assert.Equal(t, "Mosambi", storedItems[0].JuiceName)

	var storedPayment models.Payment
	require.NoError(t, d.Bun.NewSelect().Model(&storedPayment).Where("order_id = ?", "ord-1").Scan(ctx))
	assert.Equal(t, models.PaymentPending, storedPayment.Status)
}

func TestFinalizeCheckoutIncrementsCouponUsage(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	limit := 1
	_, err := d.Bun.NewInsert().Model(&models.Coupon{
		ID:            "coupon-1",
		Code:          "ONCE",
		DiscountType:  models.DiscountFixed,
		DiscountValue: money("10.00"),
		MinOrderValue: money("0.00"),
		ValidFrom:     time.Now().Add(-time.Hour),
		UsageLimit:    &limit,
		UsageCount:    0,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, d.FinalizeCheckout(ctx, sampleOrder("ord-1"), nil, samplePayment("pay-1", "ord-1"), "coupon-1", ""))

	var coupon models.Coupon
	require.NoError(t, d.Bun.NewSelect().Model(&coupon).Where("id = ?", "coupon-1").Scan(ctx))
	assert.Equal(t, 1, coupon.UsageCount)

	// Limit consumed: the next checkout fails and nothing is written.
	err = d.FinalizeCheckout(ctx, sampleOrder("ord-2"), nil, samplePayment("pay-2", "ord-2"), "coupon-1", "")
	assert.ErrorIs(t, err, checkoutdb.ErrCouponExhausted)

	count, err := d.Bun.NewSelect().Model((*models.Order)(nil)).Where("id = ?", "ord-2").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFinalizeCheckoutClearsCashCart(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	_, err := d.Bun.NewInsert().Model(&models.Cart{
		ID: "cart-1", UserID: "user-1", AppliedCouponID: "coupon-1", IsActive: true,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}).Exec(ctx)
	require.NoError(t, err)
	_, err = d.Bun.NewInsert().Model(&models.CartItem{
		ID: "item-1", CartID: "cart-1", JuiceID: "j1", Quantity: 2, PriceAtAdded: money("50.00"),
	}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, d.FinalizeCheckout(ctx, sampleOrder("ord-1"), nil, samplePayment("pay-1", "ord-1"), "", "cart-1"))

	itemCount, err := d.Bun.NewSelect().Model((*models.CartItem)(nil)).Where("cart_id = ?", "cart-1").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, itemCount)

	var cart models.Cart
	require.NoError(t, d.Bun.NewSelect().Model(&cart).Where("id = ?", "cart-1").Scan(ctx))
	assert.Empty(t, cart.AppliedCouponID)
}
