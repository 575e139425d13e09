package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"peelojuice/internal/models"
)

// ErrCouponExhausted is returned when the coupon's usage limit was consumed
// by a concurrent checkout between cart validation and finalization.
var ErrCouponExhausted = errors.New("coupon usage limit reached")

type DB struct {
	Bun *bun.DB
}

// FinalizeCheckout writes the whole checkout result in one transaction:
// the sequential order number, the order row with its item snapshots, the
// payment row, the coupon usage increment, and for cash orders the cart
// wipe. Any failure rolls everything back, including the order number.
func (d *DB) FinalizeCheckout(ctx context.Context, order *models.Order, items []models.OrderItem, payment *models.Payment, couponID, clearCartID string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// The counter row lock serializes concurrent checkouts, so
		// numbers come out gapless under contention (rollbacks aside).
		var orderNumber int64
		err := tx.QueryRowContext(ctx,
			"UPDATE order_counter SET last_value = last_value + 1 WHERE id = 1 RETURNING last_value",
		).Scan(&orderNumber)
		if err != nil {
			return err
		}
		order.OrderNumber = orderNumber

		if couponID != "" {
			res, err := tx.NewUpdate().
				Model((*models.Coupon)(nil)).
				Set("usage_count = usage_count + 1").
				Set("updated_at = ?", time.Now()).
				Where("id = ?", couponID).
				Where("is_active = ?", true).
				Where("usage_limit IS NULL OR usage_count < usage_limit").
				Exec(ctx)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrCouponExhausted
			}
		}

		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(items) > 0 {
			if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
				return err
			}
		}
		if _, err := tx.NewInsert().Model(payment).Exec(ctx); err != nil {
			return err
		}

		if clearCartID != "" {
			if _, err := tx.NewDelete().
				Model((*models.CartItem)(nil)).
				Where("cart_id = ?", clearCartID).
				Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewUpdate().
				Model((*models.Cart)(nil)).
				Set("applied_coupon_id = NULL").
				Set("updated_at = ?", time.Now()).
				Where("id = ?", clearCartID).
				Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}
