package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"peelojuice/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) getPayment(ctx context.Context, column, value string) (*models.Payment, error) {
	var payment models.Payment
	err := d.Bun.NewSelect().
		Model(&payment).
		Where(column+" = ?", value).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPaymentByID returns (nil, nil) when absent.
func (d *DB) GetPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	return d.getPayment(ctx, "id", id)
}

// GetPaymentByOrderID returns (nil, nil) when absent.
func (d *DB) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return d.getPayment(ctx, "order_id", orderID)
}

// GetPaymentByGatewayOrderID returns (nil, nil) when absent.
func (d *DB) GetPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	return d.getPayment(ctx, "gateway_order_id", gatewayOrderID)
}

// SetGatewayOrderID records the gateway's order id on the payment.
func (d *DB) SetGatewayOrderID(ctx context.Context, paymentID, gatewayOrderID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Payment)(nil)).
		Set("gateway_order_id = ?", gatewayOrderID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", paymentID).
		Exec(ctx)
	return err
}

// MarkFailed flags a payment whose signature did not verify.
func (d *DB) MarkFailed(ctx context.Context, paymentID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Payment)(nil)).
		Set("status = ?", models.PaymentFailed).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", paymentID).
		Exec(ctx)
	return err
}

// CompletePayment performs the whole settlement in one transaction: the
// payment flips to completed (optionally converting cod to online), a still
// pending order is confirmed, and for gateway checkouts the buyer's cart is
// finally cleared.
func (d *DB) CompletePayment(ctx context.Context, paymentID, transactionID string, toOnline bool, confirmOrderID, clearCartUserID string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()

		update := tx.NewUpdate().
			Model((*models.Payment)(nil)).
			Set("status = ?", models.PaymentCompleted).
			Set("transaction_id = ?", transactionID).
			Set("paid_at = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", paymentID)
		if toOnline {
			update = update.Set("method = ?", models.MethodOnline)
		}
		if _, err := update.Exec(ctx); err != nil {
			return err
		}

		if confirmOrderID != "" {
			if _, err := tx.NewUpdate().
				Model((*models.Order)(nil)).
				Set("status = ?", models.OrderConfirmed).
				Set("updated_at = ?", now).
				Where("id = ?", confirmOrderID).
				Where("status = ?", models.OrderPending).
				Exec(ctx); err != nil {
				return err
			}
		}

		if clearCartUserID != "" {
			if _, err := tx.NewDelete().
				Model((*models.CartItem)(nil)).
				Where("cart_id IN (SELECT id FROM carts WHERE user_id = ?)", clearCartUserID).
				Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewUpdate().
				Model((*models.Cart)(nil)).
				Set("applied_coupon_id = NULL").
				Set("updated_at = ?", now).
				Where("user_id = ?", clearCartUserID).
				Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}
