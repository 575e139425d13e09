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

// GetOrderByID fetches one order with its items. Returns (nil, nil) when
// absent.
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Relation("Items").
		Where("\"order\".id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByUser returns the user's orders newest first, optionally
// filtered to a status set.
func (d *DB) ListOrdersByUser(ctx context.Context, userID string, statuses []models.OrderStatus) ([]models.Order, error) {
	query := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Relation("Items").
		Where("\"order\".user_id = ?", userID).
		Order("created_at DESC")
	if len(statuses) > 0 {
		query = query.Where("\"order\".status IN (?)", bun.In(statuses))
	}

	var orders []models.Order
	if err := query.Scan(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrdersByBranch returns a branch's orders newest first, optionally
// filtered to a status set.
func (d *DB) ListOrdersByBranch(ctx context.Context, branchID string, statuses []models.OrderStatus) ([]models.Order, error) {
	query := d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Relation("Items").
		Where("\"order\".branch_id = ?", branchID).
		Order("created_at DESC")
	if len(statuses) > 0 {
		query = query.Where("\"order\".status IN (?)", bun.In(statuses))
	}

	var orders []models.Order
	if err := query.Scan(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ApplyTransition persists an order status change and, when the transition
// cascades to the payment (refund-on-cancel), updates both rows in one
// transaction so the pair can never diverge.
func (d *DB) ApplyTransition(ctx context.Context, orderID string, newStatus models.OrderStatus, paymentStatus *models.PaymentStatus) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("status = ?", newStatus).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", orderID).
			Exec(ctx)
		if err != nil {
			return err
		}

		if paymentStatus != nil {
			_, err = tx.NewUpdate().
				Model((*models.Payment)(nil)).
				Set("status = ?", *paymentStatus).
				Set("updated_at = ?", time.Now()).
				Where("order_id = ?", orderID).
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
