package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"peelojuice/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetCartByUserID fetches the user's active cart with its items and their
// juices. Returns (nil, nil) when the user has no cart yet.
func (d *DB) GetCartByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := d.Bun.NewSelect().
		Model(&cart).
		Relation("Items").
		Relation("Items.Juice").
		Where("\"cart\".user_id = ?", userID).
		Where("\"cart\".is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (d *DB) CreateCart(ctx context.Context, cart *models.Cart) error {
	_, err := d.Bun.NewInsert().Model(cart).Exec(ctx)
	return err
}

// GetItem fetches one cart line. Returns (nil, nil) when absent.
func (d *DB) GetItem(ctx context.Context, cartID, juiceID string) (*models.CartItem, error) {
	var item models.CartItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("cart_id = ?", cartID).
		Where("juice_id = ?", juiceID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertItem inserts a cart line or, when the (cart, juice) pair already
// exists, increments its quantity. The conflict target is the unique
// (cart_id, juice_id) index, which keeps concurrent adds from duplicating
// rows.
func (d *DB) UpsertItem(ctx context.Context, item *models.CartItem) error {
	_, err := d.Bun.NewInsert().
		Model(item).
		On("CONFLICT (cart_id, juice_id) DO UPDATE").
		Set("quantity = cart_item.quantity + EXCLUDED.quantity").
		Exec(ctx)
	return err
}

func (d *DB) UpdateItem(ctx context.Context, item *models.CartItem) error {
	_, err := d.Bun.NewUpdate().
		Model(item).
		Column("quantity", "cooking_instructions").
		Where("id = ?", item.ID).
		Exec(ctx)
	return err
}

// DeleteItem removes one cart line and reports whether it existed.
func (d *DB) DeleteItem(ctx context.Context, cartID, juiceID string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.CartItem)(nil)).
		Where("cart_id = ?", cartID).
		Where("juice_id = ?", juiceID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (d *DB) ClearItems(ctx context.Context, cartID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.CartItem)(nil)).
		Where("cart_id = ?", cartID).
		Exec(ctx)
	return err
}

// SetCoupon attaches a coupon to the cart; an empty couponID detaches it.
func (d *DB) SetCoupon(ctx context.Context, cartID, couponID string) error {
	query := d.Bun.NewUpdate().
		Model((*models.Cart)(nil)).
		Where("id = ?", cartID)
	if couponID == "" {
		query = query.Set("applied_coupon_id = NULL")
	} else {
		query = query.Set("applied_coupon_id = ?", couponID)
	}
	_, err := query.Exec(ctx)
	return err
}
