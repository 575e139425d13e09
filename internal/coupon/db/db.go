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

// GetCouponByCode fetches a coupon by its upper-cased code. Returns
// (nil, nil) when absent.
func (d *DB) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := d.Bun.NewSelect().
		Model(&c).
		Where("code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) GetCouponByID(ctx context.Context, id string) (*models.Coupon, error) {
	var c models.Coupon
	err := d.Bun.NewSelect().
		Model(&c).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
