package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"peelojuice/internal/models"
)

// DB reads the identity service's user table. The core needs only the
// purchaser's contact details and the staff roster of each branch.
type DB struct {
	Bun *bun.DB
}

// GetUserByID returns (nil, nil) when no such user exists.
func (d *DB) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAddressForUser returns the address only when it belongs to the user.
// Returns (nil, nil) when absent.
func (d *DB) GetAddressForUser(ctx context.Context, userID, addressID string) (*models.Address, error) {
	var address models.Address
	err := d.Bun.NewSelect().
		Model(&address).
		Where("id = ?", addressID).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// ListAddressesForUser returns the user's saved addresses, default first.
func (d *DB) ListAddressesForUser(ctx context.Context, userID string) ([]models.Address, error) {
	var addresses []models.Address
	err := d.Bun.NewSelect().
		Model(&addresses).
		Where("user_id = ?", userID).
		Order("is_default DESC", "created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateAddress inserts a new address. When it is marked default, the user's
// previous default is cleared in the same transaction.
func (d *DB) CreateAddress(ctx context.Context, address *models.Address) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if address.IsDefault {
			if _, err := tx.NewUpdate().
				Model((*models.Address)(nil)).
				Set("is_default = ?", false).
				Where("user_id = ?", address.UserID).
				Exec(ctx); err != nil {
				return err
			}
		}
		_, err := tx.NewInsert().Model(address).Exec(ctx)
		return err
	})
}

// DeleteAddressForUser removes the user's address, reporting whether a row
// existed.
func (d *DB) DeleteAddressForUser(ctx context.Context, userID, addressID string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Address)(nil)).
		Where("id = ?", addressID).
		Where("user_id = ?", userID).
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

// ListBranchStaffWithTokens returns the active staff members of a branch who
// have a registered push-notification token.
func (d *DB) ListBranchStaffWithTokens(ctx context.Context, branchID string) ([]models.User, error) {
	var staff []models.User
	err := d.Bun.NewSelect().
		Model(&staff).
		Where("assigned_branch_id = ?", branchID).
		Where("is_staff = ?", true).
		Where("is_active = ?", true).
		Where("fcm_token IS NOT NULL").
		Where("fcm_token != ''").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return staff, nil
}
