package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"peelojuice/internal/models"
)

// DB reads the product catalog. The catalog is owned by the admin tooling;
// the order core only consumes it.
type DB struct {
	Bun *bun.DB
}

// GetActiveJuice fetches a juice that is still active in the catalog.
// Returns (nil, nil) when absent or inactive.
func (d *DB) GetActiveJuice(ctx context.Context, juiceID string) (*models.Juice, error) {
	var juice models.Juice
	err := d.Bun.NewSelect().
		Model(&juice).
		Where("id = ?", juiceID).
		Where("is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &juice, nil
}

// GetActiveBranch resolves a branch id to an active branch. Returns
// (nil, nil) when absent or inactive.
func (d *DB) GetActiveBranch(ctx context.Context, branchID string) (*models.Branch, error) {
	var branch models.Branch
	err := d.Bun.NewSelect().
		Model(&branch).
		Where("id = ?", branchID).
		Where("is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

func (d *DB) GetBranchByID(ctx context.Context, branchID string) (*models.Branch, error) {
	var branch models.Branch
	err := d.Bun.NewSelect().
		Model(&branch).
		Where("id = ?", branchID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

func (d *DB) ListActiveBranches(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	err := d.Bun.NewSelect().
		Model(&branches).
		Where("is_active = ?", true).
		Order("city", "name").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return branches, nil
}

// ListJuicesForBranch returns the active juices available at a branch.
// A juice with no branch_juices row defaults to available.
func (d *DB) ListJuicesForBranch(ctx context.Context, branchID string) ([]models.Juice, error) {
	var juices []models.Juice
	err := d.Bun.NewSelect().
		Model(&juices).
		Where("juice.is_active = ?", true).
		Where(`NOT EXISTS (
			SELECT 1 FROM branch_juices bj
			WHERE bj.juice_id = juice.id
			  AND bj.branch_id = ?
			  AND bj.is_available = ?
		)`, branchID, false).
		Order("name").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return juices, nil
}

func (d *DB) ListActiveJuices(ctx context.Context) ([]models.Juice, error) {
	var juices []models.Juice
	err := d.Bun.NewSelect().
		Model(&juices).
		Where("is_active = ?", true).
		Order("name").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return juices, nil
}
