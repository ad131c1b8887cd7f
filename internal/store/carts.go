package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/models"
	"github.com/okothdev/device-order-store/internal/workflow"
)

// AddToCart puts a device in the customer's active cart. Availability here is
// advisory only; checkout re-validates under lock.
func AddToCart(ctx context.Context, db *sql.DB, actor workflow.Actor, deviceID int64) (*models.CartItem, error) {
	if !actor.IsCustomer() {
		return nil, database.ErrNotAuthorized
	}

	device, err := GetDevice(ctx, db, deviceID)
	if err != nil {
		return nil, err
	}
	if workflow.Lifecycle(device.Lifecycle) != workflow.LifecycleActive {
		return nil, database.ErrDeviceNotActive
	}
	if device.Status != models.DeviceStatusAvailable {
		return nil, database.ErrDeviceUnavailable
	}

	item := &models.CartItem{}
	err = db.QueryRowContext(ctx,
		`INSERT INTO cart_items (customer_id, device_id, status, created_at)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING id, customer_id, device_id, status, created_at`,
		actor.ID, deviceID, models.CartItemActive).Scan(
		&item.ID, &item.CustomerID, &item.DeviceID, &item.Status, &item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, database.ErrCartItemExists
		}
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return item, nil
}

// RemoveFromCart drops an active cart row. Ordered rows are history and stay.
func RemoveFromCart(ctx context.Context, db *sql.DB, actor workflow.Actor, deviceID int64) error {
	if !actor.IsCustomer() {
		return database.ErrNotAuthorized
	}

	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items
		 WHERE customer_id = $1 AND device_id = $2 AND status = $3`,
		actor.ID, deviceID, models.CartItemActive)
	if err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrDeviceNotFound
	}
	return nil
}

func ListCart(ctx context.Context, db *sql.DB, actor workflow.Actor) ([]models.CartItem, error) {
	if !actor.IsCustomer() {
		return nil, database.ErrNotAuthorized
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, customer_id, device_id, status, created_at
		 FROM cart_items
		 WHERE customer_id = $1 AND status = $2
		 ORDER BY created_at`,
		actor.ID, models.CartItemActive)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.CustomerID, &item.DeviceID, &item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}
