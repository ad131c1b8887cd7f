package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/models"
)

func CreateCustomer(ctx context.Context, db *sql.DB, email, fullName, phoneNumber, deliveryAddress string) (*models.Customer, error) {
	customer := &models.Customer{}
	err := db.QueryRowContext(ctx,
		`INSERT INTO customers (email, full_name, phone_number, delivery_address, is_active, created_at, updated_at, version)
		 VALUES ($1, $2, NULLIF($3, ''), $4, TRUE, NOW(), NOW(), 1)
		 RETURNING id, email, full_name, COALESCE(phone_number, ''), delivery_address, is_active, created_at, updated_at, version`,
		email, fullName, phoneNumber, deliveryAddress).Scan(
		&customer.ID,
		&customer.Email,
		&customer.FullName,
		&customer.PhoneNumber,
		&customer.DeliveryAddress,
		&customer.IsActive,
		&customer.CreatedAt,
		&customer.UpdatedAt,
		&customer.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return customer, nil
}

func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*models.Customer, error) {
	customer := &models.Customer{}
	err := db.QueryRowContext(ctx,
		`SELECT id, email, full_name, COALESCE(phone_number, ''), delivery_address, is_active, created_at, updated_at, version
		 FROM customers
		 WHERE id = $1`,
		id).Scan(
		&customer.ID,
		&customer.Email,
		&customer.FullName,
		&customer.PhoneNumber,
		&customer.DeliveryAddress,
		&customer.IsActive,
		&customer.CreatedAt,
		&customer.UpdatedAt,
		&customer.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

// UpdateCustomerAddress changes where future orders deliver. Existing orders
// keep the address snapshot they were placed with.
func UpdateCustomerAddress(ctx context.Context, db *sql.DB, id int64, deliveryAddress string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE customers SET delivery_address = $1, updated_at = NOW(), version = version + 1
		 WHERE id = $2`,
		deliveryAddress, id)
	if err != nil {
		return fmt.Errorf("update customer address: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCustomerNotFound
	}
	return nil
}

func ListCustomers(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := db.QueryContext(ctx,
		`SELECT id, email, full_name, COALESCE(phone_number, ''), delivery_address, is_active, created_at, updated_at, version
		 FROM customers
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var customer models.Customer
		err := rows.Scan(
			&customer.ID,
			&customer.Email,
			&customer.FullName,
			&customer.PhoneNumber,
			&customer.DeliveryAddress,
			&customer.IsActive,
			&customer.CreatedAt,
			&customer.UpdatedAt,
			&customer.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      customers,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
