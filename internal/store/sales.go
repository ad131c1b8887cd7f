package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/models"
	"github.com/okothdev/device-order-store/internal/workflow"
)

func generateReceiptNumber() string {
	return fmt.Sprintf("RCP-%s", strings.ToUpper(uuid.NewString()[:8]))
}

// recordOrderSale writes the sale row for a device sold through a completed
// order, at the order's snapshot price.
func recordOrderSale(ctx context.Context, tx *sql.Tx, order *models.Order, sellerID, deviceID int64, unitPrice decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO sales (receipt_number, device_id, seller_id, customer_id, order_id,
		                    sale_price, amount_paid, payment_type, notes, sale_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		generateReceiptNumber(), deviceID, sellerID, order.CustomerID, order.ID,
		unitPrice, unitPrice, order.PaymentOption, "order fulfillment")
	if err != nil {
		return fmt.Errorf("record order sale: %w", err)
	}
	return nil
}

type DirectSaleRequest struct {
	IMEI        string
	SalePrice   decimal.Decimal
	AmountPaid  decimal.Decimal
	PaymentType string
	CustomerID  *int64
	Notes       string
}

// RecordDirectSale is the over-the-counter path: staff sells an available
// device outside the order workflow. The device goes straight to sold.
func RecordDirectSale(ctx context.Context, db *sql.DB, actor workflow.Actor, req DirectSaleRequest) (*models.Sale, error) {
	if !actor.IsStaff() {
		return nil, database.ErrNotAuthorized
	}
	if req.PaymentType != models.PaymentCash && req.PaymentType != models.PaymentCredit {
		return nil, database.ErrInvalidPayment
	}

	sale := &models.Sale{}
	err := database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		var (
			deviceID  int64
			status    string
			lifecycle string
		)
		err := tx.QueryRowContext(ctx,
			`SELECT id, status, lifecycle FROM devices WHERE imei = $1 AND lifecycle = $2 FOR UPDATE`,
			req.IMEI, string(workflow.LifecycleActive)).Scan(&deviceID, &status, &lifecycle)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrDeviceNotFound
			}
			return fmt.Errorf("lock device: %w", err)
		}
		if status != models.DeviceStatusAvailable {
			return database.ErrDeviceUnavailable
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE devices SET status = $1, modified_at = NOW(), version = version + 1 WHERE id = $2`,
			models.DeviceStatusSold, deviceID)
		if err != nil {
			return fmt.Errorf("mark device sold: %w", err)
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO sales (receipt_number, device_id, seller_id, customer_id,
			                    sale_price, amount_paid, payment_type, notes, sale_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			 RETURNING id, receipt_number, device_id, seller_id, customer_id, order_id,
			           sale_price, amount_paid, payment_type, notes, sale_date`,
			generateReceiptNumber(), deviceID, actor.ID, req.CustomerID,
			req.SalePrice, req.AmountPaid, req.PaymentType, req.Notes).Scan(
			&sale.ID, &sale.ReceiptNumber, &sale.DeviceID, &sale.SellerID, &sale.CustomerID,
			&sale.OrderID, &sale.SalePrice, &sale.AmountPaid, &sale.PaymentType, &sale.Notes, &sale.SaleDate)
		if err != nil {
			return fmt.Errorf("record sale: %w", err)
		}

		return logInventoryTx(ctx, tx, deviceID, &actor.ID, models.TxTypeSale, "direct sale")
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func GetSale(ctx context.Context, db *sql.DB, id int64) (*models.Sale, error) {
	sale := &models.Sale{}
	err := db.QueryRowContext(ctx,
		`SELECT id, receipt_number, device_id, seller_id, customer_id, order_id,
		        sale_price, amount_paid, payment_type, notes, sale_date
		 FROM sales WHERE id = $1`,
		id).Scan(
		&sale.ID, &sale.ReceiptNumber, &sale.DeviceID, &sale.SellerID, &sale.CustomerID,
		&sale.OrderID, &sale.SalePrice, &sale.AmountPaid, &sale.PaymentType, &sale.Notes, &sale.SaleDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrSaleNotFound
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return sale, nil
}

// ListSales pages the sales log. Admins see everything; staff see their own.
func ListSales(ctx context.Context, db *sql.DB, actor workflow.Actor, page, pageSize int) (*OffsetPage, error) {
	var sellerFilter int64
	switch actor.Role {
	case workflow.RoleAdmin:
		sellerFilter = 0
	case workflow.RoleStaff:
		sellerFilter = actor.ID
	default:
		return nil, database.ErrNotAuthorized
	}

	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales WHERE ($1 = 0 OR seller_id = $1)`,
		sellerFilter).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count sales: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := db.QueryContext(ctx,
		`SELECT id, receipt_number, device_id, seller_id, customer_id, order_id,
		        sale_price, amount_paid, payment_type, notes, sale_date
		 FROM sales
		 WHERE ($1 = 0 OR seller_id = $1)
		 ORDER BY sale_date DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		sellerFilter, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.ReceiptNumber, &s.DeviceID, &s.SellerID, &s.CustomerID,
			&s.OrderID, &s.SalePrice, &s.AmountPaid, &s.PaymentType, &s.Notes, &s.SaleDate); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      sales,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
