package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/models"
	"github.com/okothdev/device-order-store/internal/workflow"
)

type CreateDeviceRequest struct {
	IMEI          string
	Brand         string
	Model         string
	RAM           string
	ROM           string
	Color         string
	PurchasePrice decimal.Decimal
	PriceCash     decimal.Decimal
	PriceCredit   decimal.Decimal
	Featured      bool
	Notes         string
}

const deviceColumns = `id, imei, brand, model, ram, rom, color, purchase_price, price_cash,
	price_credit, status, lifecycle, featured, assigned_staff_id, notes,
	arrival_date, modified_at, version`

func scanDevice(row interface {
	Scan(dest ...interface{}) error
}, d *models.Device) error {
	var imei sql.NullString
	err := row.Scan(
		&d.ID,
		&imei,
		&d.Brand,
		&d.Model,
		&d.RAM,
		&d.ROM,
		&d.Color,
		&d.PurchasePrice,
		&d.PriceCash,
		&d.PriceCredit,
		&d.Status,
		&d.Lifecycle,
		&d.Featured,
		&d.AssignedStaffID,
		&d.Notes,
		&d.ArrivalDate,
		&d.ModifiedAt,
		&d.Version,
	)
	d.IMEI = imei.String
	return err
}

// CreateDevice registers one inventory unit and logs its arrival. Featured
// catalog entries carry no IMEI; everything else needs a valid, unused one.
func CreateDevice(ctx context.Context, db *sql.DB, actor workflow.Actor, req CreateDeviceRequest) (*models.Device, error) {
	if !actor.IsAdmin() && !actor.IsStaff() {
		return nil, database.ErrNotAuthorized
	}

	status := models.DeviceStatusAvailable
	var imei interface{}
	if req.Featured {
		status = models.DeviceStatusFeatured
	} else {
		if !workflow.ValidIMEI(req.IMEI) {
			return nil, database.ErrInvalidIMEI
		}
		imei = req.IMEI
	}

	device := &models.Device{}
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		err := scanDevice(tx.QueryRowContext(ctx,
			`INSERT INTO devices (imei, brand, model, ram, rom, color, purchase_price, price_cash,
			                      price_credit, status, lifecycle, featured, notes,
			                      arrival_date, modified_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW(), 1)
			 RETURNING `+deviceColumns,
			imei, req.Brand, req.Model, req.RAM, req.ROM, req.Color,
			req.PurchasePrice, req.PriceCash, req.PriceCredit,
			status, string(workflow.LifecycleActive), req.Featured, req.Notes), device)
		if err != nil {
			if isUniqueViolation(err) {
				return database.ErrDuplicateIMEI
			}
			return fmt.Errorf("create device: %w", err)
		}

		return logInventoryTx(ctx, tx, device.ID, &actor.ID, models.TxTypeArrival, "device arrival")
	})
	if err != nil {
		return nil, err
	}
	return device, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func GetDevice(ctx context.Context, db *sql.DB, id int64) (*models.Device, error) {
	device := &models.Device{}
	err := scanDevice(db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1 AND lifecycle <> $2`,
		id, string(workflow.LifecyclePurgeEligible)), device)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	return device, nil
}

// ListDevices pages active devices, optionally filtered by status
// ("" means any). Catalog and admin inventory views share it.
func ListDevices(ctx context.Context, db *sql.DB, status string, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM devices
		 WHERE lifecycle = $1 AND ($2 = '' OR status = $2)`,
		string(workflow.LifecycleActive), status).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count devices: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := db.QueryContext(ctx,
		`SELECT `+deviceColumns+`
		 FROM devices
		 WHERE lifecycle = $1 AND ($2 = '' OR status = $2)
		 ORDER BY arrival_date DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		string(workflow.LifecycleActive), status, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var d models.Device
		if err := scanDevice(rows, &d); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      devices,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ListFeaturedDevices returns the active featured catalog entries.
func ListFeaturedDevices(ctx context.Context, db *sql.DB) ([]models.Device, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+deviceColumns+`
		 FROM devices
		 WHERE featured = TRUE AND lifecycle = $1
		 ORDER BY arrival_date DESC`,
		string(workflow.LifecycleActive))
	if err != nil {
		return nil, fmt.Errorf("list featured devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var d models.Device
		if err := scanDevice(rows, &d); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return devices, nil
}

// transitionLifecycle moves a device between removal phases under lock,
// rejecting anything the lifecycle machine does not allow.
func transitionLifecycle(ctx context.Context, db *sql.DB, id int64, to workflow.Lifecycle) (*models.Device, error) {
	device := &models.Device{}
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT lifecycle FROM devices WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrDeviceNotFound
			}
			return fmt.Errorf("lock device: %w", err)
		}

		if !workflow.CanTransitionLifecycle(workflow.Lifecycle(current), to) {
			return database.ErrWrongLifecycle
		}

		err = scanDevice(tx.QueryRowContext(ctx,
			`UPDATE devices SET lifecycle = $1, modified_at = NOW(), version = version + 1
			 WHERE id = $2
			 RETURNING `+deviceColumns,
			string(to), id), device)
		if err != nil {
			if isUniqueViolation(err) {
				// Restoring a device whose IMEI was reused while it was
				// soft deleted.
				return database.ErrDuplicateIMEI
			}
			return fmt.Errorf("transition device lifecycle: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return device, nil
}

func SoftDeleteDevice(ctx context.Context, db *sql.DB, actor workflow.Actor, id int64) (*models.Device, error) {
	if !actor.IsAdmin() {
		return nil, database.ErrNotAuthorized
	}
	return transitionLifecycle(ctx, db, id, workflow.LifecycleSoftDeleted)
}

func RestoreDevice(ctx context.Context, db *sql.DB, actor workflow.Actor, id int64) (*models.Device, error) {
	if !actor.IsAdmin() {
		return nil, database.ErrNotAuthorized
	}
	return transitionLifecycle(ctx, db, id, workflow.LifecycleActive)
}

func MarkDevicePurgeEligible(ctx context.Context, db *sql.DB, actor workflow.Actor, id int64) (*models.Device, error) {
	if !actor.IsAdmin() {
		return nil, database.ErrNotAuthorized
	}
	return transitionLifecycle(ctx, db, id, workflow.LifecyclePurgeEligible)
}

// PurgeDevice permanently removes a purge-eligible device.
func PurgeDevice(ctx context.Context, db *sql.DB, actor workflow.Actor, id int64) error {
	if !actor.IsAdmin() {
		return database.ErrNotAuthorized
	}

	result, err := db.ExecContext(ctx,
		`DELETE FROM devices WHERE id = $1 AND lifecycle = $2`,
		id, string(workflow.LifecyclePurgeEligible))
	if err != nil {
		return fmt.Errorf("purge device: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrWrongLifecycle
	}
	return nil
}

// TransferDevice reassigns a device to another staff member, logging the
// movement out of the old hands and into the new.
func TransferDevice(ctx context.Context, db *sql.DB, actor workflow.Actor, deviceID, newStaffID int64, reason string) (*models.Device, error) {
	if !actor.IsAdmin() {
		return nil, database.ErrNotAuthorized
	}

	device := &models.Device{}
	err := database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		var (
			oldStaffID sql.NullInt64
			lifecycle  string
		)
		err := tx.QueryRowContext(ctx,
			`SELECT assigned_staff_id, lifecycle FROM devices WHERE id = $1 FOR UPDATE`,
			deviceID).Scan(&oldStaffID, &lifecycle)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrDeviceNotFound
			}
			return fmt.Errorf("lock device: %w", err)
		}
		if workflow.Lifecycle(lifecycle) != workflow.LifecycleActive {
			return database.ErrDeviceNotActive
		}
		if oldStaffID.Valid && oldStaffID.Int64 == newStaffID {
			return database.ErrAlreadyAssigned
		}

		var exists bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = $2 AND is_active = TRUE)`,
			newStaffID, models.RoleStaff).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check staff exists: %w", err)
		}
		if !exists {
			return database.ErrUserNotFound
		}

		if oldStaffID.Valid {
			old := oldStaffID.Int64
			if err := logInventoryTx(ctx, tx, deviceID, &old, models.TxTypeTransferOut, reason); err != nil {
				return err
			}
		}
		if err := logInventoryTx(ctx, tx, deviceID, &newStaffID, models.TxTypeTransferIn, reason); err != nil {
			return err
		}

		err = scanDevice(tx.QueryRowContext(ctx,
			`UPDATE devices
			 SET assigned_staff_id = $1, status = $2, modified_at = NOW(), version = version + 1
			 WHERE id = $3
			 RETURNING `+deviceColumns,
			newStaffID, models.DeviceStatusAssigned, deviceID), device)
		if err != nil {
			return fmt.Errorf("transfer device: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return device, nil
}

func logInventoryTx(ctx context.Context, tx *sql.Tx, deviceID int64, staffID *int64, txType, notes string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_transactions (device_id, staff_id, type, notes, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		deviceID, staffID, txType, notes)
	if err != nil {
		return fmt.Errorf("log inventory transaction: %w", err)
	}
	return nil
}

// ListDeviceTransactions returns a device's movement log, newest first.
func ListDeviceTransactions(ctx context.Context, db *sql.DB, deviceID int64) ([]models.InventoryTransaction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, device_id, staff_id, type, notes, created_at
		 FROM inventory_transactions
		 WHERE device_id = $1
		 ORDER BY created_at DESC, id DESC`,
		deviceID)
	if err != nil {
		return nil, fmt.Errorf("list device transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.InventoryTransaction
	for rows.Next() {
		var t models.InventoryTransaction
		if err := rows.Scan(&t.ID, &t.DeviceID, &t.StaffID, &t.Type, &t.Notes, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return txs, nil
}
