package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/models"
	"github.com/okothdev/device-order-store/internal/workflow"
)

// lockOrder loads the order row under FOR UPDATE so no concurrent transition
// can race the state check. Soft-deleted orders are invisible.
func lockOrder(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order := &models.Order{}
	err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`,
		id), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return order, nil
}

// lockOrderDevices locks every device referenced by the order's items and
// returns them in the shape the approval decision wants.
func lockOrderDevices(ctx context.Context, tx *sql.Tx, orderID int64) ([]workflow.ItemDevice, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT d.id, d.brand, d.model, d.status
		 FROM order_items oi
		 JOIN devices d ON d.id = oi.device_id
		 WHERE oi.order_id = $1
		 ORDER BY d.id
		 FOR UPDATE OF d`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("lock order devices: %w", err)
	}
	defer rows.Close()

	var items []workflow.ItemDevice
	for rows.Next() {
		var (
			item         workflow.ItemDevice
			brand, model string
		)
		if err := rows.Scan(&item.DeviceID, &brand, &model, &item.Status); err != nil {
			return nil, fmt.Errorf("scan order device: %w", err)
		}
		item.Name = brand + " " + model
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

func deviceClaims(ctx context.Context, tx *sql.Tx, orderID int64, deviceIDs []int64) ([]workflow.Claim, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT oi.device_id, o.id, o.assigned_staff_id
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE oi.device_id = ANY($1)
		   AND o.id <> $2
		   AND o.is_deleted = FALSE
		   AND o.status IN ($3, $4, $5)`,
		pq.Array(deviceIDs), orderID,
		string(workflow.StatusPending), string(workflow.StatusAwaitingApproval), string(workflow.StatusApproved))
	if err != nil {
		return nil, fmt.Errorf("load device claims: %w", err)
	}
	defer rows.Close()

	var claims []workflow.Claim
	for rows.Next() {
		var c workflow.Claim
		if err := rows.Scan(&c.DeviceID, &c.OrderID, &c.StaffID); err != nil {
			return nil, fmt.Errorf("scan device claim: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return claims, nil
}

func adminIDs(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM users WHERE role = $1 AND is_active = TRUE ORDER BY id`,
		models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return ids, nil
}

// assignStaffTx writes the assignment and notifies the staff member. The
// caller holds the order lock.
func assignStaffTx(ctx context.Context, tx *sql.Tx, order *models.Order, staffID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET assigned_staff_id = $1, updated_at = NOW(), version = version + 1
		 WHERE id = $2`,
		staffID, order.ID)
	if err != nil {
		return fmt.Errorf("assign staff: %w", err)
	}

	var customerName string
	err = tx.QueryRowContext(ctx,
		`SELECT full_name FROM customers WHERE id = $1`,
		order.CustomerID).Scan(&customerName)
	if err != nil {
		return fmt.Errorf("load customer name: %w", err)
	}

	draft := workflow.AssignmentDraft(staffID, order.ID, customerName)
	if err := insertDrafts(ctx, tx, []workflow.Draft{draft}); err != nil {
		return err
	}

	order.AssignedStaffID = &staffID
	return nil
}

// AssignOrderStaff is the manual fallback for orders the address resolver
// left unassigned, and lets an admin move an open order between staff.
func AssignOrderStaff(ctx context.Context, db *sql.DB, actor workflow.Actor, orderID, staffID int64) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, database.ErrNotAuthorized
	}

	var order *models.Order
	err := database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !workflow.Open(workflow.Status(current.Status)) {
			return database.ErrWrongState
		}
		if current.AssignedStaffID != nil && *current.AssignedStaffID == staffID {
			return database.ErrAlreadyAssigned
		}

		var exists bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = $2 AND is_active = TRUE)`,
			staffID, models.RoleStaff).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check staff exists: %w", err)
		}
		if !exists {
			return database.ErrUserNotFound
		}

		if err := assignStaffTx(ctx, tx, current, staffID); err != nil {
			return err
		}

		order, err = fetchOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// requireAssignedStaff enforces that the acting staff member owns the order.
func requireAssignedStaff(order *models.Order, actor workflow.Actor) error {
	if !actor.IsStaff() {
		return database.ErrNotAuthorized
	}
	if order.AssignedStaffID == nil || *order.AssignedStaffID != actor.ID {
		return database.ErrNotAssignedStaff
	}
	return nil
}

// MarkAwaitingApproval is the staff signal that an order is ready for admin
// review. pending -> awaiting_approval, with a notification to every admin.
func MarkAwaitingApproval(ctx context.Context, db *sql.DB, actor workflow.Actor, orderID int64) (*models.Order, error) {
	if !actor.IsStaff() {
		return nil, database.ErrNotAuthorized
	}

	var order *models.Order
	err := database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := requireAssignedStaff(current, actor); err != nil {
			return err
		}
		if !workflow.CanTransition(workflow.Status(current.Status), workflow.StatusAwaitingApproval) {
			return database.ErrWrongState
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW(), version = version + 1 WHERE id = $2`,
			string(workflow.StatusAwaitingApproval), orderID)
		if err != nil {
			return fmt.Errorf("mark awaiting approval: %w", err)
		}

		admins, err := adminIDs(ctx, tx)
		if err != nil {
			return err
		}
		if err := insertDrafts(ctx, tx, workflow.AwaitingDrafts(admins, orderID)); err != nil {
			return err
		}

		order, err = fetchOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ApproveOrder is the admin decision point. A sold device or a double booking
// by another open order auto-rejects with the conflict reason in the order
// notes; otherwise the order is approved and its devices move to reserved.
// Devices become sold only at completion.
func ApproveOrder(ctx context.Context, db *sql.DB, actor workflow.Actor, orderID int64) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, database.ErrNotAuthorized
	}

	var order *models.Order
	err := database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !workflow.CanTransition(workflow.Status(current.Status), workflow.StatusApproved) {
			return database.ErrWrongState
		}

		// Orders the checkout resolver left unassigned get one more
		// assignment attempt; staff hired or re-addressed since checkout
		// can still pick the order up.
		if current.AssignedStaffID == nil {
			staffID, err := resolveStaffByAddress(ctx, tx, current.DeliveryAddress)
			if err != nil {
				return err
			}
			if staffID != nil {
				if err := assignStaffTx(ctx, tx, current, *staffID); err != nil {
					return err
				}
			}
		}

		items, err := lockOrderDevices(ctx, tx, orderID)
		if err != nil {
			return err
		}
		deviceIDs := make([]int64, 0, len(items))
		for _, it := range items {
			deviceIDs = append(deviceIDs, it.DeviceID)
		}

		claims, err := deviceClaims(ctx, tx, orderID, deviceIDs)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		decision := workflow.DecideApproval(items, claims, current.AssignedStaffID)

		if decision.Outcome == workflow.StatusRejected {
			_, err = tx.ExecContext(ctx,
				`UPDATE orders
				 SET status = $1, notes = $2, approved_by_id = $3, approved_at = $4,
				     updated_at = NOW(), version = version + 1
				 WHERE id = $5`,
				string(workflow.StatusRejected), decision.Reason, actor.ID, now, orderID)
			if err != nil {
				return fmt.Errorf("reject order: %w", err)
			}
			drafts := workflow.RejectionDrafts(current.AssignedStaffID, current.CustomerID, orderID, decision.Reason)
			if err := insertDrafts(ctx, tx, drafts); err != nil {
				return err
			}
			order, err = fetchOrderTx(ctx, tx, orderID)
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, approved_by_id = $2, approved_at = $3,
			     updated_at = NOW(), version = version + 1
			 WHERE id = $4`,
			string(workflow.StatusApproved), actor.ID, now, orderID)
		if err != nil {
			return fmt.Errorf("approve order: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE devices SET status = $1, modified_at = NOW(), version = version + 1
			 WHERE id = ANY($2)`,
			models.DeviceStatusReserved, pq.Array(deviceIDs))
		if err != nil {
			return fmt.Errorf("reserve devices: %w", err)
		}

		drafts := workflow.ApprovalDrafts(current.AssignedStaffID, current.CustomerID, orderID)
		if err := insertDrafts(ctx, tx, drafts); err != nil {
			return err
		}

		order, err = fetchOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder cancels a pending or awaiting order with a mandatory
// human-supplied reason. The actor and time of the cancellation reuse the
// approved_by/approved_at columns, as the original schema did.
func CancelOrder(ctx context.Context, db *sql.DB, actor workflow.Actor, orderID int64, reason string) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, database.ErrNotAuthorized
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, database.ErrReasonRequired
	}

	var order *models.Order
	err := database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !workflow.CanTransition(workflow.Status(current.Status), workflow.StatusCancelled) {
			return database.ErrWrongState
		}

		now := time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, notes = $2, approved_by_id = $3, approved_at = $4,
			     updated_at = NOW(), version = version + 1
			 WHERE id = $5`,
			string(workflow.StatusCancelled), reason, actor.ID, now, orderID)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}

		drafts := workflow.CancellationDrafts(current.AssignedStaffID, current.CustomerID, orderID, reason)
		if err := insertDrafts(ctx, tx, drafts); err != nil {
			return err
		}

		order, err = fetchOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CompleteOrder is the staff report of a successful delivery. Devices flip to
// sold idempotently (already-sold devices are skipped), one sale row is
// recorded per device actually sold, and admins plus the customer are
// notified.
func CompleteOrder(ctx context.Context, db *sql.DB, actor workflow.Actor, orderID int64) (*models.Order, error) {
	if !actor.IsStaff() {
		return nil, database.ErrNotAuthorized
	}

	var order *models.Order
	err := database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := requireAssignedStaff(current, actor); err != nil {
			return err
		}
		if !workflow.CanTransition(workflow.Status(current.Status), workflow.StatusCompleted) {
			return database.ErrWrongState
		}

		items, err := fetchOrderItems(ctx, tx, orderID)
		if err != nil {
			return err
		}
		deviceIDs := make([]int64, 0, len(items))
		priceByDevice := make(map[int64]models.OrderItem, len(items))
		for _, it := range items {
			deviceIDs = append(deviceIDs, it.DeviceID)
			priceByDevice[it.DeviceID] = it
		}

		// Skip devices something else already marked sold.
		rows, err := tx.QueryContext(ctx,
			`UPDATE devices SET status = $1, modified_at = NOW(), version = version + 1
			 WHERE id = ANY($2) AND status <> $1
			 RETURNING id`,
			models.DeviceStatusSold, pq.Array(deviceIDs))
		if err != nil {
			return fmt.Errorf("mark devices sold: %w", err)
		}
		var soldNow []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan sold device: %w", err)
			}
			soldNow = append(soldNow, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		for _, deviceID := range soldNow {
			item := priceByDevice[deviceID]
			if err := recordOrderSale(ctx, tx, current, actor.ID, deviceID, item.UnitPrice); err != nil {
				return err
			}
			if err := logInventoryTx(ctx, tx, deviceID, &actor.ID, models.TxTypeSale,
				fmt.Sprintf("sold via order #%d", orderID)); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, completed_at = $2, updated_at = NOW(), version = version + 1
			 WHERE id = $3`,
			string(workflow.StatusCompleted), now, orderID)
		if err != nil {
			return fmt.Errorf("complete order: %w", err)
		}

		admins, err := adminIDs(ctx, tx)
		if err != nil {
			return err
		}
		drafts := workflow.CompletionDrafts(admins, current.CustomerID, orderID)
		if err := insertDrafts(ctx, tx, drafts); err != nil {
			return err
		}

		order, err = fetchOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FailOrder is the staff report of a failed delivery: devices are restocked
// to available, the reason lands in the order notes, and admins plus the
// customer are notified.
func FailOrder(ctx context.Context, db *sql.DB, actor workflow.Actor, orderID int64, reason string) (*models.Order, error) {
	if !actor.IsStaff() {
		return nil, database.ErrNotAuthorized
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, database.ErrReasonRequired
	}

	var order *models.Order
	err := database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := requireAssignedStaff(current, actor); err != nil {
			return err
		}
		if !workflow.CanTransition(workflow.Status(current.Status), workflow.StatusFailed) {
			return database.ErrWrongState
		}

		items, err := fetchOrderItems(ctx, tx, orderID)
		if err != nil {
			return err
		}
		deviceIDs := make([]int64, 0, len(items))
		for _, it := range items {
			deviceIDs = append(deviceIDs, it.DeviceID)
		}

		// Sold devices stay sold; everything the approval reserved goes back
		// on the shelf. Only rows actually flipped get a restock log entry.
		rows, err := tx.QueryContext(ctx,
			`UPDATE devices SET status = $1, modified_at = NOW(), version = version + 1
			 WHERE id = ANY($2) AND status <> $3
			 RETURNING id`,
			models.DeviceStatusAvailable, pq.Array(deviceIDs), models.DeviceStatusSold)
		if err != nil {
			return fmt.Errorf("restock devices: %w", err)
		}
		var restocked []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan restocked device: %w", err)
			}
			restocked = append(restocked, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		for _, deviceID := range restocked {
			if err := logInventoryTx(ctx, tx, deviceID, &actor.ID, models.TxTypeRestock,
				fmt.Sprintf("order #%d failed: %s", orderID, reason)); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, notes = $2, updated_at = NOW(), version = version + 1
			 WHERE id = $3`,
			string(workflow.StatusFailed), reason, orderID)
		if err != nil {
			return fmt.Errorf("fail order: %w", err)
		}

		admins, err := adminIDs(ctx, tx)
		if err != nil {
			return err
		}
		drafts := workflow.FailureDrafts(admins, current.CustomerID, orderID, reason)
		if err := insertDrafts(ctx, tx, drafts); err != nil {
			return err
		}

		order, err = fetchOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// SoftDeleteOrder hides a cancelled order. No device side effects.
func SoftDeleteOrder(ctx context.Context, db *sql.DB, actor workflow.Actor, orderID int64) error {
	if !actor.IsAdmin() {
		return database.ErrNotAuthorized
	}

	return database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if workflow.Status(current.Status) != workflow.StatusCancelled {
			return database.ErrWrongState
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET is_deleted = TRUE, updated_at = NOW(), version = version + 1 WHERE id = $1`,
			orderID)
		if err != nil {
			return fmt.Errorf("soft delete order: %w", err)
		}
		return nil
	})
}
