package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/models"
	"github.com/okothdev/device-order-store/internal/workflow"
)

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s", strings.ToUpper(uuid.NewString()[:8]))
}

// Checkout converts the customer's active cart into a pending order: price
// snapshot per item, duplicate-set guard against the customer's open orders,
// staff auto-assignment by delivery address, cart rows flipped to ordered.
// The whole conversion commits atomically or not at all.
func Checkout(ctx context.Context, db *sql.DB, actor workflow.Actor, paymentOption string) (*models.Order, error) {
	if !actor.IsCustomer() {
		return nil, database.ErrNotAuthorized
	}
	if paymentOption != models.PaymentCash && paymentOption != models.PaymentCredit {
		return nil, database.ErrInvalidPayment
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.WorkflowTxOptions(), func(tx *sql.Tx) error {
		var deliveryAddress, customerName string
		err := tx.QueryRowContext(ctx,
			`SELECT delivery_address, full_name FROM customers WHERE id = $1`,
			actor.ID).Scan(&deliveryAddress, &customerName)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrCustomerNotFound
			}
			return fmt.Errorf("load customer: %w", err)
		}

		// Lock the cart's devices so their status cannot move under us
		// between the availability check and the item inserts.
		rows, err := tx.QueryContext(ctx,
			`SELECT ci.id, d.id, d.brand, d.model, d.status, d.lifecycle,
			        d.purchase_price, d.price_cash, d.price_credit
			 FROM cart_items ci
			 JOIN devices d ON d.id = ci.device_id
			 WHERE ci.customer_id = $1 AND ci.status = $2
			 ORDER BY d.id
			 FOR UPDATE OF d`,
			actor.ID, models.CartItemActive)
		if err != nil {
			return fmt.Errorf("lock cart devices: %w", err)
		}

		type cartLine struct {
			cartItemID int64
			deviceID   int64
			unitPrice  decimal.Decimal
		}
		var lines []cartLine
		var deviceIDs []int64
		for rows.Next() {
			var (
				line                   cartLine
				brand, model           string
				status, lifecycle      string
				purchase, cash, credit decimal.Decimal
			)
			if err := rows.Scan(&line.cartItemID, &line.deviceID, &brand, &model,
				&status, &lifecycle, &purchase, &cash, &credit); err != nil {
				rows.Close()
				return fmt.Errorf("scan cart line: %w", err)
			}
			if workflow.Lifecycle(lifecycle) != workflow.LifecycleActive {
				rows.Close()
				return fmt.Errorf("%s %s: %w", brand, model, database.ErrDeviceNotActive)
			}
			if status != models.DeviceStatusAvailable {
				rows.Close()
				return fmt.Errorf("%s %s: %w", brand, model, database.ErrDeviceUnavailable)
			}
			line.unitPrice = snapshotPrice(paymentOption, purchase, cash, credit)
			lines = append(lines, line)
			deviceIDs = append(deviceIDs, line.deviceID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		if len(lines) == 0 {
			return database.ErrCartEmpty
		}

		dup, err := hasDuplicateOpenOrder(ctx, tx, actor.ID, deviceIDs)
		if err != nil {
			return err
		}
		if dup {
			return database.ErrDuplicateOrder
		}

		var total decimal.Decimal
		for _, line := range lines {
			total = total.Add(line.unitPrice)
		}

		staffID, err := resolveStaffByAddress(ctx, tx, deliveryAddress)
		if err != nil {
			return err
		}

		var orderID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_number, customer_id, status, delivery_address, payment_option,
			                     total_amount, assigned_staff_id, created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), 1)
			 RETURNING id`,
			generateOrderNumber(), actor.ID, string(workflow.StatusPending),
			deliveryAddress, paymentOption, total, staffID).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, line := range lines {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, device_id, unit_price, created_at)
				 VALUES ($1, $2, $3, NOW())`,
				orderID, line.deviceID, line.unitPrice)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		cartIDs := make([]int64, 0, len(lines))
		for _, line := range lines {
			cartIDs = append(cartIDs, line.cartItemID)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE cart_items SET status = $1 WHERE id = ANY($2)`,
			models.CartItemOrdered, pq.Array(cartIDs))
		if err != nil {
			return fmt.Errorf("consume cart items: %w", err)
		}

		if staffID != nil {
			draft := workflow.AssignmentDraft(*staffID, orderID, customerName)
			if err := insertDrafts(ctx, tx, []workflow.Draft{draft}); err != nil {
				return err
			}
		}

		order, err = fetchOrderTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func snapshotPrice(paymentOption string, purchase, cash, credit decimal.Decimal) decimal.Decimal {
	var price decimal.Decimal
	switch paymentOption {
	case models.PaymentCredit:
		price = credit
	default:
		price = cash
	}
	if price.IsZero() {
		price = purchase
	}
	return price
}

// hasDuplicateOpenOrder compares the new device set against every open
// (pending, awaiting approval, approved) order of the same customer.
func hasDuplicateOpenOrder(ctx context.Context, tx *sql.Tx, customerID int64, deviceIDs []int64) (bool, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT o.id, oi.device_id
		 FROM orders o
		 JOIN order_items oi ON oi.order_id = o.id
		 WHERE o.customer_id = $1
		   AND o.is_deleted = FALSE
		   AND o.status IN ($2, $3, $4)`,
		customerID,
		string(workflow.StatusPending), string(workflow.StatusAwaitingApproval), string(workflow.StatusApproved))
	if err != nil {
		return false, fmt.Errorf("load open orders: %w", err)
	}
	defer rows.Close()

	sets := make(map[int64][]int64)
	for rows.Next() {
		var orderID, deviceID int64
		if err := rows.Scan(&orderID, &deviceID); err != nil {
			return false, fmt.Errorf("scan open order item: %w", err)
		}
		sets[orderID] = append(sets[orderID], deviceID)
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("rows error: %w", err)
	}

	for _, set := range sets {
		if workflow.SameDeviceSet(set, deviceIDs) {
			return true, nil
		}
	}
	return false, nil
}

// resolveStaffByAddress finds the staff member whose address matches the
// delivery address. Candidates are loaded and matched in Go so the matching
// policy lives in exactly one place, workflow.AddressMatches. No match is not
// an error; the order stays unassigned for manual handling.
func resolveStaffByAddress(ctx context.Context, tx *sql.Tx, deliveryAddress string) (*int64, error) {
	if strings.TrimSpace(deliveryAddress) == "" {
		return nil, nil
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, address FROM users
		 WHERE role = $1 AND is_active = TRUE
		 ORDER BY id`,
		models.RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("resolve staff: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			address string
		)
		if err := rows.Scan(&id, &address); err != nil {
			return nil, fmt.Errorf("scan staff candidate: %w", err)
		}
		if workflow.AddressMatches(address, deliveryAddress) {
			return &id, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return nil, nil
}

func scanOrder(row interface {
	Scan(dest ...interface{}) error
}, order *models.Order) error {
	return row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.Status,
		&order.DeliveryAddress,
		&order.PaymentOption,
		&order.TotalAmount,
		&order.AssignedStaffID,
		&order.ApprovedByID,
		&order.ApprovedAt,
		&order.CompletedAt,
		&order.Notes,
		&order.IsDeleted,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
}

const orderColumns = `id, order_number, customer_id, status, delivery_address, payment_option,
	total_amount, assigned_staff_id, approved_by_id, approved_at, completed_at,
	notes, is_deleted, created_at, updated_at, version`

func fetchOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order := &models.Order{}
	err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("fetch order: %w", err)
	}

	items, err := fetchOrderItems(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func fetchOrderItems(ctx context.Context, q querier, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, device_id, unit_price, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.DeviceID, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

// GetOrder returns an order with its items. Soft-deleted orders are treated
// as missing.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}
	err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND is_deleted = FALSE`, id), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := fetchOrderItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListOrders pages every non-deleted order, newest first, optionally filtered
// by status. Admin dashboard view.
func ListOrders(ctx context.Context, db *sql.DB, status string, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE is_deleted = FALSE AND ($1 = '' OR status = $1)`,
		status).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE is_deleted = FALSE AND ($1 = '' OR status = $1)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		status, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ListCustomerOrders pages one customer's order history with a keyset cursor.
func ListCustomerOrders(ctx context.Context, db *sql.DB, customerID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE customer_id = $1
		   AND is_deleted = FALSE
		   AND (created_at, id) < ($2, $3)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $4`,
		customerID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListStaffOrders pages the orders assigned to one staff member.
func ListStaffOrders(ctx context.Context, db *sql.DB, staffID int64, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE assigned_staff_id = $1 AND is_deleted = FALSE`,
		staffID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count staff orders: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE assigned_staff_id = $1 AND is_deleted = FALSE
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		staffID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list staff orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
