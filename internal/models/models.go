package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an internal account: an admin or a staff member. Customers live in
// their own table and are never interchangeable with users.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

type Customer struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	DeliveryAddress string    `json:"delivery_address,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int       `json:"version"`
}

// Device is one physical inventory unit. Featured devices are catalog entries
// without an IMEI. Lifecycle tracks soft deletion separately from the sales
// status so a sold device can still be purged from the catalog.
type Device struct {
	ID              int64           `json:"id"`
	IMEI            string          `json:"imei,omitempty"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	RAM             string          `json:"ram"`
	ROM             string          `json:"rom"`
	Color           string          `json:"color,omitempty"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	PriceCash       decimal.Decimal `json:"price_cash"`
	PriceCredit     decimal.Decimal `json:"price_credit"`
	Status          string          `json:"status"`
	Lifecycle       string          `json:"lifecycle"`
	Featured        bool            `json:"featured"`
	AssignedStaffID *int64          `json:"assigned_staff_id,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ArrivalDate     time.Time       `json:"arrival_date"`
	ModifiedAt      time.Time       `json:"modified_at"`
	Version         int             `json:"version"`
}

const (
	DeviceStatusAvailable   = "available"
	DeviceStatusReserved    = "reserved"
	DeviceStatusAssigned    = "assigned"
	DeviceStatusTransferred = "transferred"
	DeviceStatusSold        = "sold"
	DeviceStatusFeatured    = "featured"
)

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerID      int64           `json:"customer_id"`
	Status          string          `json:"status"`
	DeliveryAddress string          `json:"delivery_address"`
	PaymentOption   string          `json:"payment_option"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AssignedStaffID *int64          `json:"assigned_staff_id,omitempty"`
	ApprovedByID    *int64          `json:"approved_by_id,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	IsDeleted       bool            `json:"is_deleted"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem snapshots the device price at order time; later price edits on the
// device never reach an existing order.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	DeviceID  int64           `json:"device_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	PaymentCash   = "cash"
	PaymentCredit = "credit"
)

type CartItem struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	DeviceID   int64     `json:"device_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	CartItemActive  = "active"
	CartItemOrdered = "ordered"
)

type Notification struct {
	ID            int64     `json:"id"`
	RecipientID   int64     `json:"recipient_id"`
	RecipientType string    `json:"recipient_type"`
	Message       string    `json:"message"`
	Link          string    `json:"link,omitempty"`
	Kind          string    `json:"kind,omitempty"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sale records the money side of a device leaving the shop, either through a
// completed order or a direct over-the-counter sale by staff.
type Sale struct {
	ID            int64           `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	DeviceID      int64           `json:"device_id"`
	SellerID      int64           `json:"seller_id"`
	CustomerID    *int64          `json:"customer_id,omitempty"`
	OrderID       *int64          `json:"order_id,omitempty"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentType   string          `json:"payment_type"`
	Notes         string          `json:"notes,omitempty"`
	SaleDate      time.Time       `json:"sale_date"`
}

// InventoryTransaction is the append-only movement log for a device:
// arrivals, transfers between staff, sales and restocks.
type InventoryTransaction struct {
	ID        int64     `json:"id"`
	DeviceID  int64     `json:"device_id"`
	StaffID   *int64    `json:"staff_id,omitempty"`
	Type      string    `json:"type"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	TxTypeArrival     = "arrival"
	TxTypeSale        = "sale"
	TxTypeRestock     = "restock"
	TxTypeTransferIn  = "transfer_in"
	TxTypeTransferOut = "transfer_out"
)
