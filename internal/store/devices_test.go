package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/models"
	"github.com/okothdev/device-order-store/internal/store"
	"github.com/okothdev/device-order-store/internal/workflow"
)

func TestCreateDeviceValidatesIMEI(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	admin := workflow.Admin(seedAdmin(t, db, "admin1").ID)

	_, err := store.CreateDevice(ctx, db, admin, store.CreateDeviceRequest{
		IMEI:      "12345",
		Brand:     "Tecno",
		Model:     "Spark 10",
		RAM:       "4GB",
		ROM:       "64GB",
		PriceCash: decimal.NewFromInt(150),
	})
	if !errors.Is(err, database.ErrInvalidIMEI) {
		t.Errorf("Expected invalid IMEI error, got: %v", err)
	}

	seedDevice(t, db, admin, testIMEI(1), 200)
	_, err = store.CreateDevice(ctx, db, admin, store.CreateDeviceRequest{
		IMEI:      testIMEI(1),
		Brand:     "Tecno",
		Model:     "Spark 10",
		RAM:       "4GB",
		ROM:       "64GB",
		PriceCash: decimal.NewFromInt(150),
	})
	if !errors.Is(err, database.ErrDuplicateIMEI) {
		t.Errorf("Expected duplicate IMEI error, got: %v", err)
	}
}

func TestFeaturedDeviceNeedsNoIMEI(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	admin := workflow.Admin(seedAdmin(t, db, "admin1").ID)

	device, err := store.CreateDevice(ctx, db, admin, store.CreateDeviceRequest{
		Brand:     "Apple",
		Model:     "iPhone 15",
		RAM:       "8GB",
		ROM:       "256GB",
		PriceCash: decimal.NewFromInt(1200),
		Featured:  true,
	})
	if err != nil {
		t.Fatalf("Create featured device: %v", err)
	}
	if device.Status != models.DeviceStatusFeatured {
		t.Errorf("Expected featured status, got %s", device.Status)
	}
	if device.IMEI != "" {
		t.Errorf("Expected featured device without IMEI, got %s", device.IMEI)
	}

	featured, err := store.ListFeaturedDevices(ctx, db)
	if err != nil {
		t.Fatalf("List featured devices: %v", err)
	}
	if len(featured) != 1 {
		t.Errorf("Expected 1 featured device, got %d", len(featured))
	}
}

func TestDeviceRemovalLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	admin := workflow.Admin(seedAdmin(t, db, "admin1").ID)
	device := seedDevice(t, db, admin, testIMEI(1), 300)

	// Soft delete hides the device from reads; restore brings it back.
	deleted, err := store.SoftDeleteDevice(ctx, db, admin, device.ID)
	if err != nil {
		t.Fatalf("Soft delete device: %v", err)
	}
	if deleted.Lifecycle != string(workflow.LifecycleSoftDeleted) {
		t.Errorf("Expected soft_deleted lifecycle, got %s", deleted.Lifecycle)
	}

	restored, err := store.RestoreDevice(ctx, db, admin, device.ID)
	if err != nil {
		t.Fatalf("Restore device: %v", err)
	}
	if restored.Lifecycle != string(workflow.LifecycleActive) {
		t.Errorf("Expected active lifecycle after restore, got %s", restored.Lifecycle)
	}

	// Purge eligibility requires passing through soft deletion first.
	_, err = store.MarkDevicePurgeEligible(ctx, db, admin, device.ID)
	if !errors.Is(err, database.ErrWrongLifecycle) {
		t.Fatalf("Expected wrong lifecycle error, got: %v", err)
	}
	if err := store.PurgeDevice(ctx, db, admin, device.ID); !errors.Is(err, database.ErrWrongLifecycle) {
		t.Fatalf("Expected wrong lifecycle error on premature purge, got: %v", err)
	}

	if _, err := store.SoftDeleteDevice(ctx, db, admin, device.ID); err != nil {
		t.Fatalf("Soft delete device: %v", err)
	}
	if _, err := store.MarkDevicePurgeEligible(ctx, db, admin, device.ID); err != nil {
		t.Fatalf("Mark purge eligible: %v", err)
	}

	// Purge-eligible devices are invisible even to direct reads.
	_, err = store.GetDevice(ctx, db, device.ID)
	if !errors.Is(err, database.ErrDeviceNotFound) {
		t.Errorf("Expected device not found when purge eligible, got: %v", err)
	}

	if err := store.PurgeDevice(ctx, db, admin, device.ID); err != nil {
		t.Fatalf("Purge device: %v", err)
	}
}

func TestRestoreConflictsWithReusedIMEI(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	admin := workflow.Admin(seedAdmin(t, db, "admin1").ID)

	device := seedDevice(t, db, admin, testIMEI(1), 300)
	if _, err := store.SoftDeleteDevice(ctx, db, admin, device.ID); err != nil {
		t.Fatalf("Soft delete device: %v", err)
	}

	// The IMEI is free again while the original is soft deleted.
	seedDevice(t, db, admin, testIMEI(1), 310)

	_, err := store.RestoreDevice(ctx, db, admin, device.ID)
	if !errors.Is(err, database.ErrDuplicateIMEI) {
		t.Errorf("Expected duplicate IMEI on restore, got: %v", err)
	}
}

func TestTransferDevice(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	admin := workflow.Admin(seedAdmin(t, db, "admin1").ID)
	staff1 := seedStaff(t, db, "staff1", "Shop A")
	staff2 := seedStaff(t, db, "staff2", "Shop B")
	device := seedDevice(t, db, admin, testIMEI(1), 300)

	device2, err := store.TransferDevice(ctx, db, admin, device.ID, staff1.ID, "stocking Shop A")
	if err != nil {
		t.Fatalf("Transfer device: %v", err)
	}
	if device2.AssignedStaffID == nil || *device2.AssignedStaffID != staff1.ID {
		t.Errorf("Expected device assigned to staff %d, got %v", staff1.ID, device2.AssignedStaffID)
	}
	if device2.Status != models.DeviceStatusAssigned {
		t.Errorf("Expected assigned status, got %s", device2.Status)
	}

	_, err = store.TransferDevice(ctx, db, admin, device.ID, staff1.ID, "again")
	if !errors.Is(err, database.ErrAlreadyAssigned) {
		t.Errorf("Expected already-assigned error, got: %v", err)
	}

	if _, err = store.TransferDevice(ctx, db, admin, device.ID, staff2.ID, "moving to Shop B"); err != nil {
		t.Fatalf("Transfer to second staff: %v", err)
	}

	// Movement log: arrival, transfer_in, then transfer_out + transfer_in.
	txs, err := store.ListDeviceTransactions(ctx, db, device.ID)
	if err != nil {
		t.Fatalf("List device transactions: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("Expected 4 inventory transactions, got %d", len(txs))
	}
	counts := map[string]int{}
	for _, tx := range txs {
		counts[tx.Type]++
	}
	if counts[models.TxTypeArrival] != 1 || counts[models.TxTypeTransferIn] != 2 || counts[models.TxTypeTransferOut] != 1 {
		t.Errorf("Unexpected transaction mix: %v", counts)
	}
}

func TestDirectSale(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	admin := workflow.Admin(seedAdmin(t, db, "admin1").ID)
	staff := workflow.Staff(seedStaff(t, db, "staff1", "Shop A").ID)
	device := seedDevice(t, db, admin, testIMEI(1), 300)

	sale, err := store.RecordDirectSale(ctx, db, staff, store.DirectSaleRequest{
		IMEI:        device.IMEI,
		SalePrice:   decimal.NewFromInt(290),
		AmountPaid:  decimal.NewFromInt(290),
		PaymentType: models.PaymentCash,
		Notes:       "walk-in",
	})
	if err != nil {
		t.Fatalf("Record direct sale: %v", err)
	}
	if sale.DeviceID != device.ID {
		t.Errorf("Expected sale for device %d, got %d", device.ID, sale.DeviceID)
	}
	if sale.OrderID != nil {
		t.Errorf("Expected no order link on direct sale, got %v", sale.OrderID)
	}

	deviceAfter, err := store.GetDevice(ctx, db, device.ID)
	if err != nil {
		t.Fatalf("Get device: %v", err)
	}
	if deviceAfter.Status != models.DeviceStatusSold {
		t.Errorf("Expected device sold, got %s", deviceAfter.Status)
	}

	// A sold device cannot be sold twice.
	_, err = store.RecordDirectSale(ctx, db, staff, store.DirectSaleRequest{
		IMEI:        device.IMEI,
		SalePrice:   decimal.NewFromInt(290),
		AmountPaid:  decimal.NewFromInt(290),
		PaymentType: models.PaymentCash,
	})
	if !errors.Is(err, database.ErrDeviceUnavailable) {
		t.Errorf("Expected unavailable error on second sale, got: %v", err)
	}
}

func TestNotificationsLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	admin := seedAdmin(t, db, "admin1")
	staff := seedStaff(t, db, "staff1", "Shop A")
	customer := seedCustomer(t, db, "notif@example.com", "Notified Customer", "Shop A")
	device := seedDevice(t, db, workflow.Admin(admin.ID), testIMEI(1), 300)

	order := placeOrder(t, db, workflow.Customer(customer.ID), models.PaymentCash, device.ID)
	if _, err := store.MarkAwaitingApproval(ctx, db, workflow.Staff(staff.ID), order.ID); err != nil {
		t.Fatalf("Mark awaiting approval: %v", err)
	}

	count, err := store.UnreadCount(ctx, db, workflow.RecipientAdmin, admin.ID)
	if err != nil {
		t.Fatalf("Unread count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 unread admin notification, got %d", count)
	}

	if err := store.MarkAllRead(ctx, db, workflow.RecipientAdmin, admin.ID); err != nil {
		t.Fatalf("Mark all read: %v", err)
	}
	count, err = store.UnreadCount(ctx, db, workflow.RecipientAdmin, admin.ID)
	if err != nil {
		t.Fatalf("Unread count: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 unread after mark-all-read, got %d", count)
	}

	list, err := store.ListNotifications(ctx, db, workflow.RecipientStaff, staff.ID, false, 10)
	if err != nil {
		t.Fatalf("List staff notifications: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 staff notification, got %d", len(list))
	}

	// Deletion is scoped to the recipient; another recipient's id misses.
	err = store.DeleteNotification(ctx, db, workflow.RecipientAdmin, admin.ID, list[0].ID)
	if !errors.Is(err, database.ErrNotificationNotFound) {
		t.Errorf("Expected not found deleting another recipient's notification, got: %v", err)
	}
	if err := store.DeleteNotification(ctx, db, workflow.RecipientStaff, staff.ID, list[0].ID); err != nil {
		t.Fatalf("Delete notification: %v", err)
	}

	if err := store.ClearNotifications(ctx, db, workflow.RecipientCustomer, customer.ID); err != nil {
		t.Fatalf("Clear notifications: %v", err)
	}
}
