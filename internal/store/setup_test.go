package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/okothdev/device-order-store/internal/models"
	"github.com/okothdev/device-order-store/internal/store"
	"github.com/okothdev/device-order-store/internal/workflow"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func runMigrations(db *sql.DB) error {
	migrationDir := "../../migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)

	for _, filename := range migrationFiles {
		filePath := filepath.Join(migrationDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return nil
}

// Seed helpers. Each fails the test on error so the scenarios read linearly.

func seedAdmin(t *testing.T, db *sql.DB, username string) *models.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), db, username, username+"@shop.test", models.RoleAdmin, "")
	if err != nil {
		t.Fatalf("Create admin %s: %v", username, err)
	}
	return user
}

func seedStaff(t *testing.T, db *sql.DB, username, address string) *models.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), db, username, username+"@shop.test", models.RoleStaff, address)
	if err != nil {
		t.Fatalf("Create staff %s: %v", username, err)
	}
	return user
}

func seedCustomer(t *testing.T, db *sql.DB, email, fullName, address string) *models.Customer {
	t.Helper()
	customer, err := store.CreateCustomer(context.Background(), db, email, fullName, "", address)
	if err != nil {
		t.Fatalf("Create customer %s: %v", email, err)
	}
	return customer
}

func seedDevice(t *testing.T, db *sql.DB, admin workflow.Actor, imei string, priceCash int64) *models.Device {
	t.Helper()
	device, err := store.CreateDevice(context.Background(), db, admin, store.CreateDeviceRequest{
		IMEI:          imei,
		Brand:         "Samsung",
		Model:         "Galaxy A14",
		RAM:           "4GB",
		ROM:           "128GB",
		Color:         "black",
		PurchasePrice: decimal.NewFromInt(priceCash - 50),
		PriceCash:     decimal.NewFromInt(priceCash),
		PriceCredit:   decimal.NewFromInt(priceCash + 30),
	})
	if err != nil {
		t.Fatalf("Create device %s: %v", imei, err)
	}
	return device
}

// testIMEI produces a distinct valid 15-digit IMEI per sequence number.
func testIMEI(n int) string {
	return fmt.Sprintf("3549%011d", n)
}

// placeOrder fills the customer's cart with the given devices and checks out.
func placeOrder(t *testing.T, db *sql.DB, customer workflow.Actor, paymentOption string, deviceIDs ...int64) *models.Order {
	t.Helper()
	ctx := context.Background()
	for _, id := range deviceIDs {
		if _, err := store.AddToCart(ctx, db, customer, id); err != nil {
			t.Fatalf("Add device %d to cart: %v", id, err)
		}
	}
	order, err := store.Checkout(ctx, db, customer, paymentOption)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	return order
}

func notificationKinds(t *testing.T, db *sql.DB, recipientType string, recipientID int64) []string {
	t.Helper()
	list, err := store.ListNotifications(context.Background(), db, recipientType, recipientID, false, 50)
	if err != nil {
		t.Fatalf("List notifications for %s %d: %v", recipientType, recipientID, err)
	}
	kinds := make([]string, 0, len(list))
	for _, n := range list {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

func hasKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
