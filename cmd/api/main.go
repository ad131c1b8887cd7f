package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/okothdev/device-order-store/internal/config"
	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/store"
	"github.com/okothdev/device-order-store/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(&cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database")

	srv := &server{db: db, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/users", srv.handleUsers)
	mux.HandleFunc("/users/", srv.handleUserByID)
	mux.HandleFunc("/customers", srv.handleCustomers)
	mux.HandleFunc("/customers/", srv.handleCustomerByID)
	mux.HandleFunc("/devices", srv.handleDevices)
	mux.HandleFunc("/devices/", srv.handleDeviceByID)
	mux.HandleFunc("/cart", srv.handleCart)
	mux.HandleFunc("/orders", srv.handleOrders)
	mux.HandleFunc("/orders/", srv.handleOrderByID)
	mux.HandleFunc("/notifications", srv.handleNotifications)
	mux.HandleFunc("/notifications/", srv.handleNotificationByID)
	mux.HandleFunc("/sales", srv.handleSales)
	mux.HandleFunc("/sales/", srv.handleSaleByID)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(cfg *config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Encoding = cfg.Encoding
	return zapCfg.Build()
}

type server struct {
	db  *sql.DB
	log *zap.Logger
}

// actorFrom reads the authenticated actor the upstream auth layer injects.
// This service trusts the headers; authentication itself lives elsewhere.
func actorFrom(r *http.Request) (workflow.Actor, error) {
	id, err := strconv.ParseInt(r.Header.Get("X-Actor-Id"), 10, 64)
	if err != nil {
		return workflow.Actor{}, errors.New("missing or invalid X-Actor-Id header")
	}
	role, err := workflow.ParseRole(r.Header.Get("X-Actor-Role"))
	if err != nil {
		return workflow.Actor{}, errors.New("missing or invalid X-Actor-Role header")
	}
	return workflow.Actor{ID: id, Role: role}, nil
}

func (s *server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

func (s *server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps the store error taxonomy onto HTTP statuses:
// validation 400, authorization 403, not-found 404, workflow conflicts 409,
// everything else a logged 500.
func (s *server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrCustomerNotFound),
		errors.Is(err, database.ErrDeviceNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrSaleNotFound),
		errors.Is(err, database.ErrNotificationNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrNotAuthorized),
		errors.Is(err, database.ErrNotAssignedStaff):
		s.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrCartEmpty),
		errors.Is(err, database.ErrReasonRequired),
		errors.Is(err, database.ErrInvalidIMEI),
		errors.Is(err, database.ErrInvalidPayment):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrWrongState),
		errors.Is(err, database.ErrWrongLifecycle),
		errors.Is(err, database.ErrDuplicateOrder),
		errors.Is(err, database.ErrDuplicateIMEI),
		errors.Is(err, database.ErrDeviceUnavailable),
		errors.Is(err, database.ErrDeviceNotActive),
		errors.Is(err, database.ErrCartItemExists),
		errors.Is(err, database.ErrAlreadyAssigned),
		errors.Is(err, database.ErrLockTimeout):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("store error", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func pathID(path, prefix string) (int64, string) {
	rest := strings.TrimPrefix(path, prefix)
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, ""
	}
	return id, action
}

func (s *server) handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Role     string `json:"role"`
			Address  string `json:"address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		user, err := store.CreateUser(ctx, s.db, req.Username, req.Email, req.Role, req.Address)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, user)

	case http.MethodGet:
		page, pageSize := pageParams(r)
		result, err := store.ListUsers(ctx, s.db, page, pageSize)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r.URL.Path, "/users/")
	if id == 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	user, err := store.GetUser(r.Context(), s.db, id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		var req struct {
			Email           string `json:"email"`
			FullName        string `json:"full_name"`
			PhoneNumber     string `json:"phone_number"`
			DeliveryAddress string `json:"delivery_address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		customer, err := store.CreateCustomer(ctx, s.db, req.Email, req.FullName, req.PhoneNumber, req.DeliveryAddress)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, customer)

	case http.MethodGet:
		page, pageSize := pageParams(r)
		result, err := store.ListCustomers(ctx, s.db, page, pageSize)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *server) handleCustomerByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, action := pathID(r.URL.Path, "/customers/")
	if id == 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		customer, err := store.GetCustomer(ctx, s.db, id)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, customer)

	case action == "orders" && r.Method == http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 || limit > 100 {
			limit = 20
		}
		result, err := store.ListCustomerOrders(ctx, s.db, id, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *server) handleDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		actor, err := actorFrom(r)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		var req struct {
			IMEI          string  `json:"imei"`
			Brand         string  `json:"brand"`
			Model         string  `json:"model"`
			RAM           string  `json:"ram"`
			ROM           string  `json:"rom"`
			Color         string  `json:"color"`
			PurchasePrice float64 `json:"purchase_price"`
			PriceCash     float64 `json:"price_cash"`
			PriceCredit   float64 `json:"price_credit"`
			Featured      bool    `json:"featured"`
			Notes         string  `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		device, err := store.CreateDevice(ctx, s.db, actor, store.CreateDeviceRequest{
			IMEI:          req.IMEI,
			Brand:         req.Brand,
			Model:         req.Model,
			RAM:           req.RAM,
			ROM:           req.ROM,
			Color:         req.Color,
			PurchasePrice: decimal.NewFromFloat(req.PurchasePrice),
			PriceCash:     decimal.NewFromFloat(req.PriceCash),
			PriceCredit:   decimal.NewFromFloat(req.PriceCredit),
			Featured:      req.Featured,
			Notes:         req.Notes,
		})
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, device)

	case http.MethodGet:
		if r.URL.Query().Get("featured") == "true" {
			devices, err := store.ListFeaturedDevices(ctx, s.db)
			if err != nil {
				s.respondStoreError(w, err)
				return
			}
			s.respondJSON(w, http.StatusOK, devices)
			return
		}
		page, pageSize := pageParams(r)
		result, err := store.ListDevices(ctx, s.db, r.URL.Query().Get("status"), page, pageSize)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *server) handleDeviceByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, action := pathID(r.URL.Path, "/devices/")
	if id == 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid device ID")
		return
	}

	if action == "" && r.Method == http.MethodGet {
		device, err := store.GetDevice(ctx, s.db, id)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, device)
		return
	}

	if action == "transactions" && r.Method == http.MethodGet {
		txs, err := store.ListDeviceTransactions(ctx, s.db, id)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, txs)
		return
	}

	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	switch action {
	case "soft-delete":
		device, err := store.SoftDeleteDevice(ctx, s.db, actor, id)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, device)
	case "restore":
		device, err := store.RestoreDevice(ctx, s.db, actor, id)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, device)
	case "purge-eligible":
		device, err := store.MarkDevicePurgeEligible(ctx, s.db, actor, id)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, device)
	case "purge":
		if err := store.PurgeDevice(ctx, s.db, actor, id); err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "purged"})
	case "transfer":
		var req struct {
			StaffID int64  `json:"staff_id"`
			Reason  string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		device, err := store.TransferDevice(ctx, s.db, actor, id, req.StaffID, req.Reason)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, device)
	default:
		s.respondError(w, http.StatusNotFound, "Unknown action")
	}
}

func (s *server) handleCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		items, err := store.ListCart(ctx, s.db, actor)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, items)

	case http.MethodPost:
		var req struct {
			DeviceID int64 `json:"device_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		item, err := store.AddToCart(ctx, s.db, actor, req.DeviceID)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, item)

	case http.MethodDelete:
		deviceID, _ := strconv.ParseInt(r.URL.Query().Get("device_id"), 10, 64)
		if deviceID == 0 {
			s.respondError(w, http.StatusBadRequest, "Invalid device ID")
			return
		}
		if err := store.RemoveFromCart(ctx, s.db, actor, deviceID); err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *server) handleOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		actor, err := actorFrom(r)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		var req struct {
			PaymentOption string `json:"payment_option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		order, err := store.Checkout(ctx, s.db, actor, req.PaymentOption)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.log.Info("order placed",
			zap.Int64("order_id", order.ID),
			zap.Int64("customer_id", order.CustomerID),
			zap.Int64p("assigned_staff_id", order.AssignedStaffID))
		s.respondJSON(w, http.StatusCreated, order)

	case http.MethodGet:
		actor, err := actorFrom(r)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		page, pageSize := pageParams(r)
		switch actor.Role {
		case workflow.RoleAdmin:
			result, err := store.ListOrders(ctx, s.db, r.URL.Query().Get("status"), page, pageSize)
			if err != nil {
				s.respondStoreError(w, err)
				return
			}
			s.respondJSON(w, http.StatusOK, result)
		case workflow.RoleStaff:
			result, err := store.ListStaffOrders(ctx, s.db, actor.ID, page, pageSize)
			if err != nil {
				s.respondStoreError(w, err)
				return
			}
			s.respondJSON(w, http.StatusOK, result)
		default:
			limit := pageSize
			result, err := store.ListCustomerOrders(ctx, s.db, actor.ID, r.URL.Query().Get("cursor"), limit)
			if err != nil {
				s.respondStoreError(w, err)
				return
			}
			s.respondJSON(w, http.StatusOK, result)
		}

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *server) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, action := pathID(r.URL.Path, "/orders/")
	if id == 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if action == "" && r.Method == http.MethodGet {
		actor, err := actorFrom(r)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		order, err := store.GetOrder(ctx, s.db, id)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		// Customers may only look at their own orders.
		if actor.IsCustomer() && order.CustomerID != actor.ID {
			s.respondError(w, http.StatusForbidden, "not your order")
			return
		}
		s.respondJSON(w, http.StatusOK, order)
		return
	}

	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	actor, err := actorFrom(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	// The body is optional (approve/complete/await send none), but a body
	// that is present must parse.
	var req struct {
		Reason  string `json:"reason"`
		StaffID int64  `json:"staff_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var order interface{}
	switch action {
	case "await":
		order, err = store.MarkAwaitingApproval(ctx, s.db, actor, id)
	case "assign":
		order, err = store.AssignOrderStaff(ctx, s.db, actor, id, req.StaffID)
	case "approve":
		order, err = store.ApproveOrder(ctx, s.db, actor, id)
	case "cancel":
		order, err = store.CancelOrder(ctx, s.db, actor, id, req.Reason)
	case "complete":
		order, err = store.CompleteOrder(ctx, s.db, actor, id)
	case "fail":
		order, err = store.FailOrder(ctx, s.db, actor, id, req.Reason)
	case "delete":
		err = store.SoftDeleteOrder(ctx, s.db, actor, id)
		order = map[string]string{"status": "deleted"}
	default:
		s.respondError(w, http.StatusNotFound, "Unknown action")
		return
	}
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.log.Info("order transition",
		zap.Int64("order_id", id),
		zap.String("action", action),
		zap.Int64("actor_id", actor.ID),
		zap.String("actor_role", actor.Role.String()))
	s.respondJSON(w, http.StatusOK, order)
}

func (s *server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	recipientType := actor.Role.String()

	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("count") == "unread" {
			count, err := store.UnreadCount(ctx, s.db, recipientType, actor.ID)
			if err != nil {
				s.respondStoreError(w, err)
				return
			}
			s.respondJSON(w, http.StatusOK, map[string]int64{"unread": count})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 || limit > 200 {
			limit = 50
		}
		unreadOnly := r.URL.Query().Get("unread") == "true"
		notifications, err := store.ListNotifications(ctx, s.db, recipientType, actor.ID, unreadOnly, limit)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, notifications)

	case http.MethodPost:
		if err := store.MarkAllRead(ctx, s.db, recipientType, actor.ID); err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "read"})

	case http.MethodDelete:
		if err := store.ClearNotifications(ctx, s.db, recipientType, actor.ID); err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *server) handleNotificationByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, _ := pathID(r.URL.Path, "/notifications/")
	if id == 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}
	if r.Method != http.MethodDelete {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := store.DeleteNotification(ctx, s.db, actor.Role.String(), actor.ID, id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *server) handleSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req struct {
			IMEI        string  `json:"imei"`
			SalePrice   float64 `json:"sale_price"`
			AmountPaid  float64 `json:"amount_paid"`
			PaymentType string  `json:"payment_type"`
			CustomerID  *int64  `json:"customer_id"`
			Notes       string  `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		sale, err := store.RecordDirectSale(ctx, s.db, actor, store.DirectSaleRequest{
			IMEI:        req.IMEI,
			SalePrice:   decimal.NewFromFloat(req.SalePrice),
			AmountPaid:  decimal.NewFromFloat(req.AmountPaid),
			PaymentType: req.PaymentType,
			CustomerID:  req.CustomerID,
			Notes:       req.Notes,
		})
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, sale)

	case http.MethodGet:
		page, pageSize := pageParams(r)
		result, err := store.ListSales(ctx, s.db, actor, page, pageSize)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, result)

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *server) handleSaleByID(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r.URL.Path, "/sales/")
	if id == 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid sale ID")
		return
	}
	sale, err := store.GetSale(r.Context(), s.db, id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sale)
}
